package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"medimind_backend/internal/config"
	"medimind_backend/internal/dto"
	"medimind_backend/internal/llm"
	"medimind_backend/internal/models"
	"medimind_backend/internal/repositories"
	"medimind_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const sessionDebitReason = "consultation_session"

type ConsultationService interface {
	CreateSession(db *gorm.DB, userID string, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	GetSession(db *gorm.DB, userID, sessionID string) (*models.ConsultationSession, error)
	ListSessions(db *gorm.DB, userID string) ([]models.ConsultationSession, error)
	UpdateConversation(db *gorm.DB, userID, sessionID string, conversation json.RawMessage) error
	GenerateReport(ctx context.Context, db *gorm.DB, userID, sessionID string) (json.RawMessage, error)
}

type consultationService struct {
	consultRepo *repositories.ConsultationRepository
	ledger      LedgerService
	llmClient   *llm.Client
}

func NewConsultationService(
	consultRepo *repositories.ConsultationRepository,
	ledger LedgerService,
	llmClient *llm.Client,
) ConsultationService {
	return &consultationService{
		consultRepo: consultRepo,
		ledger:      ledger,
		llmClient:   llmClient,
	}
}

// CreateSession debits the session cost and inserts the session in
// one transaction. Either both commit or neither does; a failed
// insert never leaves a dangling debit.
func (s *consultationService) CreateSession(db *gorm.DB, userID string, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	cost := config.GetConfig().Credits.SessionCost

	session := &models.ConsultationSession{
		SessionID:      uuid.NewString(),
		UserID:         userID,
		Notes:          req.Notes,
		SelectedDoctor: datatypes.JSON(req.SelectedDoctor),
		Status:         models.SessionStatusActive,
	}

	var remaining int
	err := db.Transaction(func(tx *gorm.DB) error {
		balance, err := s.ledger.Debit(tx, userID, cost, sessionDebitReason)
		if err != nil {
			return err
		}
		remaining = balance
		return s.consultRepo.Create(tx, session)
	})
	if err != nil {
		return nil, err
	}

	return &dto.CreateSessionResponse{
		Session:          session,
		CreditsUsed:      cost,
		CreditsRemaining: remaining,
	}, nil
}

func (s *consultationService) GetSession(db *gorm.DB, userID, sessionID string) (*models.ConsultationSession, error) {
	session, err := s.consultRepo.FindBySessionID(db, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, err
	}
	if session.UserID != userID {
		// Do not reveal that the session exists.
		return nil, apperrors.ErrNotFound(repositories.ErrSessionNotFound)
	}
	return session, nil
}

func (s *consultationService) ListSessions(db *gorm.DB, userID string) ([]models.ConsultationSession, error) {
	return s.consultRepo.FindAllByUser(db, userID)
}

func (s *consultationService) UpdateConversation(db *gorm.DB, userID, sessionID string, conversation json.RawMessage) error {
	session, err := s.GetSession(db, userID, sessionID)
	if err != nil {
		return err
	}
	if session.Status != models.SessionStatusActive {
		return apperrors.ErrInvalidOperation("consultation", "Session is already completed")
	}
	return s.consultRepo.UpdateConversation(db, sessionID, datatypes.JSON(conversation))
}

const reportSystemPrompt = `You are an AI medical assistant writing a structured summary of a voice consultation.
Based on the doctor agent's prompt, the user's notes and the conversation transcript, produce a report.
Respond with JSON only, using this schema:
{
  "sessionId": "string",
  "agent": "the doctor specialist name",
  "chiefComplaint": "one sentence summary of the main concern",
  "summary": "2-3 sentence summary of the conversation",
  "symptoms": ["symptom1", "symptom2"],
  "duration": "how long the user has had symptoms, or null",
  "severity": "mild | moderate | severe",
  "medicationsMentioned": ["med1"],
  "recommendations": ["recommendation1"]
}`

// GenerateReport asks the LLM to summarize the transcript, stores the
// report and marks the session completed.
func (s *consultationService) GenerateReport(ctx context.Context, db *gorm.DB, userID, sessionID string) (json.RawMessage, error) {
	session, err := s.GetSession(db, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if len(session.Conversation) == 0 {
		return nil, apperrors.ErrInvalidOperation("consultation", "Session has no conversation to report on")
	}

	userPrompt := fmt.Sprintf(
		"Doctor agent: %s\n\nUser notes: %s\n\nConversation transcript:\n%s",
		string(session.SelectedDoctor), session.Notes, string(session.Conversation),
	)

	raw, err := s.llmClient.Chat(ctx, []llm.Message{
		{Role: "system", Content: reportSystemPrompt},
		{Role: "user", Content: userPrompt},
	})
	if err != nil {
		return nil, apperrors.ErrExternalService(err, "consultation", "Report generation failed")
	}

	cleaned := llm.ExtractJSON(raw)
	if !json.Valid([]byte(cleaned)) {
		return nil, apperrors.ErrExternalService(
			errors.New("model returned invalid json"),
			"consultation", "Report generation failed",
		)
	}

	report := datatypes.JSON(cleaned)
	if err := s.consultRepo.UpdateReport(db, sessionID, report); err != nil {
		return nil, err
	}

	return json.RawMessage(report), nil
}
