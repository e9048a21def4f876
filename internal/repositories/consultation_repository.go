package repositories

import (
	"errors"
	"time"

	"medimind_backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrSessionNotFound = errors.New("consultation session not found")

type ConsultationRepository struct{}

func NewConsultationRepository() *ConsultationRepository {
	return &ConsultationRepository{}
}

func (r *ConsultationRepository) Create(db *gorm.DB, session *models.ConsultationSession) error {
	return db.Create(session).Error
}

func (r *ConsultationRepository) FindBySessionID(db *gorm.DB, sessionID string) (*models.ConsultationSession, error) {
	var session models.ConsultationSession
	err := db.First(&session, "session_id = ?", sessionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *ConsultationRepository) FindAllByUser(db *gorm.DB, userID string) ([]models.ConsultationSession, error) {
	var sessions []models.ConsultationSession
	err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&sessions).Error
	return sessions, err
}

func (r *ConsultationRepository) CountByUser(db *gorm.DB, userID string) (int64, error) {
	var count int64
	err := db.Model(&models.ConsultationSession{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *ConsultationRepository) CountAll(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&models.ConsultationSession{}).Count(&count).Error
	return count, err
}

func (r *ConsultationRepository) CountCreatedSince(db *gorm.DB, since time.Time) (int64, error) {
	var count int64
	err := db.Model(&models.ConsultationSession{}).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}

func (r *ConsultationRepository) UpdateConversation(db *gorm.DB, sessionID string, conversation datatypes.JSON) error {
	result := db.Model(&models.ConsultationSession{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{"conversation": conversation, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *ConsultationRepository) UpdateReport(db *gorm.DB, sessionID string, report datatypes.JSON) error {
	result := db.Model(&models.ConsultationSession{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"report":     report,
			"status":     models.SessionStatusCompleted,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}
