package dto

import (
	"encoding/json"

	"medimind_backend/internal/models"
)

type CreateSessionRequest struct {
	Notes          string          `json:"notes" validate:"required,min=3"`
	SelectedDoctor json.RawMessage `json:"selectedDoctor" validate:"required"`
}

type CreateSessionResponse struct {
	Session          *models.ConsultationSession `json:"session"`
	CreditsUsed      int                         `json:"creditsUsed"`
	CreditsRemaining int                         `json:"creditsRemaining"`
}

type SuggestDoctorsRequest struct {
	Notes string `json:"notes" validate:"required,min=3"`
}

type UpdateConversationRequest struct {
	Conversation json.RawMessage `json:"conversation" validate:"required"`
}
