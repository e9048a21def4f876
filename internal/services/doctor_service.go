package services

import (
	"context"
	"encoding/json"
	"errors"

	"medimind_backend/internal/llm"
	"medimind_backend/internal/models"
	"medimind_backend/pkg/apperrors"
)

// doctorCatalog is the static set of AI doctor personas. Premium
// agents are only selectable with an active subscription.
var doctorCatalog = []models.DoctorAgent{
	{
		ID:          1,
		Specialist:  "General Physician",
		Description: "Helps with everyday health concerns and common symptoms.",
		Image:       "/doctor1.png",
		AgentPrompt: "You are a friendly general physician AI. Greet the user, ask about their symptoms and give short, practical advice.",
	},
	{
		ID:          2,
		Specialist:  "Pediatrician",
		Description: "Expert in children's health, from babies to teens.",
		Image:       "/doctor2.png",
		AgentPrompt: "You are a kind pediatrician AI. Ask short questions about the child's health and give calm, reassuring guidance.",
	},
	{
		ID:          3,
		Specialist:  "Dermatologist",
		Description: "Handles skin issues like rashes, acne and infections.",
		Image:       "/doctor3.png",
		AgentPrompt: "You are a knowledgeable dermatologist AI. Ask brief questions about the skin issue and suggest next steps.",
	},
	{
		ID:                   4,
		Specialist:           "Psychologist",
		Description:          "Supports mental health, stress and emotional wellbeing.",
		Image:                "/doctor4.png",
		AgentPrompt:          "You are an empathetic psychologist AI. Listen carefully, ask gentle questions and offer supportive advice.",
		SubscriptionRequired: true,
	},
	{
		ID:                   5,
		Specialist:           "Nutritionist",
		Description:          "Advises on diet, weight and healthy eating habits.",
		Image:                "/doctor5.png",
		AgentPrompt:          "You are a motivating nutritionist AI. Ask about eating habits and goals, then give simple actionable tips.",
		SubscriptionRequired: true,
	},
	{
		ID:                   6,
		Specialist:           "Cardiologist",
		Description:          "Focuses on heart health and blood pressure concerns.",
		Image:                "/doctor6.png",
		AgentPrompt:          "You are a careful cardiologist AI. Ask about heart symptoms and risk factors, and advise when to seek urgent care.",
		SubscriptionRequired: true,
	},
	{
		ID:                   7,
		Specialist:           "ENT Specialist",
		Description:          "Treats ear, nose and throat problems.",
		Image:                "/doctor7.png",
		AgentPrompt:          "You are an attentive ENT specialist AI. Ask targeted questions about ear, nose or throat symptoms.",
		SubscriptionRequired: true,
	},
	{
		ID:                   8,
		Specialist:           "Orthopedic",
		Description:          "Helps with bone, joint and muscle pain.",
		Image:                "/doctor8.png",
		AgentPrompt:          "You are a practical orthopedic AI. Ask where it hurts and how it started, then suggest sensible next steps.",
		SubscriptionRequired: true,
	},
	{
		ID:                   9,
		Specialist:           "Gynecologist",
		Description:          "Covers women's reproductive and hormonal health.",
		Image:                "/doctor9.png",
		AgentPrompt:          "You are a respectful gynecologist AI. Ask discreet, relevant questions and give clear guidance.",
		SubscriptionRequired: true,
	},
	{
		ID:                   10,
		Specialist:           "Dentist",
		Description:          "Handles tooth pain, gum issues and oral hygiene.",
		Image:                "/doctor10.png",
		AgentPrompt:          "You are a cheerful dentist AI. Ask about the dental issue and give short, clear advice.",
		SubscriptionRequired: true,
	},
}

type DoctorService interface {
	Catalog() []models.DoctorAgent
	SuggestDoctors(ctx context.Context, notes string) ([]models.DoctorAgent, error)
}

type doctorService struct {
	llmClient *llm.Client
}

func NewDoctorService(llmClient *llm.Client) DoctorService {
	return &doctorService{llmClient: llmClient}
}

func (s *doctorService) Catalog() []models.DoctorAgent {
	out := make([]models.DoctorAgent, len(doctorCatalog))
	copy(out, doctorCatalog)
	return out
}

// SuggestDoctors sends the catalog plus the user's notes to the model
// and returns the agents it picks. Falls back to matching by id when
// the model echoes partial objects.
func (s *doctorService) SuggestDoctors(ctx context.Context, notes string) ([]models.DoctorAgent, error) {
	catalogJSON, err := json.Marshal(doctorCatalog)
	if err != nil {
		return nil, err
	}

	raw, err := s.llmClient.Chat(ctx, []llm.Message{
		{Role: "system", Content: string(catalogJSON)},
		{Role: "user", Content: "User Notes/Symptoms: " + notes + ". Based on the notes and symptoms, suggest a list of suitable doctors from the catalog. Return a JSON array only."},
	})
	if err != nil {
		return nil, apperrors.ErrExternalService(err, "consultation", "Failed to generate doctor suggestions")
	}

	cleaned := llm.ExtractJSON(raw)

	var suggested []models.DoctorAgent
	if err := json.Unmarshal([]byte(cleaned), &suggested); err != nil {
		// Some models wrap the array in an object.
		var wrapped struct {
			Doctors []models.DoctorAgent `json:"doctors"`
		}
		if err2 := json.Unmarshal([]byte(cleaned), &wrapped); err2 != nil || len(wrapped.Doctors) == 0 {
			return nil, apperrors.ErrExternalService(
				errors.New("model returned unparsable suggestions"),
				"consultation", "Failed to generate doctor suggestions",
			)
		}
		suggested = wrapped.Doctors
	}

	// Resolve against the catalog so clients always get complete,
	// trusted agent definitions.
	byID := make(map[int]models.DoctorAgent, len(doctorCatalog))
	for _, agent := range doctorCatalog {
		byID[agent.ID] = agent
	}
	resolved := make([]models.DoctorAgent, 0, len(suggested))
	for _, sug := range suggested {
		if agent, ok := byID[sug.ID]; ok {
			resolved = append(resolved, agent)
		}
	}
	if len(resolved) == 0 {
		resolved = append(resolved, doctorCatalog[0])
	}

	return resolved, nil
}
