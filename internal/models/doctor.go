package models

// DoctorAgent describes one AI doctor persona. The catalog is static
// and shipped with the backend; the LLM picks from it when suggesting
// specialists for a user's symptoms.
type DoctorAgent struct {
	ID          int    `json:"id"`
	Specialist  string `json:"specialist"`
	Description string `json:"description"`
	Image       string `json:"image"`
	AgentPrompt string `json:"agentPrompt"`
	// Premium agents require an active subscription.
	SubscriptionRequired bool `json:"subscriptionRequired"`
}
