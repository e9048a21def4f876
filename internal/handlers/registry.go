package handlers

// AppHandlers holds every HTTP handler in the application.
type AppHandlers struct {
	AuthHandler         *AuthHandler
	UserHandler         *UserHandler
	ConsultationHandler *ConsultationHandler
	BillingHandler      *BillingHandler
	WebhookHandler      *WebhookHandler
	AdminHandler        *AdminHandler
}
