package services

import (
	"medimind_backend/internal/email"
	"medimind_backend/internal/llm"
	"medimind_backend/internal/repositories"

	"github.com/stripe/stripe-go/v79/client"
)

// ServiceContainer holds every application service.
type ServiceContainer struct {
	AuthService         AuthService
	UserService         UserService
	LedgerService       LedgerService
	BillingService      BillingService
	WebhookService      WebhookService
	ConsultationService ConsultationService
	DoctorService       DoctorService
	PlanService         PlanService
	SettingsService     SettingsService
	AnalyticsService    AnalyticsService
	AdminService        AdminService
	EmailService        email.Provider
}

func NewServiceContainer(stripeClient *client.API, llmClient *llm.Client, mailSender email.Provider) (*ServiceContainer, error) {
	userRepo := repositories.NewUserRepository()
	adminRepo := repositories.NewAdminRepository()
	planRepo := repositories.NewPlanRepository()
	subRepo := repositories.NewSubscriptionRepository()
	txRepo := repositories.NewTransactionRepository()
	ledgerRepo := repositories.NewLedgerRepository()
	consultRepo := repositories.NewConsultationRepository()
	settingRepo := repositories.NewSettingRepository()
	analyticsRepo := repositories.NewAnalyticsRepository()

	ledgerService := NewLedgerService(ledgerRepo)

	settingsService, err := NewSettingsService(settingRepo)
	if err != nil {
		return nil, err
	}

	return &ServiceContainer{
		AuthService:         NewAuthService(userRepo, adminRepo, ledgerService, mailSender),
		UserService:         NewUserService(userRepo, subRepo, txRepo, consultRepo),
		LedgerService:       ledgerService,
		BillingService:      NewBillingService(stripeClient, userRepo, planRepo),
		WebhookService:      NewWebhookService(userRepo, planRepo, subRepo, txRepo, ledgerService, mailSender),
		ConsultationService: NewConsultationService(consultRepo, ledgerService, llmClient),
		DoctorService:       NewDoctorService(llmClient),
		PlanService:         NewPlanService(planRepo, subRepo),
		SettingsService:     settingsService,
		AnalyticsService:    NewAnalyticsService(userRepo, subRepo, txRepo, consultRepo, analyticsRepo),
		AdminService:        NewAdminService(userRepo, analyticsRepo, ledgerService),
		EmailService:        mailSender,
	}, nil
}
