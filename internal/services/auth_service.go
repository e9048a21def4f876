package services

import (
	"errors"
	"time"

	"medimind_backend/internal/auth"
	"medimind_backend/internal/config"
	"medimind_backend/internal/dto"
	"medimind_backend/internal/email"
	"medimind_backend/internal/logger"
	"medimind_backend/internal/models"
	"medimind_backend/internal/repositories"
	"medimind_backend/pkg/apperrors"

	"gorm.io/gorm"
)

const trialGrantReason = "trial_grant"

type AuthService interface {
	Register(db *gorm.DB, req *dto.RegisterRequest) (*dto.LoginResponse, error)
	Login(db *gorm.DB, req *dto.LoginRequest) (*dto.LoginResponse, error)
	AdminLogin(db *gorm.DB, req *dto.AdminLoginRequest) (string, *models.Admin, error)
}

type authService struct {
	userRepo   *repositories.UserRepository
	adminRepo  *repositories.AdminRepository
	ledger     LedgerService
	mailSender email.Provider
}

func NewAuthService(
	userRepo *repositories.UserRepository,
	adminRepo *repositories.AdminRepository,
	ledger LedgerService,
	mailSender email.Provider,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		adminRepo:  adminRepo,
		ledger:     ledger,
		mailSender: mailSender,
	}
}

func (s *authService) Register(db *gorm.DB, req *dto.RegisterRequest) (*dto.LoginResponse, error) {
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		Name:               req.Name,
		Email:              req.Email,
		PasswordHash:       hash,
		Role:               models.UserRoleUser,
		SubscriptionStatus: models.UserSubscriptionFree,
	}

	trial := config.GetConfig().Credits.TrialCredits

	// Signup and the trial grant commit together so a new account
	// never exists without its ledger entry.
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.Create(tx, user); err != nil {
			return err
		}
		if trial > 0 {
			if _, err := s.ledger.Credit(tx, user.ID, trial, trialGrantReason, nil); err != nil {
				return err
			}
			user.Credits = trial
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, apperrors.ErrAlreadyExists(err)
		}
		return nil, err
	}

	token, err := auth.GenerateToken(user)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	subject, body := email.WelcomeBody(user.Name, trial)
	go func() {
		if err := s.mailSender.Send(user.Email, subject, body); err != nil {
			logger.GetLogger().Warn("failed to send welcome email", "error", err)
		}
	}()

	return &dto.LoginResponse{AccessToken: token, User: user}, nil
}

func (s *authService) Login(db *gorm.DB, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(db, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.LoginResponse{AccessToken: token, User: user}, nil
}

// AdminLogin checks against the separate admins table and returns the
// token the handler sets as an HttpOnly cookie.
func (s *authService) AdminLogin(db *gorm.DB, req *dto.AdminLoginRequest) (string, *models.Admin, error) {
	admin, err := s.adminRepo.FindByEmail(db, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrAdminNotFound) {
			return "", nil, apperrors.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !admin.Active {
		return "", nil, apperrors.ErrInvalidCredentials
	}

	if !auth.CheckPasswordHash(req.Password, admin.PasswordHash) {
		return "", nil, apperrors.ErrInvalidCredentials
	}

	token, err := auth.GenerateAdminToken(admin)
	if err != nil {
		return "", nil, apperrors.InternalError(err)
	}

	if err := s.adminRepo.UpdateLastLogin(db, admin.ID); err != nil {
		logger.GetLogger().Warn("failed to update admin last login", "error", err)
	}
	now := time.Now()
	admin.LastLogin = &now

	return token, admin, nil
}
