package services

import (
	"errors"

	"medimind_backend/internal/dto"
	"medimind_backend/internal/models"
	"medimind_backend/internal/repositories"
	"medimind_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type UserService interface {
	GetProfile(db *gorm.DB, userID string) (*dto.ProfileResponse, error)
	UpdateProfile(db *gorm.DB, userID string, req *dto.UpdateProfileRequest) (*models.User, error)
}

type userService struct {
	userRepo    *repositories.UserRepository
	subRepo     *repositories.SubscriptionRepository
	txRepo      *repositories.TransactionRepository
	consultRepo *repositories.ConsultationRepository
}

func NewUserService(
	userRepo *repositories.UserRepository,
	subRepo *repositories.SubscriptionRepository,
	txRepo *repositories.TransactionRepository,
	consultRepo *repositories.ConsultationRepository,
) UserService {
	return &userService{
		userRepo:    userRepo,
		subRepo:     subRepo,
		txRepo:      txRepo,
		consultRepo: consultRepo,
	}
}

func (s *userService) GetProfile(db *gorm.DB, userID string) (*dto.ProfileResponse, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, err
	}

	resp := &dto.ProfileResponse{User: user}

	sub, err := s.subRepo.FindActiveByUserID(db, userID)
	if err != nil && !errors.Is(err, repositories.ErrSubscriptionNotFound) {
		return nil, err
	}
	resp.Subscription = sub

	if resp.SessionsCount, err = s.consultRepo.CountByUser(db, userID); err != nil {
		return nil, err
	}
	if resp.TotalSpent, err = s.txRepo.SumCompletedByUser(db, userID); err != nil {
		return nil, err
	}

	return resp, nil
}

func (s *userService) UpdateProfile(db *gorm.DB, userID string, req *dto.UpdateProfileRequest) (*models.User, error) {
	user, err := s.userRepo.UpdateFields(db, userID, map[string]interface{}{
		"name": req.Name,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, err
	}
	return user, nil
}
