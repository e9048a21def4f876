package services

import (
	"errors"

	"medimind_backend/internal/dto"
	"medimind_backend/internal/models"
	"medimind_backend/internal/repositories"
	"medimind_backend/pkg/apperrors"

	"gorm.io/gorm"
)

const adminAdjustReason = "admin_adjustment"

// AdminService backs the admin panel's user management.
type AdminService interface {
	ListUsers(db *gorm.DB) ([]dto.AdminUserView, *dto.AdminUserStats, error)
	UpdateUser(db *gorm.DB, req *dto.UpdateUserRequest) (*models.User, error)
	DeleteUser(db *gorm.DB, userID string) error
}

type adminService struct {
	userRepo      *repositories.UserRepository
	analyticsRepo *repositories.AnalyticsRepository
	ledger        LedgerService
}

func NewAdminService(
	userRepo *repositories.UserRepository,
	analyticsRepo *repositories.AnalyticsRepository,
	ledger LedgerService,
) AdminService {
	return &adminService{
		userRepo:      userRepo,
		analyticsRepo: analyticsRepo,
		ledger:        ledger,
	}
}

func (s *adminService) ListUsers(db *gorm.DB) ([]dto.AdminUserView, *dto.AdminUserStats, error) {
	users, err := s.analyticsRepo.UsersWithPlan(db)
	if err != nil {
		return nil, nil, err
	}

	stats := &dto.AdminUserStats{}
	if stats.TotalUsers, err = s.userRepo.CountAll(db); err != nil {
		return nil, nil, err
	}
	if stats.ActiveSubscribers, err = s.userRepo.CountBySubscriptionStatus(db, models.UserSubscriptionActive); err != nil {
		return nil, nil, err
	}
	if stats.FreeUsers, err = s.userRepo.CountBySubscriptionStatus(db, models.UserSubscriptionFree); err != nil {
		return nil, nil, err
	}
	if stats.AdminUsers, err = s.userRepo.CountByRole(db, models.UserRoleAdmin); err != nil {
		return nil, nil, err
	}

	return users, stats, nil
}

// UpdateUser applies the admin's edits. A credit change goes through
// the ledger, never as a raw column write, so the balance invariant
// holds.
func (s *adminService) UpdateUser(db *gorm.DB, req *dto.UpdateUserRequest) (*models.User, error) {
	var result *models.User

	err := db.Transaction(func(tx *gorm.DB) error {
		user, err := s.userRepo.FindByID(tx, req.UserID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return apperrors.ErrNotFound(err)
			}
			return err
		}

		fields := map[string]interface{}{}
		if req.Role != "" {
			fields["role"] = models.UserRole(req.Role)
		}
		if req.SubscriptionStatus != "" {
			fields["subscription_status"] = models.UserSubscriptionStatus(req.SubscriptionStatus)
		}
		if len(fields) > 0 {
			if user, err = s.userRepo.UpdateFields(tx, req.UserID, fields); err != nil {
				return err
			}
		}

		if req.Credits != nil {
			delta := *req.Credits - user.Credits
			switch {
			case delta > 0:
				if _, err := s.ledger.Credit(tx, req.UserID, delta, adminAdjustReason, nil); err != nil {
					return err
				}
			case delta < 0:
				if _, err := s.ledger.Debit(tx, req.UserID, -delta, adminAdjustReason); err != nil {
					return err
				}
			}
			user.Credits = *req.Credits
		}

		result = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// DeleteUser removes the account and everything keyed to it. Sessions
// and transactions have no cascade constraint, so the dependents go
// first explicitly.
func (s *adminService) DeleteUser(db *gorm.DB, userID string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.userRepo.FindByID(tx, userID); err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return apperrors.ErrNotFound(err)
			}
			return err
		}

		for _, model := range []interface{}{
			&models.ConsultationSession{},
			&models.CreditLedgerEntry{},
			&models.Transaction{},
			&models.Subscription{},
		} {
			if err := tx.Where("user_id = ?", userID).Delete(model).Error; err != nil {
				return err
			}
		}

		return s.userRepo.Delete(tx, userID)
	})
}
