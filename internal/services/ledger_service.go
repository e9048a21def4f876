package services

import (
	"errors"

	"medimind_backend/internal/models"
	"medimind_backend/internal/repositories"
	"medimind_backend/pkg/apperrors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerService owns every credit balance mutation. Both Debit and
// Credit must run inside a transaction supplied by the caller so the
// balance update and the ledger append commit or roll back together.
type LedgerService interface {
	Debit(tx *gorm.DB, userID string, amount int, reason string) (balanceAfter int, err error)
	Credit(tx *gorm.DB, userID string, amount int, reason string, sourceEventID *string) (balanceAfter int, err error)
	Balance(db *gorm.DB, userID string) (int, error)
	History(db *gorm.DB, userID string, limit, offset int) ([]models.CreditLedgerEntry, error)
}

type ledgerService struct {
	ledgerRepo *repositories.LedgerRepository
}

func NewLedgerService(ledgerRepo *repositories.LedgerRepository) LedgerService {
	return &ledgerService{ledgerRepo: ledgerRepo}
}

// lockUser loads the user row under FOR UPDATE. Concurrent debits on
// the same user serialize here, so the balance check cannot race.
func (s *ledgerService) lockUser(tx *gorm.DB, userID string) (*models.User, error) {
	var user models.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *ledgerService) Debit(tx *gorm.DB, userID string, amount int, reason string) (int, error) {
	if amount <= 0 {
		return 0, apperrors.ErrInvalidOperation("ledger", "Debit amount must be positive")
	}

	user, err := s.lockUser(tx, userID)
	if err != nil {
		return 0, err
	}

	if user.Credits < amount {
		return user.Credits, apperrors.ErrInsufficientBalance(amount, user.Credits)
	}

	balanceAfter := user.Credits - amount
	entry := &models.CreditLedgerEntry{
		UserID:       userID,
		Delta:        -amount,
		Reason:       reason,
		BalanceAfter: balanceAfter,
	}
	if err := s.ledgerRepo.Append(tx, entry); err != nil {
		return 0, err
	}

	if err := tx.Model(&models.User{}).Where("id = ?", userID).
		Update("credits", balanceAfter).Error; err != nil {
		return 0, err
	}

	return balanceAfter, nil
}

func (s *ledgerService) Credit(tx *gorm.DB, userID string, amount int, reason string, sourceEventID *string) (int, error) {
	if amount <= 0 {
		return 0, apperrors.ErrInvalidOperation("ledger", "Credit amount must be positive")
	}

	user, err := s.lockUser(tx, userID)
	if err != nil {
		return 0, err
	}

	balanceAfter := user.Credits + amount
	entry := &models.CreditLedgerEntry{
		UserID:        userID,
		Delta:         amount,
		Reason:        reason,
		SourceEventID: sourceEventID,
		BalanceAfter:  balanceAfter,
	}
	if err := s.ledgerRepo.Append(tx, entry); err != nil {
		if errors.Is(err, repositories.ErrDuplicateSourceEvent) && sourceEventID != nil {
			return user.Credits, apperrors.ErrDuplicateEvent(*sourceEventID)
		}
		return 0, err
	}

	if err := tx.Model(&models.User{}).Where("id = ?", userID).
		Update("credits", balanceAfter).Error; err != nil {
		return 0, err
	}

	return balanceAfter, nil
}

func (s *ledgerService) Balance(db *gorm.DB, userID string) (int, error) {
	return s.ledgerRepo.SumByUser(db, userID)
}

func (s *ledgerService) History(db *gorm.DB, userID string, limit, offset int) ([]models.CreditLedgerEntry, error) {
	return s.ledgerRepo.FindByUser(db, userID, limit, offset)
}
