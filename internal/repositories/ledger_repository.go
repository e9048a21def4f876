package repositories

import (
	"errors"

	"medimind_backend/internal/models"

	"gorm.io/gorm"
)

// ErrDuplicateSourceEvent surfaces the unique-index violation on
// credit_ledger_entries.source_event_id.
var ErrDuplicateSourceEvent = errors.New("source event already applied")

type LedgerRepository struct{}

func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{}
}

// Append inserts a ledger entry. A repeated source_event_id fails the
// unique index; the postgres driver translates that into
// gorm.ErrDuplicatedKey.
func (r *LedgerRepository) Append(db *gorm.DB, entry *models.CreditLedgerEntry) error {
	err := db.Create(entry).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateSourceEvent
	}
	return err
}

// SumByUser returns the ledger-derived balance; must always equal
// users.credits.
func (r *LedgerRepository) SumByUser(db *gorm.DB, userID string) (int, error) {
	var total *int
	err := db.Model(&models.CreditLedgerEntry{}).
		Where("user_id = ?", userID).
		Select("SUM(delta)").Scan(&total).Error
	if err != nil || total == nil {
		return 0, err
	}
	return *total, nil
}

func (r *LedgerRepository) FindByUser(db *gorm.DB, userID string, limit, offset int) ([]models.CreditLedgerEntry, error) {
	var entries []models.CreditLedgerEntry
	err := db.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&entries).Error
	return entries, err
}
