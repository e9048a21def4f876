package repositories

import (
	"time"

	"medimind_backend/internal/dto"
	"medimind_backend/internal/models"

	"gorm.io/gorm"
)

type TransactionRepository struct{}

func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{}
}

func (r *TransactionRepository) Create(db *gorm.DB, tx *models.Transaction) error {
	return db.Create(tx).Error
}

func (r *TransactionRepository) FindByUserID(db *gorm.DB, userID string, limit, offset int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := db.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&txs).Error
	return txs, err
}

// SumCompletedByUser is the user's lifetime spend.
func (r *TransactionRepository) SumCompletedByUser(db *gorm.DB, userID string) (float64, error) {
	var total *float64
	err := db.Model(&models.Transaction{}).
		Where("user_id = ? AND status = ?", userID, models.TransactionStatusCompleted).
		Select("SUM(amount)").Scan(&total).Error
	if err != nil || total == nil {
		return 0, err
	}
	return *total, nil
}

func (r *TransactionRepository) SumCompleted(db *gorm.DB) (float64, error) {
	var total *float64
	err := db.Model(&models.Transaction{}).
		Where("status = ?", models.TransactionStatusCompleted).
		Select("SUM(amount)").Scan(&total).Error
	if err != nil || total == nil {
		return 0, err
	}
	return *total, nil
}

func (r *TransactionRepository) SumCompletedBetween(db *gorm.DB, from, to time.Time) (float64, error) {
	var total *float64
	err := db.Model(&models.Transaction{}).
		Where("status = ? AND created_at >= ? AND created_at < ?", models.TransactionStatusCompleted, from, to).
		Select("SUM(amount)").Scan(&total).Error
	if err != nil || total == nil {
		return 0, err
	}
	return *total, nil
}

func (r *TransactionRepository) FindRecentWithUser(db *gorm.DB, limit int) ([]dto.RecentTransaction, error) {
	var rows []dto.RecentTransaction
	err := db.Model(&models.Transaction{}).
		Select(`transactions.id, transactions.amount, transactions.currency, transactions.status,
			transactions.description, transactions.created_at,
			users.name AS user_name, users.email AS user_email`).
		Joins("LEFT JOIN users ON users.id = transactions.user_id").
		Order("transactions.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
