package repositories

import (
	"errors"

	"medimind_backend/internal/models"

	"gorm.io/gorm"
)

var ErrPlanNotFound = errors.New("plan not found")

type PlanRepository struct{}

func NewPlanRepository() *PlanRepository {
	return &PlanRepository{}
}

func (r *PlanRepository) FindByID(db *gorm.DB, id string) (*models.Plan, error) {
	var plan models.Plan
	err := db.First(&plan, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *PlanRepository) FindByStripePriceID(db *gorm.DB, priceID string) (*models.Plan, error) {
	var plan models.Plan
	err := db.First(&plan, "stripe_price_id = ?", priceID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *PlanRepository) FindActive(db *gorm.DB) ([]models.Plan, error) {
	var plans []models.Plan
	err := db.Where("active = ?", true).Order("price ASC").Find(&plans).Error
	return plans, err
}

func (r *PlanRepository) FindAll(db *gorm.DB) ([]models.Plan, error) {
	var plans []models.Plan
	err := db.Order("price ASC").Find(&plans).Error
	return plans, err
}

func (r *PlanRepository) Create(db *gorm.DB, plan *models.Plan) error {
	return db.Create(plan).Error
}

func (r *PlanRepository) Update(db *gorm.DB, plan *models.Plan) error {
	return db.Save(plan).Error
}

func (r *PlanRepository) Delete(db *gorm.DB, id string) error {
	result := db.Delete(&models.Plan{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func (r *PlanRepository) Count(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&models.Plan{}).Count(&count).Error
	return count, err
}
