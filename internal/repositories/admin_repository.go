package repositories

import (
	"errors"
	"time"

	"medimind_backend/internal/models"

	"gorm.io/gorm"
)

var ErrAdminNotFound = errors.New("admin not found")

type AdminRepository struct{}

func NewAdminRepository() *AdminRepository {
	return &AdminRepository{}
}

func (r *AdminRepository) FindByEmail(db *gorm.DB, email string) (*models.Admin, error) {
	var admin models.Admin
	err := db.First(&admin, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return &admin, nil
}

func (r *AdminRepository) FindByID(db *gorm.DB, id string) (*models.Admin, error) {
	var admin models.Admin
	err := db.First(&admin, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return &admin, nil
}

func (r *AdminRepository) Create(db *gorm.DB, admin *models.Admin) error {
	return db.Create(admin).Error
}

func (r *AdminRepository) UpdateLastLogin(db *gorm.DB, adminID string) error {
	now := time.Now()
	return db.Model(&models.Admin{}).Where("id = ?", adminID).Update("last_login", &now).Error
}
