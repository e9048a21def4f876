package repositories

import (
	"errors"
	"time"

	"medimind_backend/internal/models"

	"gorm.io/gorm"
)

var ErrSettingNotFound = errors.New("setting not found")

type SettingRepository struct{}

func NewSettingRepository() *SettingRepository {
	return &SettingRepository{}
}

func (r *SettingRepository) FindAll(db *gorm.DB) ([]models.AdminSetting, error) {
	var settings []models.AdminSetting
	err := db.Order("setting_key ASC").Find(&settings).Error
	return settings, err
}

func (r *SettingRepository) FindByKey(db *gorm.DB, key string) (*models.AdminSetting, error) {
	var setting models.AdminSetting
	err := db.First(&setting, "setting_key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}
		return nil, err
	}
	return &setting, nil
}

func (r *SettingRepository) Create(db *gorm.DB, setting *models.AdminSetting) error {
	return db.Create(setting).Error
}

func (r *SettingRepository) UpdateValue(db *gorm.DB, key, value string) (*models.AdminSetting, error) {
	result := db.Model(&models.AdminSetting{}).
		Where("setting_key = ?", key).
		Updates(map[string]interface{}{"setting_value": value, "updated_at": time.Now()})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrSettingNotFound
	}
	return r.FindByKey(db, key)
}
