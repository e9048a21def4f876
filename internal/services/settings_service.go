package services

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"medimind_backend/internal/config"
	"medimind_backend/internal/dto"
	"medimind_backend/internal/models"
	"medimind_backend/internal/repositories"
	"medimind_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// SettingsService stores admin-managed key/value configuration.
// Values flagged Encrypted are sealed with AES-GCM before they touch
// the database and returned masked from reads.
type SettingsService interface {
	List(db *gorm.DB) ([]models.AdminSetting, error)
	Get(db *gorm.DB, key string) (*models.AdminSetting, error)
	Create(db *gorm.DB, req *dto.CreateSettingRequest) (*models.AdminSetting, error)
	UpdateMany(db *gorm.DB, req *dto.UpdateSettingsRequest) ([]models.AdminSetting, error)
	DecryptValue(setting *models.AdminSetting) (string, error)
}

type settingsService struct {
	settingRepo *repositories.SettingRepository
	key         []byte
}

func NewSettingsService(settingRepo *repositories.SettingRepository) (SettingsService, error) {
	encoded := config.GetConfig().SettingsEncryptionKey
	var key []byte
	if encoded != "" {
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("settings encryption key is not valid base64: %w", err)
		}
		if len(decoded) != 32 {
			return nil, fmt.Errorf("settings encryption key must be 32 bytes, got %d", len(decoded))
		}
		key = decoded
	}
	return &settingsService{settingRepo: settingRepo, key: key}, nil
}

const maskedValue = "********"

func (s *settingsService) List(db *gorm.DB) ([]models.AdminSetting, error) {
	settings, err := s.settingRepo.FindAll(db)
	if err != nil {
		return nil, err
	}
	for i := range settings {
		if settings[i].Encrypted {
			settings[i].SettingValue = maskedValue
		}
	}
	return settings, nil
}

func (s *settingsService) Get(db *gorm.DB, key string) (*models.AdminSetting, error) {
	setting, err := s.settingRepo.FindByKey(db, key)
	if err != nil {
		if errors.Is(err, repositories.ErrSettingNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, err
	}
	if setting.Encrypted {
		setting.SettingValue = maskedValue
	}
	return setting, nil
}

func (s *settingsService) Create(db *gorm.DB, req *dto.CreateSettingRequest) (*models.AdminSetting, error) {
	value := req.SettingValue
	if req.Encrypted {
		sealed, err := s.encrypt(value)
		if err != nil {
			return nil, err
		}
		value = sealed
	}

	setting := &models.AdminSetting{
		SettingKey:   req.SettingKey,
		SettingValue: value,
		Encrypted:    req.Encrypted,
		Description:  req.Description,
	}
	if err := s.settingRepo.Create(db, setting); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrAlreadyExists(err)
		}
		return nil, err
	}

	if setting.Encrypted {
		setting.SettingValue = maskedValue
	}
	return setting, nil
}

// UpdateMany upserts the given key/value pairs. A masked value posted
// back unchanged is skipped so reads can round-trip through the admin
// form without clobbering secrets.
func (s *settingsService) UpdateMany(db *gorm.DB, req *dto.UpdateSettingsRequest) ([]models.AdminSetting, error) {
	var updated []models.AdminSetting

	err := db.Transaction(func(tx *gorm.DB) error {
		for key, value := range req.Settings {
			if value == maskedValue {
				continue
			}

			existing, err := s.settingRepo.FindByKey(tx, key)
			if errors.Is(err, repositories.ErrSettingNotFound) {
				setting := &models.AdminSetting{SettingKey: key, SettingValue: value}
				if err := s.settingRepo.Create(tx, setting); err != nil {
					return err
				}
				updated = append(updated, *setting)
				continue
			}
			if err != nil {
				return err
			}

			stored := value
			if existing.Encrypted {
				if stored, err = s.encrypt(value); err != nil {
					return err
				}
			}

			setting, err := s.settingRepo.UpdateValue(tx, key, stored)
			if err != nil {
				return err
			}
			if setting.Encrypted {
				setting.SettingValue = maskedValue
			}
			updated = append(updated, *setting)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DecryptValue returns the plaintext for internal consumers. Never
// exposed over HTTP.
func (s *settingsService) DecryptValue(setting *models.AdminSetting) (string, error) {
	if !setting.Encrypted {
		return setting.SettingValue, nil
	}
	return s.decrypt(setting.SettingValue)
}

func (s *settingsService) encrypt(plaintext string) (string, error) {
	if s.key == nil {
		return "", apperrors.ErrInvalidOperation("settings", "Encryption key is not configured")
	}

	block, err := aes.NewCipher(s.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *settingsService) decrypt(encoded string) (string, error) {
	if s.key == nil {
		return "", apperrors.ErrInvalidOperation("settings", "Encryption key is not configured")
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(s.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(raw) < gcm.NonceSize() {
		return "", errors.New("ciphertext shorter than nonce")
	}
	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
