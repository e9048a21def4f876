package models

import "gorm.io/datatypes"

// ConsultationSession is one paid AI consultation: the user's notes,
// the doctor agent they picked, the transcript and the final report.
type ConsultationSession struct {
	BaseModel
	SessionID      string         `gorm:"uniqueIndex;not null" json:"session_id"`
	UserID         string         `gorm:"type:uuid;not null;index" json:"user_id"`
	Notes          string         `json:"notes"`
	SelectedDoctor datatypes.JSON `gorm:"type:jsonb" json:"selected_doctor"`
	Conversation   datatypes.JSON `gorm:"type:jsonb" json:"conversation"`
	Report         datatypes.JSON `gorm:"type:jsonb" json:"report"`
	Status         SessionStatus  `gorm:"type:varchar(20);default:'active'" json:"status"`
}

type AdminSetting struct {
	BaseModel
	SettingKey   string `gorm:"uniqueIndex;not null" json:"setting_key"`
	SettingValue string `json:"setting_value"`
	Encrypted    bool   `gorm:"default:false" json:"encrypted"`
	Description  string `json:"description"`
}
