package model

import (
	"time"

	"gorm.io/gorm"
)

// ViolationStatus статус обработки нарушения
type ViolationStatus string

const (
	StatusPending     ViolationStatus = "Pending"
	StatusReported    ViolationStatus = "Reported"
	StatusUnderReview ViolationStatus = "Under Review"
	StatusConfirmed   ViolationStatus = "Confirmed"
	StatusRejected    ViolationStatus = "Rejected"
)

// UserSubmittedCamera значение cameraId для снимков, загруженных пользователем без камеры
const UserSubmittedCamera = "user-submitted"

// UnknownVehicle значение vehicleType, когда модель не назвала транспорт
const UnknownVehicle = "Unknown Vehicle"

// DetectionConfidence фиксированная уверенность детекции.
// Moondream не возвращает confidence score, поэтому используется константа.
const DetectionConfidence = 0.85

// IsValid проверяет, что статус входит в набор допустимых значений
func (s ViolationStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusReported, StatusUnderReview, StatusConfirmed, StatusRejected:
		return true
	}
	return false
}

// GeoLocation географические координаты
type GeoLocation struct {
	Lat float64 `gorm:"not null" json:"lat"`
	Lng float64 `gorm:"not null" json:"lng"`
}

// Violation представляет зафиксированное нарушение парковки на велодорожке
type Violation struct {
	ID          string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CameraID    string          `gorm:"type:varchar(64);not null;index" json:"cameraId"`
	ImageURL    string          `gorm:"type:text;not null" json:"imageUrl"`
	VehicleType string          `gorm:"type:varchar(128);not null" json:"vehicleType"`
	Location    GeoLocation     `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	Timestamp   string          `gorm:"type:varchar(40);not null" json:"timestamp"`
	Status      ViolationStatus `gorm:"type:varchar(32);not null" json:"status"`
	Confidence  float64         `gorm:"not null" json:"confidence"`
	Notes       string          `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName указывает имя таблицы для Violation
func (Violation) TableName() string {
	return "violations"
}
