package model

import "encoding/json"

// CameraStatus состояние камеры в каталоге NYC DOT
type CameraStatus string

const (
	CameraOnline      CameraStatus = "online"
	CameraOffline     CameraStatus = "offline"
	CameraMaintenance CameraStatus = "maintenance"
)

// TrafficCamera камера дорожного движения из каталога NYC DOT
type TrafficCamera struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Location     GeoLocation  `json:"location"`
	Area         string       `json:"area"`
	ImageURL     string       `json:"imageUrl"`
	LastUpdated  string       `json:"lastUpdated"`
	Status       CameraStatus `json:"status"`
	NearBikeLane bool         `json:"nearBikeLane"`
}

// TrafficCameraFeed актуальный снимок с конкретной камеры
type TrafficCameraFeed struct {
	CameraID   string      `json:"cameraId"`
	CameraName string      `json:"cameraName"`
	Timestamp  string      `json:"timestamp"`
	ImageURL   string      `json:"imageUrl"`
	Location   GeoLocation `json:"location"`
}

// RawCamera сырой формат записи каталога NYC DOT API.
// Координаты приходят то строками, то числами, поэтому json.Number.
type RawCamera struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Lat      json.Number `json:"lat"`
	Lng      json.Number `json:"lng"`
	Area     string      `json:"area"`
	ImageURL string      `json:"image_url"`
	IsOnline bool        `json:"is_online"`
}
