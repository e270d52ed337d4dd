package service

import (
	"bike-lane-sentinel-go/internal/model"
)

// Фиксированные вопросы к vision-language модели
const (
	// PromptSimple вопрос для простого режима (только да/нет)
	PromptSimple = "Are there cars parking on the bike lane? Answer in yes or no."

	// PromptExtended вопрос для расширенного режима (да/нет + тип транспорта)
	PromptExtended = "Are there cars parking on the bike lane? If yes, what type of vehicle is it (car, taxi, truck, bus, etc)? Provide the answer in this format: 'Yes, [vehicle type]' or simply 'No'."
)

// Режимы детекции
const (
	ModeSimple   = "simple"
	ModeExtended = "extended"
)

// DetectionRequest запрос на детекцию нарушения
type DetectionRequest struct {
	ImageData []byte
	MimeType  string
	CameraID  string
}

// DetectionResult результат детекции нарушения
type DetectionResult struct {
	HasCarsInBikeLane bool               `json:"hasCarsInBikeLane"`
	Answer            string             `json:"answer"`
	VehicleType       string             `json:"vehicleType,omitempty"`
	Timestamp         string             `json:"timestamp"`
	CameraID          string             `json:"cameraId,omitempty"`
	Location          *model.GeoLocation `json:"location,omitempty"`
	ViolationID       string             `json:"violationId,omitempty"`
}

// resolvedImage результат выбора источника изображения для инференса
type resolvedImage struct {
	// data итоговый буфер, который уходит в модель
	data []byte
	// location координаты найденной камеры
	location *model.GeoLocation
	// cameraImageURL URL живого кадра камеры с cache-busting параметром
	cameraImageURL string
	// matchedCamera найденная в каталоге камера
	matchedCamera *model.TrafficCamera
	// usedCameraFrame true, если буфер был заменен живым кадром камеры
	usedCameraFrame bool
}
