package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"bike-lane-sentinel-go/internal/model"
	"bike-lane-sentinel-go/internal/repository"
)

// DefaultLocation координаты по умолчанию, когда нет контекста камеры (центр NYC)
var DefaultLocation = model.GeoLocation{Lat: 40.7128, Lng: -74.0060}

// allowedMimeTypes допустимые типы загружаемых изображений
var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
}

// InferenceEngine движок vision-language инференса
type InferenceEngine interface {
	// Query отправляет изображение с вопросом и возвращает текстовый ответ модели
	Query(ctx context.Context, image []byte, mimeType, question string) (string, error)
}

// ValidationError ошибка валидации входных данных, транслируется в HTTP 400
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// DetectionService сервис детекции нарушений парковки на велодорожке
type DetectionService struct {
	engine      InferenceEngine
	cameras     *CameraService
	violations  repository.ViolationRepository
	logger      *logrus.Logger
	mode        string
	maxFileSize int64
}

// NewDetectionService создает новый сервис детекции
func NewDetectionService(
	engine InferenceEngine,
	cameras *CameraService,
	violations repository.ViolationRepository,
	logger *logrus.Logger,
	mode string,
	maxFileSize int64,
) *DetectionService {
	return &DetectionService{
		engine:      engine,
		cameras:     cameras,
		violations:  violations,
		logger:      logger,
		mode:        mode,
		maxFileSize: maxFileSize,
	}
}

// ValidateImage проверяет входные данные до любых внешних вызовов.
// Порядок проверок фиксирован: наличие файла, тип, размер.
func (s *DetectionService) ValidateImage(image []byte, mimeType string) error {
	if image == nil {
		return &ValidationError{Message: "Image file is required."}
	}

	if !allowedMimeTypes[mimeType] {
		return &ValidationError{Message: "Invalid file type. Please upload a JPEG, PNG, or GIF image."}
	}

	if int64(len(image)) > s.maxFileSize {
		return &ValidationError{Message: "File size too large. Please upload an image smaller than 10MB."}
	}

	return nil
}

// Detect выполняет полный конвейер детекции: валидация, выбор источника
// изображения, запрос к модели, разбор ответа и запись нарушения.
func (s *DetectionService) Detect(ctx context.Context, request DetectionRequest) (*DetectionResult, error) {
	if err := s.ValidateImage(request.ImageData, request.MimeType); err != nil {
		return nil, err
	}

	resolved := s.resolveImageSource(ctx, request.ImageData, request.CameraID)

	question := PromptSimple
	if s.mode == ModeExtended {
		question = PromptExtended
	}

	// Единственный шаг без резервного варианта: ошибка инференса фатальна
	answer, err := s.engine.Query(ctx, resolved.data, request.MimeType, question)
	if err != nil {
		s.logger.Errorf("Ошибка vision-language инференса: %v", err)
		return nil, fmt.Errorf("inference request failed: %w", err)
	}

	var hasCarsInBikeLane bool
	var vehicleType string
	if s.mode == ModeExtended {
		hasCarsInBikeLane, vehicleType = ParseVehicleAnswer(answer)
	} else {
		hasCarsInBikeLane = ParseYesNoAnswer(answer)
	}

	s.logger.Infof("Ответ модели: %q, нарушение: %t", answer, hasCarsInBikeLane)

	result := &DetectionResult{
		HasCarsInBikeLane: hasCarsInBikeLane,
		Answer:            answer,
		VehicleType:       vehicleType,
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
		CameraID:          request.CameraID,
		Location:          resolved.location,
	}

	if hasCarsInBikeLane {
		violation, err := s.recordViolation(ctx, request, resolved, vehicleType)
		if err != nil {
			return nil, err
		}
		result.ViolationID = violation.ID
		result.VehicleType = violation.VehicleType
	}

	return result, nil
}

// resolveImageSource выбирает байты для инференса. Если указана камера,
// пытается подменить загруженный снимок живым кадром. Каждый шаг цепочки
// деградирует мягко: любая ошибка логируется и возвращает результат
// предыдущего шага, финальный резерв это исходные загруженные байты.
func (s *DetectionService) resolveImageSource(ctx context.Context, uploaded []byte, cameraID string) resolvedImage {
	resolved := resolvedImage{data: uploaded}

	if cameraID == "" {
		return resolved
	}

	camera, found := s.cameras.FindCamera(ctx, cameraID)
	if !found {
		s.logger.Warnf("Камера %s не найдена в каталоге, используем загруженный снимок", cameraID)
		return resolved
	}

	location := camera.Location
	resolved.location = &location
	resolved.matchedCamera = camera

	feedURL := s.cameras.FeedURL(camera)
	resolved.cameraImageURL = feedURL

	frame, err := s.cameras.DownloadImage(ctx, feedURL)
	if err != nil {
		s.logger.Warnf("Не удалось скачать кадр камеры %s, используем загруженный снимок: %v", cameraID, err)
		return resolved
	}

	s.logger.Infof("Снимок заменен живым кадром камеры %s (%d байт)", cameraID, len(frame))
	resolved.data = frame
	resolved.usedCameraFrame = true
	return resolved
}

// recordViolation создает и сохраняет запись о нарушении
func (s *DetectionService) recordViolation(ctx context.Context, request DetectionRequest, resolved resolvedImage, vehicleType string) (*model.Violation, error) {
	cameraID := request.CameraID
	if cameraID == "" {
		cameraID = model.UserSubmittedCamera
	}

	if vehicleType == "" {
		vehicleType = model.UnknownVehicle
	}

	// Кадр камеры ссылается по URL, пользовательский снимок
	// встраивается data URI из исходных загруженных байт
	imageURL := resolved.cameraImageURL
	if !resolved.usedCameraFrame {
		imageURL = "data:" + request.MimeType + ";base64," + base64.StdEncoding.EncodeToString(request.ImageData)
	}

	location := DefaultLocation
	if resolved.location != nil {
		location = *resolved.location
	}

	notes := "Detected from user-submitted photo"
	if resolved.matchedCamera != nil {
		notes = fmt.Sprintf("Detected via traffic camera %s (%s)", resolved.matchedCamera.Name, resolved.matchedCamera.Area)
	}

	violation := &model.Violation{
		ID:          uuid.New().String(),
		CameraID:    cameraID,
		ImageURL:    imageURL,
		VehicleType: vehicleType,
		Location:    location,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Status:      model.StatusPending,
		Confidence:  model.DetectionConfidence,
		Notes:       notes,
	}

	if err := s.violations.Create(ctx, violation); err != nil {
		s.logger.Errorf("Ошибка сохранения нарушения: %v", err)
		return nil, fmt.Errorf("failed to record violation: %w", err)
	}

	s.logger.Infof("Зафиксировано нарушение %s: %s на камере %s", violation.ID, violation.VehicleType, violation.CameraID)
	return violation, nil
}
