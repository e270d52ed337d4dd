package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bike-lane-sentinel-go/internal/service"
)

// DetectionHandler обрабатывает HTTP запросы детекции нарушений
type DetectionHandler struct {
	detectionService *service.DetectionService
	logger           *logrus.Logger
}

// NewDetectionHandler создает новый обработчик детекции
func NewDetectionHandler(detectionService *service.DetectionService, logger *logrus.Logger) *DetectionHandler {
	return &DetectionHandler{
		detectionService: detectionService,
		logger:           logger,
	}
}

// RegisterRoutes регистрирует маршруты детекции
func (h *DetectionHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/detect-bike-lane-violations", h.DetectBikeLaneViolations)
	api.GET("/health", h.HealthCheck)
}

// DetectBikeLaneViolations обрабатывает загрузку снимка и запускает конвейер детекции
func (h *DetectionHandler) DetectBikeLaneViolations(c *gin.Context) {
	h.logger.Info("Получен запрос на детекцию нарушения")

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Image file is required."))
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		h.logger.Errorf("Ошибка чтения загруженного файла: %v", err)
		c.JSON(http.StatusInternalServerError, errorResponse("Internal server error: failed to read uploaded file"))
		return
	}

	request := service.DetectionRequest{
		ImageData: imageData,
		MimeType:  header.Header.Get("Content-Type"),
		CameraID:  c.PostForm("cameraId"),
	}

	result, err := h.detectionService.Detect(c.Request.Context(), request)
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, errorResponse(validationErr.Message))
			return
		}

		h.logger.Errorf("Ошибка конвейера детекции: %v", err)
		c.JSON(http.StatusInternalServerError, errorResponse(fmt.Sprintf("Internal server error: %v", err)))
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

// HealthCheck проверяет состояние сервиса
func (h *DetectionHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Bike Lane Sentinel API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   "1.0.0",
	})
}
