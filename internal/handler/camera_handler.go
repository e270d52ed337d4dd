package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bike-lane-sentinel-go/internal/service"
)

// CameraHandler обрабатывает HTTP запросы к каталогу камер
type CameraHandler struct {
	cameraService *service.CameraService
	logger        *logrus.Logger
}

// NewCameraHandler создает новый обработчик каталога камер
func NewCameraHandler(cameraService *service.CameraService, logger *logrus.Logger) *CameraHandler {
	return &CameraHandler{
		cameraService: cameraService,
		logger:        logger,
	}
}

// RegisterRoutes регистрирует маршруты каталога камер
func (h *CameraHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/cameras", h.GetTrafficCameras)
	api.GET("/cameras/:id/feed", h.GetCameraFeed)
}

// GetTrafficCameras возвращает список камер, опционально только рядом с велодорожками
func (h *CameraHandler) GetTrafficCameras(c *gin.Context) {
	if c.Query("nearBikeLanes") == "true" {
		c.JSON(http.StatusOK, successResponse(h.cameraService.GetCamerasNearBikeLanes(c.Request.Context())))
		return
	}

	c.JSON(http.StatusOK, successResponse(h.cameraService.GetAllCameras(c.Request.Context())))
}

// GetCameraFeed возвращает актуальный снимок конкретной камеры
func (h *CameraHandler) GetCameraFeed(c *gin.Context) {
	feed := h.cameraService.GetCameraFeed(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, successResponse(feed))
}
