package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bike-lane-sentinel-go/internal/model"
	"bike-lane-sentinel-go/internal/repository"
)

// ViolationHandler обрабатывает HTTP запросы к хранилищу нарушений
type ViolationHandler struct {
	violations repository.ViolationRepository
	logger     *logrus.Logger
}

// updateStatusRequest тело запроса на смену статуса нарушения
type updateStatusRequest struct {
	Status string `json:"status"`
}

// NewViolationHandler создает новый обработчик нарушений
func NewViolationHandler(violations repository.ViolationRepository, logger *logrus.Logger) *ViolationHandler {
	return &ViolationHandler{
		violations: violations,
		logger:     logger,
	}
}

// RegisterRoutes регистрирует маршруты нарушений
func (h *ViolationHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/violations", h.GetViolations)
	api.GET("/violations/:id", h.GetViolationByID)
	api.POST("/violations/:id/status", h.UpdateViolationStatus)
}

// GetViolations возвращает список всех зафиксированных нарушений
func (h *ViolationHandler) GetViolations(c *gin.Context) {
	violations, err := h.violations.List(c.Request.Context())
	if err != nil {
		h.logger.Errorf("Ошибка получения списка нарушений: %v", err)
		c.JSON(http.StatusInternalServerError, errorResponse("Internal server error"))
		return
	}

	c.JSON(http.StatusOK, successResponse(violations))
}

// GetViolationByID возвращает нарушение по ID
func (h *ViolationHandler) GetViolationByID(c *gin.Context) {
	id := c.Param("id")

	violation, err := h.violations.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorResponse(fmt.Sprintf("Violation with ID %s not found", id)))
			return
		}
		h.logger.Errorf("Ошибка получения нарушения %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, errorResponse("Internal server error"))
		return
	}

	c.JSON(http.StatusOK, successResponse(violation))
}

// UpdateViolationStatus меняет статус нарушения.
// Повторная установка того же статуса допустима и возвращает ту же запись.
func (h *ViolationHandler) UpdateViolationStatus(c *gin.Context) {
	id := c.Param("id")

	var request updateStatusRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Request body must contain a status field"))
		return
	}

	status := model.ViolationStatus(request.Status)
	if !status.IsValid() {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid status. Valid values are: Pending, Reported, Under Review, Confirmed, Rejected"))
		return
	}

	violation, err := h.violations.UpdateStatus(c.Request.Context(), id, status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorResponse(fmt.Sprintf("Violation with ID %s not found", id)))
			return
		}
		h.logger.Errorf("Ошибка обновления статуса нарушения %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, errorResponse("Internal server error"))
		return
	}

	h.logger.Infof("Статус нарушения %s обновлен на %s", id, status)
	c.JSON(http.StatusOK, successResponse(violation))
}
