package handlers

import (
	"net/http"

	"skypulse-backend/internal/models"
	"skypulse-backend/internal/services"
	"skypulse-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type NotificationHandler struct {
	notifier  *services.NotificationService
	validator *validator.Validate
}

func NewNotificationHandler(notifier *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notifier:  notifier,
		validator: validator.New(),
	}
}

type TestNotificationRequest struct {
	Title    string `json:"title" validate:"required"`
	Message  string `json:"message" validate:"required"`
	Severity string `json:"severity" validate:"omitempty,oneof=low medium high critical"`
	City     string `json:"city"`
}

type DeviceNotificationRequest struct {
	Token    string `json:"token" validate:"required"`
	Title    string `json:"title" validate:"required"`
	Message  string `json:"message" validate:"required"`
	Severity string `json:"severity" validate:"omitempty,oneof=low medium high critical"`
}

// SendTestNotification publishes a single alert immediately, bypassing the
// severity filter. Used to verify end-to-end delivery from the console.
func (h *NotificationHandler) SendTestNotification(c *gin.Context) {
	var req TestNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	alert := models.Alert{
		Title:    req.Title,
		Message:  req.Message,
		Severity: models.ParseSeverity(req.Severity),
	}

	targets, err := h.notifier.SendAlert(c.Request.Context(), alert, req.City)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to send notification", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Notification sent", gin.H{"targets": targets})
}

// SendDeviceNotification delivers an alert to one device token.
func (h *NotificationHandler) SendDeviceNotification(c *gin.Context) {
	var req DeviceNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	alert := models.Alert{
		Title:    req.Title,
		Message:  req.Message,
		Severity: models.ParseSeverity(req.Severity),
	}

	if err := h.notifier.SendToDevice(c.Request.Context(), req.Token, alert); err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to send notification", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Notification sent", nil)
}
