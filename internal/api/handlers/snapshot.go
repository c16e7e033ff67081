package handlers

import (
	"net/http"

	"skypulse-backend/internal/models"
	"skypulse-backend/internal/repository"
	"skypulse-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// SnapshotHandler serves the latest weather snapshot the home-screen
// widget renders from.
type SnapshotHandler struct {
	snapshots *repository.SnapshotRepository
	validator *validator.Validate
}

func NewSnapshotHandler(snapshots *repository.SnapshotRepository) *SnapshotHandler {
	return &SnapshotHandler{
		snapshots: snapshots,
		validator: validator.New(),
	}
}

// GetSnapshot returns the latest snapshot for a city.
func (h *SnapshotHandler) GetSnapshot(c *gin.Context) {
	city := c.Query("city")
	if city == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "City parameter is required", nil)
		return
	}

	snapshot, err := h.snapshots.GetLatest(c.Request.Context(), city)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve snapshot", err)
		return
	}
	if snapshot == nil {
		utils.ErrorResponse(c, http.StatusNotFound, "No snapshot available for city", nil)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Snapshot retrieved successfully", snapshot)
}

// PutSnapshot stores the latest snapshot for a city. Called by the weather
// polling job after each refresh.
func (h *SnapshotHandler) PutSnapshot(c *gin.Context) {
	var snapshot models.WeatherSnapshot
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&snapshot); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	if err := h.snapshots.SetLatest(c.Request.Context(), snapshot); err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to store snapshot", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Snapshot stored successfully", nil)
}
