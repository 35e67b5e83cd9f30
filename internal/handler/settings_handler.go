package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fraud-screening/internal/service"
)

type SettingsHandler struct {
	settings service.SettingsStore
	logger   *zap.Logger
}

func NewSettingsHandler(settings service.SettingsStore, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, logger: logger}
}

type settingsRequest struct {
	APIKey          string `json:"api_key"`
	ApproveStatusID int    `json:"approve_status_id"`
	ReviewStatusID  int    `json:"review_status_id"`
	RejectStatusID  int    `json:"reject_status_id"`
}

// GetSettings returns the current configuration, including the last balance
// reported by the provider.
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.settings.Load(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to load settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings saves the configuration form. The cached balance is kept;
// it is only written by successful screenings.
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings, err := h.settings.Load(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to load settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}

	settings.APIKey = req.APIKey
	settings.ApproveStatusID = req.ApproveStatusID
	settings.ReviewStatusID = req.ReviewStatusID
	settings.RejectStatusID = req.RejectStatusID

	if err := h.settings.Save(c.Request.Context(), settings); err != nil {
		h.logger.Error("failed to save settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save settings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": true})
}
