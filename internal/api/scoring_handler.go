package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/guest-risk-scorer/internal/auth"
	"github.com/ajharbinger/guest-risk-scorer/internal/logger"
	"github.com/ajharbinger/guest-risk-scorer/internal/scoring"
	"github.com/ajharbinger/guest-risk-scorer/internal/services"
)

// ScoringHandler exposes the live scoring configuration to admins
type ScoringHandler struct {
	config services.ScoringConfigService
	logger logger.Logger
}

// NewScoringHandler creates a new scoring handler
func NewScoringHandler(config services.ScoringConfigService, log logger.Logger) *ScoringHandler {
	return &ScoringHandler{
		config: config,
		logger: log,
	}
}

// GetConfig returns the effective scoring configuration
func (h *ScoringHandler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.config.Current())
}

// UpdateConfig merges a partial configuration into the live one
func (h *ScoringHandler) UpdateConfig(c *gin.Context) {
	var partial scoring.PartialConfig
	if err := c.ShouldBindJSON(&partial); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid configuration format: " + err.Error()})
		return
	}

	updated, err := h.config.Update(partial)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info("Scoring configuration changed by admin", "admin_email", c.GetString(auth.AdminEmailKey))
	c.JSON(http.StatusOK, updated)
}

// ResetConfig restores the defaults derived from the registered rules
func (h *ScoringHandler) ResetConfig(c *gin.Context) {
	restored := h.config.RestoreDefaults()
	h.logger.Info("Scoring configuration reset by admin", "admin_email", c.GetString(auth.AdminEmailKey))
	c.JSON(http.StatusOK, restored)
}

// GetRules lists the registered rules with their effective configuration
func (h *ScoringHandler) GetRules(c *gin.Context) {
	rules := h.config.Rules()
	c.JSON(http.StatusOK, gin.H{
		"rules": rules,
		"count": len(rules),
	})
}
