package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fourminutelog/fourminutelog/db"
	"github.com/fourminutelog/fourminutelog/log"
)

// GetSettings handles GET /api/settings
func (h *Handlers) GetSettings(c *gin.Context) {
	settings, err := db.LoadUserSettings()
	if err != nil {
		log.Error().Err(err).Msg("failed to load settings")
		RespondInternalError(c, "Failed to load settings")
		return
	}

	RespondData(c, settings)
}

// UpdateSettings handles PUT /api/settings. Accepts a flat key/value map;
// unknown keys are stored as-is.
func (h *Handlers) UpdateSettings(c *gin.Context) {
	var body map[string]string
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondValidationError(c, "invalid settings body", nil)
		return
	}
	if len(body) == 0 {
		RespondBadRequest(c, "No settings provided")
		return
	}

	// The password hash is only writable through the auth endpoints
	delete(body, "auth_password_hash")

	if err := db.UpdateSettings(body); err != nil {
		log.Error().Err(err).Msg("failed to update settings")
		RespondInternalError(c, "Failed to update settings")
		return
	}

	if level, ok := body["log_level"]; ok {
		log.SetLevel(level)
	}

	settings, err := db.LoadUserSettings()
	if err != nil {
		RespondInternalError(c, "Failed to load settings")
		return
	}

	RespondData(c, settings)
}

// ResetSettings handles POST /api/settings/reset. The password hash
// survives a reset.
func (h *Handlers) ResetSettings(c *gin.Context) {
	if err := db.ResetSettings(); err != nil {
		log.Error().Err(err).Msg("failed to reset settings")
		RespondInternalError(c, "Failed to reset settings")
		return
	}

	settings, err := db.LoadUserSettings()
	if err != nil {
		RespondInternalError(c, "Failed to load settings")
		return
	}

	RespondData(c, settings)
}
