package api

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fourminutelog/fourminutelog/auth"
	"github.com/fourminutelog/fourminutelog/db"
	"github.com/fourminutelog/fourminutelog/log"
)

const sessionCookieName = "session"

// hashPassword hashes a password with SHA-256
func hashPassword(password string) string {
	hash := sha256.Sum256([]byte(password))
	return hex.EncodeToString(hash[:])
}

// generateSessionToken creates a cryptographically random session token
func generateSessionToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// ValidatePasswordSession checks the session cookie against the sessions
// table. Returns the session when valid, nil otherwise.
func ValidatePasswordSession(c *gin.Context) *db.Session {
	token, err := c.Cookie(sessionCookieName)
	if err != nil || token == "" {
		return nil
	}

	session, err := db.GetSession(token)
	if err != nil {
		log.Error().Err(err).Msg("failed to look up session")
		return nil
	}
	if session == nil {
		return nil
	}

	// Record last use; expiry stays fixed from creation
	if err := db.TouchSession(token); err != nil {
		log.Warn().Err(err).Msg("failed to touch session")
	}

	return session
}

// GetAuthStatus reports the auth mode and whether the caller is authenticated.
// GET /api/auth/status
func (h *Handlers) GetAuthStatus(c *gin.Context) {
	mode := auth.GetAuthMode()

	authenticated := false
	switch mode {
	case auth.AuthModeNone:
		authenticated = true
	case auth.AuthModePassword:
		authenticated = ValidatePasswordSession(c) != nil
	case auth.AuthModeOAuth:
		authenticated = validateOAuthToken(c)
	}

	// Password mode needs setup until a password hash has been stored
	needsSetup := false
	if mode == auth.AuthModePassword {
		hash, err := db.GetSetting("auth_password_hash")
		if err != nil {
			RespondInternalError(c, "Failed to read auth settings")
			return
		}
		needsSetup = hash == ""
	}

	RespondData(c, gin.H{
		"mode":          string(mode),
		"authenticated": authenticated,
		"needsSetup":    needsSetup,
	})
}

// SetupPassword stores the initial password hash. Only valid while no
// password has been set yet.
// POST /api/auth/setup
func (h *Handlers) SetupPassword(c *gin.Context) {
	if !auth.IsPasswordAuthEnabled() {
		RespondBadRequest(c, "Password auth is not enabled")
		return
	}

	existing, err := db.GetSetting("auth_password_hash")
	if err != nil {
		RespondInternalError(c, "Failed to read auth settings")
		return
	}
	if existing != "" {
		RespondBadRequest(c, "Password is already set")
		return
	}

	var body struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondValidationError(c, "password is required", nil)
		return
	}
	if len(body.Password) < 8 {
		RespondValidationError(c, "password must be at least 8 characters", nil)
		return
	}

	if err := db.SetSetting("auth_password_hash", hashPassword(body.Password)); err != nil {
		RespondInternalError(c, "Failed to store password")
		return
	}

	h.issueSession(c)
}

// Login validates the password and issues a session cookie.
// POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	if !auth.IsPasswordAuthEnabled() {
		RespondBadRequest(c, "Password auth is not enabled")
		return
	}

	var body struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondValidationError(c, "password is required", nil)
		return
	}

	storedHash, err := db.GetSetting("auth_password_hash")
	if err != nil {
		RespondInternalError(c, "Failed to read auth settings")
		return
	}
	if storedHash == "" {
		RespondBadRequest(c, "Password has not been set up")
		return
	}

	if hashPassword(body.Password) != storedHash {
		RespondUnauthorized(c, "Invalid password")
		return
	}

	h.issueSession(c)
}

func (h *Handlers) issueSession(c *gin.Context) {
	token, err := generateSessionToken()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate session token")
		RespondInternalError(c, "Failed to create session")
		return
	}

	if _, err := db.CreateSession(token); err != nil {
		log.Error().Err(err).Msg("failed to create session")
		RespondInternalError(c, "Failed to create session")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, token, int(db.SessionDuration/time.Second), "/", "", false, true)

	RespondData(c, gin.H{"authenticated": true})
}

// Logout deletes the session and clears the cookie.
// POST /api/auth/logout
func (h *Handlers) Logout(c *gin.Context) {
	token, err := c.Cookie(sessionCookieName)
	if err == nil && token != "" {
		if err := db.DeleteSession(token); err != nil {
			log.Warn().Err(err).Msg("failed to delete session")
		}
	}

	c.SetCookie(sessionCookieName, "", -1, "/", "", false, true)
	RespondNoContent(c)
}
