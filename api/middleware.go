package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fourminutelog/fourminutelog/auth"
	"github.com/fourminutelog/fourminutelog/log"
)

// contextKeyUserID is the gin context key holding the resolved user identity.
// Every store is scoped by this id.
const contextKeyUserID = "user_id"

// localUserID identifies the single user when auth is disabled or in
// password mode (which has no account namespace).
const localUserID = "local"

// CurrentUserID returns the user identity established by AuthMiddleware
func CurrentUserID(c *gin.Context) string {
	if id, ok := c.Get(contextKeyUserID); ok {
		return id.(string)
	}
	return localUserID
}

// AuthMiddleware returns a Gin middleware that enforces authentication
// based on the configured auth mode (none, password, oauth) and resolves
// the user id that scopes all stores.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.IsAuthRequired() {
			c.Set(contextKeyUserID, localUserID)
			c.Next()
			return
		}

		if auth.IsOAuthEnabled() {
			if !validateOAuthToken(c) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "Unauthorized",
					"code":  "INVALID_TOKEN",
				})
				return
			}
		} else if auth.IsPasswordAuthEnabled() {
			if ValidatePasswordSession(c) == nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "Unauthorized",
					"code":  "INVALID_SESSION",
				})
				return
			}
			c.Set(contextKeyUserID, localUserID)
		}

		c.Next()
	}
}

// validateOAuthToken validates the OAuth access token from cookie or header
func validateOAuthToken(c *gin.Context) bool {
	// Get access token from Authorization header or cookie
	accessToken := c.Request.Header.Get("Authorization")
	if strings.HasPrefix(accessToken, "Bearer ") {
		accessToken = strings.TrimPrefix(accessToken, "Bearer ")
	} else {
		var err error
		accessToken, err = c.Cookie("access_token")
		if err != nil || accessToken == "" {
			return false
		}
	}

	// Get OIDC provider for token verification
	provider, err := auth.GetOIDCProvider()
	if err != nil {
		log.Error().Err(err).Msg("failed to get OIDC provider for token validation")
		return false
	}

	// Verify the token
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	idToken, err := provider.VerifyIDToken(ctx, accessToken)
	if err != nil {
		log.Debug().Err(err).Msg("OAuth token validation failed")
		return false
	}

	// Extract claims for username verification
	var claims struct {
		Sub               string `json:"sub"`
		Email             string `json:"email"`
		PreferredUsername string `json:"preferred_username"`
	}
	if err := idToken.Claims(&claims); err != nil {
		log.Error().Err(err).Msg("failed to parse token claims")
		return false
	}

	// Determine username
	username := claims.PreferredUsername
	if username == "" && claims.Email != "" {
		parts := strings.Split(claims.Email, "@")
		username = parts[0]
	}
	if username == "" {
		username = claims.Sub
	}

	// Verify expected username
	if !auth.VerifyExpectedUsername(username) {
		log.Warn().Str("username", username).Msg("OAuth token has unauthorized username")
		return false
	}

	// The subject scopes this user's stores
	c.Set(contextKeyUserID, claims.Sub)
	c.Set("username", username)

	return true
}
