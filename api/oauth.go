package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"github.com/fourminutelog/fourminutelog/auth"
	"github.com/fourminutelog/fourminutelog/config"
	"github.com/fourminutelog/fourminutelog/log"
)

const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"
)

// OAuthAuthorize redirects to the identity provider's authorization page.
// GET /api/oauth/authorize
func (h *Handlers) OAuthAuthorize(c *gin.Context) {
	provider, err := auth.GetOIDCProvider()
	if err != nil {
		log.Error().Err(err).Msg("OAuth is not configured")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "OAuth is not configured"})
		return
	}

	state, err := generateSessionToken()
	if err != nil {
		RespondInternalError(c, "Failed to generate state")
		return
	}

	// Short-lived state cookie checked on callback
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("oauth_state", state, 600, "/", "", false, true)

	c.Redirect(http.StatusFound, provider.GetAuthCodeURL(state))
}

// OAuthCallback exchanges the authorization code for tokens and sets
// auth cookies.
// GET /api/oauth/callback
func (h *Handlers) OAuthCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		errMsg := c.Query("error")
		if errMsg != "" {
			log.Error().Str("error", errMsg).Str("description", c.Query("error_description")).Msg("OAuth callback error")
			c.Redirect(http.StatusFound, "/?error="+url.QueryEscape(errMsg))
			return
		}
		c.Redirect(http.StatusFound, "/?error=no_code")
		return
	}

	// Verify state matches the cookie set at authorize time
	state, err := c.Cookie("oauth_state")
	if err != nil || state == "" || state != c.Query("state") {
		log.Warn().Msg("OAuth state mismatch")
		c.Redirect(http.StatusFound, "/?error=state_mismatch")
		return
	}
	c.SetCookie("oauth_state", "", -1, "/", "", false, true)

	provider, err := auth.GetOIDCProvider()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "OAuth is not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	token, err := provider.Exchange(ctx, code)
	if err != nil {
		log.Error().Err(err).Msg("failed to exchange code for tokens")
		c.Redirect(http.StatusFound, "/?error=token_exchange_failed")
		return
	}

	rawIDToken, _ := token.Extra("id_token").(string)
	if rawIDToken == "" {
		log.Error().Msg("token response missing id_token")
		c.Redirect(http.StatusFound, "/?error=invalid_token")
		return
	}

	idToken, err := provider.VerifyIDToken(ctx, rawIDToken)
	if err != nil {
		log.Error().Err(err).Msg("failed to verify ID token")
		c.Redirect(http.StatusFound, "/?error=invalid_token")
		return
	}

	var claims struct {
		Sub               string `json:"sub"`
		Email             string `json:"email"`
		PreferredUsername string `json:"preferred_username"`
	}
	if err := idToken.Claims(&claims); err != nil {
		log.Error().Err(err).Msg("failed to parse ID token claims")
		c.Redirect(http.StatusFound, "/?error=invalid_token")
		return
	}

	username := usernameFromClaims(claims.PreferredUsername, claims.Email, claims.Sub)
	if !auth.VerifyExpectedUsername(username) {
		log.Warn().Str("username", username).Msg("username not allowed")
		c.Redirect(http.StatusFound, "/?error=unauthorized_user")
		return
	}

	setAuthCookies(c, rawIDToken, token)

	log.Info().Str("sub", claims.Sub).Msg("OAuth login successful")
	c.Redirect(http.StatusFound, "/")
}

// OAuthRefresh exchanges the refresh token for fresh tokens.
// GET /api/oauth/refresh
func (h *Handlers) OAuthRefresh(c *gin.Context) {
	refreshToken := c.Request.Header.Get("X-Refresh-Token")
	if refreshToken == "" {
		cookie, err := c.Cookie(refreshTokenCookie)
		if err != nil || cookie == "" {
			RespondUnauthorized(c, "No refresh token provided")
			return
		}
		refreshToken = cookie
	}

	provider, err := auth.GetOIDCProvider()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "OAuth is not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	source := provider.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		log.Error().Err(err).Msg("failed to refresh tokens")
		RespondUnauthorized(c, "Token refresh failed")
		return
	}

	rawIDToken, _ := token.Extra("id_token").(string)
	setAuthCookies(c, rawIDToken, token)

	RespondData(c, gin.H{
		"success":   true,
		"expiresAt": token.Expiry.Unix(),
	})
}

// OAuthToken reports whether the current token is valid and for whom.
// GET /api/oauth/token
func (h *Handlers) OAuthToken(c *gin.Context) {
	rawToken := c.Request.Header.Get("Authorization")
	if strings.HasPrefix(rawToken, "Bearer ") {
		rawToken = strings.TrimPrefix(rawToken, "Bearer ")
	} else {
		cookie, err := c.Cookie(accessTokenCookie)
		if err != nil || cookie == "" {
			RespondData(c, gin.H{"authenticated": false})
			return
		}
		rawToken = cookie
	}

	provider, err := auth.GetOIDCProvider()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "OAuth is not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	idToken, err := provider.VerifyIDToken(ctx, rawToken)
	if err != nil {
		log.Debug().Err(err).Msg("token validation failed")
		RespondData(c, gin.H{"authenticated": false, "error": "invalid_token"})
		return
	}

	var claims struct {
		Sub               string `json:"sub"`
		Email             string `json:"email"`
		PreferredUsername string `json:"preferred_username"`
	}
	if err := idToken.Claims(&claims); err != nil {
		RespondData(c, gin.H{"authenticated": false, "error": "invalid_token"})
		return
	}

	username := usernameFromClaims(claims.PreferredUsername, claims.Email, claims.Sub)
	if !auth.VerifyExpectedUsername(username) {
		RespondData(c, gin.H{"authenticated": false, "error": "unauthorized_user"})
		return
	}

	RespondData(c, gin.H{
		"authenticated": true,
		"username":      username,
		"sub":           claims.Sub,
		"email":         claims.Email,
	})
}

// OAuthLogout clears the auth cookies.
// POST /api/oauth/logout
func (h *Handlers) OAuthLogout(c *gin.Context) {
	c.SetCookie(accessTokenCookie, "", -1, "/", "", false, true)
	c.SetCookie(refreshTokenCookie, "", -1, "/", "", false, true)
	RespondData(c, gin.H{"success": true})
}

func usernameFromClaims(preferredUsername, email, sub string) string {
	if preferredUsername != "" {
		return preferredUsername
	}
	if email != "" {
		return strings.Split(email, "@")[0]
	}
	return sub
}

func setAuthCookies(c *gin.Context, rawIDToken string, token *oauth2.Token) {
	secure := !config.Get().IsDevelopment()

	maxAge := int(time.Until(token.Expiry) / time.Second)
	if maxAge <= 0 {
		maxAge = 3600
	}

	c.SetSameSite(http.SameSiteLaxMode)

	// The ID token doubles as the access credential since the middleware
	// verifies it against the issuer's keys
	if rawIDToken != "" {
		c.SetCookie(accessTokenCookie, rawIDToken, maxAge, "/", "", secure, true)
	}
	if token.RefreshToken != "" {
		c.SetCookie(refreshTokenCookie, token.RefreshToken, 30*24*3600, "/", "", secure, true)
	}
}
