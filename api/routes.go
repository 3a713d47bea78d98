package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fourminutelog/fourminutelog/auth"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, h *Handlers) {
	// Auth endpoints stay reachable without a session
	public := r.Group("/api")
	public.GET("/auth/status", h.GetAuthStatus)
	public.POST("/auth/setup", h.SetupPassword)
	public.POST("/auth/login", h.Login)
	public.POST("/auth/logout", h.Logout)

	if auth.IsOAuthEnabled() {
		public.GET("/oauth/authorize", h.OAuthAuthorize)
		public.GET("/oauth/callback", h.OAuthCallback)
		public.POST("/oauth/refresh", h.OAuthRefresh) // POST per OAuth 2.0 spec
		public.GET("/oauth/token", h.OAuthToken)
		public.POST("/oauth/logout", h.OAuthLogout)
	}

	api := r.Group("/api")
	api.Use(AuthMiddleware())

	// Daily logs
	api.GET("/logs/:date", h.GetLog)
	api.GET("/logs/:date/history", h.GetHistory)
	api.POST("/logs/:date/todos", h.AddTodo)
	api.PUT("/logs/:date/todos/:id", h.EditTodo)
	api.PATCH("/logs/:date/todos/:id", h.UpdateTodo)
	api.DELETE("/logs/:date/todos/:id", h.DeleteTodo)
	api.POST("/logs/:date/todos/:id/complete", h.CompleteTodo)
	api.PUT("/logs/:date/completed/:id", h.UpdateCompleted)
	api.POST("/logs/:date/completed/:id/reverse", h.ReverseCompleted)

	// Task definitions
	api.GET("/tasks", h.ListTaskDefinitions)
	api.POST("/tasks", h.CreateTaskDefinition)
	api.GET("/tasks/:id", h.GetTaskDefinition)
	api.PUT("/tasks/:id", h.UpdateTaskDefinition)
	api.DELETE("/tasks/:id", h.DeleteTaskDefinition)

	// Clients and projects
	api.GET("/clients", h.GetClients)
	api.POST("/clients", h.CreateClient)
	api.GET("/clients/:id", h.GetClient)
	api.PUT("/clients/:id", h.UpdateClient)
	api.DELETE("/clients/:id", h.DeleteClient)
	api.POST("/clients/:id/projects", h.CreateProject)
	api.PUT("/clients/:id/projects/:projectId", h.UpdateProject)
	api.DELETE("/clients/:id/projects/:projectId", h.DeleteProject)

	// Settings
	api.GET("/settings", h.GetSettings)
	api.PUT("/settings", h.UpdateSettings)
	api.POST("/settings/reset", h.ResetSettings)

	// Stats
	api.GET("/stats", h.GetStats)

	// Notifications (SSE)
	api.GET("/notifications/stream", h.NotificationStream)
}
