// Package handlers implements the HTTP API.
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/formdesk/internal/auth"
	"github.com/zfogg/formdesk/internal/config"
	"github.com/zfogg/formdesk/internal/container"
	"github.com/zfogg/formdesk/internal/formio"
	"github.com/zfogg/formdesk/internal/middleware"
	"github.com/zfogg/formdesk/internal/models"
	"github.com/zfogg/formdesk/internal/queue"
	"github.com/zfogg/formdesk/internal/results"
	"github.com/zfogg/formdesk/internal/tasks"
	"github.com/zfogg/formdesk/internal/users"
	"github.com/zfogg/formdesk/internal/validation"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	auth    auth.AuthServiceInterface
	forms   formio.FormBackend
	tasks   *tasks.Service
	results *results.Service
	users   *users.Service
	exports *queue.ExportQueue

	formCache *middleware.ResponseCache
	checks    map[string]validation.Check
}

// NewHandlers creates handlers over the services of c.
func NewHandlers(c *container.Container, formCacheTTL time.Duration) *Handlers {
	h := &Handlers{
		auth:    c.Auth(),
		forms:   c.Forms(),
		tasks:   c.Tasks(),
		results: c.Results(),
		users:   c.Users(),
		exports: c.Exports(),
		checks:  make(map[string]validation.Check),
	}
	if store := c.Cache(); store != nil && formCacheTTL > 0 {
		h.formCache = middleware.NewResponseCache(store, "forms", formCacheTTL)
	}
	return h
}

// SetHealthChecks sets the dependency probes reported by /health.
func (h *Handlers) SetHealthChecks(checks map[string]validation.Check) {
	h.checks = checks
}

// RegisterRoutes mounts the API under /api/v1 on router.
func (h *Handlers) RegisterRoutes(router *gin.Engine, c *container.Container, limits config.RateLimitConfig) {
	router.GET("/health", h.Health)

	api := router.Group("/api/v1")

	authLimit := middleware.RateLimit(middleware.AuthRateLimitConfig(limits), c.Counter())
	public := api.Group("/auth")
	{
		public.POST("/login", authLimit, h.Login)
		public.POST("/password-reset/request", authLimit, h.RequestPasswordReset)
		public.POST("/password-reset/confirm", authLimit, h.ConfirmPasswordReset)
	}

	protected := api.Group("")
	protected.Use(
		middleware.Authenticate(h.auth),
		middleware.AdminImpersonationMiddleware(c.UserRepository()),
		middleware.RateLimit(middleware.APIRateLimitConfig(limits), c.Counter()),
	)
	staff := middleware.RequireRole(models.RoleEmployee)
	managers := middleware.RequireRole(models.RoleManager)

	account := protected.Group("/auth")
	{
		account.GET("/me", h.Me)
		account.POST("/password", h.ChangePassword)
		account.POST("/totp/setup", h.SetupTOTP)
		account.POST("/totp/enable", h.EnableTOTP)
		account.POST("/totp/disable", h.DisableTOTP)
	}

	forms := protected.Group("/forms")
	if h.formCache != nil {
		forms.Use(middleware.InvalidateResponseCache(h.formCache))
		forms.GET("", h.formCache.Middleware(), h.ListForms)
	} else {
		forms.GET("", h.ListForms)
	}
	{
		forms.GET("/:id", h.GetForm)
		forms.POST("", staff, h.CreateForm)
		forms.PUT("/:id", staff, h.UpdateForm)
		forms.DELETE("/:id", staff, h.DeleteForm)
		forms.GET("/:id/results", h.GetResults)
		forms.POST("/:id/results/export", staff, h.ExportResults)
	}
	protected.GET("/exports/:id", staff, h.GetExport)

	taskRoutes := protected.Group("/tasks")
	{
		taskRoutes.GET("", h.ListTasks)
		taskRoutes.POST("", staff, h.CreateTasks)
		taskRoutes.POST("/recurring", staff, h.CreateRecurring)
		taskRoutes.GET("/recurring/preview", staff, h.PreviewRecurrence)
		taskRoutes.DELETE("/recurring/:id", staff, h.CancelRecurrence)
		taskRoutes.GET("/:id", h.GetTask)
		taskRoutes.PUT("/:id", staff, h.UpdateTask)
		taskRoutes.POST("/:id/cancel", staff, h.CancelTask)
		taskRoutes.DELETE("/:id", staff, h.DeleteTask)
		taskRoutes.GET("/:id/draft", h.GetDraft)
		taskRoutes.PUT("/:id/draft", h.SaveDraft)
		taskRoutes.DELETE("/:id/draft", h.DeleteDraft)
		taskRoutes.POST("/:id/submit", h.SubmitTask)
		taskRoutes.POST("/:id/review", staff, h.ReviewTask)
		taskRoutes.GET("/:id/reviews", h.ListReviews)
	}

	userRoutes := protected.Group("/users")
	{
		userRoutes.GET("", managers, h.ListUsers)
		userRoutes.POST("", managers, h.CreateUser)
		userRoutes.GET("/:id", h.GetUser)
		userRoutes.PUT("/:id", h.UpdateUser)
		userRoutes.PUT("/:id/role", managers, h.SetUserRole)
		userRoutes.POST("/:id/deactivate", managers, h.DeactivateUser)
		userRoutes.POST("/:id/activate", managers, h.ActivateUser)
		userRoutes.DELETE("/:id", middleware.RequireAdmin(), h.DeleteUser)
	}

	employees := protected.Group("/employees", staff)
	{
		employees.GET("", h.ListEmployees)
		employees.GET("/:id", h.GetEmployee)
		employees.PUT("/:id", managers, h.UpsertEmployee)
		employees.DELETE("/:id", managers, h.DeleteEmployee)
	}
}
