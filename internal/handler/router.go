package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/crewflow-hq/crewflow-api/internal/middleware"
	"github.com/crewflow-hq/crewflow-api/internal/models"
	"github.com/crewflow-hq/crewflow-api/internal/repository"
	"github.com/crewflow-hq/crewflow-api/internal/service"
)

// RouterDeps bundles everything route registration needs.
type RouterDeps struct {
	Auth      *AuthHandler
	Users     *UserHandler
	Projects  *ProjectHandler
	Timecards *TimecardHandler
	Company   *CompanyHandler
	Payroll   *PayrollHandler
	Metrics   *MetricsHandler

	AuthService *service.AuthService
	AuditRepo   *repository.AuditRepository
}

// RegisterRoutes mounts all API routes under the given prefix.
func RegisterRoutes(r *gin.Engine, prefix string, deps RouterDeps) {
	r.GET("/health", deps.Metrics.Health)
	r.GET("/metrics", deps.Metrics.Prometheus)

	api := r.Group(prefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", deps.Auth.Login)
		auth.POST("/refresh", deps.Auth.Refresh)

		authed := auth.Group("", middleware.JWT(deps.AuthService))
		authed.POST("/logout", deps.Auth.Logout)
		authed.GET("/me", deps.Auth.Me)
	}

	// The download route is gated by its signed token, not by a session.
	api.GET("/payroll/exports/download", deps.Payroll.Download)

	protected := api.Group("", middleware.JWT(deps.AuthService))

	users := protected.Group("/users")
	{
		users.GET("", middleware.RequirePermission(models.PermManageUsers), deps.Users.List)
		users.GET("/:id", middleware.RequirePermissionOrSelf(models.PermManageUsers), deps.Users.Get)
		users.POST("", middleware.RequirePermission(models.PermManageUsers),
			middleware.Audit(deps.AuditRepo, models.AuditActionCreate, "user"), deps.Users.Create)
		users.PUT("/:id", middleware.RequirePermission(models.PermManageUsers),
			middleware.Audit(deps.AuditRepo, models.AuditActionUpdate, "user"), deps.Users.Update)
		users.DELETE("/:id", middleware.RequirePermission(models.PermManageUsers),
			middleware.Audit(deps.AuditRepo, models.AuditActionDelete, "user"), deps.Users.Delete)
	}

	projects := protected.Group("/projects")
	{
		projects.GET("", deps.Projects.List)
		projects.GET("/:id", deps.Projects.Get)
		projects.POST("", middleware.RequirePermission(models.PermManageProjects),
			middleware.Audit(deps.AuditRepo, models.AuditActionCreate, "project"), deps.Projects.Create)
		projects.PUT("/:id", middleware.RequirePermission(models.PermManageProjects),
			middleware.Audit(deps.AuditRepo, models.AuditActionUpdate, "project"), deps.Projects.Update)
		projects.DELETE("/:id", middleware.RequirePermission(models.PermManageProjects),
			middleware.Audit(deps.AuditRepo, models.AuditActionDelete, "project"), deps.Projects.Delete)
	}

	timecards := protected.Group("/timecards")
	{
		timecards.GET("", deps.Timecards.List)
		timecards.GET("/:id", deps.Timecards.Get)
		timecards.POST("/clock-in", deps.Timecards.ClockIn)
		timecards.POST("/clock-out", deps.Timecards.ClockOut)
		timecards.POST("/status", deps.Timecards.ChangeStatus)
		timecards.POST("", middleware.RequirePermission(models.PermManageTimecards),
			middleware.Audit(deps.AuditRepo, models.AuditActionCreate, "timecard"), deps.Timecards.Create)
		timecards.PUT("/:id", middleware.RequirePermission(models.PermManageTimecards),
			middleware.Audit(deps.AuditRepo, models.AuditActionUpdate, "timecard"), deps.Timecards.Update)
		timecards.DELETE("/:id", middleware.RequirePermission(models.PermManageTimecards),
			middleware.Audit(deps.AuditRepo, models.AuditActionDelete, "timecard"), deps.Timecards.Delete)
	}

	company := protected.Group("/company")
	{
		company.GET("", deps.Company.Get)
		company.PUT("", middleware.RequirePermission(models.PermManageIntegrations),
			middleware.Audit(deps.AuditRepo, models.AuditActionUpdate, "company"), deps.Company.Update)
		company.PUT("/settings", middleware.RequirePermission(models.PermManageIntegrations),
			middleware.Audit(deps.AuditRepo, models.AuditActionUpdate, "company_settings"), deps.Company.UpdateSettings)
		company.GET("/cost-codes", deps.Company.ListCostCodes)
		company.POST("/cost-codes", middleware.RequirePermission(models.PermManageIntegrations),
			middleware.Audit(deps.AuditRepo, models.AuditActionCreate, "cost_code"), deps.Company.CreateCostCode)
		company.PUT("/cost-codes/:id", middleware.RequirePermission(models.PermManageIntegrations),
			middleware.Audit(deps.AuditRepo, models.AuditActionUpdate, "cost_code"), deps.Company.UpdateCostCode)
	}

	payroll := protected.Group("/payroll", middleware.RequirePermission(models.PermExportPayroll))
	{
		payroll.POST("/exports",
			middleware.Audit(deps.AuditRepo, models.AuditActionExport, "payroll_export"), deps.Payroll.Request)
		payroll.GET("/exports/:id", deps.Payroll.Status)
	}
}
