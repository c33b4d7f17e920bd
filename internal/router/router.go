package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework used to handle routing

	"github.com/iliyamo/attendance-qr/internal/handler"    // handlers that implement business logic
	"github.com/iliyamo/attendance-qr/internal/middleware" // JWT authentication and role enforcement
	"github.com/iliyamo/attendance-qr/internal/model"      // role constants
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware. Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleEmployee, model.RoleManager, model.RoleTeamLead, model.RoleAdmin, model.RoleSuperadmin))
	auth.GET("/me", a.Me)
	auth.POST("/auth/logout-all", a.LogoutAll)
}

// RegisterAttendance registers the token exchange and the employee-facing
// time entry views. Issue requires a valid access token of any role; the
// scan endpoint is public because scanner stations are unauthenticated
// kiosks, and it carries the rate limiter instead.
func RegisterAttendance(e *echo.Echo, at *handler.AttendanceHandler, te *handler.TimeEntryHandler, jwtSecret string, scanLimiter echo.MiddlewareFunc) {
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleEmployee, model.RoleManager, model.RoleTeamLead, model.RoleAdmin, model.RoleSuperadmin))
	auth.POST("/attendance/tokens", at.Issue)
	auth.GET("/time-entries", te.List)
	auth.GET("/time-entries/current", te.Current)

	if scanLimiter != nil {
		e.POST("/v1/attendance/scan", at.Validate, scanLimiter)
	} else {
		e.POST("/v1/attendance/scan", at.Validate)
	}
}

// RegisterAdmin registers the org-scoped management endpoints. Only
// privileged roles (manager and above) may manage stations, flip the
// schedule-required setting, or review scan logs.
func RegisterAdmin(e *echo.Echo, ad *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.PrivilegedRoles...))
	g.GET("/stations", ad.ListStations)
	g.POST("/stations", ad.CreateStation)
	g.PATCH("/stations/:id", ad.UpdateStation)
	g.PATCH("/organization/settings", ad.UpdateSettings)
	g.GET("/scan-logs", ad.ListScanLogs)
}
