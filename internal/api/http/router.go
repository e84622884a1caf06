package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/adim-imoveis/imovel-certo/internal/api/http/handlers"
	"github.com/adim-imoveis/imovel-certo/internal/auth"
	"github.com/adim-imoveis/imovel-certo/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Demands        *handlers.DemandsHandler
	Missions       *handlers.MissionsHandler
	Reports        *handlers.ReportsHandler
	Users          *handlers.UsersHandler
	Regions        *handlers.RegionsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	api := app.Group("/api")
	api.Post("/login", cfg.Auth.Login)

	protected := api.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	protected.Post("/logout", cfg.Auth.Logout)
	protected.Get("/me", cfg.Auth.Me)
	protected.Put("/me/password", cfg.Auth.ChangePassword)

	directors := auth.RequireRole(domain.RoleAdmin, domain.RoleDirector)

	demands := protected.Group("/demands")
	demands.Get("", cfg.Demands.ListDemands)
	demands.Post("", cfg.Demands.CreateDemand)
	demands.Post("/sync-missions", directors, cfg.Demands.SyncMissions)
	demands.Get("/:id", cfg.Demands.GetDemand)
	demands.Put("/:id", cfg.Demands.UpdateDemand)

	missions := protected.Group("/missions")
	missions.Get("", cfg.Missions.ListMissions)
	missions.Post("", cfg.Missions.CreateMission)
	missions.Get("/:id", cfg.Missions.GetMission)
	missions.Put("/:id", cfg.Missions.UpdateMission)
	missions.Delete("/:id", cfg.Missions.DeleteMission)
	missions.Put("/:id/status", cfg.Missions.UpdateStatus)
	missions.Get("/:id/interactions", cfg.Missions.ListInteractions)
	missions.Post("/:id/interactions", cfg.Missions.AddInteraction)

	reports := protected.Group("/reports")
	reports.Get("/dashboard", cfg.Reports.Dashboard)
	reports.Get("/performance", cfg.Reports.Performance)
	reports.Get("/regions", cfg.Reports.Regions)
	reports.Get("/orphaned-demands", cfg.Reports.OrphanedDemands)

	users := protected.Group("/users")
	users.Get("/agents", cfg.Users.ListAgents)
	users.Get("", directors, cfg.Users.ListUsers)
	users.Post("", directors, cfg.Users.CreateUser)
	users.Put("/:id", directors, cfg.Users.UpdateUser)
	users.Put("/:id/deactivate", directors, cfg.Users.DeactivateUser)

	regions := protected.Group("/regions")
	regions.Get("", cfg.Regions.ListRegions)
	regions.Put("/:key", auth.RequireRole(domain.RoleAdmin), cfg.Regions.UpsertRegion)
}
