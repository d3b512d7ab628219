package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"

	"github.com/MarcelWeber/TeamPilot/app/controllers"
	"github.com/MarcelWeber/TeamPilot/internal/pkg/env"
)

type AdminRouter struct {
}

// InstallRouter registers the catalog management API. It sits behind basic
// auth; the credentials come from the environment, not the database.
func (h AdminRouter) InstallRouter(app *fiber.App) {
	admin := app.Group("/admin/api", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("ADMIN_API_USER", "admin"): env.GetEnv("ADMIN_API_PASSWORD", "changeme"),
		},
	}))

	admin.Get("/plans", controllers.HandleAdminListPlans)
	admin.Post("/plans", controllers.HandleAdminCreatePlan)
	admin.Put("/plans/:id", controllers.HandleAdminUpdatePlan)
	admin.Delete("/plans/:id", controllers.HandleAdminDeactivatePlan)
	admin.Put("/plans/:id/pricing", controllers.HandleAdminUpsertPricing)
	admin.Delete("/plans/:id/pricing/:period", controllers.HandleAdminDeletePricing)

	admin.Get("/change-requests", controllers.HandleAdminListChangeRequests)
	admin.Post("/change-requests/:id/close", controllers.HandleAdminCloseChangeRequest)
}

func NewAdminRouter() *AdminRouter {
	return &AdminRouter{}
}
