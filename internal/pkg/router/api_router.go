package router

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redisstorage "github.com/gofiber/storage/redis"

	"github.com/MarcelWeber/TeamPilot/app/controllers"
	"github.com/MarcelWeber/TeamPilot/app/repository"
	"github.com/MarcelWeber/TeamPilot/internal/pkg/cache"
	"github.com/MarcelWeber/TeamPilot/internal/pkg/env"
	"github.com/MarcelWeber/TeamPilot/internal/pkg/gateway"
	"github.com/MarcelWeber/TeamPilot/internal/pkg/jobqueue"
	"github.com/MarcelWeber/TeamPilot/internal/pkg/middleware"
	"github.com/MarcelWeber/TeamPilot/internal/pkg/upgrade"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	initUpgradeStack()

	api := app.Group("/api", cors.New(), limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Storage:    newLimiterStorage(),
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")
	v1.Get("/plans", controllers.HandleListPlans)

	org := v1.Group("/organization", middleware.APIKeyAuthMiddleware())
	org.Get("/plan", controllers.HandleGetOrganizationPlan)
	org.Post("/plan/upgrade", controllers.HandleStartUpgrade)
	org.Post("/plan/upgrade/callback", controllers.HandleCheckoutCallback)
	org.Post("/plan/downgrade", controllers.HandleRequestDowngrade)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

// initUpgradeStack wires the orchestrator to its collaborators and hands it
// to the controllers and the job queue. The queue hooks are injected as
// plain funcs to keep the packages cycle-free.
func initUpgradeStack() {
	orch := upgrade.NewOrchestrator(
		repository.GetGlobalRepositories(),
		gateway.NewClientFromEnv(),
		upgrade.NewRedisLocker(),
		env.GetEnv("GATEWAY_KEY_SECRET", ""),
		env.GetEnv("SUPPORT_EMAIL", "support@teampilot.io"),
	)

	manager := jobqueue.GetManager()
	manager.SetPlanApplyHandler(orch.RetryApply)
	manager.SetOrderExpirer(orch.ExpireStaleOrders)
	orch.SetRetryEnqueuer(manager.EnqueuePlanApply)

	controllers.SetUpgradeOrchestrator(orch)
}

// newLimiterStorage backs the rate limiter with Redis so limits hold across
// instances. Reuses the cache connection parameters, database 1.
func newLimiterStorage() *redisstorage.Storage {
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if client := cache.GetClient(); client != nil {
		addr := client.Options().Addr
		if h, p, err := net.SplitHostPort(addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := client.Options().Password; p != "" {
			password = p
		}
	}

	return redisstorage.New(redisstorage.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})
}
