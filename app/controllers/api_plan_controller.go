package controllers

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/MarcelWeber/TeamPilot/app/models"
	"github.com/MarcelWeber/TeamPilot/app/repository"
	"github.com/MarcelWeber/TeamPilot/internal/pkg/cache"
	"github.com/MarcelWeber/TeamPilot/internal/pkg/tier"
)

const (
	planCatalogCacheKey = "plans:catalog:v1"
	planCatalogCacheTTL = 5 * time.Minute
)

// HandleListPlans returns the active plan catalog. The catalog changes only
// through admin edits, so it is served from Redis between invalidations.
func HandleListPlans(c *fiber.Ctx) error {
	if cached, err := cache.Get(planCatalogCacheKey); err == nil && cached != "" {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(cached)
	}

	repo := repository.GetGlobalFactory().GetPlanRepository()
	plans, err := repo.List(true)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load plans")
	}

	response := fiber.Map{"plans": plansToJSON(plans)}
	if payload, err := json.Marshal(response); err == nil {
		if err := cache.Set(planCatalogCacheKey, string(payload), planCatalogCacheTTL); err != nil {
			log.Warnf("[Plans] failed to cache catalog: %v", err)
		}
	}

	return c.JSON(response)
}

// HandleGetOrganizationPlan returns the authenticated organization's current
// plan, its usage against the plan ceilings, and the tier relation of every
// other active plan so the client knows which switches are self-service.
func HandleGetOrganizationPlan(c *fiber.Ctx) error {
	org := requireOrganization(c)
	if org == nil {
		return nil
	}

	repos := repository.GetGlobalRepositories()
	orgWithPlan, err := repos.Organization.GetWithPlan(org.ID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load organization")
	}
	current := orgWithPlan.Plan

	plans, err := repos.Plan.List(true)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load plans")
	}

	changes := make([]fiber.Map, 0, len(plans))
	for i := range plans {
		p := &plans[i]
		if p.ID == current.ID {
			continue
		}
		changes = append(changes, fiber.Map{
			"plan_id":   p.ID,
			"plan_slug": p.Slug,
			"monthly":   changeTypeJSON(current, p, models.BillingPeriodMonthly),
			"yearly":    changeTypeJSON(current, p, models.BillingPeriodYearly),
		})
	}

	hasOpenCheckout, err := repos.PaymentOrder.HasOpenOrderForOrganization(org.ID)
	if err != nil {
		log.Warnf("[Plans] open-order lookup failed for org %d: %v", org.ID, err)
	}

	return c.JSON(fiber.Map{
		"organization": fiber.Map{
			"uuid":   orgWithPlan.UUID,
			"name":   orgWithPlan.Name,
			"status": orgWithPlan.Status,
		},
		"plan": planToJSON(current),
		"usage": fiber.Map{
			"users": fiber.Map{"used": orgWithPlan.UserCount, "limit": limitJSON(current.MaxUsers)},
			"apps":  fiber.Map{"used": orgWithPlan.AppCount, "limit": limitJSON(current.MaxApps)},
		},
		"checkout_in_progress": hasOpenCheckout,
		"available_changes":    changes,
	})
}

func changeTypeJSON(current, candidate *models.Plan, period string) string {
	switch tier.Compare(current, candidate, period) {
	case tier.Upgrade:
		if pricing := candidate.PricingFor(period); pricing != nil && pricing.PriceCents > 0 {
			return "upgrade"
		}
		return "contact_sales"
	case tier.Downgrade:
		return "downgrade"
	default:
		return "none"
	}
}

func limitJSON(limit *int) interface{} {
	if limit == nil {
		return nil
	}
	return *limit
}

func planToJSON(p *models.Plan) fiber.Map {
	pricings := make([]fiber.Map, 0, len(p.Pricings))
	for i := range p.Pricings {
		pr := &p.Pricings[i]
		pricings = append(pricings, fiber.Map{
			"billing_period": pr.BillingPeriod,
			"price_cents":    pr.PriceCents,
			"price":          models.FormatPrice(pr.PriceCents),
			"currency":       pr.Currency,
		})
	}
	return fiber.Map{
		"id":             p.ID,
		"slug":           p.Slug,
		"name":           p.Name,
		"description":    p.Description,
		"max_users":      p.MaxUsers,
		"max_apps":       p.MaxApps,
		"max_storage_mb": p.MaxStorageMB,
		"is_default":     p.IsDefault,
		"pricings":       pricings,
	}
}

func plansToJSON(plans []models.Plan) []fiber.Map {
	out := make([]fiber.Map, 0, len(plans))
	for i := range plans {
		out = append(out, planToJSON(&plans[i]))
	}
	return out
}

func invalidatePlanCatalogCache() {
	if err := cache.Delete(planCatalogCacheKey); err != nil {
		log.Warnf("[Plans] failed to invalidate catalog cache: %v", err)
	}
}
