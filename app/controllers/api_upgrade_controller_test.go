package controllers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/MarcelWeber/TeamPilot/app/models"
	"github.com/MarcelWeber/TeamPilot/internal/pkg/upgrade"
)

func TestUpgradeErrorResponseStatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"downgrade", upgrade.ErrDowngradeRequiresContact, fiber.StatusConflict, "downgrade_requires_contact"},
		{"not actionable", upgrade.ErrNotActionable, fiber.StatusConflict, "not_actionable"},
		{"contact sales", upgrade.ErrContactSales, fiber.StatusConflict, "contact_sales"},
		{"checkout in progress", upgrade.ErrCheckoutInProgress, fiber.StatusConflict, "checkout_in_progress"},
		{"gateway down", upgrade.ErrGatewayUnavailable, fiber.StatusBadGateway, "gateway_unavailable"},
		{"verification failed", upgrade.ErrVerificationFailed, fiber.StatusBadRequest, "verification_failed"},
		{"order closed", upgrade.ErrOrderClosed, fiber.StatusConflict, "order_closed"},
		{"apply conflict", upgrade.ErrApplyConflict, fiber.StatusConflict, "apply_failed"},
		{"not found", gorm.ErrRecordNotFound, fiber.StatusNotFound, "not_found"},
		{"unknown", assert.AnError, fiber.StatusInternalServerError, "internal_server_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return upgradeErrorResponse(c, tc.err)
			})

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tc.wantStatus, resp.StatusCode)

			var body struct {
				Error string `json:"error"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.wantCode, body.Error)
		})
	}
}

func TestChangeTypeJSON(t *testing.T) {
	starter := &models.Plan{
		ID:   2,
		Slug: models.PlanSlugStarter,
		Pricings: []models.PlanPricing{
			{PlanID: 2, BillingPeriod: models.BillingPeriodMonthly, PriceCents: 900, Currency: "EUR"},
		},
	}
	professional := &models.Plan{
		ID:   3,
		Slug: models.PlanSlugProfessional,
		Pricings: []models.PlanPricing{
			{PlanID: 3, BillingPeriod: models.BillingPeriodMonthly, PriceCents: 2900, Currency: "EUR"},
		},
	}
	enterprise := &models.Plan{ID: 4, Slug: models.PlanSlugEnterprise}

	assert.Equal(t, "upgrade", changeTypeJSON(starter, professional, models.BillingPeriodMonthly))
	assert.Equal(t, "downgrade", changeTypeJSON(professional, starter, models.BillingPeriodMonthly))
	// higher tier without a price for the period is contact-only
	assert.Equal(t, "contact_sales", changeTypeJSON(starter, enterprise, models.BillingPeriodMonthly))
	// no price for yearly either
	assert.Equal(t, "contact_sales", changeTypeJSON(professional, enterprise, models.BillingPeriodYearly))
}

func TestLimitJSON(t *testing.T) {
	assert.Nil(t, limitJSON(nil))

	five := 5
	assert.Equal(t, 5, limitJSON(&five))
}

func TestPlanToJSONFormatsPrices(t *testing.T) {
	plan := &models.Plan{
		ID:   2,
		Slug: models.PlanSlugStarter,
		Name: "Starter",
		Pricings: []models.PlanPricing{
			{PlanID: 2, BillingPeriod: models.BillingPeriodMonthly, PriceCents: 990, Currency: "EUR"},
		},
	}

	out := planToJSON(plan)
	pricings, ok := out["pricings"].([]fiber.Map)
	require.True(t, ok)
	require.Len(t, pricings, 1)
	assert.Equal(t, int64(990), pricings[0]["price_cents"])
	assert.Equal(t, models.FormatPrice(990), pricings[0]["price"])
}
