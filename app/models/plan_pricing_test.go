package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriceCents(t *testing.T) {
	cases := []struct {
		raw  string
		want int64
	}{
		{"29", 2900},
		{"29.00", 2900},
		{"29,90", 2990},
		{"0.99", 99},
		{"0", 0},
		{" 9.90 ", 990},
	}
	for _, tc := range cases {
		got, err := ParsePriceCents(tc.raw)
		require.NoError(t, err, "raw %q", tc.raw)
		assert.Equal(t, tc.want, got, "raw %q", tc.raw)
	}

	_, err := ParsePriceCents("not a price")
	assert.Error(t, err)
	_, err = ParsePriceCents("")
	assert.Error(t, err)
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "29.00", FormatPrice(2900))
	assert.Equal(t, "29.90", FormatPrice(2990))
	assert.Equal(t, "0.99", FormatPrice(99))
	assert.Equal(t, "0.00", FormatPrice(0))
}

func TestPlanIsFree(t *testing.T) {
	free := &Plan{Slug: PlanSlugFree}
	assert.True(t, free.IsFree())

	zeroPriced := &Plan{
		Slug:     "community",
		Pricings: []PlanPricing{{BillingPeriod: BillingPeriodMonthly, PriceCents: 0}},
	}
	assert.True(t, zeroPriced.IsFree())

	paid := &Plan{
		Slug:     PlanSlugStarter,
		Pricings: []PlanPricing{{BillingPeriod: BillingPeriodMonthly, PriceCents: 900}},
	}
	assert.False(t, paid.IsFree())

	// no slug hint, no prices: cannot be assumed free
	unpriced := &Plan{Slug: "custom"}
	assert.False(t, unpriced.IsFree())
}

func TestPlanPricingFor(t *testing.T) {
	plan := &Plan{
		Slug: PlanSlugProfessional,
		Pricings: []PlanPricing{
			{BillingPeriod: BillingPeriodMonthly, PriceCents: 2900},
			{BillingPeriod: BillingPeriodYearly, PriceCents: 29000},
		},
	}

	monthly := plan.PricingFor(BillingPeriodMonthly)
	require.NotNil(t, monthly)
	assert.Equal(t, int64(2900), monthly.PriceCents)

	assert.Nil(t, plan.PricingFor("weekly"))
}

func TestHashAPIKeyIsDeterministic(t *testing.T) {
	a := HashAPIKey("tp_live_abc123")
	b := HashAPIKey("tp_live_abc123")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, HashAPIKey("tp_live_abc124"))
}
