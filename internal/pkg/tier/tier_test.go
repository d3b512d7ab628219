package tier

import (
	"testing"

	"github.com/MarcelWeber/TeamPilot/app/models"
)

func plan(id uint, slug string, monthlyCents int64) *models.Plan {
	p := &models.Plan{ID: id, Slug: slug, Name: slug}
	if monthlyCents >= 0 {
		p.Pricings = []models.PlanPricing{
			{PlanID: id, BillingPeriod: models.BillingPeriodMonthly, PriceCents: monthlyCents, Currency: "EUR"},
		}
	}
	return p
}

func TestCompareCanonicalOrder(t *testing.T) {
	free := plan(1, models.PlanSlugFree, 0)
	starter := plan(2, models.PlanSlugStarter, 900)
	pro := plan(3, models.PlanSlugProfessional, 2900)
	business := plan(4, models.PlanSlugBusiness, 7900)
	enterprise := plan(5, models.PlanSlugEnterprise, -1)

	ordered := []*models.Plan{free, starter, pro, business, enterprise}
	for i, lower := range ordered {
		for j, higher := range ordered {
			got := Compare(lower, higher, models.BillingPeriodMonthly)
			switch {
			case i < j && got != Upgrade:
				t.Fatalf("Compare(%s, %s) = %v, want Upgrade", lower.Slug, higher.Slug, got)
			case i > j && got != Downgrade:
				t.Fatalf("Compare(%s, %s) = %v, want Downgrade", lower.Slug, higher.Slug, got)
			case i == j && got != Equal:
				t.Fatalf("Compare(%s, %s) = %v, want Equal", lower.Slug, higher.Slug, got)
			}
		}
	}
}

func TestCompareIsSymmetric(t *testing.T) {
	plans := []*models.Plan{
		plan(1, models.PlanSlugFree, 0),
		plan(2, models.PlanSlugProfessional, 2900),
		plan(3, "custom-silver", 1500),
		plan(4, "custom-gold", 4500),
		plan(5, "unpriced-custom", -1),
	}

	for _, a := range plans {
		for _, b := range plans {
			ab := Compare(a, b, models.BillingPeriodMonthly)
			ba := Compare(b, a, models.BillingPeriodMonthly)
			if ab != ba.Invert() {
				t.Fatalf("Compare(%s,%s)=%v but Compare(%s,%s)=%v; not symmetric",
					a.Slug, b.Slug, ab, b.Slug, a.Slug, ba)
			}
		}
	}
}

func TestCompareSamePlanIsEqual(t *testing.T) {
	p := plan(7, "custom-silver", 1500)
	if got := Compare(p, p, models.BillingPeriodMonthly); got != Equal {
		t.Fatalf("Compare(p, p) = %v, want Equal", got)
	}
}

func TestComparePriceFallbackForCustomSlugs(t *testing.T) {
	silver := plan(1, "custom-silver", 1500)
	gold := plan(2, "custom-gold", 4500)

	if got := Compare(silver, gold, models.BillingPeriodMonthly); got != Upgrade {
		t.Fatalf("cheaper -> pricier custom plan = %v, want Upgrade", got)
	}
	if got := Compare(gold, silver, models.BillingPeriodMonthly); got != Downgrade {
		t.Fatalf("pricier -> cheaper custom plan = %v, want Downgrade", got)
	}
}

func TestCompareFreeHeuristicWithoutPrices(t *testing.T) {
	free := plan(1, models.PlanSlugFree, 0)
	custom := plan(2, "unpriced-custom", -1)

	if got := Compare(free, custom, models.BillingPeriodMonthly); got != Upgrade {
		t.Fatalf("free -> unpriced non-free = %v, want Upgrade", got)
	}
	if got := Compare(custom, free, models.BillingPeriodMonthly); got != Downgrade {
		t.Fatalf("unpriced non-free -> free = %v, want Downgrade", got)
	}
}

func TestCompareNonComparablePairsAreNotActionable(t *testing.T) {
	a := plan(1, "custom-alpha", -1)
	b := plan(2, "custom-beta", -1)

	if got := Compare(a, b, models.BillingPeriodMonthly); got != Equal {
		t.Fatalf("two unpriced custom plans = %v, want Equal", got)
	}
	if Actionable(a, b, models.BillingPeriodMonthly) {
		t.Fatal("non-comparable pair must not be actionable")
	}
}

func TestCompareUsesRequestedPeriod(t *testing.T) {
	a := &models.Plan{ID: 1, Slug: "custom-a", Pricings: []models.PlanPricing{
		{BillingPeriod: models.BillingPeriodYearly, PriceCents: 10000, Currency: "EUR"},
	}}
	b := &models.Plan{ID: 2, Slug: "custom-b", Pricings: []models.PlanPricing{
		{BillingPeriod: models.BillingPeriodYearly, PriceCents: 30000, Currency: "EUR"},
	}}

	if got := Compare(a, b, models.BillingPeriodYearly); got != Upgrade {
		t.Fatalf("yearly comparison = %v, want Upgrade", got)
	}
	// Neither has a monthly price and neither is free: non-actionable.
	if got := Compare(a, b, models.BillingPeriodMonthly); got != Equal {
		t.Fatalf("monthly comparison without monthly prices = %v, want Equal", got)
	}
}
