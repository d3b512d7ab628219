package tier

import (
	"github.com/MarcelWeber/TeamPilot/app/models"
)

// Comparison is the resolved relation of a candidate plan to the current one.
type Comparison int

const (
	Equal Comparison = iota
	Upgrade
	Downgrade
)

func (c Comparison) String() string {
	switch c {
	case Upgrade:
		return "upgrade"
	case Downgrade:
		return "downgrade"
	default:
		return "equal"
	}
}

// Invert mirrors a comparison as if the arguments had been swapped.
func (c Comparison) Invert() Comparison {
	switch c {
	case Upgrade:
		return Downgrade
	case Downgrade:
		return Upgrade
	default:
		return Equal
	}
}

// canonicalRank returns the fixed tier rank of a well-known slug. The bool
// is false for custom slugs, which only compare via price.
func canonicalRank(slug string) (int, bool) {
	switch slug {
	case models.PlanSlugFree:
		return 0, true
	case models.PlanSlugStarter:
		return 1, true
	case models.PlanSlugProfessional:
		return 2, true
	case models.PlanSlugBusiness:
		return 3, true
	case models.PlanSlugEnterprise:
		return 4, true
	default:
		return 0, false
	}
}

// Compare ranks candidate against current for the given billing period.
//
// Resolution order: plan identity, canonical slug ranks, period price,
// free-plan heuristic. Pairs none of these resolve (two unrelated custom
// plans, say) come back Equal: non-actionable, no self-service switch. The
// result is symmetric — swapping the arguments inverts it.
func Compare(current, candidate *models.Plan, period string) Comparison {
	if current.ID == candidate.ID {
		return Equal
	}

	curRank, curKnown := canonicalRank(current.Slug)
	candRank, candKnown := canonicalRank(candidate.Slug)
	if curKnown && candKnown {
		return fromOrdering(candRank, curRank)
	}

	curPricing := current.PricingFor(period)
	candPricing := candidate.PricingFor(period)
	if curPricing != nil && candPricing != nil {
		return fromOrdering(candPricing.PriceCents, curPricing.PriceCents)
	}

	// No comparable price on at least one side: moving off the free plan is
	// always an upgrade, moving onto it always a downgrade.
	if current.IsFree() && !candidate.IsFree() {
		return Upgrade
	}
	if !current.IsFree() && candidate.IsFree() {
		return Downgrade
	}

	return Equal
}

// Actionable reports whether a pair resolved to a self-serviceable switch.
// Equal covers both identical plans and non-comparable pairs; neither may
// be offered as upgrade or downgrade.
func Actionable(current, candidate *models.Plan, period string) bool {
	return Compare(current, candidate, period) != Equal
}

func fromOrdering[T int | int64](candidate, current T) Comparison {
	switch {
	case candidate > current:
		return Upgrade
	case candidate < current:
		return Downgrade
	default:
		return Equal
	}
}
