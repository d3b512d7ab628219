package upgrade

import (
	"fmt"

	"github.com/MarcelWeber/TeamPilot/app/repository"
)

// Applier is the sole writer of the organization-plan assignment. Every
// write goes through the compare-and-set in the repository so two verified
// attempts can never both land.
type Applier struct {
	orgs repository.OrganizationRepository
}

// NewApplier creates a plan applier from an injected organization repository.
func NewApplier(orgs repository.OrganizationRepository) *Applier {
	return &Applier{orgs: orgs}
}

// Apply reassigns the organization to targetPlanID, but only while it still
// holds expectedPlanID. A lost race returns ErrApplyConflict; any other
// error is transient storage trouble and safe to retry.
func (a *Applier) Apply(orgID, targetPlanID, expectedPlanID uint) error {
	ok, err := a.orgs.UpdatePlanIfCurrent(orgID, targetPlanID, expectedPlanID)
	if err != nil {
		return fmt.Errorf("plan assignment write failed: %w", err)
	}
	if !ok {
		// The guarded update touched zero rows. If the org already holds
		// the target plan this attempt raced a duplicate of itself and the
		// outcome stands; anything else is a genuine conflict.
		org, getErr := a.orgs.GetByID(orgID)
		if getErr == nil && org.PlanID == targetPlanID {
			return nil
		}
		return ErrApplyConflict
	}
	return nil
}
