package upgrade

import (
	"fmt"

	"github.com/MarcelWeber/TeamPilot/app/models"
)

// ContactTicket is the pre-filled manual-contact artifact for a downgrade
// request. It is handed back to the caller for presentation; mailing it to
// the support channel is best-effort and never blocks the response.
type ContactTicket struct {
	To              string `json:"to"`
	Subject         string `json:"subject"`
	Body            string `json:"body"`
	OrganizationID  uint   `json:"organization_id"`
	CurrentPlanID   uint   `json:"current_plan_id"`
	RequestedPlanID uint   `json:"requested_plan_id"`
}

// BuildContactTicket pre-fills the support ticket for a plan downgrade.
func BuildContactTicket(org *models.Organization, current, requested *models.Plan, supportAddress string) *ContactTicket {
	subject := fmt.Sprintf("Plan downgrade request: %s (%s -> %s)", org.Name, current.Slug, requested.Slug)
	body := fmt.Sprintf(
		"Organization %q (%s) requests a downgrade.\n\n"+
			"Current plan:   %s (%s)\n"+
			"Requested plan: %s (%s)\n"+
			"Current usage:  %d users, %d apps\n\n"+
			"Please review resource usage against the requested plan's limits before applying.",
		org.Name, org.UUID,
		current.Name, current.Slug,
		requested.Name, requested.Slug,
		org.UserCount, org.AppCount,
	)

	return &ContactTicket{
		To:              supportAddress,
		Subject:         subject,
		Body:            body,
		OrganizationID:  org.ID,
		CurrentPlanID:   current.ID,
		RequestedPlanID: requested.ID,
	}
}
