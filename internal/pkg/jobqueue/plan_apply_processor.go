package jobqueue

import (
	"errors"
	"fmt"
)

// processPlanApplyJob retries the plan-apply step of a verified payment
// order. The handler distinguishes permanent conflicts from transient
// storage trouble: conflicts surface as permanent failures straight away,
// transients go back through the retry cycle.
func (q *Queue) processPlanApplyJob(job *Job) error {
	if q.planApplyHandler == nil {
		return errors.New("no plan apply handler registered")
	}

	payload, err := PlanApplyJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid plan apply payload: %w", err)
	}
	if payload.OrderID == 0 {
		return errors.New("plan apply payload is missing order_id")
	}

	return q.planApplyHandler(payload.OrderID)
}

// EnqueuePlanApply schedules an apply-retry for a verified order.
func (q *Queue) EnqueuePlanApply(orderID uint) error {
	payload := PlanApplyJobPayload{OrderID: orderID}
	_, err := q.EnqueueJob(JobTypePlanApply, payload.ToMap())
	return err
}
