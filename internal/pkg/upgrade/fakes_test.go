package upgrade

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MarcelWeber/TeamPilot/app/models"
	"github.com/MarcelWeber/TeamPilot/app/repository"
	"github.com/MarcelWeber/TeamPilot/internal/pkg/gateway"
	"gorm.io/gorm"
)

// In-memory fakes for the repository interfaces, the gateway client and the
// checkout lock. They keep the orchestrator tests free of MySQL and Redis.

type fakePlanRepo struct {
	mu    sync.Mutex
	plans map[uint]*models.Plan
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: make(map[uint]*models.Plan)}
}

func (r *fakePlanRepo) Create(plan *models.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if plan.ID == 0 {
		plan.ID = uint(len(r.plans) + 1)
	}
	cp := *plan
	r.plans[plan.ID] = &cp
	return nil
}

func (r *fakePlanRepo) GetByID(id uint) (*models.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePlanRepo) GetBySlug(slug string) (*models.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.plans {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePlanRepo) GetDefault() (*models.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.plans {
		if p.IsDefault {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePlanRepo) List(activeOnly bool) ([]models.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Plan
	for _, p := range r.plans {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakePlanRepo) Update(plan *models.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *plan
	r.plans[plan.ID] = &cp
	return nil
}

func (r *fakePlanRepo) Deactivate(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.plans[id]; ok {
		p.IsActive = false
	}
	return nil
}

func (r *fakePlanRepo) UpsertPricing(pricing *models.PlanPricing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[pricing.PlanID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range p.Pricings {
		if p.Pricings[i].BillingPeriod == pricing.BillingPeriod {
			p.Pricings[i] = *pricing
			return nil
		}
	}
	p.Pricings = append(p.Pricings, *pricing)
	return nil
}

func (r *fakePlanRepo) DeletePricing(planID uint, period string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[planID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	kept := p.Pricings[:0]
	for _, pr := range p.Pricings {
		if pr.BillingPeriod != period {
			kept = append(kept, pr)
		}
	}
	p.Pricings = kept
	return nil
}

type fakeOrgRepo struct {
	mu    sync.Mutex
	orgs  map[uint]*models.Organization
	plans *fakePlanRepo

	// planWrites counts successful plan reassignments.
	planWrites int
	// failNextUpdate simulates one transient storage error.
	failNextUpdate bool
}

func newFakeOrgRepo(plans *fakePlanRepo) *fakeOrgRepo {
	return &fakeOrgRepo{orgs: make(map[uint]*models.Organization), plans: plans}
}

func (r *fakeOrgRepo) Create(org *models.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if org.ID == 0 {
		org.ID = uint(len(r.orgs) + 1)
	}
	cp := *org
	r.orgs[org.ID] = &cp
	return nil
}

func (r *fakeOrgRepo) GetByID(id uint) (*models.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orgs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrgRepo) GetByUUID(uuid string) (*models.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orgs {
		if o.UUID == uuid {
			cp := *o
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeOrgRepo) GetByAPIKeyHash(hash string) (*models.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orgs {
		if o.APIKeyHash == hash {
			cp := *o
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeOrgRepo) GetWithPlan(id uint) (*models.Organization, error) {
	org, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	plan, err := r.plans.GetByID(org.PlanID)
	if err != nil {
		return nil, err
	}
	org.Plan = plan
	return org, nil
}

func (r *fakeOrgRepo) Update(org *models.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *org
	r.orgs[org.ID] = &cp
	return nil
}

func (r *fakeOrgRepo) UpdatePlanIfCurrent(orgID, newPlanID, expectedPlanID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNextUpdate {
		r.failNextUpdate = false
		return false, errors.New("simulated storage error")
	}
	o, ok := r.orgs[orgID]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if o.PlanID != expectedPlanID {
		return false, nil
	}
	o.PlanID = newPlanID
	r.planWrites++
	return true, nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uint]*models.PaymentOrder
	nextID uint

	// afterGetByGatewayOrderID fires once after the next lookup, with the
	// repository unlocked. Tests use it to interleave a competing write
	// between an order read and the status update that follows it.
	afterGetByGatewayOrderID func()
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uint]*models.PaymentOrder)}
}

func (r *fakeOrderRepo) Create(order *models.PaymentOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	order.ID = r.nextID
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) GetByID(id uint) (*models.PaymentOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) GetByGatewayOrderID(gatewayOrderID string) (*models.PaymentOrder, error) {
	r.mu.Lock()
	var found *models.PaymentOrder
	for _, o := range r.orders {
		if o.GatewayOrderID == gatewayOrderID {
			cp := *o
			found = &cp
			break
		}
	}
	hook := r.afterGetByGatewayOrderID
	r.afterGetByGatewayOrderID = nil
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
	if found == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return found, nil
}

func (r *fakeOrderRepo) Update(order *models.PaymentOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) UpdateStatusIf(orderID uint, fromStatus, toStatus string, updates map[string]interface{}) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if o.Status != fromStatus {
		return false, nil
	}
	o.Status = toStatus
	for k, v := range updates {
		switch k {
		case "gateway_order_id":
			o.GatewayOrderID = v.(string)
		case "payment_id":
			o.PaymentID = v.(string)
		case "failure_reason":
			o.FailureReason = v.(string)
		}
	}
	return true, nil
}

func (r *fakeOrderRepo) ListOpenOlderThan(minutes int) ([]models.PaymentOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-time.Duration(minutes) * time.Minute)
	var out []models.PaymentOrder
	for _, o := range r.orders {
		switch o.Status {
		case models.OrderStatusCreated, models.OrderStatusCheckoutOpen, models.OrderStatusVerified:
			if o.CreatedAt.Before(cutoff) {
				out = append(out, *o)
			}
		}
	}
	return out, nil
}

// age backdates an order so it shows up in ListOpenOlderThan
func (r *fakeOrderRepo) age(orderID uint, minutes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[orderID]; ok {
		o.CreatedAt = time.Now().Add(-time.Duration(minutes) * time.Minute)
	}
}

func (r *fakeOrderRepo) HasOpenOrderForOrganization(orgID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.OrganizationID == orgID &&
			(o.Status == models.OrderStatusCreated || o.Status == models.OrderStatusCheckoutOpen) {
			return true, nil
		}
	}
	return false, nil
}

type fakeChangeRequestRepo struct {
	mu       sync.Mutex
	requests []models.PlanChangeRequest
}

func (r *fakeChangeRequestRepo) Create(req *models.PlanChangeRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req.ID = uint(len(r.requests) + 1)
	r.requests = append(r.requests, *req)
	return nil
}

func (r *fakeChangeRequestRepo) GetByID(id uint) (*models.PlanChangeRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.requests {
		if r.requests[i].ID == id {
			cp := r.requests[i]
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeChangeRequestRepo) ListOpen(offset, limit int) ([]models.PlanChangeRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.PlanChangeRequest(nil), r.requests...), nil
}

func (r *fakeChangeRequestRepo) Close(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.requests {
		if r.requests[i].ID == id {
			r.requests[i].Status = models.ChangeRequestStatusClosed
		}
	}
	return nil
}

type fakeGateway struct {
	mu         sync.Mutex
	orderCalls int
	failNext   bool
	lastInput  gateway.CreateOrderInput
}

func (g *fakeGateway) CreateOrder(ctx context.Context, in gateway.CreateOrderInput) (*gateway.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failNext {
		g.failNext = false
		return nil, errors.New("simulated gateway outage")
	}
	g.orderCalls++
	g.lastInput = in
	return &gateway.Order{
		ID:          fmt.Sprintf("order_fake_%d", g.orderCalls),
		AmountCents: in.AmountCents,
		Currency:    in.Currency,
	}, nil
}

func (g *fakeGateway) KeyID() string { return "key_test" }

type fakeLocker struct {
	mu    sync.Mutex
	locks map[uint]bool
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{locks: make(map[uint]bool)}
}

func (l *fakeLocker) Acquire(orgID uint) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locks[orgID] {
		return false, nil
	}
	l.locks[orgID] = true
	return true, nil
}

func (l *fakeLocker) Release(orgID uint) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, orgID)
	return nil
}

func (l *fakeLocker) held(orgID uint) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.locks[orgID]
}

// newTestFixture assembles an orchestrator over the fakes with a small
// catalog: free (default), professional ($29 monthly), starter, and an
// unpriced enterprise plan.
func newTestFixture() (*Orchestrator, *fakePlanRepo, *fakeOrgRepo, *fakeOrderRepo, *fakeChangeRequestRepo, *fakeGateway, *fakeLocker) {
	plans := newFakePlanRepo()
	orgs := newFakeOrgRepo(plans)
	orders := newFakeOrderRepo()
	requests := &fakeChangeRequestRepo{}
	gw := &fakeGateway{}
	locks := newFakeLocker()

	free := &models.Plan{ID: 1, Slug: models.PlanSlugFree, Name: "Free", IsDefault: true, IsActive: true}
	starter := &models.Plan{ID: 2, Slug: models.PlanSlugStarter, Name: "Starter", IsActive: true, Pricings: []models.PlanPricing{
		{ID: 21, PlanID: 2, BillingPeriod: models.BillingPeriodMonthly, PriceCents: 900, Currency: "EUR"},
	}}
	pro := &models.Plan{ID: 3, Slug: models.PlanSlugProfessional, Name: "Professional", IsActive: true, Pricings: []models.PlanPricing{
		{ID: 31, PlanID: 3, BillingPeriod: models.BillingPeriodMonthly, PriceCents: 2900, Currency: "EUR"},
		{ID: 32, PlanID: 3, BillingPeriod: models.BillingPeriodYearly, PriceCents: 29000, Currency: "EUR"},
	}}
	enterprise := &models.Plan{ID: 4, Slug: models.PlanSlugEnterprise, Name: "Enterprise", IsActive: true}
	for _, p := range []*models.Plan{free, starter, pro, enterprise} {
		_ = plans.Create(p)
	}

	_ = orgs.Create(&models.Organization{ID: 1, UUID: "org-uuid-1", Name: "Acme", PlanID: 1, UserCount: 3, AppCount: 1})

	repos := &repository.Repositories{
		Plan:              plans,
		Organization:      orgs,
		PaymentOrder:      orders,
		PlanChangeRequest: requests,
	}
	orch := NewOrchestrator(repos, gw, locks, "test-secret", "support@teampilot.test")
	orch.SetMailer(func(to, subject, body string) error { return nil })
	return orch, plans, orgs, orders, requests, gw, locks
}
