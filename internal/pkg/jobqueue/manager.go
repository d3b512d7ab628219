package jobqueue

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/MarcelWeber/TeamPilot/internal/pkg/env"
)

// Manager manages the global job queue and background tasks
type Manager struct {
	queue        *Queue
	expiryTicker *time.Ticker
	stopCh       chan struct{}
	wg           sync.WaitGroup
	mu           sync.Mutex
	running      bool

	// expireOrders closes stale checkouts; wired to the upgrade
	// orchestrator at startup.
	expireOrders func(maxAgeMinutes int)
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		workerCount, err := strconv.Atoi(env.GetEnv("JOBQUEUE_WORKERS", "2"))
		if err != nil || workerCount <= 0 {
			workerCount = 2
		}

		globalManager = &Manager{
			queue:  NewQueue(workerCount),
			stopCh: make(chan struct{}),
		}
	})
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// SetPlanApplyHandler registers the apply-retry handler on the queue
func (m *Manager) SetPlanApplyHandler(h PlanApplyHandler) {
	m.queue.SetPlanApplyHandler(h)
}

// SetOrderExpirer registers the stale-checkout sweeper callback
func (m *Manager) SetOrderExpirer(fn func(maxAgeMinutes int)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expireOrders = fn
}

// EnqueuePlanApply schedules an apply-retry for a verified order
func (m *Manager) EnqueuePlanApply(orderID uint) error {
	return m.queue.EnqueuePlanApply(orderID)
}

// Start starts the job queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and background tasks")

	// Start the job queue
	m.queue.Start()

	// Start the stale-checkout sweeper
	expiryMinutes, err := strconv.Atoi(env.GetEnv("CHECKOUT_LOCK_TTL_MIN", "30"))
	if err != nil || expiryMinutes <= 0 {
		expiryMinutes = 30
	}
	m.expiryTicker = time.NewTicker(5 * time.Minute)
	m.wg.Add(1)
	go m.expiryWorker(expiryMinutes)
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping job queue and background tasks")
	close(m.stopCh)
	m.running = false
	if m.expiryTicker != nil {
		m.expiryTicker.Stop()
	}
	m.queue.Stop()
	m.wg.Wait()
}

// expiryWorker periodically expires checkouts that outlived the lock TTL
func (m *Manager) expiryWorker(maxAgeMinutes int) {
	defer m.wg.Done()
	log.Infof("[JobQueue Manager] Checkout expiry sweeper running (maxAge=%dm)", maxAgeMinutes)

	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Checkout expiry sweeper stopping")
			return
		case <-m.expiryTicker.C:
			m.mu.Lock()
			sweep := m.expireOrders
			m.mu.Unlock()
			if sweep != nil {
				sweep(maxAgeMinutes)
			}
		}
	}
}
