package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"laundry-admin-backend/internal/model"
)

// MachineStore is the persistence the manager needs.
type MachineStore interface {
	GetMachine(ctx context.Context, tenantID string, id int64) (*model.Machine, error)
	SaveMachineState(ctx context.Context, tenantID string, m *model.Machine) error
	ListRunningMachines(ctx context.Context) ([]model.Machine, error)
}

// Notifier is told when a cycle runs out on its own. Manual stops are not reported.
type Notifier interface {
	CycleFinished(ctx context.Context, m model.Machine)
}

// Options configures a Manager.
type Options struct {
	CycleSeconds int
	TickInterval time.Duration
}

type tickerFunc func(d time.Duration) (<-chan time.Time, func())

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

type countdown struct {
	tenantID string
	gen      uint64
	cancel   context.CancelFunc
}

// Manager owns machine state changes and the per-machine countdowns.
// All transitions are serialised by mu. Every countdown carries a
// generation number; ticks from a replaced or cancelled countdown are
// dropped, so a machine is never decremented twice per tick.
type Manager struct {
	store        MachineStore
	notifier     Notifier
	cycleSeconds int
	tickInterval time.Duration
	newTicker    tickerFunc

	base     context.Context
	shutdown context.CancelFunc

	mu         sync.Mutex
	gen        uint64
	countdowns map[int64]*countdown
}

// NewManager creates a Manager. notifier may be nil.
func NewManager(store MachineStore, notifier Notifier, opts Options) *Manager {
	if opts.CycleSeconds <= 0 {
		opts.CycleSeconds = DefaultCycleSeconds
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	base, cancel := context.WithCancel(context.Background())
	return &Manager{
		store:        store,
		notifier:     notifier,
		cycleSeconds: opts.CycleSeconds,
		tickInterval: opts.TickInterval,
		newTicker:    realTicker,
		base:         base,
		shutdown:     cancel,
		countdowns:   make(map[int64]*countdown),
	}
}

// StartCycle begins a cycle on an available machine.
func (m *Manager) StartCycle(ctx context.Context, tenantID string, id int64) (*model.Machine, error) {
	return m.apply(ctx, tenantID, id, true, func(mc model.Machine) (model.Machine, error) {
		return Start(mc, m.cycleSeconds)
	})
}

// StopCycle ends a running cycle without a finished notification.
func (m *Manager) StopCycle(ctx context.Context, tenantID string, id int64) (*model.Machine, error) {
	return m.apply(ctx, tenantID, id, false, Stop)
}

// SetMaintenance takes a machine out of service for maintenance.
func (m *Manager) SetMaintenance(ctx context.Context, tenantID string, id int64) (*model.Machine, error) {
	return m.apply(ctx, tenantID, id, false, func(mc model.Machine) (model.Machine, error) {
		return Hold(mc, model.MachineMaintenance)
	})
}

// ReportBroken marks a machine as broken.
func (m *Manager) ReportBroken(ctx context.Context, tenantID string, id int64) (*model.Machine, error) {
	return m.apply(ctx, tenantID, id, false, func(mc model.Machine) (model.Machine, error) {
		return Hold(mc, model.MachineBroken)
	})
}

// Resolve puts a machine under maintenance or broken back into service.
func (m *Manager) Resolve(ctx context.Context, tenantID string, id int64) (*model.Machine, error) {
	return m.apply(ctx, tenantID, id, false, Resolve)
}

// SetActive toggles the active flag of a machine.
func (m *Manager) SetActive(ctx context.Context, tenantID string, id int64, active bool) (*model.Machine, error) {
	return m.apply(ctx, tenantID, id, false, func(mc model.Machine) (model.Machine, error) {
		return SetActive(mc, active), nil
	})
}

func (m *Manager) apply(ctx context.Context, tenantID string, id int64, restart bool, transition func(model.Machine) (model.Machine, error)) (*model.Machine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, err := m.store.GetMachine(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	next, err := transition(*current)
	if err != nil {
		return nil, err
	}
	if err := m.store.SaveMachineState(ctx, tenantID, &next); err != nil {
		return nil, fmt.Errorf("failed to save machine %d: %w", id, err)
	}

	switch {
	case next.Status == model.MachineInUse && restart:
		m.arm(tenantID, id)
	case next.Status == model.MachineInUse:
		if _, ok := m.countdowns[id]; !ok {
			m.arm(tenantID, id)
		}
	default:
		m.disarm(id)
	}
	return &next, nil
}

// Occupy runs create, which must put machines in use in the store and
// return their ids, and arms their countdowns. Machine transitions are
// held off for the whole call.
func (m *Manager) Occupy(tenantID string, create func(cycleSeconds int) ([]int64, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids, err := create(m.cycleSeconds)
	if err != nil {
		return err
	}
	for _, id := range ids {
		m.arm(tenantID, id)
	}
	return nil
}

// Forget cancels the countdown of a machine that no longer exists.
func (m *Manager) Forget(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disarm(id)
}

// Armed reports whether a countdown is running for the machine.
func (m *Manager) Armed(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.countdowns[id]
	return ok
}

// Restore arms a countdown for every running machine that lacks one and
// repairs machines whose stored state breaks the timer invariant. It
// returns the number of countdowns armed.
func (m *Manager) Restore(ctx context.Context) (int, error) {
	machines, err := m.store.ListRunningMachines(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list running machines: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	armed := 0
	for _, mc := range machines {
		if _, ok := m.countdowns[mc.ID]; ok {
			continue
		}
		if !mc.IsActive || mc.Timer <= 0 {
			repaired := mc
			repaired.Status = model.MachineAvailable
			repaired.Timer = 0
			if err := m.store.SaveMachineState(ctx, mc.TenantID, &repaired); err != nil {
				log.Printf("Failed to repair machine %d: %v", mc.ID, err)
			}
			continue
		}
		m.arm(mc.TenantID, mc.ID)
		armed++
	}
	if armed > 0 {
		log.Printf("Restored %d machine countdowns", armed)
	}
	return armed, nil
}

// Shutdown cancels every countdown. The manager must not be used afterwards.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdown()
	for id := range m.countdowns {
		m.disarm(id)
	}
}

// arm replaces the machine's countdown. Callers hold mu.
func (m *Manager) arm(tenantID string, id int64) {
	if m.base.Err() != nil {
		return
	}
	m.disarm(id)

	m.gen++
	ctx, cancel := context.WithCancel(m.base)
	cd := &countdown{tenantID: tenantID, gen: m.gen, cancel: cancel}
	m.countdowns[id] = cd
	go m.run(ctx, tenantID, id, cd.gen)
}

// disarm cancels the machine's countdown if it has one. Callers hold mu.
func (m *Manager) disarm(id int64) {
	if cd, ok := m.countdowns[id]; ok {
		cd.cancel()
		delete(m.countdowns, id)
	}
}

func (m *Manager) run(ctx context.Context, tenantID string, id int64, gen uint64) {
	ticks, stop := m.newTicker(m.tickInterval)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			if !m.advance(tenantID, id, gen) {
				return
			}
		}
	}
}

// advance applies one tick. It returns false once the countdown is over.
func (m *Manager) advance(tenantID string, id int64, gen uint64) bool {
	ctx := m.base

	m.mu.Lock()
	cd, ok := m.countdowns[id]
	if !ok || cd.gen != gen {
		m.mu.Unlock()
		return false
	}

	current, err := m.store.GetMachine(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			m.disarm(id)
			m.mu.Unlock()
			return false
		}
		m.mu.Unlock()
		log.Printf("Countdown for machine %d skipped a tick: %v", id, err)
		return true
	}

	next, finished, err := Tick(*current)
	if err != nil {
		m.disarm(id)
		m.mu.Unlock()
		return false
	}
	if err := m.store.SaveMachineState(ctx, tenantID, &next); err != nil {
		m.mu.Unlock()
		log.Printf("Countdown for machine %d failed to save: %v", id, err)
		return true
	}
	if finished {
		m.disarm(id)
	}
	m.mu.Unlock()

	if finished {
		log.Printf("Machine %d finished its cycle", id)
		if m.notifier != nil {
			m.notifier.CycleFinished(ctx, next)
		}
	}
	return !finished
}
