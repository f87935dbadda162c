package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laundry-admin-backend/internal/model"
)

// fakeStore keeps machines in a map keyed by id.
type fakeStore struct {
	mu       sync.Mutex
	machines map[int64]model.Machine
	saves    int
}

func newFakeStore(machines ...model.Machine) *fakeStore {
	s := &fakeStore{machines: make(map[int64]model.Machine)}
	for _, m := range machines {
		s.machines[m.ID] = m
	}
	return s
}

func (s *fakeStore) GetMachine(_ context.Context, tenantID string, id int64) (*model.Machine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.machines[id]
	if !ok || m.TenantID != tenantID {
		return nil, model.ErrNotFound
	}
	return &m, nil
}

func (s *fakeStore) SaveMachineState(_ context.Context, tenantID string, m *model.Machine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.machines[m.ID]; !ok || cur.TenantID != tenantID {
		return model.ErrNotFound
	}
	s.machines[m.ID] = *m
	s.saves++
	return nil
}

func (s *fakeStore) ListRunningMachines(_ context.Context) ([]model.Machine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Machine
	for _, m := range s.machines {
		if m.Status == model.MachineInUse {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeStore) get(id int64) model.Machine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machines[id]
}

func (s *fakeStore) delete(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.machines, id)
}

type recordingNotifier struct {
	mu       sync.Mutex
	finished []model.Machine
}

func (n *recordingNotifier) CycleFinished(_ context.Context, m model.Machine) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.finished = append(n.finished, m)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.finished)
}

// newManualManager builds a manager whose countdown goroutines never receive
// ticks; tests drive ticks through advance.
func newManualManager(store MachineStore, notifier Notifier) *Manager {
	m := NewManager(store, notifier, Options{})
	m.newTicker = func(time.Duration) (<-chan time.Time, func()) {
		return nil, func() {}
	}
	return m
}

func (m *Manager) generation(id int64) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cd, ok := m.countdowns[id]; ok {
		return cd.gen
	}
	return 0
}

const tenant = "company_a"

func washer(id int64) model.Machine {
	return model.Machine{ID: id, TenantID: tenant, Name: "Washer", Type: model.MachineWasher, Status: model.MachineAvailable, IsActive: true}
}

func TestManager_CycleRunsToCompletion(t *testing.T) {
	store := newFakeStore(washer(1))
	notifier := &recordingNotifier{}
	mgr := newManualManager(store, notifier)
	defer mgr.Shutdown()

	m, err := mgr.StartCycle(context.Background(), tenant, 1)
	require.NoError(t, err)
	assert.Equal(t, model.MachineInUse, m.Status)
	assert.Equal(t, 1800, m.Timer)
	require.True(t, mgr.Armed(1))

	gen := mgr.generation(1)
	for i := 0; i < 1799; i++ {
		require.True(t, mgr.advance(tenant, 1, gen))
	}
	assert.Equal(t, 1, store.get(1).Timer)
	assert.Equal(t, 0, notifier.count())

	assert.False(t, mgr.advance(tenant, 1, gen))
	final := store.get(1)
	assert.Equal(t, model.MachineAvailable, final.Status)
	assert.Equal(t, 0, final.Timer)
	assert.Equal(t, 1, notifier.count())
	assert.False(t, mgr.Armed(1))

	// Late ticks from the finished countdown are ignored.
	assert.False(t, mgr.advance(tenant, 1, gen))
	assert.Equal(t, 1, notifier.count())
}

func TestManager_StopCancelsCountdown(t *testing.T) {
	store := newFakeStore(washer(1))
	notifier := &recordingNotifier{}
	mgr := newManualManager(store, notifier)
	defer mgr.Shutdown()

	_, err := mgr.StartCycle(context.Background(), tenant, 1)
	require.NoError(t, err)
	gen := mgr.generation(1)
	require.True(t, mgr.advance(tenant, 1, gen))

	m, err := mgr.StopCycle(context.Background(), tenant, 1)
	require.NoError(t, err)
	assert.Equal(t, model.MachineAvailable, m.Status)
	assert.False(t, mgr.Armed(1))

	saves := store.saves
	assert.False(t, mgr.advance(tenant, 1, gen))
	assert.Equal(t, saves, store.saves, "no decrement after stop")
	assert.Equal(t, 0, notifier.count())
}

func TestManager_RestartReplacesCountdown(t *testing.T) {
	store := newFakeStore(washer(1))
	mgr := newManualManager(store, nil)
	defer mgr.Shutdown()

	_, err := mgr.StartCycle(context.Background(), tenant, 1)
	require.NoError(t, err)
	first := mgr.generation(1)

	_, err = mgr.StopCycle(context.Background(), tenant, 1)
	require.NoError(t, err)
	_, err = mgr.StartCycle(context.Background(), tenant, 1)
	require.NoError(t, err)
	second := mgr.generation(1)
	require.NotEqual(t, first, second)

	assert.False(t, mgr.advance(tenant, 1, first), "stale countdown must not tick")
	assert.True(t, mgr.advance(tenant, 1, second))
	assert.Equal(t, 1799, store.get(1).Timer)
}

func TestManager_Occupy(t *testing.T) {
	store := newFakeStore(washer(1), washer(2))
	mgr := newManualManager(store, nil)
	defer mgr.Shutdown()

	err := mgr.Occupy(tenant, func(cycleSeconds int) ([]int64, error) {
		assert.Equal(t, DefaultCycleSeconds, cycleSeconds)
		for _, id := range []int64{1, 2} {
			m := store.get(id)
			m.Status = model.MachineInUse
			m.Timer = cycleSeconds
			require.NoError(t, store.SaveMachineState(context.Background(), tenant, &m))
		}
		return []int64{1, 2}, nil
	})
	require.NoError(t, err)
	assert.True(t, mgr.Armed(1))
	assert.True(t, mgr.Armed(2))

	err = mgr.Occupy(tenant, func(int) ([]int64, error) { return nil, model.ErrIntegrity })
	assert.ErrorIs(t, err, model.ErrIntegrity)
}

func TestManager_HoldAndDeactivateCancelCountdown(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(washer(1), washer(2), washer(3))
	notifier := &recordingNotifier{}
	mgr := newManualManager(store, notifier)
	defer mgr.Shutdown()

	for _, id := range []int64{1, 2, 3} {
		_, err := mgr.StartCycle(ctx, tenant, id)
		require.NoError(t, err)
	}

	m, err := mgr.SetMaintenance(ctx, tenant, 1)
	require.NoError(t, err)
	assert.Equal(t, model.MachineMaintenance, m.Status)
	assert.Equal(t, 0, m.Timer)

	m, err = mgr.ReportBroken(ctx, tenant, 2)
	require.NoError(t, err)
	assert.Equal(t, model.MachineBroken, m.Status)

	m, err = mgr.SetActive(ctx, tenant, 3, false)
	require.NoError(t, err)
	assert.False(t, m.IsActive)
	assert.Equal(t, model.MachineAvailable, m.Status)
	assert.Equal(t, 0, m.Timer)

	for _, id := range []int64{1, 2, 3} {
		assert.False(t, mgr.Armed(id))
	}

	m, err = mgr.SetActive(ctx, tenant, 3, true)
	require.NoError(t, err)
	assert.True(t, m.IsActive)
	assert.Equal(t, model.MachineAvailable, m.Status)
	assert.False(t, mgr.Armed(3), "reactivation does not start a cycle")

	m, err = mgr.Resolve(ctx, tenant, 1)
	require.NoError(t, err)
	assert.Equal(t, model.MachineAvailable, m.Status)
	assert.Equal(t, 0, notifier.count())
}

func TestManager_RejectsInvalidTransitions(t *testing.T) {
	ctx := context.Background()
	inactive := washer(2)
	inactive.IsActive = false
	store := newFakeStore(washer(1), inactive)
	mgr := newManualManager(store, nil)
	defer mgr.Shutdown()

	_, err := mgr.StopCycle(ctx, tenant, 1)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	_, err = mgr.StartCycle(ctx, tenant, 2)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
	assert.False(t, mgr.Armed(2))

	_, err = mgr.StartCycle(ctx, "company_b", 1)
	assert.ErrorIs(t, err, model.ErrNotFound, "other tenants cannot touch the machine")
}

func TestManager_DeletedMachineStopsCountdown(t *testing.T) {
	store := newFakeStore(washer(1))
	mgr := newManualManager(store, nil)
	defer mgr.Shutdown()

	_, err := mgr.StartCycle(context.Background(), tenant, 1)
	require.NoError(t, err)
	gen := mgr.generation(1)

	store.delete(1)
	assert.False(t, mgr.advance(tenant, 1, gen))
	assert.False(t, mgr.Armed(1))
}

func TestManager_Restore(t *testing.T) {
	running := washer(1)
	running.Status = model.MachineInUse
	running.Timer = 800

	broken := washer(2)
	broken.Status = model.MachineInUse
	broken.Timer = 0

	store := newFakeStore(running, broken, washer(3))
	mgr := newManualManager(store, nil)
	defer mgr.Shutdown()

	armed, err := mgr.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, armed)
	assert.True(t, mgr.Armed(1))
	assert.False(t, mgr.Armed(2))
	assert.Equal(t, model.MachineAvailable, store.get(2).Status)

	armed, err = mgr.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, armed, "already armed machines are left alone")
}

func TestManager_RealTicker(t *testing.T) {
	store := newFakeStore(washer(1))
	notifier := &recordingNotifier{}
	mgr := NewManager(store, notifier, Options{CycleSeconds: 3, TickInterval: 5 * time.Millisecond})
	defer mgr.Shutdown()

	_, err := mgr.StartCycle(context.Background(), tenant, 1)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return notifier.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, model.MachineAvailable, store.get(1).Status)
	assert.Equal(t, 0, store.get(1).Timer)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, notifier.count(), "finished fires exactly once")
}
