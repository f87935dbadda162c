package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"laundry-admin-backend/internal/model"
)

// memoryStore keeps every tenant's data in process memory. Collection reads
// resolve after a fixed delay to behave like a remote backend.
type memoryStore struct {
	mu    sync.Mutex
	delay time.Duration

	companies     []model.Company
	clients       []model.Client
	services      []model.Service
	machines      []model.Machine
	orders        []model.Order
	subscriptions map[string]memorySubscription

	nextClient, nextService, nextMachine, nextOrder int64
}

type memorySubscription struct {
	sub      model.PushSubscription
	machines []int64
}

// NewMemoryStore returns a Store seeded with the given dataset.
func NewMemoryStore(seed Demo, delay time.Duration) Store {
	s := &memoryStore{
		delay:         delay,
		companies:     seed.Companies,
		clients:       seed.Clients,
		services:      seed.Services,
		machines:      seed.Machines,
		orders:        seed.Orders,
		subscriptions: make(map[string]memorySubscription),
	}
	for _, c := range s.clients {
		s.nextClient = max(s.nextClient, c.ID)
	}
	for _, sv := range s.services {
		s.nextService = max(s.nextService, sv.ID)
	}
	for _, m := range s.machines {
		s.nextMachine = max(s.nextMachine, m.ID)
	}
	for i := range s.orders {
		s.nextOrder = max(s.nextOrder, s.orders[i].ID)
		if s.orders[i].CreatedAt.IsZero() {
			s.orders[i].CreatedAt = time.Now()
		}
	}
	return s
}

// wait blocks for the configured delay or until ctx is done.
func (s *memoryStore) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func copyOrder(o model.Order) model.Order {
	o.Items = append([]model.OrderLineItem(nil), o.Items...)
	return o
}

// --- Companies ---

func (s *memoryStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Company{}, s.companies...), nil
}

func (s *memoryStore) GetCompany(_ context.Context, id string) (*model.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.companies {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s *memoryStore) UpdateCompany(_ context.Context, id, name, icon string) (*model.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.companies {
		if s.companies[i].ID == id {
			s.companies[i].Name = name
			s.companies[i].Icon = icon
			c := s.companies[i]
			return &c, nil
		}
	}
	return nil, model.ErrNotFound
}

// --- Clients ---

func (s *memoryStore) ListClients(ctx context.Context, tenantID string) ([]model.Client, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Client{}
	for _, c := range s.clients {
		if tenantID != "" && c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memoryStore) GetClient(_ context.Context, tenantID string, id int64) (*model.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients {
		if tenantID != "" && c.TenantID == tenantID && c.ID == id {
			return &c, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s *memoryStore) CreateClient(_ context.Context, tenantID string, c *model.Client) error {
	if tenantID == "" {
		return model.ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextClient++
	c.ID = s.nextClient
	c.TenantID = tenantID
	s.clients = append(s.clients, *c)
	return nil
}

func (s *memoryStore) UpdateClient(_ context.Context, tenantID string, c *model.Client) error {
	if tenantID == "" {
		return model.ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.clients {
		if s.clients[i].TenantID == tenantID && s.clients[i].ID == c.ID {
			c.TenantID = tenantID
			s.clients[i] = *c
			return nil
		}
	}
	return model.ErrNotFound
}

func (s *memoryStore) DeleteClient(_ context.Context, tenantID string, id int64) error {
	if tenantID == "" {
		return model.ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.clients {
		if s.clients[i].TenantID == tenantID && s.clients[i].ID == id {
			s.clients = append(s.clients[:i], s.clients[i+1:]...)
			return nil
		}
	}
	return model.ErrNotFound
}

// --- Services ---

func (s *memoryStore) ListServices(ctx context.Context, tenantID string) ([]model.Service, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Service{}
	for _, sv := range s.services {
		if tenantID != "" && sv.TenantID == tenantID {
			out = append(out, sv)
		}
	}
	return out, nil
}

func (s *memoryStore) CreateService(_ context.Context, tenantID string, sv *model.Service) error {
	if tenantID == "" {
		return model.ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextService++
	sv.ID = s.nextService
	sv.TenantID = tenantID
	s.services = append(s.services, *sv)
	return nil
}

func (s *memoryStore) UpdateService(_ context.Context, tenantID string, sv *model.Service) error {
	if tenantID == "" {
		return model.ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.services {
		if s.services[i].TenantID == tenantID && s.services[i].ID == sv.ID {
			sv.TenantID = tenantID
			s.services[i] = *sv
			return nil
		}
	}
	return model.ErrNotFound
}

func (s *memoryStore) DeleteService(_ context.Context, tenantID string, id int64) error {
	if tenantID == "" {
		return model.ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.services {
		if s.services[i].TenantID == tenantID && s.services[i].ID == id {
			s.services = append(s.services[:i], s.services[i+1:]...)
			return nil
		}
	}
	return model.ErrNotFound
}

// --- Machines ---

func (s *memoryStore) ListMachines(ctx context.Context, tenantID string) ([]model.Machine, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Machine{}
	for _, m := range s.machines {
		if tenantID != "" && m.TenantID == tenantID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memoryStore) GetMachine(_ context.Context, tenantID string, id int64) (*model.Machine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.machineIndex(tenantID, id); i >= 0 {
		m := s.machines[i]
		return &m, nil
	}
	return nil, model.ErrNotFound
}

func (s *memoryStore) machineIndex(tenantID string, id int64) int {
	for i := range s.machines {
		if tenantID != "" && s.machines[i].TenantID == tenantID && s.machines[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *memoryStore) CreateMachine(_ context.Context, tenantID string, m *model.Machine) error {
	if tenantID == "" {
		return model.ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextMachine++
	m.ID = s.nextMachine
	m.TenantID = tenantID
	m.Status = model.MachineAvailable
	m.Timer = 0
	m.IsActive = true
	s.machines = append(s.machines, *m)
	return nil
}

func (s *memoryStore) UpdateMachine(_ context.Context, tenantID string, m *model.Machine) error {
	if tenantID == "" {
		return model.ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.machineIndex(tenantID, m.ID)
	if i < 0 {
		return model.ErrNotFound
	}
	s.machines[i].Name = m.Name
	s.machines[i].Type = m.Type
	return nil
}

func (s *memoryStore) SaveMachineState(_ context.Context, tenantID string, m *model.Machine) error {
	if tenantID == "" {
		return model.ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.machineIndex(tenantID, m.ID)
	if i < 0 {
		return model.ErrNotFound
	}
	s.machines[i].Status = m.Status
	s.machines[i].Timer = m.Timer
	s.machines[i].IsActive = m.IsActive
	return nil
}

func (s *memoryStore) DeleteMachine(_ context.Context, tenantID string, id int64) error {
	if tenantID == "" {
		return model.ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.machineIndex(tenantID, id)
	if i < 0 {
		return model.ErrNotFound
	}
	s.machines = append(s.machines[:i], s.machines[i+1:]...)
	for ep, ms := range s.subscriptions {
		ms.machines = removeID(ms.machines, id)
		s.subscriptions[ep] = ms
	}
	return nil
}

func (s *memoryStore) ListRunningMachines(_ context.Context) ([]model.Machine, error) {
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

// --- Orders ---

func (s *memoryStore) ListOrders(ctx context.Context, tenantID string) ([]model.Order, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Order{}
	for _, o := range s.orders {
		if tenantID != "" && o.TenantID == tenantID {
			out = append(out, copyOrder(o))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *memoryStore) GetOrder(_ context.Context, tenantID string, id int64) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.orderIndex(tenantID, id); i >= 0 {
		o := copyOrder(s.orders[i])
		return &o, nil
	}
	return nil, model.ErrNotFound
}

func (s *memoryStore) orderIndex(tenantID string, id int64) int {
	for i := range s.orders {
		if tenantID != "" && s.orders[i].TenantID == tenantID && s.orders[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *memoryStore) CreateOrder(_ context.Context, tenantID string, o *model.Order, newClient *model.Client, cycleSeconds int) error {
	if tenantID == "" {
		return model.ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check every machine first so a rejected order leaves nothing behind.
	ids := o.MachineIDs()
	idx := make([]int, len(ids))
	for n, id := range ids {
		i := s.machineIndex(tenantID, id)
		if i < 0 || !s.machines[i].Selectable() {
			return fmt.Errorf("%w: machine %d is not available", model.ErrIntegrity, id)
		}
		idx[n] = i
	}
	for _, i := range idx {
		s.machines[i].Status = model.MachineInUse
		s.machines[i].Timer = cycleSeconds
	}
	if newClient != nil {
		s.nextClient++
		newClient.ID = s.nextClient
		newClient.TenantID = tenantID
		s.clients = append(s.clients, *newClient)
		o.ClientID = newClient.ID
	}

	s.nextOrder++
	o.ID = s.nextOrder
	o.TenantID = tenantID
	o.CreatedAt = time.Now()
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}
	s.orders = append(s.orders, copyOrder(*o))
	return nil
}

func (s *memoryStore) UpdateOrder(_ context.Context, tenantID string, o *model.Order) error {
	if tenantID == "" {
		return model.ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.orderIndex(tenantID, o.ID)
	if i < 0 {
		return model.ErrNotFound
	}
	stored := &s.orders[i]
	stored.ClientID = o.ClientID
	stored.Status = o.Status
	stored.Total = o.Total
	stored.Items = append([]model.OrderLineItem(nil), o.Items...)
	for n := range stored.Items {
		stored.Items[n].OrderID = o.ID
	}
	*o = copyOrder(*stored)
	return nil
}

func (s *memoryStore) DeleteOrder(_ context.Context, tenantID string, id int64) error {
	if tenantID == "" {
		return model.ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.orderIndex(tenantID, id)
	if i < 0 {
		return model.ErrNotFound
	}
	s.orders = append(s.orders[:i], s.orders[i+1:]...)
	return nil
}

// --- Push subscriptions ---

func (s *memoryStore) PutSubscription(_ context.Context, tenantID string, sub *model.PushSubscription, machineIDs []int64) error {
	if tenantID == "" {
		return model.ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.subscriptions[sub.Endpoint]; ok && existing.sub.TenantID != tenantID {
		return fmt.Errorf("%w: endpoint is registered to another tenant", model.ErrIntegrity)
	}
	sub.TenantID = tenantID
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	var owned []int64
	for _, id := range machineIDs {
		if s.machineIndex(tenantID, id) >= 0 {
			owned = append(owned, id)
		}
	}
	stored := *sub
	stored.Machines = nil
	s.subscriptions[sub.Endpoint] = memorySubscription{sub: stored, machines: owned}
	return nil
}

func (s *memoryStore) GetSubscribedMachines(_ context.Context, tenantID, endpoint string) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms, ok := s.subscriptions[endpoint]
	if !ok || tenantID == "" || ms.sub.TenantID != tenantID {
		return nil, model.ErrNotFound
	}
	return append([]int64{}, ms.machines...), nil
}

func (s *memoryStore) DeleteSubscription(_ context.Context, tenantID, endpoint string) error {
	if tenantID == "" {
		return model.ErrNoTenant
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ms, ok := s.subscriptions[endpoint]; ok && ms.sub.TenantID == tenantID {
		delete(s.subscriptions, endpoint)
	}
	return nil
}

func (s *memoryStore) ListSubscriptionsForMachine(_ context.Context, tenantID string, machineID int64) ([]model.PushSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.PushSubscription
	for _, ms := range s.subscriptions {
		if tenantID == "" || ms.sub.TenantID != tenantID {
			continue
		}
		for _, id := range ms.machines {
			if id == machineID {
				out = append(out, ms.sub)
				break
			}
		}
	}
	return out, nil
}

func removeID(ids []int64, id int64) []int64 {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
