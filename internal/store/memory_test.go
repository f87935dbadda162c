package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laundry-admin-backend/internal/model"
)

func newDemoStore() Store {
	return NewMemoryStore(DemoData(), 0)
}

func TestMemoryStore_TenantScoping(t *testing.T) {
	s := newDemoStore()
	ctx := context.Background()

	clients, err := s.ListClients(ctx, "company_a")
	require.NoError(t, err)
	require.Len(t, clients, 2)
	for _, c := range clients {
		assert.Equal(t, "company_a", c.TenantID)
	}

	_, err = s.GetClient(ctx, "company_a", 3)
	assert.ErrorIs(t, err, model.ErrNotFound, "client of company_b must stay hidden")

	err = s.DeleteMachine(ctx, "company_b", 1)
	assert.ErrorIs(t, err, model.ErrNotFound)

	machines, err := s.ListMachines(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, machines)

	err = s.CreateService(ctx, "", &model.Service{Name: "x"})
	assert.ErrorIs(t, err, model.ErrNoTenant)
}

func TestMemoryStore_ListDelay(t *testing.T) {
	s := NewMemoryStore(DemoData(), 30*time.Millisecond)

	start := time.Now()
	_, err := s.ListOrders(context.Background(), "company_a")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.ListOrders(ctx, "company_a")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStore_CreateOrderOccupiesMachines(t *testing.T) {
	s := newDemoStore()
	ctx := context.Background()

	washer, dryer := int64(1), int64(3)
	order := &model.Order{
		ClientID:  1,
		OrderType: model.OrderSelfService,
		Status:    model.OrderDelivered,
		Total:     decimal.RequireFromString("7.50"),
		Items: []model.OrderLineItem{
			{ServiceID: 3, Quantity: decimal.NewFromInt(1), MachineID: &washer},
			{ServiceID: 4, Quantity: decimal.NewFromInt(1), MachineID: &dryer},
		},
	}
	require.NoError(t, s.CreateOrder(ctx, "company_a", order, nil, 1800))
	assert.Equal(t, int64(202), order.ID)

	for _, id := range []int64{washer, dryer} {
		m, err := s.GetMachine(ctx, "company_a", id)
		require.NoError(t, err)
		assert.Equal(t, model.MachineInUse, m.Status)
		assert.Equal(t, 1800, m.Timer)
	}

	orders, err := s.ListOrders(ctx, "company_a")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, order.ID, orders[0].ID, "newest order first")
}

func TestMemoryStore_CreateOrderRejectsBusyMachine(t *testing.T) {
	s := newDemoStore()
	ctx := context.Background()

	free, busy := int64(1), int64(2)
	order := &model.Order{
		ClientID:  1,
		OrderType: model.OrderSelfService,
		Items: []model.OrderLineItem{
			{ServiceID: 3, Quantity: decimal.NewFromInt(1), MachineID: &free},
			{ServiceID: 3, Quantity: decimal.NewFromInt(1), MachineID: &busy},
		},
	}
	newClient := &model.Client{Name: "Nadia Ruiz", Phone: "555-4321"}
	err := s.CreateOrder(ctx, "company_a", order, newClient, 1800)
	assert.ErrorIs(t, err, model.ErrIntegrity)

	clients, err := s.ListClients(ctx, "company_a")
	require.NoError(t, err)
	assert.Len(t, clients, 2, "the new client is only created with its order")

	m, err := s.GetMachine(ctx, "company_a", free)
	require.NoError(t, err)
	assert.Equal(t, model.MachineAvailable, m.Status, "a rejected order must not occupy anything")

	orders, _ := s.ListOrders(ctx, "company_a")
	assert.Len(t, orders, 1)
}

func TestMemoryStore_UpdateOrderReturnsStoredCopy(t *testing.T) {
	s := newDemoStore()
	ctx := context.Background()

	o, err := s.GetOrder(ctx, "company_a", 101)
	require.NoError(t, err)
	o.Items = append(o.Items, model.OrderLineItem{ServiceID: 2, Quantity: decimal.NewFromInt(2)})
	o.Total = decimal.RequireFromString("12.50")
	require.NoError(t, s.UpdateOrder(ctx, "company_a", o))

	// Mutating the caller's copy must not reach the store.
	o.Items[0].Quantity = decimal.NewFromInt(99)

	stored, err := s.GetOrder(ctx, "company_a", 101)
	require.NoError(t, err)
	require.Len(t, stored.Items, 2)
	assert.True(t, stored.Items[0].Quantity.Equal(decimal.NewFromInt(5)))
	assert.True(t, stored.Total.Equal(decimal.RequireFromString("12.50")))
	assert.Equal(t, model.OrderInProgress, stored.Status)
}

func TestMemoryStore_Subscriptions(t *testing.T) {
	s := newDemoStore()
	ctx := context.Background()

	sub := &model.PushSubscription{Endpoint: "https://push.example/1", P256DH: "key", Auth: "auth"}
	// Machine 4 belongs to company_b and is dropped.
	require.NoError(t, s.PutSubscription(ctx, "company_a", sub, []int64{1, 3, 4}))

	ids, err := s.GetSubscribedMachines(ctx, "company_a", sub.Endpoint)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids)

	_, err = s.GetSubscribedMachines(ctx, "company_b", sub.Endpoint)
	assert.ErrorIs(t, err, model.ErrNotFound)

	subs, err := s.ListSubscriptionsForMachine(ctx, "company_a", 3)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "key", subs[0].P256DH)

	require.NoError(t, s.DeleteMachine(ctx, "company_a", 3))
	subs, err = s.ListSubscriptionsForMachine(ctx, "company_a", 3)
	require.NoError(t, err)
	assert.Empty(t, subs)

	require.NoError(t, s.DeleteSubscription(ctx, "company_a", sub.Endpoint))
	_, err = s.GetSubscribedMachines(ctx, "company_a", sub.Endpoint)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestMemoryStore_SubscriptionKeepsItsTenant(t *testing.T) {
	s := newDemoStore()
	ctx := context.Background()

	sub := &model.PushSubscription{Endpoint: "https://push.example/2", P256DH: "key", Auth: "auth"}
	require.NoError(t, s.PutSubscription(ctx, "company_a", sub, []int64{1}))

	taken := &model.PushSubscription{Endpoint: sub.Endpoint, P256DH: "other", Auth: "other"}
	err := s.PutSubscription(ctx, "company_b", taken, []int64{4})
	assert.ErrorIs(t, err, model.ErrIntegrity)

	ids, err := s.GetSubscribedMachines(ctx, "company_a", sub.Endpoint)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)
	subs, err := s.ListSubscriptionsForMachine(ctx, "company_a", 1)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "key", subs[0].P256DH)

	refreshed := &model.PushSubscription{Endpoint: sub.Endpoint, P256DH: "new-key", Auth: "auth"}
	require.NoError(t, s.PutSubscription(ctx, "company_a", refreshed, []int64{1, 3}))
	ids, err = s.GetSubscribedMachines(ctx, "company_a", sub.Endpoint)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids)
}

func TestMemoryStore_ListRunningMachines(t *testing.T) {
	s := newDemoStore()
	running, err := s.ListRunningMachines(context.Background())
	require.NoError(t, err)
	require.Len(t, running, 1)
	assert.Equal(t, int64(2), running[0].ID)
	assert.Equal(t, 800, running[0].Timer)
}
