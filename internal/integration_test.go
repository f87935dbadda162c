package internal

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"laundry-admin-backend/internal/db"
	"laundry-admin-backend/internal/lifecycle"
	"laundry-admin-backend/internal/model"
	"laundry-admin-backend/internal/notification"
	"laundry-admin-backend/internal/orders"
	"laundry-admin-backend/internal/pricing"
	"laundry-admin-backend/internal/store"
)

const tenantA = "company_a"

func openTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	testDB, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err, "failed to connect to the in-memory database")
	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	// Countdown goroutines share the database; one connection avoids table locks.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(testDB))
	require.NoError(t, db.Seed(testDB, store.DemoData()))
	return testDB
}

type changes struct {
	mu      sync.Mutex
	tenants []string
}

func (c *changes) record(tenantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tenants = append(c.tenants, tenantID)
}

func (c *changes) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tenants)
}

// TestSelfServiceLifecycle runs a self-service order from creation until
// both of its machines finish their cycles.
func TestSelfServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	testDB := openTestDB(t, "self_service_lifecycle")
	appStore := store.NewGormStore(testDB)

	feed := notification.NewFeed(time.Minute)
	changed := &changes{}
	mgr := lifecycle.NewManager(appStore, &notification.Dispatcher{Feed: feed, Changed: changed.record},
		lifecycle.Options{CycleSeconds: 40, TickInterval: 10 * time.Millisecond})
	defer mgr.Shutdown()
	svc := orders.NewService(appStore, mgr, nil)

	var order *model.Order
	t.Run("order occupies the machines", func(t *testing.T) {
		var err error
		order, err = svc.Create(ctx, tenantA, orders.Request{
			ClientID:   1,
			OrderType:  model.OrderSelfService,
			MachineIDs: []int64{1, 3},
		})
		require.NoError(t, err)
		assert.NotZero(t, order.ID)
		assert.Equal(t, model.OrderDelivered, order.Status)
		assert.True(t, order.Total.Equal(decimal.RequireFromString("7.50")))

		stored, err := appStore.GetOrder(ctx, tenantA, order.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{1, 3}, stored.MachineIDs())
	})

	t.Run("a busy machine cannot be taken again", func(t *testing.T) {
		before, err := appStore.ListOrders(ctx, tenantA)
		require.NoError(t, err)

		_, err = svc.Create(ctx, tenantA, orders.Request{
			ClientID:   2,
			OrderType:  model.OrderSelfService,
			MachineIDs: []int64{1},
		})
		assert.ErrorIs(t, err, model.ErrIntegrity)

		after, err := appStore.ListOrders(ctx, tenantA)
		require.NoError(t, err)
		assert.Len(t, after, len(before), "rejected orders are not stored")
	})

	t.Run("cycles finish and notify", func(t *testing.T) {
		require.Eventually(t, func() bool { return len(feed.Recent(tenantA)) == 2 }, 3*time.Second, 10*time.Millisecond)

		for _, id := range []int64{1, 3} {
			m, err := appStore.GetMachine(ctx, tenantA, id)
			require.NoError(t, err)
			assert.Equal(t, model.MachineAvailable, m.Status)
			assert.Zero(t, m.Timer)
			assert.False(t, mgr.Armed(id))
		}
		assert.Equal(t, 2, changed.count())
		assert.Empty(t, feed.Recent("company_b"))
	})
}

func TestDropOffOrderFlow(t *testing.T) {
	ctx := context.Background()
	testDB := openTestDB(t, "drop_off_flow")
	appStore := store.NewGormStore(testDB)
	mgr := lifecycle.NewManager(appStore, nil, lifecycle.Options{TickInterval: time.Hour})
	defer mgr.Shutdown()
	svc := orders.NewService(appStore, mgr, nil)

	order, err := svc.Create(ctx, tenantA, orders.Request{
		NewClient: &model.Client{Name: "Lucia Torres", Phone: "555-0000"},
		OrderType: model.OrderDropOff,
		Services: []pricing.Selection{
			{ServiceID: 1, Quantity: decimal.RequireFromString("2.5")},
			{ServiceID: 2, Quantity: decimal.NewFromInt(3)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, order.Status)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("11.25")), "2.5kg x 1.50 + 3 x 2.50")

	client, err := appStore.GetClient(ctx, tenantA, order.ClientID)
	require.NoError(t, err)
	assert.Equal(t, "Lucia Torres", client.Name)

	for _, want := range []model.OrderStatus{model.OrderInProgress, model.OrderReady, model.OrderDelivered, model.OrderPending} {
		advanced, err := svc.Advance(ctx, tenantA, order.ID)
		require.NoError(t, err)
		assert.Equal(t, want, advanced.Status)
	}

	_, err = svc.Advance(ctx, "company_b", order.ID)
	assert.ErrorIs(t, err, model.ErrNotFound, "orders are invisible to other tenants")

	updated, err := svc.Update(ctx, tenantA, order.ID, orders.UpdateRequest{
		ClientID: 2,
		Services: []pricing.Selection{{ServiceID: 2, Quantity: decimal.NewFromInt(1)}},
	})
	require.NoError(t, err)
	assert.True(t, updated.Total.Equal(decimal.RequireFromString("2.50")))

	stored, err := appStore.GetOrder(ctx, tenantA, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.ClientID)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, int64(2), stored.Items[0].ServiceID)

	require.NoError(t, svc.Delete(ctx, tenantA, order.ID))
	_, err = appStore.GetOrder(ctx, tenantA, order.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

// TestRestoreAfterRestart arms the countdown of a machine that was left
// running by a previous process.
func TestRestoreAfterRestart(t *testing.T) {
	ctx := context.Background()
	testDB := openTestDB(t, "restore_after_restart")
	appStore := store.NewGormStore(testDB)

	feed := notification.NewFeed(time.Minute)
	mgr := lifecycle.NewManager(appStore, &notification.Dispatcher{Feed: feed},
		lifecycle.Options{TickInterval: 5 * time.Millisecond})
	defer mgr.Shutdown()

	// Washer #2 is seeded in use with 800 seconds left.
	require.NoError(t, testDB.Model(&model.Machine{}).Where("id = ?", 2).Update("timer", 3).Error)

	armed, err := mgr.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, armed)

	require.Eventually(t, func() bool { return len(feed.Recent(tenantA)) == 1 }, 2*time.Second, 5*time.Millisecond)
	m, err := appStore.GetMachine(ctx, tenantA, 2)
	require.NoError(t, err)
	assert.Equal(t, model.MachineAvailable, m.Status)
}

func TestSubscriptionsFollowMachines(t *testing.T) {
	ctx := context.Background()
	appStore := store.NewGormStore(openTestDB(t, "subscriptions_follow_machines"))

	sub := &model.PushSubscription{Endpoint: "https://push.example.com/abc", P256DH: "key", Auth: "auth"}
	require.NoError(t, appStore.PutSubscription(ctx, tenantA, sub, []int64{1, 3, 4}))

	ids, err := appStore.GetSubscribedMachines(ctx, tenantA, sub.Endpoint)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 3}, ids, "machine 4 belongs to company_b")

	require.NoError(t, appStore.DeleteSubscription(ctx, "company_b", sub.Endpoint))
	ids, err = appStore.GetSubscribedMachines(ctx, tenantA, sub.Endpoint)
	require.NoError(t, err)
	assert.Len(t, ids, 2, "another tenant cannot remove the subscription")

	require.NoError(t, appStore.DeleteMachine(ctx, tenantA, 3))
	ids, err = appStore.GetSubscribedMachines(ctx, tenantA, sub.Endpoint)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)

	subs, err := appStore.ListSubscriptionsForMachine(ctx, tenantA, 1)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, sub.Endpoint, subs[0].Endpoint)

	require.NoError(t, appStore.DeleteSubscription(ctx, tenantA, sub.Endpoint))
	_, err = appStore.GetSubscribedMachines(ctx, tenantA, sub.Endpoint)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSubscriptionEndpointKeepsItsTenant(t *testing.T) {
	ctx := context.Background()
	appStore := store.NewGormStore(openTestDB(t, "subscription_keeps_tenant"))

	sub := &model.PushSubscription{Endpoint: "https://push.example.com/owned", P256DH: "key", Auth: "auth"}
	require.NoError(t, appStore.PutSubscription(ctx, tenantA, sub, []int64{1}))

	taken := &model.PushSubscription{Endpoint: sub.Endpoint, P256DH: "other", Auth: "other"}
	err := appStore.PutSubscription(ctx, "company_b", taken, []int64{4})
	assert.ErrorIs(t, err, model.ErrIntegrity)

	ids, err := appStore.GetSubscribedMachines(ctx, tenantA, sub.Endpoint)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)
	_, err = appStore.GetSubscribedMachines(ctx, "company_b", sub.Endpoint)
	assert.ErrorIs(t, err, model.ErrNotFound)

	subs, err := appStore.ListSubscriptionsForMachine(ctx, tenantA, 1)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "key", subs[0].P256DH, "the keys are not overwritten")

	refreshed := &model.PushSubscription{Endpoint: sub.Endpoint, P256DH: "new-key", Auth: "auth"}
	require.NoError(t, appStore.PutSubscription(ctx, tenantA, refreshed, []int64{1, 3}))
	ids, err = appStore.GetSubscribedMachines(ctx, tenantA, sub.Endpoint)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 3}, ids)
}

// startsMachineOnRead starts a machine right after the order service has
// read the machine list, before the order is stored.
type startsMachineOnRead struct {
	store.Store
	once  sync.Once
	start func()
}

func (s *startsMachineOnRead) ListMachines(ctx context.Context, tenantID string) ([]model.Machine, error) {
	machines, err := s.Store.ListMachines(ctx, tenantID)
	s.once.Do(s.start)
	return machines, err
}

func TestRejectedOrderKeepsNoNewClient(t *testing.T) {
	ctx := context.Background()
	testDB := openTestDB(t, "rejected_order_new_client")
	appStore := store.NewGormStore(testDB)
	mgr := lifecycle.NewManager(appStore, nil, lifecycle.Options{TickInterval: time.Hour})
	defer mgr.Shutdown()

	racing := &startsMachineOnRead{Store: appStore, start: func() {
		_, err := mgr.StartCycle(ctx, tenantA, 1)
		require.NoError(t, err)
	}}
	svc := orders.NewService(racing, mgr, nil)

	_, err := svc.Create(ctx, tenantA, orders.Request{
		NewClient:  &model.Client{Name: "Sofia Vega", Phone: "555-2468"},
		OrderType:  model.OrderSelfService,
		MachineIDs: []int64{1},
	})
	assert.ErrorIs(t, err, model.ErrIntegrity)

	var clients, orderRows int64
	require.NoError(t, testDB.Model(&model.Client{}).Where("tenant_id = ?", tenantA).Count(&clients).Error)
	require.NoError(t, testDB.Model(&model.Order{}).Where("tenant_id = ?", tenantA).Count(&orderRows).Error)
	assert.Equal(t, int64(2), clients, "the client insert is rolled back with the order")
	assert.Equal(t, int64(1), orderRows)
}
