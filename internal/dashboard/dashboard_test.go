package dashboard

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laundry-admin-backend/internal/model"
)

func order(clientID int64, status model.OrderStatus, total string) model.Order {
	return model.Order{ClientID: clientID, Status: status, Total: decimal.RequireFromString(total)}
}

func TestBuild(t *testing.T) {
	orders := []model.Order{
		order(1, model.OrderDelivered, "7.50"),
		order(1, model.OrderDelivered, "4.50"),
		order(2, model.OrderInProgress, "10.00"),
		order(2, model.OrderPending, "3.00"),
		order(9, model.OrderPending, "1.00"),
	}
	machines := []model.Machine{
		{ID: 1, Status: model.MachineAvailable, IsActive: true},
		{ID: 2, Status: model.MachineAvailable, IsActive: false},
		{ID: 3, Status: model.MachineInUse, Timer: 10, IsActive: true},
		{ID: 4, Status: model.MachineAvailable, IsActive: true},
	}
	clients := []model.Client{{ID: 1, Name: "Ana"}, {ID: 2, Name: "Carlos"}}

	stats := Build(orders, machines, clients)

	assert.True(t, stats.TotalRevenue.Equal(decimal.RequireFromString("12.00")))
	assert.Equal(t, 1, stats.ActiveOrders)
	assert.Equal(t, 2, stats.PendingOrders)
	assert.Equal(t, 2, stats.AvailableMachines)
	assert.Equal(t, []StatusCount{
		{Status: model.OrderPending, Count: 2},
		{Status: model.OrderInProgress, Count: 1},
		{Status: model.OrderDelivered, Count: 2},
	}, stats.OrdersByStatus)
	assert.Equal(t, []ClientCount{
		{ClientName: "Ana", Count: 2},
		{ClientName: "Carlos", Count: 2},
		{ClientName: UnknownClient, Count: 1},
	}, stats.OrdersByClient)
}

func TestBuild_Empty(t *testing.T) {
	stats := Build(nil, nil, nil)
	assert.True(t, stats.TotalRevenue.IsZero())
	assert.NotNil(t, stats.OrdersByStatus)
	assert.NotNil(t, stats.OrdersByClient)
}

func TestBuild_TopTenClients(t *testing.T) {
	var clients []model.Client
	var orders []model.Order
	for i := int64(1); i <= 12; i++ {
		clients = append(clients, model.Client{ID: i, Name: fmt.Sprintf("Client %02d", i)})
		for n := int64(0); n < i; n++ {
			orders = append(orders, order(i, model.OrderPending, "1"))
		}
	}

	stats := Build(orders, nil, clients)
	require.Len(t, stats.OrdersByClient, 10)
	assert.Equal(t, "Client 12", stats.OrdersByClient[0].ClientName)
	assert.Equal(t, 12, stats.OrdersByClient[0].Count)
	assert.Equal(t, "Client 03", stats.OrdersByClient[9].ClientName)
}
