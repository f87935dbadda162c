// Package dashboard computes the summary figures shown on the console home page.
package dashboard

import (
	"sort"

	"github.com/shopspring/decimal"

	"laundry-admin-backend/internal/model"
)

const topClients = 10

// UnknownClient labels orders whose client no longer exists.
const UnknownClient = "Unknown client"

type StatusCount struct {
	Status model.OrderStatus `json:"status"`
	Count  int               `json:"count"`
}

type ClientCount struct {
	ClientName string `json:"client_name"`
	Count      int    `json:"count"`
}

// Stats is the dashboard of one tenant.
type Stats struct {
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	ActiveOrders      int             `json:"active_orders"`
	PendingOrders     int             `json:"pending_orders"`
	AvailableMachines int             `json:"available_machines"`
	OrdersByStatus    []StatusCount   `json:"orders_by_status"`
	OrdersByClient    []ClientCount   `json:"orders_by_client"`
}

// Build computes the stats. Revenue only counts delivered orders. Statuses
// with no orders are left out of OrdersByStatus; OrdersByClient keeps the
// ten busiest clients, ties in order of first appearance.
func Build(orders []model.Order, machines []model.Machine, clients []model.Client) Stats {
	stats := Stats{
		TotalRevenue:   decimal.Zero,
		OrdersByStatus: []StatusCount{},
		OrdersByClient: []ClientCount{},
	}

	byStatus := make(map[model.OrderStatus]int, len(model.OrderStatuses))
	for _, o := range orders {
		byStatus[o.Status]++
		switch o.Status {
		case model.OrderDelivered:
			stats.TotalRevenue = stats.TotalRevenue.Add(o.Total)
		case model.OrderInProgress:
			stats.ActiveOrders++
		case model.OrderPending:
			stats.PendingOrders++
		}
	}
	for _, st := range model.OrderStatuses {
		if n := byStatus[st]; n > 0 {
			stats.OrdersByStatus = append(stats.OrdersByStatus, StatusCount{Status: st, Count: n})
		}
	}

	for _, m := range machines {
		if m.Selectable() {
			stats.AvailableMachines++
		}
	}

	names := make(map[int64]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.Name
	}
	index := make(map[string]int)
	for _, o := range orders {
		name, ok := names[o.ClientID]
		if !ok {
			name = UnknownClient
		}
		i, seen := index[name]
		if !seen {
			i = len(stats.OrdersByClient)
			index[name] = i
			stats.OrdersByClient = append(stats.OrdersByClient, ClientCount{ClientName: name})
		}
		stats.OrdersByClient[i].Count++
	}
	sort.SliceStable(stats.OrdersByClient, func(i, j int) bool {
		return stats.OrdersByClient[i].Count > stats.OrdersByClient[j].Count
	})
	if len(stats.OrdersByClient) > topClients {
		stats.OrdersByClient = stats.OrdersByClient[:topClients]
	}
	return stats
}
