package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderType distinguishes staff-processed orders from self-service ones.
type OrderType string

const (
	OrderDropOff     OrderType = "drop_off_pickup"
	OrderSelfService OrderType = "self_service"
)

// Valid reports whether t is a known order type.
func (t OrderType) Valid() bool {
	return t == OrderDropOff || t == OrderSelfService
}

// OrderStatus is a step of the order pipeline.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderInProgress OrderStatus = "in_progress"
	OrderReady      OrderStatus = "ready"
	OrderDelivered  OrderStatus = "delivered"
)

// OrderStatuses is the status cycle in advance order.
var OrderStatuses = []OrderStatus{OrderPending, OrderInProgress, OrderReady, OrderDelivered}

// Next returns the status that follows s. The cycle wraps after delivered;
// an unknown status advances to the first one.
func (s OrderStatus) Next() OrderStatus {
	for i, st := range OrderStatuses {
		if st == s {
			return OrderStatuses[(i+1)%len(OrderStatuses)]
		}
	}
	return OrderStatuses[0]
}

// InitialStatus is the status a new order of type t starts in.
func (t OrderType) InitialStatus() OrderStatus {
	if t == OrderSelfService {
		return OrderDelivered
	}
	return OrderPending
}

// Order is a priced set of line items for one client.
type Order struct {
	ID        int64           `gorm:"primaryKey" json:"id"`
	TenantID  string          `gorm:"index;size:64;not null" json:"tenant_id"`
	ClientID  int64           `gorm:"index;not null" json:"client_id"`
	OrderType OrderType       `gorm:"size:24;not null" json:"order_type"`
	Items     []OrderLineItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Status    OrderStatus     `gorm:"size:16;not null;index" json:"status"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"-"`
}

// OrderLineItem bills a service. MachineID is set when the item occupies a machine.
type OrderLineItem struct {
	ID        int64           `gorm:"primaryKey" json:"-"`
	OrderID   int64           `gorm:"index;not null" json:"-"`
	Position  int             `gorm:"not null" json:"-"`
	ServiceID int64           `gorm:"not null" json:"service_id"`
	Quantity  decimal.Decimal `gorm:"type:decimal(10,3);not null" json:"quantity"`
	MachineID *int64          `json:"machine_id,omitempty"`
}

// MachineIDs returns the machines occupied by the order's items.
func (o *Order) MachineIDs() []int64 {
	var ids []int64
	for _, it := range o.Items {
		if it.MachineID != nil {
			ids = append(ids, *it.MachineID)
		}
	}
	return ids
}
