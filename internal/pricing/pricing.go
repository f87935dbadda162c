package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"laundry-admin-backend/internal/model"
)

var one = decimal.NewFromInt(1)

// Selection is a requested quantity of a non-machine service.
type Selection struct {
	ServiceID int64           `json:"service_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// Quote is the result of pricing a set of selections.
type Quote struct {
	Items []model.OrderLineItem `json:"items"`
	Total decimal.Decimal       `json:"total"`
}

// Catalog is a tenant's service list indexed for pricing.
type Catalog struct {
	services []model.Service
	byID     map[int64]model.Service
}

// NewCatalog indexes services. The slice order is kept for machine-type lookups.
func NewCatalog(services []model.Service) *Catalog {
	byID := make(map[int64]model.Service, len(services))
	for _, s := range services {
		byID[s.ID] = s
	}
	return &Catalog{services: services, byID: byID}
}

// Service looks up a service by id.
func (c *Catalog) Service(id int64) (model.Service, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// ForMachineType returns the first service linked to machine type t.
func (c *Catalog) ForMachineType(t model.MachineType) (model.Service, bool) {
	for _, s := range c.services {
		if s.LinkedMachineType != nil && *s.LinkedMachineType == t {
			return s, true
		}
	}
	return model.Service{}, false
}

// Build turns selections into ordered line items. Machine items come first,
// one per distinct machine with quantity 1, followed by the service
// selections in request order. A machine whose type has no linked service is
// left out of the order.
func Build(cat *Catalog, machines []model.Machine, orderType model.OrderType, selections []Selection, machineIDs []int64) ([]model.OrderLineItem, error) {
	if !orderType.Valid() {
		return nil, fmt.Errorf("%w: unknown order type %q", model.ErrValidation, orderType)
	}
	if orderType == model.OrderDropOff && len(machineIDs) > 0 {
		return nil, fmt.Errorf("%w: drop-off orders cannot occupy machines", model.ErrIntegrity)
	}

	byID := make(map[int64]model.Machine, len(machines))
	for _, m := range machines {
		byID[m.ID] = m
	}

	var items []model.OrderLineItem
	seen := make(map[int64]bool, len(machineIDs))
	for _, id := range machineIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		m, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: machine %d does not exist", model.ErrIntegrity, id)
		}
		if !m.Selectable() {
			return nil, fmt.Errorf("%w: machine %q is not available", model.ErrIntegrity, m.Name)
		}
		svc, ok := cat.ForMachineType(m.Type)
		if !ok {
			continue
		}
		machineID := m.ID
		items = append(items, model.OrderLineItem{
			ServiceID: svc.ID,
			Quantity:  one,
			MachineID: &machineID,
		})
	}

	serviceItems, err := ServiceItems(cat, selections)
	if err != nil {
		return nil, err
	}
	items = append(items, serviceItems...)

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: an order needs at least one line item", model.ErrValidation)
	}
	for i := range items {
		items[i].Position = i
	}
	return items, nil
}

// ServiceItems validates plain service selections and merges repeated ids.
// Positions are left for the caller to assign.
func ServiceItems(cat *Catalog, selections []Selection) ([]model.OrderLineItem, error) {
	var items []model.OrderLineItem
	index := make(map[int64]int, len(selections))
	for _, sel := range selections {
		if sel.Quantity.IsNegative() {
			return nil, fmt.Errorf("%w: quantity for service %d is negative", model.ErrValidation, sel.ServiceID)
		}
		if sel.Quantity.IsZero() {
			continue
		}
		svc, ok := cat.Service(sel.ServiceID)
		if !ok {
			return nil, fmt.Errorf("%w: service %d does not exist", model.ErrIntegrity, sel.ServiceID)
		}
		if svc.IsMachineCycle() {
			return nil, fmt.Errorf("%w: service %q must be ordered with a %s", model.ErrIntegrity, svc.Name, *svc.LinkedMachineType)
		}
		if i, ok := index[svc.ID]; ok {
			items[i].Quantity = items[i].Quantity.Add(sel.Quantity)
			continue
		}
		index[svc.ID] = len(items)
		items = append(items, model.OrderLineItem{ServiceID: svc.ID, Quantity: sel.Quantity})
	}
	return items, nil
}

// Total sums price × quantity using the catalog's current prices. Items whose
// service is no longer in the catalog contribute nothing.
func Total(cat *Catalog, items []model.OrderLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if svc, ok := cat.Service(it.ServiceID); ok {
			total = total.Add(svc.Price.Mul(it.Quantity))
		}
	}
	return total
}

// Price builds the line items and their total in one step.
func Price(cat *Catalog, machines []model.Machine, orderType model.OrderType, selections []Selection, machineIDs []int64) (Quote, error) {
	items, err := Build(cat, machines, orderType, selections, machineIDs)
	if err != nil {
		return Quote{}, err
	}
	return Quote{Items: items, Total: Total(cat, items)}, nil
}
