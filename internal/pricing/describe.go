package pricing

import (
	"fmt"
	"strings"

	"laundry-admin-backend/internal/model"
)

// Describe renders line items as a short human readable summary,
// e.g. "Wash & Dry (5kg), Ironing (3 items)".
func Describe(cat *Catalog, machines []model.Machine, items []model.OrderLineItem) string {
	names := make(map[int64]string, len(machines))
	for _, m := range machines {
		names[m.ID] = m.Name
	}

	parts := make([]string, 0, len(items))
	for _, it := range items {
		svc, ok := cat.Service(it.ServiceID)
		if !ok {
			parts = append(parts, "Unknown service")
			continue
		}

		if it.MachineID != nil {
			if name, ok := names[*it.MachineID]; ok {
				parts = append(parts, fmt.Sprintf("%s (%s)", svc.Name, name))
			} else {
				parts = append(parts, svc.Name)
			}
			continue
		}

		qty := it.Quantity.String()
		switch svc.PricingMethod {
		case model.PricingPerWeight:
			parts = append(parts, fmt.Sprintf("%s (%skg)", svc.Name, qty))
		case model.PricingPerItem:
			unit := "items"
			if it.Quantity.Equal(one) {
				unit = "item"
			}
			parts = append(parts, fmt.Sprintf("%s (%s %s)", svc.Name, qty, unit))
		case model.PricingFixed:
			if it.Quantity.GreaterThan(one) {
				parts = append(parts, fmt.Sprintf("%s (x%s)", svc.Name, qty))
			} else {
				parts = append(parts, svc.Name)
			}
		default:
			parts = append(parts, svc.Name)
		}
	}
	return strings.Join(parts, ", ")
}
