package store

import (
	"github.com/shopspring/decimal"

	"laundry-admin-backend/internal/model"
)

// Demo is the sample dataset served by the memory store and optionally
// seeded into a fresh database.
type Demo struct {
	Companies []model.Company
	Clients   []model.Client
	Services  []model.Service
	Machines  []model.Machine
	Orders    []model.Order
}

// DemoData returns a fresh copy of the sample dataset for two tenants.
func DemoData() Demo {
	washer, dryer := model.MachineWasher, model.MachineDryer
	price := decimal.RequireFromString

	return Demo{
		Companies: []model.Company{
			{ID: "company_a", Name: "Spring Water Laundry", Icon: "fa-water", ThemeColor: "indigo"},
			{ID: "company_b", Name: "LavaXpress 24/7", Icon: "fa-bolt", ThemeColor: "orange"},
		},
		Clients: []model.Client{
			{ID: 1, TenantID: "company_a", Name: "Ana Garcia", Phone: "555-1234", Email: "ana@test.com", Address: "1st Street"},
			{ID: 2, TenantID: "company_a", Name: "Carlos Perez", Phone: "555-5678", Email: "carlos@test.com", Address: "2nd Street"},
			{ID: 3, TenantID: "company_b", Name: "Roberto Gomez", Phone: "555-9999", Email: "roberto@test.com", Address: "North Avenue"},
		},
		Services: []model.Service{
			{ID: 1, TenantID: "company_a", Icon: "fa-weight-hanging", Name: "Wash & Dry", Description: "Per kilo",
				Price: price("1.50"), PricingMethod: model.PricingPerWeight, Category: model.CategoryDropOff},
			{ID: 2, TenantID: "company_a", Icon: "fa-shirt", Name: "Ironing", Description: "Per garment",
				Price: price("2.50"), PricingMethod: model.PricingPerItem, Category: model.CategoryDropOff},
			{ID: 3, TenantID: "company_a", Icon: "fa-coins", Name: "Wash Cycle", Description: "Self-service",
				Price: price("4.50"), PricingMethod: model.PricingFixed, Category: model.CategorySelfService, LinkedMachineType: &washer},
			{ID: 4, TenantID: "company_a", Icon: "fa-coins", Name: "Dry Cycle", Description: "Self-service",
				Price: price("3.00"), PricingMethod: model.PricingFixed, Category: model.CategorySelfService, LinkedMachineType: &dryer},
			{ID: 5, TenantID: "company_b", Icon: "fa-jug-detergent", Name: "Premium Wash", Description: "Softener included",
				Price: price("2.00"), PricingMethod: model.PricingPerWeight, Category: model.CategoryDropOff},
			{ID: 6, TenantID: "company_b", Icon: "fa-coins", Name: "10kg Washer", Description: "Full cycle",
				Price: price("5.00"), PricingMethod: model.PricingFixed, Category: model.CategorySelfService, LinkedMachineType: &washer},
			{ID: 7, TenantID: "company_b", Icon: "fa-coins", Name: "Industrial Dryer", Description: "30 min cycle",
				Price: price("4.00"), PricingMethod: model.PricingFixed, Category: model.CategorySelfService, LinkedMachineType: &dryer},
		},
		Machines: []model.Machine{
			{ID: 1, TenantID: "company_a", Name: "Washer #1", Type: washer, Status: model.MachineAvailable, IsActive: true},
			{ID: 2, TenantID: "company_a", Name: "Washer #2", Type: washer, Status: model.MachineInUse, Timer: 800, IsActive: true},
			{ID: 3, TenantID: "company_a", Name: "Dryer #1", Type: dryer, Status: model.MachineAvailable, IsActive: true},
			{ID: 4, TenantID: "company_b", Name: "Wash-B01", Type: washer, Status: model.MachineAvailable, IsActive: true},
			{ID: 5, TenantID: "company_b", Name: "Dry-B01", Type: dryer, Status: model.MachineMaintenance, IsActive: true},
		},
		Orders: []model.Order{
			{ID: 101, TenantID: "company_a", ClientID: 1, OrderType: model.OrderDropOff, Status: model.OrderInProgress,
				Total: price("7.50"), Items: []model.OrderLineItem{{ServiceID: 1, Quantity: decimal.NewFromInt(5)}}},
			{ID: 201, TenantID: "company_b", ClientID: 3, OrderType: model.OrderDropOff, Status: model.OrderPending,
				Total: price("6.00"), Items: []model.OrderLineItem{{ServiceID: 5, Quantity: decimal.NewFromInt(3)}}},
		},
	}
}
