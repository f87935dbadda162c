package store

import (
	"context"

	"laundry-admin-backend/internal/model"
)

// Store defines the interface for all data operations. Every tenant-scoped
// method filters by tenantID; with an empty tenantID reads return nothing
// and writes fail with model.ErrNoTenant.
type Store interface {
	ListCompanies(ctx context.Context) ([]model.Company, error)
	GetCompany(ctx context.Context, id string) (*model.Company, error)
	UpdateCompany(ctx context.Context, id, name, icon string) (*model.Company, error)

	ListClients(ctx context.Context, tenantID string) ([]model.Client, error)
	GetClient(ctx context.Context, tenantID string, id int64) (*model.Client, error)
	CreateClient(ctx context.Context, tenantID string, c *model.Client) error
	UpdateClient(ctx context.Context, tenantID string, c *model.Client) error
	DeleteClient(ctx context.Context, tenantID string, id int64) error

	ListServices(ctx context.Context, tenantID string) ([]model.Service, error)
	CreateService(ctx context.Context, tenantID string, s *model.Service) error
	UpdateService(ctx context.Context, tenantID string, s *model.Service) error
	DeleteService(ctx context.Context, tenantID string, id int64) error

	ListMachines(ctx context.Context, tenantID string) ([]model.Machine, error)
	GetMachine(ctx context.Context, tenantID string, id int64) (*model.Machine, error)
	CreateMachine(ctx context.Context, tenantID string, m *model.Machine) error
	// UpdateMachine changes the name and type only.
	UpdateMachine(ctx context.Context, tenantID string, m *model.Machine) error
	// SaveMachineState writes status, timer and the active flag.
	SaveMachineState(ctx context.Context, tenantID string, m *model.Machine) error
	DeleteMachine(ctx context.Context, tenantID string, id int64) error
	// ListRunningMachines returns in-use machines of every tenant. It backs
	// countdown recovery and is never exposed through the API.
	ListRunningMachines(ctx context.Context) ([]model.Machine, error)

	ListOrders(ctx context.Context, tenantID string) ([]model.Order, error)
	GetOrder(ctx context.Context, tenantID string, id int64) (*model.Order, error)
	// CreateOrder persists the order and puts every machine referenced by its
	// items in use for cycleSeconds, as one unit of work. A non-nil newClient
	// is created in the same unit and becomes the order's client. It fails
	// with model.ErrIntegrity if one of the machines is no longer selectable,
	// and then nothing is written.
	CreateOrder(ctx context.Context, tenantID string, o *model.Order, newClient *model.Client, cycleSeconds int) error
	// UpdateOrder replaces client, items, status and total.
	UpdateOrder(ctx context.Context, tenantID string, o *model.Order) error
	DeleteOrder(ctx context.Context, tenantID string, id int64) error

	// PutSubscription creates or refreshes the subscription and replaces its
	// machines with those of machineIDs the tenant owns. An endpoint that is
	// registered to another tenant fails with model.ErrIntegrity.
	PutSubscription(ctx context.Context, tenantID string, sub *model.PushSubscription, machineIDs []int64) error
	GetSubscribedMachines(ctx context.Context, tenantID, endpoint string) ([]int64, error)
	DeleteSubscription(ctx context.Context, tenantID, endpoint string) error
	ListSubscriptionsForMachine(ctx context.Context, tenantID string, machineID int64) ([]model.PushSubscription, error)
}
