package orders

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"laundry-admin-backend/internal/events"
	"laundry-admin-backend/internal/model"
	"laundry-admin-backend/internal/pricing"
	"laundry-admin-backend/internal/store"
)

// Occupier puts machines in use and arms their countdowns.
type Occupier interface {
	Occupy(tenantID string, create func(cycleSeconds int) ([]int64, error)) error
}

// Request is the payload of an order create or quote.
type Request struct {
	ClientID   int64               `json:"client_id"`
	NewClient  *model.Client       `json:"new_client,omitempty"`
	OrderType  model.OrderType     `json:"order_type"`
	Services   []pricing.Selection `json:"services"`
	MachineIDs []int64             `json:"machine_ids"`
}

// UpdateRequest changes the client and the plain service items of an order.
type UpdateRequest struct {
	ClientID int64               `json:"client_id"`
	Services []pricing.Selection `json:"services"`
}

// Summary is an order as listed in the console.
type Summary struct {
	model.Order
	ClientName  string `json:"client_name"`
	Description string `json:"description"`
}

// Service runs the order workflow for one tenant at a time.
type Service struct {
	store     store.Store
	machines  Occupier
	publisher events.Publisher
}

// NewService wires the workflow. A nil publisher drops events.
func NewService(s store.Store, machines Occupier, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{store: s, machines: machines, publisher: publisher}
}

// List returns the tenant's orders, newest first, with the client name and
// a readable summary of the items.
func (s *Service) List(ctx context.Context, tenantID string) ([]Summary, error) {
	orders, err := s.store.ListOrders(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	cat, machines, err := s.catalog(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	clients, err := s.store.ListClients(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	names := make(map[int64]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.Name
	}

	out := make([]Summary, 0, len(orders))
	for _, o := range orders {
		name, ok := names[o.ClientID]
		if !ok {
			name = "Unknown client"
		}
		out = append(out, Summary{
			Order:       o,
			ClientName:  name,
			Description: pricing.Describe(cat, machines, o.Items),
		})
	}
	return out, nil
}

// Quote prices a request without saving anything.
func (s *Service) Quote(ctx context.Context, tenantID string, req Request) (pricing.Quote, error) {
	cat, machines, err := s.catalog(ctx, tenantID)
	if err != nil {
		return pricing.Quote{}, err
	}
	return pricing.Price(cat, machines, req.OrderType, req.Services, req.MachineIDs)
}

// Create validates and prices the request, then stores the order together
// with the inline client, if one is given, and starts the machines it occupies.
func (s *Service) Create(ctx context.Context, tenantID string, req Request) (*model.Order, error) {
	if tenantID == "" {
		return nil, model.ErrNoTenant
	}

	if req.NewClient != nil {
		if err := req.NewClient.Validate(); err != nil {
			return nil, err
		}
	} else if _, err := s.store.GetClient(ctx, tenantID, req.ClientID); err != nil {
		return nil, clientErr(req.ClientID, err)
	}

	quote, err := s.Quote(ctx, tenantID, req)
	if err != nil {
		return nil, err
	}

	var newClient *model.Client
	if req.NewClient != nil {
		c := *req.NewClient
		newClient = &c
	}

	order := &model.Order{
		ClientID:  req.ClientID,
		OrderType: req.OrderType,
		Items:     quote.Items,
		Status:    req.OrderType.InitialStatus(),
		Total:     quote.Total,
	}
	err = s.machines.Occupy(tenantID, func(cycleSeconds int) ([]int64, error) {
		if err := s.store.CreateOrder(ctx, tenantID, order, newClient, cycleSeconds); err != nil {
			return nil, err
		}
		return order.MachineIDs(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	log.Printf("Order %d created for tenant %s (%s, total %s)", order.ID, tenantID, order.OrderType, order.Total.StringFixed(2))

	s.publish(ctx, events.New(events.OrderCreated, tenantID, order))
	return order, nil
}

// Update replaces the client and the plain service items. Machine items,
// status and type are kept; the total is recomputed at current prices.
func (s *Service) Update(ctx context.Context, tenantID string, id int64, req UpdateRequest) (*model.Order, error) {
	if tenantID == "" {
		return nil, model.ErrNoTenant
	}
	order, err := s.store.GetOrder(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetClient(ctx, tenantID, req.ClientID); err != nil {
		return nil, clientErr(req.ClientID, err)
	}
	cat, _, err := s.catalog(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	serviceItems, err := pricing.ServiceItems(cat, req.Services)
	if err != nil {
		return nil, err
	}
	var items []model.OrderLineItem
	for _, it := range order.Items {
		if it.MachineID != nil {
			items = append(items, it)
		}
	}
	items = append(items, serviceItems...)
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: an order needs at least one line item", model.ErrValidation)
	}
	for i := range items {
		items[i].Position = i
	}

	order.ClientID = req.ClientID
	order.Items = items
	order.Total = pricing.Total(cat, items)
	if err := s.store.UpdateOrder(ctx, tenantID, order); err != nil {
		return nil, fmt.Errorf("failed to update order %d: %w", id, err)
	}
	return order, nil
}

// Delete removes an order. Machines it occupied keep running.
func (s *Service) Delete(ctx context.Context, tenantID string, id int64) error {
	return s.store.DeleteOrder(ctx, tenantID, id)
}

// Advance moves the order to the next status of the cycle.
func (s *Service) Advance(ctx context.Context, tenantID string, id int64) (*model.Order, error) {
	if tenantID == "" {
		return nil, model.ErrNoTenant
	}
	order, err := s.store.GetOrder(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	from := order.Status
	order.Status = from.Next()
	if err := s.store.UpdateOrder(ctx, tenantID, order); err != nil {
		return nil, fmt.Errorf("failed to advance order %d: %w", id, err)
	}

	s.publish(ctx, events.New(events.OrderStatusChanged, tenantID, map[string]any{
		"order_id": order.ID,
		"from":     from,
		"to":       order.Status,
	}))
	return order, nil
}

func (s *Service) catalog(ctx context.Context, tenantID string) (*pricing.Catalog, []model.Machine, error) {
	services, err := s.store.ListServices(ctx, tenantID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list services: %w", err)
	}
	machines, err := s.store.ListMachines(ctx, tenantID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list machines: %w", err)
	}
	return pricing.NewCatalog(services), machines, nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		log.Printf("Failed to publish %s event: %v", e.Type, err)
	}
}

func clientErr(id int64, err error) error {
	if errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("%w: client %d does not exist", model.ErrIntegrity, id)
	}
	return err
}
