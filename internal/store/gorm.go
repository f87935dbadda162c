package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"laundry-admin-backend/internal/model"
)

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.ErrNotFound
	}
	return err
}

// scoped returns a session filtered to the tenant.
func (s *gormStore) scoped(ctx context.Context, tenantID string) *gorm.DB {
	return s.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
}

// --- Companies ---

func (s *gormStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	var companies []model.Company
	if err := s.db.WithContext(ctx).Order("id").Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

func (s *gormStore) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	var c model.Company
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *gormStore) UpdateCompany(ctx context.Context, id, name, icon string) (*model.Company, error) {
	res := s.db.WithContext(ctx).Model(&model.Company{}).Where("id = ?", id).
		Updates(map[string]any{"name": name, "icon": icon})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, model.ErrNotFound
	}
	return s.GetCompany(ctx, id)
}

// --- Clients ---

func (s *gormStore) ListClients(ctx context.Context, tenantID string) ([]model.Client, error) {
	clients := []model.Client{}
	if tenantID == "" {
		return clients, nil
	}
	if err := s.scoped(ctx, tenantID).Order("name").Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

func (s *gormStore) GetClient(ctx context.Context, tenantID string, id int64) (*model.Client, error) {
	if tenantID == "" {
		return nil, model.ErrNotFound
	}
	var c model.Client
	if err := s.scoped(ctx, tenantID).First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *gormStore) CreateClient(ctx context.Context, tenantID string, c *model.Client) error {
	if tenantID == "" {
		return model.ErrNoTenant
	}
	c.ID = 0
	c.TenantID = tenantID
	return s.db.WithContext(ctx).Create(c).Error
}

func (s *gormStore) UpdateClient(ctx context.Context, tenantID string, c *model.Client) error {
	if tenantID == "" {
		return model.ErrNoTenant
	}
	res := s.scoped(ctx, tenantID).Model(&model.Client{}).Where("id = ?", c.ID).
		Updates(map[string]any{"name": c.Name, "phone": c.Phone, "email": c.Email, "address": c.Address})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrNotFound
	}
	c.TenantID = tenantID
	return nil
}

func (s *gormStore) DeleteClient(ctx context.Context, tenantID string, id int64) error {
	return s.deleteScoped(ctx, tenantID, &model.Client{}, id)
}

// --- Services ---

func (s *gormStore) ListServices(ctx context.Context, tenantID string) ([]model.Service, error) {
	services := []model.Service{}
	if tenantID == "" {
		return services, nil
	}
	if err := s.scoped(ctx, tenantID).Order("id").Find(&services).Error; err != nil {
		return nil, err
	}
	return services, nil
}

func (s *gormStore) CreateService(ctx context.Context, tenantID string, svc *model.Service) error {
	if tenantID == "" {
		return model.ErrNoTenant
	}
	svc.ID = 0
	svc.TenantID = tenantID
	return s.db.WithContext(ctx).Create(svc).Error
}

func (s *gormStore) UpdateService(ctx context.Context, tenantID string, svc *model.Service) error {
	if tenantID == "" {
		return model.ErrNoTenant
	}
	res := s.scoped(ctx, tenantID).Model(&model.Service{}).Where("id = ?", svc.ID).
		Updates(map[string]any{
			"icon":                svc.Icon,
			"name":                svc.Name,
			"description":         svc.Description,
			"price":               svc.Price,
			"pricing_method":      svc.PricingMethod,
			"category":            svc.Category,
			"linked_machine_type": svc.LinkedMachineType,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrNotFound
	}
	svc.TenantID = tenantID
	return nil
}

func (s *gormStore) DeleteService(ctx context.Context, tenantID string, id int64) error {
	return s.deleteScoped(ctx, tenantID, &model.Service{}, id)
}

// --- Machines ---

func (s *gormStore) ListMachines(ctx context.Context, tenantID string) ([]model.Machine, error) {
	machines := []model.Machine{}
	if tenantID == "" {
		return machines, nil
	}
	if err := s.scoped(ctx, tenantID).Order("id").Find(&machines).Error; err != nil {
		return nil, err
	}
	return machines, nil
}

func (s *gormStore) GetMachine(ctx context.Context, tenantID string, id int64) (*model.Machine, error) {
	if tenantID == "" {
		return nil, model.ErrNotFound
	}
	var m model.Machine
	if err := s.scoped(ctx, tenantID).First(&m, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (s *gormStore) CreateMachine(ctx context.Context, tenantID string, m *model.Machine) error {
	if tenantID == "" {
		return model.ErrNoTenant
	}
	m.ID = 0
	m.TenantID = tenantID
	m.Status = model.MachineAvailable
	m.Timer = 0
	m.IsActive = true
	return s.db.WithContext(ctx).Create(m).Error
}

func (s *gormStore) UpdateMachine(ctx context.Context, tenantID string, m *model.Machine) error {
	if tenantID == "" {
		return model.ErrNoTenant
	}
	res := s.scoped(ctx, tenantID).Model(&model.Machine{}).Where("id = ?", m.ID).
		Updates(map[string]any{"name": m.Name, "type": m.Type})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *gormStore) SaveMachineState(ctx context.Context, tenantID string, m *model.Machine) error {
	if tenantID == "" {
		return model.ErrNoTenant
	}
	res := s.scoped(ctx, tenantID).Model(&model.Machine{}).Where("id = ?", m.ID).
		Updates(map[string]any{"status": m.Status, "timer": m.Timer, "is_active": m.IsActive})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *gormStore) DeleteMachine(ctx context.Context, tenantID string, id int64) error {
	if tenantID == "" {
		return model.ErrNoTenant
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND tenant_id = ?", id, tenantID).Delete(&model.Machine{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return model.ErrNotFound
		}
		return tx.Exec("DELETE FROM subscription_machine_mapping WHERE machine_id = ?", id).Error
	})
}

func (s *gormStore) ListRunningMachines(ctx context.Context) ([]model.Machine, error) {
	var machines []model.Machine
	if err := s.db.WithContext(ctx).Where("status = ?", model.MachineInUse).Find(&machines).Error; err != nil {
		return nil, err
	}
	return machines, nil
}

// --- Orders ---

func (s *gormStore) ListOrders(ctx context.Context, tenantID string) ([]model.Order, error) {
	orders := []model.Order{}
	if tenantID == "" {
		return orders, nil
	}
	err := s.scoped(ctx, tenantID).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *gormStore) GetOrder(ctx context.Context, tenantID string, id int64) (*model.Order, error) {
	if tenantID == "" {
		return nil, model.ErrNotFound
	}
	var o model.Order
	err := s.scoped(ctx, tenantID).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		First(&o, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (s *gormStore) CreateOrder(ctx context.Context, tenantID string, o *model.Order, newClient *model.Client, cycleSeconds int) error {
	if tenantID == "" {
		return model.ErrNoTenant
	}
	o.ID = 0
	o.TenantID = tenantID

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, machineID := range o.MachineIDs() {
			// The guarded update doubles as the availability check.
			res := tx.Model(&model.Machine{}).
				Where("id = ? AND tenant_id = ? AND status = ? AND is_active = ?", machineID, tenantID, model.MachineAvailable, true).
				Updates(map[string]any{"status": model.MachineInUse, "timer": cycleSeconds})
			if res.Error != nil {
				return fmt.Errorf("failed to occupy machine %d: %w", machineID, res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: machine %d is not available", model.ErrIntegrity, machineID)
			}
		}
		if newClient != nil {
			newClient.ID = 0
			newClient.TenantID = tenantID
			if err := tx.Create(newClient).Error; err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}
			o.ClientID = newClient.ID
		}
		if err := tx.Create(o).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})
}

func (s *gormStore) UpdateOrder(ctx context.Context, tenantID string, o *model.Order) error {
	if tenantID == "" {
		return model.ErrNoTenant
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Order{}).Where("id = ? AND tenant_id = ?", o.ID, tenantID).
			Updates(map[string]any{"client_id": o.ClientID, "status": o.Status, "total": o.Total})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return model.ErrNotFound
		}
		if err := tx.Where("order_id = ?", o.ID).Delete(&model.OrderLineItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear items of order %d: %w", o.ID, err)
		}
		for i := range o.Items {
			o.Items[i].ID = 0
			o.Items[i].OrderID = o.ID
		}
		if len(o.Items) > 0 {
			if err := tx.Create(&o.Items).Error; err != nil {
				return fmt.Errorf("failed to write items of order %d: %w", o.ID, err)
			}
		}
		o.TenantID = tenantID
		return nil
	})
}

func (s *gormStore) DeleteOrder(ctx context.Context, tenantID string, id int64) error {
	if tenantID == "" {
		return model.ErrNoTenant
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND tenant_id = ?", id, tenantID).Delete(&model.Order{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return model.ErrNotFound
		}
		return tx.Where("order_id = ?", id).Delete(&model.OrderLineItem{}).Error
	})
}

// --- Push subscriptions ---

func (s *gormStore) PutSubscription(ctx context.Context, tenantID string, sub *model.PushSubscription, machineIDs []int64) error {
	if tenantID == "" {
		return model.ErrNoTenant
	}
	sub.TenantID = tenantID

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The keys are refreshed only when the endpoint already belongs to
		// this tenant; an endpoint held by another tenant affects no rows.
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "push_subscriptions.tenant_id = excluded.tenant_id"},
			}},
		}).Create(sub)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: endpoint is registered to another tenant", model.ErrIntegrity)
		}

		machines := []*model.Machine{}
		if len(machineIDs) > 0 {
			if err := tx.Where("tenant_id = ?", tenantID).Find(&machines, machineIDs).Error; err != nil {
				return err
			}
		}
		return tx.Model(sub).Association("Machines").Replace(machines)
	})
}

func (s *gormStore) GetSubscribedMachines(ctx context.Context, tenantID, endpoint string) ([]int64, error) {
	if tenantID == "" {
		return nil, model.ErrNotFound
	}
	var sub model.PushSubscription
	if err := s.scoped(ctx, tenantID).Preload("Machines").First(&sub, "endpoint = ?", endpoint).Error; err != nil {
		return nil, notFound(err)
	}
	ids := make([]int64, len(sub.Machines))
	for i, m := range sub.Machines {
		ids[i] = m.ID
	}
	return ids, nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, tenantID, endpoint string) error {
	if tenantID == "" {
		return model.ErrNoTenant
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sub model.PushSubscription
		err := tx.Where("endpoint = ? AND tenant_id = ?", endpoint, tenantID).First(&sub).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := tx.Model(&sub).Association("Machines").Clear(); err != nil {
			return err
		}
		return tx.Delete(&sub).Error
	})
}

func (s *gormStore) ListSubscriptionsForMachine(ctx context.Context, tenantID string, machineID int64) ([]model.PushSubscription, error) {
	var subscriptions []model.PushSubscription
	if tenantID == "" {
		return subscriptions, nil
	}
	err := s.db.WithContext(ctx).
		Joins("JOIN subscription_machine_mapping smm ON smm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("smm.machine_id = ? AND push_subscriptions.tenant_id = ?", machineID, tenantID).
		Find(&subscriptions).Error
	if err != nil {
		return nil, err
	}
	return subscriptions, nil
}

func (s *gormStore) deleteScoped(ctx context.Context, tenantID string, value any, id int64) error {
	if tenantID == "" {
		return model.ErrNoTenant
	}
	res := s.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).Delete(value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
