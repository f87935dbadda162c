package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PricingMethod describes how a service price is multiplied.
type PricingMethod string

const (
	PricingPerWeight PricingMethod = "per_weight"
	PricingPerItem   PricingMethod = "per_item"
	PricingFixed     PricingMethod = "fixed"
)

// ServiceCategory groups services by how they are fulfilled.
type ServiceCategory string

const (
	CategoryDropOff     ServiceCategory = "drop_off"
	CategorySelfService ServiceCategory = "self_service"
)

// Service is an entry of a tenant's price catalog.
type Service struct {
	ID                int64           `gorm:"primaryKey" json:"id"`
	TenantID          string          `gorm:"index;size:64;not null" json:"tenant_id"`
	Icon              string          `gorm:"size:64" json:"icon"`
	Name              string          `gorm:"size:128;not null" json:"name"`
	Description       string          `gorm:"size:256;not null" json:"description"`
	Price             decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	PricingMethod     PricingMethod   `gorm:"size:16;not null" json:"pricing_method"`
	Category          ServiceCategory `gorm:"size:16;not null" json:"category"`
	LinkedMachineType *MachineType    `gorm:"size:16" json:"linked_machine_type,omitempty"`
	CreatedAt         time.Time       `json:"-"`
	UpdatedAt         time.Time       `json:"-"`
}

// Validate checks required fields, the price and the enumerations.
func (s *Service) Validate() error {
	if strings.TrimSpace(s.Name) == "" || strings.TrimSpace(s.Description) == "" {
		return fmt.Errorf("%w: service name and description are required", ErrValidation)
	}
	if !s.Price.IsPositive() {
		return fmt.Errorf("%w: service price must be positive", ErrValidation)
	}
	switch s.PricingMethod {
	case PricingPerWeight, PricingPerItem, PricingFixed:
	default:
		return fmt.Errorf("%w: unknown pricing method %q", ErrValidation, s.PricingMethod)
	}
	switch s.Category {
	case CategoryDropOff, CategorySelfService:
	default:
		return fmt.Errorf("%w: unknown service category %q", ErrValidation, s.Category)
	}
	if s.LinkedMachineType != nil && !s.LinkedMachineType.Valid() {
		return fmt.Errorf("%w: unknown machine type %q", ErrValidation, *s.LinkedMachineType)
	}
	return nil
}

// IsMachineCycle reports whether the service bills a machine cycle.
func (s *Service) IsMachineCycle() bool {
	return s.LinkedMachineType != nil
}
