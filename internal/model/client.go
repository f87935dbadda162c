package model

import (
	"fmt"
	"strings"
	"time"
)

// Client is a laundry customer.
type Client struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	TenantID  string    `gorm:"index;size:64;not null" json:"tenant_id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	Phone     string    `gorm:"size:32;not null" json:"phone"`
	Email     string    `gorm:"size:128" json:"email"`
	Address   string    `gorm:"size:256" json:"address"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Validate checks the required fields.
func (c *Client) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: client name is required", ErrValidation)
	}
	if strings.TrimSpace(c.Phone) == "" {
		return fmt.Errorf("%w: client phone is required", ErrValidation)
	}
	return nil
}
