package model

import (
	"fmt"
	"strings"
	"time"
)

// MachineType is the kind of self-service machine.
type MachineType string

const (
	MachineWasher MachineType = "washer"
	MachineDryer  MachineType = "dryer"
)

// Valid reports whether t is a known machine type.
func (t MachineType) Valid() bool {
	return t == MachineWasher || t == MachineDryer
}

// MachineStatus is the operational state of a machine.
type MachineStatus string

const (
	MachineAvailable   MachineStatus = "available"
	MachineInUse       MachineStatus = "in_use"
	MachineMaintenance MachineStatus = "maintenance"
	MachineBroken      MachineStatus = "broken"
)

// Machine is a washer or dryer. Timer holds the remaining cycle seconds and
// is only non-zero while the machine is in use.
type Machine struct {
	ID        int64         `gorm:"primaryKey" json:"id"`
	TenantID  string        `gorm:"index;size:64;not null" json:"tenant_id"`
	Name      string        `gorm:"size:128;not null" json:"name"`
	Type      MachineType   `gorm:"size:16;not null" json:"type"`
	Status    MachineStatus `gorm:"size:16;not null;index" json:"status"`
	Timer     int           `gorm:"not null" json:"timer"`
	IsActive  bool          `gorm:"not null" json:"is_active"`
	CreatedAt time.Time     `json:"-"`
	UpdatedAt time.Time     `json:"-"`
}

// Validate checks the editable fields.
func (m *Machine) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: machine name is required", ErrValidation)
	}
	if !m.Type.Valid() {
		return fmt.Errorf("%w: unknown machine type %q", ErrValidation, m.Type)
	}
	return nil
}

// Selectable reports whether the machine can be picked for a new cycle.
func (m *Machine) Selectable() bool {
	return m.IsActive && m.Status == MachineAvailable
}
