package lifecycle

import (
	"fmt"

	"laundry-admin-backend/internal/model"
)

// DefaultCycleSeconds is the length of a wash or dry cycle.
const DefaultCycleSeconds = 1800

// Start puts an available, active machine into a cycle of the given length.
func Start(m model.Machine, cycleSeconds int) (model.Machine, error) {
	if !m.IsActive {
		return m, fmt.Errorf("%w: machine %q is inactive", model.ErrInvalidTransition, m.Name)
	}
	if m.Status != model.MachineAvailable {
		return m, fmt.Errorf("%w: machine %q is %s", model.ErrInvalidTransition, m.Name, m.Status)
	}
	if cycleSeconds <= 0 {
		cycleSeconds = DefaultCycleSeconds
	}
	m.Status = model.MachineInUse
	m.Timer = cycleSeconds
	return m, nil
}

// Stop ends a running cycle early.
func Stop(m model.Machine) (model.Machine, error) {
	if m.Status != model.MachineInUse {
		return m, fmt.Errorf("%w: machine %q is not running", model.ErrInvalidTransition, m.Name)
	}
	m.Status = model.MachineAvailable
	m.Timer = 0
	return m, nil
}

// Tick advances a running cycle by one second. finished is true when the
// timer ran out and the machine went back to available.
func Tick(m model.Machine) (next model.Machine, finished bool, err error) {
	if m.Status != model.MachineInUse {
		return m, false, fmt.Errorf("%w: machine %q is not running", model.ErrInvalidTransition, m.Name)
	}
	m.Timer--
	if m.Timer <= 0 {
		m.Status = model.MachineAvailable
		m.Timer = 0
		return m, true, nil
	}
	return m, false, nil
}

// Hold moves a machine to maintenance or broken from any state.
func Hold(m model.Machine, status model.MachineStatus) (model.Machine, error) {
	if status != model.MachineMaintenance && status != model.MachineBroken {
		return m, fmt.Errorf("%w: cannot hold machine as %s", model.ErrInvalidTransition, status)
	}
	m.Status = status
	m.Timer = 0
	return m, nil
}

// Resolve returns a held machine to service.
func Resolve(m model.Machine) (model.Machine, error) {
	if m.Status != model.MachineMaintenance && m.Status != model.MachineBroken {
		return m, fmt.Errorf("%w: machine %q is %s", model.ErrInvalidTransition, m.Name, m.Status)
	}
	m.Status = model.MachineAvailable
	m.Timer = 0
	return m, nil
}

// SetActive toggles the active flag. Deactivation resets the machine to
// available with no timer; activation never starts a cycle.
func SetActive(m model.Machine, active bool) model.Machine {
	m.IsActive = active
	if !active {
		m.Status = model.MachineAvailable
		m.Timer = 0
	}
	return m
}
