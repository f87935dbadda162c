package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laundry-admin-backend/internal/model"
)

func availableWasher() model.Machine {
	return model.Machine{ID: 1, Name: "Washer #1", Type: model.MachineWasher, Status: model.MachineAvailable, IsActive: true}
}

func TestStart(t *testing.T) {
	m, err := Start(availableWasher(), DefaultCycleSeconds)
	require.NoError(t, err)
	assert.Equal(t, model.MachineInUse, m.Status)
	assert.Equal(t, 1800, m.Timer)

	_, err = Start(m, DefaultCycleSeconds)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	inactive := availableWasher()
	inactive.IsActive = false
	_, err = Start(inactive, DefaultCycleSeconds)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	m, err = Start(availableWasher(), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultCycleSeconds, m.Timer)
}

func TestTick_RunsToCompletion(t *testing.T) {
	m, err := Start(availableWasher(), DefaultCycleSeconds)
	require.NoError(t, err)

	finishedCount := 0
	for i := 0; i < DefaultCycleSeconds; i++ {
		var finished bool
		m, finished, err = Tick(m)
		require.NoError(t, err)
		if finished {
			finishedCount++
		} else {
			assert.Greater(t, m.Timer, 0, "in_use machines keep a positive timer")
		}
	}

	assert.Equal(t, 1, finishedCount)
	assert.Equal(t, model.MachineAvailable, m.Status)
	assert.Equal(t, 0, m.Timer)

	_, _, err = Tick(m)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestStop(t *testing.T) {
	m, _ := Start(availableWasher(), DefaultCycleSeconds)
	m, err := Stop(m)
	require.NoError(t, err)
	assert.Equal(t, model.MachineAvailable, m.Status)
	assert.Equal(t, 0, m.Timer)

	_, err = Stop(m)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestHoldAndResolve(t *testing.T) {
	running, _ := Start(availableWasher(), DefaultCycleSeconds)

	for _, status := range []model.MachineStatus{model.MachineMaintenance, model.MachineBroken} {
		held, err := Hold(running, status)
		require.NoError(t, err)
		assert.Equal(t, status, held.Status)
		assert.Equal(t, 0, held.Timer)

		resolved, err := Resolve(held)
		require.NoError(t, err)
		assert.Equal(t, model.MachineAvailable, resolved.Status)
	}

	_, err := Hold(running, model.MachineInUse)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	_, err = Resolve(availableWasher())
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestSetActive(t *testing.T) {
	running, _ := Start(availableWasher(), DefaultCycleSeconds)

	off := SetActive(running, false)
	assert.False(t, off.IsActive)
	assert.Equal(t, model.MachineAvailable, off.Status)
	assert.Equal(t, 0, off.Timer)

	broken, _ := Hold(availableWasher(), model.MachineBroken)
	on := SetActive(broken, true)
	assert.True(t, on.IsActive)
	assert.Equal(t, model.MachineBroken, on.Status, "reactivation keeps the current status")
}
