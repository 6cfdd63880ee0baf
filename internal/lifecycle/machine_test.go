package lifecycle

import (
	"testing"

	"github.com/nxp-qmc/qmc2g-core/internal/kernel"
	"github.com/nxp-qmc/qmc2g-core/internal/motorbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUnfreezer struct {
	unfrozen []motorbus.MotorID
}

func (f *fakeUnfreezer) UnfreezeMotor(motor motorbus.MotorID) error {
	f.unfrozen = append(f.unfrozen, motor)
	return nil
}

type fakeRevoker struct {
	revoked bool
}

func (f *fakeRevoker) RevokeKeys() error {
	f.revoked = true
	return nil
}

func TestNewBootsIntoCommissioningByDefault(t *testing.T) {
	events := kernel.NewEventGroup()
	m := New(events, NewMemSnvsStore(SnvsLpGprState{}), nil, nil)
	assert.Equal(t, Commissioning, m.State())
	assert.Equal(t, SysEventCommissioning, events.GetBits()&allLifecycleBits)
}

func TestNewBootsIntoMaintenanceWhenAwdtExpired(t *testing.T) {
	events := kernel.NewEventGroup()
	m := New(events, NewMemSnvsStore(SnvsLpGprState{FwState: FwAwdtExpired}), nil, nil)
	assert.Equal(t, Maintenance, m.State())
	assert.Equal(t, SysEventMaintenance, events.GetBits()&allLifecycleBits)
}

func TestSetErrorStateLatchesAndIgnoresDecommissioning(t *testing.T) {
	events := kernel.NewEventGroup()
	revoker := &fakeRevoker{}
	m := New(events, NewMemSnvsStore(SnvsLpGprState{}), nil, revoker)

	m.SetErrorState()
	assert.Equal(t, Error, m.State())
	assert.Equal(t, SysEventError, events.GetBits()&allLifecycleBits)

	require.NoError(t, m.EnterDecommissioning())
	m.SetErrorState()
	assert.Equal(t, Decommissioning, m.State(), "a terminal state must never be overridden by a fault")
}

func TestEnterMaintenanceRequiresErrorAndUnfreezesMotors(t *testing.T) {
	events := kernel.NewEventGroup()
	unfreezer := &fakeUnfreezer{}
	m := New(events, NewMemSnvsStore(SnvsLpGprState{}), unfreezer, nil)

	assert.ErrorIs(t, m.EnterMaintenance(), ErrInvalidTransition)

	m.SetErrorState()
	require.NoError(t, m.EnterMaintenance())
	assert.Equal(t, Maintenance, m.State())
	assert.Len(t, unfreezer.unfrozen, motorbus.MaxMotors)
}

func TestEnterOperationalRequiresMaintenance(t *testing.T) {
	events := kernel.NewEventGroup()
	m := New(events, NewMemSnvsStore(SnvsLpGprState{}), &fakeUnfreezer{}, nil)

	assert.ErrorIs(t, m.EnterOperational(), ErrInvalidTransition)

	m.SetErrorState()
	require.NoError(t, m.EnterMaintenance())
	require.NoError(t, m.EnterOperational())
	assert.Equal(t, Operational, m.State())
}

func TestEnterDecommissioningRevokesKeysAndIsTerminal(t *testing.T) {
	events := kernel.NewEventGroup()
	revoker := &fakeRevoker{}
	m := New(events, NewMemSnvsStore(SnvsLpGprState{}), nil, revoker)

	require.NoError(t, m.EnterDecommissioning())
	assert.Equal(t, Decommissioning, m.State())
	assert.True(t, revoker.revoked)

	require.NoError(t, m.EnterDecommissioning())
}

func TestBootFwStateReflectsSnvsHandoff(t *testing.T) {
	events := kernel.NewEventGroup()
	m := New(events, NewMemSnvsStore(SnvsLpGprState{FwState: FwBackupCfg}), nil, nil)
	assert.Equal(t, FwBackupCfg, m.BootFwState())
}

func TestBootFwStateDefaultsToNoneWithoutStore(t *testing.T) {
	events := kernel.NewEventGroup()
	m := New(events, nil, nil, nil)
	assert.Equal(t, FwNone, m.BootFwState())
}
