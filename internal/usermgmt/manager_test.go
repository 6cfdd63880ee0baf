package usermgmt

import (
	"testing"

	"github.com/nxp-qmc/qmc2g-core/internal/configstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPassphrase = "Abcdefgh123!"

func TestAddUserThenIterateUsersFindsIt(t *testing.T) {
	m, _ := newTestManager(t)

	require.NoError(t, m.AddUser(NoSession, []byte("alice"), []byte(validPassphrase), configstore.RoleOperator))

	next, uid, cfg, err := m.IterateUsers(0)
	require.NoError(t, err)
	assert.Equal(t, configstore.KeyUserFirst, uid)
	assert.Equal(t, configstore.RoleOperator, cfg.Role)

	_, _, _, err = m.IterateUsers(next)
	assert.ErrorIs(t, err, ErrNoMoreUsers)
}

func TestAddUserRejectsWeakPassphrase(t *testing.T) {
	m, _ := newTestManager(t)
	err := m.AddUser(NoSession, []byte("bob"), []byte("short"), configstore.RoleOperator)
	assert.ErrorIs(t, err, ErrPolicyViolation)

	_, _, _, err = m.IterateUsers(0)
	assert.ErrorIs(t, err, ErrNoMoreUsers, "a rejected AddUser must not leave a half-created slot behind")
}

func TestAddUserRejectsUsernameWithSpecialCharacters(t *testing.T) {
	m, _ := newTestManager(t)
	err := m.AddUser(NoSession, []byte("bob!"), []byte(validPassphrase), configstore.RoleOperator)
	assert.ErrorIs(t, err, ErrPolicyViolation)
}

func TestAddUserDoesNotLogWithoutActingSession(t *testing.T) {
	logger := &fakeLogger{}
	m := New(newTestStore(t), newFakeClock(1000), fakeDevice{}, logger)
	require.NoError(t, m.AddUser(NoSession, []byte("alice"), []byte(validPassphrase), configstore.RoleOperator))
	assert.Empty(t, logger.entries)
}

func TestAddUserLogsWithActingSession(t *testing.T) {
	logger := &fakeLogger{}
	m := New(newTestStore(t), newFakeClock(1000), fakeDevice{}, logger)
	require.NoError(t, m.AddUser(SessionID(0), []byte("alice"), []byte(validPassphrase), configstore.RoleOperator))
	require.Len(t, logger.entries, 1)
}

func TestUpdateUserRejectsReusedPassphrase(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.AddUser(NoSession, []byte("alice"), []byte(validPassphrase), configstore.RoleOperator))

	err := m.UpdateUser(NoSession, configstore.KeyUserFirst, []byte(validPassphrase), configstore.RoleOperator)
	assert.ErrorIs(t, err, ErrPassphraseReused)
}

func TestUpdateUserAcceptsFreshPassphrase(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.AddUser(NoSession, []byte("alice"), []byte(validPassphrase), configstore.RoleOperator))

	err := m.UpdateUser(NoSession, configstore.KeyUserFirst, []byte("Different1Passphrase!"), configstore.RoleOperator)
	assert.NoError(t, err)
}

func TestRemoveUserFreesTheSlot(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.AddUser(NoSession, []byte("alice"), []byte(validPassphrase), configstore.RoleOperator))
	require.NoError(t, m.RemoveUser(NoSession, []byte("alice")))

	_, _, _, err := m.IterateUsers(0)
	assert.ErrorIs(t, err, ErrNoMoreUsers)
}

func TestRemoveUserUnknownNameFails(t *testing.T) {
	m, _ := newTestManager(t)
	assert.ErrorIs(t, m.RemoveUser(NoSession, []byte("ghost")), ErrUserNotFound)
}

func TestLockUserThenUnlockUser(t *testing.T) {
	m, clock := newTestManager(t)
	require.NoError(t, m.AddUser(NoSession, []byte("alice"), []byte(validPassphrase), configstore.RoleOperator))

	require.NoError(t, m.LockUser([]byte("alice"), clock.seconds+1000))
	_, sess, err := m.CreateSession([]byte("alice"), []byte(validPassphrase))
	assert.ErrorIs(t, err, ErrAccountLocked)
	assert.Zero(t, sess)

	require.NoError(t, m.UnlockUser([]byte("alice")))
	_, _, err = m.CreateSession([]byte("alice"), []byte(validPassphrase))
	assert.NoError(t, err)
}

func TestLockUserUnknownNameFails(t *testing.T) {
	m, _ := newTestManager(t)
	assert.ErrorIs(t, m.LockUser([]byte("ghost"), 0), ErrUserNotFound)
}
