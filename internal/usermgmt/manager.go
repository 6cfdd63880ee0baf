package usermgmt

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"
	"sync"

	"github.com/nxp-qmc/qmc2g-core/internal/configstore"
	"github.com/nxp-qmc/qmc2g-core/internal/logpipeline"
	"github.com/nxp-qmc/qmc2g-core/internal/qmcerr"
)

// passphraseBufferLength bounds an accepted passphrase's length, ported
// from USRMGMT_PASSWORD_BUFFER_LENGTH; its defining header is not in
// the retrieval pack, so this is a documented judgment call sized well
// above MinPassphraseLength.
const passphraseBufferLength = 128

// PassphraseDuration is how long, in seconds, a freshly set passphrase
// remains valid, ported from USRMGMT_PASSPHRASE_DURATION; not in the
// retrieval pack, defaulted to one year.
const PassphraseDuration = 365 * 24 * 60 * 60

// Clock reports wall-clock time in whole seconds since the epoch, ok is
// false when the real-time clock has not been set, mirroring
// BOARD_GetTime's uninitialized-RTC failure mode that Maintenance
// accounts are exempted from.
type Clock interface {
	Now() (seconds int64, ok bool)
}

// DeviceIdentity supplies the stable device identifier issued tokens
// carry as "iss", standing in for BOARD_GetDeviceIdentifier /
// SE_GetUID.
type DeviceIdentity interface {
	DeviceID() string
}

// Logger is the collaborator AddUser/UpdateUser/RemoveUser/LockUser/
// UnlockUser/session lifecycle events are recorded through, satisfied
// by *logpipeline.Service.
type Logger interface {
	QueueEntry(rec logpipeline.Record, hasPriority bool) error
}

// sessionState is one slot of the fixed session table: a random HMAC
// key generated once per occupant and the session metadata it signs
// for, ported from user_session_state_t.
type sessionState struct {
	secret  [SessionSecretLength]byte
	session Session
}

func (s sessionState) occupied() bool { return s.session.Role > configstore.RoleEmpty }

// Manager is the user account and session authority: it owns the
// User*/UserHashes* configuration cells through a Store, a fixed
// session table, and the per-account lockout trial counters, ported
// from api_usermanagement.c's static state.
type Manager struct {
	mu sync.Mutex

	store  *configstore.Store
	clock  Clock
	device DeviceIdentity
	logger Logger
	rng    io.Reader

	trialCounters [configstore.KeyUserLast - configstore.KeyUserFirst + 1]int
	sessions      [MaxSessions]sessionState
}

// New creates a Manager. logger may be nil in configurations that never
// wire a log pipeline (e.g. unit tests exercising only the account
// store).
func New(store *configstore.Store, clock Clock, device DeviceIdentity, logger Logger) *Manager {
	return &Manager{
		store:  store,
		clock:  clock,
		device: device,
		logger: logger,
		rng:    rand.Reader,
	}
}

func (m *Manager) logUserMgmt(event logpipeline.EventCode, user configstore.Key, subject uint16) {
	if m.logger == nil {
		return
	}
	_ = m.logger.QueueEntry(logpipeline.Record{
		Data: logpipeline.UserMgmtData{
			Source:    logpipeline.SourceUserManagement,
			Category:  logpipeline.CategoryAuthentication,
			EventCode: event,
			User:      uint16(user),
			Subject:   subject,
		},
	}, false)
}

func (m *Manager) logDefault(event logpipeline.EventCode, user configstore.Key) {
	if m.logger == nil {
		return
	}
	_ = m.logger.QueueEntry(logpipeline.Record{
		Data: logpipeline.DefaultData{
			Source:    logpipeline.SourceUserManagement,
			Category:  logpipeline.CategoryAuthentication,
			EventCode: event,
			User:      uint16(user),
		},
	}, false)
}

// sessionUID returns the acting uid for sid, or KeyNone if sid does not
// name a live session, mirroring session_uid.
func (m *Manager) sessionUID(sid SessionID) configstore.Key {
	if sid < 0 || int(sid) >= MaxSessions {
		return configstore.KeyNone
	}
	return m.sessions[sid].session.UID
}

// findUserByName scans every User* slot exactly once (no early exit, so
// the scan takes the same time whether name matches, is absent with a
// free slot, or is absent with the table full) and reports the slot
// that names the account, or the first free slot if there is no match,
// ported from get_user_by_name. Unlike the source's bit-masked slot
// selection, this keeps the same no-early-return shape in ordinary Go
// control flow — the source itself documents that its variant is only
// partially constant-time (it leaks whether a free slot exists), and
// this version makes no stronger claim.
func (m *Manager) findUserByName(name []byte) (slot int, cfg configstore.UserConfig, found bool, err error) {
	var padded [configstore.UserNameMaxLength]byte
	copy(padded[:], name)

	matchSlot, freeSlot := -1, -1
	var matchCfg configstore.UserConfig

	for i := 0; i < 10; i++ {
		c, gerr := m.store.GetUser(i)
		if gerr != nil {
			return 0, configstore.UserConfig{}, false, gerr
		}
		if freeSlot < 0 && !c.Occupied() {
			freeSlot = i
		}
		if subtle.ConstantTimeCompare(padded[:], c.Name[:]) == 1 {
			matchSlot, matchCfg = i, c
		}
	}

	if matchSlot >= 0 {
		return matchSlot, matchCfg, true, nil
	}
	if freeSlot >= 0 {
		return freeSlot, configstore.UserConfig{Role: configstore.RoleEmpty}, false, nil
	}
	return 0, configstore.UserConfig{}, false, ErrNoFreeSlot
}

func slotFromUID(uid configstore.Key) (int, error) {
	if uid < configstore.KeyUserFirst || uid > configstore.KeyUserLast {
		return 0, ErrArgInvalid
	}
	return int(uid - configstore.KeyUserFirst), nil
}

// AddUser creates an account in the first empty User* slot (or
// overwrites the slot of a name that already matches), ported from
// USRMGMT_AddUser.
func (m *Manager) AddUser(actingSID SessionID, name, passphrase []byte, role configstore.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(name) == 0 || len(passphrase) == 0 || role <= configstore.RoleEmpty ||
		len(name) >= configstore.UserNameMaxLength || len(passphrase) >= passphraseBufferLength {
		return ErrArgInvalid
	}
	if err := ValidateUsername(name); err != nil {
		return err
	}

	slot, _, _, err := m.findUserByName(name)
	if err != nil {
		return err
	}

	var salt [configstore.SaltLength]byte
	if _, err := io.ReadFull(m.rng, salt[:]); err != nil {
		return fmt.Errorf("generating account salt: %w", qmcerr.Err)
	}

	cfg := configstore.UserConfig{Role: role, Salt: salt}
	copy(cfg.Name[:], name)
	if err := m.store.SetUser(slot, cfg); err != nil {
		return err
	}
	if err := m.store.SetUserHashes(slot, nil); err != nil {
		return err
	}

	if err := m.updateUserLocked(NoSession, slot, passphrase, role); err != nil {
		_ = m.store.SetUser(slot, configstore.UserConfig{Role: configstore.RoleEmpty})
		return err
	}

	if actingSID != NoSession {
		m.logUserMgmt(logpipeline.EventUserCreated, m.sessionUID(actingSID), uint16(configstore.KeyUserFirst)+uint16(slot))
	}
	return nil
}

// UpdateUser sets a new passphrase and role for uid, checking it
// against the required/rejected character classes and the rolling
// password history, ported from USRMGMT_UpdateUser.
func (m *Manager) UpdateUser(actingSID SessionID, uid configstore.Key, passphrase []byte, role configstore.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot, err := slotFromUID(uid)
	if err != nil {
		return err
	}
	return m.updateUserLocked(actingSID, slot, passphrase, role)
}

func (m *Manager) updateUserLocked(actingSID SessionID, slot int, passphrase []byte, role configstore.Role) error {
	switch role {
	case configstore.RoleMaintenance, configstore.RoleOperator:
	default:
		role = configstore.RoleNone
	}
	if len(passphrase) == 0 || role <= configstore.RoleEmpty || len(passphrase) >= passphraseBufferLength {
		return ErrArgInvalid
	}

	cfg, err := m.store.GetUser(slot)
	if err != nil {
		return err
	}
	if !cfg.Occupied() {
		return ErrArgInvalid
	}

	if err := ValidatePassphrase(passphrase); err != nil {
		return err
	}

	cfg.Iterations = MinPassphraseIterations
	cfg.Role = role
	cfg.LockoutTimestamp = 0
	if now, ok := m.clock.Now(); ok {
		cfg.ValidityTimestamp = uint64(now) + PassphraseDuration
	} else {
		cfg.ValidityTimestamp = PassphraseDuration
	}

	hash := hashPassphrase(passphrase, cfg.Salt, cfg.Iterations)

	history, err := m.store.GetUserHashes(slot)
	if err != nil {
		return err
	}
	reused, updated := checkAndShiftHistory(hash, cfg.Secret, history)
	if reused {
		return ErrPassphraseReused
	}

	cfg.Secret = hash
	if err := m.store.SetUser(slot, cfg); err != nil {
		return err
	}
	if actingSID != NoSession {
		m.logUserMgmt(logpipeline.EventUserUpdate, m.sessionUID(actingSID), uint16(configstore.KeyUserFirst)+uint16(slot))
	}
	return m.store.SetUserHashes(slot, updated)
}

// RemoveUser marks name's slot empty, ending any live session bound to
// it first, ported from USRMGMT_RemoveUser.
func (m *Manager) RemoveUser(actingSID SessionID, name []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot, cfg, found, err := m.findUserByName(name)
	if err != nil {
		return err
	}
	if !found || !cfg.Occupied() {
		return ErrUserNotFound
	}
	uid := configstore.KeyUserFirst + configstore.Key(slot)

	for sid := range m.sessions {
		if m.sessions[sid].session.UID == uid {
			m.endSessionLocked(actingSID, SessionID(sid))
		}
	}

	if err := m.store.SetUser(slot, configstore.UserConfig{Role: configstore.RoleEmpty}); err != nil {
		return err
	}
	if actingSID != NoSession {
		m.logUserMgmt(logpipeline.EventUserRemoved, m.sessionUID(actingSID), uint16(uid))
	}
	return m.store.SetUserHashes(slot, nil)
}

// LockUser sets name's lockout timestamp to reactivateAt (clamped to
// not be in the past), logging AccountSuspended only if the account was
// not already within a lockout window, ported from USRMGMT_LockUser.
// Unlike the source, a name that does not match an existing account is
// rejected outright rather than silently locking the next free slot —
// the source's own condition (uid != KeyNone && role >= RoleEmpty) is
// true for a free candidate slot too, which reads as an oversight rather
// than an intended feature.
func (m *Manager) LockUser(name []byte, reactivateAt int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lockUserLocked(name, reactivateAt)
}

func (m *Manager) lockUserLocked(name []byte, reactivateAt int64) error {
	slot, cfg, found, err := m.findUserByName(name)
	if err != nil {
		return err
	}
	if !found || !cfg.Occupied() {
		return ErrUserNotFound
	}

	now, haveClock := m.clock.Now()
	if haveClock && reactivateAt < now {
		reactivateAt = now
	}
	alreadyLocked := haveClock && cfg.LockoutTimestamp >= uint64(now)
	cfg.LockoutTimestamp = uint64(reactivateAt)
	if err := m.store.SetUser(slot, cfg); err != nil {
		return err
	}
	if !alreadyLocked {
		m.logDefault(logpipeline.EventAccountSuspended, configstore.KeyUserFirst+configstore.Key(slot))
	}
	return nil
}

// UnlockUser clears name's lockout timestamp, ported from
// USRMGMT_UnlockUser.
func (m *Manager) UnlockUser(name []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unlockUserLocked(name)
}

func (m *Manager) unlockUserLocked(name []byte) error {
	slot, cfg, found, err := m.findUserByName(name)
	if err != nil {
		return err
	}
	if !found || !cfg.Occupied() || cfg.LockoutTimestamp == 0 {
		return ErrUserNotFound
	}
	cfg.LockoutTimestamp = 0
	if err := m.store.SetUser(slot, cfg); err != nil {
		return err
	}
	m.logDefault(logpipeline.EventAccountResumed, configstore.KeyUserFirst+configstore.Key(slot))
	return nil
}

// IterateUsers returns the next occupied account after count calls
// starting from count==0, ported from USRMGMT_IterateUsers. It returns
// ErrNoMoreUsers once every slot has been visited.
func (m *Manager) IterateUsers(count int) (next int, uid configstore.Key, cfg configstore.UserConfig, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot := 0
	if count > 0 {
		slot = count
	}
	for ; slot < 10; slot++ {
		c, gerr := m.store.GetUser(slot)
		if gerr != nil {
			return 0, configstore.KeyNone, configstore.UserConfig{}, gerr
		}
		if c.Occupied() {
			return slot + 1, configstore.KeyUserFirst + configstore.Key(slot), c, nil
		}
	}
	return 0, configstore.KeyNone, configstore.UserConfig{}, ErrNoMoreUsers
}
