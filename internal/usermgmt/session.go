package usermgmt

import (
	"io"

	"github.com/nxp-qmc/qmc2g-core/internal/configstore"
	"github.com/nxp-qmc/qmc2g-core/internal/logpipeline"
)

// timeoutSessionLocked ends sid's session if it has expired or its
// issued-at is somehow in the future (a clock having been stepped
// backwards), ported from USRMGMT_TimeoutSession.
func (m *Manager) timeoutSessionLocked(sid int, now int64) {
	s := &m.sessions[sid]
	if !s.occupied() {
		return
	}
	if s.session.ExpiresAt > now && s.session.IssuedAt <= now {
		return
	}
	m.endSessionLocked(NoSession, SessionID(sid))
	m.logUserMgmt(logpipeline.EventSessionTimeout, configstore.KeyNone, uint16(sid))
}

// CreateSession authenticates name/passphrase and, on success, opens or
// refreshes a session slot and issues a bearer token, ported from
// USRMGMT_CreateSession.
func (m *Manager) CreateSession(name, passphrase []byte) (token string, sess Session, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot, cfg, found, ferr := m.findUserByName(name)
	if ferr != nil {
		return "", Session{}, ferr
	}
	if !found || !cfg.Occupied() {
		return "", Session{}, ErrUserNotFound
	}
	uid := configstore.KeyUserFirst + configstore.Key(slot)

	now, haveClock := m.clock.Now()
	if !haveClock && cfg.Role != configstore.RoleMaintenance {
		// clock not initialized: deny non-Maintenance users by forcing an
		// always-in-the-future lockout, mirroring the source's
		// lockout_timestamp = ~0 assignment.
		cfg.LockoutTimestamp = ^uint64(0)
	}

	expired := cfg.Role != configstore.RoleMaintenance && uint64(now) > cfg.ValidityTimestamp
	if expired {
		return "", Session{}, m.recordLoginFailure(name, uid, now, haveClock)
	}

	startIdx := ReservedSessions
	if cfg.Role == configstore.RoleMaintenance {
		startIdx = 0
	}
	id := -1
	for idx := startIdx; idx < MaxSessions; idx++ {
		m.timeoutSessionLocked(idx, now)
		if !m.sessions[idx].occupied() && id < 0 {
			id = idx
		}
		if m.sessions[idx].session.UID == uid {
			id = idx
			break
		}
	}
	if id < 0 {
		return "", Session{}, m.recordLoginFailure(name, uid, now, haveClock)
	}

	trial := &m.trialCounters[slot]
	locked := cfg.LockoutTimestamp > uint64(now)
	if locked && *trial <= 0 {
		return "", Session{}, ErrAccountLocked
	}
	if *trial > 0 {
		*trial--
	}

	candidate := hashPassphrase(passphrase, cfg.Salt, cfg.Iterations)
	if !secretsEqual(candidate, cfg.Secret) {
		return "", Session{}, m.recordLoginFailure(name, uid, now, haveClock)
	}

	uss := &m.sessions[id]
	if uss.session.UID != uid {
		if _, err := io.ReadFull(m.rng, uss.secret[:]); err != nil {
			return "", Session{}, err
		}
	}

	if cfg.LockoutTimestamp != 0 {
		if err := m.unlockUserLocked(name); err != nil {
			return "", Session{}, err
		}
		cfg, err = m.store.GetUser(slot)
		if err != nil {
			return "", Session{}, err
		}
	}
	*trial = 0

	uss.session = Session{
		UID:       uid,
		SID:       SessionID(id),
		Role:      cfg.Role,
		IssuedAt:  now,
		ExpiresAt: now + SessionDuration,
	}

	deviceID := ""
	if m.device != nil {
		deviceID = m.device.DeviceID()
	}
	tok, terr := issueToken(uss.session, deviceID, string(name), uss.secret)
	if terr != nil {
		m.endSessionLocked(NoSession, SessionID(id))
		return "", Session{}, terr
	}

	m.logDefault(logpipeline.EventUserLogin, uid)
	return tok, uss.session, nil
}

// recordLoginFailure logs LoginFailure only if the account was not
// already within a lockout window, then (re)locks it for
// LockoutDuration, ported from the tail of USRMGMT_CreateSession.
func (m *Manager) recordLoginFailure(name []byte, uid configstore.Key, now int64, haveClock bool) error {
	if haveClock {
		slot := int(uid - configstore.KeyUserFirst)
		cfg, err := m.store.GetUser(slot)
		if err == nil && uint64(cfg.LockoutTimestamp) < uint64(now) {
			m.trialCounters[slot] = AuthenticationAttempts
			m.logDefault(logpipeline.EventLoginFailure, uid)
		}
	}
	_ = m.lockUserLocked(name, now+LockoutDuration)
	return ErrAuthenticationFailed
}

// EndSession terminates sid, logging UserLogout if the acting session
// is ending itself or TerminateSession if another session ended it,
// ported from USRMGMT_EndSession.
func (m *Manager) EndSession(actingSID, sid SessionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.endSessionLocked(actingSID, sid)
}

func (m *Manager) endSessionLocked(actingSID, sid SessionID) error {
	if sid < 0 || int(sid) >= MaxSessions {
		return ErrInvalidSession
	}
	uid := m.sessions[sid].session.UID
	m.sessions[sid] = sessionState{}
	if uid == configstore.KeyNone {
		return nil
	}
	if actingSID == sid {
		m.logDefault(logpipeline.EventUserLogout, uid)
	} else {
		m.logUserMgmt(logpipeline.EventTerminateSession, m.sessionUID(actingSID), uint16(uid))
	}
	return nil
}

// IterateSessions returns the next live session after count calls
// starting from count==0, timing out expired sessions as it walks past
// them, ported from USRMGMT_IterateSessions. It returns
// ErrNoMoreSessions once every slot has been visited.
func (m *Manager) IterateSessions(count int) (next int, sess Session, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now, _ := m.clock.Now()
	idx := 0
	if count > 0 {
		idx = count
	}
	for ; idx < MaxSessions; idx++ {
		m.timeoutSessionLocked(idx, now)
		if m.sessions[idx].occupied() {
			return idx + 1, m.sessions[idx].session, nil
		}
	}
	return 0, Session{}, ErrNoMoreSessions
}

// ValidateSession authenticates token and returns the session it names,
// ported from USRMGMT_ValidateSession.
func (m *Manager) ValidateSession(token string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pt, err := parseToken(token)
	if err != nil {
		return Session{}, err
	}

	uss := &m.sessions[pt.sid]
	if !uss.occupied() {
		return Session{}, ErrTokenSignatureInvalid
	}
	if !pt.verifySignature(uss.secret) {
		return Session{}, ErrTokenSignatureInvalid
	}

	exp, err := parseDecimal(pt.claims.Exp)
	if err != nil {
		return Session{}, ErrTokenMalformed
	}
	now, haveClock := m.clock.Now()
	if !haveClock || exp < now {
		return Session{}, ErrTokenExpired
	}

	return uss.session, nil
}

func parseDecimal(s string) (int64, error) {
	var v int64
	if s == "" {
		return 0, ErrTokenMalformed
	}
	for _, c := range []byte(s) {
		if c < '0' || c > '9' {
			return 0, ErrTokenMalformed
		}
		v = v*10 + int64(c-'0')
	}
	return v, nil
}
