package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/nxp-qmc/qmc2g-core/internal/configstore"
	"github.com/nxp-qmc/qmc2g-core/internal/restapi/middleware"
	"github.com/nxp-qmc/qmc2g-core/internal/usermgmt"
)

type sessionView struct {
	SID       int    `json:"sid"`
	UID       int    `json:"uid"`
	Role      int    `json:"role"`
	IssuedAt  int64  `json:"issued_at"`
	ExpiresAt int64  `json:"expires_at"`
}

func toSessionView(s usermgmt.Session) sessionView {
	return sessionView{
		SID:       int(s.SID),
		UID:       int(s.UID),
		Role:      int(s.Role),
		IssuedAt:  s.IssuedAt,
		ExpiresAt: s.ExpiresAt,
	}
}

type createSessionRequest struct {
	Name       string `json:"name" validate:"required"`
	Passphrase string `json:"passphrase" validate:"required"`
}

type createSessionResponse struct {
	Token   string      `json:"token"`
	Session sessionView `json:"session"`
}

// CreateSession handles POST /session, authenticating name/passphrase and
// returning a bearer token, ported from USRMGMT_CreateSession's webservice
// front door.
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	token, sess, err := h.Users.CreateSession([]byte(req.Name), []byte(req.Passphrase))
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{Token: token, Session: toSessionView(sess)})
}

// GetSession handles GET /session[/{sid}], returning the caller's own
// session, or (Maintenance-only) another live session named by sid.
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	raw := chi.URLParam(r, "sid")
	if raw == "" {
		writeJSON(w, http.StatusOK, toSessionView(sess))
		return
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "sid must be an integer")
		return
	}
	target := usermgmt.SessionID(n)
	if target == sess.SID {
		writeJSON(w, http.StatusOK, toSessionView(sess))
		return
	}
	if sess.Role != configstore.RoleMaintenance {
		writeError(w, http.StatusForbidden, "maintenance role required to view another session")
		return
	}

	found, ok := h.findSessionByID(target)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, toSessionView(found))
}

// findSessionByID walks the live session list, since the core manager
// exposes no direct lookup by SID.
func (h *Handlers) findSessionByID(target usermgmt.SessionID) (usermgmt.Session, bool) {
	for count := 0; ; {
		next, sess, err := h.Users.IterateSessions(count)
		if err != nil {
			return usermgmt.Session{}, false
		}
		if sess.SID == target {
			return sess, true
		}
		count = next
	}
}

// ListSessions handles GET /sessions, iterating every live session,
// available to Maintenance callers only, ported from
// USRMGMT_IterateSessions's webservice front door.
func (h *Handlers) ListSessions(w http.ResponseWriter, r *http.Request) {
	var sessions []sessionView
	for count := 0; ; {
		next, sess, err := h.Users.IterateSessions(count)
		if err != nil {
			break
		}
		sessions = append(sessions, toSessionView(sess))
		count = next
	}
	writeJSON(w, http.StatusOK, sessions)
}

// EndSession handles DELETE /session/{sid}, ending the caller's own session
// or (Maintenance-only) another session, ported from USRMGMT_EndSession.
func (h *Handlers) EndSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	target := sess.SID
	if raw := chi.URLParam(r, "sid"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "sid must be an integer")
			return
		}
		target = usermgmt.SessionID(n)
		if target != sess.SID && sess.Role != configstore.RoleMaintenance {
			writeError(w, http.StatusForbidden, "maintenance role required to end another session")
			return
		}
	}

	if err := h.Users.EndSession(sess.SID, target); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
