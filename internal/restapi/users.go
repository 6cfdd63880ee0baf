package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nxp-qmc/qmc2g-core/internal/configstore"
	"github.com/nxp-qmc/qmc2g-core/internal/restapi/middleware"
)

type userView struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

func roleToString(role configstore.Role) string {
	switch role {
	case configstore.RoleMaintenance:
		return "maintenance"
	case configstore.RoleOperator:
		return "operator"
	default:
		return "none"
	}
}

func roleFromString(s string) configstore.Role {
	switch s {
	case "maintenance":
		return configstore.RoleMaintenance
	case "operator":
		return configstore.RoleOperator
	default:
		return configstore.RoleNone
	}
}

func toUserView(cfg configstore.UserConfig) userView {
	name := bytes.TrimRight(cfg.Name[:], "\x00")
	return userView{Name: string(name), Role: roleToString(cfg.Role)}
}

// ListUsers handles GET /users, ported from USRMGMT_IterateUsers's
// webservice front door.
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	var users []userView
	for count := 0; ; {
		next, _, cfg, err := h.Users.IterateUsers(count)
		if err != nil {
			break
		}
		users = append(users, toUserView(cfg))
		count = next
	}
	writeJSON(w, http.StatusOK, users)
}

// GetUser handles GET /users/{name}. internal/usermgmt.Manager exposes no
// find-by-name accessor of its own (only the unexported slot scan
// AddUser/RemoveUser use), so this walks IterateUsers and matches client
// side, the same surface api_usermanagement.h itself offers.
func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	for count := 0; ; {
		next, _, cfg, err := h.Users.IterateUsers(count)
		if err != nil {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		if string(bytes.TrimRight(cfg.Name[:], "\x00")) == name {
			writeJSON(w, http.StatusOK, toUserView(cfg))
			return
		}
		count = next
	}
}

type createUserRequest struct {
	Name       string `json:"name" validate:"required"`
	Passphrase string `json:"passphrase" validate:"required"`
	Role       string `json:"role" validate:"required"`
}

// CreateUser handles POST /users, ported from USRMGMT_AddUser's webservice
// front door.
func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	role := roleFromString(req.Role)
	if role == configstore.RoleNone {
		writeError(w, http.StatusBadRequest, "role must be \"maintenance\" or \"operator\"")
		return
	}

	sess, _ := middleware.GetSession(r.Context())
	if err := h.Users.AddUser(sess.SID, []byte(req.Name), []byte(req.Passphrase), role); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

type updateUserRequest struct {
	UID        int    `json:"uid" validate:"required"`
	Passphrase string `json:"passphrase" validate:"required"`
	Role       string `json:"role" validate:"required"`
}

// UpdateUser handles PUT /users/{name}, ported from USRMGMT_UpdateUser's
// webservice front door.
func (h *Handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	role := roleFromString(req.Role)
	if role == configstore.RoleNone {
		writeError(w, http.StatusBadRequest, "role must be \"maintenance\" or \"operator\"")
		return
	}

	sess, _ := middleware.GetSession(r.Context())
	if err := h.Users.UpdateUser(sess.SID, configstore.Key(req.UID), []byte(req.Passphrase), role); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveUser handles DELETE /users/{name}, ported from USRMGMT_RemoveUser's
// webservice front door.
func (h *Handlers) RemoveUser(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	sess, _ := middleware.GetSession(r.Context())
	if err := h.Users.RemoveUser(sess.SID, []byte(name)); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type lockUserRequest struct {
	ReactivateAt int64 `json:"reactivate_at"`
}

// LockUser handles POST /users/{name}/lock, ported from USRMGMT_LockUser's
// webservice front door.
func (h *Handlers) LockUser(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req lockUserRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if err := h.Users.LockUser([]byte(name), req.ReactivateAt); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UnlockUser handles POST /users/{name}/unlock, ported from
// USRMGMT_UnlockUser's webservice front door.
func (h *Handlers) UnlockUser(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.Users.UnlockUser([]byte(name)); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
