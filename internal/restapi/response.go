package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nxp-qmc/qmc2g-core/internal/qmcerr"
	"github.com/nxp-qmc/qmc2g-core/internal/usermgmt"
)

// writeJSON encodes data as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// errorBody is the common error shape every endpoint returns on
// failure: {"error": "<message>"}.
type errorBody struct {
	Error string `json:"error"`
}

// writeError writes the common error body at status, ported from the
// REST surface's "{"error":"<message>"}" contract.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// writeCoreError maps a core package's qmcerr-wrapped error to an HTTP
// status and writes it, tracking the status class through statusClass
// for the webservice error-count logger.
func writeCoreError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := mapCoreError(err)
	recordError(r, status)
	writeError(w, status, msg)
}

// mapCoreError resolves the HTTP status and user-facing message for an
// error returned by internal/usermgmt, internal/motorbus,
// internal/configstore, or internal/lifecycle. Sentinels with a
// dedicated REST meaning are checked first; everything else falls back
// to its wrapped qmcerr.Kind.
func mapCoreError(err error) (status int, message string) {
	switch {
	case errors.Is(err, usermgmt.ErrUserNotFound),
		errors.Is(err, usermgmt.ErrNoMoreUsers),
		errors.Is(err, usermgmt.ErrNoMoreSessions),
		errors.Is(err, usermgmt.ErrInvalidSession):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, usermgmt.ErrAuthenticationFailed),
		errors.Is(err, usermgmt.ErrTokenExpired),
		errors.Is(err, usermgmt.ErrTokenMalformed),
		errors.Is(err, usermgmt.ErrTokenSignatureInvalid):
		return http.StatusUnauthorized, "authentication failed"
	case errors.Is(err, usermgmt.ErrAccountLocked):
		return http.StatusLocked, err.Error()
	case errors.Is(err, usermgmt.ErrPolicyViolation), errors.Is(err, usermgmt.ErrPassphraseReused):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, usermgmt.ErrNoFreeSlot), errors.Is(err, usermgmt.ErrSessionFull):
		return http.StatusInsufficientStorage, err.Error()
	}

	switch {
	case qmcerr.Is(err, qmcerr.ArgInvalid), qmcerr.Is(err, qmcerr.OutOfRange), qmcerr.Is(err, qmcerr.NoBufs):
		return http.StatusBadRequest, err.Error()
	case qmcerr.Is(err, qmcerr.SignatureInvalid):
		return http.StatusUnauthorized, err.Error()
	case qmcerr.Is(err, qmcerr.Busy), qmcerr.Is(err, qmcerr.Interrupted):
		return http.StatusConflict, err.Error()
	case qmcerr.Is(err, qmcerr.Timeout):
		return http.StatusGatewayTimeout, err.Error()
	case qmcerr.Is(err, qmcerr.NoMem), qmcerr.Is(err, qmcerr.Sync), qmcerr.Is(err, qmcerr.NoMsg):
		return http.StatusServiceUnavailable, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
