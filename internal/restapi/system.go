package api

import (
	"fmt"
	"net/http"

	"github.com/nxp-qmc/qmc2g-core/internal/configstore"
	"github.com/nxp-qmc/qmc2g-core/internal/lifecycle"
	"github.com/nxp-qmc/qmc2g-core/internal/logpipeline"
)

type systemView struct {
	DeviceID   string `json:"deviceId"`
	Lifecycle  string `json:"lifecycle"`
	FWVersion  string `json:"fwVersion"`
}

func (h *Handlers) deviceID() string {
	if h.Device == nil {
		return ""
	}
	return h.Device.DeviceID()
}

// GetSystem handles GET /system.
func (h *Handlers) GetSystem(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, systemView{
		DeviceID:  h.deviceID(),
		Lifecycle: h.Lifecycle.State().String(),
		FWVersion: h.FWVersion,
	})
}

type setLifecycleRequest struct {
	Lifecycle string `json:"lifecycle" validate:"required"`
}

// SetSystem handles POST /system, driving the lifecycle transition named
// in the request body. The Error → Maintenance and Maintenance →
// Operational edges and the any-state → Decommissioning edge are
// reachable this way; RequireMaintenance gates the route.
func (h *Handlers) SetSystem(w http.ResponseWriter, r *http.Request) {
	var req setLifecycleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	var err error
	switch req.Lifecycle {
	case lifecycle.Maintenance.String():
		err = h.Lifecycle.EnterMaintenance()
	case lifecycle.Operational.String():
		err = h.Lifecycle.EnterOperational()
	case lifecycle.Decommissioning.String():
		err = h.Lifecycle.EnterDecommissioning()
	default:
		writeError(w, http.StatusBadRequest, "unsupported lifecycle target")
		return
	}
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, systemView{
		DeviceID:  h.deviceID(),
		Lifecycle: h.Lifecycle.State().String(),
		FWVersion: h.FWVersion,
	})
}

type timeView struct {
	Time string `json:"time"`
}

// GetTime handles GET /time, encoding the current wall-clock time as
// "<sec><msec3>", BOARD_GetTime's qmc_timestamp_t serialized as one
// decimal field.
func (h *Handlers) GetTime(w http.ResponseWriter, r *http.Request) {
	seconds, millis, ok := h.Clock.NowMillis()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "clock not set")
		return
	}
	writeJSON(w, http.StatusOK, timeView{Time: fmt.Sprintf("%d%03d", seconds, millis)})
}

type setTimeRequest struct {
	Time string `json:"time" validate:"required"`
}

// SetTime handles POST /time, parsing the same "<sec><msec3>" encoding
// and applying it via RPC_SetTimeToRTC's equivalent, SystemClock.Set.
func (h *Handlers) SetTime(w http.ResponseWriter, r *http.Request) {
	var req setTimeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if len(req.Time) < 4 {
		writeError(w, http.StatusBadRequest, "time must encode seconds followed by a 3-digit millisecond field")
		return
	}
	secStr, msStr := req.Time[:len(req.Time)-3], req.Time[len(req.Time)-3:]
	var seconds int64
	var millis uint16
	if _, err := fmt.Sscanf(secStr, "%d", &seconds); err != nil {
		writeError(w, http.StatusBadRequest, "malformed time value")
		return
	}
	if _, err := fmt.Sscanf(msStr, "%d", &millis); err != nil {
		writeError(w, http.StatusBadRequest, "malformed time value")
		return
	}
	h.Clock.Set(seconds, millis)
	w.WriteHeader(http.StatusNoContent)
}

// GetMOTD handles GET /motd, serving the message-of-the-day configuration
// cell verbatim.
func (h *Handlers) GetMOTD(w http.ResponseWriter, r *http.Request) {
	value, ok, err := h.Config.GetBin(configstore.KeyMOTD)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	if !ok {
		value = nil
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(value)
}

// Reset handles POST /reset, requesting a flash-drained shutdown and
// reset with cause ResetRequest, ported from the webservice reset
// endpoint's use of the same shutdown path power loss and watchdog
// reset take.
func (h *Handlers) Reset(w http.ResponseWriter, r *http.Request) {
	if h.Reset == nil {
		writeError(w, http.StatusServiceUnavailable, "reset not available")
		return
	}
	h.Reset.RequestShutdown(logpipeline.ShutdownResetRequest)
	w.WriteHeader(http.StatusAccepted)
}
