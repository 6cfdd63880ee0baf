package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/nxp-qmc/qmc2g-core/internal/motorbus"
)

type motorStatusView struct {
	MotorID   string  `json:"motor_id"`
	State     uint8   `json:"state"`
	FaultMask uint32  `json:"fault_mask"`
	Iabc      [3]float64 `json:"iabc"`
	Valpha    float64 `json:"v_alpha"`
	Vbeta     float64 `json:"v_beta"`
	Vbus      float64 `json:"v_bus"`
	AppSwitch uint8   `json:"app_switch"`
	Speed     float64 `json:"speed"`
	NumTurns  int16   `json:"num_turns"`
	Angle     uint16  `json:"angle"`
}

func toMotorStatusView(id motorbus.MotorID, s motorbus.Status) motorStatusView {
	return motorStatusView{
		MotorID:   id.String(),
		State:     uint8(s.Fast.State),
		FaultMask: s.Fast.FaultMask,
		Iabc:      [3]float64{s.Fast.PhaseA, s.Fast.PhaseB, s.Fast.PhaseC},
		Valpha:    s.Fast.Valpha,
		Vbeta:     s.Fast.Vbeta,
		Vbus:      s.Fast.DCBusVolts,
		AppSwitch: uint8(s.Slow.AppSwitch),
		Speed:     s.Slow.Speed,
		NumTurns:  s.Slow.Position.NumTurns,
		Angle:     s.Slow.Position.RotorPosition,
	}
}

func parseMotorID(raw string) (motorbus.MotorID, bool) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > motorbus.MaxMotors {
		return 0, false
	}
	return motorbus.MotorID(n - 1), true
}

// GetMotors handles GET /motors, returning every motor's latest known
// status from the cache internal/motorbus.Bus's status fan-out feeds.
func (h *Handlers) GetMotors(w http.ResponseWriter, r *http.Request) {
	statuses := h.statuses.All()
	views := make([]motorStatusView, 0, motorbus.MaxMotors)
	for i, s := range statuses {
		views = append(views, toMotorStatusView(motorbus.MotorID(i), s))
	}
	writeJSON(w, http.StatusOK, views)
}

// GetMotor handles GET /motors/{id}.
func (h *Handlers) GetMotor(w http.ResponseWriter, r *http.Request) {
	id, ok := parseMotorID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "id must be between 1 and 4")
		return
	}
	status, have := h.statuses.Get(id)
	if !have {
		writeError(w, http.StatusServiceUnavailable, "no status sample received yet")
		return
	}
	writeJSON(w, http.StatusOK, toMotorStatusView(id, status))
}

type motorCommandRequest struct {
	AppSwitch     uint8    `json:"app_switch"`
	ControlMethod uint8    `json:"control_method"`
	Speed         float64  `json:"speed"`
	VHzGain       *float64 `json:"v_hz_gain"`
	Frequency     *float64 `json:"frequency"`
	NumTurns      *int16   `json:"num_turns"`
	Angle         *uint16  `json:"angle"`
	IsRandom      bool     `json:"is_random"`
}

// IssueMotorCommand handles POST/PUT /motors/{id}, queueing a motor
// command built from the request body onto the bus.
func (h *Handlers) IssueMotorCommand(w http.ResponseWriter, r *http.Request) {
	id, ok := parseMotorID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "id must be between 1 and 4")
		return
	}

	var req motorCommandRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	cmd := motorbus.Command{
		MotorID:       id,
		AppSwitch:     motorbus.AppSwitch(req.AppSwitch),
		ControlMethod: motorbus.ControlMethod(req.ControlMethod),
		Speed:         req.Speed,
	}
	switch cmd.ControlMethod {
	case motorbus.ScalarControl:
		if req.VHzGain == nil || req.Frequency == nil {
			writeError(w, http.StatusBadRequest, "v_hz_gain and frequency are required for scalar control")
			return
		}
		cmd.Scalar = &motorbus.ScalarParams{VHzGain: *req.VHzGain, Frequency: *req.Frequency}
	case motorbus.FOCPositionControl:
		if req.NumTurns == nil || req.Angle == nil {
			writeError(w, http.StatusBadRequest, "num_turns and angle are required for position control")
			return
		}
		cmd.PositionCmd = &motorbus.PositionParams{
			Position:         motorbus.Position{NumTurns: *req.NumTurns, RotorPosition: *req.Angle},
			IsRandomPosition: req.IsRandom,
		}
	}

	if err := h.Motors.QueueCommand(r.Context(), cmd); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
