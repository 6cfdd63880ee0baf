package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/nxp-qmc/qmc2g-core/internal/logpipeline"
)

type logRecordView struct {
	UUID      uint64 `json:"uuid"`
	Timestamp int64  `json:"timestamp"`
	Type      string `json:"type"`
	Data      any    `json:"data"`
}

func toLogRecordView(rec logpipeline.Record) logRecordView {
	return logRecordView{
		UUID:      rec.Head.UUID,
		Timestamp: rec.Head.Timestamp.Unix(),
		Type:      fmt.Sprintf("0x%02x", rec.Data.Type()),
		Data:      rec.Data,
	}
}

// GetLog handles GET /log?pre=N&last=M, returning up to N records ending
// at id M (or the newest record if last is omitted), tagged with an ETag
// of form W/"LOG-<firstId>-<lastId>" so repeat pollers can cheaply detect
// an unchanged page.
func (h *Handlers) GetLog(w http.ResponseWriter, r *http.Request) {
	pre := 20
	if raw := r.URL.Query().Get("pre"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "pre must be a positive integer")
			return
		}
		pre = n
	}

	last, err := h.Log.LastID()
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	if raw := r.URL.Query().Get("last"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "last must be a non-negative integer")
			return
		}
		last = n
	}

	first := uint64(0)
	if last+1 > uint64(pre) {
		first = last + 1 - uint64(pre)
	}

	var records []logRecordView
	for id := first; id <= last; id++ {
		rec, err := h.Log.GetRecord(id)
		if err != nil {
			continue
		}
		records = append(records, toLogRecordView(rec))
	}

	w.Header().Set("ETag", fmt.Sprintf(`W/"LOG-%d-%d"`, first, last))
	writeJSON(w, http.StatusOK, records)
}
