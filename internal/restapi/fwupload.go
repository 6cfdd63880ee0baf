package api

import (
	"encoding/hex"
	"io"
	"net/http"
	"path/filepath"

	"github.com/nxp-qmc/qmc2g-core/internal/configstore"
)

// firmwareUploadWriteRetries bounds how many times a single chunk write is
// retried before the upload is aborted, ported from
// WEBSERVICE_FIRMWARE_UPLOAD_WRITE_RETRIES.
const firmwareUploadWriteRetries = 3

type fwUploadResponse struct {
	Bytes            uint64 `json:"bytes"`
	SHA256           string `json:"sha256"`
	SectorWrites     int    `json:"sector_writes"`
	SectorRetryCount int    `json:"sector_retry_count"`
}

// FirmwareUpload handles POST /fwupload, streaming the request body into a
// staging file sector-by-sector through configstore.FwUpdateWriter,
// retrying a failed sector write up to firmwareUploadWriteRetries times
// before giving up, ported from plug_qmc_fw_upload.c's chunked write
// handler.
func (h *Handlers) FirmwareUpload(w http.ResponseWriter, r *http.Request) {
	writer, err := configstore.NewFwUpdateWriter(filepath.Join(h.FwStagingDir, "fwupdate.bin"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cannot open firmware staging file")
		return
	}

	var offset uint64
	retryCount := 0
	buf := make([]byte, configstore.FwUpdateSectorSize)

	for {
		n, readErr := io.ReadFull(r.Body, buf)
		if n == 0 {
			break
		}
		chunk := buf[:n]

		var writeErr error
		for attempt := 0; attempt <= firmwareUploadWriteRetries; attempt++ {
			writeErr = writer.WriteChunk(offset, chunk)
			if writeErr == nil {
				break
			}
			retryCount++
		}
		if writeErr != nil {
			writeCoreError(w, r, writeErr)
			return
		}
		offset += uint64(n)

		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			writeError(w, http.StatusBadRequest, "error reading upload body")
			return
		}
	}

	bytesWritten, sum, err := writer.Finish()
	if err != nil {
		writeCoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, fwUploadResponse{
		Bytes:            bytesWritten,
		SHA256:           hex.EncodeToString(sum[:]),
		SectorWrites:     writer.SectorWrites(),
		SectorRetryCount: retryCount,
	})
}
