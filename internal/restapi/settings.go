package api

import (
	"encoding/hex"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nxp-qmc/qmc2g-core/internal/configstore"
)

// settingsKeys enumerates the network/cloud cells the settings endpoint
// lists; the ten User*/UserHashes* slots are exposed through /users
// instead.
var settingsKeys = []configstore.Key{
	configstore.KeyCloud1Parameters,
	configstore.KeyCloud2Parameters,
	configstore.KeyIP,
	configstore.KeyIPMask,
	configstore.KeyIPGateway,
	configstore.KeyIPDNS,
	configstore.KeyMACAddress,
	configstore.KeyVLANID,
	configstore.KeyTSNRxStreamMAC,
	configstore.KeyTSNTxStreamMAC,
	configstore.KeyCloudAzureHubName,
	configstore.KeyCloudGenericHost,
	configstore.KeyCloudGenericUser,
	configstore.KeyCloudGenericPass,
	configstore.KeyCloudGenericDevice,
	configstore.KeyCloudGenericPort,
	configstore.KeyMOTD,
}

type settingView struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ListSettings handles GET /settings, listing every cell in settingsKeys
// hex-encoded.
func (h *Handlers) ListSettings(w http.ResponseWriter, r *http.Request) {
	views := make([]settingView, 0, len(settingsKeys))
	for _, key := range settingsKeys {
		value, ok, err := h.Config.GetBin(key)
		if err != nil {
			writeCoreError(w, r, err)
			return
		}
		if !ok {
			value = nil
		}
		views = append(views, settingView{Key: key.String(), Value: hex.EncodeToString(value)})
	}
	writeJSON(w, http.StatusOK, views)
}

// GetSetting handles GET /settings/{key}.
func (h *Handlers) GetSetting(w http.ResponseWriter, r *http.Request) {
	key := configstore.KeyFromString(chi.URLParam(r, "key"))
	if key == configstore.KeyNone || !key.Valid() {
		writeError(w, http.StatusNotFound, "unknown setting")
		return
	}
	value, ok, err := h.Config.GetBin(key)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	if !ok {
		value = nil
	}
	writeJSON(w, http.StatusOK, settingView{Key: key.String(), Value: hex.EncodeToString(value)})
}

type setSettingRequest struct {
	Value string `json:"value" validate:"required"`
}

// SetSetting handles PUT /settings/{key}, decoding the request's hex value
// and writing it to the named cell.
func (h *Handlers) SetSetting(w http.ResponseWriter, r *http.Request) {
	key := configstore.KeyFromString(chi.URLParam(r, "key"))
	if key == configstore.KeyNone || !key.Valid() || key.IsUser() || key.IsUserHashes() {
		writeError(w, http.StatusNotFound, "unknown setting")
		return
	}

	var req setSettingRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	value, err := hex.DecodeString(req.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, "value must be hex-encoded")
		return
	}
	if err := h.Config.SetBin(key, value); err != nil {
		writeCoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
