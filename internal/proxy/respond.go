// Package proxy implements the local HTTP API the desktop client talks to.
//
// DESIGN: Handlers delegate to the upstream client and the orders package;
// their own job is route-specific reshaping: envelope wrapping, Portuguese
// error messages, validation, and the fallbacks that keep the client's
// screens rendering when the backend misbehaves.
package proxy

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/sgr-desktop/sgr-proxy/internal/normalize"
	"github.com/sgr-desktop/sgr-proxy/internal/utils"
)

// writeJSON marshals v without HTML escaping and writes it with the status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := utils.MarshalNoEscape(v)
	if err != nil {
		log.Error().Err(err).Msg("response marshal failed")
		http.Error(w, `{"status":"error","message":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeRaw writes pre-rendered canonical JSON.
func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeError writes a plain error envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, normalize.Error(message))
}

// writeSuccess writes a success envelope with data.
func writeSuccess(w http.ResponseWriter, message string, data any) {
	env := normalize.Success(message)
	env.Data = data
	writeJSON(w, http.StatusOK, env)
}
