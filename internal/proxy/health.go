package proxy

import (
	"net/http"
	"time"
)

// Health reports the proxy's own liveness plus a live check of the backend.
// The client's connection screen polls this before offering login.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status, _ := h.client.Forward(r.Context(), http.MethodGet, "", nil, nil, 0)

	upstreamStatus := "inactive"
	if status == http.StatusOK {
		upstreamStatus = "active"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "success",
		"message":            "Proxy local está funcionando!",
		"api_externa_status": upstreamStatus,
		"api_externa_url":    h.cfg.Upstream.BaseURL,
		"timestamp":          h.now().Format(time.RFC3339),
	})
}
