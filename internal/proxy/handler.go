package proxy

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tidwall/gjson"

	"github.com/sgr-desktop/sgr-proxy/internal/config"
	"github.com/sgr-desktop/sgr-proxy/internal/upstream"
)

// Handler carries the shared dependencies of all proxy routes.
type Handler struct {
	cfg    *config.Config
	client *upstream.Client

	// now is swappable so analytics tests can pin the clock.
	now func() time.Time
}

// NewHandler builds the route handler set.
func NewHandler(cfg *config.Config, client *upstream.Client) *Handler {
	return &Handler{cfg: cfg, client: client, now: time.Now}
}

// urlParamInt64 reads a numeric chi URL parameter, zero when malformed.
// Routes validate separately where zero is not acceptable.
func urlParamInt64(r *http.Request, name string) int64 {
	n, _ := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return n
}

// readBody consumes and returns the request body, empty on error.
func readBody(r *http.Request) []byte {
	if r.Body == nil {
		return nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil
	}
	return body
}

// fetchOrders pulls the full order listing from the backend. The bool is
// false when the upstream answered with an error status.
func (h *Handler) fetchOrders(r *http.Request) (int, []byte, bool) {
	status, body := h.client.Forward(r.Context(), http.MethodGet, "pedidos/restaurante", nil, nil, 0)
	return status, body, status == http.StatusOK
}

// messageOrDefault extracts "message" from an envelope, or the fallback.
func messageOrDefault(body []byte, fallback string) string {
	if msg := gjson.GetBytes(body, "message").String(); msg != "" {
		return msg
	}
	return fallback
}
