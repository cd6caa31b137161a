package proxy

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sgr-desktop/sgr-proxy/internal/config"
	"github.com/sgr-desktop/sgr-proxy/internal/orders"
)

// TopProducts ranks the restaurant's best sellers for a period.
func (h *Handler) TopProducts(w http.ResponseWriter, r *http.Request) {
	restaurantID := urlParamInt64(r, "restauranteID")
	period := chi.URLParam(r, "periodo")
	if !orders.ValidPeriod(period) {
		writeError(w, http.StatusBadRequest, "Período inválido. Use: semanal, mensal ou anual")
		return
	}

	status, body, ok := h.fetchOrders(r)
	if !ok {
		writeError(w, status, fmt.Sprintf("Erro ao buscar pedidos: Status %d", status))
		return
	}

	ranks := orders.TopProducts(body, restaurantID, period, h.now(), config.TopProductsLimit)
	if ranks == nil {
		ranks = []orders.ProductRank{}
	}
	writeSuccess(w, "", map[string]any{
		"periodo":  period,
		"produtos": ranks,
	})
}

// Sales returns the labeled sales-over-time series for a period.
func (h *Handler) Sales(w http.ResponseWriter, r *http.Request) {
	restaurantID := urlParamInt64(r, "restauranteID")
	period := chi.URLParam(r, "periodo")
	if !orders.ValidPeriod(period) {
		writeError(w, http.StatusBadRequest, "Período inválido. Use: semanal, mensal ou anual")
		return
	}

	status, body, ok := h.fetchOrders(r)
	if !ok {
		writeError(w, status, fmt.Sprintf("Erro ao buscar pedidos: Status %d", status))
		return
	}
	writeSuccess(w, "", orders.SalesSeries(body, restaurantID, period, h.now()))
}

// DashboardView computes the metric cards and seven-day charts. A backend
// failure degrades to empty cards with a 200: the dashboard screen renders
// zeros instead of an error page.
func (h *Handler) DashboardView(w http.ResponseWriter, r *http.Request) {
	restaurantID := urlParamInt64(r, "restauranteID")

	_, body, ok := h.fetchOrders(r)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "success",
			"data":    map[string]any{"cards": map[string]any{}, "graficos": map[string]any{}},
			"message": "Dashboard carregado (erro ao buscar dados)",
		})
		return
	}
	writeSuccess(w, "", orders.BuildDashboard(body, restaurantID, h.now()))
}
