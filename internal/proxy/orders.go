package proxy

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/sgr-desktop/sgr-proxy/internal/normalize"
	"github.com/sgr-desktop/sgr-proxy/internal/orders"
)

// ListOrders returns one restaurant's orders, optionally filtered by status
// and date range. An upstream failure surfaces as an error at the upstream
// status; only an empty filtered listing falls back to the sample orders
// that keep the client's order screen populated.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	restaurantID := urlParamInt64(r, "restauranteID")
	q := r.URL.Query()
	filters := orders.Filters{
		Status:   q.Get("status"),
		DateFrom: q.Get("data_inicio"),
		DateTo:   q.Get("data_fim"),
	}

	status, body, ok := h.fetchOrders(r)
	if !ok {
		writeError(w, status, fmt.Sprintf("Erro ao buscar pedidos: Status %d", status))
		return
	}
	list := gjson.ParseBytes(orders.FilterOrders(body, restaurantID, filters)).Array()

	if len(list) == 0 {
		log.Debug().Int64("restaurante_id", restaurantID).Msg("empty order listing, serving samples")
		samples := orders.SampleOrders(h.now(), filters.Status)
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "success",
			"data":   samples,
			"count":  len(samples),
		})
		return
	}

	data := make([]any, len(list))
	for i, o := range list {
		data[i] = o.Value()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   data,
		"count":  len(data),
	})
}

// CompletedOrders returns only the finished orders, the analytics input.
func (h *Handler) CompletedOrders(w http.ResponseWriter, r *http.Request) {
	restaurantID := urlParamInt64(r, "restauranteID")

	status, body, ok := h.fetchOrders(r)
	if !ok {
		writeJSON(w, status, map[string]any{
			"status":  "error",
			"message": fmt.Sprintf("Erro ao buscar pedidos: Status %d", status),
			"data":    []any{},
		})
		return
	}

	completed := gjson.ParseBytes(orders.CompletedOrders(body, restaurantID)).Array()
	data := make([]any, len(completed))
	for i, o := range completed {
		data[i] = o.Value()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   data,
		"count":  len(data),
	})
}

// OrderDetail looks one order up in the listing and reshapes it for the
// detail screen. The backend has no GET /pedidos/{id}.
func (h *Handler) OrderDetail(w http.ResponseWriter, r *http.Request) {
	orderID := urlParamInt64(r, "pedidoID")

	status, body, ok := h.fetchOrders(r)
	if !ok {
		writeError(w, status, fmt.Sprintf("Erro ao buscar pedidos: Status %d", status))
		return
	}

	order, found := orders.FindOrder(body, orderID)
	if !found {
		writeError(w, http.StatusNotFound, "Pedido não encontrado")
		return
	}
	writeSuccess(w, "", orders.BuildDetail(order))
}

// UpdateOrderStatus forwards a status change, translating the client's
// vocabulary to the backend's and replacing its terse errors with messages
// a restaurant operator can act on.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := urlParamInt64(r, "pedidoID")

	body := gjson.ParseBytes(readBody(r))
	if !body.IsObject() {
		writeError(w, http.StatusBadRequest, "Dados não fornecidos")
		return
	}
	raw := body.Get("status").String()
	if raw == "" {
		writeError(w, http.StatusBadRequest, "Status não fornecido")
		return
	}

	mapped := orders.MapStatus(raw)
	log.Info().Int64("pedido", orderID).Str("status", mapped).Msg("updating order status")

	query := url.Values{"status": {mapped}}
	status, resp := h.client.Forward(r.Context(), http.MethodPut,
		fmt.Sprintf("pedidos/%d/status-restaurante", orderID), nil, query, 0)

	if status >= 400 {
		writeError(w, status, statusUpdateError(status, resp, orderID, mapped))
		return
	}

	if status == http.StatusOK {
		root := gjson.ParseBytes(resp)
		switch {
		case root.Get("id").Exists() || (root.IsObject() && root.Get("status").Exists() && !root.Get("message").Exists()):
			env := normalize.Success("Status atualizado com sucesso")
			env.Data = root.Value()
			writeJSON(w, http.StatusOK, env)
		case root.Get("message").Exists():
			msg := root.Get("message").String()
			if containsErrorWord(msg) {
				writeError(w, http.StatusBadRequest, msg)
				return
			}
			writeJSON(w, http.StatusOK, normalize.Success(msg))
		default:
			env := normalize.Success("Status atualizado com sucesso")
			if root.IsObject() {
				env.Data = root.Value()
			}
			writeJSON(w, http.StatusOK, env)
		}
		return
	}
	writeRaw(w, status, ensureEnvelope(resp, "Status atualizado com sucesso"))
}

func statusUpdateError(status int, resp []byte, orderID int64, mapped string) string {
	switch status {
	case http.StatusUnauthorized:
		return "Sessão expirada. Faça login novamente."
	case http.StatusForbidden:
		return "Você não tem permissão para atualizar este pedido."
	case http.StatusNotFound:
		return fmt.Sprintf("Pedido #%d não encontrado.", orderID)
	case http.StatusBadRequest:
		if msg := gjson.GetBytes(resp, "message").String(); msg != "" {
			return msg
		}
		return fmt.Sprintf("Status %q inválido ou não permitido para este pedido.", mapped)
	}
	return messageOrDefault(resp, "Erro ao atualizar status")
}

func containsErrorWord(msg string) bool {
	lower := strings.ToLower(msg)
	for _, word := range []string{"erro", "error", "falha", "inválido", "invalid"} {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}
