package proxy

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/sgr-desktop/sgr-proxy/internal/orders"
)

// RestaurantReviews proxies the restaurant-level review listing verbatim.
// The backend already scopes it by restaurant, so no reshaping is needed.
func (h *Handler) RestaurantReviews(w http.ResponseWriter, r *http.Request) {
	restaurantID := urlParamInt64(r, "restauranteID")
	status, body := h.client.Forward(r.Context(), http.MethodGet,
		fmt.Sprintf("avaliacoes/%d", restaurantID), nil, nil, restaurantID)
	writeRaw(w, status, body)
}

// DishReviews lists per-dish reviews for one restaurant. The backend endpoint
// returns reviews for every restaurant, so the handler filters by the dish's
// restaurant reference, falling back to a membership check against the
// restaurant's own menu item ids.
func (h *Handler) DishReviews(w http.ResponseWriter, r *http.Request) {
	restaurantID := urlParamInt64(r, "restauranteID")

	status, body := h.client.Forward(r.Context(), http.MethodGet, "avaliacoes-prato", nil, nil, restaurantID)
	if status >= http.StatusBadRequest {
		msg := firstOf(gjson.ParseBytes(body), "message", "error").String()
		if msg == "" {
			msg = fmt.Sprintf("Erro ao buscar avaliações de pratos: Status %d", status)
		}
		writeError(w, status, msg)
		return
	}

	all := extractReviewList(body)
	itemIDs := h.menuItemIDs(r, restaurantID)

	var kept []string
	var sum float64
	for _, review := range all {
		if !review.IsObject() {
			continue
		}
		if !reviewBelongsTo(review, restaurantID, itemIDs) {
			continue
		}
		kept = append(kept, review.Raw)
		sum += review.Get("nota").Float()
	}

	average := 0.0
	if len(kept) > 0 {
		average = math.Round(sum/float64(len(kept))*100) / 100
	}

	writeSuccess(w, "", map[string]any{
		"avaliacoes": json.RawMessage("[" + strings.Join(kept, ",") + "]"),
		"resumo": map[string]any{
			"media_notas":      average,
			"total_avaliacoes": len(kept),
		},
	})
}

// CreateDishReview validates the minimum review payload and forwards it.
func (h *Handler) CreateDishReview(w http.ResponseWriter, r *http.Request) {
	body := readBody(r)
	if len(body) == 0 || !gjson.ValidBytes(body) {
		writeError(w, http.StatusBadRequest, "Dados não fornecidos")
		return
	}
	if !gjson.GetBytes(body, "nota").Exists() || !gjson.GetBytes(body, "prato").Exists() {
		writeError(w, http.StatusBadRequest, "Campos obrigatórios: nota e prato.id")
		return
	}

	status, resp := h.client.Forward(r.Context(), http.MethodPost, "avaliacoes-prato", body, nil, 0)
	writeRaw(w, status, resp)
}

// extractReviewList accepts a bare array or an envelope keyed by
// "avaliacoes" or "data".
func extractReviewList(body []byte) []gjson.Result {
	root := gjson.ParseBytes(body)
	if root.IsArray() {
		return root.Array()
	}
	for _, key := range []string{"avaliacoes", "data"} {
		if list := root.Get(key); list.IsArray() {
			return list.Array()
		}
	}
	return nil
}

// reviewBelongsTo reports whether the review's dish belongs to the
// restaurant, either by an explicit restaurant reference on the dish or by
// the dish id appearing in the restaurant's menu.
func reviewBelongsTo(review gjson.Result, restaurantID int64, itemIDs map[int64]bool) bool {
	dish := review.Get("prato")
	if !dish.IsObject() {
		return false
	}

	var dishRestaurant int64
	for _, path := range []string{
		"restaurante.id",
		"restaurante_id",
		"itemRestaurante.restaurante.id",
		"itemRestaurante.restaurante_id",
	} {
		if v := dish.Get(path); v.Exists() && v.Int() != 0 {
			dishRestaurant = v.Int()
			break
		}
	}
	if dishRestaurant != 0 && dishRestaurant == restaurantID {
		return true
	}
	if id := dish.Get("id").Int(); id != 0 && itemIDs[id] {
		return true
	}
	return false
}

// menuItemIDs fetches the restaurant's menu item ids. Best-effort: any
// failure yields an empty set and filtering relies on the dish's own
// restaurant reference.
func (h *Handler) menuItemIDs(r *http.Request, restaurantID int64) map[int64]bool {
	ids := make(map[int64]bool)
	status, body := h.client.Forward(r.Context(), http.MethodGet, "itens", nil, nil, restaurantID)
	if status != http.StatusOK {
		return ids
	}
	root := gjson.ParseBytes(body)
	items := root
	if !root.IsArray() {
		items = root.Get("data")
	}
	for _, item := range items.Array() {
		if !item.IsObject() {
			continue
		}
		if orders.RestaurantID(item) != restaurantID {
			continue
		}
		if id := item.Get("id").Int(); id != 0 {
			ids[id] = true
		}
	}
	return ids
}
