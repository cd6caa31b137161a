package proxy

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/sgr-desktop/sgr-proxy/internal/normalize"
)

// ListMenu returns a restaurant's menu wrapped in a success envelope. The
// backend answers this route in several shapes; all of them end up as
// {status, data: [...]} here.
func (h *Handler) ListMenu(w http.ResponseWriter, r *http.Request) {
	id := urlParamInt64(r, "restauranteID")
	status, resp := h.client.Forward(r.Context(), http.MethodGet,
		fmt.Sprintf("cardapio/%d", id), nil, nil, id)

	root := gjson.ParseBytes(resp)

	if status >= 200 && status < 300 {
		switch {
		case root.IsArray():
			writeSuccessRaw(w, resp)
		case root.Get("data").IsArray():
			writeSuccessRaw(w, []byte(root.Get("data").Raw))
		case root.Get("itens").IsArray():
			writeSuccessRaw(w, []byte(root.Get("itens").Raw))
		case root.IsObject() && root.Get("status").Exists():
			writeRaw(w, status, resp)
		default:
			log.Warn().Str("body", root.Type.String()).Msg("unexpected menu listing shape")
			writeSuccessRaw(w, []byte("[]"))
		}
		return
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		writeError(w, status, messageOrDefault(resp, "Sessão expirada. Faça login novamente."))
		return
	}
	writeError(w, status, messageOrDefault(resp, "Erro ao carregar cardápio"))
}

// writeSuccessRaw wraps a raw JSON array as {status:"success",data:[...]}.
func writeSuccessRaw(w http.ResponseWriter, data []byte) {
	body, _ := sjson.SetRawBytes([]byte(`{"status":"success"}`), "data", data)
	writeRaw(w, http.StatusOK, body)
}

// GetMenuItem fetches a single menu item by id.
func (h *Handler) GetMenuItem(w http.ResponseWriter, r *http.Request) {
	id := urlParamInt64(r, "itemID")
	status, resp := h.client.Forward(r.Context(), http.MethodGet,
		fmt.Sprintf("cardapio/item/%d", id), nil, nil, 0)

	root := gjson.ParseBytes(resp)

	if status >= 200 && status < 300 {
		switch {
		case root.IsObject():
			env := normalize.Success("")
			env.Data = root.Value()
			writeJSON(w, http.StatusOK, env)
		case root.IsArray() && len(root.Array()) > 0:
			env := normalize.Success("")
			env.Data = root.Array()[0].Value()
			writeJSON(w, http.StatusOK, env)
		default:
			writeError(w, http.StatusNotFound, "Item não encontrado")
		}
		return
	}

	switch status {
	case http.StatusNotFound:
		writeError(w, status, "Item não encontrado")
	case http.StatusUnauthorized, http.StatusForbidden:
		writeError(w, status, messageOrDefault(resp, "Sessão expirada. Faça login novamente."))
	default:
		writeError(w, status, messageOrDefault(resp, "Erro ao buscar item"))
	}
}

// menuItemPayload validates and reshapes the client's item payload into the
// structure the backend binder expects (nested restaurante object).
func menuItemPayload(body []byte, requireAll bool) (string, int64, string) {
	data := gjson.ParseBytes(body)
	if !data.IsObject() {
		return "", 0, "Dados não fornecidos"
	}

	if requireAll {
		var missing []string
		for _, field := range []string{"nome", "preco", "restaurante_id"} {
			if v := data.Get(field); !v.Exists() || v.Type == gjson.Null {
				missing = append(missing, field)
			}
		}
		if len(missing) > 0 {
			return "", 0, "Campos obrigatórios faltando: " + strings.Join(missing, ", ")
		}
		if data.Get("nome").Type != gjson.String || strings.TrimSpace(data.Get("nome").String()) == "" {
			return "", 0, "Nome do prato é obrigatório e deve ser texto"
		}
		if data.Get("preco").Type != gjson.Number || data.Get("preco").Float() <= 0 {
			return "", 0, "Preço deve ser um número maior que zero"
		}
	}

	category := strings.TrimSpace(data.Get("categoria").String())
	if category == "" {
		category = "OUTROS"
	}

	out := "{}"
	out, _ = sjson.Set(out, "nome", strings.TrimSpace(data.Get("nome").String()))
	out, _ = sjson.Set(out, "descricao", strings.TrimSpace(data.Get("descricao").String()))
	out, _ = sjson.Set(out, "preco", data.Get("preco").Float())
	out, _ = sjson.Set(out, "categoria", category)
	out, _ = sjson.Set(out, "imagemUrl", strings.TrimSpace(data.Get("imagemUrl").String()))

	restaurantID := data.Get("restaurante_id").Int()
	if restaurantID > 0 {
		out, _ = sjson.Set(out, "restaurante.id", restaurantID)
	}
	return out, restaurantID, ""
}

// AddMenuItem creates a menu item. A 400 that smells like a payload-format
// complaint is retried once as form-urlencoded before being surfaced.
func (h *Handler) AddMenuItem(w http.ResponseWriter, r *http.Request) {
	payload, restaurantID, errMsg := menuItemPayload(readBody(r), true)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	query := url.Values{"restaurante_id": {strconv.FormatInt(restaurantID, 10)}}
	status, resp := h.client.Forward(r.Context(), http.MethodPost, "cardapio/add",
		[]byte(payload), query, restaurantID)

	if status == http.StatusBadRequest && looksLikeFormatError(resp) {
		log.Info().Msg("menu add rejected, retrying as form payload")
		retryStatus, retryResp := h.client.ForwardForm(r.Context(), http.MethodPost,
			"cardapio/add", []byte(payload), query, restaurantID)
		if retryStatus != http.StatusBadRequest {
			status, resp = retryStatus, retryResp
		}
	}

	switch {
	case status == http.StatusBadRequest:
		writeError(w, status, badRequestMessage(resp))
	case status == http.StatusForbidden:
		writeError(w, status, "Acesso negado. Verifique se você está autenticado.")
	case status >= 200 && status < 300:
		writeRaw(w, status, ensureEnvelope(resp, "Item adicionado com sucesso"))
	default:
		writeError(w, status, messageOrDefault(resp,
			fmt.Sprintf("Erro ao adicionar item (status %d)", status)))
	}
}

// looksLikeFormatError checks whether a 400 body complains about the payload
// encoding rather than the data itself.
func looksLikeFormatError(resp []byte) bool {
	msg := strings.ToLower(gjson.GetBytes(resp, "message").String())
	for _, word := range []string{"formato", "format", "content-type", "invalid", "form"} {
		if strings.Contains(msg, word) {
			return true
		}
	}
	return false
}

// badRequestMessage extracts the most useful message from a 400 response.
func badRequestMessage(resp []byte) string {
	root := gjson.ParseBytes(resp)
	for _, key := range []string{"message", "error", "mensagem"} {
		if v := root.Get(key); v.String() != "" {
			return v.String()
		}
	}
	return "Erro ao adicionar item. Verifique os dados enviados."
}

// ensureEnvelope guarantees a {status:...} object around a success payload.
func ensureEnvelope(resp []byte, message string) []byte {
	root := gjson.ParseBytes(resp)
	if root.IsObject() {
		if root.Get("status").Exists() {
			return resp
		}
		out, _ := sjson.SetBytes(resp, "status", "success")
		return out
	}
	env := normalize.Success(message)
	env.Data = root.Value()
	return env.JSON()
}

// EditMenuItem updates an existing item.
func (h *Handler) EditMenuItem(w http.ResponseWriter, r *http.Request) {
	body := readBody(r)
	if !gjson.ParseBytes(body).IsObject() {
		writeError(w, http.StatusBadRequest, "Dados não fornecidos")
		return
	}
	payload, restaurantID, _ := menuItemPayload(body, false)

	id := urlParamInt64(r, "itemID")
	query := url.Values{}
	if restaurantID > 0 {
		query.Set("restaurante_id", strconv.FormatInt(restaurantID, 10))
	}

	status, resp := h.client.Forward(r.Context(), http.MethodPut,
		fmt.Sprintf("cardapio/edit/%d", id), []byte(payload), query, restaurantID)

	if status >= 200 && status < 300 {
		env := normalize.Success("Item editado com sucesso")
		if data := gjson.ParseBytes(resp); data.IsObject() {
			env.Data = data.Value()
		} else {
			env.Data = map[string]any{}
		}
		writeJSON(w, status, env)
		return
	}
	writeError(w, status, messageOrDefault(resp, "Erro ao editar item"))
}

// DeleteMenuItem removes an item.
func (h *Handler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	id := urlParamInt64(r, "itemID")
	status, resp := h.client.Forward(r.Context(), http.MethodDelete,
		fmt.Sprintf("cardapio/delete/%d", id), nil, nil, 0)

	if status == http.StatusOK || status == http.StatusNoContent {
		writeJSON(w, http.StatusOK, normalize.Success("Item deletado com sucesso"))
		return
	}
	writeError(w, status, messageOrDefault(resp, "Erro ao deletar item"))
}
