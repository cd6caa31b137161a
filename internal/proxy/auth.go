package proxy

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Login authenticates against the backend and binds the session cookie to
// the restaurant id recovered from the response.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	body := readBody(r)
	payload := gjson.ParseBytes(body)
	if payload.Get("email").String() == "" || payload.Get("senha").String() == "" {
		writeError(w, http.StatusBadRequest, "Email e senha são obrigatórios")
		return
	}

	status, resp := h.client.Forward(r.Context(), http.MethodPost, "restaurantes/login", body, nil, 0)

	switch {
	case status == http.StatusBadGateway &&
		gjson.GetBytes(resp, "diagnostico.tipo_erro").String() == "url_parse_error":
		out, _ := sjson.SetBytes(resp, "message",
			"URL inválida no config.env. Remova comentários inline da linha API_EXTERNA_URL.")
		writeRaw(w, status, out)
		return

	case status == http.StatusGatewayTimeout:
		writeError(w, status, fmt.Sprintf(
			"Servidor não respondeu em %d segundos. Verifique se o servidor está rodando em %s:%d",
			int(h.cfg.Upstream.Timeout.Seconds()), h.cfg.Upstream.Host, h.cfg.Upstream.Port))
		return

	case status == http.StatusServiceUnavailable:
		writeError(w, status, fmt.Sprintf(
			"Não foi possível conectar ao servidor em %s:%d. Verifique se o servidor está rodando.",
			h.cfg.Upstream.Host, h.cfg.Upstream.Port))
		return

	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		msg := gjson.GetBytes(resp, "message").String()
		if msg == "" {
			if h.cfg.Upstream.IsLoopback() {
				msg = "Erro de autenticação. Verifique suas credenciais ou se o formato da requisição está correto."
			} else {
				msg = "Acesso negado. Verifique suas credenciais ou se o servidor está acessível."
			}
		}
		writeError(w, status, msg)
		return
	}

	if status == http.StatusOK && gjson.GetBytes(resp, "status").String() == "success" {
		restaurantID := gjson.GetBytes(resp, "data.restaurante_id").Int()
		h.bindSession(restaurantID)
	}
	writeRaw(w, status, resp)
}

// bindSession re-keys the freshly absorbed "latest" cookie to the restaurant
// recovered from the login response body.
func (h *Handler) bindSession(restaurantID int64) {
	sessions := h.client.Sessions()
	pair, ok := sessions.Get(0)
	if !ok {
		log.Warn().Msg("login succeeded but no session cookie was received")
		return
	}
	if restaurantID <= 0 {
		log.Warn().Msg("login succeeded but restaurante_id missing, cookie kept unassociated")
		return
	}
	sessions.Set(pair, restaurantID)
	log.Info().Int64("restaurante_id", restaurantID).Msg("session cookie associated")
}

// Profile returns the logged-in restaurant, normalizing the id, name and
// image fields into data regardless of where the backend put them.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	status, resp := h.client.Forward(r.Context(), http.MethodGet, "restaurantes/perfil", nil, nil, 0)

	root := gjson.ParseBytes(resp)
	if status != http.StatusOK || !root.IsObject() {
		writeError(w, status, "Não foi possível obter informações do restaurante")
		return
	}

	out := string(resp)
	if !root.Get("data").Exists() {
		out, _ = sjson.SetRaw(out, "data", "{}")
	}

	if id := firstOf(root, "data.restaurante_id", "data.id", "restaurante_id", "id"); id.Exists() {
		out, _ = sjson.Set(out, "data.restaurante_id", id.Value())
	}
	if name := firstOf(root, "data.restaurante_nome", "data.nome", "restaurante_nome", "nome"); name.Exists() {
		out, _ = sjson.Set(out, "data.restaurante_nome", name.String())
	}
	if img := firstOf(root,
		"data.imagemUrl", "data.imagem_url", "data.logoUrl", "data.logo_url",
		"data.fotoUrl", "data.foto_url",
		"imagemUrl", "imagem_url", "logoUrl", "logo_url",
	); img.Exists() && img.String() != "" {
		out, _ = sjson.Set(out, "data.imagemUrl", img.String())
	}

	writeRaw(w, status, []byte(out))
}

// Restaurant proxies the public restaurant detail (including its reviews).
func (h *Handler) Restaurant(w http.ResponseWriter, r *http.Request) {
	id := urlParamInt64(r, "restauranteID")
	status, resp := h.client.Forward(r.Context(), http.MethodGet,
		fmt.Sprintf("restaurantes/%d", id), nil, nil, id)
	writeRaw(w, status, resp)
}

// Logout clears the stored session for one restaurant, or every session
// when the id is absent.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	id := urlParamInt64(r, "restauranteID")
	h.client.Sessions().Clear(id)
	log.Info().Int64("restaurante_id", id).Msg("session cleared")
	writeSuccess(w, "Sessão encerrada", nil)
}

func firstOf(r gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}
