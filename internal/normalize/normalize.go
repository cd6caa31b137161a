package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/sgr-desktop/sgr-proxy/internal/config"
	"github.com/sgr-desktop/sgr-proxy/internal/utils"
)

// Options gives Normalize the upstream facts it needs for diagnostics.
type Options struct {
	BaseURL          string
	LoopbackUpstream bool
}

// Normalize coerces a raw upstream response into canonical JSON: either an
// envelope object or, for recognized listings, a bare JSON array. The
// returned status code may differ from the upstream one (the login reshaping
// downgrades a 200-with-error-body to 401).
//
// Normalize never fails: any internal problem degrades to a success envelope
// carrying a bounded body preview. Breaking the proxy because the upstream
// sent something strange would take the whole desktop app down with it.
func Normalize(statusCode int, contentType string, body []byte, upstreamPath string, opts Options) (finalStatus int, out json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Str("endpoint", upstreamPath).Msg("normalization failed, downgrading to preview envelope")
			env := Success("Resposta recebida (não parseada)")
			env.RawResponse = utils.Truncate(string(body), config.MaxBodyPreviewLen)
			finalStatus, out = statusCode, env.JSON()
		}
	}()

	text := strings.TrimSpace(string(body))

	if text != "" && gjson.Valid(text) {
		if strings.Contains(upstreamPath, "restaurantes/login") {
			return normalizeLoginJSON(statusCode, text)
		}
		// Already structured; route handlers do their own reshaping.
		return statusCode, json.RawMessage(text)
	}

	if looksLikeHTML(contentType, text) {
		return statusCode, ExtractFromHTML(body, upstreamPath)
	}

	if statusCode >= 400 {
		env := Error(fmt.Sprintf("Erro HTTP %d", statusCode))
		env.StatusCode = statusCode
		if statusCode == 403 && opts.LoopbackUpstream {
			env.Message = "Servidor não encontrado em localhost:8080. Verifique se o servidor está rodando ou use a URL da nuvem no config.env"
			env.Diagnostic = &Diagnostic{
				Kind:          "servidor_nao_encontrado",
				ConfiguredURL: opts.BaseURL,
				Suggestion:    "Use API_EXTERNA_URL com o endereço da nuvem no config.env",
			}
		}
		if text != "" {
			env.ResponseText = utils.Truncate(text, config.MaxBodyPreviewLen)
		}
		return statusCode, env.JSON()
	}

	env := &Envelope{Status: statusForCode(statusCode)}
	if text == "" {
		env.Message = "Resposta vazia"
	} else {
		env.Message = utils.Truncate(text, config.MaxBodyPreviewLen)
		env.RawResponse = utils.Truncate(text, 200)
	}
	return statusCode, env.JSON()
}

// normalizeLoginJSON reshapes the several known upstream login response
// shapes into the envelope the desktop client expects. Shapes are tried in a
// fixed priority order; the first recognized one wins.
func normalizeLoginJSON(statusCode int, text string) (int, json.RawMessage) {
	r := gjson.Parse(text)
	if !r.IsObject() {
		return statusCode, json.RawMessage(text)
	}

	if r.Get("error").Exists() || statusCode >= 400 {
		msg := firstString(r, "error", "message")
		if msg == "" {
			msg = "Erro no login"
		}
		final := statusCode
		// Some upstream builds answer 200 with an error body; the desktop
		// client keys retry UI off the status code, so surface a real 401.
		if statusCode == 200 {
			final = 401
		}
		log.Debug().Str("message", msg).Int("status", final).Msg("login JSON error reshaped")
		return final, Error(msg).JSON()
	}

	if r.Get("status").String() == StatusSuccess && r.Get("data").Exists() {
		if r.Get("data.restaurante_id").Exists() || r.Get("data.restaurante_nome").Exists() {
			return statusCode, json.RawMessage(text)
		}
	}

	var id, name gjson.Result
	switch {
	case r.Get("nome").Exists() && (r.Get("id").Exists() || r.Get("restaurante_id").Exists()):
		id = firstResult(r, "id", "restaurante_id")
		name = r.Get("nome")
	case r.Get("restaurante").IsObject():
		nested := r.Get("restaurante")
		id = firstResult(nested, "id", "restaurante_id")
		name = nested.Get("nome")
	case r.Get("email").Exists() && r.Get("id").Exists():
		id = firstResult(r, "id", "restaurante_id")
		name = firstResult(r, "nome", "restaurante_nome")
	}

	if id.Exists() || name.Exists() {
		data := map[string]any{}
		if id.Exists() {
			data["restaurante_id"] = id.Value()
		}
		if name.Exists() && name.String() != "" {
			data["restaurante_nome"] = name.String()
		}
		env := Success("Login realizado com sucesso")
		env.Data = data
		log.Debug().Interface("data", data).Msg("login JSON converted to desktop format")
		return statusCode, env.JSON()
	}

	lower := strings.ToLower(text)
	if strings.Contains(lower, "erro") || strings.Contains(lower, "fail") {
		return statusCode, Error("Erro no login. Verifique suas credenciais.").JSON()
	}

	if !r.Get("status").Exists() {
		env := &Envelope{
			Status:  statusForCode(statusCode),
			Message: "Resposta do servidor recebida",
			RawData: json.RawMessage(text),
		}
		return statusCode, env.JSON()
	}
	return statusCode, json.RawMessage(text)
}

func looksLikeHTML(contentType, text string) bool {
	if strings.Contains(strings.ToLower(contentType), "text/html") {
		return true
	}
	return strings.HasPrefix(text, "<!DOCTYPE") || strings.HasPrefix(text, "<html")
}

func statusForCode(code int) string {
	if code < 400 {
		return StatusSuccess
	}
	return StatusError
}

// firstString returns the first non-empty string among the given paths.
func firstString(r gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

// firstResult returns the first existing value among the given paths.
func firstResult(r gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}
