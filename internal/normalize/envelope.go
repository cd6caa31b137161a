// Package normalize coerces arbitrary upstream responses (JSON, HTML, plain
// text) into the canonical envelope the desktop client understands.
//
// DESIGN: Main entry points:
//   - Normalize():        status+headers+body -> canonical JSON
//   - ExtractFromHTML():  server-rendered markup -> envelope or item list
//
// Normalization is best-effort by policy: an upstream response we cannot make
// sense of becomes a bounded-preview envelope, never a proxy failure.
package normalize

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/sgr-desktop/sgr-proxy/internal/utils"
)

// Status values carried in every envelope.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Diagnostic carries structured troubleshooting hints attached to transport
// and misconfiguration errors. Field names are part of the desktop client's
// wire contract and stay in Portuguese.
type Diagnostic struct {
	Kind              string   `json:"tipo_erro,omitempty"`
	Protocol          string   `json:"protocolo,omitempty"`
	Host              string   `json:"host,omitempty"`
	Port              int      `json:"porta,omitempty"`
	TechnicalError    string   `json:"erro_tecnico,omitempty"`
	ConfiguredURL     string   `json:"url_configurada,omitempty"`
	TestedURL         string   `json:"url_testada,omitempty"`
	BaseURL           string   `json:"url_base,omitempty"`
	ConfiguredTimeout string   `json:"timeout_configurado,omitempty"`
	Suggestion        string   `json:"sugestao,omitempty"`
	Suggestions       []string `json:"sugestoes,omitempty"`
}

// Envelope is the canonical response shape. Only Status is always present;
// the remaining fields appear per normalization path. The extra preview
// fields (RawHTML, Content, ...) mirror the shapes the desktop client already
// knows how to render.
type Envelope struct {
	Status       string      `json:"status"`
	Message      string      `json:"message,omitempty"`
	Data         any         `json:"data,omitempty"`
	Diagnostic   *Diagnostic `json:"diagnostico,omitempty"`
	StatusCode   int         `json:"status_code,omitempty"`
	ResponseText string      `json:"response_text,omitempty"`
	RawResponse  string      `json:"raw_response,omitempty"`
	RawData      any         `json:"raw_data,omitempty"`
	RawHTML      string      `json:"raw_html,omitempty"`
	HTMLContent  string      `json:"html_content,omitempty"`
	Content      string      `json:"content,omitempty"`
	Note         string      `json:"note,omitempty"`
}

// Success builds a plain success envelope.
func Success(message string) *Envelope {
	return &Envelope{Status: StatusSuccess, Message: message}
}

// Error builds a plain error envelope.
func Error(message string) *Envelope {
	return &Envelope{Status: StatusError, Message: message}
}

// JSON renders the envelope without HTML escaping. Marshal failures cannot
// happen for the field types used here, but the normalizer must never fail,
// so a minimal error envelope backstops it anyway.
func (e *Envelope) JSON() json.RawMessage {
	data, err := utils.MarshalNoEscape(e)
	if err != nil {
		log.Error().Err(err).Msg("envelope marshal failed")
		return json.RawMessage(`{"status":"error","message":"internal envelope error"}`)
	}
	return data
}
