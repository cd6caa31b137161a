package upstream

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/sgr-desktop/sgr-proxy/internal/config"
	"github.com/sgr-desktop/sgr-proxy/internal/normalize"
	"github.com/sgr-desktop/sgr-proxy/internal/utils"
)

// classifyTransportError maps a failed round trip to the local status code
// and diagnostic envelope the desktop client renders. The taxonomy:
//
//	timeout            -> 504 timeout
//	connection refused -> 503 connection_error
//	TLS handshake      -> 502 ssl_error
//	anything else      -> 502 request_error
//
// The tipo_erro values and messages are part of the client's wire contract.
func classifyTransportError(err error, cfg *config.UpstreamConfig, testedURL string) (int, *normalize.Envelope) {
	technical := err.Error()

	switch {
	case errors.Is(err, context.DeadlineExceeded) || isTimeout(err):
		env := normalize.Error(fmt.Sprintf("Timeout (%ds) ao conectar com o servidor",
			int(cfg.Timeout.Seconds())))
		env.Diagnostic = &normalize.Diagnostic{
			Kind:              "timeout",
			ConfiguredTimeout: fmt.Sprintf("%ds", int(cfg.Timeout.Seconds())),
			Protocol:          cfg.Protocol,
			Host:              cfg.Host,
			Port:              cfg.Port,
			Suggestions: []string{
				"Verificar se o servidor está rodando",
				"Testar conectividade de rede",
				"Verificar configurações de firewall",
				"Considerar aumentar o timeout",
			},
		}
		return 504, env

	case isConnectionError(err):
		env := normalize.Error("Servidor não está disponível ou não acessível")
		env.Diagnostic = &normalize.Diagnostic{
			Kind:           "connection_error",
			Protocol:       cfg.Protocol,
			Host:           cfg.Host,
			Port:           cfg.Port,
			TechnicalError: technical,
			Suggestions: []string{
				"Verificar se o servidor está rodando",
				"Confirmar IP e porta estão corretos",
				"Verificar configurações de firewall",
				"Testar conectividade de rede",
				"Confirmar se servidor aceita conexões externas",
			},
		}
		return 503, env

	case isTLSError(err):
		env := normalize.Error("Erro de SSL/TLS - Protocolo pode estar incorreto")
		env.Diagnostic = &normalize.Diagnostic{
			Kind:       "ssl_error",
			TestedURL:  testedURL,
			BaseURL:    cfg.BaseURL,
			Suggestion: "Verifique config.env e remova comentários inline da URL",
		}
		return 502, env

	default:
		env := normalize.Error(fmt.Sprintf("Erro na requisição: %s", utils.Truncate(technical, 100)))
		env.Diagnostic = &normalize.Diagnostic{
			Kind:       "request_error",
			TestedURL:  testedURL,
			BaseURL:    cfg.BaseURL,
			Suggestion: "Verifique config.env e remova comentários inline da URL",
		}
		return 502, env
	}
}

// urlConfigError builds the envelope for a base URL that cannot be parsed.
// This is a local misconfiguration, not an upstream fault, so it carries the
// configured value verbatim for the user to fix.
func urlConfigError(rawURL string, err error) (int, *normalize.Envelope) {
	log.Error().Err(err).Str("url", rawURL).Msg("configured upstream URL is invalid")
	env := normalize.Error("URL inválida no config.env. Remova comentários inline da linha API_EXTERNA_URL.")
	env.Diagnostic = &normalize.Diagnostic{
		Kind:          "url_parse_error",
		ConfiguredURL: rawURL,
		BaseURL:       rawURL,
		Suggestion:    "Verifique config.env e remova comentários inline da URL",
	}
	return 502, env
}

// unexpectedError is the catch-all for proxy-side failures (body read, ...).
func unexpectedError(err error) (int, *normalize.Envelope) {
	env := normalize.Error(fmt.Sprintf("Erro inesperado: %s", err.Error()))
	env.Diagnostic = &normalize.Diagnostic{
		Kind:           "unexpected_error",
		TechnicalError: err.Error(),
	}
	return 500, env
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isConnectionError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host")
}

func isTLSError(err error) bool {
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return true
	}
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		msg := urlErr.Err.Error()
		if strings.Contains(msg, "tls:") || strings.Contains(msg, "x509:") ||
			strings.Contains(msg, "certificate") {
			return true
		}
	}
	return false
}
