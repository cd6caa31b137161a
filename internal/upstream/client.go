package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/sgr-desktop/sgr-proxy/internal/config"
	"github.com/sgr-desktop/sgr-proxy/internal/normalize"
	"github.com/sgr-desktop/sgr-proxy/internal/session"
	"github.com/sgr-desktop/sgr-proxy/internal/utils"
)

// Client forwards proxied requests to the remote backend.
type Client struct {
	cfg      *config.UpstreamConfig
	http     *http.Client
	sessions *session.Store
	origin   string

	// onFailure, when set, receives the tipo_erro of every transport
	// failure. Feeds the upstream-failure counter.
	onFailure func(kind string)
}

// OnFailure registers the transport-failure observer. Not safe to call once
// requests are in flight.
func (c *Client) OnFailure(fn func(kind string)) { c.onFailure = fn }

func (c *Client) reportFailure(env *normalize.Envelope) {
	if c.onFailure == nil || env.Diagnostic == nil {
		return
	}
	c.onFailure(env.Diagnostic.Kind)
}

// NewClient builds a forwarder bound to one upstream. The transport timeout
// covers the whole exchange including body read.
func NewClient(cfg *config.UpstreamConfig, sessions *session.Store, origin string) *Client {
	return &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		sessions: sessions,
		origin:   origin,
	}
}

// Sessions exposes the shared cookie store to route handlers (login needs to
// associate the "latest" cookie with the recovered restaurant id).
func (c *Client) Sessions() *session.Store { return c.sessions }

// Config returns the upstream configuration the client was built with.
func (c *Client) Config() *config.UpstreamConfig { return c.cfg }

// Forward sends one request upstream and returns a local status plus
// canonical JSON. It never returns an error: every failure mode becomes a
// diagnostic envelope with the matching status code.
//
// body is the raw JSON payload (nil for bodyless methods); query is appended
// to the mapped URL; restaurantID scopes cookie storage and may be zero.
func (c *Client) Forward(ctx context.Context, method, localPath string, body []byte, query url.Values, restaurantID int64) (int, json.RawMessage) {
	endpoint := MapEndpoint(localPath)

	fullURL, errStatus, errEnv := c.buildURL(endpoint, query)
	if errEnv != nil {
		return errStatus, errEnv.JSON()
	}

	status, resp := c.do(ctx, method, fullURL, body, "application/json", restaurantID, endpoint)

	// Some upstream builds reject a JSON login/auth payload but accept the
	// same fields form-encoded. POST only, retried once; the retry's answer
	// stands whenever it is not another 401/403, even when it is worse.
	if (status == 401 || status == 403) && method == http.MethodPost && len(body) > 0 && json.Valid(body) {
		if form, ok := encodeForm(body); ok {
			log.Info().Str("endpoint", endpoint).Int("status", status).
				Msg("auth rejected JSON payload, retrying as form-urlencoded")
			retryStatus, retryResp := c.do(ctx, method, fullURL, []byte(form),
				"application/x-www-form-urlencoded", restaurantID, endpoint)
			if retryStatus != 401 && retryStatus != 403 {
				return retryStatus, retryResp
			}
		}
	}
	return status, resp
}

// ForwardForm sends one request with the JSON payload re-encoded as
// form-urlencoded, for routes where the upstream binder rejects JSON.
func (c *Client) ForwardForm(ctx context.Context, method, localPath string, body []byte, query url.Values, restaurantID int64) (int, json.RawMessage) {
	endpoint := MapEndpoint(localPath)

	fullURL, errStatus, errEnv := c.buildURL(endpoint, query)
	if errEnv != nil {
		return errStatus, errEnv.JSON()
	}
	form, ok := encodeForm(body)
	if !ok {
		s, env := unexpectedError(fmt.Errorf("payload cannot be form-encoded"))
		return s, env.JSON()
	}
	return c.do(ctx, method, fullURL, []byte(form),
		"application/x-www-form-urlencoded", restaurantID, endpoint)
}

// ForwardMultipart uploads one file as a multipart/form-data request. The
// upstream expects the file under the "file" field regardless of what the
// desktop client named it.
func (c *Client) ForwardMultipart(ctx context.Context, localPath, filename, fileContentType string, content []byte, restaurantID int64) (int, json.RawMessage) {
	endpoint := MapEndpoint(localPath)

	fullURL, errStatus, errEnv := c.buildURL(endpoint, nil)
	if errEnv != nil {
		return errStatus, errEnv.JSON()
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if fileContentType == "" {
		fileContentType = "application/octet-stream"
	}
	header.Set("Content-Type", fileContentType)

	part, err := mw.CreatePart(header)
	if err == nil {
		_, err = part.Write(content)
	}
	if err == nil {
		err = mw.Close()
	}
	if err != nil {
		s, env := unexpectedError(fmt.Errorf("build multipart body: %w", err))
		return s, env.JSON()
	}

	return c.do(ctx, http.MethodPost, fullURL, buf.Bytes(),
		mw.FormDataContentType(), restaurantID, endpoint)
}

// do performs a single upstream exchange and normalizes the response.
func (c *Client) do(ctx context.Context, method, fullURL string, body []byte, contentType string, restaurantID int64, endpoint string) (int, json.RawMessage) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		s, env := unexpectedError(err)
		return s, env.JSON()
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Origin", c.origin)
	if len(body) > 0 {
		req.Header.Set("Content-Type", contentType)
	}

	if dropped := c.sessions.Dedupe(config.AuthCookieName); dropped > 0 {
		log.Warn().Int("dropped", dropped).Msg("duplicate session cookies removed before forwarding")
	}
	if header := c.sessions.CookieHeader(); header != "" {
		req.Header.Set("Cookie", header)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		s, env := classifyTransportError(err, c.cfg, fullURL)
		log.Error().Err(err).Str("url", fullURL).Int("status", s).Msg("upstream request failed")
		c.reportFailure(env)
		return s, env.JSON()
	}
	defer resp.Body.Close()

	c.absorbCookies(resp, restaurantID)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		s, env := unexpectedError(fmt.Errorf("read upstream body: %w", err))
		return s, env.JSON()
	}

	log.Debug().Str("method", method).Str("endpoint", endpoint).
		Int("upstream_status", resp.StatusCode).Int("bytes", len(respBody)).
		Msg("upstream responded")

	return normalize.Normalize(resp.StatusCode, resp.Header.Get("Content-Type"),
		respBody, endpoint, normalize.Options{
			BaseURL:          c.cfg.BaseURL,
			LoopbackUpstream: c.cfg.IsLoopback(),
		})
}

// buildURL joins base + endpoint + query, surfacing a parse failure as the
// url_invalida envelope.
func (c *Client) buildURL(endpoint string, query url.Values) (string, int, *normalize.Envelope) {
	base, err := url.Parse(c.cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		if err == nil {
			err = fmt.Errorf("missing scheme or host in %q", c.cfg.BaseURL)
		}
		s, env := urlConfigError(c.cfg.BaseURL, err)
		c.reportFailure(env)
		return "", s, env
	}

	full := *base
	full.Path = strings.TrimSuffix(base.Path, "/") + "/" + strings.TrimPrefix(endpoint, "/")
	if len(query) > 0 {
		full.RawQuery = query.Encode()
	}
	return full.String(), 0, nil
}

// absorbCookies stores upstream session cookies, keyed to the restaurant
// when known and always refreshing the "latest" slot.
func (c *Client) absorbCookies(resp *http.Response, restaurantID int64) {
	for _, ck := range resp.Cookies() {
		if ck.Name != config.AuthCookieName {
			continue
		}
		c.sessions.Set(ck.Name+"="+ck.Value, restaurantID)
		log.Debug().Int64("restaurante_id", restaurantID).
			Str("cookie", utils.MaskSecret(ck.Value)).
			Msg("session cookie refreshed")
	}
}

// encodeForm flattens a JSON object into form-urlencoded pairs. Nested
// objects use dotted keys, so {"restaurante":{"id":1}} becomes
// restaurante.id=1, which is the shape the upstream binder expects.
func encodeForm(body []byte) (string, bool) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", false
	}
	values := url.Values{}
	flattenInto(values, "", payload)
	if len(values) == 0 {
		return "", false
	}
	return values.Encode(), true
}

func flattenInto(values url.Values, prefix string, obj map[string]any) {
	for k, v := range obj {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch t := v.(type) {
		case map[string]any:
			flattenInto(values, key, t)
		case nil:
			// skip
		case string:
			values.Set(key, t)
		case bool:
			values.Set(key, strconv.FormatBool(t))
		case float64:
			values.Set(key, strconv.FormatFloat(t, 'f', -1, 64))
		default:
			values.Set(key, fmt.Sprint(t))
		}
	}
}
