// Package config - defaults.go centralizes magic numbers and default values.
//
// DESIGN: All default values that appear in multiple places should be defined here.
// This makes configuration more maintainable and auditable.
package config

import "time"

// =============================================================================
// LOCAL SERVER
// =============================================================================

// DefaultListenPort is the local port the proxy binds to. The desktop client
// is hardwired to http://localhost:5000.
const DefaultListenPort = 5000

// DefaultServerReadTimeout for the local HTTP server.
const DefaultServerReadTimeout = 30 * time.Second

// DefaultServerWriteTimeout for the local HTTP server; generous because a
// slow upstream plus the re-encode retry can take two full upstream timeouts.
const DefaultServerWriteTimeout = 2 * time.Minute

// =============================================================================
// UPSTREAM
// =============================================================================

// DefaultUpstreamBaseURL is the production upstream when API_EXTERNA_URL is unset.
const DefaultUpstreamBaseURL = "https://meu-back-restaurante.92x7nhce4t8m6.us-east-1.cs.amazonlightsail.com/"

// DefaultUpstreamTimeout is the per-call upstream timeout (API_TIMEOUT, seconds).
const DefaultUpstreamTimeout = 30 * time.Second

// ProbeTimeout is the short timeout used by the startup connectivity probe.
const ProbeTimeout = 5 * time.Second

// ProbeDialTimeout is the raw TCP dial timeout of the fallback port probe.
const ProbeDialTimeout = 3 * time.Second

// AuthCookieName is the upstream session cookie. The upstream session
// framework mismatches sessions when two same-named cookies are sent, so the
// session store keeps at most one value under this name.
const AuthCookieName = "JSESSIONID"

// =============================================================================
// NORMALIZATION LIMITS
// =============================================================================

// MaxBodyPreviewLen bounds raw upstream bodies echoed inside envelopes.
const MaxBodyPreviewLen = 500

// MaxTextPreviewLen bounds plain-text previews in the generic HTML fallback.
const MaxTextPreviewLen = 1000

// =============================================================================
// UPLOADS
// =============================================================================

// MaxUploadSize is the image upload cap (5MB).
const MaxUploadSize = 5 * 1024 * 1024

// =============================================================================
// ANALYTICS
// =============================================================================

// TopProductsLimit is the ranking size returned by the top-products endpoint.
const TopProductsLimit = 3
