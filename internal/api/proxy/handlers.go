// Package proxy implements the generic pass-through endpoint: arbitrary
// path-suffixed GET and POST calls are forwarded to the platform API
// with only the bearer authorization header copied across, and JSON or
// multipart bodies passed through unchanged.
package proxy

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/trailhop/gateway/internal/api/apiutil"
	"github.com/trailhop/gateway/internal/ratelimit"
)

// Handler forwards requests under /api/proxy/ to the upstream base URL.
type Handler struct {
	baseURL    string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
}

// NewHandler returns a proxy for the API at baseURL. limiter may be nil
// to disable throttling.
func NewHandler(baseURL string, timeout time.Duration, limiter *ratelimit.Limiter) *Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Handler{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	switch r.Method {
	case http.MethodGet, http.MethodPost:
	default:
		apiutil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if h.limiter != nil {
		clientIP := ratelimit.ClientIP(r)
		if result := h.limiter.Check(clientIP); !result.Allowed {
			logger.Warn().
				Str("client_ip", clientIP).
				Str("reason", result.Reason).
				Msg("Proxy request throttled")
			w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds()+1)))
			apiutil.WriteError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
	}

	target := h.targetURL(r)

	outReq, err := http.NewRequestWithContext(r.Context(), r.Method, target, r.Body)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid proxy target")
		return
	}

	// Only the authorization header crosses the boundary.
	if auth := r.Header.Get("Authorization"); auth != "" {
		outReq.Header.Set("Authorization", auth)
	}
	if r.Method == http.MethodPost {
		contentType := r.Header.Get("Content-Type")
		if strings.Contains(contentType, "multipart/form-data") {
			outReq.Header.Set("Content-Type", contentType)
		} else {
			outReq.Header.Set("Content-Type", "application/json")
		}
	}

	resp, err := h.httpClient.Do(outReq)
	if err != nil {
		logger.Error().Err(err).Str("target", target).Msg("Proxy request failed")
		apiutil.WriteError(w, http.StatusBadGateway, "proxy request failed")
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error().Err(err).Str("target", target).Msg("Failed to read proxied response")
		apiutil.WriteError(w, http.StatusBadGateway, "proxy request failed")
		return
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn().
			Int("status", resp.StatusCode).
			Str("target", target).
			Msg("Upstream returned error through proxy")

		// Relay the upstream body verbatim when it is JSON, otherwise
		// wrap it in a generic envelope.
		if json.Valid(body) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(resp.StatusCode)
			_, _ = w.Write(body)
			return
		}
		if err := apiutil.WriteJSON(w, resp.StatusCode, map[string]string{"error": string(body)}); err != nil {
			logger.Error().Err(err).Msg("Failed to relay proxy error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(body)
}

// targetURL builds the upstream URL from the path suffix and query.
func (h *Handler) targetURL(r *http.Request) string {
	suffix := strings.TrimPrefix(r.PathValue("path"), "/")

	target := h.baseURL + "/" + suffix
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	return target
}
