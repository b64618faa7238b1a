package ratelimit

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"solidum/pkg/apierror"
	"solidum/pkg/platform/httputil"
	"solidum/pkg/platform/middleware/metadata"
)

const throttleMessage = "Muitas requisições. Por favor, tente novamente em alguns instantes."

// Limiter is the per-IP throttle applied to the public intake endpoints.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	logger *slog.Logger
}

func NewLimiter(store Store, limit int, window time.Duration, logger *slog.Logger) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{store: store, limit: limit, window: window, logger: logger}
}

// Middleware enforces the limit and attaches the standard X-RateLimit
// headers to every response. A broken counter store fails open; blocking all
// intake over a Redis hiccup is worse than briefly not throttling.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)

		res, err := l.store.Allow(r.Context(), key, l.limit, l.window)
		if err != nil {
			l.logger.Error("rate limit check failed", "error", err, "client_ip", key)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

		if !res.Allowed {
			retryAfter := int(time.Until(res.ResetAt).Seconds()) + 1
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			l.logger.Warn("request throttled", "client_ip", key)
			httputil.WriteError(w, apierror.New(apierror.CodeTooMany, throttleMessage, ""))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	if ip := metadata.GetClientIP(r.Context()); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
