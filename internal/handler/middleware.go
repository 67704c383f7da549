package handler

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/C-gyeltshen/Web102-Cap2/internal/config"
	"github.com/C-gyeltshen/Web102-Cap2/internal/domain"
	"github.com/C-gyeltshen/Web102-Cap2/internal/logger"
	"github.com/C-gyeltshen/Web102-Cap2/internal/metrics"
	"github.com/C-gyeltshen/Web102-Cap2/internal/ratelimit"
)

// RequestLogger logs every HTTP request and stores a request scoped logger in the context.
func RequestLogger(log *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqLogger := log.With("request_id", middleware.GetReqID(r.Context()))
			r = r.WithContext(logger.WithContext(r.Context(), reqLogger))

			// wrap the ResponseWriter to see the status code
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r)

			reqLogger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.statusCode,
				"remote_ip", clientIP(r),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// responseWriter captures the response status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Instrument records request count and latency per chi route pattern.
func Instrument(m *metrics.Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r)

			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			m.ObserveRequest(r.Method, route, ww.statusCode, time.Since(start))
		})
	}
}

// TokenVerifier checks a bearer token.
type TokenVerifier interface {
	Verify(token string) (*domain.Session, error)
}

type sessionKey struct{}

// SessionFromContext returns the session stored by RequireJWT.
func SessionFromContext(ctx context.Context) (*domain.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*domain.Session)
	return s, ok && s != nil
}

// RequireJWT rejects requests without a valid "Authorization: Bearer" token.
func RequireJWT(verifier TokenVerifier, fallback *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logger.FromContext(r.Context(), fallback)

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				log.Info("missing bearer token", "path", r.URL.Path)
				respondWithError(w, http.StatusUnauthorized, "Unauthorized", fallback)
				return
			}

			session, err := verifier.Verify(token)
			if err != nil {
				log.Info("bearer token rejected", "path", r.URL.Path, "reason", err.Error())
				respondWithError(w, http.StatusUnauthorized, "Unauthorized", fallback)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey{}, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RateLimitOptions configures a RateLimit middleware.
type RateLimitOptions struct {
	// Name prefixes the limiter keys and labels the metrics.
	Name string
	// Scope is config.RateLimitScopeClient (one budget per client IP)
	// or config.RateLimitScopeRoute (one budget shared by everyone).
	Scope   string
	Message string
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// RateLimit answers 429 when limiter rejects the request. A failing limiter
// backend lets the request through.
func RateLimit(limiter ratelimit.Limiter, opts RateLimitOptions) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logger.FromContext(r.Context(), opts.Logger)

			key := opts.Name
			if opts.Scope != config.RateLimitScopeRoute {
				key += ":" + clientIP(r)
			}

			d, err := limiter.Allow(r.Context(), key)
			if err != nil {
				log.Error("rate limiter unavailable, letting request through", "limiter", opts.Name, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

			if !d.Allowed {
				seconds := int(math.Ceil(d.RetryAfter.Seconds()))
				if seconds < 1 {
					seconds = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				if opts.Metrics != nil {
					opts.Metrics.RateLimited(opts.Name)
				}
				log.Warn("rate limit exceeded", "limiter", opts.Name, "key", key)
				respondWithError(w, http.StatusTooManyRequests, opts.Message, opts.Logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// TrustedRealIP rewrites r.RemoteAddr from X-Forwarded-For or X-Real-IP, but
// only when the immediate peer is inside one of the trusted prefixes.
// X-Forwarded-For is read right to left and the first hop that is not a
// trusted proxy wins. With no trusted prefixes the headers are ignored.
func TrustedRealIP(trusted []netip.Prefix) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(trusted) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			peer, ok := parseIP(clientIP(r))
			if ok && containsAddr(trusted, peer) {
				if ip, found := forwardedClient(r.Header, trusted); found {
					r.RemoteAddr = ip.String()
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func forwardedClient(h http.Header, trusted []netip.Prefix) (netip.Addr, bool) {
	var hops []string
	for _, v := range h.Values("X-Forwarded-For") {
		hops = append(hops, strings.Split(v, ",")...)
	}
	for i := len(hops) - 1; i >= 0; i-- {
		ip, ok := parseIP(hops[i])
		if !ok {
			// a malformed hop ends the chain we can vouch for
			return netip.Addr{}, false
		}
		if !containsAddr(trusted, ip) {
			return ip, true
		}
	}
	if len(hops) == 0 {
		if ip, ok := parseIP(h.Get("X-Real-IP")); ok {
			return ip, true
		}
	}
	return netip.Addr{}, false
}

func parseIP(s string) (netip.Addr, bool) {
	ip, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return netip.Addr{}, false
	}
	return ip.Unmap(), true
}

func containsAddr(prefixes []netip.Prefix, ip netip.Addr) bool {
	for _, p := range prefixes {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}

// clientIP is the request address without its port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
