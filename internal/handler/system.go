package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const healthCheckTimeout = 2 * time.Second

// Pinger reports whether a backing service answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves the home page, health check and session introspection.
type SystemHandler struct {
	db     Pinger
	logger *slog.Logger
}

func NewSystemHandler(db Pinger, logger *slog.Logger) *SystemHandler {
	return &SystemHandler{db: db, logger: logger}
}

// Home greets the caller: GET /.
func (h *SystemHandler) Home(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("Hello from the Pokémon catcher API!")); err != nil {
		h.logger.Error("failed to write HTTP response", "error", err)
	}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Health pings the database: GET /health.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", "error", err)
		respondWithJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Database: "down"}, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, healthResponse{Status: "ok", Database: "up"}, h.logger)
}

type sessionResponse struct {
	Message   string    `json:"message"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Session echoes the verified token: GET /protected/session.
func (h *SystemHandler) Session(w http.ResponseWriter, r *http.Request) {
	session, ok := SessionFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, sessionResponse{
		Message:   "Token is valid",
		Email:     session.Subject,
		ExpiresAt: session.ExpiresAt.UTC(),
	}, h.logger)
}
