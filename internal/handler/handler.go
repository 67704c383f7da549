package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/C-gyeltshen/Web102-Cap2/internal/domain"
	"github.com/C-gyeltshen/Web102-Cap2/internal/logger"
)

const maxBodyBytes = 1 << 20

// messageResponse is the body of every error and of plain confirmations.
type messageResponse struct {
	Message string `json:"message"`
}

// respondWithJSON sends payload as a JSON response.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}, logger *slog.Logger) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		logger.Error("failed to marshal JSON response", "error", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(response); err != nil {
		logger.Error("failed to write HTTP response", "error", err)
	}
}

// respondWithError sends {"message": message}.
func respondWithError(w http.ResponseWriter, code int, message string, logger *slog.Logger) {
	respondWithJSON(w, code, messageResponse{Message: message}, logger)
}

// errInvalidBody marks a request body that is not the expected JSON document.
var errInvalidBody = fmt.Errorf("invalid JSON body: %w", domain.ErrInvalidInput)

// decodeJSON reads a single JSON document of at most maxBodyBytes into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after JSON document", errInvalidBody)
	}
	return nil
}

// statusFor maps the domain error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// errorMessages picks the response message per status code.
type errorMessages map[int]string

// respondWithDomainError writes err with the status of its kind. Unknown
// errors are logged and answered with an opaque 500.
func respondWithDomainError(w http.ResponseWriter, r *http.Request, err error, messages errorMessages, fallback *slog.Logger) {
	log := logger.FromContext(r.Context(), fallback)
	code := statusFor(err)

	msg, ok := messages[code]
	if !ok {
		msg = http.StatusText(code)
	}

	if code == http.StatusInternalServerError {
		log.Error("request failed", "error", err)
	} else {
		log.Info("request rejected", "status", code, "reason", err.Error())
	}

	respondWithError(w, code, msg, fallback)
}
