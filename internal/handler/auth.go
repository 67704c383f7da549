package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/C-gyeltshen/Web102-Cap2/internal/usecase"
)

// AuthHandler serves sign-up and login.
type AuthHandler struct {
	authUseCase usecase.AuthUseCase
	logger      *slog.Logger
}

func NewAuthHandler(uc usecase.AuthUseCase, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authUseCase: uc, logger: logger}
}

type signUpRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

var signUpErrors = errorMessages{
	http.StatusBadRequest:          "Email and password are required, password at most 72 bytes",
	http.StatusConflict:            "Email already exists",
	http.StatusInternalServerError: "An error occurred",
}

var loginErrors = errorMessages{
	http.StatusBadRequest:          "Email and password are required",
	http.StatusNotFound:            "User not found",
	http.StatusUnauthorized:        "Invalid credentials",
	http.StatusInternalServerError: "An error occurred",
}

// SignUp registers a user: POST /signUp.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithDomainError(w, r, err, signUpErrors, h.logger)
		return
	}

	user, err := h.authUseCase.SignUp(r.Context(), usecase.SignUpInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		respondWithDomainError(w, r, err, signUpErrors, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, messageResponse{Message: user.Email + " created successfully"}, h.logger)
}

// Login exchanges credentials for a bearer token: POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithDomainError(w, r, err, loginErrors, h.logger)
		return
	}

	res, err := h.authUseCase.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithDomainError(w, r, err, loginErrors, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, loginResponse{
		Message:   "Login successful",
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt.UTC(),
	}, h.logger)
}
