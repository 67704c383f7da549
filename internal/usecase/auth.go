package usecase

import (
	"context"
	"time"

	"github.com/C-gyeltshen/Web102-Cap2/internal/domain"
)

// PasswordHasher turns passwords into digests and checks them.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns domain.ErrInvalidCredentials on mismatch.
	Compare(digest, password string) error
}

// TokenIssuer signs the bearer token handed out on login.
type TokenIssuer interface {
	Issue(subject string) (token string, expiresAt time.Time, err error)
}

// SignUpInput is the payload of a sign-up request.
type SignUpInput struct {
	Email    string
	Username string
	Password string
}

// LoginResult is returned on successful login.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AuthUseCase covers registration and login.
type AuthUseCase interface {
	// SignUp hashes the password and stores a new user.
	// A registered email yields domain.ErrEmailTaken.
	SignUp(ctx context.Context, in SignUpInput) (*domain.User, error)

	// Login checks the credentials and issues a token for the user's email.
	// Unknown email yields domain.ErrUserNotFound, a wrong password domain.ErrInvalidCredentials.
	Login(ctx context.Context, email, password string) (*LoginResult, error)
}
