package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/C-gyeltshen/Web102-Cap2/internal/core/ports"
	"github.com/C-gyeltshen/Web102-Cap2/internal/domain"
)

// authUseCase implements AuthUseCase
type authUseCase struct {
	users  ports.UserStorage
	hasher PasswordHasher
	tokens TokenIssuer
	logger *slog.Logger
}

func NewAuthUseCase(users ports.UserStorage, hasher PasswordHasher, tokens TokenIssuer, logger *slog.Logger) AuthUseCase {
	return &authUseCase{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
}

func (uc *authUseCase) SignUp(ctx context.Context, in SignUpInput) (*domain.User, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, fmt.Errorf("email and password are required: %w", domain.ErrInvalidInput)
	}

	digest, err := uc.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("usecase: hash password for %s: %w", email, err)
	}

	user := &domain.User{
		Email:        email,
		Username:     strings.TrimSpace(in.Username),
		PasswordHash: digest,
	}
	if err := uc.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("usecase: create user %s: %w", email, err)
	}

	uc.logger.Info("user signed up", "user_id", user.ID, "email", user.Email)
	return user, nil
}

func (uc *authUseCase) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required: %w", domain.ErrInvalidInput)
	}

	user, err := uc.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("usecase: find user %s: %w", email, err)
	}

	if err := uc.hasher.Compare(user.PasswordHash, password); err != nil {
		uc.logger.Info("login rejected", "email", email)
		return nil, fmt.Errorf("usecase: check password of %s: %w", email, err)
	}

	token, expiresAt, err := uc.tokens.Issue(user.Email)
	if err != nil {
		return nil, fmt.Errorf("usecase: issue token for %s: %w", email, err)
	}

	uc.logger.Info("user logged in", "user_id", user.ID, "expires_at", expiresAt)
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
