package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/C-gyeltshen/Web102-Cap2/internal/domain"
)

const testSecret = "test-secret-key-at-least-32-chars-long"

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newService(t *testing.T, clock *fakeClock) *JWTService {
	t.Helper()
	s, err := NewJWTService(testSecret, WithClock(clock.Now))
	require.NoError(t, err)
	return s
}

func TestNewJWTService_EmptySecret(t *testing.T) {
	s, err := NewJWTService("")
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestIssue_ExpiresExactlyOneHourAfterIssue(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	s := newService(t, clock)

	signed, expiresAt, err := s.Issue("ash@pallet.town")
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_000_000+3600), expiresAt.Unix())

	claims := &jwt.RegisteredClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(signed, claims)
	require.NoError(t, err)
	assert.Equal(t, "ash@pallet.town", claims.Subject)
	assert.Equal(t, int64(3600), claims.ExpiresAt.Unix()-claims.IssuedAt.Unix())
}

func TestVerify(t *testing.T) {
	issuedAt := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name    string
		elapsed time.Duration
		wantErr bool
	}{
		{name: "fresh token", elapsed: 0},
		{name: "one second before expiry", elapsed: 3599 * time.Second},
		{name: "at expiry", elapsed: 3600 * time.Second, wantErr: true},
		{name: "after expiry", elapsed: 3601 * time.Second, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{t: issuedAt}
			s := newService(t, clock)

			signed, _, err := s.Issue("misty@cerulean.city")
			require.NoError(t, err)

			clock.t = issuedAt.Add(tt.elapsed)
			session, err := s.Verify(signed)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidToken)
				assert.ErrorIs(t, err, domain.ErrUnauthorized)
				assert.Nil(t, session)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "misty@cerulean.city", session.Subject)
			assert.Equal(t, issuedAt.Add(TTL).Unix(), session.ExpiresAt.Unix())
			assert.Equal(t, issuedAt.Unix(), session.IssuedAt.Unix())
		})
	}
}

func TestVerify_RejectsForeignTokens(t *testing.T) {
	now := time.Now()
	s, err := NewJWTService(testSecret)
	require.NoError(t, err)

	claims := jwt.RegisteredClaims{
		Subject:   "brock@pewter.city",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}

	otherKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("another-secret-key-that-is-also-long"))
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "brock@pewter.city"}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: claims.ExpiresAt}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	valid, _, err := s.Issue("brock@pewter.city")
	require.NoError(t, err)
	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	for name, tok := range map[string]string{
		"wrong key":  otherKey,
		"wrong alg":  hs512,
		"alg none":   unsigned,
		"no exp":     noExpiry,
		"no subject": noSubject,
		"tampered":   tampered,
		"garbage":    "not.a.token",
		"empty":      "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.Verify(tok)
			assert.ErrorIs(t, err, domain.ErrInvalidToken)
		})
	}
}
