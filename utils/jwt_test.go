package utils

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/cafe-app/models"
)

func newTestTokenService(t *testing.T, now *time.Time) *TokenService {
	t.Helper()
	svc, err := NewTokenService(TokenConfig{
		AccessSecret:  []byte("access-secret-for-tests"),
		RefreshSecret: []byte("refresh-secret-for-tests"),
	})
	require.NoError(t, err)
	return svc.WithClock(func() time.Time { return *now })
}

func testUser() *models.User {
	return &models.User{
		ID:        42,
		FullName:  "Ada",
		Email:     "ada@example.com",
		Role:      models.RoleStaff,
		Points:    17,
		IsInStore: true,
	}
}

func TestNewTokenServiceRejectsSharedOrMissingSecrets(t *testing.T) {
	_, err := NewTokenService(TokenConfig{AccessSecret: []byte("same"), RefreshSecret: []byte("same")})
	assert.Error(t, err)

	_, err = NewTokenService(TokenConfig{AccessSecret: []byte("only-access")})
	assert.Error(t, err)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	svc := newTestTokenService(t, &now)
	u := testUser()

	tok, err := svc.IssueAccessToken(u)
	require.NoError(t, err)
	assert.Equal(t, now.Add(15*time.Minute), tok.ExpiresAt)

	p, err := svc.Verify(tok.Token, models.TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.UserID)
	assert.Equal(t, u.Email, p.Email)
	assert.Equal(t, u.Role, p.Role)
	assert.Equal(t, u.FullName, p.Username)
	assert.Equal(t, u.Points, p.Points)
	assert.True(t, p.IsInStore)
	assert.Equal(t, models.TokenAccess, p.Kind)
}

func TestRefreshTokenCarriesIdentityOnly(t *testing.T) {
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	svc := newTestTokenService(t, &now)

	tok, err := svc.IssueRefreshToken(testUser())
	require.NoError(t, err)
	assert.Equal(t, now.Add(7*24*time.Hour), tok.ExpiresAt)

	p, err := svc.Verify(tok.Token, models.TokenRefresh)
	require.NoError(t, err)
	assert.Equal(t, uint(42), p.UserID)
	assert.Equal(t, models.RoleStaff, p.Role)
	assert.Zero(t, p.Points)
	assert.Equal(t, models.TokenRefresh, p.Kind)
}

func TestKeySeparation(t *testing.T) {
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	svc := newTestTokenService(t, &now)
	admin := testUser()
	admin.Role = models.RoleAdmin

	refresh, err := svc.IssueRefreshToken(admin)
	require.NoError(t, err)
	_, err = svc.Verify(refresh.Token, models.TokenAccess)
	assert.ErrorIs(t, err, ErrTokenBadSignature)

	access, err := svc.IssueAccessToken(admin)
	require.NoError(t, err)
	_, err = svc.Verify(access.Token, models.TokenRefresh)
	assert.ErrorIs(t, err, ErrTokenBadSignature)
}

func TestExpiredRefreshTokenStillFailsSignatureAsAccess(t *testing.T) {
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	svc := newTestTokenService(t, &now)

	refresh, err := svc.IssueRefreshToken(testUser())
	require.NoError(t, err)

	now = now.Add(30 * 24 * time.Hour)
	_, err = svc.Verify(refresh.Token, models.TokenAccess)
	assert.ErrorIs(t, err, ErrTokenBadSignature)
}

func TestExpiryBoundary(t *testing.T) {
	issued := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	now := issued
	svc := newTestTokenService(t, &now)

	tok, err := svc.IssueAccessToken(testUser())
	require.NoError(t, err)

	now = tok.ExpiresAt.Add(-time.Second)
	_, err = svc.Verify(tok.Token, models.TokenAccess)
	assert.NoError(t, err)

	now = tok.ExpiresAt
	_, err = svc.Verify(tok.Token, models.TokenAccess)
	assert.ErrorIs(t, err, ErrTokenExpired)

	now = tok.ExpiresAt.Add(time.Hour)
	_, err = svc.Verify(tok.Token, models.TokenAccess)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejections(t *testing.T) {
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	svc := newTestTokenService(t, &now)

	tok, err := svc.IssueAccessToken(testUser())
	require.NoError(t, err)
	parts := strings.Split(tok.Token, ".")
	require.Len(t, parts, 3)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"id": 1, "role": "admin", "exp": now.Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noIdentity, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "x@example.com", "exp": now.Add(time.Hour).Unix(),
	}).SignedString([]byte("access-secret-for-tests"))
	require.NoError(t, err)

	cases := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrTokenMalformed},
		{"garbage", "not-a-jwt", ErrTokenMalformed},
		{"payload not json", parts[0] + "." + base64.RawURLEncoding.EncodeToString([]byte("not json")) + "." + parts[2], ErrTokenMalformed},
		{"tampered signature", parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2])), ErrTokenBadSignature},
		{"alg none", noneToken, ErrTokenBadSignature},
		{"missing identity", noIdentity, ErrTokenMalformed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Verify(tc.token, models.TokenAccess)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
