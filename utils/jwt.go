package utils

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yeremiapane/cafe-app/models"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
	DefaultIssuer     = "CafeApp"
)

// Rejection reasons returned by TokenService.Verify.
var (
	ErrTokenMalformed    = errors.New("token malformed")
	ErrTokenBadSignature = errors.New("token signature invalid")
	ErrTokenExpired      = errors.New("token expired")
)

type AccessClaims struct {
	UserID    uint        `json:"id"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	Username  string      `json:"username"`
	Points    int         `json:"points"`
	IsInStore bool        `json:"isInStore"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	UserID uint        `json:"id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// SignedToken is a serialized JWT plus the expiry embedded in it.
type SignedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// TokenService mints and verifies access and refresh tokens. Each kind has
// its own HMAC key and a token is only ever checked against the key of the
// kind the caller expects.
type TokenService struct {
	cfg TokenConfig
	now func() time.Time
}

func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("access and refresh secrets are required")
	}
	if bytes.Equal(cfg.AccessSecret, cfg.RefreshSecret) {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	return &TokenService{cfg: cfg, now: time.Now}, nil
}

// WithClock replaces the time source used for issuing and verifying.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

func (s *TokenService) AccessTTL() time.Duration { return s.cfg.AccessTTL }

func (s *TokenService) registered(userID uint, ttl time.Duration) jwt.RegisteredClaims {
	now := s.now()
	return jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    s.cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func sign(claims jwt.Claims, exp *jwt.NumericDate, secret []byte) (SignedToken, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, ExpiresAt: exp.Time}, nil
}

func (s *TokenService) IssueAccessToken(u *models.User) (SignedToken, error) {
	claims := &AccessClaims{
		UserID:           u.ID,
		Email:            u.Email,
		Role:             u.Role,
		Username:         u.FullName,
		Points:           u.Points,
		IsInStore:        u.IsInStore,
		RegisteredClaims: s.registered(u.ID, s.cfg.AccessTTL),
	}
	return sign(claims, claims.ExpiresAt, s.cfg.AccessSecret)
}

func (s *TokenService) IssueRefreshToken(u *models.User) (SignedToken, error) {
	claims := &RefreshClaims{
		UserID:           u.ID,
		Email:            u.Email,
		Role:             u.Role,
		RegisteredClaims: s.registered(u.ID, s.cfg.RefreshTTL),
	}
	return sign(claims, claims.ExpiresAt, s.cfg.RefreshSecret)
}

// Verify checks signature, expiry and claim shape of raw against the key for
// kind. The error is one of ErrTokenMalformed, ErrTokenBadSignature or
// ErrTokenExpired (possibly wrapped).
func (s *TokenService) Verify(raw string, kind models.TokenKind) (*models.Principal, error) {
	switch kind {
	case models.TokenAccess:
		claims := &AccessClaims{}
		if err := s.parse(raw, claims, s.cfg.AccessSecret); err != nil {
			return nil, err
		}
		if err := s.checkClaims(claims.UserID, claims.Role, claims.ExpiresAt); err != nil {
			return nil, err
		}
		return &models.Principal{
			UserID:    claims.UserID,
			Email:     claims.Email,
			Role:      claims.Role,
			Username:  claims.Username,
			Points:    claims.Points,
			IsInStore: claims.IsInStore,
			Kind:      models.TokenAccess,
		}, nil
	case models.TokenRefresh:
		claims := &RefreshClaims{}
		if err := s.parse(raw, claims, s.cfg.RefreshSecret); err != nil {
			return nil, err
		}
		if err := s.checkClaims(claims.UserID, claims.Role, claims.ExpiresAt); err != nil {
			return nil, err
		}
		return &models.Principal{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
			Kind:   models.TokenRefresh,
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown token kind %q", ErrTokenMalformed, kind)
}

// parse verifies the signature only; expiry is checked afterwards so a
// token signed with the wrong key is always reported as a bad signature.
func (s *TokenService) parse(raw string, claims jwt.Claims, secret []byte) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrTokenBadSignature
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}

func (s *TokenService) checkClaims(userID uint, role models.Role, exp *jwt.NumericDate) error {
	if exp == nil {
		return fmt.Errorf("%w: missing exp", ErrTokenMalformed)
	}
	if !s.now().Before(exp.Time) {
		return ErrTokenExpired
	}
	if userID == 0 || !role.Valid() {
		return fmt.Errorf("%w: missing identity claims", ErrTokenMalformed)
	}
	return nil
}
