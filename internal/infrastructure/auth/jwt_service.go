package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gemstone-market/identity/domain"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Verification failure reasons
const (
	ReasonMalformed = "malformed"
	ReasonSignature = "signature"
	ReasonExpired   = "expired"
	ReasonWrongKind = "wrong_kind"
)

type tokenClaims struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
	Type  string   `json:"typ"`
	jwt.RegisteredClaims
}

// JWTServiceImpl implements domain.TokenCodec
type JWTServiceImpl struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// JWTOptions configures the token codec. TTLs are duration strings such as
// "15m", "7d" or "900".
type JWTOptions struct {
	AccessSecret  string
	RefreshSecret string
	Issuer        string
	AccessTTL     string
	RefreshTTL    string
	Now           func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(opts JWTOptions, log zerolog.Logger) domain.TokenCodec {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &JWTServiceImpl{
		accessSecret:  []byte(opts.AccessSecret),
		refreshSecret: []byte(opts.RefreshSecret),
		issuer:        opts.Issuer,
		accessTTL:     ttlOrDefault(opts.AccessTTL, DefaultAccessTTL, "access", log),
		refreshTTL:    ttlOrDefault(opts.RefreshTTL, DefaultRefreshTTL, "refresh", log),
		now:           now,
	}
}

func ttlOrDefault(value string, fallback time.Duration, kind string, log zerolog.Logger) time.Duration {
	ttl, err := ParseTTL(value)
	if err != nil {
		log.Warn().Str("kind", kind).Str("value", value).Dur("fallback", fallback).Msg("invalid token ttl, using default")
		return fallback
	}
	return ttl
}

// ParseTTL accepts Go durations ("15m", "12h"), day counts ("7d") and plain
// seconds ("900").
func ParseTTL(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, errors.New("empty duration")
	}

	var ttl time.Duration
	switch {
	case strings.HasSuffix(value, "d"):
		days, err := strconv.Atoi(strings.TrimSuffix(value, "d"))
		if err != nil {
			return 0, err
		}
		ttl = time.Duration(days) * 24 * time.Hour
	default:
		if secs, err := strconv.Atoi(value); err == nil {
			ttl = time.Duration(secs) * time.Second
			break
		}
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return 0, err
		}
		ttl = parsed
	}

	if ttl <= 0 {
		return 0, errors.New("duration must be positive")
	}
	return ttl, nil
}

// AccessTTL implements domain.TokenCodec
func (j *JWTServiceImpl) AccessTTL() time.Duration { return j.accessTTL }

// RefreshTTL implements domain.TokenCodec
func (j *JWTServiceImpl) RefreshTTL() time.Duration { return j.refreshTTL }

// IssueAccessToken implements domain.TokenCodec
func (j *JWTServiceImpl) IssueAccessToken(claims domain.TokenClaims) (string, error) {
	return j.issue(claims, domain.AccessToken, j.accessSecret, j.accessTTL)
}

// IssueRefreshToken implements domain.TokenCodec
func (j *JWTServiceImpl) IssueRefreshToken(claims domain.TokenClaims) (string, error) {
	return j.issue(claims, domain.RefreshToken, j.refreshSecret, j.refreshTTL)
}

func (j *JWTServiceImpl) issue(claims domain.TokenClaims, kind domain.TokenKind, secret []byte, ttl time.Duration) (string, error) {
	now := j.now()
	registered := tokenClaims{
		Email: claims.Email,
		Roles: claims.Roles,
		Type:  string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(claims.AccountID), 10),
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			// Unique JWT ID keeps tokens issued in the same second distinct
			ID: uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, registered)
	return token.SignedString(secret)
}

// Verify implements domain.TokenCodec
func (j *JWTServiceImpl) Verify(tokenString string, kind domain.TokenKind) domain.VerifyResult {
	secret := j.accessSecret
	if kind == domain.RefreshToken {
		secret = j.refreshSecret
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return domain.VerifyResult{Reason: failureReason(err)}
	}

	if claims.Type != string(kind) {
		return domain.VerifyResult{Reason: ReasonWrongKind}
	}

	accountID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || accountID == 0 {
		return domain.VerifyResult{Reason: ReasonMalformed}
	}

	result := domain.VerifyResult{
		Valid: true,
		Claims: &domain.TokenClaims{
			AccountID: uint(accountID),
			Email:     claims.Email,
			Roles:     claims.Roles,
			Kind:      kind,
			ID:        claims.ID,
		},
	}
	if claims.IssuedAt != nil {
		result.Claims.IssuedAt = claims.IssuedAt.Unix()
	}
	result.Claims.ExpiresAt = claims.ExpiresAt.Unix()
	return result
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ReasonExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ReasonSignature
	default:
		return ReasonMalformed
	}
}
