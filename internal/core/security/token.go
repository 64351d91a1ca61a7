package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/userhub/user-management/internal/core/domain"
)

// JWTCodec issues and decodes self-contained HS256 access tokens carrying the
// subject identity and role. No server-side session store is consulted.
type JWTCodec struct {
	secret     []byte
	defaultTTL time.Duration
	now        func() time.Time
}

func NewJWTCodec(secret string, defaultTTL time.Duration) *JWTCodec {
	if defaultTTL <= 0 {
		defaultTTL = 24 * time.Hour
	}
	return &JWTCodec{secret: []byte(secret), defaultTTL: defaultTTL, now: time.Now}
}

// Issue signs a token for the given identity and role. ttl <= 0 falls back to
// the codec's default.
func (c *JWTCodec) Issue(identity string, role domain.Role, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	now := c.now().UTC()
	claims := jwt.MapClaims{
		"sub":  identity,
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.secret)
}

// Decode verifies the signature and expiry and extracts the principal.
// Failures are typed: ErrTokenExpired past expiry, ErrTokenInvalid for a bad
// signature, malformed input, or missing sub/role claims. Never panics.
func (c *JWTCodec) Decode(token string) (domain.Principal, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return c.now() }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Principal{}, domain.ErrTokenExpired
		}
		return domain.Principal{}, domain.ErrTokenInvalid
	}
	if !parsed.Valid {
		return domain.Principal{}, domain.ErrTokenInvalid
	}

	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub == "" || role == "" {
		// Partial claims are not acceptable even with a valid signature.
		return domain.Principal{}, domain.ErrTokenInvalid
	}

	return domain.Principal{Identity: sub, Role: domain.Role(role)}, nil
}
