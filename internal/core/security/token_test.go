package security

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/userhub/user-management/internal/core/domain"
)

func TestJWTCodec_RoundTrip(t *testing.T) {
	codec := NewJWTCodec("secret", time.Hour)

	token, err := codec.Issue("test@example.com", domain.RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	p, err := codec.Decode(token)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if p.Identity != "test@example.com" {
		t.Fatalf("unexpected identity: %s", p.Identity)
	}
	if p.Role != domain.RoleAdmin {
		t.Fatalf("unexpected role: %s", p.Role)
	}
}

func TestJWTCodec_Expired(t *testing.T) {
	codec := NewJWTCodec("secret", time.Hour)

	token, err := codec.Issue("test@example.com", domain.RoleAuthenticated, time.Minute)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	// Shift the codec clock past expiry.
	codec.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	if _, err := codec.Decode(token); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestJWTCodec_TamperedSignature(t *testing.T) {
	codec := NewJWTCodec("secret", time.Hour)

	token, err := codec.Issue("test@example.com", domain.RoleAuthenticated, time.Hour)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := codec.Decode(tampered); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestJWTCodec_WrongSecret(t *testing.T) {
	issuer := NewJWTCodec("secret", time.Hour)
	verifier := NewJWTCodec("other-secret", time.Hour)

	token, err := issuer.Issue("test@example.com", domain.RoleAuthenticated, time.Hour)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if _, err := verifier.Decode(token); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestJWTCodec_MalformedInput(t *testing.T) {
	codec := NewJWTCodec("secret", time.Hour)

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := codec.Decode(raw); !errors.Is(err, domain.ErrTokenInvalid) {
			t.Fatalf("input %q: expected ErrTokenInvalid, got %v", raw, err)
		}
	}
}

func TestJWTCodec_MissingClaims(t *testing.T) {
	codec := NewJWTCodec("secret", time.Hour)

	cases := []struct {
		name   string
		claims jwt.MapClaims
	}{
		{"missing role", jwt.MapClaims{"sub": "test@example.com", "exp": time.Now().Add(time.Hour).Unix()}},
		{"missing sub", jwt.MapClaims{"role": "admin", "exp": time.Now().Add(time.Hour).Unix()}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tc.claims).SignedString([]byte("secret"))
			if err != nil {
				t.Fatalf("sign token: %v", err)
			}
			if _, err := codec.Decode(signed); !errors.Is(err, domain.ErrTokenInvalid) {
				t.Fatalf("expected ErrTokenInvalid, got %v", err)
			}
		})
	}
}

func TestJWTCodec_RejectsWrongAlgorithm(t *testing.T) {
	codec := NewJWTCodec("secret", time.Hour)

	// "none" algorithm tokens must never decode.
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub":  "test@example.com",
		"role": "admin",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := codec.Decode(unsigned); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}
