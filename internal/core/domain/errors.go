package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the auth flow. Handlers and the central error handler
// map these to HTTP statuses; services never expose which internal check
// produced ErrInvalidCredentials.
var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// login responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountLocked rejects any login attempt while the account is locked,
	// before the password is checked.
	ErrAccountLocked = errors.New("account locked")

	// ErrAccountUnverified rejects logins for accounts whose email address has
	// not been verified yet.
	ErrAccountUnverified = errors.New("account email not verified")

	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")

	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")

	ErrUnauthorized = errors.New("could not validate credentials")
	ErrForbidden    = errors.New("forbidden")

	// ErrHashFormat signals a malformed stored password hash. Verification
	// must surface this rather than silently reporting a mismatch.
	ErrHashFormat = errors.New("malformed password hash")

	// ErrStoreUnavailable signals that the account store could not be reached.
	// It is fatal for the request and never coerced into a credential error.
	ErrStoreUnavailable = errors.New("account store unavailable")
)

// Rule identifies a single credential-policy rule.
type Rule string

const (
	RuleMinLength        Rule = "min_length"
	RuleUppercase        Rule = "uppercase"
	RuleLowercase        Rule = "lowercase"
	RuleDigit            Rule = "digit"
	RuleSpecialCharacter Rule = "special_character"
	RuleNicknameCharset  Rule = "nickname_charset"
	RuleNicknameLength   Rule = "nickname_length"
	RuleEmailFormat      Rule = "email_format"
	RuleURLFormat        Rule = "url_format"
	RuleURLScheme        Rule = "url_scheme"
)

// Violation pairs a rule identifier with its human-readable message.
type Violation struct {
	Rule    Rule   `json:"rule"`
	Message string `json:"message"`
}

// ValidationError reports every credential-policy rule the input violated,
// not just the first, so callers can surface the complete list.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

// Has reports whether the error includes a violation of the given rule.
func (e *ValidationError) Has(rule Rule) bool {
	for _, v := range e.Violations {
		if v.Rule == rule {
			return true
		}
	}
	return false
}
