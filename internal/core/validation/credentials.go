// Package validation implements the credential policy: the syntactic rules a
// nickname, email, password, and profile URL must satisfy. Checks are pure
// functions of their input and report every violated rule in one pass.
package validation

import (
	"net/url"
	"regexp"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/userhub/user-management/internal/core/domain"
)

const (
	minPasswordLength = 8
	minNicknameLength = 3
)

var nicknamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// CredentialValidator enforces the credential policy. The zero value is not
// usable; construct with New.
type CredentialValidator struct {
	v *validator.Validate
}

func New() *CredentialValidator {
	return &CredentialValidator{v: validator.New()}
}

// Registration validates the full credential set presented at account
// creation. Returns nil when every rule passes, otherwise a ValidationError
// enumerating all violations.
func (cv *CredentialValidator) Registration(nickname, email, password, profileURL string) error {
	var violations []domain.Violation
	violations = append(violations, cv.nickname(nickname)...)
	violations = append(violations, cv.email(email)...)
	violations = append(violations, cv.password(password)...)
	violations = append(violations, cv.profileURL(profileURL)...)
	if len(violations) == 0 {
		return nil
	}
	return &domain.ValidationError{Violations: violations}
}

// Profile validates the fields a profile update may change. Empty fields are
// treated as "not provided" and skipped; password is never updated here.
func (cv *CredentialValidator) Profile(nickname, email, profileURL string) error {
	var violations []domain.Violation
	if nickname != "" {
		violations = append(violations, cv.nickname(nickname)...)
	}
	if email != "" {
		violations = append(violations, cv.email(email)...)
	}
	violations = append(violations, cv.profileURL(profileURL)...)
	if len(violations) == 0 {
		return nil
	}
	return &domain.ValidationError{Violations: violations}
}

func (cv *CredentialValidator) nickname(nickname string) []domain.Violation {
	var out []domain.Violation
	if len(nickname) < minNicknameLength {
		out = append(out, domain.Violation{
			Rule:    domain.RuleNicknameLength,
			Message: "Nickname must be at least 3 characters long",
		})
	}
	if nickname != "" && !nicknamePattern.MatchString(nickname) {
		out = append(out, domain.Violation{
			Rule:    domain.RuleNicknameCharset,
			Message: "Nickname must contain only alphanumeric characters, underscores, or hyphens",
		})
	}
	return out
}

func (cv *CredentialValidator) email(email string) []domain.Violation {
	if err := cv.v.Var(email, "required,email"); err != nil {
		return []domain.Violation{{
			Rule:    domain.RuleEmailFormat,
			Message: "value is not a valid email address",
		}}
	}
	return nil
}

// password checks each character class independently so every missing class
// yields its own violation.
func (cv *CredentialValidator) password(password string) []domain.Violation {
	var out []domain.Violation
	if len(password) < minPasswordLength {
		out = append(out, domain.Violation{
			Rule:    domain.RuleMinLength,
			Message: "Password must be at least 8 characters long",
		})
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}
	if !hasUpper {
		out = append(out, domain.Violation{
			Rule:    domain.RuleUppercase,
			Message: "Password must contain at least one uppercase letter",
		})
	}
	if !hasLower {
		out = append(out, domain.Violation{
			Rule:    domain.RuleLowercase,
			Message: "Password must contain at least one lowercase letter",
		})
	}
	if !hasDigit {
		out = append(out, domain.Violation{
			Rule:    domain.RuleDigit,
			Message: "Password must contain at least one digit",
		})
	}
	if !hasSpecial {
		out = append(out, domain.Violation{
			Rule:    domain.RuleSpecialCharacter,
			Message: "Password must contain at least one special character",
		})
	}
	return out
}

// profileURL is optional: the empty string passes. A parseable URL with a
// scheme other than http/https is a scheme violation, anything unparseable or
// missing its host is a format violation.
func (cv *CredentialValidator) profileURL(raw string) []domain.Violation {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return []domain.Violation{{
			Rule:    domain.RuleURLFormat,
			Message: "Invalid URL format",
		}}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return []domain.Violation{{
			Rule:    domain.RuleURLScheme,
			Message: "URL must use the http or https scheme",
		}}
	}
	return nil
}
