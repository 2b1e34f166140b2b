package auth

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/tendant/simple-storefront/internal/config"
)

const maxEmailLength = 254 // RFC 5321

var validate = validator.New()

// Common disposable email domains to block
var disposableDomains = map[string]bool{
	"tempmail.com":      true,
	"10minutemail.com":  true,
	"guerrillamail.com": true,
	"mailinator.com":    true,
	"throwaway.email":   true,
}

// ValidateEmail checks format and length of an email address.
func ValidateEmail(email string, blockDisposable bool) error {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return errors.New("email address is required")
	}
	if len(normalized) > maxEmailLength {
		return fmt.Errorf("email address is too long (max %d characters)", maxEmailLength)
	}
	if err := validate.Var(normalized, "email"); err != nil {
		return errors.New("invalid email address")
	}

	if blockDisposable {
		_, host, _ := strings.Cut(normalized, "@")
		if disposableDomains[host] {
			return errors.New("disposable email addresses are not allowed")
		}
	}
	return nil
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SanitizeName trims a display name and strips control characters.
func SanitizeName(name string) string {
	return strings.TrimSpace(removeControlChars(name, false))
}

// SanitizeInput strips control characters (keeping line breaks and tabs) and
// escapes HTML, for free text that ends up in logs or mail bodies.
func SanitizeInput(input string) string {
	return html.EscapeString(removeControlChars(input, true))
}

func removeControlChars(s string, keepWhitespace bool) string {
	return strings.Map(func(r rune) rune {
		if keepWhitespace && (r == '\n' || r == '\r' || r == '\t') {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// PasswordPolicy defines password complexity requirements.
type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumber    bool
	RequireSpecial   bool
}

// NewPasswordPolicy creates a PasswordPolicy from config.
func NewPasswordPolicy(cfg config.PasswordPolicyConfig) *PasswordPolicy {
	return &PasswordPolicy{
		MinLength:        cfg.MinLength,
		RequireUppercase: cfg.RequireUppercase,
		RequireLowercase: cfg.RequireLowercase,
		RequireNumber:    cfg.RequireNumber,
		RequireSpecial:   cfg.RequireSpecial,
	}
}

// ValidatePassword checks a password against the policy.
func (p *PasswordPolicy) ValidatePassword(password string) error {
	if p.MinLength > 0 && len([]rune(password)) < p.MinLength {
		return fmt.Errorf("password must be at least %d characters", p.MinLength)
	}
	if p.RequireUppercase && !strings.ContainsFunc(password, unicode.IsUpper) {
		return errors.New("password must contain at least one uppercase letter")
	}
	if p.RequireLowercase && !strings.ContainsFunc(password, unicode.IsLower) {
		return errors.New("password must contain at least one lowercase letter")
	}
	if p.RequireNumber && !strings.ContainsFunc(password, unicode.IsDigit) {
		return errors.New("password must contain at least one number")
	}
	if p.RequireSpecial && !strings.ContainsFunc(password, isSpecial) {
		return errors.New("password must contain at least one special character")
	}
	return nil
}

func isSpecial(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r)
}
