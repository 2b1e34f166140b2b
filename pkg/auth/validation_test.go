package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tendant/simple-storefront/internal/config"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name            string
		email           string
		blockDisposable bool
		wantErr         bool
	}{
		{name: "valid email", email: "test@example.com"},
		{name: "valid with subdomain", email: "test@mail.example.com"},
		{name: "valid with plus", email: "test+tag@example.com"},
		{name: "surrounding spaces", email: "  Test@Example.com "},
		{name: "empty", email: "", wantErr: true},
		{name: "no at sign", email: "invalid.com", wantErr: true},
		{name: "no domain", email: "test@", wantErr: true},
		{name: "no local part", email: "@example.com", wantErr: true},
		{name: "too long", email: string(make([]byte, 250)) + "@x.com", wantErr: true},
		{name: "disposable allowed", email: "a@mailinator.com"},
		{name: "disposable blocked", email: "a@mailinator.com", blockDisposable: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email, tt.blockDisposable)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", NormalizeEmail("  User@Example.COM\n"))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "Jane Doe", SanitizeName("  Jane\x00 Doe\x07 "))
	assert.Equal(t, "Zoë", SanitizeName("Zoë"))
	assert.Equal(t, "&lt;b&gt;hi&lt;/b&gt;\nthere", SanitizeInput("<b>hi</b>\x1b\nthere"))
}

func TestPasswordPolicy_ValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		policy   PasswordPolicy
		password string
		wantErr  bool
	}{
		{name: "default length ok", policy: PasswordPolicy{MinLength: 6}, password: "secret"},
		{name: "default length short", policy: PasswordPolicy{MinLength: 6}, password: "short", wantErr: true},
		{name: "length counts runes", policy: PasswordPolicy{MinLength: 6}, password: "ääääää"},
		{name: "uppercase missing", policy: PasswordPolicy{RequireUppercase: true}, password: "lower", wantErr: true},
		{name: "uppercase present", policy: PasswordPolicy{RequireUppercase: true}, password: "Lower"},
		{name: "lowercase missing", policy: PasswordPolicy{RequireLowercase: true}, password: "UPPER", wantErr: true},
		{name: "number missing", policy: PasswordPolicy{RequireNumber: true}, password: "nonumber", wantErr: true},
		{name: "number present", policy: PasswordPolicy{RequireNumber: true}, password: "n0number"},
		{name: "special missing", policy: PasswordPolicy{RequireSpecial: true}, password: "plain text", wantErr: true},
		{name: "special present", policy: PasswordPolicy{RequireSpecial: true}, password: "plain!"},
		{name: "no requirements", policy: PasswordPolicy{}, password: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewPasswordPolicy(t *testing.T) {
	p := NewPasswordPolicy(config.PasswordPolicyConfig{MinLength: 6, RequireNumber: true})
	assert.Equal(t, 6, p.MinLength)
	assert.True(t, p.RequireNumber)
	assert.False(t, p.RequireUppercase)
}
