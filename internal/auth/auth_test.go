// internal/auth/auth_test.go
package auth

import (
	"testing"
	"time"
)

func testConfig() *TokenConfig {
	return &TokenConfig{
		Secret:     []byte("0123456789abcdef0123456789abcdef"),
		Expiration: time.Hour,
	}
}

func TestTokenRoundTrip(t *testing.T) {
	cfg := testConfig()

	tokenString, err := GenerateToken("guest", cfg)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	token, err := ParseToken(tokenString, cfg)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if token.Subject != "guest" {
		t.Errorf("subject = %q", token.Subject)
	}
	if token.ExpiresAt <= token.IssuedAt {
		t.Error("expiry must be after issue time")
	}
}

func TestTokenRejectsTampering(t *testing.T) {
	cfg := testConfig()

	tokenString, err := GenerateToken("guest", cfg)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	tampered := "A" + tokenString[1:]
	if _, err := ParseToken(tampered, cfg); err == nil {
		t.Error("tampered token accepted")
	}

	otherCfg := testConfig()
	otherCfg.Secret = []byte("fedcba9876543210fedcba9876543210")
	if _, err := ParseToken(tokenString, otherCfg); err == nil {
		t.Error("token accepted under a different secret")
	}

	if _, err := ParseToken("not-a-token", cfg); err == nil {
		t.Error("garbage token accepted")
	}
}

func TestTokenExpiry(t *testing.T) {
	cfg := testConfig()
	cfg.Expiration = -time.Minute

	tokenString, err := GenerateToken("guest", cfg)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseToken(tokenString, cfg); err == nil {
		t.Error("expired token accepted")
	}
}

func TestGenerateTokenRequiresSecret(t *testing.T) {
	if _, err := GenerateToken("guest", &TokenConfig{}); err == nil {
		t.Error("empty secret accepted")
	}
}

func TestValidateAccessCode(t *testing.T) {
	tests := []struct {
		name       string
		presented  string
		configured string
		want       bool
	}{
		{"match", "secret", "secret", true},
		{"mismatch", "wrong", "secret", false},
		{"empty presented", "", "secret", false},
		{"gate disabled", "anything", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateAccessCode(tt.presented, tt.configured); got != tt.want {
				t.Errorf("ValidateAccessCode(%q, %q) = %v, want %v", tt.presented, tt.configured, got, tt.want)
			}
		})
	}
}
