package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-for-unit-tests"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, issuer string, roles []string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   "svc-batch",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Roles: roles,
	}
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return signed
}

func rsaKeyPair(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	pubBytes, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("MarshalPKIXPublicKey() error = %v", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	return key, string(pubPEM)
}

func TestValidateToken_HMAC(t *testing.T) {
	v, err := NewValidator(ValidatorConfig{Secret: testSecret, Issuer: "bib-test"})
	if err != nil {
		t.Fatalf("NewValidator() error = %v", err)
	}

	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), "bib-test", []string{RoleScorer}, time.Minute)
	claims, err := v.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Subject != "svc-batch" {
		t.Errorf("Subject = %q, want svc-batch", claims.Subject)
	}
	if !claims.HasRole(RoleScorer) || claims.HasRole(RoleAnalyst) {
		t.Errorf("Roles = %v", claims.Roles)
	}
}

func TestValidateToken_Rejections(t *testing.T) {
	v, err := NewValidator(ValidatorConfig{Secret: testSecret, Issuer: "bib-test"})
	if err != nil {
		t.Fatalf("NewValidator() error = %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"expired", signToken(t, jwt.SigningMethodHS256, []byte(testSecret), "bib-test", nil, -time.Hour)},
		{"wrong secret", signToken(t, jwt.SigningMethodHS256, []byte("other"), "bib-test", nil, time.Minute)},
		{"wrong issuer", signToken(t, jwt.SigningMethodHS256, []byte(testSecret), "someone-else", nil, time.Minute)},
		{"garbage", "not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.ValidateToken(tt.token); err == nil {
				t.Fatal("ValidateToken() expected error, got nil")
			}
		})
	}
}

func TestValidateToken_RSA(t *testing.T) {
	key, pubPEM := rsaKeyPair(t)

	v, err := NewValidator(ValidatorConfig{PublicKeyPEM: pubPEM})
	if err != nil {
		t.Fatalf("NewValidator() error = %v", err)
	}

	token := signToken(t, jwt.SigningMethodRS256, key, "", []string{RoleAnalyst}, time.Minute)
	if _, err := v.ValidateToken(token); err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}

	hmacToken := signToken(t, jwt.SigningMethodHS256, []byte(pubPEM), "", nil, time.Minute)
	if _, err := v.ValidateToken(hmacToken); err == nil {
		t.Fatal("expected HS256 token to be rejected by an RSA validator")
	}
}

func TestNewValidator_Errors(t *testing.T) {
	if _, err := NewValidator(ValidatorConfig{}); err == nil {
		t.Error("expected error for empty config")
	}
	if _, err := NewValidator(ValidatorConfig{PublicKeyPEM: "not pem"}); err == nil {
		t.Error("expected error for invalid public key")
	}
}

func TestLoadKeyFromFile(t *testing.T) {
	_, pubPEM := rsaKeyPair(t)
	path := filepath.Join(t.TempDir(), "jwt.pub")
	if err := os.WriteFile(path, []byte(pubPEM), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	data, err := LoadKeyFromFile(path)
	if err != nil {
		t.Fatalf("LoadKeyFromFile() error = %v", err)
	}
	if string(data) != pubPEM {
		t.Error("key contents differ")
	}

	if _, err := LoadKeyFromFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}
