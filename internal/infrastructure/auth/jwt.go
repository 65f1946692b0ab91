package auth

import (
	"crypto/rsa"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// ValidatorConfig selects how tokens are verified. A public key takes
// precedence over a shared secret.
type ValidatorConfig struct {
	// Secret is the HMAC-SHA256 shared key.
	Secret string

	// PublicKeyPEM is a PEM-encoded RSA public key for RS256 tokens.
	PublicKeyPEM string

	// Issuer, when set, must match the iss claim.
	Issuer string
}

// Validator verifies bearer tokens issued by the identity provider.
type Validator struct {
	publicKey *rsa.PublicKey
	secret    []byte
	issuer    string
}

// NewValidator creates a Validator from cfg.
func NewValidator(cfg ValidatorConfig) (*Validator, error) {
	v := &Validator{issuer: cfg.Issuer}

	switch {
	case cfg.PublicKeyPEM != "":
		pubKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("failed to parse RSA public key: %w", err)
		}
		v.publicKey = pubKey
	case cfg.Secret != "":
		v.secret = []byte(cfg.Secret)
	default:
		return nil, fmt.Errorf("jwt configuration requires PublicKeyPEM or Secret")
	}
	return v, nil
}

// ValidateToken parses and validates a JWT token string.
func (v *Validator) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if v.publicKey != nil {
			if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v (expected RS256)", token.Header["alg"])
			}
			return v.publicKey, nil
		}
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// LoadKeyFromFile reads a PEM-encoded key from a file path.
func LoadKeyFromFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file %q: %w", path, err)
	}
	return data, nil
}
