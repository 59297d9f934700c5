// internal/auth/auth.go
package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AdminSubject is the token subject of admin sessions
const AdminSubject = "admin"

var (
	ErrAdminDisabled   = errors.New("admin access is disabled")
	ErrInvalidPassword = errors.New("invalid admin password")
	ErrInvalidToken    = errors.New("invalid token")
	ErrTokenExpired    = errors.New("token has expired")
)

// TokenConfig holds the configuration for token generation
type TokenConfig struct {
	Secret     []byte
	Expiration time.Duration
}

// Token represents an authentication token
type Token struct {
	Subject   string `json:"subject"`
	ExpiresAt int64  `json:"expires_at"`
	IssuedAt  int64  `json:"issued_at"`
}

// GenerateToken signs subject|expires|issued with HMAC-SHA256
func GenerateToken(subject string, config *TokenConfig) (string, error) {
	if len(config.Secret) == 0 {
		return "", fmt.Errorf("secret key is required")
	}
	if strings.Contains(subject, "|") {
		return "", fmt.Errorf("subject must not contain '|'")
	}

	now := time.Now()
	payload := fmt.Sprintf("%s|%d|%d", subject, now.Add(config.Expiration).Unix(), now.Unix())

	h := hmac.New(sha256.New, config.Secret)
	h.Write([]byte(payload))
	signature := h.Sum(nil)

	return base64.URLEncoding.EncodeToString([]byte(payload)) + "." +
		base64.URLEncoding.EncodeToString(signature), nil
}

// ParseToken validates the signature and expiry of a token
func ParseToken(tokenString string, config *TokenConfig) (*Token, error) {
	if len(config.Secret) == 0 {
		return nil, fmt.Errorf("secret key is required")
	}

	parts := strings.Split(tokenString, ".")
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: format", ErrInvalidToken)
	}

	payloadBytes, err := base64.URLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrInvalidToken, err)
	}
	signatureBytes, err := base64.URLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: signature: %v", ErrInvalidToken, err)
	}

	expected := hmac.New(sha256.New, config.Secret)
	expected.Write(payloadBytes)
	if !hmac.Equal(signatureBytes, expected.Sum(nil)) {
		return nil, fmt.Errorf("%w: signature mismatch", ErrInvalidToken)
	}

	payloadParts := strings.Split(string(payloadBytes), "|")
	if len(payloadParts) != 3 {
		return nil, fmt.Errorf("%w: payload format", ErrInvalidToken)
	}
	expiresAt, err := strconv.ParseInt(payloadParts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: expiry", ErrInvalidToken)
	}
	issuedAt, err := strconv.ParseInt(payloadParts[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: issue time", ErrInvalidToken)
	}

	if time.Now().Unix() > expiresAt {
		return nil, ErrTokenExpired
	}

	return &Token{
		Subject:   payloadParts[0],
		ExpiresAt: expiresAt,
		IssuedAt:  issuedAt,
	}, nil
}

// GenerateSecureKey generates a secure random key for token signing
func GenerateSecureKey(length int) ([]byte, error) {
	if length <= 0 {
		length = 32
	}
	key := make([]byte, length)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// AdminAuth checks the admin password and issues admin session tokens. With
// an empty password every check fails.
type AdminAuth struct {
	password string
	tokens   *TokenConfig
}

// NewAdminAuth builds the admin gate. An empty secret gets a random key, so
// tokens do not survive a restart.
func NewAdminAuth(password, secret string, expiration time.Duration) (*AdminAuth, error) {
	key := []byte(secret)
	if len(key) == 0 {
		var err error
		if key, err = GenerateSecureKey(32); err != nil {
			return nil, fmt.Errorf("generate token key: %w", err)
		}
	}
	if expiration <= 0 {
		expiration = 12 * time.Hour
	}
	return &AdminAuth{
		password: password,
		tokens:   &TokenConfig{Secret: key, Expiration: expiration},
	}, nil
}

func (a *AdminAuth) Enabled() bool {
	return a.password != ""
}

// CheckPassword compares in constant time
func (a *AdminAuth) CheckPassword(candidate string) error {
	if !a.Enabled() {
		return ErrAdminDisabled
	}
	if subtle.ConstantTimeCompare([]byte(candidate), []byte(a.password)) != 1 {
		return ErrInvalidPassword
	}
	return nil
}

// Login exchanges the password for a session token
func (a *AdminAuth) Login(password string) (string, time.Time, error) {
	if err := a.CheckPassword(password); err != nil {
		return "", time.Time{}, err
	}
	token, err := GenerateToken(AdminSubject, a.tokens)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, time.Now().Add(a.tokens.Expiration), nil
}

// VerifyToken accepts only unexpired admin tokens
func (a *AdminAuth) VerifyToken(token string) error {
	if !a.Enabled() {
		return ErrAdminDisabled
	}
	parsed, err := ParseToken(token, a.tokens)
	if err != nil {
		return err
	}
	if parsed.Subject != AdminSubject {
		return fmt.Errorf("%w: subject", ErrInvalidToken)
	}
	return nil
}
