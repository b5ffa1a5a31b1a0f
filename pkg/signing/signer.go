package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidToken is returned for malformed tokens, bad signatures and scope mismatches.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpired is returned for well-formed tokens past their expiry.
	ErrExpired = errors.New("token expired")
)

// Signer issues HMAC-signed, URL-safe tokens that bind a subject to a scope
// until an expiry. They are meant for links that cannot carry an
// Authorization header, such as calendar subscriptions.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner constructs a signer. A non-positive ttl defaults to 24h.
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate returns a token for subject valid for scope until the returned time.
func (s *Signer) Generate(subject, scope string) (string, time.Time, error) {
	if subject == "" || scope == "" {
		return "", time.Time{}, fmt.Errorf("subject and scope required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	encodedSubject := base64.RawURLEncoding.EncodeToString([]byte(subject))
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	signature := s.sign(encodedSubject, ts, scope)
	return strings.Join([]string{encodedSubject, ts, signature}, "."), expiresAt, nil
}

// Parse validates token against scope and returns the subject it was issued for.
func (s *Signer) Parse(token, scope string) (string, time.Time, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", time.Time{}, ErrInvalidToken
	}
	encodedSubject, ts, signature := parts[0], parts[1], parts[2]

	expected := s.sign(encodedSubject, ts, scope)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return "", time.Time{}, ErrInvalidToken
	}

	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", time.Time{}, ErrInvalidToken
	}
	subject, err := base64.RawURLEncoding.DecodeString(encodedSubject)
	if err != nil {
		return "", time.Time{}, ErrInvalidToken
	}

	expiresAt := time.Unix(expUnix, 0)
	if s.now().After(expiresAt) {
		return "", expiresAt, ErrExpired
	}
	return string(subject), expiresAt, nil
}

func (s *Signer) sign(encodedSubject, ts, scope string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(scope + "|" + encodedSubject + "|" + ts))
	return hex.EncodeToString(mac.Sum(nil))
}
