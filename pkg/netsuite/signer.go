package netsuite

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Credentials holds the token-based authentication material for one ERP
// account. Loaded once from configuration and never mutated.
type Credentials struct {
	AccountID       string
	ConsumerKey     string
	ConsumerSecret  string
	TokenID         string
	TokenSecret     string
	DefaultPassword string
}

// Signer builds the per-request OAuth 1.0 style Authorization header the ERP
// REST API requires (HMAC-SHA256 token-based authentication).
type Signer struct {
	creds Credentials
	nonce func() (string, error)
	now   func() time.Time
}

// SignerOption customizes a Signer. Tests inject fixed nonce and clock
// sources; production signers always use crypto/rand and the wall clock.
type SignerOption func(*Signer)

// WithNonceSource overrides nonce generation.
func WithNonceSource(nonce func() (string, error)) SignerOption {
	return func(s *Signer) { s.nonce = nonce }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) SignerOption {
	return func(s *Signer) { s.now = now }
}

// NewSigner creates a signer for the given credentials.
func NewSigner(creds Credentials, opts ...SignerOption) *Signer {
	s := &Signer{
		creds: creds,
		nonce: randomNonce,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// randomNonce returns 16 cryptographically random bytes, hex-encoded.
func randomNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Sign produces the Authorization header value for one outbound call. Every
// call gets a fresh nonce and timestamp; the pair is never reused, which is
// what makes the signature replay-resistant.
func (s *Signer) Sign(method, rawURL string) (string, error) {
	nonce, err := s.nonce()
	if err != nil {
		return "", err
	}
	timestamp := strconv.FormatInt(s.now().Unix(), 10)

	params := []struct{ key, value string }{
		{"oauth_consumer_key", s.creds.ConsumerKey},
		{"oauth_nonce", nonce},
		{"oauth_signature_method", "HMAC-SHA256"},
		{"oauth_timestamp", timestamp},
		{"oauth_token", s.creds.TokenID},
		{"oauth_version", "1.0"},
	}

	encoded := make([]string, len(params))
	for i, p := range params {
		encoded[i] = percentEncode(p.key) + "=" + percentEncode(p.value)
	}
	sort.Strings(encoded)
	paramString := strings.Join(encoded, "&")

	baseString := strings.ToUpper(method) + "&" + percentEncode(rawURL) + "&" + percentEncode(paramString)
	signingKey := percentEncode(s.creds.ConsumerSecret) + "&" + percentEncode(s.creds.TokenSecret)

	mac := hmac.New(sha256.New, []byte(signingKey))
	mac.Write([]byte(baseString))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	var header strings.Builder
	header.WriteString(`OAuth realm="`)
	header.WriteString(percentEncode(strings.ToUpper(s.creds.AccountID)))
	header.WriteString(`"`)
	for _, p := range params {
		header.WriteString(", ")
		header.WriteString(percentEncode(p.key))
		header.WriteString(`="`)
		header.WriteString(percentEncode(p.value))
		header.WriteString(`"`)
	}
	header.WriteString(`, oauth_signature="`)
	header.WriteString(percentEncode(signature))
	header.WriteString(`"`)

	return header.String(), nil
}

// percentEncode applies RFC 5849 percent encoding: everything except
// unreserved characters is encoded, with upper-case hex digits.
func percentEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9',
			c == '-', c == '.', c == '_', c == '~':
			b.WriteByte(c)
		default:
			b.WriteString(fmt.Sprintf("%%%02X", c))
		}
	}
	return b.String()
}
