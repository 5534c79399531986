package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"time"
)

// OKXAuth holds the credentials for HMAC-authenticated requests against the
// OKX v5 API.
type OKXAuth struct {
	Key        string // API key
	Secret     string // API secret (raw)
	Passphrase string // API passphrase
}

// Headers returns the HTTP headers for a signed OKX request. The signature is
// HMAC-SHA256(secret, timestamp+method+path+body) encoded as base64, with the
// timestamp in the ISO 8601 millisecond form OKX requires.
//
// Returned header keys:
//   - OK-ACCESS-KEY
//   - OK-ACCESS-SIGN
//   - OK-ACCESS-TIMESTAMP
//   - OK-ACCESS-PASSPHRASE
func (a *OKXAuth) Headers(method, path, body string) map[string]string {
	return a.HeadersAt(method, path, body, time.Now().UTC())
}

// HeadersAt is like Headers but lets the caller supply the timestamp
// (useful for deterministic testing).
func (a *OKXAuth) HeadersAt(method, path, body string, at time.Time) map[string]string {
	ts := at.UTC().Format("2006-01-02T15:04:05.000Z")

	message := ts + method + path + body
	sig := hmacSHA256Base64([]byte(a.Secret), message)

	return map[string]string{
		"OK-ACCESS-KEY":        a.Key,
		"OK-ACCESS-SIGN":       sig,
		"OK-ACCESS-TIMESTAMP":  ts,
		"OK-ACCESS-PASSPHRASE": a.Passphrase,
	}
}

// String returns a redacted representation suitable for logging.
func (a *OKXAuth) String() string {
	return fmt.Sprintf("OKXAuth{key=%s, secret=%s}", redact(a.Key), redact(a.Secret))
}

// KrakenAuth holds the credentials for Kraken private REST endpoints.
type KrakenAuth struct {
	Key    string // API key
	Secret string // API secret, base64-encoded as issued by Kraken
}

// Sign computes the API-Sign header value for a private Kraken request:
// HMAC-SHA512(path + SHA256(nonce + postData)) keyed with the base64-decoded
// secret, encoded back to base64. It fails when the secret is not valid
// base64, which means the credential was mis-pasted.
func (a *KrakenAuth) Sign(path, nonce, postData string) (string, error) {
	secret, err := base64.StdEncoding.DecodeString(a.Secret)
	if err != nil {
		return "", fmt.Errorf("crypto: decode kraken secret: %w", err)
	}

	inner := sha256.Sum256([]byte(nonce + postData))
	mac := hmac.New(sha512.New, secret)
	mac.Write([]byte(path))
	mac.Write(inner[:])
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// String returns a redacted representation suitable for logging.
func (a *KrakenAuth) String() string {
	return fmt.Sprintf("KrakenAuth{key=%s, secret=%s}", redact(a.Key), redact(a.Secret))
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// hmacSHA256Base64 computes HMAC-SHA256 of message using key and returns the
// result as a base64 standard-encoded string.
func hmacSHA256Base64(key []byte, message string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func redact(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}
