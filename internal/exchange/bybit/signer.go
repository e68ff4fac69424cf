package bybit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"tradedesk/internal/domain"
)

// Sign computes the V5 request signature: HMAC-SHA256 over
// timestamp + apiKey + recvWindow + payload, keyed by the API secret and
// encoded as lowercase hex. The payload is the canonically sorted query
// string for GET requests and the raw JSON body for POST requests.
//
// The function is pure: identical inputs always produce identical output,
// which is what the conformance vectors in signer_test.go pin down.
func Sign(secret string, timestamp int64, apiKey, recvWindow, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte(apiKey))
	mac.Write([]byte(recvWindow))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// Signer binds a credential pair to Sign. Construction fails fast on a
// missing key or secret so that a misconfigured client never reaches the
// network.
type Signer struct {
	apiKey string
	secret string
}

// NewSigner validates the credential pair and returns a signer.
func NewSigner(apiKey, secret string) (*Signer, error) {
	if apiKey == "" {
		return nil, &domain.ConfigurationError{Reason: "api key is empty"}
	}
	if secret == "" {
		return nil, &domain.ConfigurationError{Reason: "api secret is empty"}
	}
	return &Signer{apiKey: apiKey, secret: secret}, nil
}

// Sign signs one request payload for the given millisecond timestamp.
func (s *Signer) Sign(timestamp int64, recvWindow, payload string) string {
	return Sign(s.secret, timestamp, s.apiKey, recvWindow, payload)
}

// APIKey returns the key sent in the X-BAPI-API-KEY header.
func (s *Signer) APIKey() string { return s.apiKey }
