package bybit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradedesk/internal/domain"
)

func TestSignReferenceVectors(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		timestamp  int64
		apiKey     string
		recvWindow string
		payload    string
		expected   string
	}{
		{
			name:       "sorted GET query",
			secret:     "abc",
			timestamp:  1700000000000,
			apiKey:     "K",
			recvWindow: "5000",
			payload:    "symbol=BTCUSDT",
			expected:   "e1e42be32077aa1aca6025c4a625ddb2a1235ac407e99f8a1998a02b4569cc5e",
		},
		{
			name:       "exchange docs shaped input",
			secret:     "chNOOS4KvNXR16Yr",
			timestamp:  1658384314791,
			apiKey:     "XXXXXXXXXX",
			recvWindow: "5000",
			payload:    "category=option",
			expected:   "933ef63ba7a90472e019cee099fa1bb3e6766047deb7656e6626a12a658cdb73",
		},
		{
			name:       "raw POST body",
			secret:     "s3cr3t",
			timestamp:  1700000000000,
			apiKey:     "AKID",
			recvWindow: "5000",
			payload:    `{"category":"spot","symbol":"BTCUSDT","side":"Buy","orderType":"Market","qty":"0.01","orderLinkId":"abc-1"}`,
			expected:   "f56174cba44d37ccd11a1e267bbcbeb7c379e40dc162443881607cec34410b87",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sign(tt.secret, tt.timestamp, tt.apiKey, tt.recvWindow, tt.payload)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSignDeterministic(t *testing.T) {
	first := Sign("secret", 1700000000000, "key", "5000", "limit=50&symbol=ETHUSDT")
	second := Sign("secret", 1700000000000, "key", "5000", "limit=50&symbol=ETHUSDT")
	assert.Equal(t, first, second)

	// any input change must flip the digest
	assert.NotEqual(t, first, Sign("secret", 1700000000001, "key", "5000", "limit=50&symbol=ETHUSDT"))
	assert.NotEqual(t, first, Sign("other", 1700000000000, "key", "5000", "limit=50&symbol=ETHUSDT"))
	assert.NotEqual(t, first, Sign("secret", 1700000000000, "key", "5000", "limit=50&symbol=BTCUSDT"))
}

func TestSignIsLowercaseHex(t *testing.T) {
	got := Sign("secret", 1700000000000, "key", "5000", "")
	require.Len(t, got, 64)
	for _, r := range got {
		assert.True(t, (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f'), "unexpected rune %q", r)
	}
}

func TestNewSignerRejectsEmptyCredentials(t *testing.T) {
	_, err := NewSigner("", "secret")
	var confErr *domain.ConfigurationError
	require.ErrorAs(t, err, &confErr)

	_, err = NewSigner("key", "")
	require.ErrorAs(t, err, &confErr)

	signer, err := NewSigner("key", "secret")
	require.NoError(t, err)
	assert.Equal(t, "key", signer.APIKey())
}
