// Package signature validates LINE webhook signatures.
//
// LINE signs every webhook delivery with HMAC-SHA256 over the raw request
// body using the channel secret as key, then base64-encodes the digest into
// the X-Line-Signature header. Verification must run on the byte-exact body
// as received; re-serializing the JSON changes the digest.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// HeaderName is the HTTP header carrying the webhook signature.
const HeaderName = "X-Line-Signature"

// Compute returns the base64-encoded HMAC-SHA256 digest of body keyed with
// the channel secret.
func Compute(channelSecret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify reports whether the signature header matches the digest of body.
// The comparison is constant-time on the decoded digests.
func Verify(channelSecret, signatureHeader string, body []byte) bool {
	if signatureHeader == "" {
		return false
	}

	expected, err := base64.StdEncoding.DecodeString(signatureHeader)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)
	return hmac.Equal(expected, mac.Sum(nil))
}
