package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"hash"
	"strconv"
	"strings"
	"time"
)

const standardWebhookSecretPrefix = "whsec_"

// StandardWebhookTolerance bounds how far webhook-timestamp may drift from
// the receiver clock in either direction.
const StandardWebhookTolerance = 5 * time.Minute

// VerifyStandardWebhookSignature checks a Standard Webhooks signature as sent
// by Dodo Payments: HMAC-SHA256 over "{id}.{timestamp}.{body}", base64
// encoded, possibly several space separated "v1,<sig>" entries.
func VerifyStandardWebhookSignature(payload []byte, msgID, timestamp, signatureHeader, secret string) bool {
	id := strings.TrimSpace(msgID)
	ts := strings.TrimSpace(timestamp)
	header := strings.TrimSpace(signatureHeader)
	key := decodeStandardWebhookSecret(secret)
	if id == "" || ts == "" || header == "" || len(key) == 0 {
		return false
	}

	signed := standardWebhookContent(id, ts, payload)
	for _, entry := range strings.Fields(header) {
		version, sig, ok := strings.Cut(entry, ",")
		if !ok || version != "v1" {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(sig)
		if err != nil {
			continue
		}
		if verifyHMAC(signed, decoded, key, sha256.New) {
			return true
		}
	}
	return false
}

// StandardWebhookTimestampFresh reports whether the unix seconds in
// timestamp lie within tolerance of now.
func StandardWebhookTimestampFresh(timestamp string, now time.Time, tolerance time.Duration) bool {
	sec, err := strconv.ParseInt(strings.TrimSpace(timestamp), 10, 64)
	if err != nil {
		return false
	}
	drift := now.Sub(time.Unix(sec, 0))
	if drift < 0 {
		drift = -drift
	}
	return drift <= tolerance
}

// SignStandardWebhook produces the "v1,<sig>" header value for a payload.
func SignStandardWebhook(payload []byte, msgID, timestamp, secret string) string {
	mac := hmac.New(sha256.New, decodeStandardWebhookSecret(secret))
	mac.Write(standardWebhookContent(msgID, timestamp, payload))
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyPaystackSignature checks x-paystack-signature, a hex HMAC-SHA512 of
// the raw body keyed with the account secret key.
func VerifyPaystackSignature(payload []byte, signatureHeader, secretKey string) bool {
	sig := strings.TrimSpace(signatureHeader)
	secret := strings.TrimSpace(secretKey)
	if sig == "" || secret == "" {
		return false
	}
	decodedSig, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}
	return verifyHMAC(payload, decodedSig, []byte(secret), sha512.New)
}

// SignPaystack produces the x-paystack-signature value for a payload.
func SignPaystack(payload []byte, secretKey string) string {
	mac := hmac.New(sha512.New, []byte(strings.TrimSpace(secretKey)))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Secrets normally carry the whsec_ prefix followed by base64. Anything else
// is used as raw key bytes.
func decodeStandardWebhookSecret(secret string) []byte {
	s := strings.TrimSpace(secret)
	if s == "" {
		return nil
	}
	if strings.HasPrefix(s, standardWebhookSecretPrefix) {
		if key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(s, standardWebhookSecretPrefix)); err == nil {
			return key
		}
	}
	return []byte(s)
}

func standardWebhookContent(id, timestamp string, payload []byte) []byte {
	out := make([]byte, 0, len(id)+len(timestamp)+len(payload)+2)
	out = append(out, id...)
	out = append(out, '.')
	out = append(out, timestamp...)
	out = append(out, '.')
	return append(out, payload...)
}

func verifyHMAC(payload, expectedSig, secret []byte, hashFunc func() hash.Hash) bool {
	mac := hmac.New(hashFunc, secret)
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), expectedSig)
}
