package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Stripe-style webhook signature scheme:
//
//	Stripe-Signature: t=<unix>,v1=<hex hmac>[,v1=<hex hmac>...]
//
// where each v1 value is HMAC-SHA256(secret, "<unix>.<payload>"). Multiple
// v1 entries appear during secret rotation; any single match is accepted.

// SignatureHeader is the parsed form of the signature header.
type SignatureHeader struct {
	Timestamp  int64
	Signatures []string
}

// ParseSignatureHeader parses the comma-separated key=value signature
// header. Unknown schemes (v0 test-mode signatures etc) are ignored.
func ParseSignatureHeader(header string) (SignatureHeader, error) {
	var sig SignatureHeader
	for _, pair := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return SignatureHeader{}, fmt.Errorf("%w: invalid timestamp", ErrSignatureHeaderMalformed)
			}
			sig.Timestamp = ts
		case "v1":
			sig.Signatures = append(sig.Signatures, value)
		}
	}
	if sig.Timestamp == 0 || len(sig.Signatures) == 0 {
		return SignatureHeader{}, ErrSignatureHeaderMalformed
	}
	return sig, nil
}

// VerifySignature validates webhook authenticity. The timestamp window
// bounds replay; comparison is constant-time.
func VerifySignature(secret string, payload []byte, header string, maxAge time.Duration) error {
	sig, err := ParseSignatureHeader(header)
	if err != nil {
		return err
	}

	if maxAge > 0 {
		age := time.Since(time.Unix(sig.Timestamp, 0))
		if age > maxAge {
			return fmt.Errorf("%w: %v old", ErrSignatureExpired, age)
		}
		// Allow modest clock skew but reject far-future timestamps.
		if age < -5*time.Minute {
			return fmt.Errorf("%w: timestamp in the future", ErrSignatureExpired)
		}
	}

	expected := computeSignature(secret, sig.Timestamp, payload)
	for _, candidate := range sig.Signatures {
		if hmac.Equal([]byte(expected), []byte(candidate)) {
			return nil
		}
	}
	return ErrSignatureInvalid
}

// SignPayload produces a signature header for a payload. Used by the
// provider's own outbound webhooks in tests and by integration fixtures.
func SignPayload(secret string, payload []byte, at time.Time) string {
	ts := at.Unix()
	return fmt.Sprintf("t=%d,v1=%s", ts, computeSignature(secret, ts, payload))
}

func computeSignature(secret string, timestamp int64, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(h, "%d.%s", timestamp, payload)
	return hex.EncodeToString(h.Sum(nil))
}
