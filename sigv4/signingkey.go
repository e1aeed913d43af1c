package sigv4

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/dioad/sigv4/sigv4err"
	"github.com/dioad/sigv4/sigv4time"
)

// SigningKey is the fully-derived 32-byte HMAC-SHA256 key produced by the
// four-step AWS4 chain. Responsibility for deriving it belongs to the
// Credential Resolver, not the algorithm engine: the engine only ever
// consumes an already-derived key, consistent with resolvers that source
// raw secrets from a store that should never hand the secret itself back
// to request-verification code.
type SigningKey [32]byte

// Zero overwrites k in place so the derived key does not linger in memory
// longer than the request it authenticated.
func (k *SigningKey) Zero() {
	clear(k[:])
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

// DeriveSigningKey runs the AWS4 HMAC chain: AWS4+secret keys a digest of
// the date, that keys a digest of the region, that keys a digest of the
// service, and that keys a digest of the literal "aws4_request".
func DeriveSigningKey(secretKey string, date time.Time, region, service string) SigningKey {
	kDate := hmacSHA256([]byte("AWS4"+secretKey), []byte(date.Format(sigv4time.ShortDateFormat)))
	kRegion := hmacSHA256(kDate, []byte(region))
	kService := hmacSHA256(kRegion, []byte(service))
	kSigning := hmacSHA256(kService, []byte("aws4_request"))

	var key SigningKey
	copy(key[:], kSigning)
	return key
}

// CredentialScope is the "YYYYMMDD/region/service/aws4_request" string
// embedded in both the Authorization header's Credential parameter and the
// string to sign.
func CredentialScope(date time.Time, region, service string) string {
	return fmt.Sprintf("%s/%s/%s/aws4_request", date.Format(sigv4time.ShortDateFormat), region, service)
}

// ParseCredentialScope splits a "YYYYMMDD/region/service/aws4_request"
// string and validates it matches the expected region, service, and
// request date. The comparison is done per-field rather than as a single
// string equality so that a mismatched field produces a specific error.
func ParseCredentialScope(scope string, requestDate time.Time, region, service string) error {
	parts := strings.Split(scope, "/")
	if len(parts) != 4 {
		return sigv4err.New(sigv4err.InvalidCredential, "credential scope must have four components")
	}
	if parts[0] != requestDate.Format(sigv4time.ShortDateFormat) {
		return sigv4err.New(sigv4err.InvalidCredential, "credential scope date does not match request date")
	}
	if parts[1] != region {
		return sigv4err.New(sigv4err.InvalidCredential, "credential scope region does not match request")
	}
	if parts[2] != service {
		return sigv4err.New(sigv4err.InvalidCredential, "credential scope service does not match request")
	}
	if parts[3] != "aws4_request" {
		return sigv4err.New(sigv4err.InvalidCredential, "credential scope terminator must be aws4_request")
	}
	return nil
}
