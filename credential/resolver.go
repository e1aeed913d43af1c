// Package credential implements the Credential Resolver capability: turning
// a presented access key and request context into the principal and signing
// key to verify against, the sole suspension point in the verification
// pipeline.
package credential

import (
	"context"
	"strings"

	"github.com/dioad/sigv4/sigv4"
	"github.com/dioad/sigv4/sigv4err"
)

// MinAccessKeyLength is the shortest an access key may legally be; anything
// shorter is rejected as UnknownAccessKey without a resolver round-trip.
const MinAccessKeyLength = 20

// Known access-key prefixes. AKIA identifies a long-term IAM user key;
// ASIA identifies a temporary/STS key. Any other prefix is rejected rather
// than silently accepted, since the wire format reserves the rest without
// defining their behavior here.
const (
	PrefixIAMUser  = "AKIA"
	PrefixTempKey  = "ASIA"
	accessKeyPrefixLen = 4
)

// CheckAccessKeyShape validates the length and prefix rules every
// Resolver should apply before attempting a lookup.
func CheckAccessKeyShape(accessKeyID string) error {
	if len(accessKeyID) < MinAccessKeyLength {
		return sigv4err.New(sigv4err.UnknownAccessKey, "no such access key")
	}
	switch strings.ToUpper(accessKeyID[:accessKeyPrefixLen]) {
	case PrefixIAMUser, PrefixTempKey:
		return nil
	default:
		return sigv4err.New(sigv4err.UnknownAccessKey, "no such access key")
	}
}

// Resolver is the credential package's name for sigv4.CredentialResolver,
// kept as an alias so callers can depend on either package's spelling.
type Resolver = sigv4.CredentialResolver

// Record is a single access key's resolved material, as stored by
// MemoryResolver and returned (after signing-key derivation) by any
// Resolver.
type Record struct {
	Principal   sigv4.Principal
	SessionData sigv4.SessionData
	SecretKey   string
}

// MemoryResolver is a static, in-memory Resolver keyed by access key ID.
// It is meant for tests and for the client package's own examples, not for
// production use.
type MemoryResolver struct {
	records map[string]Record
}

// NewMemoryResolver builds a MemoryResolver from records, keyed by access
// key ID.
func NewMemoryResolver(records map[string]Record) *MemoryResolver {
	return &MemoryResolver{records: records}
}

// Resolve implements sigv4.CredentialResolver.
func (m *MemoryResolver) Resolve(_ context.Context, req sigv4.CredentialRequest) (sigv4.Credential, error) {
	if err := CheckAccessKeyShape(req.AccessKeyID); err != nil {
		return sigv4.Credential{}, err
	}

	rec, ok := m.records[req.AccessKeyID]
	if !ok {
		return sigv4.Credential{}, sigv4err.New(sigv4err.UnknownAccessKey, "no such access key")
	}

	return sigv4.Credential{
		Principal:   rec.Principal,
		SessionData: rec.SessionData,
		SigningKey:  sigv4.DeriveSigningKey(rec.SecretKey, req.Date, req.Region, req.Service),
	}, nil
}
