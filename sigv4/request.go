package sigv4

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/dioad/sigv4/canon"
)

// Request is the transport-agnostic shape the algorithm engine verifies
// against: method, path, raw query string, headers and body. Callers
// adapt an *http.Request (or a presigned request reconstructed from a
// stored log entry) into this shape.
type Request struct {
	Method      string
	Path        string
	RawQuery    string
	Headers     canon.HeaderSet
	Body        []byte
	ContentType string
	Charset     string
}

// EmptyBodySHA256 is the SHA-256 digest of a zero-length payload.
const EmptyBodySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

// bodyDigest returns the hex-encoded SHA-256 digest of r's body.
func (r *Request) bodyDigest() string {
	return HashPayload(r.Body)
}

// HashPayload returns the hex-encoded SHA-256 digest of body, the
// body-hash component of a canonical request. Exported so client-side
// signers outside this package (see the client package) compute the same
// digest the verifier does, rather than keeping a second copy of the
// hashing step.
func HashPayload(body []byte) string {
	h := sha256.Sum256(body)
	return hex.EncodeToString(h[:])
}

// resolvedQuery is the outcome of applying the body-as-parameters rule: the
// merged query parameters to sign, and the body-hash to use in the
// canonical request (the empty-string digest when the body was consumed as
// parameters instead of payload).
type resolvedQuery struct {
	params     canon.Params
	bodyDigest string
}

// queryParams parses the request's normalized query parameters, merging in
// its form-encoded body per SigV4's body-as-parameters rule when the
// content type calls for it.
func (r *Request) queryParams() (resolvedQuery, error) {
	params, err := canon.ParseQuery(r.RawQuery)
	if err != nil {
		return resolvedQuery{}, err
	}

	if strings.EqualFold(r.ContentType, "application/x-www-form-urlencoded") {
		merged, err := canon.MergeFormBody(params, string(r.Body), r.Charset)
		if err != nil {
			return resolvedQuery{}, err
		}
		return resolvedQuery{params: merged, bodyDigest: EmptyBodySHA256}, nil
	}

	return resolvedQuery{params: params, bodyDigest: r.bodyDigest()}, nil
}
