package sigv4

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	"github.com/dioad/sigv4/canon"
	"github.com/dioad/sigv4/sigv4err"
	"github.com/dioad/sigv4/sigv4time"
)

// AuthScheme is the Authorization header scheme this engine verifies.
const AuthScheme = "AWS4-HMAC-SHA256"

// Always-signed header: every variant of SigV4 this engine accepts requires
// at least Host to be in the signed-headers set.
const requiredSignedHeader = "host"

// CredentialRequest is what the engine asks a CredentialResolver to
// resolve: the presented access key plus enough request context to locate
// and validate the right signing key.
type CredentialRequest struct {
	AccessKeyID  string
	SessionToken string
	Date         time.Time
	Region       string
	Service      string
}

// Credential is what a CredentialResolver returns: the principal and
// session data to attach to the request on success, and the already
// AWS4-derived signing key to verify the signature against.
type Credential struct {
	Principal   Principal
	SessionData SessionData
	SigningKey  SigningKey
}

// CredentialResolver is the sole capability the engine depends on beyond
// pure functions: given an access key and request context, resolve the
// principal behind it and its signing key. Implementations may be
// in-memory, database-backed, or cached; the engine does not care, per the
// "capability injection, not a type hierarchy" design rule.
type CredentialResolver interface {
	Resolve(ctx context.Context, req CredentialRequest) (Credential, error)
}

// CredentialResolverFunc adapts a plain function to CredentialResolver.
type CredentialResolverFunc func(ctx context.Context, req CredentialRequest) (Credential, error)

// Resolve calls f.
func (f CredentialResolverFunc) Resolve(ctx context.Context, req CredentialRequest) (Credential, error) {
	return f(ctx, req)
}

// Engine verifies SigV4-signed requests. It holds no mutable state and is
// safe for concurrent use; Config fixes the parameters of what it accepts.
type Engine struct {
	Config Config
}

// Config fixes the engine's tunables.
type Config struct {
	// Skew is the allowed symmetric clock-skew window. Zero means
	// sigv4time.DefaultSkew.
	Skew time.Duration
}

// NewEngine builds an Engine from cfg.
func NewEngine(cfg Config) *Engine {
	return &Engine{Config: cfg}
}

// authParams is the parsed shape of either an Authorization header or a
// presigned query string: the pieces the engine needs regardless of which
// wire form carried them.
type authParams struct {
	accessKeyID     string
	credentialScope string
	signedHeaders   []string
	signature       string
}

// ParseAuthorizationHeader parses "AWS4-HMAC-SHA256
// Credential=AKID/scope, SignedHeaders=a;b, Signature=hex".
func ParseAuthorizationHeader(header string) (accessKeyID, credentialScope string, signedHeaders []string, signature string, err error) {
	prefix := AuthScheme + " "
	if !strings.HasPrefix(header, prefix) {
		return "", "", nil, "", sigv4err.New(sigv4err.UnknownSignatureAlgorithm, "unrecognized authorization scheme")
	}

	params := strings.Split(strings.TrimPrefix(header, prefix), ",")
	var credential, signedHeadersRaw, sig string
	var haveCredential, haveSignedHeaders, haveSignature bool

	for _, p := range params {
		p = strings.TrimSpace(p)
		switch {
		case strings.HasPrefix(p, "Credential="):
			if haveCredential {
				return "", "", nil, "", sigv4err.New(sigv4err.MalformedSignature, "duplicate Credential parameter")
			}
			credential = strings.TrimPrefix(p, "Credential=")
			haveCredential = true
		case strings.HasPrefix(p, "SignedHeaders="):
			if haveSignedHeaders {
				return "", "", nil, "", sigv4err.New(sigv4err.MalformedSignature, "duplicate SignedHeaders parameter")
			}
			signedHeadersRaw = strings.TrimPrefix(p, "SignedHeaders=")
			haveSignedHeaders = true
		case strings.HasPrefix(p, "Signature="):
			if haveSignature {
				return "", "", nil, "", sigv4err.New(sigv4err.MalformedSignature, "duplicate Signature parameter")
			}
			sig = strings.TrimPrefix(p, "Signature=")
			haveSignature = true
		}
	}

	if !haveCredential || !haveSignedHeaders || !haveSignature {
		return "", "", nil, "", sigv4err.New(sigv4err.MalformedSignature, "authorization header is missing a required component")
	}

	accessKeyID, credentialScope, found := strings.Cut(credential, "/")
	if !found {
		return "", "", nil, "", sigv4err.New(sigv4err.MalformedSignature, "credential parameter is malformed")
	}

	return accessKeyID, credentialScope, canon.SplitSignedHeaders(signedHeadersRaw), sig, nil
}

// parse extracts authParams from either the Authorization header or, for a
// presigned request, the X-Amz-* query parameters.
func parse(r *Request, params canon.Params) (authParams, bool, error) {
	if authHeader := firstHeader(r.Headers, "authorization"); authHeader != "" {
		accessKeyID, scope, signed, sig, err := ParseAuthorizationHeader(authHeader)
		if err != nil {
			return authParams{}, false, err
		}
		return authParams{accessKeyID, scope, signed, sig}, false, nil
	}

	get := func(key string) (string, error) {
		var value string
		var count int
		for _, p := range params {
			if p.Key == key {
				value = p.Value
				count++
			}
		}
		switch count {
		case 0:
			return "", sigv4err.New(sigv4err.MissingParameter, key)
		case 1:
			return value, nil
		default:
			return "", sigv4err.New(sigv4err.MultipleParameterValues, key)
		}
	}

	credential, err := get("X-Amz-Credential")
	if err != nil {
		return authParams{}, false, err
	}
	signedHeadersRaw, err := get("X-Amz-SignedHeaders")
	if err != nil {
		return authParams{}, false, err
	}
	signature, err := get("X-Amz-Signature")
	if err != nil {
		return authParams{}, false, err
	}

	// params holds normalized values, so the '/' and ';' separators arrive
	// percent-encoded; decode them before splitting.
	credential, err = url.PathUnescape(credential)
	if err != nil {
		return authParams{}, false, sigv4err.New(sigv4err.MalformedSignature, "X-Amz-Credential parameter is malformed")
	}
	signedHeadersRaw, err = url.PathUnescape(signedHeadersRaw)
	if err != nil {
		return authParams{}, false, sigv4err.New(sigv4err.MalformedSignature, "X-Amz-SignedHeaders parameter is malformed")
	}

	accessKeyID, scope, found := strings.Cut(credential, "/")
	if !found {
		return authParams{}, false, sigv4err.New(sigv4err.MalformedSignature, "X-Amz-Credential parameter is malformed")
	}

	return authParams{accessKeyID, scope, canon.SplitSignedHeaders(signedHeadersRaw), signature}, true, nil
}

func firstHeader(h canon.HeaderSet, name string) string {
	values := h.Values(name)
	if len(values) == 0 {
		return ""
	}
	return string(values[0])
}

// signedHeadersOrdered validates that signed reports its names in exactly
// the sorted order SignedHeaders would produce; a signed-headers list
// presented out of order is rejected rather than silently re-sorted, since
// the presented order is part of what was actually signed.
func signedHeadersOrdered(signed []string) bool {
	for i := 1; i < len(signed); i++ {
		if signed[i-1] > signed[i] {
			return false
		}
	}
	return true
}

func containsHeader(signed []string, name string) bool {
	for _, h := range signed {
		if h == name {
			return true
		}
	}
	return false
}

// CanonicalRequest builds the canonical request byte string for r, signed
// over exactly the header names in signedHeaders, using bodyDigest as the
// hashed-payload component (the empty-string digest when the body was
// merged into queryParams as signable parameters instead).
func (e *Engine) CanonicalRequest(r *Request, queryParams canon.Params, signedHeaders []string, bodyDigest string) (string, error) {
	path, err := canon.Path(r.Path)
	if err != nil {
		return "", err
	}

	canonicalHeaders := canon.CanonicalHeaders(r.Headers, signedHeaders)
	signedHeadersList := canon.SignedHeaders(signedHeaders)

	return strings.Join([]string{
		strings.ToUpper(r.Method),
		path,
		queryParams.CanonicalQueryString(),
		canonicalHeaders,
		signedHeadersList,
		bodyDigest,
	}, "\n"), nil
}

// StringToSign builds the string-to-sign for a canonical request computed
// at requestDate, scoped to region/service.
func StringToSign(requestDate time.Time, region, service, canonicalRequest string) string {
	h := sha256.Sum256([]byte(canonicalRequest))
	return strings.Join([]string{
		AuthScheme,
		requestDate.Format(sigv4time.TimeFormat),
		CredentialScope(requestDate, region, service),
		hex.EncodeToString(h[:]),
	}, "\n")
}

// ExpectedSignature HMACs stringToSign with an already-derived signing key
// and hex-encodes the result.
func ExpectedSignature(key SigningKey, stringToSign string) string {
	return hex.EncodeToString(hmacSHA256(key[:], []byte(stringToSign)))
}

// Verify runs the full verification pipeline against r: parse the
// Authorization header or presigned query parameters, check the
// signed-headers list, locate the timestamp and check it against the
// allowed skew, validate the credential scope, resolve the signing
// credential (zeroing its signing key before returning), recompute
// the canonical request and signature, and compare it to the one presented,
// in constant time. On success it returns the resolved Principal and
// SessionData; on failure it returns a *sigv4err.Error.
func (e *Engine) Verify(ctx context.Context, r *Request, resolver CredentialResolver, now time.Time) (Principal, SessionData, error) {
	resolved, err := r.queryParams()
	if err != nil {
		return Principal{}, nil, err
	}
	queryParams := resolved.params

	ap, presigned, err := parse(r, queryParams)
	if err != nil {
		return Principal{}, nil, err
	}

	if !signedHeadersOrdered(ap.signedHeaders) {
		return Principal{}, nil, sigv4err.New(sigv4err.MalformedSignature, "SignedHeaders is not canonicalized")
	}
	for _, name := range ap.signedHeaders {
		if len(r.Headers.Values(name)) == 0 {
			return Principal{}, nil, sigv4err.New(sigv4err.MissingParameter, name)
		}
	}
	if !containsHeader(ap.signedHeaders, requiredSignedHeader) {
		return Principal{}, nil, sigv4err.New(sigv4err.MissingHeader, requiredSignedHeader)
	}

	requestDate, _, err := sigv4time.Resolve(lookupFor(r, queryParams))
	if err != nil {
		return Principal{}, nil, err
	}
	if err := sigv4time.CheckSkew(now, requestDate, e.Config.Skew); err != nil {
		return Principal{}, nil, err
	}

	scopeParts := strings.SplitN(ap.credentialScope, "/", 4)
	if len(scopeParts) != 4 {
		return Principal{}, nil, sigv4err.New(sigv4err.InvalidCredential, "credential scope must have four components")
	}
	region, service := scopeParts[1], scopeParts[2]

	if err := ParseCredentialScope(ap.credentialScope, requestDate, region, service); err != nil {
		return Principal{}, nil, err
	}

	sessionToken := firstHeader(r.Headers, "x-amz-security-token")
	if sessionToken == "" {
		for _, p := range queryParams {
			if p.Key == "X-Amz-Security-Token" {
				sessionToken = p.Value
			}
		}
	}

	cred, err := resolver.Resolve(ctx, CredentialRequest{
		AccessKeyID:  ap.accessKeyID,
		SessionToken: sessionToken,
		Date:         requestDate,
		Region:       region,
		Service:      service,
	})
	if err != nil {
		return Principal{}, nil, err
	}
	defer cred.SigningKey.Zero()

	signQueryParams := queryParams
	if presigned {
		signQueryParams = queryParams.ExcludeKey("X-Amz-Signature")
	}

	canonicalRequest, err := e.CanonicalRequest(r, signQueryParams, ap.signedHeaders, resolved.bodyDigest)
	if err != nil {
		return Principal{}, nil, err
	}

	stringToSign := StringToSign(requestDate, region, service, canonicalRequest)
	expected := ExpectedSignature(cred.SigningKey, stringToSign)

	if !hmac.Equal([]byte(expected), []byte(ap.signature)) {
		return Principal{}, nil, sigv4err.New(sigv4err.InvalidSignature, "")
	}

	return cred.Principal, cred.SessionData, nil
}

func lookupFor(r *Request, queryParams canon.Params) sigv4time.Lookup {
	l := sigv4time.Lookup{
		AmzDateHeader: firstHeader(r.Headers, "x-amz-date"),
		DateHeader:    firstHeader(r.Headers, "date"),
	}
	for _, p := range queryParams {
		if p.Key == "X-Amz-Date" {
			l.QueryParam = p.Value
		}
	}
	return l
}
