// Package client implements a reference SigV4 request signer for HTTP
// clients, generalizing the AWS-SDK-credential-driven signer in
// http/auth/awssigv4/client.go to sign against this repository's own
// canon/sigv4 canonicalization and derivation pipeline rather than a
// private copy of the same rules.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/dioad/sigv4/canon"
	"github.com/dioad/sigv4/sigv4"
	"github.com/dioad/sigv4/sigv4time"
)

// Config fixes the region, service, and credential source a ClientAuth
// signs with.
type Config struct {
	// Region is the SigV4 credential-scope region.
	Region string `mapstructure:"region"`
	// Service is the SigV4 credential-scope service.
	Service string `mapstructure:"service"`
	// Credentials supplies the access key, secret key, and optional
	// session token to sign with; aws.CredentialsProvider is satisfied by
	// aws.CredentialsCache, static credentials, or any AWS SDK v2
	// provider, so callers already holding an aws.Config can pass its
	// Credentials field directly.
	Credentials aws.CredentialsProvider
}

// ClientAuth signs outgoing requests with AWS SigV4 using Config's
// credential source.
type ClientAuth struct {
	Config Config
}

// NewClientAuth builds a ClientAuth from an explicit credentials provider.
func NewClientAuth(creds aws.CredentialsProvider, region, service string) *ClientAuth {
	return &ClientAuth{Config: Config{Region: region, Service: service, Credentials: creds}}
}

// signedHeaderNames is the fixed set of headers this signer always signs;
// it always includes host and the date header, plus the security-token
// header when the resolved credentials carry a session token.
func signedHeaderNames(hasSessionToken bool) []string {
	names := []string{"host", "x-amz-date"}
	if hasSessionToken {
		names = append(names, "x-amz-security-token")
	}
	return names
}

// AddAuth signs req in place: it buffers and restores the body (so the
// hash can be computed and retries can re-read it), sets the X-Amz-Date
// and, if present, X-Amz-Security-Token headers, and attaches an
// Authorization header built from the canonical request this package's
// canon/sigv4 packages compute.
func (a *ClientAuth) AddAuth(req *http.Request) error {
	body, err := drainAndRestoreBody(req)
	if err != nil {
		return fmt.Errorf("client: read request body: %w", err)
	}

	creds, err := a.Config.Credentials.Retrieve(req.Context())
	if err != nil {
		return fmt.Errorf("client: retrieve credentials: %w", err)
	}

	now := time.Now().UTC()
	req.Header.Set("X-Amz-Date", now.Format(sigv4time.TimeFormat))
	if creds.SessionToken != "" {
		req.Header.Set("X-Amz-Security-Token", creds.SessionToken)
	}
	if req.Host == "" {
		req.Host = req.URL.Host
	}
	req.Header.Set("Host", req.Host)

	signedHeaders := signedHeaderNames(creds.SessionToken != "")

	headerSet := headerSetFromHTTP(req.Header, req.Host)
	canonicalHeaders := canon.CanonicalHeaders(headerSet, signedHeaders)
	signedHeadersList := canon.SignedHeaders(signedHeaders)

	path, err := canon.Path(req.URL.EscapedPath())
	if err != nil {
		return fmt.Errorf("client: canonicalize path: %w", err)
	}
	queryParams, err := canon.ParseQuery(req.URL.RawQuery)
	if err != nil {
		return fmt.Errorf("client: canonicalize query: %w", err)
	}

	bodyDigest := sigv4.HashPayload(body)

	canonicalRequest := strings.Join([]string{
		strings.ToUpper(req.Method),
		path,
		queryParams.CanonicalQueryString(),
		canonicalHeaders,
		signedHeadersList,
		bodyDigest,
	}, "\n")

	stringToSign := sigv4.StringToSign(now, a.Config.Region, a.Config.Service, canonicalRequest)
	signingKey := sigv4.DeriveSigningKey(creds.SecretAccessKey, now, a.Config.Region, a.Config.Service)
	defer signingKey.Zero()

	signature := sigv4.ExpectedSignature(signingKey, stringToSign)
	credentialScope := sigv4.CredentialScope(now, a.Config.Region, a.Config.Service)

	req.Header.Set("Authorization", fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		sigv4.AuthScheme, creds.AccessKeyID, credentialScope, signedHeadersList, signature))

	return nil
}

// drainAndRestoreBody reads req.Body fully and replaces it with a fresh
// reader so AddAuth's hash computation doesn't consume the body the actual
// HTTP round trip needs.
func drainAndRestoreBody(req *http.Request) ([]byte, error) {
	if req.Body == nil {
		return nil, nil
	}
	b, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	req.Body = io.NopCloser(bytes.NewReader(b))
	if req.GetBody == nil {
		bodyCopy := append([]byte(nil), b...)
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(bodyCopy)), nil
		}
	}
	return b, nil
}

// headerSetFromHTTP converts an http.Header into the lower-cased
// canon.HeaderSet shape, filling in a "host" entry from host since
// net/http keeps the Host header out of req.Header.
func headerSetFromHTTP(h http.Header, host string) canon.HeaderSet {
	set := make(canon.HeaderSet, len(h)+1)
	for name, values := range h {
		lower := strings.ToLower(name)
		for _, v := range values {
			set[lower] = append(set[lower], []byte(v))
		}
	}
	if _, ok := set["host"]; !ok && host != "" {
		set["host"] = [][]byte{[]byte(host)}
	}
	return set
}

// RoundTripper is an http.RoundTripper that signs every outgoing request
// with Config before delegating to Base (http.DefaultTransport if nil).
type RoundTripper struct {
	Config Config
	Base   http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	auth := ClientAuth{Config: t.Config}
	if err := auth.AddAuth(req); err != nil {
		return nil, err
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// HTTPClient returns an *http.Client that signs every request it sends.
func (a *ClientAuth) HTTPClient() *http.Client {
	return &http.Client{Transport: &RoundTripper{Config: a.Config}}
}

// StaticCredentials adapts a fixed access key/secret/session-token triple
// to aws.CredentialsProvider, for callers that aren't sourcing credentials
// from the AWS SDK's own chain.
type StaticCredentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// Retrieve implements aws.CredentialsProvider.
func (s StaticCredentials) Retrieve(context.Context) (aws.Credentials, error) {
	return aws.Credentials{
		AccessKeyID:     s.AccessKeyID,
		SecretAccessKey: s.SecretAccessKey,
		SessionToken:    s.SessionToken,
	}, nil
}
