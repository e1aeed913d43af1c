// Package sigv4err defines the closed error taxonomy shared by the
// canonicalizer, timestamp resolver, algorithm engine, credential resolver
// and policy model, and renders it as the AWS-style XML error response.
package sigv4err

import (
	"errors"
	"fmt"
)

// Kind identifies one of the fixed error categories a verification
// pipeline stage can fail with. The set is closed: callers switch
// exhaustively on it rather than type-asserting concrete error types.
type Kind int

const (
	// InvalidBodyEncoding indicates the request body could not be decoded
	// as UTF-8, or declared an unsupported form-encoding charset.
	InvalidBodyEncoding Kind = iota
	// InvalidCredential indicates the credential scope did not match the
	// server's region, service, or the request's date.
	InvalidCredential
	// InvalidSignature indicates the recomputed signature did not match
	// the one presented on the request.
	InvalidSignature
	// InvalidURIPath indicates the request path could not be
	// canonicalized, including a truncated percent-escape.
	InvalidURIPath
	// MalformedHeader indicates a required header was present but could
	// not be parsed into the expected shape.
	MalformedHeader
	// MalformedSignature indicates the Authorization header or presigned
	// credential block was structurally invalid (duplicate keys, an
	// unparseable timestamp, an unsorted signed-headers list).
	MalformedSignature
	// MissingHeader indicates a header in the always-present set was
	// absent from the request.
	MissingHeader
	// MissingParameter indicates a required header or query parameter was
	// not present anywhere the resolver looked for it.
	MissingParameter
	// MultipleHeaderValues indicates a header expected to appear once
	// appeared more than once.
	MultipleHeaderValues
	// MultipleParameterValues indicates a presigned query parameter
	// expected to appear once appeared more than once.
	MultipleParameterValues
	// TimestampOutOfRange indicates the request timestamp fell outside the
	// allowed clock-skew window.
	TimestampOutOfRange
	// UnknownAccessKey indicates the credential resolver found no
	// principal for the presented access key.
	UnknownAccessKey
	// UnknownSignatureAlgorithm indicates the Authorization header did not
	// start with the supported scheme.
	UnknownSignatureAlgorithm
	// InvalidPolicyDocument indicates an Aspen document failed to parse.
	InvalidPolicyDocument
	// IO indicates a failure in an underlying I/O operation (credential
	// store unreachable, body read failed).
	IO
	// InternalServiceError wraps any error surfaced by the Credential
	// Resolver that is not one of the above.
	InternalServiceError
)

var kindNames = map[Kind]string{
	InvalidBodyEncoding:       "InvalidBodyEncoding",
	InvalidCredential:         "InvalidCredential",
	InvalidSignature:          "InvalidSignature",
	InvalidURIPath:            "InvalidURIPath",
	MalformedHeader:           "MalformedHeader",
	MalformedSignature:        "MalformedSignature",
	MissingHeader:             "MissingHeader",
	MissingParameter:          "MissingParameter",
	MultipleHeaderValues:      "MultipleHeaderValues",
	MultipleParameterValues:   "MultipleParameterValues",
	TimestampOutOfRange:       "TimestampOutOfRange",
	UnknownAccessKey:          "UnknownAccessKey",
	UnknownSignatureAlgorithm: "UnknownSignatureAlgorithm",
	InvalidPolicyDocument:     "InvalidPolicyDocument",
	IO:                        "IO",
	InternalServiceError:      "InternalServiceError",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// Type is the AWS Sender/Receiver error classification.
type Type string

const (
	// Sender indicates the caller's request was at fault.
	Sender Type = "Sender"
	// Receiver indicates the server was at fault.
	Receiver Type = "Receiver"
)

// Type returns the Sender/Receiver classification for k. Only IO and
// InternalServiceError are Receiver errors; everything else is caused by
// something wrong with the incoming request.
func (k Kind) Type() Type {
	switch k {
	case IO, InternalServiceError:
		return Receiver
	default:
		return Sender
	}
}

// awsCode maps each Kind to the stable AWS-compatible <Code> value used in
// the XML error-mapper, matching the public AWS service error codes for
// the kinds that have a direct AWS analogue.
var awsCode = map[Kind]string{
	InvalidBodyEncoding:       "InvalidBodyEncoding",
	InvalidCredential:         "InvalidCredential",
	InvalidSignature:          "SignatureDoesNotMatch",
	InvalidURIPath:            "InvalidURIPath",
	MalformedHeader:           "MalformedHeader",
	MalformedSignature:        "AuthorizationHeaderMalformed",
	MissingHeader:             "MissingHeader",
	MissingParameter:          "MissingParameter",
	MultipleHeaderValues:      "InvalidHeader",
	MultipleParameterValues:   "InvalidQueryParameter",
	TimestampOutOfRange:       "RequestTimeTooSkewed",
	UnknownAccessKey:          "InvalidClientTokenId",
	UnknownSignatureAlgorithm: "IncompleteSignature",
	InvalidPolicyDocument:     "MalformedPolicyDocument",
	IO:                        "InternalFailure",
	InternalServiceError:      "InternalFailure",
}

// Error is a typed verification failure. Detail must never contain secret
// key material, derived signing keys, or the presented/expected signature
// values; InvalidSignature in particular always carries the fixed message
// below regardless of what Detail the caller supplies.
type Error struct {
	Kind   Kind
	Detail string
	cause  error
}

const invalidSignatureMessage = "the request signature does not match"

// New constructs an Error of the given kind. For InvalidSignature the
// detail is always the fixed message; no caller-supplied detail is ever
// exposed for that kind.
func New(kind Kind, detail string) *Error {
	if kind == InvalidSignature {
		detail = invalidSignatureMessage
	}
	return &Error{Kind: kind, Detail: detail}
}

// Wrap constructs a Receiver-classified Error around an underlying cause,
// defaulting to InternalServiceError unless kind is IO.
func Wrap(kind Kind, cause error) *Error {
	if kind != IO {
		kind = InternalServiceError
	}
	return &Error{Kind: kind, Detail: cause.Error(), cause: cause}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Code returns the stable AWS-style error code used in the XML response
// <Code> element.
func (e *Error) Code() string {
	if c, ok := awsCode[e.Kind]; ok {
		return c
	}
	return e.Kind.String()
}

// As is a convenience wrapper around errors.As for extracting an *Error
// from an error chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
