// Package sigv4time resolves the request timestamp a SigV4 signature was
// computed against, trying the three locations AWS clients may place it in
// and the three wire formats they may use, and validates it against an
// allowed clock-skew window.
package sigv4time

import (
	"strings"
	"time"

	"github.com/dioad/sigv4/sigv4err"
)

// TimeFormat is the compact ISO 8601 basic format used by the
// X-Amz-Date query parameter and header.
const TimeFormat = "20060102T150405Z"

// ShortDateFormat is the date-only portion of TimeFormat, used in the
// credential scope.
const ShortDateFormat = "20060102"

// DefaultSkew is the default symmetric clock-skew window applied when a
// caller does not configure one explicitly.
const DefaultSkew = 15 * time.Minute

var layouts = []string{
	TimeFormat,
	time.RFC3339,
	time.RFC1123Z, // RFC 2822 style with a numeric zone offset
	time.RFC1123,  // RFC 2822 style with a named zone, as produced by the standard Date header ("GMT")
}

// Source describes where a request timestamp was found.
type Source int

const (
	// SourceQueryParam is the X-Amz-Date presigned-URL query parameter.
	SourceQueryParam Source = iota
	// SourceAmzDateHeader is the X-Amz-Date header.
	SourceAmzDateHeader
	// SourceDateHeader is the standard Date header.
	SourceDateHeader
)

// Lookup supplies the raw candidate timestamp strings a Resolve call should
// try, in priority order. An empty string means the source was absent.
type Lookup struct {
	QueryParam    string
	AmzDateHeader string
	DateHeader    string
}

// Resolve tries, in order, the X-Amz-Date query parameter, the X-Amz-Date
// header, and the Date header, parsing the first non-empty value it finds
// against each of TimeFormat, RFC 3339, and RFC 2822 in turn. It fails with
// MissingParameter("X-Amz-Date") if none of the three sources were present,
// and MalformedSignature if a present source could not be parsed in any
// known format.
func Resolve(l Lookup) (time.Time, Source, error) {
	candidates := []struct {
		value  string
		source Source
	}{
		{l.QueryParam, SourceQueryParam},
		{l.AmzDateHeader, SourceAmzDateHeader},
		{l.DateHeader, SourceDateHeader},
	}

	for _, c := range candidates {
		if c.value == "" {
			continue
		}
		t, err := parseAny(c.value)
		if err != nil {
			return time.Time{}, c.source, sigv4err.New(sigv4err.MalformedSignature, "could not parse request timestamp")
		}
		return t, c.source, nil
	}

	return time.Time{}, 0, sigv4err.New(sigv4err.MissingParameter, "X-Amz-Date")
}

func parseAny(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	var firstErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// CheckSkew validates that requestTime falls within skew of now, in either
// direction, failing with TimestampOutOfRange otherwise.
func CheckSkew(now, requestTime time.Time, skew time.Duration) error {
	if skew <= 0 {
		skew = DefaultSkew
	}
	diff := now.Sub(requestTime)
	if diff < 0 {
		diff = -diff
	}
	if diff > skew {
		return sigv4err.New(sigv4err.TimestampOutOfRange, "request timestamp is outside the allowed clock skew")
	}
	return nil
}
