package canon

import (
	"regexp"
	"sort"
	"strings"
)

var multiSpace = regexp.MustCompile(` {2,}`)

// CollapseHeaderValue trims leading and trailing whitespace and collapses
// any run of two or more spaces into a single space, as SigV4 canonical
// header value formatting requires. The original AWS SigV4 implementation
// this is derived from only collapsed runs of spaces without trimming the
// ends first; both steps are required here.
func CollapseHeaderValue(v string) string {
	return multiSpace.ReplaceAllString(strings.TrimSpace(v), " ")
}

// HeaderSet is a case-insensitive multimap of header name to its ordered,
// possibly-repeated values, mirroring how request.Request stores headers.
type HeaderSet map[string][][]byte

// Values returns the raw values stored for name, matched case-insensitively.
func (h HeaderSet) Values(name string) [][]byte {
	return h[strings.ToLower(name)]
}

// CanonicalHeaders renders the sorted "name:value\n" block for exactly the
// header names in signedHeaders. Each header's values are trimmed,
// whitespace-collapsed and comma-joined in their original order; the header
// name is written exactly as given. signedHeaders must already be
// lower-cased and sorted; SignedHeaders below produces such a list.
func CanonicalHeaders(h HeaderSet, signedHeaders []string) string {
	var b strings.Builder
	for _, name := range signedHeaders {
		values := h.Values(name)
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = CollapseHeaderValue(string(v))
		}
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(strings.Join(parts, ","))
		b.WriteByte('\n')
	}
	return b.String()
}

// SignedHeaders lower-cases and sorts the given header names and joins them
// with ";", producing both the signed-headers list in the canonical request
// and the value of the Authorization header's SignedHeaders parameter.
func SignedHeaders(names []string) string {
	normalized := make([]string, len(names))
	for i, n := range names {
		normalized[i] = strings.ToLower(strings.TrimSpace(n))
	}
	sort.Strings(normalized)
	return strings.Join(normalized, ";")
}

// SplitSignedHeaders parses a SignedHeaders parameter value ("host;x-amz-date")
// back into its individual, already-lower-cased names. Validation that the
// list appears in the order SignedHeaders would produce is the caller's
// responsibility (the algorithm engine enforces it).
func SplitSignedHeaders(value string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, ";")
}
