package canon

import (
	"sort"
	"strings"

	"github.com/dioad/sigv4/sigv4err"
)

// Param is a single decoded query parameter, preserving the original
// insertion order of repeated keys rather than collapsing them into an
// unordered multimap.
type Param struct {
	Key   string
	Value string
}

// Params is an ordered sequence of normalized query parameters. Unlike a
// plain map, it preserves duplicate keys in their original order so that
// signature verification can distinguish "a=1&a=2" from "a=2&a=1".
type Params []Param

// ParseQuery splits a raw query string into normalized parameters. Each
// "key=value" or bare "key" component is split on the first "=": a
// component with no "=" is treated as a key with an empty value, never as
// an indexing error. Both key and value are run through RFC 3986 component
// normalization.
func ParseQuery(query string) (Params, error) {
	if query == "" {
		return nil, nil
	}

	rawParams := strings.Split(query, "&")
	params := make(Params, 0, len(rawParams))
	for _, raw := range rawParams {
		if raw == "" {
			continue
		}
		key, value, _ := strings.Cut(raw, "=")

		normKey, err := normalizeComponent(key)
		if err != nil {
			return nil, err
		}
		normValue, err := normalizeComponent(value)
		if err != nil {
			return nil, err
		}
		params = append(params, Param{Key: normKey, Value: normValue})
	}
	return params, nil
}

// ExcludeKey returns a copy of p with every parameter named key removed.
// Used to drop X-Amz-Signature before building the canonical query string
// of a presigned request.
func (p Params) ExcludeKey(key string) Params {
	out := make(Params, 0, len(p))
	for _, param := range p {
		if param.Key == key {
			continue
		}
		out = append(out, param)
	}
	return out
}

// CanonicalQueryString renders p as the sorted canonical query string
// SigV4 requires: parameters are sorted first by key then by value (both
// byte-wise), over the already percent-encoded form normalizeComponent
// produced when p was parsed. Encoding happens exactly once, at parse
// time — re-encoding an already-canonical component here would escape its
// retained '%' escapes a second time.
func (p Params) CanonicalQueryString() string {
	if len(p) == 0 {
		return ""
	}

	sorted := make(Params, len(p))
	copy(sorted, p)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Key != sorted[j].Key {
			return sorted[i].Key < sorted[j].Key
		}
		return sorted[i].Value < sorted[j].Value
	})

	var b strings.Builder
	for i, param := range sorted {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(param.Key)
		b.WriteByte('=')
		b.WriteString(param.Value)
	}
	return b.String()
}

// parseFormBody parses an application/x-www-form-urlencoded body.
// normalizeComponent already maps a literal '+' to "%20", the same
// translation form-urlencoded bodies want for it, so no separate
// plus-to-space pass is needed here.
func parseFormBody(body string) (Params, error) {
	if body == "" {
		return nil, nil
	}
	rawParams := strings.Split(body, "&")
	params := make(Params, 0, len(rawParams))
	for _, raw := range rawParams {
		if raw == "" {
			continue
		}
		key, value, _ := strings.Cut(raw, "=")

		normKey, err := normalizeComponent(key)
		if err != nil {
			return nil, err
		}
		normValue, err := normalizeComponent(value)
		if err != nil {
			return nil, err
		}
		params = append(params, Param{Key: normKey, Value: normValue})
	}
	return params, nil
}

// MergeFormBody merges the parameters decoded from an
// application/x-www-form-urlencoded request body into p, as SigV4 requires
// when the body carries signable parameters instead of the query string.
// charset must be empty, "utf-8" or "utf8"; any other charset fails with
// InvalidBodyEncoding, since its byte-wise comparison semantics are
// undefined.
func MergeFormBody(p Params, body string, charset string) (Params, error) {
	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8":
	default:
		return nil, sigv4err.New(sigv4err.InvalidBodyEncoding, "unsupported form body charset")
	}

	bodyParams, err := parseFormBody(body)
	if err != nil {
		return nil, err
	}

	merged := make(Params, 0, len(p)+len(bodyParams))
	merged = append(merged, p...)
	merged = append(merged, bodyParams...)
	return merged, nil
}
