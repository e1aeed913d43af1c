package aspen

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/dioad/sigv4/sigv4err"
)

// StringList is either a single string or an ordered list of strings; it
// backs every principal-type value (AWS, CanonicalUser, Federated,
// Service) and every Condition key value.
type StringList struct {
	single *string
	list   []string
}

// NewStringList builds a StringList: single-shaped when given exactly one
// value, list-shaped otherwise.
func NewStringList(values ...string) StringList {
	if len(values) == 1 {
		return StringList{single: &values[0]}
	}
	return StringList{list: values}
}

// Values returns the list view regardless of wire shape.
func (sl StringList) Values() []string {
	if sl.single != nil {
		return []string{*sl.single}
	}
	return sl.list
}

func parseStringList(r gjson.Result) (StringList, error) {
	if r.IsArray() {
		var list []string
		var parseErr error
		r.ForEach(func(_, v gjson.Result) bool {
			if v.Type != gjson.String {
				parseErr = sigv4err.New(sigv4err.InvalidPolicyDocument, "expected a string")
				return false
			}
			list = append(list, v.String())
			return true
		})
		if parseErr != nil {
			return StringList{}, parseErr
		}
		return StringList{list: list}, nil
	}
	if r.Type == gjson.String {
		s := r.String()
		return StringList{single: &s}, nil
	}
	return StringList{}, sigv4err.New(sigv4err.InvalidPolicyDocument, "expected a string or array of strings")
}

func (sl StringList) MarshalJSON() ([]byte, error) {
	if sl.single != nil {
		return json.Marshal(*sl.single)
	}
	return json.Marshal(sl.list)
}

func (sl *StringList) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return sigv4err.New(sigv4err.InvalidPolicyDocument, "value is not valid JSON")
	}
	parsed, err := parseStringList(gjson.ParseBytes(data))
	if err != nil {
		return err
	}
	*sl = parsed
	return nil
}

// PrincipalMap is the non-wildcard shape of a Principal/NotPrincipal value:
// a map keyed by principal type to the identifiers of that type.
type PrincipalMap struct {
	AWS           *StringList `json:"AWS,omitempty"`
	CanonicalUser *StringList `json:"CanonicalUser,omitempty"`
	Federated     *StringList `json:"Federated,omitempty"`
	Service       *StringList `json:"Service,omitempty"`
}

// Principal is either the wildcard "*" or a PrincipalMap.
type Principal struct {
	Wildcard bool
	Map      PrincipalMap
}

// AnyPrincipal is the "*" wildcard Principal.
var AnyPrincipal = Principal{Wildcard: true}

func parsePrincipal(r gjson.Result) (Principal, error) {
	if r.Type == gjson.String {
		if r.String() != "*" {
			return Principal{}, sigv4err.New(sigv4err.InvalidPolicyDocument, `principal string value must be "*"`)
		}
		return AnyPrincipal, nil
	}
	if !r.IsObject() {
		return Principal{}, sigv4err.New(sigv4err.InvalidPolicyDocument, `principal must be "*" or an object`)
	}

	var m PrincipalMap
	for key, field := range map[string]**StringList{
		"AWS":           &m.AWS,
		"CanonicalUser": &m.CanonicalUser,
		"Federated":     &m.Federated,
		"Service":       &m.Service,
	} {
		v := r.Get(key)
		if !v.Exists() {
			continue
		}
		sl, err := parseStringList(v)
		if err != nil {
			return Principal{}, err
		}
		*field = &sl
	}

	return Principal{Map: m}, nil
}

func (p Principal) MarshalJSON() ([]byte, error) {
	if p.Wildcard {
		return json.Marshal("*")
	}
	return json.Marshal(p.Map)
}

func (p *Principal) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return sigv4err.New(sigv4err.InvalidPolicyDocument, "principal is not valid JSON")
	}
	parsed, err := parsePrincipal(gjson.ParseBytes(data))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Matches reports whether principalType/principalID (e.g. "AWS",
// "arn:aws:iam::123456789012:user/alice") is covered by p.
func (p Principal) Matches(principalType, principalID string) bool {
	if p.Wildcard {
		return true
	}
	var values *StringList
	switch principalType {
	case "AWS":
		values = p.Map.AWS
	case "CanonicalUser":
		values = p.Map.CanonicalUser
	case "Federated":
		values = p.Map.Federated
	case "Service":
		values = p.Map.Service
	default:
		return false
	}
	if values == nil {
		return false
	}
	for _, v := range values.Values() {
		if globMatch(v, principalID) {
			return true
		}
	}
	return false
}
