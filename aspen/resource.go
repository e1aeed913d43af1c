package aspen

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/dioad/sigv4/sigv4err"
)

// Resource is either the wildcard "*" or an ARN string. Unlike Action, the
// wire grammar places no further shape constraint on the ARN beyond being a
// string; the ARN grammar itself (§3's
// arn:PARTITION:SERVICE:REGION:ACCOUNT:RESOURCE) is validated by
// sigv4.ParseARN where a caller needs it parsed, not at policy-parse time,
// since IAM resource ARNs legitimately contain '*' and '?' wildcards that
// are not valid in a concrete sigv4.Identity.
type Resource struct {
	Wildcard bool
	ARN      string
}

// AnyResource is the "*" wildcard Resource.
var AnyResource = Resource{Wildcard: true}

// NewResourceARN builds a concrete Resource from an ARN string.
func NewResourceARN(arn string) Resource {
	return Resource{ARN: arn}
}

func parseResource(s string) Resource {
	if s == "*" {
		return AnyResource
	}
	return Resource{ARN: s}
}

// String renders the wire form of r.
func (r Resource) String() string {
	if r.Wildcard {
		return "*"
	}
	return r.ARN
}

// Matches reports whether r (a statement's declared resource, which may use
// '*'/'?' as ARN-segment globs) matches the concrete resource ARN other.
func (r Resource) Matches(other string) bool {
	if r.Wildcard {
		return true
	}
	return globMatch(r.ARN, other)
}

func (r Resource) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Resource) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return sigv4err.New(sigv4err.InvalidPolicyDocument, "resource must be a string")
	}
	*r = parseResource(s)
	return nil
}

// ResourceList is either a single Resource or an ordered list of them.
type ResourceList struct {
	single *Resource
	list   []Resource
}

// NewResourceList builds a ResourceList: single-shaped when given exactly
// one resource, list-shaped otherwise.
func NewResourceList(resources ...Resource) ResourceList {
	if len(resources) == 1 {
		return ResourceList{single: &resources[0]}
	}
	return ResourceList{list: resources}
}

// Resources returns the list view regardless of wire shape.
func (rl ResourceList) Resources() []Resource {
	if rl.single != nil {
		return []Resource{*rl.single}
	}
	return rl.list
}

// Matches reports whether any resource in rl matches other.
func (rl ResourceList) Matches(other string) bool {
	for _, r := range rl.Resources() {
		if r.Matches(other) {
			return true
		}
	}
	return false
}

func parseResourceList(r gjson.Result) (ResourceList, error) {
	if r.IsArray() {
		var list []Resource
		var parseErr error
		r.ForEach(func(_, v gjson.Result) bool {
			if v.Type != gjson.String {
				parseErr = sigv4err.New(sigv4err.InvalidPolicyDocument, "resource must be a string")
				return false
			}
			list = append(list, parseResource(v.String()))
			return true
		})
		if parseErr != nil {
			return ResourceList{}, parseErr
		}
		return ResourceList{list: list}, nil
	}
	if r.Type == gjson.String {
		res := parseResource(r.String())
		return ResourceList{single: &res}, nil
	}
	return ResourceList{}, sigv4err.New(sigv4err.InvalidPolicyDocument, "resource must be a string or array of strings")
}

func (rl ResourceList) MarshalJSON() ([]byte, error) {
	if rl.single != nil {
		return json.Marshal(*rl.single)
	}
	return json.Marshal(rl.list)
}

func (rl *ResourceList) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return sigv4err.New(sigv4err.InvalidPolicyDocument, "resource is not valid JSON")
	}
	parsed, err := parseResourceList(gjson.ParseBytes(data))
	if err != nil {
		return err
	}
	*rl = parsed
	return nil
}
