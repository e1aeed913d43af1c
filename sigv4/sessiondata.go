package sigv4

import "encoding/json"

// AttributeValue is a closed sum type for the values a SessionData entry
// may hold, mirroring the handful of value shapes the "aws:*" condition
// keys actually take.
type AttributeValue struct {
	str    string
	b      bool
	i      int64
	list   []string
	kind   attributeKind
}

type attributeKind int

const (
	kindString attributeKind = iota
	kindBool
	kindInt
	kindList
)

// StringAttribute builds a string-valued AttributeValue.
func StringAttribute(s string) AttributeValue { return AttributeValue{str: s, kind: kindString} }

// BoolAttribute builds a bool-valued AttributeValue.
func BoolAttribute(b bool) AttributeValue { return AttributeValue{b: b, kind: kindBool} }

// IntAttribute builds an int64-valued AttributeValue.
func IntAttribute(i int64) AttributeValue { return AttributeValue{i: i, kind: kindInt} }

// ListAttribute builds a []string-valued AttributeValue.
func ListAttribute(l []string) AttributeValue { return AttributeValue{list: l, kind: kindList} }

// String returns the value as a string, and whether it was string-kinded.
func (a AttributeValue) String() (string, bool) { return a.str, a.kind == kindString }

// Bool returns the value as a bool, and whether it was bool-kinded.
func (a AttributeValue) Bool() (bool, bool) { return a.b, a.kind == kindBool }

// Int returns the value as an int64, and whether it was int-kinded.
func (a AttributeValue) Int() (int64, bool) { return a.i, a.kind == kindInt }

// List returns the value as a []string, and whether it was list-kinded.
func (a AttributeValue) List() ([]string, bool) { return a.list, a.kind == kindList }

// MarshalJSON renders the active value of the union, not the struct shape.
func (a AttributeValue) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case kindString:
		return json.Marshal(a.str)
	case kindBool:
		return json.Marshal(a.b)
	case kindInt:
		return json.Marshal(a.i)
	case kindList:
		return json.Marshal(a.list)
	default:
		return json.Marshal(nil)
	}
}

// SessionData is the set of attributes a Credential Resolver attaches
// alongside a Principal, keyed by condition-key name ("aws:username",
// "aws:SecureTransport", "aws:CurrentTime", and so on), used downstream by
// Aspen condition evaluation.
type SessionData map[string]AttributeValue
