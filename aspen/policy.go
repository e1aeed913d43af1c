// Package aspen implements the AWS IAM policy JSON document model ("Aspen"):
// parsing, serialization, and a minimal statement-level matcher used
// downstream of the verifier to present authorization context. Parsing
// dispatches on JSON token kind (string vs array vs object) via
// github.com/tidwall/gjson rather than the usual Go idiom of attempting
// one json.Unmarshal after another, since the wire grammar disambiguates a
// handful of fields purely by token shape (§9 "Serializer polymorphism by
// wire shape" in the design notes this package implements).
package aspen

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/dioad/sigv4/sigv4err"
)

// policyIndent is the indentation the serializer uses. A parse-then-serialize
// round trip yields a structurally equal Policy; the output is byte-equal to
// the input modulo whitespace only when the input already lists statement
// fields in Statement's field order and map keys in sorted order, and holds
// no characters encoding/json escapes (such as '<', '>' and '&').
const policyIndent = "    "

// Policy is a top-level Aspen document.
type Policy struct {
	Version   string        `json:"Version,omitempty"`
	ID        string        `json:"Id,omitempty"`
	Statement StatementList `json:"Statement"`
}

// ParsePolicy parses an Aspen JSON document.
func ParsePolicy(data []byte) (*Policy, error) {
	if !gjson.ValidBytes(data) {
		return nil, sigv4err.New(sigv4err.InvalidPolicyDocument, "not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, sigv4err.New(sigv4err.InvalidPolicyDocument, "policy document must be a JSON object")
	}

	p := &Policy{
		Version: root.Get("Version").String(),
		ID:      root.Get("Id").String(),
	}

	stmt := root.Get("Statement")
	if !stmt.Exists() {
		return nil, sigv4err.New(sigv4err.InvalidPolicyDocument, "policy document is missing Statement")
	}
	sl, err := parseStatementList(stmt)
	if err != nil {
		return nil, err
	}
	p.Statement = sl

	return p, nil
}

// MarshalJSON renders p with PascalCase field names at 4-space indent,
// omitting Version/Id when unset, matching the wire grammar §4.6 fixes.
func (p Policy) MarshalJSON() ([]byte, error) {
	type wire struct {
		Version   string        `json:"Version,omitempty"`
		ID        string        `json:"Id,omitempty"`
		Statement StatementList `json:"Statement"`
	}
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", policyIndent)
	if err := enc.Encode(wire(p)); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON delegates to ParsePolicy so both entry points enforce the
// same token-kind dispatch and error taxonomy.
func (p *Policy) UnmarshalJSON(data []byte) error {
	parsed, err := ParsePolicy(data)
	if err != nil {
		return err
	}
	*p = *parsed
	return nil
}

// String renders p as indented JSON, or a diagnostic placeholder if
// serialization somehow fails (it never should for a value built by
// ParsePolicy).
func (p Policy) String() string {
	b, err := p.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<aspen.Policy: %v>", err)
	}
	return string(b)
}

// StatementList is either a single Statement or an ordered list of them;
// it serializes back in the shape it was parsed from.
type StatementList struct {
	single *Statement
	list   []Statement
}

// Statements returns the list view regardless of which wire shape was
// parsed, for callers that want to range over statements uniformly.
func (sl StatementList) Statements() []Statement {
	if sl.single != nil {
		return []Statement{*sl.single}
	}
	return sl.list
}

// NewStatementList builds a StatementList from stmts: single-shaped when
// given exactly one statement, list-shaped otherwise.
func NewStatementList(stmts ...Statement) StatementList {
	if len(stmts) == 1 {
		return StatementList{single: &stmts[0]}
	}
	return StatementList{list: stmts}
}

func parseStatementList(r gjson.Result) (StatementList, error) {
	if r.IsArray() {
		var list []Statement
		var parseErr error
		r.ForEach(func(_, v gjson.Result) bool {
			st, err := parseStatement(v)
			if err != nil {
				parseErr = err
				return false
			}
			list = append(list, st)
			return true
		})
		if parseErr != nil {
			return StatementList{}, parseErr
		}
		return StatementList{list: list}, nil
	}
	if r.IsObject() {
		st, err := parseStatement(r)
		if err != nil {
			return StatementList{}, err
		}
		return StatementList{single: &st}, nil
	}
	return StatementList{}, sigv4err.New(sigv4err.InvalidPolicyDocument, "Statement must be an object or array of objects")
}

func (sl StatementList) MarshalJSON() ([]byte, error) {
	if sl.single != nil {
		return json.Marshal(*sl.single)
	}
	return json.Marshal(sl.list)
}

func (sl *StatementList) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return sigv4err.New(sigv4err.InvalidPolicyDocument, "Statement is not valid JSON")
	}
	parsed, err := parseStatementList(gjson.ParseBytes(data))
	if err != nil {
		return err
	}
	*sl = parsed
	return nil
}

// Statement is a single Aspen policy statement.
type Statement struct {
	Sid          string        `json:"Sid,omitempty"`
	Effect       Effect        `json:"Effect"`
	Action       *ActionList   `json:"Action,omitempty"`
	NotAction    *ActionList   `json:"NotAction,omitempty"`
	Resource     *ResourceList `json:"Resource,omitempty"`
	NotResource  *ResourceList `json:"NotResource,omitempty"`
	Principal    *Principal    `json:"Principal,omitempty"`
	NotPrincipal *Principal    `json:"NotPrincipal,omitempty"`
	Condition    *Condition    `json:"Condition,omitempty"`
}

func parseStatement(r gjson.Result) (Statement, error) {
	if !r.IsObject() {
		return Statement{}, sigv4err.New(sigv4err.InvalidPolicyDocument, "statement must be a JSON object")
	}

	st := Statement{
		Sid: r.Get("Sid").String(),
	}

	effect, err := parseEffect(r.Get("Effect"))
	if err != nil {
		return Statement{}, err
	}
	st.Effect = effect

	if action := r.Get("Action"); action.Exists() {
		al, err := parseActionList(action)
		if err != nil {
			return Statement{}, err
		}
		st.Action = &al
	}
	if notAction := r.Get("NotAction"); notAction.Exists() {
		al, err := parseActionList(notAction)
		if err != nil {
			return Statement{}, err
		}
		st.NotAction = &al
	}
	if resource := r.Get("Resource"); resource.Exists() {
		rl, err := parseResourceList(resource)
		if err != nil {
			return Statement{}, err
		}
		st.Resource = &rl
	}
	if notResource := r.Get("NotResource"); notResource.Exists() {
		rl, err := parseResourceList(notResource)
		if err != nil {
			return Statement{}, err
		}
		st.NotResource = &rl
	}
	if principal := r.Get("Principal"); principal.Exists() {
		p, err := parsePrincipal(principal)
		if err != nil {
			return Statement{}, err
		}
		st.Principal = &p
	}
	if notPrincipal := r.Get("NotPrincipal"); notPrincipal.Exists() {
		p, err := parsePrincipal(notPrincipal)
		if err != nil {
			return Statement{}, err
		}
		st.NotPrincipal = &p
	}
	if cond := r.Get("Condition"); cond.Exists() {
		c, err := parseCondition(cond)
		if err != nil {
			return Statement{}, err
		}
		st.Condition = &c
	}

	return st, nil
}

// Effect is either Allow or Deny; the wire form is exactly one of those two
// strings.
type Effect string

const (
	Allow Effect = "Allow"
	Deny  Effect = "Deny"
)

func parseEffect(r gjson.Result) (Effect, error) {
	if r.Type != gjson.String {
		return "", sigv4err.New(sigv4err.InvalidPolicyDocument, `Effect must be "Allow" or "Deny"`)
	}
	switch Effect(r.String()) {
	case Allow:
		return Allow, nil
	case Deny:
		return Deny, nil
	default:
		return "", sigv4err.New(sigv4err.InvalidPolicyDocument, `Effect must be "Allow" or "Deny"`)
	}
}

func (e Effect) MarshalJSON() ([]byte, error) {
	if e != Allow && e != Deny {
		return nil, fmt.Errorf("aspen: invalid Effect %q", string(e))
	}
	return json.Marshal(string(e))
}

func (e *Effect) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return sigv4err.New(sigv4err.InvalidPolicyDocument, `Effect must be "Allow" or "Deny"`)
	}
	parsed, err := parseEffect(gjson.Parse(fmt.Sprintf("%q", s)))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
