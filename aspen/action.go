package aspen

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"

	"github.com/dioad/sigv4/sigv4err"
)

// actionPattern is the §4.6 grammar for a concrete (non-wildcard) Action:
// service:action, where action may itself contain '*' as a wildcard
// character.
var actionPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*[A-Za-z0-9]:[A-Za-z0-9*][A-Za-z0-9_*-]*[A-Za-z0-9*]$`)

// validate is shared across the package for the handful of string-shape
// checks the wire grammar imposes (Action being the main one); it holds no
// mutable state once built, so one instance is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("aspen_action", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "*" || actionPattern.MatchString(s)
	})
	return v
}

type actionShape struct {
	Value string `validate:"required,aspen_action"`
}

// Action is either the wildcard "*" or a "service:action" pair; Service and
// Name are empty when Wildcard is true.
type Action struct {
	Wildcard bool
	Service  string
	Name     string
}

// AnyAction is the "*" wildcard Action.
var AnyAction = Action{Wildcard: true}

// NewAction builds a concrete service:action Action without validating it;
// use ParseAction to validate against the wire grammar.
func NewAction(service, name string) Action {
	return Action{Service: service, Name: name}
}

// ParseAction validates and parses a wire-form action string.
func ParseAction(s string) (Action, error) {
	if err := validate.Struct(actionShape{Value: s}); err != nil {
		return Action{}, sigv4err.New(sigv4err.InvalidPolicyDocument, fmt.Sprintf("invalid action %q", s))
	}
	if s == "*" {
		return AnyAction, nil
	}
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			return Action{Service: s[:i], Name: s[i+1:]}, nil
		}
	}
	return Action{}, sigv4err.New(sigv4err.InvalidPolicyDocument, fmt.Sprintf("invalid action %q", s))
}

// String renders the wire form of a.
func (a Action) String() string {
	if a.Wildcard {
		return "*"
	}
	return a.Service + ":" + a.Name
}

// Matches reports whether a (a statement's declared action, which may use
// '*' within its Name as a glob) matches the concrete action name other.
func (a Action) Matches(other Action) bool {
	if a.Wildcard {
		return true
	}
	if !globMatch(a.Service, other.Service) {
		return false
	}
	return globMatch(a.Name, other.Name)
}

func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Action) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return sigv4err.New(sigv4err.InvalidPolicyDocument, "action must be a string")
	}
	parsed, err := ParseAction(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ActionList is either a single Action or an ordered list of them.
type ActionList struct {
	single *Action
	list   []Action
}

// NewActionList builds an ActionList: single-shaped when given exactly one
// action, list-shaped otherwise.
func NewActionList(actions ...Action) ActionList {
	if len(actions) == 1 {
		return ActionList{single: &actions[0]}
	}
	return ActionList{list: actions}
}

// Actions returns the list view regardless of wire shape.
func (al ActionList) Actions() []Action {
	if al.single != nil {
		return []Action{*al.single}
	}
	return al.list
}

// Matches reports whether any action in al matches other.
func (al ActionList) Matches(other Action) bool {
	for _, a := range al.Actions() {
		if a.Matches(other) {
			return true
		}
	}
	return false
}

func parseActionList(r gjson.Result) (ActionList, error) {
	if r.IsArray() {
		var list []Action
		var parseErr error
		r.ForEach(func(_, v gjson.Result) bool {
			if v.Type != gjson.String {
				parseErr = sigv4err.New(sigv4err.InvalidPolicyDocument, "action must be a string")
				return false
			}
			a, err := ParseAction(v.String())
			if err != nil {
				parseErr = err
				return false
			}
			list = append(list, a)
			return true
		})
		if parseErr != nil {
			return ActionList{}, parseErr
		}
		return ActionList{list: list}, nil
	}
	if r.Type == gjson.String {
		a, err := ParseAction(r.String())
		if err != nil {
			return ActionList{}, err
		}
		return ActionList{single: &a}, nil
	}
	return ActionList{}, sigv4err.New(sigv4err.InvalidPolicyDocument, "action must be a string or array of strings")
}

func (al ActionList) MarshalJSON() ([]byte, error) {
	if al.single != nil {
		return json.Marshal(*al.single)
	}
	return json.Marshal(al.list)
}

func (al *ActionList) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return sigv4err.New(sigv4err.InvalidPolicyDocument, "action is not valid JSON")
	}
	parsed, err := parseActionList(gjson.ParseBytes(data))
	if err != nil {
		return err
	}
	*al = parsed
	return nil
}
