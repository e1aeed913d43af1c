package aspen

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/dioad/sigv4/sigv4err"
)

// baseOperators is the closed set of condition operator names from the
// glossary, before the "IfExists" suffix variant each one also accepts.
var baseOperators = []string{
	"StringEquals", "StringNotEquals", "StringEqualsIgnoreCase", "StringNotEqualsIgnoreCase",
	"StringLike", "StringNotLike",
	"NumericEquals", "NumericNotEquals", "NumericLessThan", "NumericLessThanEquals",
	"NumericGreaterThan", "NumericGreaterThanEquals",
	"DateEquals", "DateNotEquals", "DateLessThan", "DateLessThanEquals",
	"DateGreaterThan", "DateGreaterThanEquals",
	"Bool", "BinaryEquals",
	"IpAddress", "NotIpAddress",
	"ArnEquals", "ArnNotEquals", "ArnLike", "ArnNotLike",
	"Null",
}

// knownOperators indexes baseOperators and each "<Operator>IfExists" variant.
var knownOperators = buildKnownOperators()

func buildKnownOperators() map[string]bool {
	ops := make(map[string]bool, len(baseOperators)*2)
	for _, op := range baseOperators {
		ops[op] = true
		ops[op+"IfExists"] = true
	}
	return ops
}

// Condition is a mapping from condition operator name to a mapping from
// condition key to a string or list of strings. Unknown operators fail to
// parse.
type Condition struct {
	operators map[string]map[string]StringList
}

// NewCondition builds a Condition from an already-validated operator map.
func NewCondition(operators map[string]map[string]StringList) Condition {
	return Condition{operators: operators}
}

// Operators returns the set of operator names present, in no particular
// order.
func (c Condition) Operators() []string {
	names := make([]string, 0, len(c.operators))
	for name := range c.operators {
		names = append(names, name)
	}
	return names
}

// Keys returns the operator's key/value block, and whether that operator is
// present at all.
func (c Condition) Keys(operator string) (map[string]StringList, bool) {
	keys, ok := c.operators[operator]
	return keys, ok
}

func parseCondition(r gjson.Result) (Condition, error) {
	if !r.IsObject() {
		return Condition{}, sigv4err.New(sigv4err.InvalidPolicyDocument, "condition must be a JSON object")
	}

	operators := make(map[string]map[string]StringList)
	var parseErr error
	r.ForEach(func(opName, opBlock gjson.Result) bool {
		op := opName.String()
		if !knownOperators[op] {
			parseErr = sigv4err.New(sigv4err.InvalidPolicyDocument, fmt.Sprintf("unknown condition operator %q", op))
			return false
		}
		if !opBlock.IsObject() {
			parseErr = sigv4err.New(sigv4err.InvalidPolicyDocument, fmt.Sprintf("condition operator %q must map to an object", op))
			return false
		}

		keys := make(map[string]StringList)
		opBlock.ForEach(func(keyName, val gjson.Result) bool {
			sl, err := parseStringList(val)
			if err != nil {
				parseErr = err
				return false
			}
			keys[keyName.String()] = sl
			return true
		})
		if parseErr != nil {
			return false
		}
		operators[op] = keys
		return true
	})
	if parseErr != nil {
		return Condition{}, parseErr
	}

	return Condition{operators: operators}, nil
}

func (c Condition) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.operators)
}

func (c *Condition) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return sigv4err.New(sigv4err.InvalidPolicyDocument, "condition is not valid JSON")
	}
	parsed, err := parseCondition(gjson.ParseBytes(data))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// contextValue is the subset of sigv4.AttributeValue this package needs to
// evaluate conditions against, kept narrow so aspen doesn't need to import
// sigv4 just for a handful of accessor methods.
type contextValue interface {
	String() (string, bool)
	Bool() (bool, bool)
	Int() (int64, bool)
	List() ([]string, bool)
}

// EvaluationContext supplies the condition keys a Condition is evaluated
// against; sigv4.SessionData satisfies it directly.
type EvaluationContext interface {
	Get(key string) (contextValue, bool)
}

// Eval reports whether every operator/key block in c is satisfied by ctx.
// Per IAM semantics, a missing context key makes the block fail unless the
// operator carries the "IfExists" suffix, in which case a missing key is
// vacuously satisfied.
func (c Condition) Eval(ctx EvaluationContext) bool {
	for op, keys := range c.operators {
		baseOp := strings.TrimSuffix(op, "IfExists")
		ifExists := baseOp != op

		for key, want := range keys {
			value, ok := ctx.Get(key)

			// Null tests existence itself, so it must run regardless of
			// whether the key is present.
			if baseOp == "Null" {
				if !evalNull(want, ok) {
					return false
				}
				continue
			}

			if !ok {
				if ifExists {
					continue
				}
				return false
			}
			if !evalOperator(baseOp, want, value) {
				return false
			}
		}
	}
	return true
}

func evalOperator(op string, want StringList, got contextValue) bool {
	switch op {
	case "StringEquals", "ArnEquals":
		return anyString(want, got, func(w, g string) bool { return w == g })
	case "StringNotEquals", "ArnNotEquals":
		return !anyString(want, got, func(w, g string) bool { return w == g })
	case "StringEqualsIgnoreCase":
		return anyString(want, got, func(w, g string) bool { return strings.EqualFold(w, g) })
	case "StringNotEqualsIgnoreCase":
		return !anyString(want, got, func(w, g string) bool { return strings.EqualFold(w, g) })
	case "StringLike", "ArnLike":
		return anyString(want, got, globMatch)
	case "StringNotLike", "ArnNotLike":
		return !anyString(want, got, globMatch)
	case "Bool":
		return anyBool(want, got)
	case "NumericEquals":
		return anyNumeric(want, got, func(w, g int64) bool { return w == g })
	case "NumericNotEquals":
		return !anyNumeric(want, got, func(w, g int64) bool { return w == g })
	case "NumericLessThan":
		return anyNumeric(want, got, func(w, g int64) bool { return g < w })
	case "NumericLessThanEquals":
		return anyNumeric(want, got, func(w, g int64) bool { return g <= w })
	case "NumericGreaterThan":
		return anyNumeric(want, got, func(w, g int64) bool { return g > w })
	case "NumericGreaterThanEquals":
		return anyNumeric(want, got, func(w, g int64) bool { return g >= w })
	case "DateEquals":
		return anyDate(want, got, func(w, g time.Time) bool { return g.Equal(w) })
	case "DateNotEquals":
		return !anyDate(want, got, func(w, g time.Time) bool { return g.Equal(w) })
	case "DateLessThan":
		return anyDate(want, got, func(w, g time.Time) bool { return g.Before(w) })
	case "DateLessThanEquals":
		return anyDate(want, got, func(w, g time.Time) bool { return !g.After(w) })
	case "DateGreaterThan":
		return anyDate(want, got, func(w, g time.Time) bool { return g.After(w) })
	case "DateGreaterThanEquals":
		return anyDate(want, got, func(w, g time.Time) bool { return !g.Before(w) })
	case "BinaryEquals", "IpAddress", "NotIpAddress":
		// No binary/CIDR material flows through SessionData today; treat as
		// unsatisfied rather than guessing a comparison.
		return false
	default:
		return false
	}
}

func gotStrings(got contextValue) []string {
	if s, ok := got.String(); ok {
		return []string{s}
	}
	if l, ok := got.List(); ok {
		return l
	}
	if b, ok := got.Bool(); ok {
		return []string{strconv.FormatBool(b)}
	}
	if i, ok := got.Int(); ok {
		return []string{strconv.FormatInt(i, 10)}
	}
	return nil
}

func anyString(want StringList, got contextValue, cmp func(w, g string) bool) bool {
	for _, w := range want.Values() {
		for _, g := range gotStrings(got) {
			if cmp(w, g) {
				return true
			}
		}
	}
	return false
}

func anyBool(want StringList, got contextValue) bool {
	gb, ok := got.Bool()
	if !ok {
		return false
	}
	for _, w := range want.Values() {
		wb, err := strconv.ParseBool(w)
		if err == nil && wb == gb {
			return true
		}
	}
	return false
}

// evalNull implements the "Null" operator: its value is "true" if the key
// must be absent, "false" if it must be present.
func evalNull(want StringList, exists bool) bool {
	for _, w := range want.Values() {
		wantMissing, err := strconv.ParseBool(w)
		if err != nil {
			continue
		}
		if wantMissing == !exists {
			return true
		}
	}
	return false
}

func anyNumeric(want StringList, got contextValue, cmp func(w, g int64) bool) bool {
	gi, ok := got.Int()
	if !ok {
		if s, ok := got.String(); ok {
			parsed, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return false
			}
			gi = parsed
		} else {
			return false
		}
	}
	for _, w := range want.Values() {
		wi, err := strconv.ParseInt(w, 10, 64)
		if err != nil {
			continue
		}
		if cmp(wi, gi) {
			return true
		}
	}
	return false
}

func anyDate(want StringList, got contextValue, cmp func(w, g time.Time) bool) bool {
	s, ok := got.String()
	if !ok {
		return false
	}
	gt, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return false
	}
	for _, w := range want.Values() {
		wt, err := time.Parse(time.RFC3339, w)
		if err != nil {
			continue
		}
		if cmp(wt, gt) {
			return true
		}
	}
	return false
}
