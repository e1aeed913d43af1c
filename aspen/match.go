package aspen

import "github.com/dioad/sigv4/sigv4"

// SessionContext adapts sigv4.SessionData to EvaluationContext so a parsed
// Condition can be evaluated against the attributes a Credential Resolver
// attached to a verified request.
type SessionContext sigv4.SessionData

// Get implements EvaluationContext.
func (c SessionContext) Get(key string) (contextValue, bool) {
	v, ok := c[key]
	if !ok {
		return nil, false
	}
	return v, true
}

// Matches is a minimal statement-level matcher: it reports whether
// statement st applies to the given action and resource under ctx, and if
// so, the Effect it contributes. This is deliberately not a policy
// evaluator — it does not combine statements or apply explicit-deny-wins
// across a whole Policy, only whether one Statement's Action/Resource/
// Condition triple is satisfied.
func (st Statement) Matches(action Action, resource Resource, ctx sigv4.SessionData) (effect Effect, matched bool) {
	if !st.actionMatches(action) {
		return "", false
	}
	if !st.resourceMatches(resource) {
		return "", false
	}
	if st.Condition != nil && !st.Condition.Eval(SessionContext(ctx)) {
		return "", false
	}
	return st.Effect, true
}

func (st Statement) actionMatches(action Action) bool {
	switch {
	case st.Action != nil:
		return st.Action.Matches(action)
	case st.NotAction != nil:
		return !st.NotAction.Matches(action)
	default:
		// Neither Action nor NotAction: every action is within scope, the
		// same as a bare NotAction: [] would mean.
		return true
	}
}

func (st Statement) resourceMatches(resource Resource) bool {
	resourceStr := resource.String()
	switch {
	case st.Resource != nil:
		return st.Resource.Matches(resourceStr)
	case st.NotResource != nil:
		return !st.NotResource.Matches(resourceStr)
	default:
		return true
	}
}
