package aspen_test

import (
	"encoding/json"
	"testing"

	"github.com/dioad/sigv4/aspen"
	"github.com/dioad/sigv4/sigv4"
	"github.com/dioad/sigv4/sigv4err"
)

func TestParseConditionUnknownOperatorFails(t *testing.T) {
	var c aspen.Condition
	err := json.Unmarshal([]byte(`{"NotARealOperator": {"aws:username": "alice"}}`), &c)
	e, ok := sigv4err.As(err)
	if !ok || e.Kind != sigv4err.InvalidPolicyDocument {
		t.Fatalf("error = %v, want InvalidPolicyDocument", err)
	}
}

func TestConditionEvalStringEquals(t *testing.T) {
	var c aspen.Condition
	if err := json.Unmarshal([]byte(`{"StringEquals": {"aws:username": "alice"}}`), &c); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	matches := sigv4.SessionData{"aws:username": sigv4.StringAttribute("alice")}
	if !c.Eval(aspen.SessionContext(matches)) {
		t.Errorf("expected StringEquals to match")
	}

	mismatches := sigv4.SessionData{"aws:username": sigv4.StringAttribute("bob")}
	if c.Eval(aspen.SessionContext(mismatches)) {
		t.Errorf("expected StringEquals to reject a different username")
	}
}

func TestConditionEvalMissingKeyFailsWithoutIfExists(t *testing.T) {
	var c aspen.Condition
	if err := json.Unmarshal([]byte(`{"StringEquals": {"aws:username": "alice"}}`), &c); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if c.Eval(aspen.SessionContext(sigv4.SessionData{})) {
		t.Errorf("expected missing key to fail the condition")
	}
}

func TestConditionEvalIfExistsSkipsMissingKey(t *testing.T) {
	var c aspen.Condition
	if err := json.Unmarshal([]byte(`{"StringEqualsIfExists": {"aws:username": "alice"}}`), &c); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if !c.Eval(aspen.SessionContext(sigv4.SessionData{})) {
		t.Errorf("expected IfExists to vacuously pass on a missing key")
	}
}

func TestConditionEvalBool(t *testing.T) {
	var c aspen.Condition
	if err := json.Unmarshal([]byte(`{"Bool": {"aws:MultiFactorAuthPresent": "true"}}`), &c); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	mfa := sigv4.SessionData{"aws:MultiFactorAuthPresent": sigv4.BoolAttribute(true)}
	if !c.Eval(aspen.SessionContext(mfa)) {
		t.Errorf("expected Bool condition to match")
	}
	noMFA := sigv4.SessionData{"aws:MultiFactorAuthPresent": sigv4.BoolAttribute(false)}
	if c.Eval(aspen.SessionContext(noMFA)) {
		t.Errorf("expected Bool condition to reject false")
	}
}

func TestConditionEvalNullChecksExistence(t *testing.T) {
	var present, absent aspen.Condition
	if err := json.Unmarshal([]byte(`{"Null": {"aws:username": "false"}}`), &present); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if err := json.Unmarshal([]byte(`{"Null": {"aws:username": "true"}}`), &absent); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	withKey := sigv4.SessionData{"aws:username": sigv4.StringAttribute("alice")}
	if !present.Eval(aspen.SessionContext(withKey)) {
		t.Errorf(`Null "false" should pass when the key is present`)
	}
	if absent.Eval(aspen.SessionContext(withKey)) {
		t.Errorf(`Null "true" should fail when the key is present`)
	}

	withoutKey := sigv4.SessionData{}
	if present.Eval(aspen.SessionContext(withoutKey)) {
		t.Errorf(`Null "false" should fail when the key is absent`)
	}
	if !absent.Eval(aspen.SessionContext(withoutKey)) {
		t.Errorf(`Null "true" should pass when the key is absent`)
	}
}
