package aspen_test

import (
	"encoding/json"
	"testing"

	"github.com/dioad/sigv4/aspen"
	"github.com/dioad/sigv4/sigv4err"
)

const singleStatementPolicy = `{
    "Version": "2012-10-17",
    "Statement": {
        "Effect": "Allow",
        "Action": "s3:GetObject",
        "Resource": "arn:aws:s3:::example-bucket/*"
    }
}`

const multiStatementPolicy = `{
    "Version": "2012-10-17",
    "Id": "ExamplePolicy",
    "Statement": [
        {
            "Sid": "AllowRead",
            "Effect": "Allow",
            "Action": ["s3:GetObject", "s3:ListBucket"],
            "Resource": "arn:aws:s3:::example-bucket/*"
        },
        {
            "Sid": "DenyWrite",
            "Effect": "Deny",
            "NotAction": "s3:GetObject",
            "Resource": "*",
            "Condition": {
                "StringEquals": {
                    "aws:username": "alice"
                }
            }
        }
    ]
}`

func TestParsePolicySingleStatement(t *testing.T) {
	p, err := aspen.ParsePolicy([]byte(singleStatementPolicy))
	if err != nil {
		t.Fatalf("ParsePolicy() error: %v", err)
	}
	stmts := p.Statement.Statements()
	if len(stmts) != 1 {
		t.Fatalf("Statements() len = %d, want 1", len(stmts))
	}
	if stmts[0].Effect != aspen.Allow {
		t.Errorf("Effect = %q, want Allow", stmts[0].Effect)
	}
	if stmts[0].Action == nil || stmts[0].Action.Actions()[0].String() != "s3:GetObject" {
		t.Errorf("Action mismatch: %+v", stmts[0].Action)
	}
}

func TestParsePolicyMultiStatement(t *testing.T) {
	p, err := aspen.ParsePolicy([]byte(multiStatementPolicy))
	if err != nil {
		t.Fatalf("ParsePolicy() error: %v", err)
	}
	stmts := p.Statement.Statements()
	if len(stmts) != 2 {
		t.Fatalf("Statements() len = %d, want 2", len(stmts))
	}
	if stmts[0].Sid != "AllowRead" {
		t.Errorf("Sid = %q", stmts[0].Sid)
	}
	if stmts[1].NotAction == nil {
		t.Fatalf("NotAction is nil")
	}
}

func TestPolicyRoundTrip(t *testing.T) {
	for _, raw := range []string{singleStatementPolicy, multiStatementPolicy} {
		p, err := aspen.ParsePolicy([]byte(raw))
		if err != nil {
			t.Fatalf("ParsePolicy() error: %v", err)
		}

		out, err := p.MarshalJSON()
		if err != nil {
			t.Fatalf("MarshalJSON() error: %v", err)
		}

		reparsed, err := aspen.ParsePolicy(out)
		if err != nil {
			t.Fatalf("ParsePolicy(reserialized) error: %v", err)
		}

		if len(p.Statement.Statements()) != len(reparsed.Statement.Statements()) {
			t.Fatalf("statement count changed across round-trip")
		}
		if p.Version != reparsed.Version || p.ID != reparsed.ID {
			t.Fatalf("Version/Id changed across round-trip")
		}
	}
}

func TestPolicyUnmarshalJSONViaStandardLibrary(t *testing.T) {
	var p aspen.Policy
	if err := json.Unmarshal([]byte(singleStatementPolicy), &p); err != nil {
		t.Fatalf("json.Unmarshal() error: %v", err)
	}
	if len(p.Statement.Statements()) != 1 {
		t.Fatalf("Statements() len = %d, want 1", len(p.Statement.Statements()))
	}
}

func TestParsePolicyMissingStatementFails(t *testing.T) {
	_, err := aspen.ParsePolicy([]byte(`{"Version": "2012-10-17"}`))
	e, ok := sigv4err.As(err)
	if !ok || e.Kind != sigv4err.InvalidPolicyDocument {
		t.Fatalf("error = %v, want InvalidPolicyDocument", err)
	}
}

func TestParsePolicyInvalidEffectFails(t *testing.T) {
	_, err := aspen.ParsePolicy([]byte(`{
        "Statement": {"Effect": "Maybe", "Action": "*", "Resource": "*"}
    }`))
	e, ok := sigv4err.As(err)
	if !ok || e.Kind != sigv4err.InvalidPolicyDocument {
		t.Fatalf("error = %v, want InvalidPolicyDocument", err)
	}
}

func TestParsePolicyNotJSONFails(t *testing.T) {
	_, err := aspen.ParsePolicy([]byte(`not json`))
	if _, ok := sigv4err.As(err); !ok {
		t.Fatalf("expected a *sigv4err.Error, got %v", err)
	}
}
