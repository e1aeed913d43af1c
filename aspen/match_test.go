package aspen_test

import (
	"testing"

	"github.com/dioad/sigv4/aspen"
	"github.com/dioad/sigv4/sigv4"
)

func TestStatementMatches(t *testing.T) {
	p, err := aspen.ParsePolicy([]byte(`{
        "Version": "2012-10-17",
        "Statement": [
            {
                "Sid": "AllowRead",
                "Effect": "Allow",
                "Action": ["s3:GetObject", "s3:ListBucket"],
                "Resource": "arn:aws:s3:::example-bucket/*"
            },
            {
                "Sid": "DenyNonAlice",
                "Effect": "Deny",
                "Action": "s3:*",
                "Resource": "*",
                "Condition": {
                    "StringNotEquals": {"aws:username": "alice"}
                }
            }
        ]
    }`))
	if err != nil {
		t.Fatalf("ParsePolicy() error: %v", err)
	}

	get, _ := aspen.ParseAction("s3:GetObject")
	obj := aspen.NewResourceARN("arn:aws:s3:::example-bucket/key.txt")

	stmts := p.Statement.Statements()

	effect, matched := stmts[0].Matches(get, obj, nil)
	if !matched || effect != aspen.Allow {
		t.Fatalf("statement 0: matched=%v effect=%v, want Allow", matched, effect)
	}

	put, _ := aspen.ParseAction("s3:PutObject")
	if _, matched := stmts[0].Matches(put, obj, nil); matched {
		t.Errorf("statement 0 should not match s3:PutObject")
	}

	aliceCtx := sigv4.SessionData{"aws:username": sigv4.StringAttribute("alice")}
	if _, matched := stmts[1].Matches(get, obj, aliceCtx); matched {
		t.Errorf("statement 1 should not match when StringNotEquals condition fails for alice")
	}

	bobCtx := sigv4.SessionData{"aws:username": sigv4.StringAttribute("bob")}
	effect, matched = stmts[1].Matches(get, obj, bobCtx)
	if !matched || effect != aspen.Deny {
		t.Fatalf("statement 1: matched=%v effect=%v, want Deny for bob", matched, effect)
	}
}

func TestStatementMatchesNotAction(t *testing.T) {
	st := aspen.Statement{
		Effect:    aspen.Deny,
		NotAction: actionListPtr(aspen.NewActionList(aspen.NewAction("s3", "GetObject"))),
		Resource:  resourceListPtr(aspen.NewResourceList(aspen.AnyResource)),
	}

	get, _ := aspen.ParseAction("s3:GetObject")
	put, _ := aspen.ParseAction("s3:PutObject")
	anyResource := aspen.AnyResource

	if _, matched := st.Matches(get, anyResource, nil); matched {
		t.Errorf("NotAction s3:GetObject should exclude s3:GetObject itself")
	}
	if _, matched := st.Matches(put, anyResource, nil); !matched {
		t.Errorf("NotAction s3:GetObject should match s3:PutObject")
	}
}

func actionListPtr(al aspen.ActionList) *aspen.ActionList     { return &al }
func resourceListPtr(rl aspen.ResourceList) *aspen.ResourceList { return &rl }
