package aspen_test

import (
	"testing"

	"github.com/dioad/sigv4/aspen"
)

func TestResourceMatches(t *testing.T) {
	glob := aspen.NewResourceARN("arn:aws:s3:::example-bucket/*")
	if !glob.Matches("arn:aws:s3:::example-bucket/key.txt") {
		t.Errorf("glob resource should match object under bucket")
	}
	if glob.Matches("arn:aws:s3:::other-bucket/key.txt") {
		t.Errorf("glob resource should not match a different bucket")
	}
	if !aspen.AnyResource.Matches("arn:aws:s3:::anything") {
		t.Errorf("* should match anything")
	}
}

func TestResourceListRoundTrip(t *testing.T) {
	single := aspen.NewResourceList(aspen.NewResourceARN("arn:aws:s3:::b/*"))
	b, err := single.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error: %v", err)
	}
	if string(b) != `"arn:aws:s3:::b/*"` {
		t.Errorf("single-shape MarshalJSON = %s", b)
	}

	multi := aspen.NewResourceList(aspen.NewResourceARN("arn:aws:s3:::a"), aspen.AnyResource)
	b, err = multi.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error: %v", err)
	}
	if string(b) != `["arn:aws:s3:::a","*"]` {
		t.Errorf("list-shape MarshalJSON = %s", b)
	}
}
