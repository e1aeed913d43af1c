package canon_test

import (
	"testing"

	"github.com/dioad/sigv4/canon"
)

func TestPath(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"empty", "", "/", false},
		{"root", "/", "/", false},
		{"dot segments", "/a/./b/../c", "/a/c", false},
		{"collapse slashes", "/a//b///c", "/a/b/c", false},
		{"unreserved decode", "/a%2Db", "/a-b", false},
		{"uppercase escape", "/a%2fb", "/a%2Fb", false},
		{"trailing slash preserved", "/a/b/", "/a/b/", false},
		{"leading dotdot fails", "/../a", "", true},
		{"truncated escape", "/a%2", "", true},
		{"truncated escape at end", "/a%", "", true},
		{"double dot above root fails", "/..", "", true},
		{"raw space encoded", "/a b", "/a%20b", false},
		{"literal plus encoded", "/a+b", "/a%20b", false},
		{"raw reserved byte encoded", "/a:b", "/a%3Ab", false},
		{"missing leading slash fails", "foo/bar", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := canon.Path(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Path(%q) = %q, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Path(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Path(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseQueryAndCanonicalQueryString(t *testing.T) {
	params, err := canon.ParseQuery("b=2&a=1&a=3")
	if err != nil {
		t.Fatalf("ParseQuery error: %v", err)
	}
	got := params.CanonicalQueryString()
	want := "a=1&a=3&b=2"
	if got != want {
		t.Errorf("CanonicalQueryString() = %q, want %q", got, want)
	}
}

func TestParseQueryNoEqualsDefaultsToEmptyValue(t *testing.T) {
	params, err := canon.ParseQuery("flag")
	if err != nil {
		t.Fatalf("ParseQuery error: %v", err)
	}
	if len(params) != 1 || params[0].Key != "flag" || params[0].Value != "" {
		t.Fatalf("ParseQuery(%q) = %+v, want single flag=empty", "flag", params)
	}
}

func TestCanonicalQueryStringDoesNotDoubleEncodeRetainedEscapes(t *testing.T) {
	params, err := canon.ParseQuery("key=%2F&token=a%3Ab")
	if err != nil {
		t.Fatalf("ParseQuery error: %v", err)
	}
	got := params.CanonicalQueryString()
	want := "key=%2F&token=a%3Ab"
	if got != want {
		t.Errorf("CanonicalQueryString() = %q, want %q", got, want)
	}
}

func TestCanonicalQueryStringEncodesRawReservedBytes(t *testing.T) {
	params, err := canon.ParseQuery("key=a/b")
	if err != nil {
		t.Fatalf("ParseQuery error: %v", err)
	}
	got := params.CanonicalQueryString()
	want := "key=a%2Fb"
	if got != want {
		t.Errorf("CanonicalQueryString() = %q, want %q", got, want)
	}
}

func TestExcludeKey(t *testing.T) {
	params, _ := canon.ParseQuery("a=1&X-Amz-Signature=abc&b=2")
	excluded := params.ExcludeKey("X-Amz-Signature")
	if len(excluded) != 2 {
		t.Fatalf("ExcludeKey left %d params, want 2: %+v", len(excluded), excluded)
	}
}

func TestCollapseHeaderValue(t *testing.T) {
	got := canon.CollapseHeaderValue("  a   b  c  ")
	want := "a b c"
	if got != want {
		t.Errorf("CollapseHeaderValue() = %q, want %q", got, want)
	}
}

func TestCanonicalHeaders(t *testing.T) {
	h := canon.HeaderSet{
		"host":        [][]byte{[]byte("example.com")},
		"x-amz-date":  [][]byte{[]byte("20150830T123600Z")},
		"x-multi":     [][]byte{[]byte(" a "), []byte("b  c")},
	}
	got := canon.CanonicalHeaders(h, []string{"host", "x-amz-date", "x-multi"})
	want := "host:example.com\nx-amz-date:20150830T123600Z\nx-multi:a,b c\n"
	if got != want {
		t.Errorf("CanonicalHeaders() = %q, want %q", got, want)
	}
}

func TestMergeFormBody(t *testing.T) {
	params, err := canon.ParseQuery("")
	if err != nil {
		t.Fatalf("ParseQuery error: %v", err)
	}
	merged, err := canon.MergeFormBody(params, "Param1=value1&Param2=value2", "")
	if err != nil {
		t.Fatalf("MergeFormBody error: %v", err)
	}
	got := merged.CanonicalQueryString()
	want := "Param1=value1&Param2=value2"
	if got != want {
		t.Errorf("CanonicalQueryString() = %q, want %q", got, want)
	}
}

func TestMergeFormBodyRejectsUnsupportedCharset(t *testing.T) {
	_, err := canon.MergeFormBody(nil, "a=1", "iso-8859-1")
	if err == nil {
		t.Fatal("MergeFormBody with unsupported charset: want error, got nil")
	}
}

func TestSignedHeaders(t *testing.T) {
	got := canon.SignedHeaders([]string{"X-Amz-Date", "Host", "Content-Type"})
	want := "content-type;host;x-amz-date"
	if got != want {
		t.Errorf("SignedHeaders() = %q, want %q", got, want)
	}
}
