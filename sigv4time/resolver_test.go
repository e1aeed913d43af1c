package sigv4time_test

import (
	"testing"
	"time"

	"github.com/dioad/sigv4/sigv4err"
	"github.com/dioad/sigv4/sigv4time"
)

func TestResolveQueryParamWins(t *testing.T) {
	l := sigv4time.Lookup{
		QueryParam:    "20150830T123600Z",
		AmzDateHeader: "20150101T000000Z",
	}
	tm, src, err := sigv4time.Resolve(l)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if src != sigv4time.SourceQueryParam {
		t.Errorf("source = %v, want SourceQueryParam", src)
	}
	want := time.Date(2015, 8, 30, 12, 36, 0, 0, time.UTC)
	if !tm.Equal(want) {
		t.Errorf("time = %v, want %v", tm, want)
	}
}

func TestResolveFallsBackThroughSources(t *testing.T) {
	l := sigv4time.Lookup{DateHeader: "Sun, 30 Aug 2015 12:36:00 +0000"}
	tm, src, err := sigv4time.Resolve(l)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if src != sigv4time.SourceDateHeader {
		t.Errorf("source = %v, want SourceDateHeader", src)
	}
	if tm.IsZero() {
		t.Errorf("time is zero")
	}
}

func TestResolveMissingIsUniformError(t *testing.T) {
	_, _, err := sigv4time.Resolve(sigv4time.Lookup{})
	e, ok := sigv4err.As(err)
	if !ok {
		t.Fatalf("error is not a *sigv4err.Error: %v", err)
	}
	if e.Kind != sigv4err.MissingParameter {
		t.Errorf("kind = %v, want MissingParameter", e.Kind)
	}
	if e.Detail != "X-Amz-Date" {
		t.Errorf("detail = %q, want X-Amz-Date", e.Detail)
	}
}

func TestCheckSkewSymmetric(t *testing.T) {
	now := time.Date(2015, 8, 30, 12, 36, 0, 0, time.UTC)
	tests := []struct {
		name    string
		request time.Time
		wantErr bool
	}{
		{"past within skew", now.Add(-10 * time.Minute), false},
		{"future within skew", now.Add(10 * time.Minute), false},
		{"past outside skew", now.Add(-20 * time.Minute), true},
		{"future outside skew", now.Add(20 * time.Minute), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sigv4time.CheckSkew(now, tt.request, 15*time.Minute)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckSkew() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
