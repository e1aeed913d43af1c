package sigv4_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dioad/sigv4/canon"
	"github.com/dioad/sigv4/sigv4"
	"github.com/dioad/sigv4/sigv4err"
)

const (
	testAccessKey = "AKIDEXAMPLE"
	testSecretKey = "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY"
	testRegion    = "us-east-1"
	testService   = "service"
)

func vanillaRequest() *sigv4.Request {
	return &sigv4.Request{
		Method:   "GET",
		Path:     "/",
		RawQuery: "",
		Headers: canon.HeaderSet{
			"host":       [][]byte{[]byte("example.amazonaws.com")},
			"x-amz-date": [][]byte{[]byte("20150830T123600Z")},
		},
	}
}

func TestCanonicalRequestMatchesKnownVector(t *testing.T) {
	e := sigv4.NewEngine(sigv4.Config{})
	r := vanillaRequest()

	got, err := e.CanonicalRequest(r, nil, []string{"host", "x-amz-date"}, sigv4.EmptyBodySHA256)
	if err != nil {
		t.Fatalf("CanonicalRequest error: %v", err)
	}

	want := "GET\n/\n\nhost:example.amazonaws.com\nx-amz-date:20150830T123600Z\n\nhost;x-amz-date\n" + sigv4.EmptyBodySHA256
	if got != want {
		t.Errorf("CanonicalRequest =\n%q\nwant\n%q", got, want)
	}

	// Pin the whole pipeline against the published aws-sig-v4-test-suite
	// "get-vanilla" vector, so a wrong EmptyBodySHA256 (or any other
	// canonicalization bug) can't pass just because the signer and
	// verifier in this test file agree with each other.
	requestDate := time.Date(2015, 8, 30, 12, 36, 0, 0, time.UTC)
	stringToSign := sigv4.StringToSign(requestDate, testRegion, testService, got)
	key := sigv4.DeriveSigningKey(testSecretKey, requestDate, testRegion, testService)
	signature := sigv4.ExpectedSignature(key, stringToSign)

	const wantSignature = "5fa00fa31553b73ebf1942676e86291e8372ff2a2260956d9b8aae1d763fbf31"
	if signature != wantSignature {
		t.Errorf("signature = %s, want %s (published get-vanilla vector)", signature, wantSignature)
	}
}

func resolverFor(date time.Time) sigv4.CredentialResolver {
	return sigv4.CredentialResolverFunc(func(_ context.Context, req sigv4.CredentialRequest) (sigv4.Credential, error) {
		if req.AccessKeyID != testAccessKey {
			return sigv4.Credential{}, sigv4err.New(sigv4err.UnknownAccessKey, "no such access key")
		}
		return sigv4.Credential{
			Principal:  sigv4.Principal{AccessKeyID: req.AccessKeyID},
			SigningKey: sigv4.DeriveSigningKey(testSecretKey, req.Date, req.Region, req.Service),
		}, nil
	})
}

// sign builds a valid Authorization header for r as of requestDate, using
// the engine's own canonicalization and signing helpers so verification
// tests are self-consistent rather than depending on a hand-copied
// signature constant.
func sign(t *testing.T, e *sigv4.Engine, r *sigv4.Request, requestDate time.Time, signedHeaders []string) string {
	t.Helper()
	queryParams, err := canon.ParseQuery(r.RawQuery)
	if err != nil {
		t.Fatalf("ParseQuery error: %v", err)
	}
	bodyDigest := sigv4.EmptyBodySHA256
	if strings.EqualFold(r.ContentType, "application/x-www-form-urlencoded") {
		queryParams, err = canon.MergeFormBody(queryParams, string(r.Body), r.Charset)
		if err != nil {
			t.Fatalf("MergeFormBody error: %v", err)
		}
	}
	canonicalRequest, err := e.CanonicalRequest(r, queryParams, signedHeaders, bodyDigest)
	if err != nil {
		t.Fatalf("CanonicalRequest error: %v", err)
	}
	stringToSign := sigv4.StringToSign(requestDate, testRegion, testService, canonicalRequest)
	key := sigv4.DeriveSigningKey(testSecretKey, requestDate, testRegion, testService)
	signature := sigv4.ExpectedSignature(key, stringToSign)

	return sigv4.AuthScheme + " Credential=" + testAccessKey + "/" + sigv4.CredentialScope(requestDate, testRegion, testService) +
		", SignedHeaders=" + canon.SignedHeaders(signedHeaders) + ", Signature=" + signature
}

func TestVerifyVanillaRequest(t *testing.T) {
	requestDate := time.Date(2015, 8, 30, 12, 36, 0, 0, time.UTC)
	e := sigv4.NewEngine(sigv4.Config{Skew: time.Hour})
	r := vanillaRequest()
	r.Headers["authorization"] = [][]byte{[]byte(sign(t, e, r, requestDate, []string{"host", "x-amz-date"}))}

	_, _, err := e.Verify(context.Background(), r, resolverFor(requestDate), requestDate)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
}

func TestVerifyDetectsTamperedQuery(t *testing.T) {
	requestDate := time.Date(2015, 8, 30, 12, 36, 0, 0, time.UTC)
	e := sigv4.NewEngine(sigv4.Config{Skew: time.Hour})
	r := vanillaRequest()
	r.Headers["authorization"] = [][]byte{[]byte(sign(t, e, r, requestDate, []string{"host", "x-amz-date"}))}

	// Tamper with the request after signing: invariant 8.
	r.RawQuery = "Param1=value1"

	_, _, err := e.Verify(context.Background(), r, resolverFor(requestDate), requestDate)
	e2, ok := sigv4err.As(err)
	if !ok || e2.Kind != sigv4err.InvalidSignature {
		t.Fatalf("Verify() error = %v, want InvalidSignature", err)
	}
}

func TestVerifyPresignedExcludesSignatureFromCanonicalQuery(t *testing.T) {
	requestDate := time.Date(2015, 8, 30, 12, 36, 0, 0, time.UTC)
	e := sigv4.NewEngine(sigv4.Config{Skew: time.Hour})

	r := &sigv4.Request{
		Method: "GET",
		Path:   "/",
		Headers: canon.HeaderSet{
			"host": [][]byte{[]byte("example.amazonaws.com")},
		},
	}
	signedHeaders := []string{"host"}

	// Sign over every presigned parameter except X-Amz-Signature itself.
	unsignedQuery := "X-Amz-Algorithm=AWS4-HMAC-SHA256" +
		"&X-Amz-Credential=" + testAccessKey + "%2F" + sigv4.CredentialScope(requestDate, testRegion, testService) +
		"&X-Amz-Date=20150830T123600Z" +
		"&X-Amz-SignedHeaders=host"
	queryParams, _ := canon.ParseQuery(unsignedQuery)
	canonicalRequest, err := e.CanonicalRequest(r, queryParams, signedHeaders, sigv4.EmptyBodySHA256)
	if err != nil {
		t.Fatalf("CanonicalRequest error: %v", err)
	}
	stringToSign := sigv4.StringToSign(requestDate, testRegion, testService, canonicalRequest)
	key := sigv4.DeriveSigningKey(testSecretKey, requestDate, testRegion, testService)
	signature := sigv4.ExpectedSignature(key, stringToSign)

	r.RawQuery = unsignedQuery + "&X-Amz-Signature=" + signature

	_, _, err = e.Verify(context.Background(), r, resolverFor(requestDate), requestDate)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
}

func TestVerifyFormEncodedBodyMergesIntoQuery(t *testing.T) {
	requestDate := time.Date(2015, 8, 30, 12, 36, 0, 0, time.UTC)
	e := sigv4.NewEngine(sigv4.Config{Skew: time.Hour})
	r := &sigv4.Request{
		Method:      "POST",
		Path:        "/",
		Headers:     canon.HeaderSet{"host": [][]byte{[]byte("example.amazonaws.com")}, "x-amz-date": [][]byte{[]byte("20150830T123600Z")}},
		Body:        []byte("Param1=value1&Param2=value2"),
		ContentType: "application/x-www-form-urlencoded",
	}
	r.Headers["authorization"] = [][]byte{[]byte(sign(t, e, r, requestDate, []string{"host", "x-amz-date"}))}

	_, _, err := e.Verify(context.Background(), r, resolverFor(requestDate), requestDate)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
}

func TestVerifyTimestampSkew(t *testing.T) {
	requestDate := time.Date(2015, 8, 30, 12, 10, 0, 0, time.UTC)
	e := sigv4.NewEngine(sigv4.Config{Skew: 15 * time.Minute})
	r := vanillaRequest()
	r.Headers["x-amz-date"] = [][]byte{[]byte("20150830T121000Z")}
	r.Headers["authorization"] = [][]byte{[]byte(sign(t, e, r, requestDate, []string{"host", "x-amz-date"}))}

	// 20150830T124000Z is 30 minutes after the request: outside a 15-minute skew.
	_, _, err := e.Verify(context.Background(), r, resolverFor(requestDate), time.Date(2015, 8, 30, 12, 40, 0, 0, time.UTC))
	if e2, ok := sigv4err.As(err); !ok || e2.Kind != sigv4err.TimestampOutOfRange {
		t.Fatalf("Verify() error = %v, want TimestampOutOfRange", err)
	}

	// 20150830T122000Z is 10 minutes after the request: within a 15-minute skew, passes.
	_, _, err = e.Verify(context.Background(), r, resolverFor(requestDate), time.Date(2015, 8, 30, 12, 20, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Verify() error = %v, want nil", err)
	}
}

func TestVerifyUnknownAccessKey(t *testing.T) {
	requestDate := time.Date(2015, 8, 30, 12, 36, 0, 0, time.UTC)
	e := sigv4.NewEngine(sigv4.Config{Skew: time.Hour})
	r := vanillaRequest()
	r.Headers["authorization"] = [][]byte{[]byte(
		sigv4.AuthScheme + " Credential=UNKNOWNKEY/" + sigv4.CredentialScope(requestDate, testRegion, testService) +
			", SignedHeaders=host;x-amz-date, Signature=deadbeef",
	)}

	_, _, err := e.Verify(context.Background(), r, resolverFor(requestDate), requestDate)
	if e2, ok := sigv4err.As(err); !ok || e2.Kind != sigv4err.UnknownAccessKey {
		t.Fatalf("Verify() error = %v, want UnknownAccessKey", err)
	}
}
