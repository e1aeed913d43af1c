package sigv4err

import (
	"encoding/xml"
	"errors"
	"net/http"
)

// xmlErrorResponse mirrors the wire shape AWS services use for signature
// verification failures.
type xmlErrorResponse struct {
	XMLName   xml.Name `xml:"ErrorResponse"`
	Error     xmlError `xml:"Error"`
	RequestID string   `xml:"RequestId"`
}

type xmlError struct {
	Type    Type   `xml:"Type"`
	Code    string `xml:"Code"`
	Message string `xml:"Message"`
}

// statusForKind maps an error Kind to the HTTP status a caller should send
// alongside the XML body.
func statusForKind(k Kind) int {
	switch k {
	case IO, InternalServiceError:
		return http.StatusInternalServerError
	case UnknownAccessKey, InvalidSignature:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

// WriteXML renders err as the AWS-style XML error response and writes it to
// w with the appropriate status code. If err does not wrap a *Error it is
// treated as InternalServiceError without exposing its message verbatim.
func WriteXML(w http.ResponseWriter, err error, requestID string) {
	var e *Error
	if !errors.As(err, &e) {
		e = New(InternalServiceError, "internal error")
	}

	body := xmlErrorResponse{
		Error: xmlError{
			Type:    e.Kind.Type(),
			Code:    e.Code(),
			Message: e.Detail,
		},
		RequestID: requestID,
	}

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(statusForKind(e.Kind))
	_, _ = w.Write([]byte(xml.Header))
	enc := xml.NewEncoder(w)
	_ = enc.Encode(body)
}
