package verifier

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dioad/sigv4/canon"
	"github.com/dioad/sigv4/sigv4"
	"github.com/dioad/sigv4/sigv4err"
)

// ErrorMapper translates a verification failure into an HTTP response. The
// default, DefaultErrorMapper, writes the AWS XML error shape; JSONErrorMapper
// is provided for non-AWS-style consumers.
type ErrorMapper func(w http.ResponseWriter, r *http.Request, err error)

// Handler implements AWS SigV4 authentication for HTTP requests, the way
// http/auth/awssigv4.Handler and http/auth/hmac.Handler do it, but performs
// the actual cryptographic verification instead of delegating it to a
// remote STS call.
type Handler struct {
	cfg         ServerConfig
	engine      *sigv4.Engine
	resolver    sigv4.CredentialResolver
	errorMapper ErrorMapper
	logger      zerolog.Logger
	metrics     *Metrics
	now         func() time.Time
}

// NewHandler builds a Handler verifying requests against resolver.
func NewHandler(cfg ServerConfig, resolver sigv4.CredentialResolver, opts ...Option) *Handler {
	if cfg.MaxTimestampDiff == 0 {
		cfg.MaxTimestampDiff = defaultMaxTimestampDiff
	}

	h := &Handler{
		cfg:         cfg,
		engine:      sigv4.NewEngine(sigv4.Config{Skew: cfg.MaxTimestampDiff}),
		resolver:    resolver,
		errorMapper: DefaultErrorMapper,
		logger:      zerolog.Nop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Option configures optional Handler behavior.
type Option func(*Handler)

// WithLogger attaches a request-scoped logger, in the style the teacher's
// own middleware carries an hlog-style child logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// WithMetrics attaches m, a Metrics built with NewMetrics, so every
// verification outcome is counted.
func WithMetrics(m *Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithErrorMapper overrides the default AWS XML error mapper.
func WithErrorMapper(mapper ErrorMapper) Option {
	return func(h *Handler) { h.errorMapper = mapper }
}

// AuthRequest authenticates r and returns a context carrying the resolved
// Principal and SessionData on success.
func (h *Handler) AuthRequest(r *http.Request) (context.Context, error) {
	sigReq, err := h.adapt(r)
	if err != nil {
		return r.Context(), err
	}

	principal, sessionData, err := h.engine.Verify(r.Context(), sigReq, h.resolver, h.now())
	if err != nil {
		return r.Context(), err
	}

	if h.cfg.Region != "" && principal.Primary().Region != "" && principal.Primary().Region != h.cfg.Region {
		return r.Context(), sigv4err.New(sigv4err.InvalidCredential, "region does not match this endpoint")
	}

	ctx := newContextWithPrincipal(r.Context(), principal)
	ctx = newContextWithSessionData(ctx, sessionData)
	return ctx, nil
}

// adapt buffers r's body, which the canonical request needs either as its
// SHA-256 payload hash or, for application/x-www-form-urlencoded content,
// as signable parameters, and restores it for the downstream handler.
func (h *Handler) adapt(r *http.Request) (*sigv4.Request, error) {
	contentType, charset := splitContentType(r.Header.Get("Content-Type"))

	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			return nil, sigv4err.Wrap(sigv4err.IO, err)
		}
		r.Body = io.NopCloser(strings.NewReader(string(body)))
	}

	headers := make(canon.HeaderSet, len(r.Header)+1)
	for name, values := range r.Header {
		lname := strings.ToLower(name)
		for _, v := range values {
			headers[lname] = append(headers[lname], []byte(v))
		}
	}
	if _, ok := headers["host"]; !ok && r.Host != "" {
		headers["host"] = [][]byte{[]byte(r.Host)}
	}

	return &sigv4.Request{
		Method:      r.Method,
		Path:        r.URL.EscapedPath(),
		RawQuery:    r.URL.RawQuery,
		Headers:     headers,
		Body:        body,
		ContentType: contentType,
		Charset:     charset,
	}, nil
}

func splitContentType(header string) (contentType, charset string) {
	parts := strings.Split(header, ";")
	contentType = strings.TrimSpace(parts[0])
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		if name, value, ok := strings.Cut(p, "="); ok && strings.EqualFold(name, "charset") {
			charset = strings.Trim(value, `"`)
		}
	}
	return contentType, charset
}

// Wrap wraps handler with SigV4 authentication, matching the teacher's own
// Handler.Wrap shape.
func (h *Handler) Wrap(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := h.AuthRequest(r)
		if err != nil {
			if h.metrics != nil {
				h.metrics.observeFailure(err)
			}
			h.logger.Warn().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("sigv4 verification failed")
			h.errorMapper(w, r, err)
			return
		}
		if h.metrics != nil {
			h.metrics.observeSuccess()
		}
		handler.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DefaultErrorMapper writes the AWS XML error shape described by the error
// taxonomy's stable <Code> mapping.
func DefaultErrorMapper(w http.ResponseWriter, r *http.Request, err error) {
	sigv4err.WriteXML(w, err, "")
}

// JSONErrorMapper writes a minimal JSON error body, for callers that do not
// want the AWS XML shape.
func JSONErrorMapper(w http.ResponseWriter, r *http.Request, err error) {
	e, _ := sigv4err.As(err)
	status := http.StatusForbidden
	if e != nil && e.Kind.Type() == sigv4err.Receiver {
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if e != nil {
		_, _ = w.Write([]byte(`{"code":"` + e.Code() + `","message":"` + e.Detail + `"}`))
		return
	}
	_, _ = w.Write([]byte(`{"code":"InternalFailure","message":"internal error"}`))
}
