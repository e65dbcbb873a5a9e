package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hanpama/querycheck/internal/events"
	language "github.com/hanpama/querycheck/internal/language"
	"github.com/hanpama/querycheck/internal/reqid"
	"github.com/hanpama/querycheck/internal/validation"
	"go.uber.org/zap"
)

// Error codes used for failures that are not validation findings.
const (
	CodeParseFailed    = "GRAPHQL_PARSE_FAILED"
	CodeBadRequest     = "BAD_REQUEST"
	CodeRequestAborted = "REQUEST_ABORTED"
	CodeInternal       = "INTERNAL_SERVER_ERROR"
)

// Validator checks one parsed document. *validation.Validator satisfies it.
type Validator interface {
	Validate(doc *language.QueryDocument) validation.List
}

// Handler is an http.Handler that validates GraphQL documents against a
// schema without executing them.
type Handler struct {
	v   Validator
	opt Options
}

type Options struct {
	// Timeout bounds a request whose context has no deadline. 0 disables it.
	Timeout time.Duration

	// Pretty enables indented JSON responses.
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// CORS is disabled while AllowedOrigins is empty.
	CORS CORSOptions

	Logger *zap.Logger

	// Bus receives request and validation events. Nil disables them.
	Bus *events.Bus
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}
func WithLogger(l *zap.Logger) Option   { return func(o *Options) { o.Logger = l } }
func WithEventBus(b *events.Bus) Option { return func(o *Options) { o.Bus = b } }

type CORSOptions struct {
	AllowedOrigins []string
}

func New(v Validator, opts ...Option) (*Handler, error) {
	if v == nil {
		return nil, errors.New("server: validator is required")
	}
	op := Options{Timeout: 10 * time.Second}
	for _, f := range opts {
		f(&op)
	}
	if op.Logger == nil {
		op.Logger = zap.NewNop()
	}
	if op.MaxBodyBytes < 0 {
		return nil, fmt.Errorf("server: max body bytes must not be negative, got %d", op.MaxBodyBytes)
	}
	return &Handler{v: v, opt: op}, nil
}

// Response is the validation verdict for one document.
type Response struct {
	Valid      bool              `json:"valid"`
	Errors     []*language.Error `json:"errors"`
	Extensions map[string]any    `json:"extensions,omitempty"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	rid, ok := reqid.Parse(r.Header.Get(reqid.Header))
	if ok {
		ctx = reqid.WithID(ctx, rid)
	} else {
		ctx, rid = reqid.NewContext(ctx)
	}
	w.Header().Set(reqid.Header, rid.String())
	log := h.opt.Logger.With(zap.Stringer("requestId", rid))

	sw := &statusWriter{ResponseWriter: w}
	start := time.Now()
	documents := 0
	events.Publish(ctx, h.opt.Bus, events.HTTPStart{Request: r, RequestID: rid.String()})
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("recovered panic while serving request",
				zap.Any("panic", rec), zap.String("method", r.Method), zap.Stack("stack"))
			if !sw.wrote {
				h.writeJSON(sw, log, http.StatusInternalServerError, failure("internal server error", CodeInternal))
			}
		}
		events.Publish(ctx, h.opt.Bus, events.HTTPFinish{
			Request:   r,
			RequestID: rid.String(),
			Status:    sw.status(),
			Documents: documents,
			Duration:  time.Since(start),
		})
		log.Debug("served request",
			zap.String("method", r.Method),
			zap.Int("status", sw.status()),
			zap.Int("documents", documents),
			zap.Duration("elapsed", time.Since(start)))
	}()

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(sw, r, h.opt.CORS)
	}
	if r.Method == http.MethodOptions {
		sw.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		sw.Header().Set("Allow", "GET, POST, OPTIONS")
		h.writeJSON(sw, log, http.StatusMethodNotAllowed, failure("method not allowed", CodeBadRequest))
		return
	}

	reqs, batch, status, err := h.parseRequest(r)
	if err != nil {
		log.Debug("rejected request", zap.Int("status", status), zap.Error(err))
		h.writeJSON(sw, log, status, failure(err.Error(), CodeBadRequest))
		return
	}
	documents = len(reqs)

	status = http.StatusOK
	results := make([]Response, len(reqs))
	for i, req := range reqs {
		results[i] = h.checkOne(ctx, req)
		if ctx.Err() != nil {
			status = http.StatusServiceUnavailable
		}
	}
	if batch {
		h.writeJSON(sw, log, status, results)
		return
	}
	h.writeJSON(sw, log, status, results[0])
}

func (h *Handler) checkOne(ctx context.Context, req Request) Response {
	hash := language.SourceHash(req.Query)
	res := Response{Errors: []*language.Error{}, Extensions: map[string]any{"documentHash": hash}}
	if err := ctx.Err(); err != nil {
		res.Errors = append(res.Errors, withCode(&language.Error{Message: err.Error()}, CodeRequestAborted))
		return res
	}

	start := time.Now()
	finish := events.ValidationFinish{DocumentHash: hash, OperationName: req.OperationName}
	events.Publish(ctx, h.opt.Bus, events.ValidationStart{DocumentHash: hash, OperationName: req.OperationName})
	defer func() {
		finish.Duration = time.Since(start)
		events.Publish(ctx, h.opt.Bus, finish)
	}()

	doc, err := language.ParseQuery(req.Query)
	if err != nil {
		finish.ParseFailed = true
		res.Errors = append(res.Errors, parseFailure(err))
		return res
	}
	errs := h.v.Validate(doc)
	for _, e := range errs {
		if e.Code() == validation.CodeFieldConflict {
			finish.Conflicts++
		}
	}
	finish.Errors = len(errs)
	res.Valid = len(errs) == 0
	res.Errors = append(res.Errors, errs.GQLErrors()...)
	return res
}

func parseFailure(err error) *language.Error {
	var ge *language.Error
	if errors.As(err, &ge) {
		out := *ge
		out.Extensions = map[string]any{}
		for k, v := range ge.Extensions {
			out.Extensions[k] = v
		}
		return withCode(&out, CodeParseFailed)
	}
	return withCode(&language.Error{Message: err.Error()}, CodeParseFailed)
}

func withCode(e *language.Error, code string) *language.Error {
	if e.Extensions == nil {
		e.Extensions = map[string]any{}
	}
	e.Extensions["code"] = code
	return e
}

func failure(message, code string) Response {
	return Response{Errors: []*language.Error{withCode(&language.Error{Message: message}, code)}}
}

// ------------------ Request parsing ------------------

const errBodyTooLargeMessage = "body too large"

func (h *Handler) parseRequest(r *http.Request) ([]Request, bool, int, error) {
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		if q.Get("query") == "" {
			return nil, false, http.StatusBadRequest, errors.New("missing 'query'")
		}
		vars, err := decodeVariables(q.Get("variables"))
		if err != nil {
			return nil, false, http.StatusBadRequest, err
		}
		return []Request{{Query: q.Get("query"), OperationName: q.Get("operationName"), Variables: vars}}, false, 0, nil
	}

	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" && !strings.HasPrefix(ct, "application/json;") {
		return nil, false, http.StatusUnsupportedMediaType, errors.New("unsupported Content-Type")
	}
	defer r.Body.Close()
	reader := io.Reader(r.Body)
	limit := h.opt.MaxBodyBytes
	if limit > 0 {
		reader = io.LimitReader(r.Body, limit+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, false, http.StatusBadRequest, errors.New("failed to read body")
	}
	if limit > 0 && int64(len(body)) > limit {
		return nil, false, http.StatusRequestEntityTooLarge, errors.New(errBodyTooLargeMessage)
	}
	reqs, batch, err := DecodeRequests(body)
	if err != nil {
		return nil, false, http.StatusBadRequest, err
	}
	return reqs, batch, 0, nil
}

// ------------------ Response writing ------------------

func (h *Handler) writeJSON(w http.ResponseWriter, log *zap.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if h.opt.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		log.Error("failed to write response", zap.Int("status", status), zap.Error(err))
	}
}

// statusWriter remembers the status code sent to the client.
type statusWriter struct {
	http.ResponseWriter
	code  int
	wrote bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wrote {
		w.code = code
		w.wrote = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) status() int {
	if !w.wrote {
		return http.StatusOK
	}
	return w.code
}

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	wildcard := contains(opts.AllowedOrigins, "*")
	if !wildcard && !contains(opts.AllowedOrigins, origin) {
		return
	}
	if wildcard {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	}
	w.Header().Set("Access-Control-Expose-Headers", reqid.Header)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
