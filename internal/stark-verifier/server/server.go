// Package server exposes the verification boundary over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/variant"
	starkverifier "github.com/vybium/vybium-stark-verifier/pkg/stark-verifier"
)

// DefaultMaxBodyBytes bounds request bodies unless configured otherwise.
const DefaultMaxBodyBytes = 96 << 20

// BundleVerifier is the part of the verifier the host needs.
type BundleVerifier interface {
	Verify(tag string, proofBytes, vkBytes []byte) (bool, error)
}

// VerifyRequest is the body of POST /v1/verify/{variant}. Byte fields are
// base64 encoded.
type VerifyRequest struct {
	Proof        []byte `json:"proof"`
	VerifyingKey []byte `json:"verifying_key"`
}

// VerifyResponse is returned for proofs that were checked.
type VerifyResponse struct {
	RequestID string `json:"request_id"`
	Variant   string `json:"variant"`
	Valid     bool   `json:"valid"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	RequestID string `json:"request_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

type options struct {
	maxBodyBytes   int64
	metricsHandler http.Handler
}

// Option configures the host.
type Option func(*options)

// WithMaxBodyBytes limits request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(o *options) { o.maxBodyBytes = n }
}

// WithMetricsHandler serves h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(o *options) { o.metricsHandler = h }
}

type handler struct {
	verifier     BundleVerifier
	log          zerolog.Logger
	maxBodyBytes int64
}

// New returns the HTTP handler of the verification host.
func New(v BundleVerifier, log zerolog.Logger, opts ...Option) http.Handler {
	o := options{maxBodyBytes: DefaultMaxBodyBytes}
	for _, opt := range opts {
		opt(&o)
	}

	h := &handler{
		verifier:     v,
		log:          log.With().Str("component", "server").Logger(),
		maxBodyBytes: o.maxBodyBytes,
	}

	router := mux.NewRouter().StrictSlash(true)
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(h.log))

	router.Methods(http.MethodGet).Path("/healthz").Name("Health").HandlerFunc(h.health)
	if o.metricsHandler != nil {
		router.Methods(http.MethodGet).Path("/metrics").Name("Metrics").Handler(o.metricsHandler)
	}

	v1 := router.PathPrefix("/v1").Subrouter()
	v1.Methods(http.MethodGet).Path("/variants").Name("Variants").HandlerFunc(h.variants)
	v1.Methods(http.MethodPost).Path("/verify/{variant}").Name("Verify").HandlerFunc(h.verify)

	return router
}

// NewServer wraps the handler in an http.Server listening on addr.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		IdleTimeout:  2 * time.Minute,
	}
}

func (h *handler) health(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) variants(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"variants": variant.Tags()})
}

func (h *handler) verify(w http.ResponseWriter, req *http.Request) {
	id := requestID(req.Context())
	tag := mux.Vars(req)["variant"]

	var body VerifyRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, h.maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, id, http.StatusRequestEntityTooLarge, "request_too_large", err)
			return
		}
		h.fail(w, id, http.StatusBadRequest, "invalid_request", err)
		return
	}

	valid, err := h.verifier.Verify(tag, body.Proof, body.VerifyingKey)
	if err != nil {
		status, code := statusFor(err)
		h.fail(w, id, status, code, err)
		return
	}

	writeJSON(w, http.StatusOK, VerifyResponse{RequestID: id, Variant: tag, Valid: valid})
}

func (h *handler) fail(w http.ResponseWriter, id string, status int, code string, err error) {
	h.log.Debug().Str("request_id", id).Str("code", code).Err(err).Msg("request failed")
	writeJSON(w, status, ErrorResponse{RequestID: id, Code: code, Message: err.Error()})
}

// statusFor maps verifier errors to HTTP statuses.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, starkverifier.UnsupportedVariant):
		return http.StatusBadRequest, "unsupported_variant"
	case errors.Is(err, starkverifier.DecodeFailure):
		return http.StatusBadRequest, "decode_error"
	case errors.Is(err, starkverifier.AssemblyFailure):
		return http.StatusBadRequest, "assembly_error"
	case errors.Is(err, starkverifier.VerificationFailure):
		return http.StatusUnprocessableEntity, "verification_failure"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
