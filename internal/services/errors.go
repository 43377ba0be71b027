package services

import (
	"errors"
	"net/http"
)

// ErrorKind classifies a failure anywhere in the calculate pipeline.
type ErrorKind string

const (
	KindInvalidInputShape ErrorKind = "invalid_input_shape"
	KindInvalidImage      ErrorKind = "invalid_image"
	KindUnsupportedFormat ErrorKind = "unsupported_format"
	KindImageTooLarge     ErrorKind = "image_too_large"
	KindUpstreamTransport ErrorKind = "upstream_transport"
	KindUpstreamProtocol  ErrorKind = "upstream_protocol"
	KindMalformedResponse ErrorKind = "malformed_response"
	KindAnalysisFailed    ErrorKind = "analysis_failed"
	KindInternal          ErrorKind = "internal"
)

// AnalysisError carries a kind and a message safe to show to the caller.
type AnalysisError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AnalysisError) Error() string {
	return e.Message
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, message string, err error) *AnalysisError {
	return &AnalysisError{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindInternal for errors outside the taxonomy.
func KindOf(err error) ErrorKind {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// IsKind reports whether err is an AnalysisError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ae *AnalysisError
	return errors.As(err, &ae) && ae.Kind == kind
}

// StatusForKind maps an error kind to the HTTP status returned to the caller.
// Upstream and normalization failures are reported as 400 so the response
// keeps the envelope shape instead of surfacing as a gateway error.
func StatusForKind(kind ErrorKind) int {
	switch kind {
	case KindInvalidInputShape, KindInvalidImage, KindUnsupportedFormat, KindImageTooLarge,
		KindUpstreamTransport, KindUpstreamProtocol, KindMalformedResponse, KindAnalysisFailed:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
