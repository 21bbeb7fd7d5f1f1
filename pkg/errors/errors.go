package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeInvalidRequest represents caller input errors (empty query, unknown store)
	ErrorTypeInvalidRequest ErrorType = "invalid_request"
	// ErrorTypeMisconfigured represents missing server-side configuration
	ErrorTypeMisconfigured ErrorType = "misconfigured"
	// ErrorTypeUpstream represents non-2xx answers from the scraping provider
	ErrorTypeUpstream ErrorType = "upstream"
	// ErrorTypeNetwork represents transport-level failures
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypePersistence represents product or log write failures
	ErrorTypePersistence ErrorType = "persistence"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
)

// MaxExcerptLength bounds the upstream body kept on an UpstreamError.
const MaxExcerptLength = 500

// PipelineError is the error type shared by every stage of the scrape pipeline
type PipelineError struct {
	Type    ErrorType
	Source  string
	Message string
	Status  int
	Excerpt string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type, e.Message)
	if e.Source != "" {
		msg = fmt.Sprintf("[%s] %s: %s", e.Type, e.Source, e.Message)
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s - %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// New creates a new PipelineError
func New(errType ErrorType, source, message string, err error) *PipelineError {
	return &PipelineError{
		Type:    errType,
		Source:  source,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewInvalidRequest creates a new caller input error
func NewInvalidRequest(message string) *PipelineError {
	return New(ErrorTypeInvalidRequest, "", message, nil)
}

// NewMisconfigured creates a configuration error naming the variables that
// were checked. Values are never included.
func NewMisconfigured(message string, checked []string) *PipelineError {
	if len(checked) > 0 {
		message = fmt.Sprintf("%s (checked %s)", message, strings.Join(checked, ", "))
	}
	return New(ErrorTypeMisconfigured, "", message, nil)
}

// NewUpstream creates an upstream error carrying the status and a truncated
// body excerpt
func NewUpstream(source string, status int, body string) *PipelineError {
	e := New(ErrorTypeUpstream, source, "scraping provider returned an error", nil)
	e.Status = status
	e.Excerpt = Truncate(body, MaxExcerptLength)
	return e
}

// NewNetwork creates a new network error
func NewNetwork(source, message string, err error) *PipelineError {
	return New(ErrorTypeNetwork, source, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(source, message string, err error) *PipelineError {
	return New(ErrorTypeParsing, source, message, err)
}

// NewPersistence creates a new persistence error
func NewPersistence(source, message string, err error) *PipelineError {
	return New(ErrorTypePersistence, source, message, err)
}

// NewCache creates a new cache error
func NewCache(source, message string, err error) *PipelineError {
	return New(ErrorTypeCache, source, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(source, message string, err error) *PipelineError {
	return New(ErrorTypePublisher, source, message, err)
}

// TypeOf returns the ErrorType of err, or "" when err is not a PipelineError
func TypeOf(err error) ErrorType {
	var pe *PipelineError
	if stderrors.As(err, &pe) {
		return pe.Type
	}
	return ""
}

// IsType reports whether err is a PipelineError of the given type
func IsType(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

// HTTPStatus maps an error onto the status code returned to API callers
func HTTPStatus(err error) int {
	if IsType(err, ErrorTypeInvalidRequest) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Truncate cuts s to at most n runes
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
