package llm

import (
	"errors"
	"fmt"
)

// Kind classifies a dispatch failure. Each kind has a fixed text shape so
// callers that only see strings can still tell failures apart by prefix.
type Kind int

const (
	// KindTransport covers SDK and network failures: "<Backend> Error: <msg>".
	KindTransport Kind = iota
	// KindAPI covers raw HTTP failures: "<Backend> API Error: <msg>".
	KindAPI
	// KindResponse covers a reply missing an expected field.
	KindResponse
	// KindNotInstalled means the backend's client library was built out.
	KindNotInstalled
	// KindNotConfigured means no usable API key was resolved.
	KindNotConfigured
	// KindUnsupported means active_model names no known backend.
	KindUnsupported
)

// NotConfiguredMessage is returned verbatim when no API key is available.
const NotConfiguredMessage = "Error: API key not configured. Please set LLM_API_KEY environment variable."

// genericPrefix is used for failures no backend classified.
const genericPrefix = "Error communicating with LLM: "

// Error is a classified dispatch failure.
type Error struct {
	Backend Backend
	Kind    Kind
	// Key is the missing response field for KindResponse.
	Key string
	// Library is the client library for KindNotInstalled.
	Library Library
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNotConfigured:
		return NotConfiguredMessage
	case KindUnsupported:
		return fmt.Sprintf("Error: Unsupported model '%s'", e.Backend)
	case KindNotInstalled:
		return fmt.Sprintf("Error: %s not installed. Run: go build without -tags %s", e.Library.Name, e.Library.ExcludeTag)
	case KindResponse:
		return fmt.Sprintf("%s Response Error: Missing key '%s'", e.Backend.DisplayName(), e.Key)
	case KindAPI:
		return fmt.Sprintf("%s API Error: %s", e.Backend.DisplayName(), e.cause())
	default:
		return fmt.Sprintf("%s Error: %s", e.Backend.DisplayName(), e.cause())
	}
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) cause() string {
	if e.Err == nil {
		return "unknown error"
	}
	return e.Err.Error()
}

// TransportError wraps an SDK or network failure for backend b.
func TransportError(b Backend, err error) error {
	return &Error{Backend: b, Kind: KindTransport, Err: err}
}

// APIError wraps a raw HTTP failure for backend b.
func APIError(b Backend, err error) error {
	return &Error{Backend: b, Kind: KindAPI, Err: err}
}

// MissingKeyError reports that the reply from b had no field named key.
func MissingKeyError(b Backend, key string) error {
	return &Error{Backend: b, Kind: KindResponse, Key: key}
}

// Describe renders any dispatch error as the text returned to callers.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return genericPrefix + err.Error()
}
