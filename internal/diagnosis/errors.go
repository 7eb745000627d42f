package diagnosis

import (
	"errors"
	"fmt"
)

// Kind classifies analysis failures. Every failure the analyzer returns
// carries exactly one Kind so callers can pick the right localized message.
type Kind int

const (
	// KindProviderError is the generic failure: transport problems, 5xx
	// responses, anything without a more specific classification.
	KindProviderError Kind = iota

	// KindInvalidInput means the submitted file is not an image. Rejected
	// before any request is built.
	KindInvalidInput

	// KindMissingCredential means no usable API key could be resolved at
	// call time.
	KindMissingCredential

	// KindEmptyResponse means the provider returned no text.
	KindEmptyResponse

	// KindMalformedJSON means the provider's text was not a bare JSON
	// document.
	KindMalformedJSON

	// KindSchemaMismatch means the JSON parsed but required report fields
	// were absent or of the wrong shape.
	KindSchemaMismatch

	// KindProviderRejected means the provider declined the request:
	// safety filtering, blocked prompt, or a credential without access to
	// the requested model.
	KindProviderRejected

	// KindCaptureDenied means camera permission was refused during intake.
	// Never produced by the analyzer itself; part of the taxonomy so the
	// intake surface shares the same message table.
	KindCaptureDenied
)

var kindNames = map[Kind]string{
	KindProviderError:     "provider_error",
	KindInvalidInput:      "invalid_input",
	KindMissingCredential: "missing_credential",
	KindEmptyResponse:     "empty_response",
	KindMalformedJSON:     "malformed_json",
	KindSchemaMismatch:    "schema_mismatch",
	KindProviderRejected:  "provider_rejected",
	KindCaptureDenied:     "capture_denied",
}

// String returns the stable wire name of the kind, matching the localized
// message table keys.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "provider_error"
}

// Error is a classified analysis failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// newError wraps err with a kind under the analyzer's operation name.
func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Op: "diagnosis.Analyze", Err: err}
}

// KindOf extracts the Kind from err, falling back to the generic kind for
// unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindProviderError
}
