package report

import (
	"errors"
	"fmt"
)

// Error categories. Every failure returned by Render wraps exactly one of these,
// so callers can branch with errors.Is.
var (
	ErrUnknownReportKind   = errors.New("unknown report kind")
	ErrUnknownToken        = errors.New("unknown placeholder")
	ErrMissingContextValue = errors.New("missing context value")
	ErrMissingSectionData  = errors.New("missing section data")
	ErrFragmentLoad        = errors.New("fragment load failure")
)

// RenderError carries the report kind and token that could not be resolved.
type RenderError struct {
	Kind  Kind   // report kind being rendered, empty for standalone lookups
	Token string // placeholder or fragment name
	Err   error  // one of the Err* categories, possibly wrapping a cause
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	switch {
	case e.Kind != "" && e.Token != "":
		return fmt.Sprintf("render %s: {{%s}}: %v", e.Kind, e.Token, e.Err)
	case e.Token != "":
		return fmt.Sprintf("render: {{%s}}: %v", e.Token, e.Err)
	case e.Kind != "":
		return fmt.Sprintf("render %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("render: %v", e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

func newRenderError(kind Kind, token string, err error) *RenderError {
	return &RenderError{Kind: kind, Token: token, Err: err}
}

// withKind stamps kind onto a RenderError raised below the render call.
func withKind(kind Kind, err error) error {
	var re *RenderError
	if errors.As(err, &re) {
		if re.Kind == "" {
			re.Kind = kind
		}
		return re
	}
	return newRenderError(kind, "", err)
}
