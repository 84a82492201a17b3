package domain

import (
	"errors"
	"fmt"
)

// ErrMissingCredential is returned when the OpenAI API key is absent. It is a
// startup-time fatal condition, never a per-request error.
var ErrMissingCredential = errors.New("OPENAI_API_KEY is not set")

// SchemaError reports a malformed catalog entry or one that references a
// missing image file.
type SchemaError struct {
	Path string
	Line int
	Err  error
}

func (e *SchemaError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("catalog %s line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("catalog %s: %v", e.Path, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// GenerationError reports a failed caption generation: network or API
// failure, a malformed response, or a slot-count mismatch.
type GenerationError struct {
	Template string
	Reason   string
	Err      error
}

func (e *GenerationError) Error() string {
	msg := fmt.Sprintf("caption generation for %q failed: %s", e.Template, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GenerationError) Unwrap() error { return e.Err }

// RenderError reports a failed render: an unreadable template image or an
// encoding failure.
type RenderError struct {
	Template string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render of %q failed: %v", e.Template, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
