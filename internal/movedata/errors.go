package movedata

import "strings"

type staticErr string

func (e staticErr) Error() string { return string(e) }

// Decode failure kinds. A *DecodeError matches exactly one of these with errors.Is.
var (
	ErrMalformedJSON error = staticErr("malformed json")
	ErrBareArray     error = staticErr("bare move array is not a dataset")
	ErrSchema        error = staticErr("dataset schema mismatch")
	ErrInvariant     error = staticErr("dataset invariant violated")
)

// DecodeError reports why a dataset body was rejected.
type DecodeError struct {
	Kind error
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	// jsonschema errors are multi-line; keep the first line for notifications
	msg := e.Err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return e.Kind.Error() + ": " + msg
}

func (e *DecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
