package bake

import (
	"github.com/pkg/errors"
)

// Kind classifies a pipeline failure so that callers can pick a message.
type Kind int

const (
	// InvalidInput means the primary image is missing or unreadable.
	InvalidInput Kind = iota + 1
	// DecodeError means an override file exists but does not decode.
	DecodeError
	// EncodeError means an output file could not be written.
	EncodeError
	// ComputationError means a map could not be derived.
	ComputationError
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case DecodeError:
		return "decode_error"
	case EncodeError:
		return "encode_error"
	case ComputationError:
		return "computation_error"
	default:
		return "unknown"
	}
}

// Error is returned by Run for any stage failure.
type Error struct {
	Kind  Kind
	Stage Stage
	Path  string
	Err   error
}

func (e *Error) Error() string {
	msg := e.Stage.String() + ": " + e.Kind.String()
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return 0
}

// IsKind reports whether err carries kind k.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}

func stageError(kind Kind, stage Stage, path string, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Path: path, Err: err}
}
