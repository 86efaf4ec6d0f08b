package mjcf

import "fmt"

// ErrKind classifies why a description document could not produce a valid
// module spec.
type ErrKind int

const (
	// MalformedDocument: the document is not decodable MJCF, or declares
	// a convention this loader cannot honor.
	MalformedDocument ErrKind = iota
	// UnknownTopology: the ma/ax/mb bodies could not all be identified.
	UnknownTopology
	// InvalidJointChain: the internal joints do not form the 2-DOF serial
	// chain ma-ax-mb.
	InvalidJointChain
	// FaceCountMismatch: the connector annotations do not yield exactly
	// the four required faces.
	FaceCountMismatch
)

func (k ErrKind) String() string {
	switch k {
	case MalformedDocument:
		return "MalformedDocument"
	case UnknownTopology:
		return "UnknownTopology"
	case InvalidJointChain:
		return "InvalidJointChain"
	case FaceCountMismatch:
		return "FaceCountMismatch"
	default:
		return fmt.Sprintf("ErrKind(%d)", int(k))
	}
}

// ParseError is the fatal result of a failed load. A load either returns a
// fully validated spec or a ParseError; never a partial spec.
type ParseError struct {
	Kind   ErrKind
	Detail string
	Err    error // underlying cause, if any
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseErrorf(kind ErrKind, format string, args ...interface{}) *ParseError {
	return &ParseError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
