package typhoon

import (
	"errors"
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
)

var (
	// ErrInvalidTag is returned by hosts for tags they cannot create
	ErrInvalidTag = errors.New("invalid tag")
	// ErrInvalidAttribute is returned by hosts for attribute names they refuse
	ErrInvalidAttribute = errors.New("invalid attribute name")
	// ErrVoidElement is returned when a child is appended to a void element
	ErrVoidElement = errors.New("void element cannot have children")
	// ErrNilNode is returned when an embedded expression yields no node
	ErrNilNode = errors.New("nil node")
)

// CompileError reports a malformed template. It is only produced while a
// template is being compiled.
type CompileError struct {
	Pos lexer.Position
	Msg string
}

func (e *CompileError) Error() string {
	if e.Pos.Line == 0 {
		return "compile error: " + e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// ConstructionError reports a primitive call refused by the host.
type ConstructionError struct {
	// Op is one of "create", "attribute", "append", "embed", "listen", "eval"
	// or "mount"
	Op string
	// Target is the tag or attribute name involved
	Target string
	Err    error
}

func (e *ConstructionError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("construction %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("construction %s %q: %v", e.Op, e.Target, e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

// SerializationError reports a failed encode, decode or storage round trip
// of a persisted value.
type SerializationError struct {
	Key string
	// Op is "decode", "encode", "load" or "store"
	Op  string
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}
