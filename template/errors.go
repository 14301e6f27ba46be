package template

import (
	"errors"
	"fmt"
	"strings"
)

// Kind sentinels for errors.Is matching. Every error produced
// by this package unwraps to exactly one of these.
var (
	// ErrMalformedDirective marks an unterminated marker or a
	// directive with an unknown keyword or bad argument shape.
	ErrMalformedDirective = errors.New("malformed directive")

	// ErrUnterminatedConditional marks an if directive with no
	// matching endif before end of input.
	ErrUnterminatedConditional = errors.New("unterminated conditional")

	// ErrUnmatchedDirective marks an elif, else or endif with
	// no open conditional.
	ErrUnmatchedDirective = errors.New("unmatched directive")

	// ErrDuplicateElse marks a second else at the same nesting
	// level.
	ErrDuplicateElse = errors.New("duplicate else")

	// ErrElseIfAfterElse marks an elif appearing after the
	// else branch of the same conditional.
	ErrElseIfAfterElse = errors.New("elif after else")

	// ErrExpressionSyntax marks a malformed predicate payload.
	ErrExpressionSyntax = errors.New("expression syntax error")

	// ErrUnknownFunction marks a call to a function outside
	// the fixed recognized set. Raised during evaluation, not
	// parsing.
	ErrUnknownFunction = errors.New("unknown function")

	// ErrUnknownAttribute marks an attribute path absent from
	// the configuration snapshot. Always a hard error.
	ErrUnknownAttribute = errors.New("unknown attribute")

	// ErrTypeMismatch marks an attribute or argument of the
	// wrong shape (scalar where a set is required, and so on).
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrIO marks a failure reading the template source or
	// writing the rendered output.
	ErrIO = errors.New("i/o error")
)

// Error is the structured error for one failed template
// operation. Kind is one of the package sentinels; Offset,
// Line and Col locate the fault in the template source (zero
// line for I/O errors, which have no source position).
type Error struct {
	Kind   error
	Cause  error
	Detail string
	Offset int
	Line   int
	Col    int
}

func (e *Error) Error() string {
	var sb strings.Builder

	if e.Line > 0 {
		fmt.Fprintf(
			&sb, "%d:%d (offset %d): ",
			e.Line, e.Col, e.Offset,
		)
	}

	sb.WriteString(e.Kind.Error())

	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}

	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}

	return sb.String()
}

// Unwrap exposes both the kind sentinel and the underlying
// cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Cause}
}

// newError builds an Error with line and column derived from
// the byte offset into src.
func newError(
	kind error,
	src string,
	offset int,
	detail string,
) *Error {
	line, col := position(src, offset)

	return &Error{
		Kind:   kind,
		Detail: detail,
		Offset: offset,
		Line:   line,
		Col:    col,
	}
}

// position converts a byte offset into 1-based line and column
// numbers.
func position(src string, offset int) (int, int) {
	if offset > len(src) {
		offset = len(src)
	}

	line := 1 + strings.Count(src[:offset], "\n")

	col := offset + 1
	if idx := strings.LastIndexByte(
		src[:offset], '\n',
	); idx >= 0 {
		col = offset - idx
	}

	return line, col
}
