package dice

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is against the typed errors below.
var (
	// ErrParse is matched by every *ParseError.
	ErrParse = errors.New("dice: parse error")
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("dice: validation error")
	// ErrArithmetic is matched by every *ArithmeticError.
	ErrArithmetic = errors.New("dice: arithmetic error")
)

// ParseError reports input that does not match the dice grammar.
//
// Offset is the byte offset of the offending token; Line and Column are 1-based.
// Expected describes the tokens the grammar would have accepted, when known.
type ParseError struct {
	Offset   int
	Line     int
	Column   int
	Expected string
	Message  string
}

func (e *ParseError) Error() string {
	if e.Expected != "" {
		return fmt.Sprintf("dice: parse error at %d:%d: %s (expected %s)", e.Line, e.Column, e.Message, e.Expected)
	}
	return fmt.Sprintf("dice: parse error at %d:%d: %s", e.Line, e.Column, e.Message)
}

// Is reports whether target is ErrParse.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// ValidationError reports a grammatically valid expression whose values fall
// outside the supported bounds.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("dice: invalid %s %q: %s", e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("dice: invalid %s: %s", e.Field, e.Message)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ArithmeticError reports a failure while combining values, such as division by zero.
type ArithmeticError struct {
	Op      Operator
	Message string
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("dice: arithmetic error in %q: %s", string(e.Op), e.Message)
}

// Is reports whether target is ErrArithmetic.
func (e *ArithmeticError) Is(target error) bool { return target == ErrArithmetic }

func invalid(field, value, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: fmt.Sprintf(format, args...)}
}
