package repair

import (
	"errors"
	"fmt"
)

var (
	// ErrUnrecoverable is matched by every *SyntaxUnrecoverableError.
	ErrUnrecoverable = errors.New("expression could not be repaired")
	// ErrSyntax marks a validator rejection. Validators wrap it.
	ErrSyntax = errors.New("syntax error")
	// ErrNilValidator is returned when Config.Validator is missing.
	ErrNilValidator = errors.New("repair: validator is nil")
	// ErrInvalidDepth is returned for negative or inverted depth bounds.
	ErrInvalidDepth = errors.New("repair: invalid depth bounds")
)

// SyntaxUnrecoverableError reports that no candidate within MaxDepth
// insertions was both balanced and accepted by the validator.
type SyntaxUnrecoverableError struct {
	Input    string // original, unmodified expression
	MaxDepth int
}

func (e *SyntaxUnrecoverableError) Error() string {
	return fmt.Sprintf("could not fix `%s` within %d insertion(s)", e.Input, e.MaxDepth)
}

func (e *SyntaxUnrecoverableError) Is(target error) bool {
	return target == ErrUnrecoverable
}

// Rejectf builds a validator rejection that wraps ErrSyntax.
func Rejectf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSyntax, fmt.Sprintf(format, args...))
}
