// Package domain contains the fuzz-plan analysis: type classification, call
// type projection, layout queries and generic constraint solving.
package domain

import (
	"errors"
	"fmt"
)

// ErrContractViolation marks input that breaks the documented type grammar.
// It aborts the current analysis unit and is never absorbed.
var ErrContractViolation = errors.New("contract violation")

func contractViolation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrContractViolation, fmt.Sprintf(format, args...))
}
