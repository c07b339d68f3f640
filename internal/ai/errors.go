package ai

import (
	"errors"
	"fmt"
)

// ErrEmptyInput signals blank input rejected before any network call.
var ErrEmptyInput = errors.New("input text is empty")

// ProviderError carries an upstream embedding/completion API failure
// verbatim. It is never retried here; callers decide.
type ProviderError struct {
	Op      string // "embedding" or "completion"
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider error: %s", e.Op, e.Message)
}
