// Package oracle defines the language-model capability used to classify
// support emails and draft replies, together with the timeout and bounded
// retry policy applied around it.
package oracle

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable reports that the oracle could not produce a response: it was
// unreachable, returned a transport error, or exceeded its deadline.
var ErrUnavailable = errors.New("oracle unavailable")

// Oracle turns a prompt into free-form response text. Implementations must
// be safe for concurrent use by independent triage runs.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Func adapts a function to the Oracle interface.
type Func func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

func unavailable(err error) error {
	if errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
