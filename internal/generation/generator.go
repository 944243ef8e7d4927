package generation

import (
	"context"
	"errors"

	"github.com/phrazzld/arcana/internal/domain"
)

var (
	// ErrInvalidConfig rejects an interpreter built without a key or model.
	ErrInvalidConfig = errors.New("invalid interpreter configuration")

	// ErrGenerationFailed covers permanent model failures such as a rejected
	// request.
	ErrGenerationFailed = errors.New("failed to generate interpretation")

	// ErrTransientFailure marks failures that may succeed on another attempt.
	ErrTransientFailure = errors.New("transient error during interpretation")

	// ErrInvalidResponse means the model answered but the answer could not be
	// turned into an interpretation.
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked means the model's safety filters refused the prompt.
	ErrContentBlocked = errors.New("content blocked by language model safety filters")
)

// Request is the input to an AI interpretation.
type Request struct {
	Domain    domain.Domain
	Question  string
	Selection []domain.SelectedCard
}

// Interpreter authors interpretations with an external language model.
type Interpreter interface {
	// Interpret returns an interpretation of req. Errors wrap the sentinels
	// in this package; ErrTransientFailure marks failures worth retrying.
	Interpret(ctx context.Context, req Request) (domain.Interpretation, error)
}

// InterpreterFunc adapts a function to the Interpreter interface.
type InterpreterFunc func(ctx context.Context, req Request) (domain.Interpretation, error)

// Interpret calls f.
func (f InterpreterFunc) Interpret(ctx context.Context, req Request) (domain.Interpretation, error) {
	return f(ctx, req)
}
