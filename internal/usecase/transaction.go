package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Transaction runs a sequence of writes across stores that share no
// transaction, compensating the completed steps in reverse when one fails.
type Transaction struct {
	operations    []Operation
	compensations []Compensation
	logger        zerolog.Logger
}

type Operation struct {
	Name string
	Fn   func(context.Context) error
}

type Compensation struct {
	Name string
	Fn   func(context.Context) error
}

func NewTransaction(logger zerolog.Logger) *Transaction {
	return &Transaction{
		operations:    []Operation{},
		compensations: []Compensation{},
		logger:        logger,
	}
}

// AddStep registers an operation together with the compensation that undoes it.
func (t *Transaction) AddStep(name string, fn func(context.Context) error, undo func(context.Context) error) {
	t.operations = append(t.operations, Operation{name, fn})
	t.compensations = append(t.compensations, Compensation{"undo_" + name, undo})
}

func (t *Transaction) Execute(ctx context.Context) error {
	for i, op := range t.operations {
		if err := op.Fn(ctx); err != nil {
			t.rollback(ctx, i)
			return fmt.Errorf("operation '%s' failed: %w (rolled back %d operations)", op.Name, err, i)
		}
	}
	return nil
}

func (t *Transaction) rollback(ctx context.Context, failedAtIndex int) {
	for i := failedAtIndex - 1; i >= 0; i-- {
		comp := t.compensations[i]
		if comp.Fn == nil {
			continue
		}
		if err := comp.Fn(ctx); err != nil {
			t.logger.Warn().Err(err).Str("compensation", comp.Name).Msg("compensation failed, records may be inconsistent")
		}
	}
}
