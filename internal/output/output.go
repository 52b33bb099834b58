// Package output renders contract evaluations for the command line.
package output

import (
	"context"

	"github.com/crimson-sun/covenant/internal/model"
)

// Output defines the interface for evaluation result destinations.
type Output interface {
	Write(ctx context.Context, ev model.ContractEvaluation) error
	Close() error
}
