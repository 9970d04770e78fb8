package session

import (
	"errors"
	"fmt"

	"github.com/manash/genstate/internal/history"
	"github.com/manash/genstate/pkg/models"
)

var (
	ErrSessionNotFound    = fmt.Errorf("session %w", models.ErrNotFound)
	ErrWireframeNotFound  = fmt.Errorf("wireframe %w", models.ErrNotFound)
	ErrNoAsset            = fmt.Errorf("asset session %w", models.ErrNotFound)
	ErrDuplicateComponent = errors.New("component id already exists")
	ErrNoVariants         = errors.New("at least one variant is required")
)

// ErrorType classifies err for metrics.
func ErrorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, models.ErrAmbiguous):
		return "ambiguous"
	case errors.Is(err, models.ErrStorage):
		return "storage"
	case errors.Is(err, models.ErrInvariant):
		return "invariant"
	case errors.Is(err, history.ErrNothingToUndo), errors.Is(err, history.ErrNothingToRedo):
		return "empty_stack"
	default:
		return "invalid"
	}
}
