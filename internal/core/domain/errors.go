// internal/core/domain/errors.go
package domain

import (
	"fmt"

	"subterra/internal/platform/errors"
)

// Errores de dominio comunes. Todos son variantes de las clases de
// internal/platform/errors y se pueden comparar con errors.Is.
var (
	// Target errors
	ErrEmptyTarget   = fmt.Errorf("%w: target cannot be empty", errors.ErrInvalidTarget)
	ErrInvalidDomain = fmt.Errorf("%w: invalid domain format", errors.ErrInvalidTarget)
	ErrPublicSuffix  = fmt.Errorf("%w: target is a public suffix", errors.ErrInvalidTarget)

	// Source definition errors
	ErrEmptySourceName    = fmt.Errorf("%w: source name cannot be empty", errors.ErrInvalidConfig)
	ErrEmptyCommand       = fmt.Errorf("%w: source command cannot be empty", errors.ErrInvalidConfig)
	ErrInvalidPhase       = fmt.Errorf("%w: invalid source phase", errors.ErrInvalidConfig)
	ErrInvalidExtract     = fmt.Errorf("%w: invalid extraction rule", errors.ErrInvalidConfig)
	ErrInvalidTimeout     = fmt.Errorf("%w: timeout must be positive", errors.ErrInvalidConfig)
	ErrMissingPlaceholder = fmt.Errorf("%w: command is missing a required placeholder", errors.ErrInvalidConfig)

	// Prober errors
	ErrInvalidStatusPolicy = fmt.Errorf("%w: invalid status policy", errors.ErrInvalidConfig)

	// Run errors
	ErrNoSourcesAvailable = fmt.Errorf("%w: no sources enabled", errors.ErrInvalidConfig)
)
