// internal/core/ports/checker.go
package ports

import (
	"context"

	"subterra/internal/core/domain"
)

// CheckResult es el resultado de un chequeo de liveness.
type CheckResult struct {
	Name       domain.Hostname
	Live       bool
	URL        string // URL que respondió (https o http)
	StatusCode int
	Err        error // error de transporte o timeout; implica Live == false
}

// LivenessChecker verifica si un hostname responde por HTTP.
// Check no retorna errores fatales: un fallo se reporta como no-vivo.
type LivenessChecker interface {
	Check(ctx context.Context, name domain.Hostname) CheckResult
}

// LivenessCheckerFunc adapta una función al port.
type LivenessCheckerFunc func(ctx context.Context, name domain.Hostname) CheckResult

// Check implementa LivenessChecker.
func (f LivenessCheckerFunc) Check(ctx context.Context, name domain.Hostname) CheckResult {
	return f(ctx, name)
}
