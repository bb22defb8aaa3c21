// internal/platform/resilience/retryable_source.go
package resilience

import (
	"context"
	"math"
	"time"

	"subterra/internal/core/domain"
	"subterra/internal/core/ports"
	"subterra/internal/platform/logx"
)

const maxBackoff = 60 * time.Second

// RetryableSource envuelve un Source y repite las corridas fallidas.
// Solo se reintenta OutcomeFailed: un timeout ya consumió su presupuesto y
// una cancelación o un skip no cambian al repetir.
type RetryableSource struct {
	source            ports.Source
	maxRetries        int
	backoffBase       time.Duration
	backoffMultiplier float64
	logger            logx.Logger
}

var _ ports.Source = (*RetryableSource)(nil)

// NewRetryableSource crea un nuevo RetryableSource.
func NewRetryableSource(
	source ports.Source,
	maxRetries int,
	backoffBase time.Duration,
	backoffMultiplier float64,
	logger logx.Logger,
) *RetryableSource {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if backoffBase <= 0 {
		backoffBase = 1 * time.Second
	}
	if backoffMultiplier < 1.0 {
		backoffMultiplier = 2.0
	}

	return &RetryableSource{
		source:            source,
		maxRetries:        maxRetries,
		backoffBase:       backoffBase,
		backoffMultiplier: backoffMultiplier,
		logger:            logger.With("component", "retryable-source", "source", source.Name()),
	}
}

// Wrap aplica retries solo cuando la definición los pide.
func Wrap(source ports.Source, backoffBase time.Duration, logger logx.Logger) ports.Source {
	if source.Spec().Retries <= 0 {
		return source
	}
	return NewRetryableSource(source, source.Spec().Retries, backoffBase, 2.0, logger)
}

// Name retorna el nombre del source subyacente.
func (r *RetryableSource) Name() string {
	return r.source.Name()
}

// Spec retorna la definición del source subyacente.
func (r *RetryableSource) Spec() domain.SourceSpec {
	return r.source.Spec()
}

// Run ejecuta el source con retry logic.
func (r *RetryableSource) Run(ctx context.Context, target domain.Hostname, in ports.SourceInput) ports.SourceResult {
	start := time.Now()
	var res ports.SourceResult

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			r.logger.Info("retrying source",
				"attempt", attempt,
				"max_retries", r.maxRetries,
			)
		}

		res = r.source.Run(ctx, target, in)
		res.Attempts = attempt + 1

		if res.Outcome != domain.OutcomeFailed {
			if attempt > 0 && res.Outcome == domain.OutcomeSuccess {
				r.logger.Info("source succeeded after retry", "attempts", attempt+1)
			}
			break
		}

		r.logger.Warn("source failed",
			"attempt", attempt+1,
			"error", res.Err,
		)

		if attempt >= r.maxRetries {
			r.logger.Warn("source failed after all retries", "attempts", attempt+1)
			break
		}

		backoff := r.calculateBackoff(attempt)
		r.logger.Debug("backing off before retry", "delay_ms", backoff.Milliseconds())

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			r.logger.Warn("context cancelled during backoff")
			res.Outcome = domain.OutcomeCanceled
			res.Err = ctx.Err()
			res.Duration = time.Since(start)
			return res
		}
	}

	res.Duration = time.Since(start)
	return res
}

// Preflight delega en el source subyacente cuando lo soporta.
func (r *RetryableSource) Preflight() error {
	if p, ok := r.source.(ports.Preflighter); ok {
		return p.Preflight()
	}
	return nil
}

// Close cierra el source subyacente.
func (r *RetryableSource) Close() error {
	return r.source.Close()
}

// calculateBackoff calcula el delay de backoff exponencial.
func (r *RetryableSource) calculateBackoff(attempt int) time.Duration {
	// Exponential backoff: base * multiplier^attempt
	multiplier := math.Pow(r.backoffMultiplier, float64(attempt))
	backoff := time.Duration(float64(r.backoffBase) * multiplier)

	if backoff > maxBackoff {
		backoff = maxBackoff
	}
	return backoff
}
