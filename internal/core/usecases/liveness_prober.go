// internal/core/usecases/liveness_prober.go
package usecases

import (
	"context"
	"sync"

	"subterra/internal/core/domain"
	"subterra/internal/core/ports"
	"subterra/internal/platform/logx"
	"subterra/internal/platform/workerpool"
)

const (
	DefaultBatchSize   = 100
	DefaultConcurrency = 10
)

// ProberOptions configura el LivenessProber.
type ProberOptions struct {
	Checker     ports.LivenessChecker
	Live        ports.NameRepository
	BatchSize   int // nombres por lote (default: 100)
	Concurrency int // workers del pool (default: 10, nunca ilimitado)
	Observer    ports.RunObserver
	Logger      logx.Logger
}

// LivenessProber verifica nombres por lotes con concurrencia acotada y
// confirma en disco el subconjunto vivo de cada lote antes del siguiente.
type LivenessProber struct {
	checker     ports.LivenessChecker
	live        ports.NameRepository
	batchSize   int
	concurrency int
	observer    ports.RunObserver
	logger      logx.Logger
}

// NewLivenessProber crea el prober aplicando defaults.
func NewLivenessProber(opts ProberOptions) *LivenessProber {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Observer == nil {
		opts.Observer = ports.NopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = logx.New()
	}

	return &LivenessProber{
		checker:     opts.Checker,
		live:        opts.Live,
		batchSize:   opts.BatchSize,
		concurrency: opts.Concurrency,
		observer:    opts.Observer,
		logger:      opts.Logger.With("component", "prober"),
	}
}

// Probe verifica names y retorna los confirmados vivos en esta llamada (ordenados).
func (p *LivenessProber) Probe(ctx context.Context, names []domain.Hostname) ([]domain.Hostname, domain.ProbeStats, error) {
	return p.ProbeInto(ctx, names)
}

// ProbeInto es Probe con repositorios adicionales: el subconjunto vivo de
// cada lote se fusiona primero en extra (en orden) y después en el conjunto
// vivo, de modo que lo persistido como vivo siempre existe en extra.
//
// Una cancelación descarta el lote en curso: solo los lotes completos se
// confirman. Un error de merge es fatal y se retorna de inmediato.
func (p *LivenessProber) ProbeInto(ctx context.Context, names []domain.Hostname, extra ...ports.NameRepository) ([]domain.Hostname, domain.ProbeStats, error) {
	names = domain.Dedupe(names)
	stats := domain.ProbeStats{Total: len(names)}
	confirmed := make([]domain.Hostname, 0)

	p.observer.ProbeStarted(len(names))
	defer func() { p.observer.ProbeFinished(stats) }()

	if len(names) == 0 {
		return confirmed, stats, nil
	}

	pool := workerpool.NewWorkerPool(workerpool.WorkerPoolConfig{
		Workers:   p.concurrency,
		Scheduler: workerpool.NewFIFOScheduler(),
		Logger:    p.logger,
	})
	defer pool.Stop()

	// El contador de progreso se incrementa y se publica bajo el mismo lock
	// para que los observers lo vean monótono.
	var (
		progressMu      sync.Mutex
		done, liveCount int
	)
	total := len(names)
	batches := (total + p.batchSize - 1) / p.batchSize

	p.logger.Info("probing names",
		"total", total,
		"batches", batches,
		"batch_size", p.batchSize,
		"concurrency", p.concurrency,
	)

	for b := 0; b < batches; b++ {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("probing interrupted", "batches_committed", stats.Batches)
			return domain.Dedupe(confirmed), stats, err
		}

		start := b * p.batchSize
		end := min(start+p.batchSize, total)
		batch := names[start:end]
		batchNo := b + 1

		results := make([]ports.CheckResult, len(batch))
		tasks := make([]workerpool.Task, len(batch))
		for i, name := range batch {
			i, name := i, name
			tasks[i] = workerpool.TaskFunc{
				TaskName: string(name),
				Fn: func(ctx context.Context) error {
					res := p.checker.Check(ctx, name)
					results[i] = res

					progressMu.Lock()
					done++
					if res.Live {
						liveCount++
					}
					p.observer.ProbeProgress(ports.ProbeProgress{
						Done:  done,
						Total: total,
						Live:  liveCount,
						Batch: batchNo,
					})
					progressMu.Unlock()
					return res.Err
				},
			}
		}

		taskResults := pool.Submit(ctx, tasks)

		// Lote incompleto por cancelación: no se confirma
		if err := ctx.Err(); err != nil {
			p.logger.Warn("discarding in-flight batch", "batch", batchNo, "batches_committed", stats.Batches)
			return domain.Dedupe(confirmed), stats, err
		}

		batchLive := make([]domain.Hostname, 0)
		for _, tr := range taskResults {
			if tr.Skipped {
				continue
			}
			res := results[tr.Index]
			stats.Probed++
			if res.Err != nil {
				stats.Errors++
				p.logger.Debug("check failed", "name", res.Name, "error", res.Err)
			}
			if res.Live {
				batchLive = append(batchLive, res.Name)
			}
		}

		for _, repo := range extra {
			if _, err := repo.Merge(batchLive); err != nil {
				return domain.Dedupe(confirmed), stats, err
			}
		}
		added, err := p.live.Merge(batchLive)
		if err != nil {
			return domain.Dedupe(confirmed), stats, err
		}

		stats.Batches++
		stats.Live += len(batchLive)
		stats.NewLive += len(added)
		confirmed = append(confirmed, batchLive...)

		p.logger.Debug("batch committed",
			"batch", batchNo,
			"of", batches,
			"live", len(batchLive),
			"new", len(added),
		)
	}

	p.logger.Info("probing completed",
		"probed", stats.Probed,
		"live", stats.Live,
		"new_live", stats.NewLive,
		"errors", stats.Errors,
	)
	return domain.Dedupe(confirmed), stats, nil
}
