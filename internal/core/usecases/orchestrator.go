// internal/core/usecases/orchestrator.go
package usecases

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"subterra/internal/core/domain"
	"subterra/internal/core/ports"
	"subterra/internal/platform/errors"
	"subterra/internal/platform/logx"
	"subterra/internal/platform/validator"
	"subterra/internal/platform/workerpool"
)

// StoreOpener abre (o crea) los conjuntos canónico y vivo de un dominio.
type StoreOpener func(root domain.Hostname) (canonical, live ports.NameRepository, err error)

// OrchestratorOptions configura el orchestrator.
type OrchestratorOptions struct {
	Sources       []ports.Source // enumeración y permutación; la fase sale de Spec()
	Checker       ports.LivenessChecker
	OpenStores    StoreOpener
	SourceWorkers int                  // <= 1: secuencial
	Scheduler     workerpool.Scheduler // orden de fuentes en paralelo; nil = prioridad
	Exclude       []string             // nombres fuera de alcance (y sus subdominios)
	Wordlist      string               // valor de {wordlist} para la fase de permutación
	OutputDir     string               // solo informativo para observers

	BatchSize     int
	Concurrency   int
	SkipKnownLive bool

	Observer ports.RunObserver
	Logger   logx.Logger
}

// Orchestrator ejecuta una corrida completa sobre un dominio:
// enumeración, permutación y liveness.
type Orchestrator struct {
	enumerate []ports.Source
	permute   []ports.Source
	checker   ports.LivenessChecker
	open      StoreOpener
	exclude   []string
	wordlist  string
	outputDir string

	sourceWorkers int
	scheduler     workerpool.Scheduler
	batchSize     int
	concurrency   int
	skipKnownLive bool

	observer ports.RunObserver
	logger   logx.Logger
}

// NewOrchestrator crea una nueva instancia del orchestrator.
// Las sources deshabilitadas se descartan; el resto se ordena por prioridad.
func NewOrchestrator(opts OrchestratorOptions) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = logx.New()
	}
	if opts.Observer == nil {
		opts.Observer = ports.NopObserver{}
	}
	if opts.Scheduler == nil {
		opts.Scheduler = workerpool.NewPriorityScheduler()
	}

	o := &Orchestrator{
		checker:       opts.Checker,
		open:          opts.OpenStores,
		exclude:       opts.Exclude,
		wordlist:      opts.Wordlist,
		outputDir:     opts.OutputDir,
		sourceWorkers: opts.SourceWorkers,
		scheduler:     opts.Scheduler,
		batchSize:     opts.BatchSize,
		concurrency:   opts.Concurrency,
		skipKnownLive: opts.SkipKnownLive,
		observer:      opts.Observer,
		logger:        opts.Logger.With("component", "orchestrator"),
	}

	for _, src := range opts.Sources {
		spec := src.Spec()
		if !spec.Enabled {
			continue
		}
		switch spec.Phase {
		case domain.PhaseEnumerate:
			o.enumerate = append(o.enumerate, src)
		case domain.PhasePermute:
			o.permute = append(o.permute, src)
		}
	}
	byPriority(o.enumerate)
	byPriority(o.permute)

	return o
}

func byPriority(sources []ports.Source) {
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Spec().Priority > sources[j].Spec().Priority
	})
}

// run agrupa el estado mutable de una corrida.
type run struct {
	target    *domain.Target
	canonical ports.NameRepository
	live      ports.NameRepository
	stats     *domain.RunStats

	mu sync.Mutex // protege stats.Sources en modo paralelo
}

// Run ejecuta la corrida para rawDomain. Retorna nil stats solo cuando el
// dominio o la configuración son inválidos; en cualquier otro caso las
// estadísticas reflejan lo hecho hasta el final o hasta el error.
func (o *Orchestrator) Run(ctx context.Context, rawDomain string) (*domain.RunStats, error) {
	root, err := validator.ValidateTarget(rawDomain)
	if err != nil {
		return nil, err
	}
	if len(o.enumerate)+len(o.permute) == 0 {
		return nil, domain.ErrNoSourcesAvailable
	}
	if o.checker == nil || o.open == nil {
		return nil, errors.Wrap(errors.ErrInvalidConfig, "orchestrator requires a checker and a store opener")
	}

	exclude := make([]domain.Hostname, 0, len(o.exclude))
	for _, raw := range o.exclude {
		h, ok := validator.ValidateHostname(raw)
		if !ok {
			return nil, errors.Wrapf(errors.ErrInvalidConfig, "invalid exclusion %q", raw)
		}
		exclude = append(exclude, h)
	}

	r := &run{
		target: domain.NewTarget(root, exclude...),
		stats:  domain.NewRunStats(uuid.NewString(), root),
	}

	o.observer.RunStarted(ports.RunInfo{
		RunID:     r.stats.RunID,
		Domain:    root,
		Sources:   o.sourceNames(),
		Parallel:  max(o.sourceWorkers, 1),
		OutputDir: o.outputDir,
		StartedAt: r.stats.StartedAt,
	})

	err = o.execute(ctx, r)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}

	if r.canonical != nil {
		r.stats.TotalCanonical = r.canonical.Len()
	}
	if r.live != nil {
		r.stats.TotalLive = r.live.Len()
	}
	r.stats.Interrupted = ctx.Err() != nil
	r.stats.Finish(err)

	o.logger.Info("run finished",
		"run_id", r.stats.RunID,
		"domain", root,
		"new_names", r.stats.NewNames,
		"canonical", r.stats.TotalCanonical,
		"live", r.stats.TotalLive,
		"interrupted", r.stats.Interrupted,
		"elapsed", domain.FormatElapsed(r.stats.Elapsed),
	)
	o.observer.RunFinished(r.stats)

	return r.stats, err
}

func (o *Orchestrator) execute(ctx context.Context, r *run) error {
	canonical, live, err := o.open(r.target.Root)
	if err != nil {
		return err
	}
	r.canonical, r.live = canonical, live
	initial := canonical.Len()
	defer func() { r.stats.NewNames = r.canonical.Len() - initial }()

	o.logger.Info("starting run",
		"run_id", r.stats.RunID,
		"domain", r.target.Root,
		"known_names", initial,
		"known_live", live.Len(),
		"enumerate_sources", len(o.enumerate),
		"permute_sources", len(o.permute),
	)

	if err := o.enumeratePhase(ctx, r); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	prober := NewLivenessProber(ProberOptions{
		Checker:     o.checker,
		Live:        live,
		BatchSize:   o.batchSize,
		Concurrency: o.concurrency,
		Observer:    o.observer,
		Logger:      o.logger,
	})

	permLive, err := o.permutePhase(ctx, r, prober)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	return o.livenessPhase(ctx, r, prober, permLive)
}

// enumeratePhase ejecuta las sources de enumeración y fusiona sus nombres.
func (o *Orchestrator) enumeratePhase(ctx context.Context, r *run) error {
	if len(o.enumerate) == 0 {
		return nil
	}
	if o.sourceWorkers > 1 {
		return o.enumerateParallel(ctx, r)
	}

	for _, src := range o.enumerate {
		if ctx.Err() != nil {
			return nil
		}
		o.observer.SourceStarted(src.Name(), domain.PhaseEnumerate)
		res := src.Run(ctx, r.target.Root, ports.SourceInput{})
		if err := o.absorb(r, src.Spec(), res); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) enumerateParallel(ctx context.Context, r *run) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := workerpool.NewWorkerPool(workerpool.WorkerPoolConfig{
		Workers:   o.sourceWorkers,
		Scheduler: o.scheduler,
		Logger:    o.logger,
	})
	defer pool.Stop()

	stats := pool.Stats()
	o.logger.Debug("parallel enumeration",
		"workers", stats.Workers,
		"scheduler", stats.SchedulerName,
		"sources", len(o.enumerate),
	)

	var (
		fatalMu sync.Mutex
		fatal   error
	)

	tasks := make([]workerpool.Task, 0, len(o.enumerate))
	for _, src := range o.enumerate {
		src := src
		tasks = append(tasks, NewSourceTask(src, r.target.Root, ports.SourceInput{}, SourceHooks{
			Started: func() { o.observer.SourceStarted(src.Name(), domain.PhaseEnumerate) },
			Done: func(_ context.Context, res ports.SourceResult) error {
				err := o.absorb(r, src.Spec(), res)
				if err != nil {
					fatalMu.Lock()
					if fatal == nil {
						fatal = err
					}
					fatalMu.Unlock()
					cancel()
				}
				return err
			},
		}))
	}

	pool.Submit(ctx, tasks)
	return fatal
}

// absorb valida, filtra por alcance y fusiona el resultado de una source de
// enumeración. Solo un error de merge es fatal.
func (o *Orchestrator) absorb(r *run, spec domain.SourceSpec, res ports.SourceResult) error {
	scoped := o.scope(r, res.Candidates)
	st := sourceStats(spec, res, len(scoped))

	var mergeErr error
	if res.Outcome == domain.OutcomeSuccess && len(scoped) > 0 {
		added, err := r.canonical.Merge(scoped)
		if err != nil {
			mergeErr = err
			st.Error = err.Error()
		}
		st.Added = len(added)
	}

	o.record(r, st)
	return mergeErr
}

// scope valida candidatos y se queda con los únicos dentro del alcance.
func (o *Orchestrator) scope(r *run, candidates []string) []domain.Hostname {
	valid, _ := validator.ValidateAll(candidates)
	return domain.Dedupe(r.target.FilterInScope(valid))
}

func sourceStats(spec domain.SourceSpec, res ports.SourceResult, valid int) domain.SourceStats {
	st := domain.SourceStats{
		Name:      spec.Name,
		Phase:     spec.Phase,
		Outcome:   res.Outcome,
		Emitted:   len(res.Candidates),
		Valid:     valid,
		Malformed: res.Malformed,
		Duration:  res.Duration,
		Attempts:  max(res.Attempts, 1),
	}
	if res.Err != nil {
		st.Error = res.Err.Error()
	}
	return st
}

func (o *Orchestrator) record(r *run, st domain.SourceStats) {
	r.mu.Lock()
	r.stats.AddSource(st)
	r.mu.Unlock()

	log := o.logger.Info
	if st.Outcome.IsFailure() {
		log = o.logger.Warn
	}
	log("source finished",
		"source", st.Name,
		"phase", st.Phase,
		"outcome", st.Outcome,
		"emitted", st.Emitted,
		"valid", st.Valid,
		"added", st.Added,
		"duration", st.Duration,
	)
	o.observer.SourceFinished(st)
}

// permutePhase genera candidatos a partir del conjunto canónico, los prueba
// y fusiona los vivos en ambos conjuntos. Retorna los confirmados vivos.
func (o *Orchestrator) permutePhase(ctx context.Context, r *run, prober *LivenessProber) ([]domain.Hostname, error) {
	if len(o.permute) == 0 {
		return nil, nil
	}

	if r.canonical.Len() == 0 {
		for _, src := range o.permute {
			o.observer.SourceStarted(src.Name(), domain.PhasePermute)
			o.record(r, domain.SourceStats{
				Name:    src.Name(),
				Phase:   domain.PhasePermute,
				Outcome: domain.OutcomeSkipped,
				Error:   "canonical set is empty",
			})
		}
		return nil, nil
	}

	input := ports.SourceInput{InputFile: r.canonical.Path(), Wordlist: o.wordlist}

	type produced struct {
		stats domain.SourceStats
		names []domain.Hostname
	}
	var (
		outputs    []produced
		candidates []domain.Hostname
	)

	for _, src := range o.permute {
		if ctx.Err() != nil {
			break
		}
		o.observer.SourceStarted(src.Name(), domain.PhasePermute)
		res := src.Run(ctx, r.target.Root, input)

		fresh := r.canonical.Missing(o.scope(r, res.Candidates))
		st := sourceStats(src.Spec(), res, len(fresh))
		if res.Outcome != domain.OutcomeSuccess {
			fresh = nil
		}
		outputs = append(outputs, produced{stats: st, names: fresh})
		candidates = append(candidates, fresh...)
		o.observer.SourceFinished(st)
	}

	candidates = domain.Dedupe(candidates)
	r.stats.PermutationCandidates = len(candidates)

	var (
		liveNames []domain.Hostname
		probeErr  error
	)
	if len(candidates) > 0 && ctx.Err() == nil {
		o.logger.Info("probing permutation candidates", "candidates", len(candidates))
		liveNames, r.stats.PermutationProbe, probeErr = prober.ProbeInto(ctx, candidates, r.canonical)
		r.stats.PermutationLive = len(liveNames)
	}

	// Atribución: nombres vivos que cada source propuso
	liveSet := make(map[domain.Hostname]struct{}, len(liveNames))
	for _, n := range liveNames {
		liveSet[n] = struct{}{}
	}
	for _, out := range outputs {
		for _, n := range out.names {
			if _, ok := liveSet[n]; ok {
				out.stats.Added++
			}
		}
		r.mu.Lock()
		r.stats.AddSource(out.stats)
		r.mu.Unlock()
	}

	return liveNames, probeErr
}

// livenessPhase prueba el conjunto canónico (menos lo ya confirmado).
func (o *Orchestrator) livenessPhase(ctx context.Context, r *run, prober *LivenessProber, confirmed []domain.Hostname) error {
	skip := make(map[domain.Hostname]struct{}, len(confirmed))
	for _, n := range confirmed {
		skip[n] = struct{}{}
	}

	snapshot := r.canonical.Snapshot()
	names := make([]domain.Hostname, 0, len(snapshot))
	for _, n := range snapshot {
		if _, ok := skip[n]; ok {
			continue
		}
		if o.skipKnownLive && r.live.Contains(n) {
			continue
		}
		names = append(names, n)
	}

	start := time.Now()
	_, pstats, err := prober.Probe(ctx, names)
	r.stats.Probe = pstats

	o.logger.Info("liveness phase finished",
		"probed", pstats.Probed,
		"live", pstats.Live,
		"new_live", pstats.NewLive,
		"duration", time.Since(start),
	)
	return err
}

func (o *Orchestrator) sourceNames() []string {
	names := make([]string, 0, len(o.enumerate)+len(o.permute))
	for _, s := range o.enumerate {
		names = append(names, s.Name())
	}
	for _, s := range o.permute {
		names = append(names, s.Name())
	}
	return names
}

// Close cierra todas las sources.
func (o *Orchestrator) Close() error {
	var errs []error
	for _, s := range append(append([]ports.Source{}, o.enumerate...), o.permute...) {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
