// cmd/subterra/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"subterra/internal/adapters/output"
	"subterra/internal/adapters/store"
	"subterra/internal/core/domain"
	"subterra/internal/core/ports"
	"subterra/internal/core/usecases"
	"subterra/internal/platform/config"
	"subterra/internal/platform/errors"
	"subterra/internal/platform/httpclient"
	"subterra/internal/platform/logx"
	"subterra/internal/platform/metrics"
	"subterra/internal/platform/registry"
	"subterra/internal/platform/ui"
	"subterra/internal/platform/validator"
	"subterra/internal/platform/workerpool"
	"subterra/internal/sources/httpx"
)

var (
	// Rellenables con -ldflags en build
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Exit codes
const (
	exitOK          = 0
	exitFailure     = 1
	exitConfig      = 2
	exitInterrupted = 130
)

func main() {
	// Contexto raíz con señales; el timeout global se aplica dentro de run
	ctx, cancel := rootContextWithSignals()
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// run ejecuta el comando completo y retorna el exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	// 1. Configuración centralizada
	cfg, err := config.Load(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			config.PrintHelp(stdout)
			return exitOK
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fmt.Fprintln(stderr, "Try: subterra -h for help")
		return exitConfig
	}

	switch {
	case cfg.PrintVersion:
		config.PrintVersion(stdout, version, commit, date)
		return exitOK
	case cfg.PrintConfig:
		dump, err := cfg.Dump()
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitConfig
		}
		fmt.Fprint(stdout, dump)
		return exitOK
	}

	if cfg.ListSources {
		listSources(stdout, registry.Default(logx.NewSilent()))
		return exitOK
	}

	// 2. Presenter y logger compartido
	presenter := ui.New(ui.Mode(cfg.UI.Mode), ui.Options{Out: stdout, JSON: cfg.UI.LogJSON})
	defer presenter.Close()
	logger := newLogger(cfg, presenter, stderr)

	reg := registry.Default(logger)

	// 3. Target
	if cfg.Core.Target == "" {
		fmt.Fprintln(stderr, "Error: target domain is required")
		fmt.Fprintln(stderr, "Usage: subterra -t <domain>")
		return exitConfig
	}
	root, err := validator.ValidateTarget(cfg.Core.Target)
	if err != nil {
		logger.Err(err, "phase", "validation")
		return exitConfig
	}

	// 4. Fuentes: presets + overrides del usuario
	specs, err := reg.Resolve(cfg.Overrides())
	if err != nil {
		logger.Err(err, "phase", "source-resolve")
		return exitConfig
	}
	specs = permutationSpecs(cfg, specs, logger)
	if len(specs) == 0 {
		logger.Err(domain.ErrNoSourcesAvailable, "phase", "source-resolve")
		return exitConfig
	}

	sources, err := reg.Build(specs, registry.BuildConfig{
		WorkDir:      cfg.Core.WorkDir,
		WaitDelay:    cfg.Core.KillGrace,
		RetryBackoff: cfg.Core.RetryBackoff,
	}, logger)
	if err != nil {
		logger.Err(err, "phase", "source-build")
		return exitConfig
	}
	for name, perr := range registry.Preflight(sources) {
		logger.Warn("source not ready, it will fail", "source", name, "error", perr.Error())
	}

	// 5. Checker de liveness
	checker, closeChecker := buildChecker(cfg, logger)
	defer closeChecker()

	// 6. Observers: presenter + métricas
	observers := ports.MultiObserver{presenter}
	var recorder *metrics.Recorder
	if cfg.Metrics.Textfile != "" {
		recorder, err = metrics.NewRecorder()
		if err != nil {
			logger.Err(err, "phase", "metrics")
			return exitFailure
		}
		observers = append(observers, recorder)
	}

	// 7. Orchestrator
	scheduler, err := workerpool.NewScheduler(cfg.Core.Scheduler)
	if err != nil {
		logger.Err(errors.Wrap(errors.ErrInvalidConfig, err.Error()), "phase", "scheduler")
		return exitConfig
	}
	orch := usecases.NewOrchestrator(usecases.OrchestratorOptions{
		Sources:       sources,
		Checker:       checker,
		OpenStores:    storeOpener(cfg.Core.OutputDir, logger),
		SourceWorkers: cfg.Core.SourceWorkers,
		Scheduler:     scheduler,
		Exclude:       cfg.Core.Exclude,
		Wordlist:      cfg.Permutation.Wordlist,
		OutputDir:     cfg.Core.OutputDir,
		BatchSize:     cfg.Prober.BatchSize,
		Concurrency:   cfg.Prober.Concurrency,
		SkipKnownLive: cfg.Prober.SkipKnownLive,
		Observer:      observers,
		Logger:        logger,
	})
	defer func() {
		if err := orch.Close(); err != nil {
			logger.Warn("failed to close sources", "error", err.Error())
		}
	}()

	if cfg.Core.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Core.Timeout)
		defer cancel()
	}

	logger.Info("subterra starting",
		"version", version,
		"target", root,
		"sources", len(sources),
		"checker", cfg.Prober.Checker,
	)

	// 8. Corrida
	stats, runErr := orch.Run(ctx, string(root))
	if stats == nil {
		logger.Err(runErr, "phase", "run")
		return exitCode(runErr, false)
	}
	if runErr != nil && !stats.Interrupted {
		logger.Err(runErr, "phase", "run")
	}

	// 9. Reporte, historial y métricas (los conjuntos ya están confirmados)
	reportErr := writeReports(cfg, stats, recorder, logger)

	// pterm muestra su propio resumen; quiet y JSON no llevan tabla
	if _, plain := presenter.(*ui.RawPresenter); plain && !cfg.UI.LogJSON {
		if err := output.PrintSummary(stdout, stats); err != nil {
			logger.Warn("summary failed", "error", err.Error())
		}
	}

	if runErr != nil {
		return exitCode(runErr, stats.Interrupted)
	}
	if reportErr != nil {
		logger.Err(reportErr, "phase", "report")
		return exitFailure
	}
	return exitOK
}

// newLogger crea el logger según la configuración. Con el presenter pterm
// el nivel info queda fuera para no pisar spinners y barra.
func newLogger(cfg config.Config, presenter ui.Presenter, w io.Writer) logx.Logger {
	lvl := logx.ParseLevel(cfg.UI.LogLevel)
	if _, pretty := presenter.(*ui.PTermPresenter); pretty && lvl == logx.LevelInfo {
		lvl = logx.LevelWarn
	}
	return logx.NewWithOptions(logx.Options{Level: lvl, JSON: cfg.UI.LogJSON, Writer: w})
}

// permutationSpecs quita las fuentes de permutación cuando la fase está
// deshabilitada o cuando requieren un wordlist que no se configuró.
func permutationSpecs(cfg config.Config, specs []domain.SourceSpec, logger logx.Logger) []domain.SourceSpec {
	out := make([]domain.SourceSpec, 0, len(specs))
	for _, spec := range specs {
		if spec.Phase == domain.PhasePermute {
			if !cfg.Permutation.Enabled {
				continue
			}
			if cfg.Permutation.Wordlist == "" && strings.Contains(strings.Join(spec.Command, " "), "{wordlist}") {
				logger.Warn("permutation source needs a wordlist, skipping", "source", spec.Name)
				continue
			}
		}
		out = append(out, spec)
	}
	return out
}

// buildChecker elige el checker HTTP interno o httpx.
func buildChecker(cfg config.Config, logger logx.Logger) (ports.LivenessChecker, func()) {
	policy := cfg.Prober.Status

	if cfg.Prober.Checker == config.CheckerHTTPX {
		c := httpx.New(httpx.Config{
			Binary:  cfg.Prober.HTTPXBinary,
			Timeout: cfg.Prober.Timeout,
			Policy:  &policy,
		}, logger)
		if err := c.Preflight(); err != nil {
			logger.Warn("httpx not available, every check will fail", "error", err.Error())
		}
		return c, func() {}
	}

	c := httpclient.New(httpclient.Config{
		Timeout:        cfg.Prober.Timeout,
		MaxRetries:     cfg.Prober.Retries,
		MaxRedirects:   cfg.Prober.MaxRedirects,
		UserAgent:      cfg.Prober.UserAgent,
		RateLimit:      cfg.Prober.RateLimit,
		RateLimitBurst: cfg.Prober.RateBurst,
		InsecureTLS:    cfg.Prober.InsecureTLS,
		Policy:         &policy,
	}, logger)
	return c, c.Close
}

// storeOpener abre los conjuntos persistidos bajo <outputDir>/<domain>/.
func storeOpener(outputDir string, logger logx.Logger) usecases.StoreOpener {
	return func(root domain.Hostname) (ports.NameRepository, ports.NameRepository, error) {
		res, err := store.OpenResults(outputDir, root, logger)
		if err != nil {
			return nil, nil, err
		}
		return res.Canonical, res.Live, nil
	}
}

// writeReports escribe run_stats.json, el historial y el textfile de
// métricas. Retorna el primer error; intenta todos.
func writeReports(cfg config.Config, stats *domain.RunStats, recorder *metrics.Recorder, logger logx.Logger) error {
	dir := store.DomainDir(cfg.Core.OutputDir, stats.Domain)
	var errs []error

	if path, err := output.WriteRunReport(dir, stats); err != nil {
		errs = append(errs, err)
	} else {
		logger.Debug("run report written", "file", path)
	}

	if err := output.NewHistoryWriter(dir, logger).Append(stats); err != nil {
		errs = append(errs, err)
	}

	if recorder != nil {
		if err := recorder.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			errs = append(errs, err)
		} else {
			logger.Debug("metrics written", "file", cfg.Metrics.Textfile)
		}
	}

	return errors.Join(errs...)
}

// exitCode traduce el error de la corrida a un exit code.
func exitCode(err error, interrupted bool) int {
	switch {
	case err == nil:
		return exitOK
	case interrupted, errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return exitInterrupted
	case errors.IsConfigError(err), errors.Is(err, domain.ErrNoSourcesAvailable):
		return exitConfig
	default:
		return exitFailure
	}
}

func listSources(w io.Writer, reg *registry.SourceRegistry) {
	defaults := make(map[string]bool, len(registry.DefaultEnabled))
	for _, name := range registry.DefaultEnabled {
		defaults[name] = true
	}

	fmt.Fprintln(w, "Built-in sources:")
	for _, name := range reg.List() {
		spec, _ := reg.Preset(name)
		mark := " "
		if defaults[name] {
			mark = "*"
		}
		fmt.Fprintf(w, "  %s %-12s %-9s priority=%-2d timeout=%-5s %s\n",
			mark, name, spec.Phase, spec.Priority, spec.Timeout.Round(time.Minute), strings.Join(spec.Command, " "))
	}
	fmt.Fprintln(w, "\n* enabled by default")
}

// rootContextWithSignals crea el contexto raíz cancelado por SIGINT/SIGTERM.
// Lo confirmado en disco hasta la señal queda como estado recuperable.
func rootContextWithSignals() (context.Context, context.CancelFunc) {
	base, baseCancel := context.WithCancel(context.Background())

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-ch:
			baseCancel()
		case <-base.Done():
		}
	}()

	cleanup := func() {
		signal.Stop(ch)
		baseCancel()
	}
	return base, cleanup
}
