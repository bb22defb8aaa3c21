// Package main implements the subterra external tools installer CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"subterra/cmd/install-deps/installer"
	"subterra/internal/core/domain"
	"subterra/internal/platform/config"
	"subterra/internal/platform/errors"
	"subterra/internal/platform/logx"
	"subterra/internal/platform/registry"
)

const (
	version = "1.0.0"
	appName = "subterra tools installer"
)

// Config holds CLI configuration.
type Config struct {
	Tools          []string
	SubterraConfig string
	CatalogPath    string
	CheckOnly      bool
	Force          bool
	DryRun         bool
	Quiet          bool
	Verbose        bool
	ShowVersion    bool
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, stopping after the current tool...")
		cancel()
	}()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr, installer.ExecRunner))
}

func newFlagSet(cfg *Config) *pflag.FlagSet {
	fs := pflag.NewFlagSet("install-deps", pflag.ContinueOnError)
	fs.SortFlags = false
	fs.SetOutput(io.Discard)

	fs.StringSliceVar(&cfg.Tools, "tools", nil, "Tools to handle (default: every built-in source plus httpx)")
	fs.StringVar(&cfg.SubterraConfig, "subterra-config", "", "Only handle the sources enabled by this subterra config file")
	fs.StringVar(&cfg.CatalogPath, "catalog", "", "YAML file with extra or replacement install recipes")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Only check tools, do not install")
	fs.BoolVar(&cfg.Force, "force", false, "Reinstall even if already installed")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Print the install commands without running them")
	fs.BoolVarP(&cfg.Quiet, "quiet", "q", false, "Minimal output")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Detailed logging")
	fs.BoolVarP(&cfg.ShowVersion, "version", "v", false, "Show version and exit")
	return fs
}

// run ejecuta el instalador y retorna el exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, runner installer.Runner) int {
	var cfg Config
	fs := newFlagSet(&cfg)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintf(stdout, "%s v%s\n\nUSAGE:\n  install-deps [flags]\n\nFLAGS:\n%s", appName, version, fs.FlagUsages())
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if cfg.ShowVersion {
		fmt.Fprintf(stdout, "%s v%s\n", appName, version)
		return 0
	}

	logLevel := logx.LevelWarn
	if cfg.Verbose {
		logLevel = logx.LevelDebug
	}
	logger := logx.NewWithOptions(logx.Options{Level: logLevel, Writer: stderr})

	tools, err := selectTools(cfg, logger)
	if err != nil {
		logger.Err(err, "phase", "select")
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	presenter := installer.NewPresenter(stdout, cfg.Quiet)
	presenter.ShowHeader()

	start := time.Now()
	orch := installer.NewOrchestrator(installer.Options{
		Tools:    tools,
		System:   installer.DetectSystem(ctx, runner),
		Runner:   runner,
		Logger:   logger,
		Progress: presenter.ShowProgress,
	})

	if cfg.CheckOnly {
		results := orch.Check(ctx)
		presenter.ShowTable(results)
		stats := installer.Summarize(results)
		presenter.ShowSummary(stats, time.Since(start), nil)
		if stats.Missing > 0 {
			return 1
		}
		return 0
	}

	results := orch.Install(ctx, cfg.Force, cfg.DryRun)
	presenter.ShowTable(results)
	presenter.ShowFailures(results)

	stats := installer.Summarize(results)
	presenter.ShowSummary(stats, time.Since(start), orch.PathWarnings(results))

	logger.Debug("installation finished",
		"duration", time.Since(start),
		"success", stats.Success,
		"failed", stats.Failed,
		"skipped", stats.Skipped,
	)

	if stats.Failed > 0 || ctx.Err() != nil {
		return 1
	}
	return 0
}

// selectTools resuelve qué herramientas manejar: --tools, las fuentes
// habilitadas de una configuración de subterra, o todas las predefinidas.
func selectTools(cfg Config, logger logx.Logger) ([]installer.Tool, error) {
	catalog := installer.DefaultCatalog()
	if cfg.CatalogPath != "" {
		if err := catalog.LoadFile(cfg.CatalogPath); err != nil {
			return nil, err
		}
	}

	reg := registry.Default(logger)

	var names []string
	switch {
	case len(cfg.Tools) > 0:
		names = cfg.Tools

	case cfg.SubterraConfig != "":
		sc, err := config.Load([]string{"--config", cfg.SubterraConfig})
		if err != nil {
			return nil, err
		}
		specs, err := reg.Resolve(sc.Overrides())
		if err != nil {
			return nil, err
		}
		for _, spec := range specs {
			if spec.Phase == domain.PhasePermute && !sc.Permutation.Enabled {
				continue
			}
			if _, ok := catalog[spec.Name]; !ok {
				logger.Warn("custom source has no install recipe", "source", spec.Name)
				continue
			}
			names = append(names, spec.Name)
		}
		if sc.Prober.Checker == config.CheckerHTTPX {
			names = append(names, "httpx")
		}

	default:
		names = append(reg.List(), "httpx")
	}

	return catalog.Select(names)
}
