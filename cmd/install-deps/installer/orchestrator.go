package installer

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"subterra/internal/platform/logx"
)

// Orchestrator coordinates checking and installing the selected tools.
type Orchestrator struct {
	tools    []Tool
	sys      SystemInfo
	run      Runner
	logger   logx.Logger
	progress ProgressCallback
}

// Options configura el orchestrator.
type Options struct {
	Tools    []Tool
	System   SystemInfo
	Runner   Runner // default: ExecRunner
	Logger   logx.Logger
	Progress ProgressCallback
}

// NewOrchestrator creates a new installation orchestrator.
func NewOrchestrator(opts Options) *Orchestrator {
	if opts.Runner == nil {
		opts.Runner = ExecRunner
	}
	if opts.Logger == nil {
		opts.Logger = logx.New()
	}
	if opts.Progress == nil {
		opts.Progress = func(string, string) {}
	}
	return &Orchestrator{
		tools:    opts.Tools,
		sys:      opts.System,
		run:      opts.Runner,
		logger:   opts.Logger.With("component", "installer"),
		progress: opts.Progress,
	}
}

// Check verifica el estado de todas las herramientas sin instalar nada.
func (o *Orchestrator) Check(ctx context.Context) []Result {
	results := make([]Result, 0, len(o.tools))
	for _, t := range o.tools {
		start := time.Now()
		inst := NewCommandInstaller(t, o.sys, o.run)

		res := Result{Tool: t, Status: StatusMissing, Message: "not installed"}
		if path, version, ok := inst.Check(ctx); ok {
			res.Status = StatusAlreadyInstalled
			res.Path = path
			res.Version = version
			res.Message = "installed"
		}
		res.Duration = time.Since(start)

		o.logger.Debug("tool checked", "tool", t.Name, "status", res.Status, "path", res.Path)
		results = append(results, res)
	}
	return results
}

// Install instala las herramientas que faltan (todas con force). Con dryRun
// solo informa los comandos.
func (o *Orchestrator) Install(ctx context.Context, force, dryRun bool) []Result {
	results := make([]Result, 0, len(o.tools))
	for _, t := range o.tools {
		if ctx.Err() != nil {
			results = append(results, Result{Tool: t, Status: StatusSkipped, Message: "interrupted"})
			continue
		}
		results = append(results, o.installOne(ctx, t, force, dryRun))
	}
	return results
}

func (o *Orchestrator) installOne(ctx context.Context, t Tool, force, dryRun bool) Result {
	start := time.Now()
	inst := NewCommandInstaller(t, o.sys, o.run)
	res := Result{Tool: t}

	if path, version, ok := inst.Check(ctx); ok && !force {
		res.Status = StatusAlreadyInstalled
		res.Path = path
		res.Version = version
		res.Message = "already installed"
		res.Duration = time.Since(start)
		return res
	}

	cmd := inst.Command()
	if dryRun {
		res.Status = StatusSkipped
		if len(cmd) == 0 {
			res.Message = "manual: " + t.Hint
		} else {
			res.Message = fmt.Sprintf("would run: %v", cmd)
		}
		return res
	}

	o.progress(t.Name, "installing")
	o.logger.Debug("installing tool", "tool", t.Name, "kind", t.Kind, "package", t.Package)

	if err := inst.Install(ctx); err != nil {
		res.Status = StatusFailed
		res.Error = err
		res.Context = AnalyzeError(t, "install", err)
		res.Message = "installation failed"
		res.Duration = time.Since(start)
		o.logger.Warn("tool installation failed", "tool", t.Name, "error", err.Error())
		return res
	}

	o.progress(t.Name, "validating")
	path, version, ok := inst.Check(ctx)
	if !ok {
		err := fmt.Errorf("%s installed but %s is not reachable", t.Name, t.BinaryName())
		res.Status = StatusFailed
		res.Error = err
		res.Context = AnalyzeError(t, "validate", err)
		res.Message = "binary not found after install"
		res.Duration = time.Since(start)
		return res
	}

	res.Status = StatusSuccess
	res.Path = path
	res.Version = version
	res.Message = "installed"
	res.Duration = time.Since(start)
	return res
}

// PathWarnings retorna los directorios de instalación que no están en PATH
// y contienen alguna herramienta recién instalada.
func (o *Orchestrator) PathWarnings(results []Result) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, r := range results {
		if r.Status != StatusSuccess || r.Path == "" {
			continue
		}
		dir := filepath.Dir(r.Path)
		if seen[dir] || IsInPath(dir, o.sys.PathEntries) {
			continue
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}
	return dirs
}

// Stats resume los resultados.
type Stats struct {
	Total   int
	Success int
	Failed  int
	Skipped int
	Missing int
}

// Summarize computes statistics from results.
func Summarize(results []Result) Stats {
	s := Stats{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusSuccess, StatusAlreadyInstalled:
			s.Success++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		case StatusMissing:
			s.Missing++
		}
	}
	return s
}
