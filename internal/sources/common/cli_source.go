// Package common provides the process-backed source used by every
// enumeration and permutation tool.
package common

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"subterra/internal/core/domain"
	"subterra/internal/core/ports"
	"subterra/internal/platform/errors"
	"subterra/internal/platform/logx"
	"subterra/internal/sources/extract"
)

const (
	defaultWaitDelay   = 5 * time.Second
	defaultStderrLimit = 4 * 1024
)

// CLIConfig contains configuration shared by all CLI sources.
type CLIConfig struct {
	WorkDir     string        // parent of the per-run temp directories (default: os.TempDir())
	WaitDelay   time.Duration // grace period between interrupt and kill (default: 5s)
	StderrLimit int           // bytes of stderr kept for diagnostics (default: 4KB)
}

// CLISource runs one external tool per Run call.
//
// Every run gets its own temp directory named after the source; the raw
// output lands in <tmp>/<source>.out either because the command template
// writes to {output} or because stdout is redirected there. The directory
// is removed on every exit path.
type CLISource struct {
	spec   domain.SourceSpec
	cfg    CLIConfig
	logger logx.Logger

	// Process management
	mu  sync.Mutex
	cmd *exec.Cmd
}

var _ ports.Source = (*CLISource)(nil)

// NewCLISource validates spec and builds the source.
func NewCLISource(spec domain.SourceSpec, cfg CLIConfig, logger logx.Logger) (*CLISource, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if cfg.WaitDelay <= 0 {
		cfg.WaitDelay = defaultWaitDelay
	}
	if cfg.StderrLimit <= 0 {
		cfg.StderrLimit = defaultStderrLimit
	}

	return &CLISource{
		spec:   spec,
		cfg:    cfg,
		logger: logger.With("source", spec.Name),
	}, nil
}

// Name returns the source name.
func (c *CLISource) Name() string { return c.spec.Name }

// Spec returns the source definition.
func (c *CLISource) Spec() domain.SourceSpec { return c.spec }

// Run executes the tool against target and extracts candidate names.
func (c *CLISource) Run(ctx context.Context, target domain.Hostname, in ports.SourceInput) (res ports.SourceResult) {
	start := time.Now()
	res = ports.SourceResult{Candidates: []string{}, Attempts: 1}
	defer func() { res.Duration = time.Since(start) }()

	if c.spec.HasPlaceholder(domain.PlaceholderInput) && in.InputFile == "" {
		res.Outcome = domain.OutcomeSkipped
		res.Err = fmt.Errorf("%s: no input file", c.spec.Name)
		return res
	}
	if c.spec.HasPlaceholder(domain.PlaceholderWordlist) && in.Wordlist == "" {
		res.Outcome = domain.OutcomeSkipped
		res.Err = fmt.Errorf("%s: no wordlist configured", c.spec.Name)
		return res
	}

	tmpDir, err := os.MkdirTemp(c.cfg.WorkDir, "subterra-"+c.spec.Name+"-*")
	if err != nil {
		res.Outcome = domain.OutcomeFailed
		res.Err = errors.Wrapf(errors.ErrSourceFailed, "%s: create temp dir: %v", c.spec.Name, err)
		return res
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			c.logger.Warn("failed to remove temp dir", "dir", tmpDir, "error", rmErr)
		}
	}()

	outPath := filepath.Join(tmpDir, c.spec.Name+".out")
	args := c.spec.Expand(map[string]string{
		domain.PlaceholderDomain:   string(target),
		domain.PlaceholderOutput:   outPath,
		domain.PlaceholderInput:    in.InputFile,
		domain.PlaceholderWordlist: in.Wordlist,
	})

	stderr, runErr := c.execute(ctx, tmpDir, outPath, args)
	res.Stderr = stderr

	if outcome, err := classify(ctx, runErr); outcome != domain.OutcomeSuccess {
		res.Outcome = outcome
		res.Err = errors.Wrapf(err, "%s", c.spec.Name)
		c.logger.Warn("source did not complete", "outcome", outcome, "error", runErr, "stderr", stderr)
		return res
	}

	handler, err := extract.New(c.spec.Extract, target)
	if err != nil {
		res.Outcome = domain.OutcomeFailed
		res.Err = err
		return res
	}
	if err := parseFile(outPath, handler); err != nil {
		res.Outcome = domain.OutcomeFailed
		res.Err = errors.Wrapf(errors.ErrSourceFailed, "%s: parse output: %v", c.spec.Name, err)
		c.logger.Warn("failed to parse output", "error", err)
		return res
	}

	res.Candidates = handler.Candidates()
	res.Dropped = handler.Dropped()
	res.Malformed = handler.Malformed()

	if extract.Unparseable(handler) {
		res.Outcome = domain.OutcomeFailed
		res.Err = errors.Wrapf(errors.ErrSourceFailed, "%s: unparseable output (%d malformed records)", c.spec.Name, res.Malformed)
		c.logger.Warn("no usable record in output", "malformed", res.Malformed, "rule", c.spec.Extract.Kind)
		return res
	}
	if res.Malformed > 0 {
		c.logger.Warn("skipped malformed records", "malformed", res.Malformed)
	}

	res.Outcome = domain.OutcomeSuccess
	c.logger.Debug("source completed",
		"candidates", len(res.Candidates),
		"dropped", res.Dropped,
		"duration", time.Since(start),
	)
	return res
}

// execute runs the process under the source timeout and returns the
// captured stderr tail.
func (c *CLISource) execute(ctx context.Context, dir, outPath string, args []string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, c.spec.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, args[0], args[1:]...)
	cmd.Dir = dir
	cmd.Stdin = nil
	cmd.WaitDelay = c.cfg.WaitDelay
	cmd.Cancel = func() error {
		// Try SIGINT first; WaitDelay escalates to Kill
		return cmd.Process.Signal(os.Interrupt)
	}

	stderr := newTailBuffer(c.cfg.StderrLimit)
	cmd.Stderr = stderr

	if c.spec.HasPlaceholder(domain.PlaceholderOutput) {
		cmd.Stdout = io.Discard
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return "", errors.Wrapf(errors.ErrSourceFailed, "create output file: %v", err)
		}
		defer f.Close()
		cmd.Stdout = f
	}

	c.logger.Info("executing CLI command",
		"args", args,
		"timeout", c.spec.Timeout.String(),
	)

	// Store command reference for Close()
	c.mu.Lock()
	c.cmd = cmd
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.cmd = nil
		c.mu.Unlock()
	}()

	if err := cmd.Start(); err != nil {
		return "", errors.Wrapf(errors.ErrSourceFailed, "start process: %v", err)
	}
	c.logger.Debug("subprocess started", "pid", cmd.Process.Pid)

	err := cmd.Wait()
	if runCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		return stderr.String(), errors.Wrapf(errors.ErrSourceTimeout, "after %s", c.spec.Timeout)
	}
	if err != nil {
		return stderr.String(), errors.Wrapf(errors.ErrSourceFailed, "process exited with error: %v", err)
	}
	return stderr.String(), nil
}

// classify maps the execution error to an outcome.
func classify(ctx context.Context, err error) (domain.Outcome, error) {
	switch {
	case err == nil:
		return domain.OutcomeSuccess, nil
	case ctx.Err() != nil:
		return domain.OutcomeCanceled, errors.Wrap(ctx.Err(), "run canceled")
	case errors.Is(err, errors.ErrSourceTimeout):
		return domain.OutcomeTimedOut, err
	default:
		return domain.OutcomeFailed, err
	}
}

// parseFile feeds the captured output to the handler. A missing file means
// the tool found nothing.
func parseFile(path string, h extract.Handler) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return h.Finalize()
	}
	if err != nil {
		return err
	}
	defer f.Close()
	return extract.Feed(f, h)
}

// Preflight verifies that the tool binary can be resolved.
func (c *CLISource) Preflight() error {
	if _, err := exec.LookPath(c.spec.Command[0]); err != nil {
		return errors.Wrapf(errors.ErrSourceFailed, "%s not found in PATH: %v", c.spec.Command[0], err)
	}
	return nil
}

// Close terminates an in-flight subprocess.
// Safe to call multiple times (idempotent).
func (c *CLISource) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cmd != nil && c.cmd.Process != nil {
		proc := c.cmd.Process
		state := c.cmd.ProcessState

		if state == nil || !state.Exited() {
			if err := proc.Kill(); err != nil && err != os.ErrProcessDone {
				c.logger.Warn("failed to kill process", "error", err.Error())
			}
		}
		c.cmd = nil
	}
	return nil
}
