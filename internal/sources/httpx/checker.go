// Package httpx adapts the projectdiscovery httpx binary as a liveness checker.
// Each check runs one httpx process against a single host and reads its
// JSON line; the status policy is applied here, not through httpx flags.
package httpx

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/go-json-experiment/json"

	"subterra/internal/core/domain"
	"subterra/internal/core/ports"
	"subterra/internal/platform/errors"
	"subterra/internal/platform/logx"
)

const (
	defaultBinary    = "httpx"
	defaultTimeout   = 6 * time.Second
	defaultWaitDelay = 2 * time.Second
)

// Config configures the external checker.
type Config struct {
	Binary    string        // path or name of the httpx binary (default: httpx)
	Timeout   time.Duration // per-request timeout passed to httpx; the process gets twice that
	ExtraArgs []string      // appended verbatim (e.g. -rl 300)
	Policy    *domain.StatusPolicy
}

// Checker implements ports.LivenessChecker by running httpx.
type Checker struct {
	cfg    Config
	policy domain.StatusPolicy
	logger logx.Logger
}

var _ ports.LivenessChecker = (*Checker)(nil)

// New builds the checker, filling defaults.
func New(cfg Config, logger logx.Logger) *Checker {
	if cfg.Binary == "" {
		cfg.Binary = defaultBinary
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	policy := domain.DefaultStatusPolicy()
	if cfg.Policy != nil {
		policy = *cfg.Policy
	}
	return &Checker{
		cfg:    cfg,
		policy: policy,
		logger: logger.With("component", "httpx-checker"),
	}
}

// Preflight verifies that the binary can be resolved.
func (c *Checker) Preflight() error {
	if _, err := exec.LookPath(c.cfg.Binary); err != nil {
		return errors.Wrapf(errors.ErrInvalidConfig, "httpx binary %q not found: %v", c.cfg.Binary, err)
	}
	return nil
}

// Check runs httpx for one host.
func (c *Checker) Check(ctx context.Context, name domain.Hostname) ports.CheckResult {
	result := ports.CheckResult{Name: name}

	out, err := c.run(ctx, name)
	if err != nil {
		result.Err = errors.Wrapf(errors.ErrProbeFailed, "%s: %v", name, err)
		return result
	}

	responses, err := parseResponses(out)
	if err != nil {
		c.logger.Debug("unparseable httpx output", "name", name, "error", err)
	}

	for _, resp := range responses {
		if resp.Failed.Bool() || resp.StatusCode <= 0 {
			continue
		}
		result.URL = resp.URL
		result.StatusCode = resp.StatusCode
		if c.policy.Live(resp.StatusCode) {
			result.Live = true
			c.logger.Debug("live", "url", resp.URL, "status", resp.StatusCode, "title", resp.Title.String())
			return result
		}
	}
	return result
}

func (c *Checker) run(ctx context.Context, name domain.Hostname) ([]byte, error) {
	runCtx, cancel := context.WithTimeout(ctx, 2*c.cfg.Timeout)
	defer cancel()

	args := []string{
		"-u", string(name),
		"-silent",
		"-json",
		"-no-color",
		"-timeout", strconv.Itoa(int(c.cfg.Timeout.Seconds() + 0.5)),
	}
	args = append(args, c.cfg.ExtraArgs...)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, c.cfg.Binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = defaultWaitDelay
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}

	if err := cmd.Run(); err != nil {
		if runCtx.Err() != nil {
			return nil, fmt.Errorf("httpx did not finish: %w", runCtx.Err())
		}
		return nil, fmt.Errorf("httpx exited: %w (%s)", err, bytes.TrimSpace(stderr.Bytes()))
	}
	return stdout.Bytes(), nil
}

// parseResponses decodes every JSON line, skipping lines that are not JSON
// objects. The first decode error is returned alongside what was parsed.
func parseResponses(out []byte) ([]HTTPXResponse, error) {
	var (
		responses []HTTPXResponse
		firstErr  error
	)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		var resp HTTPXResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		responses = append(responses, resp)
	}
	if err := scanner.Err(); err != nil && firstErr == nil {
		firstErr = err
	}
	return responses, firstErr
}
