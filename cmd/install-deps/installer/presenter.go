package installer

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pterm/pterm"
)

// Presenter muestra el estado de las herramientas con pterm.
type Presenter struct {
	out   io.Writer
	quiet bool
}

// NewPresenter creates a presenter writing to out.
func NewPresenter(out io.Writer, quiet bool) *Presenter {
	return &Presenter{out: out, quiet: quiet}
}

// ShowHeader displays the installer header.
func (p *Presenter) ShowHeader() {
	if p.quiet {
		return
	}
	header := pterm.DefaultHeader.
		WithBackgroundStyle(pterm.NewStyle(pterm.BgCyan)).
		WithTextStyle(pterm.NewStyle(pterm.FgBlack)).
		Sprint("subterra - external tools")
	pterm.Fprintln(p.out, header)
}

// ShowProgress displays real-time installation progress.
func (p *Presenter) ShowProgress(tool, message string) {
	if p.quiet {
		return
	}
	pterm.Fprintln(p.out, fmt.Sprintf("  • %-12s %s", tool, message))
}

// ShowTable muestra una fila por herramienta.
func (p *Presenter) ShowTable(results []Result) {
	data := pterm.TableData{{"Tool", "Kind", "Status", "Version", "Location"}}
	for _, r := range results {
		location := r.Path
		if location == "" {
			location = r.Message
		}
		data = append(data, []string{
			r.Tool.Name,
			string(r.Tool.Kind),
			statusStyle(r.Status).Sprint(statusLabel(r.Status)),
			shortVersion(r.Version),
			location,
		})
	}
	table, err := pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithData(data).
		Srender()
	if err != nil {
		return
	}
	pterm.Fprintln(p.out, table)
}

// ShowFailures muestra el contexto de cada fallo.
func (p *Presenter) ShowFailures(results []Result) {
	for _, r := range results {
		if r.Status != StatusFailed || r.Context == nil {
			continue
		}
		pterm.Fprintln(p.out)
		pterm.Fprintln(p.out, pterm.Red(fmt.Sprintf("✗ %s", r.Tool.Name)))
		for _, line := range strings.Split(strings.TrimRight(r.Context.String(), "\n"), "\n") {
			pterm.Fprintln(p.out, "    "+line)
		}
	}
}

// ShowSummary displays the final summary line and PATH hints.
func (p *Presenter) ShowSummary(stats Stats, duration time.Duration, pathDirs []string) {
	pterm.Fprintln(p.out)
	line := fmt.Sprintf("%d ready, %d failed, %d skipped", stats.Success, stats.Failed, stats.Skipped)
	if stats.Missing > 0 {
		line += fmt.Sprintf(", %d missing", stats.Missing)
	}
	line += fmt.Sprintf(" (%.1fs)", duration.Seconds())
	pterm.Fprintln(p.out, line)

	for _, dir := range pathDirs {
		pterm.Fprintln(p.out)
		pterm.Fprintln(p.out, pterm.Yellow(fmt.Sprintf("⚠  %s is not in your PATH", dir)))
		pterm.Fprintln(p.out, fmt.Sprintf("   export PATH=\"%s:$PATH\"", dir))
	}
	if stats.Missing > 0 {
		pterm.Fprintln(p.out)
		pterm.Fprintln(p.out, "Run install-deps without --check to install the missing tools.")
	}
}

func statusLabel(s Status) string {
	switch s {
	case StatusAlreadyInstalled:
		return "✓ installed"
	case StatusSuccess:
		return "✓ new"
	case StatusFailed:
		return "✗ failed"
	case StatusMissing:
		return "✗ missing"
	default:
		return "⊘ skipped"
	}
}

func statusStyle(s Status) *pterm.Style {
	switch s {
	case StatusAlreadyInstalled, StatusSuccess:
		return pterm.NewStyle(pterm.FgGreen)
	case StatusFailed, StatusMissing:
		return pterm.NewStyle(pterm.FgRed)
	default:
		return pterm.NewStyle(pterm.FgYellow)
	}
}

// shortVersion trunca versiones largas o multilínea.
func shortVersion(v string) string {
	if idx := strings.Index(v, "\n"); idx > 0 {
		v = v[:idx]
	}
	if len(v) > 12 {
		v = v[:9] + "..."
	}
	if v == "" {
		return "-"
	}
	return v
}
