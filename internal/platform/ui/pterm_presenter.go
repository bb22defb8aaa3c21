// internal/platform/ui/pterm_presenter.go
package ui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pterm/pterm"

	"subterra/internal/core/domain"
	"subterra/internal/core/ports"
)

// PTermPresenter implementa Presenter usando la biblioteca pterm
// para renderizar spinners, barra de progreso y el resumen final.
type PTermPresenter struct {
	mu sync.Mutex

	info ports.RunInfo

	// Spinners activos por fuente
	spinners map[string]*pterm.SpinnerPrinter

	// Barra de la fase de liveness en curso
	bar       *pterm.ProgressbarPrinter
	probeDone int
	probeLive int

	phase domain.Phase
}

var _ Presenter = (*PTermPresenter)(nil)

// NewPTermPresenter crea una nueva instancia del presenter con pterm
func NewPTermPresenter() *PTermPresenter {
	return &PTermPresenter{
		spinners: make(map[string]*pterm.SpinnerPrinter),
	}
}

// RunStarted muestra el header de la corrida
func (p *PTermPresenter) RunStarted(info ports.RunInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.info = info

	pterm.DefaultHeader.
		WithBackgroundStyle(pterm.NewStyle(pterm.BgCyan)).
		WithTextStyle(pterm.NewStyle(pterm.FgBlack)).
		Println("subterra - subdomain discovery")

	pterm.Println()

	panel := pterm.DefaultBox.
		WithTitle("Run").
		WithTitleTopCenter().
		WithRightPadding(4).
		WithLeftPadding(4).
		WithBoxStyle(pterm.NewStyle(pterm.FgCyan))

	content := fmt.Sprintf("%s Target: %s\n", IconTarget, pterm.Cyan(string(info.Domain)))
	content += fmt.Sprintf("%s Sources: %s\n", IconSources, strings.Join(info.Sources, ", "))
	content += fmt.Sprintf("%s Parallel sources: %d\n", IconWorkers, info.Parallel)
	content += fmt.Sprintf("   Output: %s\n", info.OutputDir)
	content += fmt.Sprintf("   Run ID: %s", pterm.Gray(info.RunID))
	panel.Println(content)

	pterm.Println()
}

// SourceStarted crea un spinner para la fuente
func (p *PTermPresenter) SourceStarted(name string, phase domain.Phase) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.enterPhase(phase)

	spinner, err := pterm.DefaultSpinner.
		WithStyle(pterm.NewStyle(pterm.FgCyan)).
		WithSequence("⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷").
		WithRemoveWhenDone(true).
		Start(fmt.Sprintf("  Running %s...", pterm.Cyan(name)))
	if err != nil {
		return
	}
	p.spinners[name] = spinner
}

// SourceFinished reemplaza el spinner por la línea de resultado
func (p *PTermPresenter) SourceFinished(s domain.SourceStats) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.enterPhase(s.Phase)

	if spinner, ok := p.spinners[s.Name]; ok {
		_ = spinner.Stop()
		delete(p.spinners, s.Name)
	}

	status := StatusFromOutcome(s.Outcome)
	line := fmt.Sprintf("  %s %s", status.Symbol(), s.Name)
	if s.Outcome != domain.OutcomeSkipped {
		line += fmt.Sprintf(" (%s)", formatDuration(s.Duration))
		line += fmt.Sprintf(" %s %s new / %d valid / %d emitted",
			IconNames,
			pterm.Cyan(fmt.Sprintf("%d", s.Added)),
			s.Valid,
			s.Emitted,
		)
	}
	if s.Outcome != domain.OutcomeSuccess {
		line += fmt.Sprintf(" [%s]", s.Outcome)
	}
	if s.Error != "" {
		line += " " + pterm.Gray(s.Error)
	}
	status.Style().Println(line)
}

// ProbeStarted arranca la barra de progreso
func (p *PTermPresenter) ProbeStarted(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopBar()
	p.probeDone, p.probeLive = 0, 0
	if total <= 0 {
		return
	}

	title := "Probing"
	if p.phase == domain.PhasePermute {
		title = "Probing permutations"
	}

	bar, err := pterm.DefaultProgressbar.
		WithTotal(total).
		WithTitle(title).
		WithRemoveWhenDone(true).
		Start()
	if err != nil {
		return
	}
	p.bar = bar
}

// ProbeProgress avanza la barra hasta el contador recibido
func (p *PTermPresenter) ProbeProgress(pr ports.ProbeProgress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil || pr.Done <= p.probeDone {
		return
	}
	p.bar.Add(pr.Done - p.probeDone)
	p.probeDone = pr.Done
	if pr.Live != p.probeLive {
		p.probeLive = pr.Live
		p.bar.UpdateTitle(fmt.Sprintf("Probing (%d live)", pr.Live))
	}
}

// ProbeFinished cierra la barra e informa el resultado
func (p *PTermPresenter) ProbeFinished(s domain.ProbeStats) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopBar()
	if s.Total == 0 {
		return
	}
	pterm.Info.Printf("%s %d/%d live (%d new), %d errors, %d batches committed\n",
		IconLive, s.Live, s.Probed, s.NewLive, s.Errors, s.Batches)
}

// RunFinished muestra el resumen final
func (p *PTermPresenter) RunFinished(s *domain.RunStats) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopAll()
	if s == nil {
		return
	}

	pterm.Println()
	pterm.Println(pterm.LightBlue(SeparatorHeavy))
	pterm.Println()

	headerStyle := pterm.NewStyle(pterm.BgGreen)
	title := "Run Completed"
	if s.Interrupted {
		headerStyle = pterm.NewStyle(pterm.BgYellow)
		title = "Run Interrupted"
	} else if s.Error != "" {
		headerStyle = pterm.NewStyle(pterm.BgRed)
		title = "Run Failed"
	}
	pterm.DefaultHeader.
		WithBackgroundStyle(headerStyle).
		WithTextStyle(pterm.NewStyle(pterm.FgBlack)).
		Println(title)

	pterm.Println()

	content := fmt.Sprintf("%s Runtime: %s (hh:mm:ss)\n", IconTime, pterm.Green(domain.FormatElapsed(s.Elapsed)))
	content += fmt.Sprintf("%s Subdomains: %s (%d new)\n", IconNames, pterm.Cyan(fmt.Sprintf("%d", s.TotalCanonical)), s.NewNames)
	content += fmt.Sprintf("%s Live: %s (%d new)\n", IconLive, pterm.Green(fmt.Sprintf("%d", s.TotalLive)), s.Probe.NewLive)
	if s.PermutationCandidates > 0 {
		content += fmt.Sprintf("   Permutations: %d candidates, %d live\n", s.PermutationCandidates, s.PermutationLive)
	}
	content += fmt.Sprintf("%s Sources: %d ok", IconSources, s.CountOutcome(domain.OutcomeSuccess))
	if failed := s.FailedSources(); len(failed) > 0 {
		content += pterm.Red(fmt.Sprintf(", %d failed (%s)", len(failed), strings.Join(failed, ", ")))
	}
	if s.Error != "" {
		content += "\n" + pterm.Red(s.Error)
	}

	pterm.DefaultBox.
		WithTitle("Summary").
		WithTitleTopCenter().
		WithRightPadding(4).
		WithLeftPadding(4).
		WithBoxStyle(pterm.NewStyle(pterm.FgGreen)).
		Println(content)

	if len(s.Sources) > 0 {
		pterm.Println()
		table := pterm.TableData{{"Source", "Phase", "Outcome", "Emitted/Valid/Added", "Duration"}}
		for _, src := range s.Sources {
			table = append(table, []string{
				src.Name,
				src.Phase.String(),
				StatusFromOutcome(src.Outcome).Style().Sprint(src.Outcome.String()),
				sourceCounts(src),
				formatDuration(src.Duration),
			})
		}
		_ = pterm.DefaultTable.
			WithHasHeader().
			WithBoxed().
			WithData(table).
			Render()
	}

	pterm.Println()
}

// Info muestra un mensaje informativo
func (p *PTermPresenter) Info(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pterm.Info.Println(msg)
}

// Warning muestra una advertencia
func (p *PTermPresenter) Warning(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pterm.Warning.Println(msg)
}

// Error muestra un error
func (p *PTermPresenter) Error(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pterm.Error.Println(msg)
}

// Close detiene spinners y barra activos
func (p *PTermPresenter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopAll()
	return nil
}

// enterPhase imprime la sección al cambiar de fase. Requiere p.mu.
func (p *PTermPresenter) enterPhase(phase domain.Phase) {
	if phase == p.phase {
		return
	}
	p.phase = phase

	name := "Enumeration"
	if phase == domain.PhasePermute {
		name = "Permutation"
	}
	pterm.DefaultSection.WithLevel(2).Println(fmt.Sprintf("%s %s", IconPhase, name))
}

// stopBar requiere p.mu.
func (p *PTermPresenter) stopBar() {
	if p.bar != nil {
		_, _ = p.bar.Stop()
		p.bar = nil
	}
}

// stopAll requiere p.mu.
func (p *PTermPresenter) stopAll() {
	for name, spinner := range p.spinners {
		_ = spinner.Stop()
		delete(p.spinners, name)
	}
	p.stopBar()
}
