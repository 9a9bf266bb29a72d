package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/stackgen/stackgen/internal/pipeline"
)

var _ pipeline.Observer = (*StageProgress)(nil)

// StageProgress reports pipeline progress. Interactive terminals get an
// animated spinner for the running stage; headless output is one line per
// event.
type StageProgress struct {
	theme    *Theme
	headless *HeadlessManager
	writer   io.Writer

	mu      sync.Mutex
	spinner *stageSpinner
}

// NewStageProgress creates a StageProgress writing to w.
func NewStageProgress(theme *Theme, hm *HeadlessManager, w io.Writer) *StageProgress {
	return &StageProgress{theme: theme, headless: hm, writer: w}
}

func (p *StageProgress) interactive() bool {
	return !p.headless.IsHeadless() && !p.theme.NoColor
}

// OnStageStart implements pipeline.Observer.
func (p *StageProgress) OnStageStart(stage string, index, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	title := fmt.Sprintf("[%d/%d] %s", index, total, stage)
	if !p.interactive() {
		_, _ = fmt.Fprintln(p.writer, title)
		return
	}
	if p.spinner == nil {
		p.spinner = newStageSpinner(p.theme, title, tea.WithOutput(p.writer))
		return
	}
	p.spinner.SetTitle(title)
}

// OnStageComplete implements pipeline.Observer.
func (p *StageProgress) OnStageComplete(r pipeline.StageResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	line := p.resultLine(r)
	if p.spinner != nil {
		p.spinner.Println(line)
		return
	}
	_, _ = fmt.Fprintln(p.writer, line)
}

// OnRunComplete implements pipeline.Observer.
func (p *StageProgress) OnRunComplete(*pipeline.RunResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.spinner != nil {
		p.spinner.Stop()
		p.spinner = nil
	}
}

func (p *StageProgress) resultLine(r pipeline.StageResult) string {
	elapsed := p.theme.Muted("(" + r.Duration.Round(time.Millisecond).String() + ")")
	switch {
	case r.Success:
		line := fmt.Sprintf("  %s %s %s", p.theme.Success("✓"), r.Name, elapsed)
		for _, w := range r.Warnings {
			line += "\n    " + p.theme.Warning("! "+w)
		}
		return line
	case r.Required:
		return fmt.Sprintf("  %s %s %s: %v", p.theme.Error("✗"), r.Name, elapsed, r.Err)
	default:
		return fmt.Sprintf("  %s %s %s: %v (optional)", p.theme.Warning("!"), r.Name, elapsed, r.Err)
	}
}

type (
	retitleMsg string
	finishMsg  struct{}
)

// stageModel renders one spinner line for the running stage. Finished
// stage lines are printed above it with tea.Println.
type stageModel struct {
	spin  spinner.Model
	title string
	quit  bool
}

func (m stageModel) Init() tea.Cmd { return m.spin.Tick }

func (m stageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case retitleMsg:
		m.title = string(msg)
	case finishMsg:
		m.quit = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quit = true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m stageModel) View() string {
	if m.quit {
		return ""
	}
	return m.spin.View() + " " + m.title + "\n"
}

// stageSpinner runs a stageModel on a background tea.Program.
type stageSpinner struct {
	program *tea.Program
	exited  chan struct{}
	stop    sync.Once
}

func newStageSpinner(theme *Theme, title string, opts ...tea.ProgramOption) *stageSpinner {
	spin := spinner.New(spinner.WithSpinner(spinner.Dot))
	if !theme.NoColor {
		spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Colors.Primary))
	}
	s := &stageSpinner{
		program: tea.NewProgram(stageModel{spin: spin, title: title}, opts...),
		exited:  make(chan struct{}),
	}
	go func() {
		defer close(s.exited)
		_, _ = s.program.Run()
	}()
	return s
}

func (s *stageSpinner) SetTitle(title string) { s.program.Send(retitleMsg(title)) }

func (s *stageSpinner) Println(line string) { s.program.Println(line) }

// Stop quits the program and blocks until it has restored the terminal.
func (s *stageSpinner) Stop() {
	s.stop.Do(func() {
		s.program.Send(finishMsg{})
		<-s.exited
	})
}
