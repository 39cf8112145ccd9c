// Package dashboard implements the "-b" side-by-side stack/instruction
// view of SPEC_FULL.md §4.J. It watches execution through vm.Observer,
// so internal/vm never imports a TUI library.
package dashboard

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nilnovi/nnp/internal/code"
	"github.com/nilnovi/nnp/internal/vm"
)

var (
	paneStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(32)
	hiStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

// Update is one snapshot of VM state, sent to the bubbletea model each
// time the VM steps.
type Update struct {
	CO    int
	Base  int
	Stack []int
	Instr code.Instruction
	Phase string
}

// Watcher is a vm.Observer that forwards every step as an Update.
type Watcher struct {
	updates chan Update
}

// NewWatcher constructs a Watcher ready to install via vm.SetObserver.
func NewWatcher() *Watcher {
	return &Watcher{updates: make(chan Update, 16)}
}

// BeforeStep implements vm.Observer.
func (w *Watcher) BeforeStep(v *vm.VM, instr code.Instruction) {
	w.updates <- Update{CO: v.CO(), Base: v.Base(), Stack: v.Stack(), Instr: instr, Phase: "before"}
}

// AfterStep implements vm.Observer.
func (w *Watcher) AfterStep(v *vm.VM, instr code.Instruction) {
	w.updates <- Update{CO: v.CO(), Base: v.Base(), Stack: v.Stack(), Instr: instr, Phase: "after"}
}

type runDoneMsg struct{ err error }

type model struct {
	updates <-chan Update
	doneCh  <-chan error
	latest  Update
	done    bool
	runErr  error
}

func waitForUpdate(updates <-chan Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return nil
		}
		return u
	}
}

func waitForRun(doneCh <-chan error) tea.Cmd {
	return func() tea.Msg {
		return runDoneMsg{err: <-doneCh}
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.updates), waitForRun(m.doneCh))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case Update:
		m.latest = msg
		return m, waitForUpdate(m.updates)
	case runDoneMsg:
		m.done = true
		m.runErr = msg.err
		return m, nil
	}
	return m, nil
}

func (m model) View() string {
	stackPane := paneStyle.Render(renderStack(m.latest.Stack, m.latest.Base))
	instrPane := paneStyle.Render(renderInstructions(m.latest.Instr, m.latest.CO))
	body := lipgloss.JoinHorizontal(lipgloss.Top, stackPane, instrPane)

	status := fmt.Sprintf("co=%d base=%d last=%s", m.latest.CO, m.latest.Base, m.latest.Instr)
	if m.done {
		if m.runErr != nil {
			status = fmt.Sprintf("%s — stopped: %v", status, m.runErr)
		} else {
			status = fmt.Sprintf("%s — halted", status)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, body, status, dimStyle.Render("press q to quit"))
}

func renderStack(stack []int, base int) string {
	if len(stack) == 0 {
		return "stack (empty)"
	}
	var b strings.Builder
	b.WriteString("stack\n")
	for i := len(stack) - 1; i >= 0; i-- {
		line := fmt.Sprintf("%3d: %d", i, stack[i])
		if i == base {
			line = hiStyle.Render(line + "  <- base")
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func renderInstructions(last code.Instruction, co int) string {
	return fmt.Sprintf("instruction\nco=%d\n%s", co, last.String())
}

// Run attaches a Watcher to v, runs the VM on a background goroutine,
// and blocks displaying the dashboard until the user presses "q" or
// ctrl+c. When the program halts or fails first, its final state and
// status stay on screen until then.
func Run(v *vm.VM) error {
	w := NewWatcher()
	v.SetObserver(w)

	doneCh := make(chan error, 1)
	go func() {
		err := v.Run()
		close(w.updates)
		doneCh <- err
	}()

	m := model{updates: w.updates, doneCh: doneCh}
	p := tea.NewProgram(m)
	finalModel, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := finalModel.(model); ok {
		return fm.runErr
	}
	return nil
}
