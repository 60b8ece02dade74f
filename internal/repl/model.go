// Package repl is the interactive sk prompt.
package repl

import (
	"context"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sk-lang/sk/internal/highlight"
	"github.com/sk-lang/sk/internal/history"
	"github.com/sk-lang/sk/internal/render"
	"github.com/sk-lang/sk/internal/session"
	"github.com/sk-lang/sk/internal/theme"
)

type Config struct {
	Prompt     string
	Theme      theme.Theme
	MaxHistory int
}

type Model struct {
	ctx    context.Context
	sess   *session.Session
	input  textinput.Model
	th     theme.Theme
	rend   *render.Renderer
	hl     *highlight.Highlighter
	prompt string

	recall []string
	cursor int
	draft  string

	last   string
	status statusMsg
	width  int
	copy   func(string) error
	done   bool
}

func New(ctx context.Context, sess *session.Session, cfg Config) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	prompt := cfg.Prompt
	if prompt == "" {
		prompt = "sk> "
	}
	in := textinput.New()
	in.Prompt = cfg.Theme.Prompt.Render(prompt)
	in.Placeholder = ":help"
	in.Focus()

	m := Model{
		ctx:    ctx,
		sess:   sess,
		input:  in,
		th:     cfg.Theme,
		rend:   render.New(cfg.Theme, 0),
		hl:     highlight.New(cfg.Theme),
		prompt: prompt,
		copy:   clipboard.WriteAll,
	}
	if store := sess.History(); store != nil {
		m.recall = store.Sources(history.ModeREPL)
		if cfg.MaxHistory > 0 && len(m.recall) > cfg.MaxHistory {
			m.recall = m.recall[len(m.recall)-cfg.MaxHistory:]
		}
	}
	m.cursor = len(m.recall)
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.rend.SetWidth(typed.Width)
		m.input.Width = max(typed.Width-len(m.prompt)-1, 10)
		return m, nil
	case statusMsg:
		m.status = typed
		return m, nil
	case tea.KeyMsg:
		if cmd, handled := m.handleKey(typed); handled {
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(k tea.KeyMsg) (tea.Cmd, bool) {
	switch k.Type {
	case tea.KeyCtrlC:
		m.done = true
		return tea.Quit, true
	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.done = true
			return tea.Quit, true
		}
	case tea.KeyUp:
		m.recallStep(-1)
		return nil, true
	case tea.KeyDown:
		m.recallStep(1)
		return nil, true
	case tea.KeyEnter:
		return m.submit(), true
	}
	return nil, false
}

func (m *Model) recallStep(dir int) {
	if len(m.recall) == 0 {
		return
	}
	if m.cursor == len(m.recall) {
		m.draft = m.input.Value()
	}
	next := m.cursor + dir
	if next < 0 || next > len(m.recall) {
		return
	}
	m.cursor = next
	if next == len(m.recall) {
		m.input.SetValue(m.draft)
	} else {
		m.input.SetValue(m.recall[next])
	}
	m.input.CursorEnd()
}

func (m *Model) submit() tea.Cmd {
	line := m.input.Value()
	m.input.SetValue("")
	m.status = statusMsg{}
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}
	if len(m.recall) == 0 || m.recall[len(m.recall)-1] != trimmed {
		m.recall = append(m.recall, trimmed)
	}
	m.cursor = len(m.recall)
	m.draft = ""

	echo := m.th.Prompt.Render(m.prompt) + m.hl.Line(line)
	out, status, quit := m.Eval(trimmed)
	cmds := []tea.Cmd{tea.Println(strings.Join(append([]string{echo}, out...), "\n"))}
	if status.text != "" {
		cmds = append(cmds, statusCmd(status.level, status.text))
	}
	if quit {
		m.done = true
		cmds = append(cmds, tea.Quit)
	}
	return tea.Sequence(cmds...)
}

// Eval handles one submitted line: a ':' command or sk source.
func (m *Model) Eval(line string) ([]string, statusMsg, bool) {
	if strings.HasPrefix(line, ":") {
		return m.exec(line)
	}
	res := m.sess.Run(m.ctx, history.ModeREPL, "", line)
	if res.Err != nil {
		return []string{m.rend.Error(res.Err, line)}, statusMsg{}, false
	}
	m.last = res.Val.String()
	return []string{m.rend.Result(res.Val)}, statusMsg{}, false
}

func (m Model) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.input.View())
	if m.status.text != "" {
		b.WriteString("\n")
		b.WriteString(m.statusStyle().Render(m.status.text))
	}
	return b.String()
}

func (m Model) statusStyle() lipgloss.Style {
	switch m.status.level {
	case statusWarn:
		return m.th.Caret
	case statusError:
		return m.th.Error
	case statusSuccess:
		return m.th.Success
	default:
		return m.th.Hint
	}
}

// Run starts the REPL on the terminal and blocks until the user quits.
func Run(ctx context.Context, sess *session.Session, cfg Config) error {
	p := tea.NewProgram(New(ctx, sess, cfg), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
