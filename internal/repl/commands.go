package repl

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/sk-lang/sk/internal/history"
)

type command struct {
	name string
	args string
	help string
	run  func(m *Model, arg string) ([]string, statusMsg, bool)
}

var commands []command

func init() {
	commands = []command{
		{name: "help", help: "show this help", run: (*Model).cmdHelp},
		{name: "quit", help: "leave the REPL", run: (*Model).cmdQuit},
		{name: "history", args: "[n]", help: "list recent runs", run: (*Model).cmdHistory},
		{name: "copy", help: "copy the last result to the clipboard", run: (*Model).cmdCopy},
		{name: "vars", help: "list global variables", run: (*Model).cmdVars},
		{name: "reset", help: "drop all global variables", run: (*Model).cmdReset},
	}
}

func lookupCommand(name string) (command, bool) {
	if name == "q" || name == "exit" {
		name = "quit"
	}
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// exec runs a ":name arg" line and returns output lines, a status and whether to quit.
func (m *Model) exec(line string) ([]string, statusMsg, bool) {
	body := strings.TrimSpace(strings.TrimPrefix(line, ":"))
	name, arg, _ := strings.Cut(body, " ")
	c, ok := lookupCommand(strings.ToLower(name))
	if !ok {
		return nil, statusMsg{
			text:  fmt.Sprintf("unknown command :%s (try :help)", name),
			level: statusWarn,
		}, false
	}
	return c.run(m, strings.TrimSpace(arg))
}

func (m *Model) cmdHelp(string) ([]string, statusMsg, bool) {
	out := make([]string, 0, len(commands)+1)
	out = append(out, m.th.Hint.Render("enter sk statements; commands start with ':'"))
	for _, c := range commands {
		usage := ":" + c.name
		if c.args != "" {
			usage += " " + c.args
		}
		out = append(out, fmt.Sprintf("  %-12s %s", usage, m.th.Hint.Render(c.help)))
	}
	return out, statusMsg{}, false
}

func (m *Model) cmdQuit(string) ([]string, statusMsg, bool) {
	return nil, statusMsg{}, true
}

const defaultHistoryRows = 10

func (m *Model) cmdHistory(arg string) ([]string, statusMsg, bool) {
	store := m.sess.History()
	if store == nil {
		return nil, statusMsg{text: "history is disabled", level: statusInfo}, false
	}
	n := defaultHistoryRows
	if arg != "" {
		v, err := strconv.Atoi(arg)
		if err != nil || v <= 0 {
			return nil, statusMsg{text: "usage: :history [n]", level: statusWarn}, false
		}
		n = v
	}
	entries := store.Entries()
	if len(entries) == 0 {
		return nil, statusMsg{text: "no history yet", level: statusInfo}, false
	}
	if len(entries) > n {
		entries = entries[:n]
	}
	out := make([]string, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, m.historyRow(entries[i]))
	}
	return out, statusMsg{}, false
}

func (m *Model) historyRow(e history.Entry) string {
	mark := m.th.Success.Render("ok ")
	tail := e.Result
	if e.Failed() {
		mark = m.th.Error.Render("err")
		tail = e.Error
	}
	src := strings.Join(strings.Fields(e.Source), " ")
	head := fmt.Sprintf("%s %8s  ", e.ExecutedAt.Format("15:04:05"), e.Duration.Round(time.Microsecond))
	room := m.width - runewidth.StringWidth(head) - 4 - 3
	if room < 20 {
		room = 60
	}
	text := src
	if tail != "" {
		text += "  => " + tail
	}
	return m.th.Muted.Render(head) + mark + " " + runewidth.Truncate(text, room, "…")
}

func (m *Model) cmdCopy(string) ([]string, statusMsg, bool) {
	if m.last == "" {
		return nil, statusMsg{text: "nothing to copy yet", level: statusWarn}, false
	}
	if err := m.copy(m.last); err != nil {
		return nil, statusMsg{text: "clipboard unavailable: " + err.Error(), level: statusError}, false
	}
	return nil, statusMsg{
		text:  fmt.Sprintf("copied %d bytes", len(m.last)),
		level: statusSuccess,
	}, false
}

func (m *Model) cmdVars(string) ([]string, statusMsg, bool) {
	eng := m.sess.Engine()
	names := eng.GlobalNames()
	if len(names) == 0 {
		return nil, statusMsg{text: "no globals defined", level: statusInfo}, false
	}
	globals := eng.Globals()
	width := 0
	for _, n := range names {
		if w := runewidth.StringWidth(n); w > width {
			width = w
		}
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		pad := strings.Repeat(" ", width-runewidth.StringWidth(n))
		out = append(out, "  "+n+pad+" = "+m.rend.Result(globals[n]))
	}
	return out, statusMsg{}, false
}

func (m *Model) cmdReset(string) ([]string, statusMsg, bool) {
	m.sess.Reset()
	m.last = ""
	return nil, statusMsg{text: "globals cleared", level: statusInfo}, false
}
