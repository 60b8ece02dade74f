package history

import (
	"errors"
	"time"

	"github.com/sk-lang/sk/internal/sk"
)

const (
	PhaseLex   = "lex"
	PhaseParse = "parse"
	PhaseEval  = "eval"
)

type TraceSummary struct {
	Started   time.Time     `json:"started,omitempty"`
	Completed time.Time     `json:"completed,omitempty"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
	Phases    []TracePhase  `json:"phases,omitempty"`
	Frames    []TraceFrame  `json:"frames,omitempty"`
}

type TracePhase struct {
	Kind     string        `json:"kind"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

type TraceFrame struct {
	Name string `json:"name"`
	Path string `json:"path,omitempty"`
	Line int    `json:"line"`
	Col  int    `json:"col"`
}

// NewTraceSummary records phase timings and, for runtime errors, the call frames.
func NewTraceSummary(started time.Time, phases []TracePhase, err error) *TraceSummary {
	summary := &TraceSummary{
		Started: started,
		Phases:  append([]TracePhase(nil), phases...),
	}
	for _, p := range phases {
		summary.Duration += p.Duration
	}
	if !started.IsZero() {
		summary.Completed = started.Add(summary.Duration)
	}
	if err == nil {
		return summary
	}
	summary.Error = err.Error()
	var rt *sk.RuntimeError
	if errors.As(err, &rt) {
		summary.Frames = framesOf(rt.Trace)
	}
	return summary
}

func framesOf(trace []sk.Frame) []TraceFrame {
	if len(trace) == 0 {
		return nil
	}
	out := make([]TraceFrame, len(trace))
	for i, f := range trace {
		out[i] = TraceFrame{Name: f.Name, Path: f.Pos.Path, Line: f.Pos.Line, Col: f.Pos.Col}
	}
	return out
}

// Slowest returns the phase with the largest duration.
func (t *TraceSummary) Slowest() (TracePhase, bool) {
	if t == nil || len(t.Phases) == 0 {
		return TracePhase{}, false
	}
	best := t.Phases[0]
	for _, p := range t.Phases[1:] {
		if p.Duration > best.Duration {
			best = p
		}
	}
	return best, true
}
