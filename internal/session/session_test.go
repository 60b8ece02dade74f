package session

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MakeNowJust/heredoc"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/sk-lang/sk/internal/errdef"
	"github.com/sk-lang/sk/internal/history"
	"github.com/sk-lang/sk/internal/sk"
	"github.com/sk-lang/sk/internal/telemetry"
)

func tickingClock() func() time.Time {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Millisecond)
		return now
	}
}

func newSession(t *testing.T, opts ...Option) (*Session, *history.Store) {
	t.Helper()
	store := history.NewStore(filepath.Join(t.TempDir(), "history.json"), 50)
	opts = append([]Option{WithHistory(store), WithClock(tickingClock())}, opts...)
	return New(sk.NewEng(), opts...), store
}

func TestRunRecordsSuccess(t *testing.T) {
	s, store := newSession(t)
	res := s.Run(context.Background(), history.ModeExpr, "", "2 + 2")
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Val.K != sk.VInt || res.Val.I != 4 {
		t.Fatalf("expected Int 4, got %s", res.Val.Repr())
	}
	entries := store.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(entries))
	}
	e := entries[0]
	if e.ID == "" || e.ID != res.Entry.ID {
		t.Fatalf("expected stored entry id to match result, got %q vs %q", e.ID, res.Entry.ID)
	}
	if e.Result != "4" || e.Type != "Int" || e.Mode != history.ModeExpr || e.Failed() {
		t.Fatalf("unexpected entry %+v", e)
	}
	if e.Trace == nil || len(e.Trace.Phases) != 3 {
		t.Fatalf("expected lex, parse and eval phases, got %+v", e.Trace)
	}
	for i, kind := range []string{history.PhaseLex, history.PhaseParse, history.PhaseEval} {
		if e.Trace.Phases[i].Kind != kind {
			t.Fatalf("phase %d: expected %s, got %s", i, kind, e.Trace.Phases[i].Kind)
		}
		if e.Trace.Phases[i].Duration != time.Millisecond {
			t.Fatalf("phase %d: expected 1ms from ticking clock, got %v", i, e.Trace.Phases[i].Duration)
		}
	}
}

func TestRunStopsAtFailingPhase(t *testing.T) {
	cases := []struct {
		name   string
		src    string
		code   errdef.Code
		phases int
	}{
		{"lex", `"open`, errdef.CodeLex, 1},
		{"parse", "var = 1;", errdef.CodeParse, 2},
		{"runtime", "1 / 0", errdef.CodeRuntime, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, store := newSession(t)
			res := s.Run(context.Background(), history.ModeFile, "main.sk", tc.src)
			if res.Err == nil {
				t.Fatalf("expected error")
			}
			if got := errdef.CodeOf(res.Err); got != tc.code {
				t.Fatalf("expected code %q, got %q", tc.code, got)
			}
			e := store.Entries()[0]
			if e.ErrorCode != string(tc.code) || e.Result != "" {
				t.Fatalf("unexpected entry %+v", e)
			}
			if len(e.Trace.Phases) != tc.phases {
				t.Fatalf("expected %d phases, got %+v", tc.phases, e.Trace.Phases)
			}
			if e.Trace.Phases[tc.phases-1].Error == "" {
				t.Fatalf("expected failing phase to carry the error")
			}
		})
	}
}

func TestRunKeepsGlobalsBetweenRuns(t *testing.T) {
	s, _ := newSession(t)
	if res := s.Run(context.Background(), history.ModeREPL, "", "var a = 40;"); res.Err != nil {
		t.Fatalf("declare: %v", res.Err)
	}
	res := s.Run(context.Background(), history.ModeREPL, "", "a + 2")
	if res.Err != nil || res.Val.I != 42 {
		t.Fatalf("expected 42, got %s (%v)", res.Val.Repr(), res.Err)
	}
	s.Reset()
	res = s.Run(context.Background(), history.ModeREPL, "", "a")
	if res.Err == nil {
		t.Fatalf("expected undefined after reset")
	}
}

func TestRunRecordsFramesAndSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	inst, err := telemetry.New(telemetry.Config{}, telemetry.WithSpanProcessor(recorder))
	if err != nil {
		t.Fatalf("telemetry: %v", err)
	}
	t.Cleanup(func() { _ = inst.Shutdown(context.Background()) })

	s, _ := newSession(t, WithInstrumenter(inst))
	src := heredoc.Doc(`
		fn f() { return missing; };
		f();
	`)
	res := s.Run(context.Background(), history.ModeFile, "main.sk", src)
	if res.Err == nil {
		t.Fatalf("expected runtime error")
	}
	if got := len(res.Entry.Trace.Frames); got != 2 {
		t.Fatalf("expected 2 frames, got %d", got)
	}

	spans := recorder.Ended()
	if len(spans) != 4 {
		t.Fatalf("expected 4 spans, got %d", len(spans))
	}
	names := []string{}
	for _, sp := range spans {
		names = append(names, sp.Name())
	}
	want := "sk.lex,sk.parse,sk.eval,sk.run main.sk"
	if strings.Join(names, ",") != want {
		t.Fatalf("expected spans %s, got %v", want, names)
	}
}

func TestRunLinesRecordsOneEntry(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, store := newSession(t, WithLogger(logger))

	src := heredoc.Doc(`
		var a = 1;
		nope;
		a + 1;
	`)
	var lines []int
	failed, last := s.RunLines(context.Background(), "lines.sk", src, func(r sk.LineResult) {
		lines = append(lines, r.Line)
	})
	if failed != 1 {
		t.Fatalf("expected 1 failed line, got %d", failed)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 evaluated lines, got %v", lines)
	}
	if last.Val.I != 2 {
		t.Fatalf("expected last value 2, got %s", last.Val.Repr())
	}
	entries := store.Entries()
	if len(entries) != 1 || entries[0].Mode != history.ModeLines {
		t.Fatalf("expected one lines entry, got %+v", entries)
	}
	if entries[0].ErrorCode != string(errdef.CodeRuntime) {
		t.Fatalf("expected runtime error code, got %q", entries[0].ErrorCode)
	}
	if !strings.Contains(logs.String(), "line failed") {
		t.Fatalf("expected line failure to be logged, got:\n%s", logs.String())
	}
}

func TestRunWithoutHistory(t *testing.T) {
	s := New(nil)
	res := s.Run(context.Background(), history.ModeExpr, "", `"a" + 1`)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Entry.ID != "" {
		t.Fatalf("expected unsaved entry without store, got id %q", res.Entry.ID)
	}
	if res.Entry.Result != `"a1"` {
		t.Fatalf("unexpected result %q", res.Entry.Result)
	}
}
