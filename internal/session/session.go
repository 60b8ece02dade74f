// Package session runs sk source through the engine while recording
// history, telemetry spans and logs for each run.
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/sk-lang/sk/internal/errdef"
	"github.com/sk-lang/sk/internal/history"
	"github.com/sk-lang/sk/internal/sk"
	"github.com/sk-lang/sk/internal/telemetry"
)

type Session struct {
	eng   *sk.Eng
	store *history.Store
	inst  telemetry.Instrumenter
	log   *slog.Logger
	now   func() time.Time
}

type Option func(*Session)

func WithHistory(store *history.Store) Option {
	return func(s *Session) { s.store = store }
}

func WithInstrumenter(inst telemetry.Instrumenter) Option {
	return func(s *Session) {
		if inst != nil {
			s.inst = inst
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

func New(eng *sk.Eng, opts ...Option) *Session {
	if eng == nil {
		eng = sk.NewEng()
	}
	s := &Session{
		eng:  eng,
		inst: telemetry.Noop(),
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) Engine() *sk.Eng { return s.eng }

func (s *Session) History() *history.Store { return s.store }

type Result struct {
	Val   sk.Value
	Err   error
	Entry history.Entry
}

// Run lexes, parses and evaluates src as one program.
func (s *Session) Run(ctx context.Context, mode, path, src string) Result {
	started := s.now()
	ctx, span := s.inst.Start(ctx, telemetry.RunStart{Path: path, Mode: mode, Source: src})

	var (
		phases []history.TracePhase
		val    = sk.Null()
		err    error
	)
	phase := func(kind string, fn func(context.Context) error) bool {
		pctx, done := span.Phase(ctx, kind)
		t0 := s.now()
		perr := fn(pctx)
		p := history.TracePhase{Kind: kind, Duration: s.now().Sub(t0)}
		if perr != nil {
			p.Error = perr.Error()
			err = perr
		}
		phases = append(phases, p)
		done(perr)
		s.log.Debug("phase", "kind", kind, "path", path, "duration", p.Duration, "err", perr)
		return perr == nil
	}

	var (
		toks []sk.Tok
		prog *sk.Program
	)
	ok := phase(history.PhaseLex, func(context.Context) error {
		var lerr error
		toks, lerr = sk.Lex(path, src)
		return lerr
	})
	ok = ok && phase(history.PhaseParse, func(context.Context) error {
		var perr error
		prog, perr = sk.NewParser(path, toks).Program()
		return perr
	})
	if ok {
		phase(history.PhaseEval, func(pctx context.Context) error {
			var eerr error
			val, eerr = s.eng.Eval(pctx, prog)
			return eerr
		})
	}

	entry := s.record(mode, path, src, started, val, err, phases)
	span.End(runResult(val, err))
	return Result{Val: val, Err: err, Entry: entry}
}

// RunLines evaluates src line by line and records a single history entry.
func (s *Session) RunLines(ctx context.Context, path, src string, each func(sk.LineResult)) (failed int, last Result) {
	started := s.now()
	ctx, span := s.inst.Start(ctx, telemetry.RunStart{Path: path, Mode: history.ModeLines, Source: src})
	pctx, done := span.Phase(ctx, history.PhaseEval)

	val := sk.Null()
	var firstErr error
	failed = s.eng.RunLines(pctx, path, src, func(r sk.LineResult) {
		if r.Err != nil {
			if firstErr == nil {
				firstErr = r.Err
			}
			s.log.Debug("line failed", "path", path, "line", r.Line, "err", r.Err)
		} else {
			val = r.Val
		}
		if each != nil {
			each(r)
		}
	})
	done(firstErr)

	p := history.TracePhase{Kind: history.PhaseEval, Duration: s.now().Sub(started)}
	if firstErr != nil {
		p.Error = firstErr.Error()
	}
	entry := s.record(history.ModeLines, path, src, started, val, firstErr, []history.TracePhase{p})
	span.End(runResult(val, firstErr))
	return failed, Result{Val: val, Err: firstErr, Entry: entry}
}

func (s *Session) record(
	mode, path, src string,
	started time.Time,
	val sk.Value,
	err error,
	phases []history.TracePhase,
) history.Entry {
	entry := history.Entry{
		ExecutedAt: started,
		Mode:       mode,
		Path:       path,
		Source:     src,
		Duration:   s.now().Sub(started),
		Trace:      history.NewTraceSummary(started, phases, err),
	}
	if err != nil {
		entry.Error = err.Error()
		entry.ErrorCode = string(errdef.CodeOf(err))
		s.log.Info("run failed", "mode", mode, "path", path, "code", entry.ErrorCode, "err", err)
	} else {
		entry.Result = val.Repr()
		entry.Type = val.TypeName()
		s.log.Debug("run ok", "mode", mode, "path", path, "type", entry.Type, "duration", entry.Duration)
	}
	if s.store == nil {
		return entry
	}
	saved, serr := s.store.Append(entry)
	if serr != nil {
		s.log.Warn("history append failed", "path", s.store.Path(), "err", serr)
		return entry
	}
	return saved
}

func runResult(val sk.Value, err error) telemetry.RunResult {
	if err == nil {
		return telemetry.RunResult{Type: val.TypeName()}
	}
	res := telemetry.RunResult{Err: err, ErrorCode: string(errdef.CodeOf(err))}
	var rt *sk.RuntimeError
	if errors.As(err, &rt) {
		res.Frames = len(rt.Trace)
	}
	return res
}

// Reset discards all user globals.
func (s *Session) Reset() {
	s.eng.Reset()
	s.log.Debug("session reset")
}
