package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/sk-lang/sk/internal/config"
	"github.com/sk-lang/sk/internal/highlight"
	"github.com/sk-lang/sk/internal/history"
	"github.com/sk-lang/sk/internal/render"
	"github.com/sk-lang/sk/internal/repl"
	"github.com/sk-lang/sk/internal/session"
	"github.com/sk-lang/sk/internal/sk"
	"github.com/sk-lang/sk/internal/telemetry"
	"github.com/sk-lang/sk/internal/theme"
	"github.com/sk-lang/sk/internal/watcher"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	expr        string
	lines       bool
	watch       bool
	interval    time.Duration
	showAST     bool
	showTokens  bool
	highlight   bool
	scope       string
	division    string
	maxCall     int
	maxSteps    int
	timeout     time.Duration
	noHistory   bool
	noColor     bool
	themeName   string
	verbose     bool
	showVersion bool
	otEndpoint  string
	otInsecure  bool
	otService   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer, tcfg telemetry.Config) (options, []string, error) {
	var o options
	fs := flag.NewFlagSet("sk", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.expr, "e", "", "Evaluate an expression and print its value")
	fs.BoolVar(&o.lines, "lines", false, "Run the file one line at a time, continuing past errors")
	fs.BoolVar(&o.watch, "watch", false, "Rerun the file whenever it changes")
	fs.DurationVar(&o.interval, "watch-interval", 500*time.Millisecond, "Polling interval for -watch")
	fs.BoolVar(&o.showAST, "ast", false, "Print the syntax tree instead of running")
	fs.BoolVar(&o.showTokens, "tokens", false, "Print the token stream instead of running")
	fs.BoolVar(&o.highlight, "highlight", false, "Print the file with syntax highlighting and exit")
	fs.StringVar(&o.scope, "scope", "", "Scope policy for calls: dynamic or lexical")
	fs.StringVar(&o.division, "division", "", "Division by zero policy: ieee or strict")
	fs.IntVar(&o.maxCall, "max-call", 0, "Maximum call depth")
	fs.IntVar(&o.maxSteps, "max-steps", 0, "Maximum evaluation steps (0 for unlimited)")
	fs.DurationVar(&o.timeout, "timeout", 0, "Abort evaluation after this long")
	fs.BoolVar(&o.noHistory, "no-history", false, "Do not record runs in the history file")
	fs.BoolVar(&o.noColor, "no-color", false, "Disable colored output")
	fs.StringVar(&o.themeName, "theme", "", "Theme key from the themes directory")
	fs.BoolVar(&o.verbose, "v", false, "Log phase timings to stderr")
	fs.BoolVar(&o.showVersion, "version", false, "Show sk version")
	fs.StringVar(&o.otEndpoint, "trace-otel-endpoint", tcfg.Endpoint, "OTLP collector endpoint for run spans")
	fs.BoolVar(&o.otInsecure, "trace-otel-insecure", tcfg.Insecure, "Disable TLS for OTLP trace export")
	fs.StringVar(&o.otService, "trace-otel-service", tcfg.ServiceName, "Override service.name for exported spans")
	if err := fs.Parse(args); err != nil {
		return options{}, nil, err
	}
	return o, fs.Args(), nil
}

// run returns the process exit status.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	log.SetOutput(stderr)
	log.SetFlags(0)

	tcfg := telemetry.ConfigFromEnv(os.Getenv)
	o, rest, err := parseFlags(args, stderr, tcfg)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if o.showVersion {
		fmt.Fprintf(stdout, "sk %s\n  commit: %s\n  built:  %s\n", version, commit, date)
		return 0
	}

	settings, _, err := config.LoadSettings()
	if err != nil {
		log.Printf("settings: %v (using defaults)", err)
		settings = config.DefaultSettings()
	}
	if err := applyOverrides(&settings, o); err != nil {
		log.Printf("%v", err)
		return 2
	}

	color := settings.ColorEnabled() && !o.noColor && render.ColorSupported(stdout)
	render.UseColor(color)
	th := theme.Plain()
	if color {
		catalog, cerr := theme.LoadCatalog(config.ThemeDirs())
		if cerr != nil {
			log.Printf("themes: %v", cerr)
		}
		name := o.themeName
		if name == "" {
			name = settings.REPL.Theme
		}
		th = catalog.Resolve(name)
	}
	rend := render.New(th, 0)

	var path, src string
	if len(rest) > 0 {
		path = filepath.Clean(rest[0])
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			log.Printf("read file: %v", rerr)
			return 1
		}
		src = string(data)
	}

	switch {
	case o.highlight:
		if path == "" {
			log.Printf("-highlight needs a file")
			return 2
		}
		if err := highlight.Terminal(stdout, src, "", ""); err != nil {
			log.Printf("highlight: %v", err)
			return 1
		}
		return 0
	case o.showTokens || o.showAST:
		in, label := src, path
		if o.expr != "" {
			in, label = o.expr, "<expr>"
		}
		return dump(stdout, stderr, rend, label, in, o.showTokens)
	}

	logger := newLogger(stderr, o.verbose)
	inst := newInstrumenter(tcfg, o, settings)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := inst.Shutdown(sctx); err != nil {
			log.Printf("telemetry shutdown: %v", err)
		}
	}()

	eng := sk.NewEng(append(settings.Options(), sk.WithOutput(stdout))...)
	sessOpts := []session.Option{session.WithLogger(logger), session.WithInstrumenter(inst)}
	if !o.noHistory {
		store := history.NewStore(settings.HistoryPath(), settings.REPL.MaxHistory)
		if err := store.Load(); err != nil {
			log.Printf("history: %v", err)
		} else {
			sessOpts = append(sessOpts, session.WithHistory(store))
		}
	}
	sess := session.New(eng, sessOpts...)

	switch {
	case o.expr != "":
		res := sess.Run(ctx, history.ModeExpr, "", o.expr)
		if res.Err != nil {
			fmt.Fprintln(stderr, rend.Error(res.Err, o.expr))
			return 1
		}
		fmt.Fprintln(stdout, rend.Result(res.Val))
		return 0
	case path != "" && o.lines:
		failed, _ := sess.RunLines(ctx, path, src, func(r sk.LineResult) {
			if r.Err != nil {
				fmt.Fprintln(stderr, rend.Error(r.Err, src))
				return
			}
			if r.Val.K != sk.VNull {
				fmt.Fprintf(stdout, "%d: %s\n", r.Line, rend.Value(r.Val))
			}
		})
		if failed > 0 {
			return 1
		}
		return 0
	case path != "" && o.watch:
		return watchFile(ctx, sess, rend, stdout, stderr, path, o.interval)
	case path != "":
		return runSource(ctx, sess, rend, stdout, stderr, history.ModeFile, path, src)
	case !isTerminal(stdin):
		data, rerr := io.ReadAll(stdin)
		if rerr != nil {
			log.Printf("read stdin: %v", rerr)
			return 1
		}
		return runSource(ctx, sess, rend, stdout, stderr, history.ModeFile, "<stdin>", string(data))
	}

	cfg := repl.Config{
		Prompt:     settings.REPL.Prompt,
		Theme:      th,
		MaxHistory: settings.REPL.MaxHistory,
	}
	if err := repl.Run(ctx, sess, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("repl: %v", err)
		return 1
	}
	return 0
}

func runSource(
	ctx context.Context,
	sess *session.Session,
	rend *render.Renderer,
	stdout, stderr io.Writer,
	mode, path, src string,
) int {
	res := sess.Run(ctx, mode, path, src)
	if res.Err != nil {
		fmt.Fprintln(stderr, rend.Error(res.Err, src))
		return 1
	}
	if res.Val.K != sk.VNull {
		fmt.Fprintln(stdout, rend.Value(res.Val))
	}
	return 0
}

// watchFile runs path, then reruns it against fresh globals on every change
// until ctx ends. The exit status reflects the last run.
func watchFile(
	ctx context.Context,
	sess *session.Session,
	rend *render.Renderer,
	stdout, stderr io.Writer,
	path string,
	interval time.Duration,
) int {
	w := watcher.New(interval)
	src, err := w.Track(path)
	if err != nil {
		log.Printf("watch: %v", err)
		return 1
	}
	code := runSource(ctx, sess, rend, stdout, stderr, history.ModeFile, path, src)
	for ev := range w.Run(ctx) {
		if ev.Missing {
			fmt.Fprintln(stderr, rend.Theme().Muted.Render("--- "+ev.Path+" removed, waiting"))
			continue
		}
		fmt.Fprintln(stderr, rend.Theme().Muted.Render("--- "+ev.Path+" changed, rerunning"))
		sess.Reset()
		code = runSource(ctx, sess, rend, stdout, stderr, history.ModeFile, path, ev.Src)
	}
	return code
}

func dump(stdout, stderr io.Writer, rend *render.Renderer, path, src string, tokens bool) int {
	if tokens {
		toks, err := sk.Lex(path, src)
		if err != nil {
			fmt.Fprintln(stderr, rend.Error(err, src))
			return 1
		}
		for _, t := range toks {
			fmt.Fprintf(stdout, "%d:%d\t%s\n", t.P.Line, t.P.Col, t)
		}
		return 0
	}
	prog, err := sk.Parse(path, src)
	if err != nil {
		fmt.Fprintln(stderr, rend.Error(err, src))
		return 1
	}
	fmt.Fprintln(stdout, sk.DumpProgram(prog))
	return 0
}

func applyOverrides(s *config.Settings, o options) error {
	it := &s.Interpreter
	if o.scope != "" {
		it.Scope = o.scope
	}
	if o.division != "" {
		it.Division = o.division
	}
	if o.maxCall > 0 {
		it.MaxCall = o.maxCall
	}
	if o.maxSteps > 0 {
		it.MaxSteps = o.maxSteps
	}
	if o.timeout > 0 {
		it.Timeout = o.timeout.String()
	}
	norm, err := config.Normalise(*s)
	if err != nil {
		return err
	}
	*s = norm
	return nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newInstrumenter(env telemetry.Config, o options, s config.Settings) telemetry.Instrumenter {
	cfg := telemetry.Config{
		Endpoint:    strings.TrimSpace(o.otEndpoint),
		Insecure:    o.otInsecure,
		ServiceName: strings.TrimSpace(o.otService),
		Version:     version,
		DialTimeout: env.DialTimeout,
		Headers:     env.Headers,
	}
	cfg = cfg.Merge(telemetry.Config{
		Endpoint:    s.Telemetry.Endpoint,
		Insecure:    s.Telemetry.Insecure,
		ServiceName: s.Telemetry.ServiceName,
		Headers:     s.Telemetry.Headers,
	})
	inst, err := telemetry.New(cfg)
	if err != nil {
		if cfg.Enabled() {
			log.Printf("telemetry init error: %v", err)
		}
		return telemetry.Noop()
	}
	return inst
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
