package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInstrumenterRecordsPhases(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	inst, err := New(
		Config{ServiceName: "sk-test", Version: "test"},
		WithSpanProcessor(recorder),
	)
	if err != nil {
		t.Fatalf("New instrumenter: %v", err)
	}
	t.Cleanup(func() {
		_ = inst.Shutdown(context.Background())
	})

	ctx, span := inst.Start(
		context.Background(),
		RunStart{Path: "main.sk", Mode: "file", Source: "1 + 1"},
	)
	if ctx == nil || span == nil {
		t.Fatalf("expected span to be created")
	}
	for _, kind := range []string{"lex", "parse", "eval"} {
		_, done := span.Phase(ctx, kind)
		done(nil)
	}
	span.End(RunResult{Type: "Int"})

	spans := recorder.Ended()
	if len(spans) != 4 {
		t.Fatalf("expected 4 spans, got %d", len(spans))
	}

	root := spans[3]
	if got := root.Name(); got != "sk.run main.sk" {
		t.Fatalf("unexpected span name %q", got)
	}
	assertAttribute(t, root, "sk.mode", "file")
	assertAttribute(t, root, "sk.result.type", "Int")
	assertAttribute(t, root, "sk.source.bytes", int64(5))
	if root.Status().Code != codes.Ok {
		t.Fatalf("expected span status OK, got %v", root.Status().Code)
	}
	for i, want := range []string{"sk.lex", "sk.parse", "sk.eval"} {
		child := spans[i]
		if child.Name() != want {
			t.Fatalf("expected child %d named %q, got %q", i, want, child.Name())
		}
		if child.Parent().SpanID() != root.SpanContext().SpanID() {
			t.Fatalf("expected %q to be a child of the run span", want)
		}
	}
}

func TestInstrumenterRecordsFailure(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	inst, err := New(Config{}, WithSpanProcessor(recorder))
	if err != nil {
		t.Fatalf("New instrumenter: %v", err)
	}
	t.Cleanup(func() {
		_ = inst.Shutdown(context.Background())
	})

	boom := errors.New("ArithmeticError: division by zero")
	ctx, span := inst.Start(context.Background(), RunStart{Mode: "expr"})
	_, done := span.Phase(ctx, "eval")
	done(boom)
	span.End(RunResult{Err: boom, ErrorCode: "runtime", Frames: 2})

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Status().Code != codes.Error {
		t.Fatalf("expected failed phase span")
	}
	root := spans[1]
	if root.Name() != "sk.run" {
		t.Fatalf("unexpected span name %q", root.Name())
	}
	if root.Status().Code != codes.Error {
		t.Fatalf("expected error status, got %v", root.Status().Code)
	}
	assertAttribute(t, root, "sk.error.code", "runtime")
	assertAttribute(t, root, "sk.error.frames", int64(2))
}

func TestNewWithoutEndpointIsNoop(t *testing.T) {
	inst, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := inst.(noopInstrumenter); !ok {
		t.Fatalf("expected noop instrumenter, got %T", inst)
	}
	ctx, span := inst.Start(context.Background(), RunStart{})
	_, done := span.Phase(ctx, "lex")
	done(nil)
	span.End(RunResult{})
}

func assertAttribute(t *testing.T, span sdktrace.ReadOnlySpan, key string, want interface{}) {
	t.Helper()
	attrs := span.Attributes()
	for _, attr := range attrs {
		if string(attr.Key) != key {
			continue
		}
		switch v := want.(type) {
		case string:
			if attr.Value.AsString() == v {
				return
			}
		case bool:
			if attr.Value.AsBool() == v {
				return
			}
		case int64:
			if attr.Value.AsInt64() == v {
				return
			}
		}
		t.Fatalf("attribute %s mismatch: got %v, want %v", key, attr.Value, want)
	}
	t.Fatalf("attribute %s not found", key)
}
