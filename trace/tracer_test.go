package trace

import (
	"errors"
	"strings"
	"testing"
)

func TestOpWritesWhenEnabledAndFilterMatches(t *testing.T) {
	var buf strings.Builder
	tr := &Tracer{enabled: true, writer: &buf}
	tr.Op(3, "CallBuiltinCommand", "echo")

	if !strings.Contains(buf.String(), "ip=3 CallBuiltinCommand echo") {
		t.Fatalf("expected op trace line, got %q", buf.String())
	}
}

func TestOpSkippedWhenDisabled(t *testing.T) {
	var buf strings.Builder
	tr := &Tracer{enabled: false, writer: &buf}
	tr.Op(3, "CallBuiltinCommand", "echo")

	if buf.Len() != 0 {
		t.Fatalf("expected no output when disabled, got %q", buf.String())
	}
}

func TestOpSkippedWhenFilterExcludes(t *testing.T) {
	var buf strings.Builder
	tr := &Tracer{enabled: true, filters: []string{"Push*"}, writer: &buf}
	tr.Op(1, "CallBuiltinCommand", "echo")

	if buf.Len() != 0 {
		t.Fatalf("expected filtered-out op to produce no output, got %q", buf.String())
	}
}

func TestEvalReportsErrorOrValue(t *testing.T) {
	var buf strings.Builder
	tr := &Tracer{enabled: true, writer: &buf}

	tr.Eval("echo hi", "hi", nil)
	if !strings.Contains(buf.String(), `=> "hi"`) {
		t.Fatalf("expected success trace, got %q", buf.String())
	}

	buf.Reset()
	tr.Eval("frob", "", errors.New("boom"))
	if !strings.Contains(buf.String(), "=> error: boom") {
		t.Fatalf("expected error trace, got %q", buf.String())
	}
}

func TestGlobalFunctionsNoopBeforeInit(t *testing.T) {
	globalTracer = nil
	// Must not panic with no tracer initialized.
	Op(0, "x", "")
	Call("builtin", "echo", 1)
	Eval("echo hi", "hi", nil)
	ModeChange("normal", "command")
}

func TestInitEnablesGlobalTracer(t *testing.T) {
	var buf strings.Builder
	Init(true, nil, &buf)
	Call("builtin", "echo", 0)

	if !strings.Contains(buf.String(), "CALL builtin echo") {
		t.Fatalf("expected call trace after Init, got %q", buf.String())
	}
}
