package builtins

import (
	"fmt"
	"testing"

	"ped/namehash"
)

// fakeContext is a minimal Context for exercising builtin bodies
// directly, without a running VM.
type fakeContext struct {
	output string
	bang   bool
}

func (c *fakeContext) WriteOutput(s string) { c.output += s }
func (c *fakeContext) Fmtf(format string, args ...interface{}) {
	c.output += fmt.Sprintf(format, args...)
}
func (c *fakeContext) Bang() bool { return c.bang }

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	RegisterCore(r)
	return r
}

// call invokes the named builtin against a fresh fakeContext and
// returns both its Outcome and the context, so the caller can assert
// on whatever it wrote — the call's only return-value channel.
func call(t *testing.T, r *Registry, name string, args Args) (Outcome, *fakeContext, error) {
	t.Helper()
	idx, ok := r.Lookup(name)
	if !ok {
		t.Fatalf("no such builtin %q", name)
	}
	spec, _ := r.Get(idx)
	ctx := &fakeContext{}
	outcome, err := spec.Func(ctx, args)
	return outcome, ctx, err
}

func TestPrintJoinsPositionalsWithSpace(t *testing.T) {
	r := newRegistry(t)
	_, ctx, err := call(t, r, "print", Args{Positional: []string{"hello", "world"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ctx.output != "hello world" {
		t.Fatalf("expected %q, got %q", "hello world", ctx.output)
	}
}

func TestEchoAppendsNewlineUnlessFlagN(t *testing.T) {
	r := newRegistry(t)
	idx, _ := r.Lookup("echo")
	spec, _ := r.Get(idx)

	ctx := &fakeContext{}
	_, err := spec.Func(ctx, Args{Positional: []string{"hi"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ctx.output != "hi\n" {
		t.Fatalf("expected trailing newline, got %q", ctx.output)
	}

	ctx2 := &fakeContext{}
	_, err = spec.Func(ctx2, Args{Positional: []string{"hi"}, Flags: map[string]string{"n": ""}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ctx2.output != "hi" {
		t.Fatalf("expected no trailing newline with -n, got %q", ctx2.output)
	}
}

func TestEchoHasAliasE(t *testing.T) {
	r := newRegistry(t)
	idx, ok := r.Lookup("e")
	if !ok {
		t.Fatal("expected alias \"e\" to resolve")
	}
	spec, _ := r.Get(idx)
	if spec.Name != "echo" {
		t.Fatalf("expected alias to resolve to echo, got %q", spec.Name)
	}
}

func TestSetRequiresKeyAndValue(t *testing.T) {
	r := newRegistry(t)
	_, _, err := call(t, r, "set", Args{Positional: []string{"tabstop"}})
	if err == nil {
		t.Fatal("expected WrongArity error for missing value")
	}
	berr, ok := err.(*Error)
	if !ok || berr.Kind != WrongArity {
		t.Fatalf("expected WrongArity, got %v", err)
	}

	_, ctx, err := call(t, r, "set", Args{Positional: []string{"tabstop", "4"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ctx.output != "4" {
		t.Fatalf("expected %q, got %q", "4", ctx.output)
	}
}

func TestAppendConcatenatesWithoutSeparator(t *testing.T) {
	r := newRegistry(t)
	_, ctx, err := call(t, r, "append", Args{Positional: []string{"abc", "def"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ctx.output != "abcdef" {
		t.Fatalf("expected %q, got %q", "abcdef", ctx.output)
	}
}

func TestQuitReportsOpQuit(t *testing.T) {
	r := newRegistry(t)
	out, _, err := call(t, r, "quit", Args{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Operation != OpQuit {
		t.Fatalf("expected OpQuit, got %v", out.Operation)
	}
}

func TestQuitAllReportsOpQuitAll(t *testing.T) {
	r := newRegistry(t)
	out, _, err := call(t, r, "quit-all", Args{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Operation != OpQuitAll {
		t.Fatalf("expected OpQuitAll, got %v", out.Operation)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	r := newRegistry(t)
	_, _, err := call(t, r, "open", Args{})
	if err == nil {
		t.Fatal("expected WrongArity error for missing path")
	}

	_, ctx, err := call(t, r, "open", Args{Positional: []string{"/tmp/file.txt"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ctx.output != "/tmp/file.txt" {
		t.Fatalf("expected %q, got %q", "/tmp/file.txt", ctx.output)
	}
}

func TestMapRequiresSourceAndBinding(t *testing.T) {
	r := newRegistry(t)
	_, _, err := call(t, r, "map", Args{Positional: []string{"normal"}})
	if err == nil {
		t.Fatal("expected WrongArity error for missing binding")
	}

	_, ctx, err := call(t, r, "map", Args{Positional: []string{"normal", "gg"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ctx.output != "gg" {
		t.Fatalf("expected %q, got %q", "gg", ctx.output)
	}
}

func TestLookupHashMatchesNameAndAlias(t *testing.T) {
	r := newRegistry(t)
	idx, ok := r.Lookup("echo")
	if !ok {
		t.Fatal("expected echo to be registered")
	}

	nameHash := namehash.Hash("echo")
	aliasHash := namehash.Hash("e")

	if hidx, ok := r.LookupHash(nameHash); !ok || hidx != idx {
		t.Fatalf("expected LookupHash(name) to resolve to %d, got %d, ok=%v", idx, hidx, ok)
	}
	if hidx, ok := r.LookupHash(aliasHash); !ok || hidx != idx {
		t.Fatalf("expected LookupHash(alias) to resolve to %d, got %d, ok=%v", idx, hidx, ok)
	}
}
