// Package builtins implements the native command collection of the
// command language (spec.md §3's "builtins"): a fixed, host-registered
// set of named operations the VM dispatches by index, generalized from
// barn/builtins.Registry's name->function map (itself generalized here
// to a name->index table, since the VM addresses builtins by Op.Index
// rather than by name at run time).
package builtins

import (
	"fmt"

	"ped/namehash"
)

// Context is the capability a builtin body is given back into the
// running eval: it can write output and ask whether it was invoked
// with "!" (spec.md §4.4's bang flag). It is implemented by *vm.VM,
// mirroring how barn's BuiltinFunc takes a *types.TaskContext back
// into the running task.
type Context interface {
	WriteOutput(s string)
	Fmtf(format string, args ...interface{})
	Bang() bool
}

// Args is the evaluated argument set a builtin body receives: the
// flags declared in its Spec (by name, set to "" when the caller
// didn't supply one with a value) and the remaining positional
// arguments in call order.
type Args struct {
	Bang       bool
	Flags      map[string]string
	Positional []string
	cursor     int
}

// Flag returns the value of a declared flag and whether the caller
// passed it at all (spec.md §4.1's "a flag with no '=value' is present
// with an empty value").
func (a Args) Flag(name string) (string, bool) {
	v, ok := a.Flags[name]
	return v, ok
}

// Next consumes and returns the next undrawn positional argument, the
// way spec.md §6's try_next() does (a builtin with a fixed positional
// arity calls Next() that many times, then AssertEmpty).
func (a *Args) Next() (string, bool) {
	if a.cursor >= len(a.Positional) {
		return "", false
	}
	v := a.Positional[a.cursor]
	a.cursor++
	return v, true
}

// AssertEmpty reports an error if any positional argument remains
// undrawn (spec.md §6's assert_empty()).
func (a *Args) AssertEmpty() error {
	if a.cursor < len(a.Positional) {
		return &Error{Kind: TooManyArguments, Message: "unexpected extra arguments"}
	}
	return nil
}

// Operation is the CommandOperation a builtin body may surface back up
// through the VM to the host (spec.md §6's Builtin ABI: "Ok(Some(
// CommandOperation::{Suspend|Quit|QuitAll}))").
type Operation int

const (
	OpNone Operation = iota
	OpQuit
	OpQuitAll
	OpSuspend
)

// Outcome is a builtin body's successful result: spec.md §6's
// "Ok(None) | Ok(Some(CommandOperation))". There is no separate return-
// value field — the call's return value is whatever the body wrote via
// ctx.WriteOutput/ctx.Fmtf during its own call, which the VM captures
// as the StackValue the call produces (spec.md §3: "builtins always
// produce exactly one StackValue").
type Outcome struct {
	Operation Operation
}

// Func is a builtin command body: it receives the context and the
// evaluated arguments and returns the command's outcome (an optional
// CommandOperation) or an error that aborts the eval. Any text the
// body wants the call to return, it writes through ctx.WriteOutput or
// ctx.Fmtf.
type Func func(ctx Context, args Args) (Outcome, error)

// Spec declares one builtin's calling convention: its canonical name
// and optional alias, whether it accepts a trailing "!", its declared
// flag names in emission order, and the completions it offers command
// mode's autocompletion (spec.md §4.8): FlagCompletions keyed by flag
// name for values following "-flag=", PositionalCompletions indexed by
// argument position for bare positional values.
type Spec struct {
	Name        string
	Alias       string
	Hidden      bool
	AcceptsBang bool
	Flags       []string
	Func        Func

	FlagCompletions       map[string][]string
	PositionalCompletions [][]string
}

// Registry holds the fixed set of builtin commands, addressable both
// by name (for compile-time resolution) and by index (for the VM's
// CallBuiltinCommand op), the way barn/builtins.Registry addresses MOO
// builtins by both name and ID.
type Registry struct {
	specs   []Spec
	byName  map[string]int
	byAlias map[string]int
	byHash  map[uint64]int
}

// NewRegistry returns an empty registry. Callers populate it with
// Register, typically via RegisterCore plus any host-specific
// extensions.
func NewRegistry() *Registry {
	return &Registry{
		byName:  make(map[string]int),
		byAlias: make(map[string]int),
		byHash:  make(map[uint64]int),
	}
}

// Register adds spec to the registry and returns its index. Names
// and aliases must be unique; Register panics on a duplicate, since
// collisions can only come from a programming error in the builtin
// table itself (not from user input, which is validated separately by
// command.Collection's CommandAlreadyExists check).
func (r *Registry) Register(spec Spec) int {
	if _, exists := r.byName[spec.Name]; exists {
		panic(fmt.Sprintf("builtins: duplicate name %q", spec.Name))
	}
	idx := len(r.specs)
	r.specs = append(r.specs, spec)
	r.byName[spec.Name] = idx
	r.byHash[namehash.Hash(spec.Name)] = idx
	if spec.Alias != "" {
		if _, exists := r.byAlias[spec.Alias]; exists {
			panic(fmt.Sprintf("builtins: duplicate alias %q", spec.Alias))
		}
		r.byAlias[spec.Alias] = idx
		r.byHash[namehash.Hash(spec.Alias)] = idx
	}
	return idx
}

// Lookup resolves a command name (or alias) to its index.
func (r *Registry) Lookup(name string) (int, bool) {
	if idx, ok := r.byName[name]; ok {
		return idx, true
	}
	idx, ok := r.byAlias[name]
	return idx, ok
}

// LookupHash resolves a name's FNV-1a hash (as matched against its
// name or alias) to its index, the way the command collection's
// find_command does at compile time (spec.md §4.5).
func (r *Registry) LookupHash(hash uint64) (int, bool) {
	idx, ok := r.byHash[hash]
	return idx, ok
}

// HasHash reports whether hash collides with any registered builtin's
// name or alias, for the CommandAlreadyExists check.
func (r *Registry) HasHash(hash uint64) bool {
	_, ok := r.byHash[hash]
	return ok
}

// Get returns the Spec at index, the way the VM addresses a builtin
// once the compiler has already resolved it.
func (r *Registry) Get(index int) (Spec, bool) {
	if index < 0 || index >= len(r.specs) {
		return Spec{}, false
	}
	return r.specs[index], true
}

// All returns every registered Spec in registration order, for
// command-mode completion listing (spec.md §4.8).
func (r *Registry) All() []Spec {
	return r.specs
}
