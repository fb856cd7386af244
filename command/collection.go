// Package command implements the command collection and the manager
// that drives compilation and execution against it (spec.md §4.5): the
// three parallel command sets (builtins, macros, requests), the
// source-path table, and command history, playing the same
// owns-everything role barn/task.Manager plays for MOO verb execution.
package command

import (
	"ped/builtins"
	"ped/namehash"
	"ped/vm"
)

type macroEntry struct {
	name       string
	opStart    int
	paramCount int
}

// Collection is the compile-time command resolver (vm.CommandResolver)
// backing one VM: it owns the builtin registry, the macro table built
// up as scripts define macros, and the request-command name table
// (spec.md §3's "Command collection" and §9's "Command lookup by
// hash": macros, then requests, then builtins).
type Collection struct {
	vm       *vm.VM
	builtins *builtins.Registry

	macrosByHash map[uint64]int
	macros       []macroEntry

	requestsByHash map[uint64]int
	requestNames   []string
}

// NewCollection returns a Collection backing the given VM and builtin
// registry. The VM's MacroStarts is grown as macros are defined.
func NewCollection(v *vm.VM, reg *builtins.Registry) *Collection {
	return &Collection{
		vm:             v,
		builtins:       reg,
		macrosByHash:   make(map[uint64]int),
		requestsByHash: make(map[uint64]int),
	}
}

// DefineRequest registers a host-fulfilled request command name
// (spec.md §3's request set: "{name_hash}" only — requests carry no
// flags or declared arity at the command-collection level).
func (c *Collection) DefineRequest(name string) int {
	idx := len(c.requestNames)
	c.requestNames = append(c.requestNames, name)
	c.requestsByHash[namehash.Hash(name)] = idx
	return idx
}

// ResolveName is Resolve keyed by literal name rather than a
// precomputed hash, for command mode's completion classification
// (spec.md §4.8), which has the raw token text in hand.
func (c *Collection) ResolveName(name string) (vm.Resolution, bool) {
	return c.Resolve(namehash.Hash(name))
}

// Resolve implements vm.CommandResolver (spec.md §4.5's find_command:
// "lookup order macros → requests → builtins; builtins match on
// name_hash or alias_hash").
func (c *Collection) Resolve(nameHash uint64) (vm.Resolution, bool) {
	if idx, ok := c.macrosByHash[nameHash]; ok {
		m := c.macros[idx]
		return vm.Resolution{Kind: vm.CommandMacro, Index: idx, ParamCount: m.paramCount}, true
	}
	if idx, ok := c.requestsByHash[nameHash]; ok {
		return vm.Resolution{Kind: vm.CommandRequest, Index: idx}, true
	}
	if idx, ok := c.builtins.LookupHash(nameHash); ok {
		spec, _ := c.builtins.Get(idx)
		return vm.Resolution{
			Kind:        vm.CommandBuiltin,
			Index:       idx,
			Flags:       spec.Flags,
			AcceptsBang: spec.AcceptsBang,
		}, true
	}
	return vm.Resolution{}, false
}

// Exists implements vm.CommandResolver's global-uniqueness check for
// CommandAlreadyExists (spec.md §4.3).
func (c *Collection) Exists(nameHash uint64) bool {
	if _, ok := c.macrosByHash[nameHash]; ok {
		return true
	}
	if _, ok := c.requestsByHash[nameHash]; ok {
		return true
	}
	return c.builtins.HasHash(nameHash)
}

// DefineMacro implements vm.CommandResolver: it registers the macro
// both in this Collection's table and in the VM's MacroStarts (the
// dispatch table CallMacroCommand indexes into).
func (c *Collection) DefineMacro(name string, nameHash uint64, opStart, paramCount int) int {
	idx := len(c.macros)
	c.macros = append(c.macros, macroEntry{name: name, opStart: opStart, paramCount: paramCount})
	c.macrosByHash[nameHash] = idx
	c.vm.MacroStarts = append(c.vm.MacroStarts, opStart)
	return idx
}

// macroCount reports how many macros are currently defined, so Manager
// can snapshot it before a compile and roll back on failure.
func (c *Collection) macroCount() int { return len(c.macros) }

// BuiltinSpec returns the builtin registered at index, for command
// mode's flag/completion lookups (spec.md §4.8).
func (c *Collection) BuiltinSpec(index int) (builtins.Spec, bool) {
	return c.builtins.Get(index)
}

// CommandNames returns every resolvable command name (builtins and
// their aliases, defined macros, defined requests) for command mode's
// name-completion picker (spec.md §4.8: "when the cursor is at the
// command name ... populated with command names").
func (c *Collection) CommandNames() []string {
	names := make([]string, 0, len(c.builtins.All())+len(c.macros)+len(c.requestNames))
	for _, spec := range c.builtins.All() {
		if spec.Hidden {
			continue
		}
		names = append(names, spec.Name)
		if spec.Alias != "" {
			names = append(names, spec.Alias)
		}
	}
	for _, m := range c.macros {
		names = append(names, m.name)
	}
	names = append(names, c.requestNames...)
	return names
}

// truncateMacros rolls the macro table back to n entries, undoing any
// macros a failed eval partially defined (spec.md §4.4's "the VM is
// left in a state where the top-level caller can truncate ... back to
// the definitions-only watermark captured before compilation began").
func (c *Collection) truncateMacros(n int) {
	for hash, idx := range c.macrosByHash {
		if idx >= n {
			delete(c.macrosByHash, hash)
		}
	}
	c.macros = c.macros[:n]
	c.vm.MacroStarts = c.vm.MacroStarts[:n]
}
