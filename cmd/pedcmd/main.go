// Command pedcmd is a small inspection driver for the command
// language: it evaluates one command-mode input against a fresh VM and
// prints the result, the way cmd/barn's -eval flag evaluates a MOO
// expression against a loaded database without starting the server.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"ped/builtins"
	"ped/command"
	"ped/key"
	"ped/keymap"
	"ped/mode"
	"ped/trace"
)

func main() {
	evalExpr := flag.String("eval", "", "Evaluate one command-mode input (e.g. \"echo hello\")")
	keymapPath := flag.String("keymap", "", "Path to a key-map YAML file to load")
	inspectKey := flag.String("key", "", "Report the normal-mode macro bound to this key-map chord (requires -keymap)")
	traceEnabled := flag.Bool("trace", false, "Enable execution tracing")
	traceFilter := flag.String("trace-filter", "", "Trace filter pattern (glob, comma-separated)")

	flag.Parse()

	if *traceEnabled {
		var filters []string
		if *traceFilter != "" {
			filters = strings.Split(*traceFilter, ",")
			for i := range filters {
				filters[i] = strings.TrimSpace(filters[i])
			}
		}
		trace.Init(true, filters, os.Stderr)
		log.Printf("Tracing enabled (filters: %v)", filters)
	} else {
		trace.Init(false, nil, nil)
	}

	if *keymapPath != "" {
		m, err := keymap.Load(*keymapPath)
		if err != nil {
			log.Fatalf("Failed to load keymap: %v", err)
		}
		log.Printf("Loaded keymap from %s", *keymapPath)

		if *inspectKey != "" {
			reportBinding(m, *inspectKey)
			return
		}
	} else if *inspectKey != "" {
		log.Fatalf("-key requires -keymap")
	}

	if *evalExpr == "" {
		flag.Usage()
		os.Exit(2)
	}

	registry := builtins.NewRegistry()
	builtins.RegisterCore(registry)
	mgr := command.NewManager(registry, nil)

	outcome, err := mgr.Eval(*evalExpr, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if outcome.Suspended {
		fmt.Printf("suspended on request #%d\n", outcome.RequestIndex)
		return
	}
	fmt.Println(outcome.Value)
}

// reportBinding drives a real Normal-mode Dispatcher through chordText
// the same way the interactive editor would, so this inspection path
// exercises the same keymap.Map->mode.Handler wiring the editor uses
// rather than calling m.Lookup directly.
func reportBinding(m *keymap.Map, chordText string) {
	k, rest, err := key.Parse(chordText)
	if err != nil {
		log.Fatalf("Failed to parse key %q: %v", chordText, err)
	}
	if rest != "" {
		log.Fatalf("Key %q has trailing input %q", chordText, rest)
	}

	d := &mode.Dispatcher{NormalMode: &mode.NormalState{}, Keymap: m}
	d.ChangeTo(mode.Normal)

	op, ok := d.HandleKeys([]key.Key{k})
	if ok && op.Kind == mode.ExecuteMacro {
		macro, _ := m.Lookup("normal", k)
		fmt.Printf("%s -> %s\n", chordText, macro)
		return
	}
	fmt.Printf("%s -> (no binding)\n", chordText)
}
