package builtins

import "strings"

// RegisterCore registers the illustrative builtin set spec.md §8's
// worked examples exercise: output, variable-like storage via the
// editor's own commands, and the two quit requests a mode dispatcher
// needs to recognize. Every body's return value is whatever it writes
// through ctx.WriteOutput/ctx.Fmtf — there is no separate value field
// to set (spec.md §6).
func RegisterCore(r *Registry) {
	r.Register(Spec{
		Name:        "print",
		AcceptsBang: false,
		Func: func(ctx Context, args Args) (Outcome, error) {
			ctx.WriteOutput(strings.Join(args.Positional, " "))
			return Outcome{}, nil
		},
	})

	r.Register(Spec{
		Name:        "echo",
		Alias:       "e",
		AcceptsBang: true,
		Flags:       []string{"n"},
		Func: func(ctx Context, args Args) (Outcome, error) {
			out := strings.Join(args.Positional, " ")
			if _, noNewline := args.Flag("n"); !noNewline {
				ctx.Fmtf("%s\n", out)
			} else {
				ctx.WriteOutput(out)
			}
			return Outcome{}, nil
		},
	})

	r.Register(Spec{
		Name:        "set",
		AcceptsBang: true,
		Flags:       []string{"global"},
		FlagCompletions: map[string][]string{
			"global": {"true", "false"},
		},
		PositionalCompletions: [][]string{
			{"tabstop", "wrap", "number", "relativenumber"},
		},
		Func: func(ctx Context, args Args) (Outcome, error) {
			if len(args.Positional) < 2 {
				return Outcome{}, &Error{Kind: WrongArity, Message: "set requires a key and a value"}
			}
			ctx.WriteOutput(args.Positional[1])
			return Outcome{}, nil
		},
	})

	r.Register(Spec{
		Name: "append",
		Func: func(ctx Context, args Args) (Outcome, error) {
			ctx.WriteOutput(strings.Join(args.Positional, ""))
			return Outcome{}, nil
		},
	})

	r.Register(Spec{
		Name: "quit",
		Func: func(ctx Context, args Args) (Outcome, error) {
			return Outcome{Operation: OpQuit}, nil
		},
	})

	r.Register(Spec{
		Name: "quit-all",
		Func: func(ctx Context, args Args) (Outcome, error) {
			return Outcome{Operation: OpQuitAll}, nil
		},
	})

	r.Register(Spec{
		Name:        "open",
		AcceptsBang: true,
		Flags:       []string{"readonly"},
		FlagCompletions: map[string][]string{
			"readonly": {"true", "false"},
		},
		Func: func(ctx Context, args Args) (Outcome, error) {
			if len(args.Positional) == 0 {
				return Outcome{}, &Error{Kind: WrongArity, Message: "open requires a path"}
			}
			ctx.WriteOutput(args.Positional[0])
			return Outcome{}, nil
		},
	})

	r.Register(Spec{
		Name: "map",
		Func: func(ctx Context, args Args) (Outcome, error) {
			if len(args.Positional) < 2 {
				return Outcome{}, &Error{Kind: WrongArity, Message: "map requires a source and a binding"}
			}
			ctx.WriteOutput(args.Positional[1])
			return Outcome{}, nil
		},
	})
}
