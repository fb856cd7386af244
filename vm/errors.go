package vm

import "fmt"

// CompileErrorKind enumerates the compiler-level error kinds of
// spec.md §4.3/§7.
type CompileErrorKind int

const (
	ExpectedToken CompileErrorKind = iota
	ExpectedMacroDefinition
	ExpectedStatement
	ExpectedExpression
	InvalidMacroName
	InvalidLiteralEscaping
	LiteralTooLong
	TooManyBindings
	TooManyParameters
	UndeclaredBinding
	NoSuchCommand
	NoSuchFlag
	WrongNumberOfArgs
	CommandAlreadyExists
	AstTooLong
	TooManyMacroCommands
	TooManyLiterals
)

var compileErrorNames = [...]string{
	"ExpectedToken", "ExpectedMacroDefinition", "ExpectedStatement",
	"ExpectedExpression", "InvalidMacroName", "InvalidLiteralEscaping",
	"LiteralTooLong", "TooManyBindings", "TooManyParameters",
	"UndeclaredBinding", "NoSuchCommand", "NoSuchFlag", "WrongNumberOfArgs",
	"CommandAlreadyExists", "AstTooLong", "TooManyMacroCommands", "TooManyLiterals",
}

func (k CompileErrorKind) String() string {
	if int(k) >= 0 && int(k) < len(compileErrorNames) {
		return compileErrorNames[k]
	}
	return "Unknown"
}

// CompileError carries a compiler error kind and the failing token's
// location, per spec.md §4.3 ("every error carries {source_handle,
// line, column} taken from the failing token").
type CompileError struct {
	Kind   CompileErrorKind
	Source int
	Line   int
	Column int
	// Detail optionally names the offending token kind (for
	// ExpectedToken) or identifier (for NoSuchCommand / NoSuchFlag /
	// InvalidMacroName).
	Detail string
}

func (e *CompileError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s(%s) at %d:%d", e.Kind, e.Detail, e.Line, e.Column)
	}
	return fmt.Sprintf("%s at %d:%d", e.Kind, e.Line, e.Column)
}

// ExecErrorKind enumerates the execution-level error kinds of
// spec.md §7. Kinds surfaced by built-in command bodies arrive wrapped
// as BuiltinError; CommandDoesNotAcceptBang/TooFewArguments/
// TooManyArguments/Aborted are recognized directly by the VM.
type ExecErrorKind int

const (
	CommandDoesNotAcceptBang ExecErrorKind = iota
	TooFewArguments
	TooManyArguments
	Aborted
	BuiltinError
)

func (k ExecErrorKind) String() string {
	switch k {
	case CommandDoesNotAcceptBang:
		return "CommandDoesNotAcceptBang"
	case TooFewArguments:
		return "TooFewArguments"
	case TooManyArguments:
		return "TooManyArguments"
	case Aborted:
		return "Aborted"
	case BuiltinError:
		return "BuiltinError"
	default:
		return "Unknown"
	}
}

// ExecError is a CommandError (spec.md §4.4/§7): it aborts the current
// eval and carries the location of the failing op.
type ExecError struct {
	Kind    ExecErrorKind
	Loc     SourceLocation
	Wrapped error // set when Kind == BuiltinError
}

func (e *ExecError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %v at %d:%d", e.Kind, e.Wrapped, e.Loc.Line, e.Loc.Column)
	}
	return fmt.Sprintf("%s at %d:%d", e.Kind, e.Loc.Line, e.Loc.Column)
}

func (e *ExecError) Unwrap() error { return e.Wrapped }
