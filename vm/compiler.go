package vm

import (
	"ped/namehash"
	"ped/token"
)

// maxBindings mirrors spec.md §4.3's "at most 255 bindings per macro".
const maxBindings = 255

// maxCallArgs mirrors spec.md §4.3's "at most 255 arguments per call".
const maxCallArgs = 255

// maxLiteralBytes mirrors spec.md §4.3's "LiteralTooLong (> 255 bytes
// after escape processing)".
const maxLiteralBytes = 255

// scope is the compile-time bindings table for one macro body (or the
// top-level program), a plain ordered list of names whose index is the
// DuplicateAt offset within the enclosing frame window (spec.md §4.3's
// "Bindings").
type scope struct {
	names []string
}

func (s *scope) lookup(name string) (int, bool) {
	for i, n := range s.names {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

func (s *scope) define(name string) (int, bool) {
	if len(s.names) >= maxBindings {
		return -1, false
	}
	s.names = append(s.names, name)
	return len(s.names) - 1, true
}

// Compiler turns a token stream into an Op/SourceLocation/Texts
// program against a single VM instance, in the recursive-descent style
// of barn/parser's token-driven readers, generalized from MOO
// expression precedence climbing to this grammar's flat call/expression
// split (spec.md §4.3).
type Compiler struct {
	toks     *token.Tokenizer
	cur      token.Token
	tokErr   error
	resolver CommandResolver
	vm       *VM
	source   int
	scope    *scope
}

// NewCompiler returns a Compiler that appends to vm's Ops/Locations/
// Texts as it compiles src, resolving command names through resolver.
// source is the source handle attached to every emitted SourceLocation
// (spec.md §3; 0 means "no named source").
func NewCompiler(vm *VM, resolver CommandResolver, source int, src []byte) *Compiler {
	c := &Compiler{
		toks:     token.New(src),
		resolver: resolver,
		vm:       vm,
		source:   source,
		scope:    &scope{},
	}
	c.advance()
	return c
}

func (c *Compiler) advance() {
	tk, err := c.toks.Next()
	if err != nil {
		// Tokenizer errors surface at the point a statement/expression
		// tries to consume the offending token; stash as EndOfSource so
		// parsing terminates rather than loops, and let the caller that
		// requested this token convert err to a CompileError. We record
		// it on the Compiler so parseExpression/parseStatement can see
		// it immediately after calling advance().
		c.tokErr = err
		c.cur = token.Token{Kind: token.EndOfSource}
		return
	}
	c.cur = tk
}

func (c *Compiler) loc() SourceLocation {
	return SourceLocation{Source: c.source, Line: c.cur.Pos.Line, Column: c.cur.Pos.Column}
}

func (c *Compiler) errAt(kind CompileErrorKind, detail string) *CompileError {
	return &CompileError{Kind: kind, Source: c.source, Line: c.cur.Pos.Line, Column: c.cur.Pos.Column, Detail: detail}
}

// CompileResult locates the compiled program within the VM's Ops/Texts
// arrays: OpStart is where VM.Run should begin, and TopLevelOps/
// TopLevelTexts are the watermarks captured just after the leading
// macro definitions but before the top-level statements — the point a
// successful eval truncates back to afterward (spec.md §4.5: "truncate
// ... back to the pre-compile watermark, preserving prior macro
// definitions but discarding this invocation's bytecode" — generalized
// here to also preserve macros *this same* invocation defined).
type CompileResult struct {
	OpStart       int
	TopLevelOps   int
	TopLevelTexts int
}

// Compile compiles the entire source as a run of leading macro
// definitions followed by top-level statements (spec.md §4.3's
// program/macro_def/statement grammar). Macro definitions are only
// recognized before the first statement; a "macro" after that is
// compiled as a call to a command of that name.
func (c *Compiler) Compile() (CompileResult, *CompileError) {
	for {
		if c.tokErr != nil {
			return CompileResult{}, c.tokenError()
		}
		c.skipBlankLines()
		if c.cur.Kind == token.EndOfSource {
			break
		}
		if c.cur.Kind == token.Literal && c.cur.Text == "macro" {
			if err := c.parseMacroDef(); err != nil {
				return CompileResult{}, err
			}
			continue
		}
		break
	}

	topLevelOps := len(c.vm.Ops)
	topLevelTexts := len(c.vm.Texts)
	for {
		if c.tokErr != nil {
			return CompileResult{}, c.tokenError()
		}
		c.skipBlankLines()
		if c.cur.Kind == token.EndOfSource {
			break
		}
		if err := c.parseStatement(); err != nil {
			return CompileResult{}, err
		}
	}

	c.emit(opPushStringLiteral(0, 0), SourceLocation{Source: c.source})
	c.emit(opReturn(), SourceLocation{Source: c.source})
	return CompileResult{OpStart: topLevelOps, TopLevelOps: topLevelOps, TopLevelTexts: topLevelTexts}, nil
}

func (c *Compiler) tokenError() *CompileError {
	err := c.tokErr
	c.tokErr = nil
	switch e := err.(type) {
	case *token.Error:
		var kind CompileErrorKind
		switch e.Kind {
		case token.InvalidFlagName:
			kind = NoSuchFlag
		case token.InvalidBindingName:
			kind = UndeclaredBinding
		default:
			kind = ExpectedToken
		}
		return &CompileError{Kind: kind, Source: c.source, Line: e.Pos.Line, Column: e.Pos.Column}
	default:
		return &CompileError{Kind: ExpectedToken, Source: c.source}
	}
}

func (c *Compiler) skipBlankLines() {
	for c.cur.Kind == token.EndOfLine {
		c.advance()
	}
}

func (c *Compiler) emit(op Op, loc SourceLocation) {
	c.vm.Ops = append(c.vm.Ops, op)
	c.vm.Locations = append(c.vm.Locations, loc)
}

// emitLiteral appends text verbatim to the VM's text arena and emits
// the PushStringLiteral referencing it.
func (c *Compiler) emitLiteral(text string, loc SourceLocation) *CompileError {
	if len(text) > maxLiteralBytes {
		return &CompileError{Kind: LiteralTooLong, Source: loc.Source, Line: loc.Line, Column: loc.Column}
	}
	start := len(c.vm.Texts)
	if start > 0xFFFF {
		return &CompileError{Kind: TooManyLiterals, Source: loc.Source, Line: loc.Line, Column: loc.Column}
	}
	c.vm.Texts = append(c.vm.Texts, text...)
	c.emit(opPushStringLiteral(start, len(text)), loc)
	return nil
}

func isIdentStart(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		ch := name[i]
		ok := (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') ||
			(ch >= '0' && ch <= '9') || ch == '_' || ch == '-'
		if !ok {
			return false
		}
	}
	return true
}

func (c *Compiler) parseMacroDef() *CompileError {
	loc := c.loc()
	c.advance() // consume "macro"

	if c.cur.Kind != token.Literal {
		return c.errAt(ExpectedToken, "macro name")
	}
	name := c.cur.Text
	if !isIdentStart(name) {
		return &CompileError{Kind: InvalidMacroName, Source: loc.Source, Line: loc.Line, Column: loc.Column, Detail: name}
	}
	nameHash := namehash.Hash(name)
	if c.resolver.Exists(nameHash) {
		return &CompileError{Kind: CommandAlreadyExists, Source: loc.Source, Line: loc.Line, Column: loc.Column, Detail: name}
	}
	c.advance()

	outer := c.scope
	c.scope = &scope{}
	paramCount := 0
	for c.cur.Kind == token.Binding {
		pname := c.cur.Text
		c.advance()
		if _, ok := c.scope.define(pname); !ok {
			c.scope = outer
			return c.errAt(TooManyParameters, pname)
		}
		paramCount++
	}

	if c.cur.Kind != token.OpenCurly {
		c.scope = outer
		return c.errAt(ExpectedToken, "{")
	}
	c.advance()

	opStart := len(c.vm.Ops)
	for c.cur.Kind != token.CloseCurly {
		if c.tokErr != nil {
			c.scope = outer
			return c.tokenError()
		}
		if c.cur.Kind == token.EndOfSource {
			c.scope = outer
			return c.errAt(ExpectedToken, "}")
		}
		if c.cur.Kind == token.EndOfLine {
			c.advance()
			continue
		}
		if err := c.parseStatement(); err != nil {
			c.scope = outer
			return err
		}
	}
	c.advance() // consume "}"
	c.scope = outer

	c.emit(opPushStringLiteral(0, 0), SourceLocation{Source: c.source})
	c.emit(opReturn(), SourceLocation{Source: c.source})

	c.resolver.DefineMacro(name, nameHash, opStart, paramCount)
	return nil
}

// parseStatement compiles one statement (spec.md §4.3's "statement"
// production, generalized with the compiler-special "return" form
// spec.md §9's Open Questions names but leaves undefined in the
// grammar box).
func (c *Compiler) parseStatement() *CompileError {
	switch {
	case c.cur.Kind == token.EndOfLine:
		c.advance()
		return nil

	case c.cur.Kind == token.Literal && c.cur.Text == "return":
		c.advance()
		if err := c.parseCallOrExpression(); err != nil {
			return err
		}
		c.emit(opReturn(), SourceLocation{Source: c.source})
		return nil

	case c.cur.Kind == token.OpenParen:
		c.advance()
		if err := c.parseCall(); err != nil {
			return err
		}
		if c.cur.Kind != token.CloseParen {
			return c.errAt(ExpectedToken, ")")
		}
		c.advance()
		c.emit(opPop(), SourceLocation{Source: c.source})
		return nil

	case c.cur.Kind == token.Binding:
		name := c.cur.Text
		c.advance()
		if c.cur.Kind != token.Equals {
			return c.errAt(ExpectedToken, "=")
		}
		c.advance()
		if err := c.parseCallOrExpression(); err != nil {
			return err
		}
		if _, ok := c.scope.define(name); !ok {
			return c.errAt(TooManyBindings, name)
		}
		return nil

	case c.cur.Kind == token.Literal:
		if err := c.parseCall(); err != nil {
			return err
		}
		c.emit(opPop(), SourceLocation{Source: c.source})
		return nil

	default:
		return c.errAt(ExpectedStatement, "")
	}
}

// parseCallOrExpression compiles the target of a "return" or a
// "$name = ..." assignment: a bare call when the next token is a
// command-name literal or a parenthesized call, or a plain expression
// for a quoted literal or binding reference (spec.md §8's worked
// examples: "return 'abc'", "return $a", "return cmd $a -option=$b",
// "return c 'abc'").
func (c *Compiler) parseCallOrExpression() *CompileError {
	switch c.cur.Kind {
	case token.Literal:
		return c.parseCall()
	case token.OpenParen:
		c.advance()
		if err := c.parseCall(); err != nil {
			return err
		}
		if c.cur.Kind != token.CloseParen {
			return c.errAt(ExpectedToken, ")")
		}
		c.advance()
		return nil
	case token.QuotedLiteral, token.Binding:
		return c.parseExpression()
	default:
		return c.errAt(ExpectedExpression, "")
	}
}

// parseExpression compiles spec.md §4.3's "expression" production.
func (c *Compiler) parseExpression() *CompileError {
	switch c.cur.Kind {
	case token.Literal:
		text := c.cur.Text
		loc := c.loc()
		c.advance()
		return c.emitLiteral(text, loc)

	case token.QuotedLiteral:
		raw := c.cur.Text
		loc := c.loc()
		c.advance()
		decoded, ok := decodeEscapes(raw)
		if !ok {
			return &CompileError{Kind: InvalidLiteralEscaping, Source: loc.Source, Line: loc.Line, Column: loc.Column}
		}
		return c.emitLiteral(decoded, loc)

	case token.Binding:
		name := c.cur.Text
		loc := c.loc()
		c.advance()
		idx, ok := c.scope.lookup(name)
		if !ok {
			return &CompileError{Kind: UndeclaredBinding, Source: loc.Source, Line: loc.Line, Column: loc.Column, Detail: name}
		}
		c.emit(opDuplicateAt(idx), loc)
		return nil

	case token.OpenParen:
		c.advance()
		if err := c.parseCall(); err != nil {
			return err
		}
		if c.cur.Kind != token.CloseParen {
			return c.errAt(ExpectedToken, ")")
		}
		c.advance()
		return nil

	default:
		return c.errAt(ExpectedExpression, "")
	}
}

// parseCall compiles spec.md §4.3's "call" production: IDENT ("!")?
// (FLAG ("=" expression)? | expression)* up to one of EOL/")"/"}"/EOS,
// which it leaves unconsumed for the caller to interpret.
func (c *Compiler) parseCall() *CompileError {
	if c.cur.Kind != token.Literal {
		return c.errAt(ExpectedStatement, "")
	}
	name := c.cur.Text
	loc := c.loc()
	nameEndCol := c.cur.Pos.Column + len(name)
	nameLine := c.cur.Pos.Line
	c.advance()

	bang := false
	if c.cur.Kind == token.Literal && c.cur.Text == "!" &&
		c.cur.Pos.Line == nameLine && c.cur.Pos.Column == nameEndCol {
		bang = true
		c.advance()
	}

	res, ok := c.resolver.Resolve(namehash.Hash(name))
	if !ok {
		return &CompileError{Kind: NoSuchCommand, Source: loc.Source, Line: loc.Line, Column: loc.Column, Detail: name}
	}

	c.emit(opPrepareStackFrame(), loc)
	for range res.Flags {
		c.emit(opPushStringLiteral(0, 0), loc)
	}

	argCount := 0
	for !isCallTerminator(c.cur.Kind) {
		if c.tokErr != nil {
			return c.tokenError()
		}
		if c.cur.Kind == token.Flag {
			flagName := c.cur.Text
			flagLoc := c.loc()
			c.advance()
			flagIdx := -1
			for i, fn := range res.Flags {
				if fn == flagName {
					flagIdx = i
					break
				}
			}
			if flagIdx < 0 {
				return &CompileError{Kind: NoSuchFlag, Source: flagLoc.Source, Line: flagLoc.Line, Column: flagLoc.Column, Detail: flagName}
			}
			if c.cur.Kind == token.Equals {
				c.advance()
				if err := c.parseExpression(); err != nil {
					return err
				}
			} else {
				c.emit(opPushStringLiteral(0, 0), flagLoc)
			}
			c.emit(opPopAsFlag(flagIdx), flagLoc)
			continue
		}

		if argCount >= maxCallArgs {
			return c.errAt(WrongNumberOfArgs, name)
		}
		if err := c.parseExpression(); err != nil {
			return err
		}
		argCount++
	}

	if res.Kind == CommandMacro && argCount != res.ParamCount {
		return &CompileError{Kind: WrongNumberOfArgs, Source: loc.Source, Line: loc.Line, Column: loc.Column, Detail: name}
	}

	switch res.Kind {
	case CommandBuiltin:
		c.emit(opCallBuiltin(res.Index, bang, argCount), loc)
	case CommandMacro:
		c.emit(opCallMacro(res.Index), loc)
	case CommandRequest:
		c.emit(opCallRequest(res.Index), loc)
	}
	return nil
}

func isCallTerminator(k token.Kind) bool {
	return k == token.EndOfLine || k == token.CloseParen || k == token.CloseCurly || k == token.EndOfSource
}

// decodeEscapes implements spec.md §4.3's "Escape decoding in quoted
// literals".
func decodeEscapes(raw string) (string, bool) {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' {
			out = append(out, c)
			continue
		}
		i++
		if i >= len(raw) {
			return "", false
		}
		switch raw[i] {
		case '\\':
			out = append(out, '\\')
		case '\'':
			out = append(out, '\'')
		case '"':
			out = append(out, '"')
		case 'n':
			out = append(out, 0x0A)
		case 'r':
			out = append(out, 0x0D)
		case 't':
			out = append(out, 0x09)
		case '0':
			out = append(out, 0x00)
		default:
			return "", false
		}
	}
	return string(out), true
}
