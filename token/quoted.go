package token

// readQuotedLiteral scans a ' or " delimited literal starting at the
// current position. Escape pairs ("\X") are not validated here — they
// are copied through verbatim and decoded by the compiler (spec.md
// §4.3's "Escape decoding in quoted literals"). A bare newline inside
// the literal still advances line/column the way lexer.go's readString
// tracks raw bytes, generalized from MOO's backslash-strips-itself rule
// to this grammar's defer-to-compiler rule.
func (t *Tokenizer) readQuotedLiteral(pos Position) (Token, error) {
	delim := t.advance() // consume opening quote
	start := t.pos

	for {
		c := t.peek()
		if t.pos >= len(t.src) {
			return Token{}, &Error{Kind: UnterminatedQuotedLiteral, Pos: pos}
		}
		if c == delim {
			break
		}
		if c == '\\' {
			t.advance()
			if t.pos >= len(t.src) {
				return Token{}, &Error{Kind: UnterminatedQuotedLiteral, Pos: pos}
			}
			t.advance() // the escaped character, whatever it is
			continue
		}
		t.advance()
	}

	text := string(t.src[start:t.pos])
	t.advance() // consume closing quote
	return Token{Kind: QuotedLiteral, Text: text, Pos: pos}, nil
}
