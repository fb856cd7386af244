package key

import "testing"

func TestDisplayParseRoundTrip(t *testing.T) {
	tests := []Key{
		Backspace(), Enter(), Left(), Right(), Up(), Down(),
		Home(), End(), PageUp(), PageDown(), Tab(), Delete(), Esc(),
		F(1), F(9), F(10), F(11), F(12),
		Char('a'), Char('Z'), Char('0'), Char(' '),
		Ctrl('a'), Ctrl('Z'), Ctrl('9'),
		Alt('q'), Alt('Q'),
		Char('\\'), Char('<'),
	}

	for _, want := range tests {
		disp := want.Display()
		got, rest, err := Parse(disp)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", disp, err)
		}
		if rest != "" {
			t.Errorf("Parse(%q) left remainder %q", disp, rest)
		}
		if !got.Equal(want) {
			t.Errorf("Parse(Display(%v)) = %v, want %v", want, got, want)
		}
	}
}

func TestParseRemainder(t *testing.T) {
	got, rest, err := Parse("<enter>rest")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(Enter()) {
		t.Errorf("got %v, want Enter", got)
	}
	if rest != "rest" {
		t.Errorf("rest = %q, want %q", rest, "rest")
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"",
		"<",
		"<unknown>",
		"<c-!>",
		"<a- >",
		"<f13>",
		"<f0>",
		"\\",
		"\\x",
		string([]byte{0x01}),
	}
	for _, in := range cases {
		if _, _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) expected error, got none", in)
		}
	}
}

func TestFuncKeyBounds(t *testing.T) {
	for n := 1; n <= 12; n++ {
		if _, ok := parseFuncNumber(itoa(n)); !ok {
			t.Errorf("F(%d) should parse", n)
		}
	}
	if _, ok := parseFuncNumber("13"); ok {
		t.Errorf("F(13) should not parse")
	}
	if _, ok := parseFuncNumber("00"); ok {
		t.Errorf("F(00) should not parse")
	}
}

func itoa(n int) string {
	if n < 10 {
		return string(rune('0' + n))
	}
	return "1" + string(rune('0'+n-10))
}
