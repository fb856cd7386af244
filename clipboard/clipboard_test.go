package clipboard

import "testing"

func TestPasteLogDedupesConsecutiveIdentical(t *testing.T) {
	var log PasteLog
	if !log.Record("a") {
		t.Fatal("expected first record to report fresh content")
	}
	if log.Record("a") {
		t.Fatal("expected repeated identical content to be deduped")
	}
	if !log.Record("b") {
		t.Fatal("expected different content to report fresh")
	}
	if !log.Record("a") {
		t.Fatal("expected content differing from only the immediately preceding paste to report fresh")
	}
}

func TestFakeReaderReturnsFixedContents(t *testing.T) {
	f := Fake{Contents: "hello"}
	got, err := f.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello" {
		t.Fatalf("expected %q, got %q", "hello", got)
	}
}
