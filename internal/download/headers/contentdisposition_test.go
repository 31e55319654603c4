package headers

import "testing"

func TestFilenamePlain(t *testing.T) {
	name, ok := Filename(`attachment; filename="report.pdf"`)
	if !ok {
		t.Fatal("ok = false, want true")
	}
	if name != "report.pdf" {
		t.Errorf("name = %q, want %q", name, "report.pdf")
	}
}

func TestFilenameExtendedPreferredOverPlain(t *testing.T) {
	name, ok := Filename(`attachment; filename="fallback.txt"; filename*=UTF-8''%e2%82%ac%20rates.txt`)
	if !ok {
		t.Fatal("ok = false, want true")
	}
	if want := "€ rates.txt"; name != want {
		t.Errorf("name = %q, want %q", name, want)
	}
}

func TestFilenameQuotedSemicolon(t *testing.T) {
	name, ok := Filename(`attachment; filename="a;b.txt"`)
	if !ok {
		t.Fatal("ok = false, want true")
	}
	if name != "a;b.txt" {
		t.Errorf("name = %q, want %q", name, "a;b.txt")
	}
}

func TestFilenameEscapedQuote(t *testing.T) {
	name, ok := Filename(`attachment; filename="say \"hi\".txt"`)
	if !ok {
		t.Fatal("ok = false, want true")
	}
	if want := `say "hi".txt`; name != want {
		t.Errorf("name = %q, want %q", name, want)
	}
}

func TestFilenameAbsent(t *testing.T) {
	_, ok := Filename("attachment")
	if ok {
		t.Error("ok = true for header with no filename parameter, want false")
	}
}

func TestFilenameExtendedWindows1252(t *testing.T) {
	// 0x80 in windows-1252 is the euro sign.
	name, ok := Filename(`attachment; filename*=windows-1252''%80.txt`)
	if !ok {
		t.Fatal("ok = false, want true")
	}
	if want := "€.txt"; name != want {
		t.Errorf("name = %q, want %q", name, want)
	}
}

func TestTruncateFilename(t *testing.T) {
	got := TruncateFilename(`a/b\c:d*e?f"g<h>i|j`, 100)
	if got != "abcdefghij" {
		t.Errorf("TruncateFilename stripped set = %q, want %q", got, "abcdefghij")
	}

	got = TruncateFilename("0123456789", 5)
	if got != "01234" {
		t.Errorf("TruncateFilename max length = %q, want %q", got, "01234")
	}
}
