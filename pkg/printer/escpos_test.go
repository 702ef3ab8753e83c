package printer

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestRowPadsAndTruncates(t *testing.T) {
	d := NewDocument(20)
	d.Row(Column{Text: "Paracetamol 500mg tablets", Width: 12}, Column{Text: "189", Right: true})
	out := string(d.Bytes()[2:])
	want := "Paracetamol " + strings.Repeat(" ", 5) + "189\n"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestKeyValueFillsWidth(t *testing.T) {
	d := NewDocument(Width58mm)
	d.KeyValue("Grand Total", "₹189")
	line := strings.TrimSuffix(string(d.Bytes()[2:]), "\n")
	if n := len([]rune(line)); n != Width58mm {
		t.Fatalf("expected %d characters, got %d (%q)", Width58mm, n, line)
	}
	if !strings.HasSuffix(line, "₹189") || !strings.HasPrefix(line, "Grand Total") {
		t.Fatalf("unexpected line %q", line)
	}
}

func TestWrap(t *testing.T) {
	got := Wrap("12 Gandhi Road, Madurai, Tamil Nadu", 16)
	want := []string{"12 Gandhi Road,", "Madurai, Tamil", "Nadu"}
	if len(got) != len(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d: got %q, want %q", i, got[i], want[i])
		}
	}
	long := Wrap("ABCDEFGHIJ", 4)
	if len(long) != 3 || long[2] != "IJ" {
		t.Fatalf("unexpected hard wrap %q", long)
	}
}

func TestDocumentFraming(t *testing.T) {
	d := NewDocument(0).Text("hi").Cut()
	b := d.Bytes()
	if !bytes.HasPrefix(b, []byte{ESC, '@'}) || !bytes.HasSuffix(b, []byte{GS, 'V', 0x00}) {
		t.Fatalf("unexpected framing % x", b)
	}
	if d.Width() != Width58mm {
		t.Fatalf("expected default width %d, got %d", Width58mm, d.Width())
	}
}

func TestNewPrinterFromConfig(t *testing.T) {
	p, err := NewPrinterFromConfig("", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st := p.Status(context.Background()); st.Type != TypeNone || st.Connected {
		t.Fatalf("unexpected status %+v", st)
	}
	if _, err := NewPrinterFromConfig(TypeUSB, "", ""); err == nil {
		t.Fatal("expected error for usb without path")
	}
	if _, err := NewPrinterFromConfig("bluetooth", "", ""); err == nil {
		t.Fatal("expected error for unknown type")
	}
}
