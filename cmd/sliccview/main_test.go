package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTableLinesHighlightLastStep(t *testing.T) {
	dir := t.TempDir()
	trace := filepath.Join(dir, "trace.txt")
	if err := os.WriteFile(trace, []byte("0x40 GET\n0x40 GET\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	spec := filepath.Join("..", "..", "protocols", "idlebusy", "IdleBusy.sm")
	s, err := load(spec, trace, "")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	s.Step()
	last, _ := s.Step()

	lines := tableLines(s, last)
	if len(lines) != 5 {
		t.Fatalf("expected a header and 4 rows, got %d", len(lines))
	}
	if lines[0].text != "Table Directory (2 states x 2 events)" {
		t.Errorf("unexpected header %q", lines[0].text)
	}

	kinds := make(map[string]lineKind)
	for _, l := range lines[1:] {
		kinds[l.text] = l.kind
	}
	tests := []struct {
		row  string
		want lineKind
	}{
		{"IDLE       GET        -> BUSY       a_allocate g_sendGrant", lineNormal},
		{"IDLE       DONE       stall", lineStall},
		{"BUSY       GET        stall", lineCurrent},
		{"BUSY       DONE       -> IDLE       d_release", lineNormal},
	}
	for _, tt := range tests {
		got, ok := kinds[tt.row]
		if !ok {
			t.Errorf("missing row %q in %v", tt.row, lines)
			continue
		}
		if got != tt.want {
			t.Errorf("row %q: expected kind %d, got %d", tt.row, tt.want, got)
		}
	}
}
