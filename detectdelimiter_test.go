package geopipe

import (
	"strings"
	"testing"
)

func TestDetermineDelimiter(t *testing.T) {
	tsv := strings.Repeat("ILMN_1762337\t7A5\tRefSeq\n", 5)
	if got := DetermineDelimiter(strings.NewReader(tsv), '\t'); got != '\t' {
		t.Fatalf("tsv: got %q", got)
	}

	csv := "Probe_Id,Symbol,Source\n" + strings.Repeat("ILMN_1762337,7A5,RefSeq\n", 5)
	if got := DetermineDelimiter(strings.NewReader(csv), '\t'); got != ',' {
		t.Fatalf("csv: got %q", got)
	}

	if got := DetermineDelimiter(strings.NewReader(""), '\t'); got != '\t' {
		t.Fatalf("empty input should fall back, got %q", got)
	}
}
