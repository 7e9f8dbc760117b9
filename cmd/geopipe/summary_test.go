package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/carbocation/geopipe/extract"
)

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer

	err := WriteSummary(&buf, []extract.Section{
		{Name: "Heading", Path: "/data/GSE68849/Heading.tsv", Rows: 7, Columns: 2},
		{Name: "Probes", Path: "/data/GSE68849/Probes.tsv", Rows: 47323, Columns: 28},
	})
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected a header and 2 lines, got %q", buf.String())
	}
	if lines[0] != "table\tfile\trows\tcolumns" {
		t.Fatalf("header: %q", lines[0])
	}
	if lines[2] != "Probes\tProbes.tsv\t47323\t28" {
		t.Fatalf("probes line: %q", lines[2])
	}
}
