package main

import (
	"encoding/csv"
	"io"
	"path/filepath"

	"github.com/carbocation/geopipe/extract"
	"github.com/gocarina/gocsv"
)

type SectionSummary struct {
	Table   string `csv:"table"`
	File    string `csv:"file"`
	Rows    int    `csv:"rows"`
	Columns int    `csv:"columns"`
}

// WriteSummary prints one tab-delimited line per section written by the
// extract stage. If that stage was skipped, only the header is printed.
func WriteSummary(w io.Writer, sections []extract.Section) error {
	out := make([]*SectionSummary, 0, len(sections))
	for _, s := range sections {
		out = append(out, &SectionSummary{
			Table:   s.Name,
			File:    filepath.Base(s.Path),
			Rows:    s.Rows,
			Columns: s.Columns,
		})
	}

	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	return gocsv.MarshalCSV(&out, gocsv.NewSafeCSVWriter(cw))
}
