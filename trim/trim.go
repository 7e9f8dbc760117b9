// Package trim projects a delimited table onto all but a fixed set of
// columns.
package trim

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"os"

	"github.com/carbocation/geopipe"
	"github.com/carbocation/pfx"
)

var BufferSize = 4096 * 8

type Result struct {
	Path          string
	Rows          int
	ColumnsBefore int
	ColumnsAfter  int
	Skipped       bool
}

// Trim reads the table at in, removes every column named in drop, and writes
// the rest (columns and rows in their original order) to out as TSV. If any
// drop column is absent, including when the table has no header at all, a
// *geopipe.MissingColumnError is returned and out is not created. Dropping
// every column is a *geopipe.FormatError. Nothing happens if out already
// exists.
func Trim(in, out string, drop []string) (Result, error) {
	res := Result{Path: out}

	if done, err := geopipe.Exists(out); err != nil {
		return res, err
	} else if done {
		log.Println("Already trimmed:", out, "exists")
		res.Skipped = true
		return res, nil
	}

	records, err := ReadTable(in)
	if err != nil {
		return res, err
	}
	if len(records) == 0 {
		// No header means none of the drop columns are there.
		if len(drop) > 0 {
			return res, &geopipe.MissingColumnError{Path: in, Columns: append([]string(nil), drop...)}
		}
		return res, &geopipe.FormatError{Path: in, Err: fmt.Errorf("table is empty; no header to trim")}
	}

	header := records[0]
	keep, err := KeepColumns(header, drop)
	if err != nil {
		if mc, ok := err.(*geopipe.MissingColumnError); ok {
			mc.Path = in
		}
		return res, err
	}
	if len(keep) == 0 {
		return res, &geopipe.FormatError{Path: in, Err: fmt.Errorf("dropping %d columns leaves nothing to write", len(drop))}
	}

	res.ColumnsBefore = len(header)
	res.ColumnsAfter = len(keep)
	res.Rows = len(records) - 1

	f, err := os.Create(out)
	if err != nil {
		return res, &geopipe.FilesystemError{Path: out, Err: pfx.Err(err)}
	}

	bw := bufio.NewWriterSize(f, BufferSize)
	w := csv.NewWriter(bw)
	w.Comma = '\t'

	projected := make([]string, len(keep))
	for i, row := range records {
		for j, col := range keep {
			if col < len(row) {
				projected[j] = row[col]
			} else {
				projected[j] = ""
			}
		}
		if err := writeRow(w, bw, projected); err != nil {
			f.Close()
			return res, &geopipe.FilesystemError{Path: out, Err: pfx.Err(fmt.Errorf("row %d: %w", i, err))}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return res, &geopipe.FilesystemError{Path: out, Err: pfx.Err(err)}
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return res, &geopipe.FilesystemError{Path: out, Err: pfx.Err(err)}
	}
	if err := f.Close(); err != nil {
		return res, &geopipe.FilesystemError{Path: out, Err: pfx.Err(err)}
	}

	log.Printf("Trimmed %s from %d to %d columns over %d rows\n", out, res.ColumnsBefore, res.ColumnsAfter, res.Rows)

	return res, nil
}

// writeRow writes one record. encoding/csv renders a record made of a single
// empty field as a blank line, which readers skip, so that case is written as
// a quoted empty field instead.
func writeRow(w *csv.Writer, bw *bufio.Writer, record []string) error {
	if len(record) != 1 || record[0] != "" {
		return w.Write(record)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	_, err := bw.WriteString("\"\"\n")
	return err
}

// ReadTable loads a whole delimited file. The delimiter is sniffed from the
// content, defaulting to tab.
func ReadTable(path string) ([][]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &geopipe.FilesystemError{Path: path, Err: pfx.Err(err)}
	}

	delim := geopipe.DetermineDelimiter(bytes.NewReader(raw), '\t')

	r := csv.NewReader(bytes.NewReader(raw))
	r.Comma = delim
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, &geopipe.FormatError{Path: path, Err: pfx.Err(err)}
	}

	return records, nil
}

// KeepColumns returns the indices of header that are not in drop, in order.
// Every name in drop must be present in header.
func KeepColumns(header, drop []string) ([]int, error) {
	dropSet := make(map[string]struct{}, len(drop))
	for _, col := range drop {
		dropSet[col] = struct{}{}
	}

	seen := make(map[string]struct{}, len(drop))
	keep := make([]int, 0, len(header))
	for i, col := range header {
		if _, exists := dropSet[col]; exists {
			seen[col] = struct{}{}
			continue
		}
		keep = append(keep, i)
	}

	missing := make([]string, 0)
	for _, col := range drop {
		if _, exists := seen[col]; !exists {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &geopipe.MissingColumnError{Columns: missing}
	}

	return keep, nil
}
