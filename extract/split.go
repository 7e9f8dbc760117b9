package extract

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/carbocation/geopipe"
	"github.com/carbocation/pfx"
)

const (
	// Delim separates fields both in the source and in the derived tables.
	Delim = '\t'

	maxLineBytes = 64 * 1024 * 1024
)

// Section is one table found in a full-table file.
type Section struct {
	Name    string
	Path    string
	Rows    int
	Columns int
}

type section struct {
	name string
	rows [][]string
}

// ParseSectionHeader recognizes lines like "[Probes]". ok is false for
// ordinary lines. A header whose name is empty or could not serve as a file
// name is an error.
func ParseSectionHeader(line string) (name string, ok bool, err error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "[") {
		return "", false, nil
	}

	name = strings.TrimSpace(strings.Trim(trimmed, "[]"))
	if name == "" {
		return "", true, fmt.Errorf("section header %q has no name", line)
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", true, fmt.Errorf("section header %q cannot name a file", line)
	}

	return name, true, nil
}

// SplitFile splits the full-table file at path into one TSV per section,
// written to dir.
func SplitFile(path, dir string, conv geopipe.Conventions) ([]Section, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &geopipe.FilesystemError{Path: path, Err: pfx.Err(err)}
	}
	defer f.Close()

	sections, err := readSections(f, conv)
	if err != nil {
		return nil, &geopipe.FormatError{Path: path, Err: pfx.Err(err)}
	}

	out := make([]Section, 0, len(sections))
	for _, s := range sections {
		written, err := writeSection(dir, s, conv.IsHeaderless(s.name))
		if err != nil {
			return out, err
		}
		out = append(out, written)
	}

	return out, nil
}

// readSections reads the whole stream and groups its lines by section, in
// order of first appearance. Lines before the first header belong to no table
// and are dropped, as are empty lines. A section that appears a second time
// continues the first; if it repeats the column header, that line is dropped.
func readSections(r io.Reader, conv geopipe.Conventions) ([]*section, error) {
	sections := make([]*section, 0)
	byName := make(map[string]*section)

	var current *section
	newBlock := false

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for i := 0; scanner.Scan(); i++ {
		line := strings.TrimRight(scanner.Text(), "\r")

		name, isHeader, err := ParseSectionHeader(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		if isHeader {
			s, exists := byName[name]
			if !exists {
				s = &section{name: name}
				byName[name] = s
				sections = append(sections, s)
			}
			current = s
			newBlock = true
			continue
		}

		if current == nil || line == "" {
			continue
		}

		row := strings.Split(line, string(Delim))

		if newBlock {
			newBlock = false
			if len(current.rows) > 0 && !conv.IsHeaderless(current.name) && sameRow(current.rows[0], row) {
				continue
			}
		}

		current.rows = append(current.rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return sections, nil
}

func writeSection(dir string, s *section, headerless bool) (Section, error) {
	out := Section{
		Name: s.name,
		Path: filepath.Join(dir, s.name+geopipe.TableExtension),
	}

	for _, row := range s.rows {
		if len(row) > out.Columns {
			out.Columns = len(row)
		}
	}

	rows := s.rows
	if headerless && out.Columns > 0 {
		header := make([]string, out.Columns)
		for i := range header {
			header[i] = strconv.Itoa(i)
		}
		rows = append([][]string{header}, rows...)
	}
	out.Rows = len(s.rows)
	if !headerless && out.Rows > 0 {
		// The first line is the column header
		out.Rows--
	}

	f, err := os.Create(out.Path)
	if err != nil {
		return out, &geopipe.FilesystemError{Path: out.Path, Err: pfx.Err(err)}
	}

	w := csv.NewWriter(f)
	w.Comma = Delim

	for _, row := range rows {
		if len(row) < out.Columns {
			padded := make([]string, out.Columns)
			copy(padded, row)
			row = padded
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return out, &geopipe.FilesystemError{Path: out.Path, Err: pfx.Err(err)}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return out, &geopipe.FilesystemError{Path: out.Path, Err: pfx.Err(err)}
	}
	if err := f.Close(); err != nil {
		return out, &geopipe.FilesystemError{Path: out.Path, Err: pfx.Err(err)}
	}

	return out, nil
}

func sameRow(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
