package geopipe

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/carbocation/pfx"
)

const (
	// ProbesTable is the section whose TSV the trimming stage consumes.
	ProbesTable = "Probes"

	// TrimmedProbesFile is the name of the trimming stage's output.
	TrimmedProbesFile = "ProbesTrimmed.tsv"

	// TableExtension is appended to every section name to form its file name.
	TableExtension = ".tsv"

	// SeriesRoot is the directory on the GEO host under which series live.
	SeriesRoot = "geo/series"
)

// Dataset identifies where a GEO series' source and derived files live. It is
// not modified during a run.
type Dataset struct {
	// Directory is the local data root.
	Directory string

	// Name is the GEO accession, e.g. GSE68849.
	Name string

	// Series is the GEO bucket the accession is filed under, e.g. GSE68nnn.
	Series string
}

func (d Dataset) Validate() error {
	for _, field := range []struct {
		label, value string
	}{
		{"directory", d.Directory},
		{"dataset name", d.Name},
		{"dataset series", d.Series},
	} {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%s must not be empty", field.label)
		}
	}

	if strings.ContainsAny(d.Name, `/\`) || d.Name == ".." {
		return fmt.Errorf("dataset name %q must not contain a path separator", d.Name)
	}
	if strings.ContainsAny(d.Series, `/\`) || d.Series == ".." {
		return fmt.Errorf("dataset series %q must not contain a path separator", d.Series)
	}

	return nil
}

// TargetDir is where the archive, its members and all derived tables go.
func (d Dataset) TargetDir() string {
	return filepath.Join(d.Directory, d.Name)
}

func (d Dataset) ArchivePath() string {
	return filepath.Join(d.TargetDir(), d.Name+".tar")
}

// TablePath is the TSV written for the named section.
func (d Dataset) TablePath(section string) string {
	return filepath.Join(d.TargetDir(), section+TableExtension)
}

func (d Dataset) ProbesPath() string {
	return d.TablePath(ProbesTable)
}

func (d Dataset) TrimmedPath() string {
	return filepath.Join(d.TargetDir(), TrimmedProbesFile)
}

// RemotePath is the slash-separated location of the archive relative to the
// GEO host root, e.g. geo/series/GSE68nnn/GSE68849/suppl/GSE68849_RAW.tar.
func (d Dataset) RemotePath(archiveSuffix string) string {
	return path.Join(SeriesRoot, d.Series, d.Name, "suppl", d.Name+archiveSuffix)
}

func (d Dataset) String() string {
	return fmt.Sprintf("%s (%s) in %s", d.Name, d.Series, d.Directory)
}

// Exists reports whether anything is present at path. Existence is the only
// completion signal the pipeline uses, so an empty file counts. Only a
// not-exist error means missing; any other stat failure (a permission error,
// say) is returned as a *FilesystemError rather than treated as absence.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}

	return false, &FilesystemError{Path: path, Err: pfx.Err(err)}
}
