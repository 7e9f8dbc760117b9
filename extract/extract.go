// Package extract unpacks a downloaded GEO archive and splits its combined
// annotation table into one TSV per section.
package extract

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/carbocation/geopipe"
	"github.com/carbocation/pfx"
)

type Result struct {
	// FullTable is the decompressed member that was split.
	FullTable string
	Members   []string
	Sections  []Section
	Skipped   bool
}

// Extract unpacks ds.ArchivePath() into ds.TargetDir(), decompresses the
// compressed members, and splits the member matching the full-table pattern
// into <Section>.tsv files. Nothing happens if ds.ProbesPath() already exists.
func Extract(ds geopipe.Dataset, conv geopipe.Conventions) (Result, error) {
	res := Result{}

	if done, err := geopipe.Exists(ds.ProbesPath()); err != nil {
		return res, err
	} else if done {
		log.Println("Already extracted:", ds.ProbesPath(), "exists")
		res.Skipped = true
		return res, nil
	}

	if err := conv.Validate(); err != nil {
		return res, pfx.Err(err)
	}

	if present, err := geopipe.Exists(ds.ArchivePath()); err != nil {
		return res, err
	} else if !present {
		return res, &geopipe.FilesystemError{Path: ds.ArchivePath(), Err: os.ErrNotExist}
	}

	extracted, err := Untar(ds.ArchivePath(), ds.TargetDir())
	if err != nil {
		return res, err
	}

	for _, member := range extracted {
		decompressed, err := Decompress(member)
		if err != nil {
			return res, err
		}
		if decompressed != member {
			log.Println("Decompressed", filepath.Base(member), "to", filepath.Base(decompressed))
		}
		res.Members = append(res.Members, decompressed)
	}

	res.FullTable, err = FindFullTable(res.Members, conv)
	if err != nil {
		return res, &geopipe.FormatError{Path: ds.ArchivePath(), Err: pfx.Err(err)}
	}

	log.Println("Splitting", res.FullTable)

	res.Sections, err = SplitFile(res.FullTable, ds.TargetDir(), conv)
	if err != nil {
		return res, err
	}

	for _, s := range res.Sections {
		log.Printf("Wrote section %s: %d rows, %d columns\n", s.Name, s.Rows, s.Columns)
	}

	if written, err := geopipe.Exists(ds.ProbesPath()); err != nil {
		return res, err
	} else if !written {
		return res, &geopipe.FormatError{Path: res.FullTable, Err: fmt.Errorf("no [%s] section found", geopipe.ProbesTable)}
	}

	return res, nil
}

// FindFullTable returns the first member, in name order, whose base name
// matches the full-table pattern.
func FindFullTable(members []string, conv geopipe.Conventions) (string, error) {
	sorted := append([]string(nil), members...)
	sort.Strings(sorted)

	for _, member := range sorted {
		if conv.IsFullTable(filepath.Base(member)) {
			return member, nil
		}
	}

	return "", fmt.Errorf("none of the %d members matched %s", len(members), conv.FullTablePattern)
}
