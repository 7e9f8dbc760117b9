package geopipe

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"regexp"

	"github.com/carbocation/pfx"
)

// DefaultDropColumns are the Probes annotation columns that downstream
// analyses do not use.
var DefaultDropColumns = []string{
	"Definition",
	"Ontology_Component",
	"Ontology_Process",
	"Ontology_Function",
	"Synonyms",
	"Obsolete_Probe_Id",
	"Probe_Sequence",
}

const (
	// DefaultFullTablePattern matches the platform annotation file that GEO
	// ships inside Illumina BeadChip RAW archives, e.g.
	// GPL10558_HumanHT-12_V4_0_R2_15002873_B.txt
	DefaultFullTablePattern = `(?i)^GPL\d+_.+\.txt$`

	// DefaultArchiveSuffix names the supplementary archive under suppl/.
	DefaultArchiveSuffix = "_RAW.tar"
)

// Conventions are the dataset-specific rules used by the extraction and
// trimming stages. They are supplied by the operator, never inferred.
type Conventions struct {
	ConfigPath string `json:"-"`

	// ArchiveSuffix is appended to the dataset name to form the remote file.
	ArchiveSuffix string `json:"archive_suffix"`

	// FullTablePattern selects the decompressed member to split.
	FullTablePattern string `json:"full_table_pattern"`

	// HeaderlessSections have no column header line of their own; one is
	// synthesized from column indices.
	HeaderlessSections []string `json:"headerless_sections"`

	// DropColumns are removed from the Probes table.
	DropColumns []string `json:"drop_columns"`

	fullTable *regexp.Regexp
}

func DefaultConventions() Conventions {
	return Conventions{
		ArchiveSuffix:      DefaultArchiveSuffix,
		FullTablePattern:   DefaultFullTablePattern,
		HeaderlessSections: []string{"Heading"},
		DropColumns:        append([]string(nil), DefaultDropColumns...),
	}
}

// ParseConventionsFromPath reads a JSON file and overlays any fields it sets
// on top of DefaultConventions.
func ParseConventionsFromPath(path string) (Conventions, error) {
	out := DefaultConventions()
	out.ConfigPath = ExpandHome(path)

	f, err := os.Open(out.ConfigPath)
	if err != nil {
		return out, pfx.Err(err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&out); err != nil {
		if e, ok := err.(*json.SyntaxError); ok {
			log.Printf("syntax error at byte offset %d", e.Offset)
		}
		return out, pfx.Err(err)
	}

	if err := out.Validate(); err != nil {
		return out, pfx.Err(err)
	}

	return out, nil
}

func (c *Conventions) Validate() error {
	if c.ArchiveSuffix == "" {
		return fmt.Errorf("archive_suffix must not be empty")
	}

	re, err := regexp.Compile(c.FullTablePattern)
	if err != nil {
		return fmt.Errorf("full_table_pattern: %w", err)
	}
	c.fullTable = re

	return nil
}

// IsFullTable reports whether a decompressed member name is the combined
// multi-section table.
func (c *Conventions) IsFullTable(name string) bool {
	if c.fullTable == nil {
		if err := c.Validate(); err != nil {
			return false
		}
	}

	return c.fullTable.MatchString(name)
}

func (c Conventions) IsHeaderless(section string) bool {
	for _, v := range c.HeaderlessSections {
		if v == section {
			return true
		}
	}

	return false
}
