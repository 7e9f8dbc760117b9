// geopipe downloads a GEO series' RAW archive, splits the platform annotation
// table it contains into one TSV per section, and trims the Probes table down
// to the columns used downstream. Each stage is skipped when its output file
// already exists, so re-running after a failure resumes where it stopped.
//
// Example:
//
//	geopipe -dir data -dataset GSE68849 -series GSE68nnn -task trim
package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/carbocation/geopipe"
	_ "github.com/carbocation/geopipe/compileinfoprint"
	"github.com/carbocation/geopipe/fetch"
	"github.com/carbocation/geopipe/pipeline"
	"github.com/carbocation/pfx"
	"google.golang.org/api/option"
)

var (
	BufferSize = 4096 * 8
	STDOUT     = bufio.NewWriterSize(os.Stdout, BufferSize)
)

func main() {
	var ds geopipe.Dataset
	var task, source, configPath string
	var summary, anonymousGS bool
	var timeout time.Duration

	flag.StringVar(&task, "task", pipeline.TaskTrim, "Final task to bring up to date: download, extract or trim.")
	flag.StringVar(&ds.Directory, "dir", "data", "Local data directory. Each dataset gets its own subfolder.")
	flag.StringVar(&ds.Name, "dataset", "GSE68849", "GEO series accession.")
	flag.StringVar(&ds.Series, "series", "GSE68nnn", "GEO series bucket the accession is filed under.")
	flag.StringVar(&source, "source", fetch.DefaultSource, "Where to download from: ftp://host, https://host, gs://bucket/prefix, or a local directory mirroring the GEO tree.")
	flag.BoolVar(&anonymousGS, "gs-anonymous", false, "Access a gs:// source without credentials (public buckets).")
	flag.StringVar(&configPath, "config", "", "Optional JSON file overriding archive_suffix, full_table_pattern, headerless_sections and drop_columns.")
	flag.BoolVar(&summary, "summary", false, "Print a TSV summary of the tables written by the extract stage to STDOUT.")
	flag.DurationVar(&timeout, "timeout", 0, "Abort the run after this long (0 means no limit).")
	flag.Parse()

	ds.Directory = geopipe.ExpandHome(ds.Directory)
	if err := ds.Validate(); err != nil {
		log.Println(err)
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(ds, task, source, configPath, summary, anonymousGS, timeout); err != nil {
		log.Fatalln(err)
	}
}

func run(ds geopipe.Dataset, task, source, configPath string, summary, anonymousGS bool, timeout time.Duration) error {
	defer STDOUT.Flush()

	conv := geopipe.DefaultConventions()
	if configPath != "" {
		var err error
		conv, err = geopipe.ParseConventionsFromPath(configPath)
		if err != nil {
			return err
		}
		log.Println("Using conventions from", conv.ConfigPath)
	}

	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var gsOpts []option.ClientOption
	if anonymousGS {
		gsOpts = append(gsOpts, option.WithoutAuthentication())
	}

	retriever, err := fetch.NewRetriever(ctx, source, gsOpts...)
	if err != nil {
		return pfx.Err(err)
	}
	if gs, ok := retriever.(*fetch.GoogleStorage); ok {
		defer gs.Close()
	}

	log.Println("Started running at", time.Now())
	defer func() {
		log.Println("Completed at", time.Now())
	}()

	g := pipeline.NewGEO(ds, conv, retriever)
	state, err := g.State()
	if err != nil {
		return err
	}
	log.Printf("Dataset %s is in state %s; bringing %q up to date\n", ds, state, task)

	if _, err := g.Run(ctx, task); err != nil {
		return err
	}

	if state, err = g.State(); err != nil {
		return err
	}
	log.Printf("Dataset %s is in state %s\n", ds, state)

	if summary {
		return WriteSummary(STDOUT, g.Extracted.Sections)
	}

	return nil
}
