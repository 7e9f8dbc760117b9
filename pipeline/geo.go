package pipeline

import (
	"context"

	"github.com/carbocation/geopipe"
	"github.com/carbocation/geopipe/extract"
	"github.com/carbocation/geopipe/fetch"
	"github.com/carbocation/geopipe/trim"
)

const (
	TaskDownload = "download"
	TaskExtract  = "extract"
	TaskTrim     = "trim"

	StatePendingDownload = "PENDING_DOWNLOAD"
	StateDownloaded      = "DOWNLOADED"
	StateExtractedSplit  = "EXTRACTED_SPLIT"
	StateTrimmed         = "TRIMMED"
)

// GEO is the download → extract/split → trim pipeline for one dataset.
type GEO struct {
	Pipeline

	Dataset     geopipe.Dataset
	Conventions geopipe.Conventions
	Retriever   fetch.Retriever

	// Filled in by the stages that ran
	Fetched   fetch.Result
	Extracted extract.Result
	Trimmed   trim.Result
}

func NewGEO(ds geopipe.Dataset, conv geopipe.Conventions, r fetch.Retriever) *GEO {
	g := &GEO{
		Dataset:     ds,
		Conventions: conv,
		Retriever:   r,
	}

	g.Pipeline = Pipeline{
		Pending: StatePendingDownload,
		Stages: []Stage{
			{
				Name:    TaskDownload,
				Aliases: []string{"DownloadGeoDataset"},
				Output:  ds.ArchivePath(),
				Done:    StateDownloaded,
				Run:     g.runDownload,
			},
			{
				Name:    TaskExtract,
				Aliases: []string{"ExtractAndProcessGeoDataset"},
				Output:  ds.ProbesPath(),
				Done:    StateExtractedSplit,
				Run:     g.runExtract,
			},
			{
				Name:    TaskTrim,
				Aliases: []string{"ProcessProbes"},
				Output:  ds.TrimmedPath(),
				Done:    StateTrimmed,
				Run:     g.runTrim,
			},
		},
	}

	return g
}

func (g *GEO) runDownload(ctx context.Context) (err error) {
	g.Fetched, err = fetch.Fetch(ctx, g.Dataset, g.Conventions.ArchiveSuffix, g.Retriever)
	return err
}

func (g *GEO) runExtract(_ context.Context) (err error) {
	g.Extracted, err = extract.Extract(g.Dataset, g.Conventions)
	return err
}

func (g *GEO) runTrim(_ context.Context) (err error) {
	g.Trimmed, err = trim.Trim(g.Dataset.ProbesPath(), g.Dataset.TrimmedPath(), g.Conventions.DropColumns)
	return err
}
