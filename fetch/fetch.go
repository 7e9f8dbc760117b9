// Package fetch downloads a GEO series' supplementary archive, unless it is
// already present locally.
package fetch

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/carbocation/geopipe"
	"github.com/carbocation/pfx"
)

// A Retriever opens a file on a GEO mirror. remotePath is slash-separated and
// relative to the mirror root, e.g. geo/series/GSE68nnn/GSE68849/suppl/x.tar
type Retriever interface {
	Open(ctx context.Context, remotePath string) (io.ReadCloser, error)
	String() string
}

type Result struct {
	Path    string
	Remote  string
	Bytes   int64
	Skipped bool
}

// Fetch makes sure ds.ArchivePath() exists. If it already does, the
// retriever is never touched. Otherwise the archive named by ds and
// archiveSuffix is streamed into place.
//
// The remote file is opened before the local one is created, so an
// unreachable host or a missing path leaves nothing behind. A transfer that
// dies midway does leave a partial archive, which must be removed by hand.
func Fetch(ctx context.Context, ds geopipe.Dataset, archiveSuffix string, r Retriever) (Result, error) {
	res := Result{
		Path:   ds.ArchivePath(),
		Remote: ds.RemotePath(archiveSuffix),
	}

	if done, err := geopipe.Exists(res.Path); err != nil {
		return res, err
	} else if done {
		log.Println("Already downloaded", res.Path)
		res.Skipped = true
		return res, nil
	}

	if err := os.MkdirAll(ds.TargetDir(), 0755); err != nil {
		return res, &geopipe.FilesystemError{Path: ds.TargetDir(), Err: pfx.Err(err)}
	}

	log.Printf("Downloading %s from %s\n", res.Remote, r)

	src, err := r.Open(ctx, res.Remote)
	if err != nil {
		return res, &geopipe.NetworkError{Remote: r.String() + "/" + res.Remote, Err: pfx.Err(err)}
	}
	defer src.Close()

	f, err := os.Create(res.Path)
	if err != nil {
		return res, &geopipe.FilesystemError{Path: res.Path, Err: pfx.Err(err)}
	}

	w := &errWriter{w: f}
	res.Bytes, err = io.Copy(w, src)
	if err != nil {
		f.Close()
		if w.err != nil {
			return res, &geopipe.FilesystemError{Path: res.Path, Err: pfx.Err(w.err)}
		}
		return res, &geopipe.NetworkError{Remote: r.String() + "/" + res.Remote, Err: pfx.Err(err)}
	}

	if err := f.Close(); err != nil {
		return res, &geopipe.FilesystemError{Path: res.Path, Err: pfx.Err(err)}
	}

	log.Printf("Saved %d bytes to %s\n", res.Bytes, res.Path)

	return res, nil
}

// errWriter remembers whether a failed copy was the local side's fault.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}
