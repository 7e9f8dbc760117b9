package fetch

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// Local reads from a directory laid out like the GEO host.
type Local struct {
	Root string
}

func (l *Local) String() string {
	return l.Root
}

func (l *Local) Open(_ context.Context, remotePath string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(l.Root, filepath.FromSlash(remotePath)))
}
