package extract

import (
	"fmt"
	"io"
	"os"

	"github.com/carbocation/geopipe"
	"github.com/carbocation/pfx"
)

// Decompress expands a compressed member into its sibling without the
// compression suffix and removes the compressed copy. The new path is
// returned. Files whose names don't carry a compression suffix are left
// alone. An existing sibling is replaced: Untar refuses archives in which two
// members map to the same name, so such a file is a leftover from an earlier
// run that stopped before writing its tables.
func Decompress(src string) (string, error) {
	dest, compressed := geopipe.TrimCompressedSuffix(src)
	if !compressed {
		return src, nil
	}

	f, err := os.Open(src)
	if err != nil {
		return "", &geopipe.FilesystemError{Path: src, Err: pfx.Err(err)}
	}

	rc, dt, err := geopipe.MaybeDecompressReadCloser(f)
	if err != nil {
		f.Close()
		return "", &geopipe.FormatError{Path: src, Err: pfx.Err(err)}
	}
	if dt == geopipe.DataTypeNoCompression {
		f.Close()
		return "", &geopipe.FormatError{Path: src, Err: fmt.Errorf("named as compressed but no known compression signature was found")}
	}

	w, err := os.Create(dest)
	if err != nil {
		rc.Close()
		f.Close()
		return "", &geopipe.FilesystemError{Path: dest, Err: pfx.Err(err)}
	}

	_, copyErr := io.Copy(w, rc)
	rc.Close()
	f.Close()
	if copyErr != nil {
		w.Close()
		return "", &geopipe.FormatError{Path: src, Err: pfx.Err(fmt.Errorf("%s decompression: %w", dt, copyErr))}
	}

	if err := w.Close(); err != nil {
		return "", &geopipe.FilesystemError{Path: dest, Err: pfx.Err(err)}
	}

	if err := os.Remove(src); err != nil {
		return "", &geopipe.FilesystemError{Path: src, Err: pfx.Err(err)}
	}

	return dest, nil
}
