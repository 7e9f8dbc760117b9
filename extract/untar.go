package extract

import (
	"archive/tar"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"

	"github.com/carbocation/geopipe"
	"github.com/carbocation/pfx"
)

// Untar writes every regular member of the archive at tarPath into dir under
// the member's base name, and returns the paths written in archive order.
// Directory structure inside the archive is flattened. Members that would end
// up at the same path, either directly or once decompressed, are a
// *geopipe.FormatError. The archive may itself be compressed.
func Untar(tarPath, dir string) ([]string, error) {
	f, err := os.Open(tarPath)
	if err != nil {
		return nil, &geopipe.FilesystemError{Path: tarPath, Err: pfx.Err(err)}
	}
	defer f.Close()

	rc, _, err := geopipe.MaybeDecompressReadCloser(f)
	if err != nil {
		return nil, &geopipe.FormatError{Path: tarPath, Err: pfx.Err(err)}
	}
	defer rc.Close()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &geopipe.FilesystemError{Path: dir, Err: pfx.Err(err)}
	}

	self, _ := filepath.Abs(tarPath)

	out := make([]string, 0)
	claimed := make(map[string]string)
	tarReader := tar.NewReader(rc)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return out, &geopipe.FormatError{Path: tarPath, Err: pfx.Err(err)}
		}

		if !header.FileInfo().Mode().IsRegular() {
			continue
		}

		name := path.Base(header.Name)
		if name == "." || name == "/" || name == ".." {
			continue
		}

		dest := filepath.Join(dir, name)
		if abs, _ := filepath.Abs(dest); abs == self {
			log.Println("Not overwriting the archive with its own member", header.Name)
			continue
		}

		// Flattening and decompression must not let two members land on the
		// same file.
		targets := []string{name}
		if plain, compressed := geopipe.TrimCompressedSuffix(name); compressed {
			targets = append(targets, plain)
		}
		for _, target := range targets {
			if other, taken := claimed[target]; taken {
				return out, &geopipe.FormatError{Path: tarPath, Err: fmt.Errorf("members %s and %s would both be extracted to %s", other, header.Name, target)}
			}
		}
		for _, target := range targets {
			claimed[target] = header.Name
		}

		if err := writeMember(dest, tarReader); err != nil {
			return out, err
		}

		log.Println("Extracted", header.Name, "to", dest)
		out = append(out, dest)
	}

	if len(out) == 0 {
		return out, &geopipe.FormatError{Path: tarPath, Err: fmt.Errorf("archive has no regular files")}
	}

	return out, nil
}

func writeMember(dest string, r io.Reader) error {
	w, err := os.Create(dest)
	if err != nil {
		return &geopipe.FilesystemError{Path: dest, Err: pfx.Err(err)}
	}

	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return &geopipe.FormatError{Path: dest, Err: pfx.Err(err)}
	}

	if err := w.Close(); err != nil {
		return &geopipe.FilesystemError{Path: dest, Err: pfx.Err(err)}
	}

	return nil
}
