package geopipe

import (
	"bytes"
	"compress/bzip2"
	"io"
	"strings"

	"github.com/klauspost/pgzip"
	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

type DataType byte

const (
	DataTypeInvalid DataType = iota
	DataTypeNoCompression
	DataTypeGzip
	DataTypeZip
	DataTypeXZ
	DataTypeBZip2
)

func (dt DataType) String() string {
	switch dt {
	case DataTypeNoCompression:
		return "uncompressed"
	case DataTypeGzip:
		return "gzip"
	case DataTypeZip:
		return "zip"
	case DataTypeXZ:
		return "xz"
	case DataTypeBZip2:
		return "bzip2"
	}

	return "invalid"
}

var byteCodeSigs = map[DataType][]byte{
	DataTypeGzip:  {0x1f, 0x8b, 0x08},
	DataTypeZip:   {0x50, 0x4b, 0x03, 0x04},
	DataTypeXZ:    {0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00},
	DataTypeBZip2: {0x42, 0x5a, 0x68},
}

// CompressedSuffixes are the member name suffixes that mark a file to be
// decompressed after extraction. The codec itself is chosen by magic bytes.
var CompressedSuffixes = []string{".gz", ".bgz", ".xz", ".bz2", ".zip"}

// TrimCompressedSuffix returns name without its compression suffix, and
// whether one was present.
func TrimCompressedSuffix(name string) (string, bool) {
	lower := strings.ToLower(name)
	for _, suffix := range CompressedSuffixes {
		if strings.HasSuffix(lower, suffix) && len(name) > len(suffix) {
			return name[:len(name)-len(suffix)], true
		}
	}

	return name, false
}

// DetectDataType attempts to detect the data type of a stream by checking
// against a set of known data types. Streams shorter than the longest
// signature are still matched against the shorter signatures. Byte code
// signatures from https://stackoverflow.com/a/19127748/199475
func DetectDataType(r io.Reader) (DataType, error) {
	buff := make([]byte, 6)
	n, err := io.ReadFull(r, buff)
	if err == io.EOF {
		// Empty stream: nothing to decompress
		return DataTypeNoCompression, nil
	} else if err != nil && err != io.ErrUnexpectedEOF {
		return DataTypeInvalid, err
	}
	buff = buff[:n]

	for dt, sig := range byteCodeSigs {
		if bytes.HasPrefix(buff, sig) {
			return dt, nil
		}
	}

	return DataTypeNoCompression, nil
}

// MaybeDecompressReadCloser sniffs the head of f, rewinds it, and returns a
// reader that yields the decompressed bytes. Uncompressed input is returned
// as-is. Closing the returned reader does not close f.
func MaybeDecompressReadCloser(f io.ReadSeeker) (io.ReadCloser, DataType, error) {
	dt, err := DetectDataType(f)
	if err != nil {
		return nil, dt, err
	}

	// Reset the original reader
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, dt, err
	}

	switch dt {
	case DataTypeGzip:
		gzr, err := pgzip.NewReader(f)
		if err != nil {
			return nil, dt, err
		}
		return gzr, dt, nil
	case DataTypeZip:
		// Only the first entry of a zip member is kept
		zr := zipstream.NewReader(f)
		if _, err := zr.Next(); err != nil {
			return nil, dt, err
		}
		return &readCloserFaker{zr}, dt, nil
	case DataTypeBZip2:
		return &readCloserFaker{bzip2.NewReader(f)}, dt, nil
	case DataTypeXZ:
		reader, err := xz.NewReader(f, 0)
		if err != nil {
			return nil, dt, err
		}
		return &readCloserFaker{reader}, dt, nil
	}

	return &readCloserFaker{f}, dt, nil
}

// readCloserFaker "upgrades" readers that don't need to be closed
type readCloserFaker struct {
	io.Reader
}

func (c *readCloserFaker) Close() error {
	return nil
}
