package geopipe

import (
	"fmt"
	"strings"
)

// NetworkError means the remote host or path could not be reached or read.
type NetworkError struct {
	Remote string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network: %s: %v", e.Remote, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// FilesystemError covers local I/O failures: missing directories,
// permissions, full disks.
type FilesystemError struct {
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("filesystem: %s: %v", e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

// FormatError means an input was present but not shaped the way we expect:
// a corrupt archive, no full-table member, an unparsable section header.
type FormatError struct {
	Path string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format: %s: %v", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// MissingColumnError is returned when a table lacks one or more columns that
// were supposed to be dropped from it.
type MissingColumnError struct {
	Path    string
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: column(s) not found: %s", e.Path, strings.Join(e.Columns, ", "))
}
