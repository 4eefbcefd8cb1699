package hypostasis

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCancelled marks files that were never started because the batch
	// context was cancelled.
	ErrCancelled = errors.New("cancelled before processing")

	// ErrNoReferenceSet is returned when remapping is attempted without a
	// reference identifier set.
	ErrNoReferenceSet = errors.New("no reference identifier set")

	// ErrBackupMissing is returned by Restore for files that have no backup.
	ErrBackupMissing = errors.New("backup not found")
)

// SchemaError reports an object entry or link record that does not have the
// expected shape. Entry and Link are -1 when not applicable.
type SchemaError struct {
	Entry int
	Link  int
	Field string
	Msg   string
	Err   error
}

func schemaErrf(entry, link int, field string, format string, args ...any) error {
	return &SchemaError{Entry: entry, Link: link, Field: field, Msg: fmt.Sprintf(format, args...)}
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

func (e *SchemaError) Error() string {
	var buf strings.Builder
	buf.WriteString("Objs")
	if e.Entry >= 0 {
		fmt.Fprintf(&buf, "[%d]", e.Entry)
	}
	if e.Link >= 0 {
		fmt.Fprintf(&buf, ".LinksToObj[%d]", e.Link)
	}
	if e.Field != "" {
		buf.WriteByte('.')
		buf.WriteString(e.Field)
	}
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
		if e.Err != nil {
			buf.WriteString(": ")
			buf.WriteString(e.Err.Error())
		}
	} else if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

// IOError is a file system failure with the operation and path involved.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Stage names one step of the per-file pipeline.
type Stage string

const (
	StageRead       Stage = "read"
	StageDecompress Stage = "decompress"
	StageParse      Stage = "parse"
	StageRemap      Stage = "remap"
	StageSerialize  Stage = "serialize"
	StageCompress   Stage = "compress"
	StageBackup     Stage = "backup"
	StageWrite      Stage = "write"
	StageRestore    Stage = "restore"
)

// StageError attributes an error to a pipeline stage.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FileError is a per-file failure collected by Batch and Restore.
type FileError struct {
	Path  string
	Stage Stage
	Err   error
}

func (e *FileError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Stage, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Cause returns a short description of the underlying error without the path
// and stage prefixes.
func (e *FileError) Cause() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func fileErr(path string, err error) *FileError {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		return &FileError{Path: path, Stage: se.Stage, Err: se.Err}
	}
	return &FileError{Path: path, Err: err}
}
