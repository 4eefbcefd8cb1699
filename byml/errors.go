package byml

import (
	"fmt"
)

// DecodeError describes structurally invalid document data.
type DecodeError struct {
	Data []byte
	Off  int
	Err  error
	Msg  string
}

func decodeErrf(data []byte, off int, err error, format string, args ...any) error {
	return &DecodeError{data, off, err, fmt.Sprintf(format, args...)}
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Error() string {
	const window = 16
	start := max(0, min(e.Off, len(e.Data))-window)
	end := min(len(e.Data), max(e.Off, 0)+window)
	ctx := e.Data[start:end]
	if e.Err != nil {
		return fmt.Sprintf("byml: %s at 0x%x: %v: (%d) [0x%x] %x", e.Msg, e.Off, e.Err, len(e.Data), start, ctx)
	} else {
		return fmt.Sprintf("byml: %s at 0x%x: (%d) [0x%x] %x", e.Msg, e.Off, len(e.Data), start, ctx)
	}
}

// EncodeError reports a value that cannot be represented in a document.
type EncodeError struct {
	Path string
	Msg  string
}

func (e *EncodeError) Error() string {
	if e.Path == "" {
		return "byml: " + e.Msg
	}
	return fmt.Sprintf("byml: %s: %s", e.Path, e.Msg)
}
