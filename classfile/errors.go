package classfile

import (
	"errors"
	"fmt"
)

var (
	ErrBadMagic      = errors.New("invalid magic number")
	ErrTruncated     = errors.New("truncated")
	ErrUnknownTag    = errors.New("unknown tag")
	ErrBadConstant   = errors.New("bad constant pool reference")
	ErrTrailingBytes = errors.New("trailing bytes")
)

// FormatError reports a structural violation in a class file. A read that
// fails with a FormatError never yields a partial descriptor.
type FormatError struct {
	Path   string
	Offset int
	Err    error
}

func (e *FormatError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("malformed class file at offset %d: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("%s: malformed class file at offset %d: %v", e.Path, e.Offset, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }
