package serialization

import "errors"

// Common errors.
var (
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrOutOfBounds        = errors.New("tensor extends beyond data section")
	ErrTruncated          = errors.New("file truncated")
)
