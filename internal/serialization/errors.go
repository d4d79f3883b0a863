package serialization

import "errors"

// Sentinel errors, one per failure class. Readers wrap them with
// per-file detail; callers match with errors.Is.
var (
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
	ErrTooManyTensors     = errors.New("too many tensors in file")
	ErrNegativeOffset     = errors.New("negative tensor offset or size")
	ErrOutOfBounds        = errors.New("tensor extends beyond data section")
	ErrOffsetOverlap      = errors.New("tensor offsets overlap")
)
