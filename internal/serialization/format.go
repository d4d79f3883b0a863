package serialization

import (
	"time"

	"github.com/riverdarda/dll/internal/tensor"
)

// Format constants. ChecksumSize is the length of a SHA-256 digest.
const (
	Magic         = "DLLW"
	FormatVersion = 1
	ChecksumSize  = 32
	preludeSize   = 4 + 4 + 4 + ChecksumSize
)

// Validation limits. Files declaring more than this are rejected before
// any allocation happens.
const (
	MaxHeaderSize  = 64 * 1024 * 1024
	MaxTensorCount = 100_000
)

const libraryVersion = "0.1.0"

// Header is the JSON header of a .dllw file.
type Header struct {
	FormatVersion  int               `json:"format_version"`
	LibraryVersion string            `json:"dll_version"`
	ModelType      string            `json:"model_type"`
	CreatedAt      time.Time         `json:"created_at"`
	Tensors        []TensorMeta      `json:"tensors"`
	Metadata       map[string]string `json:"metadata"`
}

// TensorMeta describes one tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"` // bytes from the start of the data section
	Size   int64  `json:"size"`
}

// dtypeFromString maps a header dtype name back to a tensor.DataType.
func dtypeFromString(s string) (tensor.DataType, bool) {
	switch s {
	case tensor.Float32.String():
		return tensor.Float32, true
	case tensor.Float64.String():
		return tensor.Float64, true
	default:
		return 0, false
	}
}
