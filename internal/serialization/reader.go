package serialization

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/riverdarda/dll/internal/tensor"
)

// Read deserializes a .dllw stream into a state dictionary allocated
// on the given device. The magic, version, checksum and every declared
// tensor region are validated before any tensor is materialized.
func Read(r io.Reader, device tensor.Device) (map[string]*tensor.RawTensor, Header, error) {
	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, Header{}, fmt.Errorf("failed to read magic bytes: %w", err)
	}
	if string(magic) != Magic {
		return nil, Header{}, fmt.Errorf("%w: got %q, expected %q", ErrInvalidMagic, string(magic), Magic)
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, Header{}, fmt.Errorf("failed to read version: %w", err)
	}
	if version != FormatVersion {
		return nil, Header{}, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}

	var headerSize uint32
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, Header{}, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > MaxHeaderSize {
		return nil, Header{}, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}

	var checksum [ChecksumSize]byte
	if _, err := io.ReadFull(r, checksum[:]); err != nil {
		return nil, Header{}, fmt.Errorf("failed to read checksum: %w", err)
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, Header{}, fmt.Errorf("failed to read header: %w", err)
	}
	var header Header
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, Header{}, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, Header{}, fmt.Errorf("failed to read tensor data: %w", err)
	}
	if sha256.Sum256(data) != checksum {
		return nil, Header{}, ErrChecksumMismatch
	}

	if err := validateTensors(header.Tensors, int64(len(data))); err != nil {
		return nil, Header{}, err
	}

	state := make(map[string]*tensor.RawTensor, len(header.Tensors))
	for _, meta := range header.Tensors {
		dtype, ok := dtypeFromString(meta.DType)
		if !ok {
			return nil, Header{}, fmt.Errorf("tensor %s: unsupported dtype %q", meta.Name, meta.DType)
		}
		shape := tensor.Shape(meta.Shape)
		if err := shape.Validate(); err != nil {
			return nil, Header{}, fmt.Errorf("tensor %s: invalid shape: %w", meta.Name, err)
		}
		raw, err := tensor.NewRaw(shape, dtype, device)
		if err != nil {
			return nil, Header{}, fmt.Errorf("tensor %s: %w", meta.Name, err)
		}
		if int64(raw.ByteSize()) != meta.Size {
			return nil, Header{}, fmt.Errorf("tensor %s: declared size %d does not match shape %v", meta.Name, meta.Size, shape)
		}
		copy(raw.Data(), data[meta.Offset:meta.Offset+meta.Size])
		state[meta.Name] = raw
	}
	return state, header, nil
}

// Load reads a .dllw file at path into a state dictionary.
func Load(path string, device tensor.Device) (map[string]*tensor.RawTensor, Header, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, Header{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	return Read(file, device)
}

// validateTensors rejects headers whose declared regions fall outside
// the data section or overlap each other. Malformed offsets would
// otherwise let one tensor read another's bytes.
func validateTensors(tensors []TensorMeta, dataSize int64) error {
	if len(tensors) > MaxTensorCount {
		return fmt.Errorf("%w: got %d, max %d", ErrTooManyTensors, len(tensors), MaxTensorCount)
	}

	sorted := make([]TensorMeta, len(tensors))
	copy(sorted, tensors)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })

	for i, t := range sorted {
		if t.Offset < 0 || t.Size < 0 {
			return fmt.Errorf("%w: tensor %s: offset=%d size=%d", ErrNegativeOffset, t.Name, t.Offset, t.Size)
		}
		if t.Offset+t.Size > dataSize {
			return fmt.Errorf("%w: tensor %s: offset %d + size %d > %d", ErrOutOfBounds, t.Name, t.Offset, t.Size, dataSize)
		}
		if i+1 < len(sorted) {
			next := sorted[i+1]
			if t.Offset+t.Size > next.Offset {
				return fmt.Errorf("%w: tensors %s and %s", ErrOffsetOverlap, t.Name, next.Name)
			}
		}
	}
	return nil
}
