package serialization

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/riverdarda/dll/internal/tensor"
)

// Write serializes a state dictionary to w in .dllw format.
//
// Tensors are written in ascending name order, so the same state dict
// always produces the same bytes apart from the creation timestamp.
func Write(w io.Writer, state map[string]*tensor.RawTensor, modelType string, metadata map[string]string) error {
	if metadata == nil {
		metadata = make(map[string]string)
	}
	header := Header{
		FormatVersion:  FormatVersion,
		LibraryVersion: libraryVersion,
		ModelType:      modelType,
		CreatedAt:      time.Now().UTC(),
		Tensors:        make([]TensorMeta, 0, len(state)),
		Metadata:       metadata,
	}

	names := make([]string, 0, len(state))
	for name := range state {
		names = append(names, name)
	}
	sort.Strings(names)

	var offset int64
	var data []byte
	for _, name := range names {
		raw := state[name]
		size := int64(raw.ByteSize())
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  raw.DType().String(),
			Shape:  []int(raw.Shape()),
			Offset: offset,
			Size:   size,
		})
		data = append(data, raw.Data()...)
		offset += size
	}

	checksum := sha256.Sum256(data)

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, len(headerJSON))
	}

	prelude := make([]byte, preludeSize)
	copy(prelude[0:4], Magic)
	binary.LittleEndian.PutUint32(prelude[4:8], uint32(FormatVersion))
	binary.LittleEndian.PutUint32(prelude[8:12], uint32(len(headerJSON)))
	copy(prelude[12:12+ChecksumSize], checksum[:])

	if _, err := w.Write(prelude); err != nil {
		return fmt.Errorf("failed to write prelude: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return nil
}

// Save writes a state dictionary to a .dllw file at path.
func Save(path string, state map[string]*tensor.RawTensor, modelType string, metadata map[string]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := Write(file, state, modelType, metadata); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
