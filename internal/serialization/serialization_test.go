package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/riverdarda/dll/internal/tensor"
)

func testState(t *testing.T) map[string]*tensor.RawTensor {
	t.Helper()

	weight, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("failed to create weight tensor: %v", err)
	}
	copy(weight.AsFloat32(), []float32{1, 2, 3, 4, 5, 6})

	bias, err := tensor.NewRaw(tensor.Shape{3}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("failed to create bias tensor: %v", err)
	}
	copy(bias.AsFloat32(), []float32{0.1, 0.2, 0.3})

	stats, err := tensor.NewRaw(tensor.Shape{2}, tensor.Float64, tensor.CPU)
	if err != nil {
		t.Fatalf("failed to create stats tensor: %v", err)
	}
	copy(stats.AsFloat64(), []float64{3.25, -1.5})

	return map[string]*tensor.RawTensor{
		"layers.0.weight": weight,
		"layers.0.bias":   bias,
		"stats":           stats,
	}
}

func writeBuf(t *testing.T, state map[string]*tensor.RawTensor) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(&buf, state, "Network", map[string]string{"dataset": "mnist"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	return buf.Bytes()
}

// TestWriteReadRoundTrip verifies a state dict survives a write/read
// cycle bit-exactly, header included.
func TestWriteReadRoundTrip(t *testing.T) {
	original := testState(t)
	raw := writeBuf(t, original)

	state, header, err := Read(bytes.NewReader(raw), tensor.CPU)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if header.FormatVersion != FormatVersion {
		t.Errorf("format version = %d, want %d", header.FormatVersion, FormatVersion)
	}
	if header.ModelType != "Network" {
		t.Errorf("model type = %q, want %q", header.ModelType, "Network")
	}
	if header.Metadata["dataset"] != "mnist" {
		t.Errorf("metadata = %v, missing dataset entry", header.Metadata)
	}
	if len(header.Tensors) != len(original) {
		t.Fatalf("header declares %d tensors, want %d", len(header.Tensors), len(original))
	}

	if len(state) != len(original) {
		t.Fatalf("read %d tensors, want %d", len(state), len(original))
	}
	for name, want := range original {
		got, ok := state[name]
		if !ok {
			t.Fatalf("tensor %s missing after round trip", name)
		}
		if !got.Shape().Equal(want.Shape()) {
			t.Errorf("tensor %s: shape %v, want %v", name, got.Shape(), want.Shape())
		}
		if got.DType() != want.DType() {
			t.Errorf("tensor %s: dtype %v, want %v", name, got.DType(), want.DType())
		}
		if !bytes.Equal(got.Data(), want.Data()) {
			t.Errorf("tensor %s: data differs after round trip", name)
		}
	}
}

// TestSaveLoadFile verifies the path-based helpers.
func TestSaveLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.dllw")
	original := testState(t)

	if err := Save(path, original, "Network", nil); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	state, header, err := Load(path, tensor.CPU)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if header.ModelType != "Network" {
		t.Errorf("model type = %q, want %q", header.ModelType, "Network")
	}
	for name, want := range original {
		got, ok := state[name]
		if !ok {
			t.Fatalf("tensor %s missing after load", name)
		}
		if !bytes.Equal(got.Data(), want.Data()) {
			t.Errorf("tensor %s: data differs after load", name)
		}
	}
}

// TestTensorsLaidOutByName verifies the deterministic on-disk order.
func TestTensorsLaidOutByName(t *testing.T) {
	raw := writeBuf(t, testState(t))

	_, header, err := Read(bytes.NewReader(raw), tensor.CPU)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	var prevName string
	var prevEnd int64
	for i, meta := range header.Tensors {
		if i > 0 && meta.Name <= prevName {
			t.Errorf("tensor %q listed after %q, want ascending name order", meta.Name, prevName)
		}
		if meta.Offset != prevEnd {
			t.Errorf("tensor %q at offset %d, want contiguous %d", meta.Name, meta.Offset, prevEnd)
		}
		prevName = meta.Name
		prevEnd = meta.Offset + meta.Size
	}
}

// TestRejectsInvalidMagic verifies files without the DLLW magic are
// refused.
func TestRejectsInvalidMagic(t *testing.T) {
	raw := writeBuf(t, testState(t))
	raw[0] = 'X'

	_, _, err := Read(bytes.NewReader(raw), tensor.CPU)
	if !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("err = %v, want ErrInvalidMagic", err)
	}
}

// TestRejectsUnsupportedVersion verifies unknown versions are refused.
func TestRejectsUnsupportedVersion(t *testing.T) {
	raw := writeBuf(t, testState(t))
	binary.LittleEndian.PutUint32(raw[4:8], 9)

	_, _, err := Read(bytes.NewReader(raw), tensor.CPU)
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("err = %v, want ErrUnsupportedVersion", err)
	}
}

// TestRejectsOversizedHeader verifies the header length is bounded
// before anything is allocated.
func TestRejectsOversizedHeader(t *testing.T) {
	raw := writeBuf(t, testState(t))
	binary.LittleEndian.PutUint32(raw[8:12], MaxHeaderSize+1)

	_, _, err := Read(bytes.NewReader(raw), tensor.CPU)
	if !errors.Is(err, ErrHeaderTooLarge) {
		t.Fatalf("err = %v, want ErrHeaderTooLarge", err)
	}
}

// TestRejectsCorruptedData verifies a flipped data byte fails the
// checksum.
func TestRejectsCorruptedData(t *testing.T) {
	raw := writeBuf(t, testState(t))
	raw[len(raw)-1] ^= 0xFF

	_, _, err := Read(bytes.NewReader(raw), tensor.CPU)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("err = %v, want ErrChecksumMismatch", err)
	}
}

// TestRejectsTamperedChecksum verifies a modified stored checksum is
// detected.
func TestRejectsTamperedChecksum(t *testing.T) {
	raw := writeBuf(t, testState(t))
	raw[12] ^= 0xFF

	_, _, err := Read(bytes.NewReader(raw), tensor.CPU)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("err = %v, want ErrChecksumMismatch", err)
	}
}

// TestRejectsTruncatedFile verifies cut-off files do not round trip.
func TestRejectsTruncatedFile(t *testing.T) {
	raw := writeBuf(t, testState(t))

	// Mid-data truncation fails the checksum; mid-header truncation
	// fails while reading the header.
	_, _, err := Read(bytes.NewReader(raw[:len(raw)-5]), tensor.CPU)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("err = %v, want ErrChecksumMismatch", err)
	}
	_, _, err = Read(bytes.NewReader(raw[:preludeSize+3]), tensor.CPU)
	if err == nil {
		t.Fatal("expected error for file truncated inside the header")
	}
}

// rewriteHeader re-encodes raw with the header mutated by fn, keeping
// the original data section and checksum.
func rewriteHeader(t *testing.T, raw []byte, fn func(*Header)) []byte {
	t.Helper()
	headerLen := binary.LittleEndian.Uint32(raw[8:12])
	var header Header
	if err := json.Unmarshal(raw[preludeSize:preludeSize+int(headerLen)], &header); err != nil {
		t.Fatalf("failed to decode header: %v", err)
	}
	fn(&header)
	headerJSON, err := json.Marshal(header)
	if err != nil {
		t.Fatalf("failed to re-encode header: %v", err)
	}

	out := make([]byte, 0, len(raw))
	out = append(out, raw[:preludeSize]...)
	binary.LittleEndian.PutUint32(out[8:12], uint32(len(headerJSON)))
	out = append(out, headerJSON...)
	out = append(out, raw[preludeSize+int(headerLen):]...)
	return out
}

// TestRejectsOverlappingTensors verifies headers whose regions overlap
// are refused.
func TestRejectsOverlappingTensors(t *testing.T) {
	raw := writeBuf(t, testState(t))
	raw = rewriteHeader(t, raw, func(h *Header) {
		h.Tensors[1].Offset = h.Tensors[0].Offset
	})

	_, _, err := Read(bytes.NewReader(raw), tensor.CPU)
	if !errors.Is(err, ErrOffsetOverlap) {
		t.Fatalf("err = %v, want ErrOffsetOverlap", err)
	}
}

// TestRejectsOutOfBoundsTensor verifies regions past the data section
// are refused.
func TestRejectsOutOfBoundsTensor(t *testing.T) {
	raw := writeBuf(t, testState(t))
	raw = rewriteHeader(t, raw, func(h *Header) {
		h.Tensors[len(h.Tensors)-1].Size += 1024
	})

	_, _, err := Read(bytes.NewReader(raw), tensor.CPU)
	if !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("err = %v, want ErrOutOfBounds", err)
	}
}

// TestRejectsShapeSizeMismatch verifies a tensor whose declared shape
// disagrees with its byte size is refused.
func TestRejectsShapeSizeMismatch(t *testing.T) {
	raw := writeBuf(t, testState(t))
	raw = rewriteHeader(t, raw, func(h *Header) {
		h.Tensors[0].Shape = []int{1}
	})

	_, _, err := Read(bytes.NewReader(raw), tensor.CPU)
	if err == nil {
		t.Fatal("expected error for shape/size mismatch")
	}
}

// TestValidateTensors exercises the region checks directly.
func TestValidateTensors(t *testing.T) {
	good := []TensorMeta{
		{Name: "a", Offset: 0, Size: 16},
		{Name: "b", Offset: 16, Size: 8},
	}
	if err := validateTensors(good, 24); err != nil {
		t.Errorf("valid layout rejected: %v", err)
	}

	negative := []TensorMeta{{Name: "a", Offset: -1, Size: 8}}
	if err := validateTensors(negative, 24); !errors.Is(err, ErrNegativeOffset) {
		t.Errorf("err = %v, want ErrNegativeOffset", err)
	}

	outOfBounds := []TensorMeta{{Name: "a", Offset: 16, Size: 16}}
	if err := validateTensors(outOfBounds, 24); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("err = %v, want ErrOutOfBounds", err)
	}

	overlap := []TensorMeta{
		{Name: "a", Offset: 0, Size: 16},
		{Name: "b", Offset: 8, Size: 8},
	}
	if err := validateTensors(overlap, 24); !errors.Is(err, ErrOffsetOverlap) {
		t.Errorf("err = %v, want ErrOffsetOverlap", err)
	}

	tooMany := make([]TensorMeta, MaxTensorCount+1)
	if err := validateTensors(tooMany, 0); !errors.Is(err, ErrTooManyTensors) {
		t.Errorf("err = %v, want ErrTooManyTensors", err)
	}
}
