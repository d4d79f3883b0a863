// Package serialization reads and writes model weights in the .dllw
// container format.
//
// A .dllw file has a fixed 44-byte prelude followed by a JSON header
// and the raw tensor data:
//
//	0x00  magic "DLLW" (4 bytes)
//	0x04  format version, uint32 little-endian
//	0x08  header length in bytes, uint32 little-endian
//	0x0C  SHA-256 checksum of the data section (32 bytes)
//	0x2C  JSON header
//	....  tensor data, at the offsets the header declares
//
// The header carries the model type, creation time, free-form string
// metadata and one entry per tensor with its name, dtype, shape,
// offset and byte size. Offsets are relative to the start of the data
// section. Tensors are laid out in ascending name order so identical
// state dicts produce identical files.
//
// Readers verify the magic, the version, the checksum and the declared
// tensor regions before materializing any tensor; malformed files are
// rejected with one of the sentinel errors in this package.
package serialization
