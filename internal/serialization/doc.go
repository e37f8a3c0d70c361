// Package serialization implements the .ldnn model file format.
//
// An .ldnn file stores a stack of fully-connected layers:
//
//	[magic "LDNN"][version u32][checksum 32B][header size u64]
//	[JSON header][padding to 64B][layer data]
//
// The header describes each layer (kind, weight shape, output-layer
// flag) plus its offset and size within the data section. Layer data
// is raw little-endian float32 in column-major order, exactly as the
// weights live in device memory. The checksum is a SHA-256 of the
// data section and is validated on load.
package serialization
