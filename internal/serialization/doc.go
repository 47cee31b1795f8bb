// Package serialization implements the .marrow weight-file format.
//
// A .marrow file holds a named set of tensors:
//
//	[4 bytes]  magic "MRRW"
//	[4 bytes]  format version (uint32, little-endian)
//	[8 bytes]  header size (uint64, little-endian)
//	[N bytes]  JSON header (tensor metadata, model type, custom metadata)
//	[...]      raw tensor data, in header order
//
// All reads and writes go through afero.Fs so the same code serves both the
// operating-system filesystem and the in-memory filesystem used for staged
// model saves.
package serialization
