// Package serialization stores parameter state dicts on disk.
//
// Two formats are supported:
//
// Checkpoints are the native format. They hold float64 values bit-exactly and
// carry a SHA-256 checksum of the data section:
//
//	[64 bytes: fixed header]
//	  0x00  magic "DGRD"
//	  0x04  version (uint32 LE)
//	  0x08  flags (uint32 LE)
//	  0x10  JSON header size (uint64 LE)
//	  0x18  data section size (uint64 LE)
//	  0x20  SHA-256 of the data section
//	[JSON header: tensor table, metadata, training position]
//	[padding to a 64-byte boundary]
//	[tensor data: float64 LE, in header order]
//
// SafeTensors files exchange weights with other frameworks. They are written as
// F64 by default; F32 and F16 exports are lossy and must be requested. Reading
// accepts F64, F32, F16 and BF16 and widens everything to float64.
//
// Example:
//
//	hdr, err := serialization.SaveGraph(f, g, &serialization.CheckpointMeta{Step: step}, nil)
//	...
//	_, err = serialization.LoadGraph(f, g, serialization.ReaderOptions{})
package serialization
