package serialization

import (
	"time"
)

// Checkpoint layout constants.
const (
	MagicBytes      = "DGRD"
	FormatVersion   = 1
	FixedHeaderSize = 64 // 0x40 bytes
	ChecksumOffset  = 0x20
	ChecksumSize    = 32 // SHA-256
	DataAlignment   = 64 // Tensor data starts on a 64-byte boundary.
)

// DTypeFloat64 is the only dtype stored in checkpoints.
const DTypeFloat64 = "float64"

// Flags of the fixed header.
const (
	FlagHasMetadata   uint32 = 1 << 0 // Custom metadata present.
	FlagHasCheckpoint uint32 = 1 << 1 // Training position present.
)

// Header is the JSON header of a checkpoint.
type Header struct {
	FormatVersion int               `json:"format_version"`
	ID            string            `json:"id"` // Unique per written checkpoint.
	CreatedAt     time.Time         `json:"created_at"`
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Checkpoint    *CheckpointMeta   `json:"checkpoint,omitempty"`
}

// CheckpointMeta records where training stood when the checkpoint was written.
type CheckpointMeta struct {
	Step       int64   `json:"step"`
	Generation uint64  `json:"generation"` // Graph pass generation.
	Loss       float64 `json:"loss"`
}

// TensorMeta describes one tensor of the data section.
type TensorMeta struct {
	Name   string `json:"name"`   // Parameter name, e.g. "user_embedding".
	DType  string `json:"dtype"`  // Always DTypeFloat64.
	Shape  []int  `json:"shape"`  // Empty for scalars.
	Offset int64  `json:"offset"` // Bytes from the start of the data section.
	Size   int64  `json:"size"`   // Bytes.
}

func (h *Header) flags() uint32 {
	var flags uint32
	if len(h.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if h.Checkpoint != nil {
		flags |= FlagHasCheckpoint
	}
	return flags
}

// alignedDataOffset returns where the data section starts after a JSON header of headerSize bytes.
func alignedDataOffset(headerSize int64) int64 {
	pos := int64(FixedHeaderSize) + headerSize
	return pos + (DataAlignment-pos%DataAlignment)%DataAlignment
}
