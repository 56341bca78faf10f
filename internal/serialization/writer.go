package serialization

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/dagrad/internal/tensor"
)

// WriteCheckpoint writes a state dict as a checkpoint and returns the header written.
//
// Tensors are stored in name order. header supplies Metadata and Checkpoint;
// the version, ID, creation time and tensor table are filled in.
func WriteCheckpoint(w io.Writer, state map[string]*tensor.Tensor, header Header) (Header, error) {
	names := make([]string, 0, len(state))
	for name := range state {
		names = append(names, name)
	}
	sort.Strings(names)

	header.FormatVersion = FormatVersion
	header.ID = uuid.NewString()
	header.CreatedAt = time.Now().UTC()
	header.Tensors = make([]TensorMeta, 0, len(names))

	var dataSize int64
	for _, name := range names {
		if err := ValidateTensorName(name); err != nil {
			return Header{}, err
		}
		t := state[name]
		if t == nil {
			return Header{}, errors.Errorf("checkpoint: nil tensor for %q", name)
		}
		size := int64(t.ByteSize())
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  DTypeFloat64,
			Shape:  []int(t.Shape().Clone()),
			Offset: dataSize,
			Size:   size,
		})
		dataSize += size
	}

	data := make([]byte, dataSize)
	for i, name := range names {
		meta := header.Tensors[i]
		putFloat64s(data[meta.Offset:meta.Offset+meta.Size], state[name].Data())
	}
	checksum := ComputeChecksum(data)

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return Header{}, errors.Wrap(err, "checkpoint: marshal header")
	}

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(fixed[8:12], header.flags())
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[24:32], uint64(dataSize))
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	padding := alignedDataOffset(int64(len(headerJSON))) - int64(FixedHeaderSize) - int64(len(headerJSON))
	for _, chunk := range [][]byte{fixed, headerJSON, make([]byte, padding), data} {
		if _, err := w.Write(chunk); err != nil {
			return Header{}, errors.Wrap(err, "checkpoint: write")
		}
	}

	klog.V(1).Infof("serialization: wrote checkpoint %s with %d tensors (%s)",
		header.ID, len(names), humanize.Bytes(uint64(dataSize)))
	return header, nil
}
