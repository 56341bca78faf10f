package serialization

import (
	"encoding/binary"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/dagrad/internal/tensor"
)

// ReaderOptions configures checkpoint reading.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Faster but trusts the data section.
	ValidationLevel        ValidationLevel // Zero value is ValidationStrict.
}

// ReadCheckpoint reads a checkpoint written by WriteCheckpoint.
//
// The data section is read in full before any tensor is decoded, so a
// truncated or corrupted file never yields a partial state dict.
func ReadCheckpoint(r io.Reader, opts ReaderOptions) (map[string]*tensor.Tensor, Header, error) {
	fixed := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return nil, Header{}, errors.Wrap(truncated(err), "checkpoint: read fixed header")
	}
	if string(fixed[0:4]) != MagicBytes {
		return nil, Header{}, errors.Wrapf(ErrInvalidMagic, "got %q, want %q", fixed[0:4], MagicBytes)
	}
	if version := binary.LittleEndian.Uint32(fixed[4:8]); version != FormatVersion {
		return nil, Header{}, errors.Wrapf(ErrUnsupportedVersion, "got %d, want %d", version, FormatVersion)
	}
	headerSize := binary.LittleEndian.Uint64(fixed[16:24])
	dataSize := binary.LittleEndian.Uint64(fixed[24:32])
	var stored [ChecksumSize]byte
	copy(stored[:], fixed[ChecksumOffset:ChecksumOffset+ChecksumSize])

	if headerSize > MaxHeaderSize {
		return nil, Header{}, errors.Wrapf(ErrHeaderTooLarge, "%d bytes", headerSize)
	}
	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, Header{}, errors.Wrap(truncated(err), "checkpoint: read header")
	}
	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, Header{}, errors.Wrap(err, "checkpoint: parse header")
	}

	padding := alignedDataOffset(int64(headerSize)) - int64(FixedHeaderSize) - int64(headerSize)
	if _, err := io.CopyN(io.Discard, r, padding); err != nil {
		return nil, Header{}, errors.Wrap(truncated(err), "checkpoint: skip padding")
	}
	data, err := readExactly(r, dataSize)
	if err != nil {
		return nil, Header{}, errors.Wrap(err, "checkpoint: read data")
	}

	if err := ValidateHeader(&header, int64(len(data)), opts.ValidationLevel); err != nil {
		return nil, Header{}, errors.WithMessage(err, "checkpoint: invalid header")
	}
	if !opts.SkipChecksumValidation {
		if err := ValidateChecksum(ComputeChecksum(data), stored); err != nil {
			return nil, Header{}, err
		}
	}

	state := make(map[string]*tensor.Tensor, len(header.Tensors))
	for _, meta := range header.Tensors {
		t, err := decodeTensor(meta, data, 8, getFloat64s)
		if err != nil {
			return nil, Header{}, err
		}
		state[meta.Name] = t
	}
	klog.V(1).Infof("serialization: read checkpoint %s with %d tensors", header.ID, len(state))
	return state, header, nil
}

// decodeTensor decodes one tensor whose bytes are data[meta.Offset:meta.Offset+meta.Size].
func decodeTensor(meta TensorMeta, data []byte, elementSize int, get func([]float64, []byte)) (*tensor.Tensor, error) {
	if err := validateTensorSize(meta, elementSize); err != nil {
		return nil, err
	}
	if meta.Offset < 0 || meta.Offset+meta.Size > int64(len(data)) {
		return nil, &ValidationError{Kind: ErrOutOfBounds, Tensor: meta.Name, Details: "region outside the data section"}
	}
	values := make([]float64, meta.Size/int64(elementSize))
	get(values, data[meta.Offset:meta.Offset+meta.Size])
	return tensor.New(tensor.Shape(meta.Shape).Clone(), values)
}

// readExactly reads n bytes without trusting n for the allocation size.
func readExactly(r io.Reader, n uint64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, int64(n)))
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) != n {
		return nil, errors.Wrapf(ErrTruncated, "got %d of %d bytes", len(data), n)
	}
	return data, nil
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errors.Wrap(ErrTruncated, err.Error())
	}
	return err
}
