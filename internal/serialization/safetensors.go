package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"sort"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/dagrad/internal/tensor"
)

// SafeTensors dtype names.
const (
	SafeTensorsF64  = "F64"
	SafeTensorsF32  = "F32"
	SafeTensorsF16  = "F16"
	SafeTensorsBF16 = "BF16" // Read only.
)

const safeTensorsMetadataKey = "__metadata__"

// SafeTensorHeader describes one tensor in a SafeTensors header.
type SafeTensorHeader struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// SafeTensorsOptions configures WriteSafeTensors.
type SafeTensorsOptions struct {
	// DType of the stored values: SafeTensorsF64 (default, exact), SafeTensorsF32
	// or SafeTensorsF16 (both lossy).
	DType    string
	Metadata map[string]string
}

type safeTensorsCodec struct {
	size int
	put  func([]byte, []float64)
	get  func([]float64, []byte)
}

var safeTensorsCodecs = map[string]safeTensorsCodec{
	SafeTensorsF64:  {size: 8, put: putFloat64s, get: getFloat64s},
	SafeTensorsF32:  {size: 4, put: putFloat32s, get: getFloat32s},
	SafeTensorsF16:  {size: 2, put: putFloat16s, get: getFloat16s},
	SafeTensorsBF16: {size: 2, get: getBFloat16s},
}

// WriteSafeTensors writes a state dict in SafeTensors format.
//
// Format:
//
//	[8 bytes: header size (uint64 LE)]
//	[header: JSON, space-padded to a multiple of 8 bytes]
//	[tensor data: raw little-endian values]
//
// Tensors are written in alphabetical order by name.
func WriteSafeTensors(w io.Writer, state map[string]*tensor.Tensor, opts SafeTensorsOptions) error {
	dtype := opts.DType
	if dtype == "" {
		dtype = SafeTensorsF64
	}
	codec, ok := safeTensorsCodecs[dtype]
	if !ok || codec.put == nil {
		return errors.Wrapf(ErrUnsupportedDType, "safetensors: cannot write %q", dtype)
	}

	names := make([]string, 0, len(state))
	for name := range state {
		names = append(names, name)
	}
	sort.Strings(names)

	header := make(map[string]any, len(names)+1)
	if len(opts.Metadata) > 0 {
		header[safeTensorsMetadataKey] = opts.Metadata
	}
	var offset int64
	for _, name := range names {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		t := state[name]
		if t == nil {
			return errors.Errorf("safetensors: nil tensor for %q", name)
		}
		shape := make([]int64, t.Rank())
		for i, d := range t.Shape() {
			shape[i] = int64(d)
		}
		size := int64(t.NumElements() * codec.size)
		header[name] = SafeTensorHeader{DType: dtype, Shape: shape, DataOffsets: [2]int64{offset, offset + size}}
		offset += size
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return errors.Wrap(err, "safetensors: marshal header")
	}
	if pad := (8 - len(headerJSON)%8) % 8; pad > 0 {
		headerJSON = append(headerJSON, bytes.Repeat([]byte{' '}, pad)...)
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return errors.Wrap(err, "safetensors: write header size")
	}
	if _, err := w.Write(headerJSON); err != nil {
		return errors.Wrap(err, "safetensors: write header")
	}

	var buf []byte
	for _, name := range names {
		t := state[name]
		buf = append(buf[:0], make([]byte, t.NumElements()*codec.size)...)
		codec.put(buf, t.Data())
		if _, err := w.Write(buf); err != nil {
			return errors.Wrapf(err, "safetensors: write tensor %q", name)
		}
	}
	klog.V(1).Infof("serialization: wrote %d tensors as %s safetensors", len(names), dtype)
	return nil
}

// ReadSafeTensors reads a SafeTensors stream into float64 tensors.
// It returns the tensors and the free-form metadata, if any.
func ReadSafeTensors(r io.Reader) (map[string]*tensor.Tensor, map[string]string, error) {
	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, nil, errors.Wrap(truncated(err), "safetensors: read header size")
	}
	if headerSize > MaxHeaderSize {
		return nil, nil, errors.Wrapf(ErrHeaderTooLarge, "%d bytes", headerSize)
	}
	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, nil, errors.Wrap(truncated(err), "safetensors: read header")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(headerJSON, &raw); err != nil {
		return nil, nil, errors.Wrap(err, "safetensors: parse header")
	}
	var metadata map[string]string
	if m, ok := raw[safeTensorsMetadataKey]; ok {
		if err := json.Unmarshal(m, &metadata); err != nil {
			return nil, nil, errors.Wrap(err, "safetensors: parse metadata")
		}
		delete(raw, safeTensorsMetadataKey)
	}

	metas := make([]TensorMeta, 0, len(raw))
	var dataSize int64
	for name, msg := range raw {
		if err := ValidateTensorName(name); err != nil {
			return nil, nil, err
		}
		var info SafeTensorHeader
		if err := json.Unmarshal(msg, &info); err != nil {
			return nil, nil, errors.Wrapf(err, "safetensors: parse entry %q", name)
		}
		if _, ok := safeTensorsCodecs[info.DType]; !ok {
			return nil, nil, &ValidationError{Kind: ErrUnsupportedDType, Tensor: name, Details: info.DType}
		}
		shape := make([]int, len(info.Shape))
		for i, d := range info.Shape {
			shape[i] = int(d)
		}
		meta := TensorMeta{
			Name:   name,
			DType:  info.DType,
			Shape:  shape,
			Offset: info.DataOffsets[0],
			Size:   info.DataOffsets[1] - info.DataOffsets[0],
		}
		metas = append(metas, meta)
		dataSize = max(dataSize, info.DataOffsets[1])
	}
	if err := ValidateTensorOffsets(metas, dataSize); err != nil {
		return nil, nil, err
	}

	data, err := readExactly(r, uint64(dataSize))
	if err != nil {
		return nil, nil, errors.Wrap(err, "safetensors: read data")
	}

	state := make(map[string]*tensor.Tensor, len(metas))
	for _, meta := range metas {
		codec := safeTensorsCodecs[meta.DType]
		t, err := decodeTensor(meta, data, codec.size, codec.get)
		if err != nil {
			return nil, nil, err
		}
		state[meta.Name] = t
	}
	klog.V(1).Infof("serialization: read %d safetensors tensors", len(state))
	return state, metadata, nil
}
