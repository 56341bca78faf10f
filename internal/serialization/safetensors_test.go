package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"math"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/dagrad/internal/tensor"
)

func TestSafeTensors_F64RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	meta := map[string]string{"format": "pt", "framework": "dagrad"}
	require.NoError(t, WriteSafeTensors(&buf, testState(), SafeTensorsOptions{Metadata: meta}))

	headerSize := binary.LittleEndian.Uint64(buf.Bytes()[:8])
	assert.Zero(t, headerSize%8, "header is padded to 8 bytes")

	state, gotMeta, err := ReadSafeTensors(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, meta, gotMeta)
	for name, want := range testState() {
		require.Contains(t, state, name)
		assert.True(t, want.Equal(state[name]), name)
	}
}

func TestSafeTensors_HeaderLayout(t *testing.T) {
	var buf bytes.Buffer
	state := map[string]*tensor.Tensor{
		"b": must.M1(tensor.New(tensor.Shape{2}, []float64{1, 2})),
		"a": must.M1(tensor.New(tensor.Shape{1, 3}, []float64{3, 4, 5})),
	}
	require.NoError(t, WriteSafeTensors(&buf, state, SafeTensorsOptions{DType: SafeTensorsF32}))

	data := buf.Bytes()
	size := binary.LittleEndian.Uint64(data[:8])
	var header map[string]SafeTensorHeader
	require.NoError(t, json.Unmarshal(data[8:8+size], &header))

	assert.Equal(t, SafeTensorHeader{DType: "F32", Shape: []int64{1, 3}, DataOffsets: [2]int64{0, 12}}, header["a"])
	assert.Equal(t, SafeTensorHeader{DType: "F32", Shape: []int64{2}, DataOffsets: [2]int64{12, 20}}, header["b"])
	assert.Len(t, data, int(8+size+20))
	assert.Equal(t, float32(3), math.Float32frombits(binary.LittleEndian.Uint32(data[8+size:])))
}

func TestSafeTensors_LossyDTypes(t *testing.T) {
	state := map[string]*tensor.Tensor{"w": must.M1(tensor.New(tensor.Shape{3}, []float64{0.1, -2, 1000}))}
	for _, dtype := range []string{SafeTensorsF32, SafeTensorsF16} {
		t.Run(dtype, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteSafeTensors(&buf, state, SafeTensorsOptions{DType: dtype}))
			got, _, err := ReadSafeTensors(&buf)
			require.NoError(t, err)
			assert.InDeltaSlice(t, []float64{0.1, -2, 1000}, got["w"].Data(), 0.5)
			assert.Equal(t, -2.0, got["w"].Data()[1], "exactly representable")
		})
	}

	var buf bytes.Buffer
	err := WriteSafeTensors(&buf, state, SafeTensorsOptions{DType: SafeTensorsBF16})
	assert.True(t, errors.Is(err, ErrUnsupportedDType))
}

// rawSafeTensors builds a file from a hand-written header.
func rawSafeTensors(header string, data []byte) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, uint64(len(header)))
	buf.WriteString(header)
	buf.Write(data)
	return buf.Bytes()
}

func TestSafeTensors_ReadsBF16(t *testing.T) {
	// 1.5 in bfloat16 is 0x3FC0.
	data := []byte{0xC0, 0x3F, 0x80, 0xBF} // 1.5, -1.0
	file := rawSafeTensors(`{"x":{"dtype":"BF16","shape":[2],"data_offsets":[0,4]}}`, data)
	state, meta, err := ReadSafeTensors(bytes.NewReader(file))
	require.NoError(t, err)
	assert.Nil(t, meta)
	assert.Equal(t, []float64{1.5, -1}, state["x"].Data())
}

func TestSafeTensors_RejectsMalformed(t *testing.T) {
	eight := make([]byte, 8)
	tests := []struct {
		name   string
		header string
		data   []byte
		want   error
	}{
		{"overlap", `{"a":{"dtype":"F32","shape":[1],"data_offsets":[0,4]},"b":{"dtype":"F32","shape":[1],"data_offsets":[2,6]}}`, eight, ErrOffsetOverlap},
		{"negative", `{"a":{"dtype":"F32","shape":[1],"data_offsets":[4,0]}}`, eight, ErrNegativeOffset},
		{"size", `{"a":{"dtype":"F32","shape":[3],"data_offsets":[0,8]}}`, eight, ErrSizeMismatch},
		{"dtype", `{"a":{"dtype":"I8","shape":[1],"data_offsets":[0,1]}}`, eight, ErrUnsupportedDType},
		{"name", `{"a/b":{"dtype":"F32","shape":[1],"data_offsets":[0,4]}}`, eight, ErrInvalidTensorName},
		{"truncated", `{"a":{"dtype":"F64","shape":[2],"data_offsets":[0,16]}}`, eight, ErrTruncated},
		{"element overflow", `{"w":{"dtype":"F64","shape":[4294967296,4294967296],"data_offsets":[0,0]}}`, nil, ErrSizeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ReadSafeTensors(bytes.NewReader(rawSafeTensors(tt.header, tt.data)))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	_, _, err := ReadSafeTensors(bytes.NewReader([]byte{1, 2}))
	assert.True(t, errors.Is(err, ErrTruncated))
}
