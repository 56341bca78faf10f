package serialization

import (
	"encoding/binary"
	"math"

	"github.com/x448/float16"
)

// Element codecs, all little-endian.

func putFloat64s(dst []byte, src []float64) {
	for i, v := range src {
		binary.LittleEndian.PutUint64(dst[8*i:], math.Float64bits(v))
	}
}

func getFloat64s(dst []float64, src []byte) {
	for i := range dst {
		dst[i] = math.Float64frombits(binary.LittleEndian.Uint64(src[8*i:]))
	}
}

func putFloat32s(dst []byte, src []float64) {
	for i, v := range src {
		binary.LittleEndian.PutUint32(dst[4*i:], math.Float32bits(float32(v)))
	}
}

func getFloat32s(dst []float64, src []byte) {
	for i := range dst {
		dst[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(src[4*i:])))
	}
}

func putFloat16s(dst []byte, src []float64) {
	for i, v := range src {
		binary.LittleEndian.PutUint16(dst[2*i:], float16.Fromfloat32(float32(v)).Bits())
	}
}

func getFloat16s(dst []float64, src []byte) {
	for i := range dst {
		dst[i] = float64(float16.Frombits(binary.LittleEndian.Uint16(src[2*i:])).Float32())
	}
}

// bfloat16 is the upper half of a float32.
func getBFloat16s(dst []float64, src []byte) {
	for i := range dst {
		bits := uint32(binary.LittleEndian.Uint16(src[2*i:])) << 16
		dst[i] = float64(math.Float32frombits(bits))
	}
}
