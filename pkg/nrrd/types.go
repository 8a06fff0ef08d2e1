package nrrd

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DataType is the scalar type of the samples in a NRRD file.
type DataType int

const (
	Int8 DataType = iota + 1
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Float32
	Float64
)

var typeNames = map[DataType]string{
	Int8:    "int8",
	Uint8:   "uint8",
	Int16:   "int16",
	Uint16:  "uint16",
	Int32:   "int32",
	Uint32:  "uint32",
	Int64:   "int64",
	Uint64:  "uint64",
	Float32: "float",
	Float64: "double",
}

// typeAliases lists every spelling the NRRD format accepts for each type.
var typeAliases = map[string]DataType{
	"signed char": Int8, "int8": Int8, "int8_t": Int8,
	"uchar": Uint8, "unsigned char": Uint8, "uint8": Uint8, "uint8_t": Uint8,
	"short": Int16, "short int": Int16, "signed short": Int16,
	"signed short int": Int16, "int16": Int16, "int16_t": Int16,
	"ushort": Uint16, "unsigned short": Uint16, "unsigned short int": Uint16,
	"uint16": Uint16, "uint16_t": Uint16,
	"int": Int32, "signed int": Int32, "int32": Int32, "int32_t": Int32,
	"uint": Uint32, "unsigned int": Uint32, "uint32": Uint32, "uint32_t": Uint32,
	"longlong": Int64, "long long": Int64, "long long int": Int64,
	"signed long long": Int64, "signed long long int": Int64,
	"int64": Int64, "int64_t": Int64,
	"ulonglong": Uint64, "unsigned long long": Uint64,
	"unsigned long long int": Uint64, "uint64": Uint64, "uint64_t": Uint64,
	"float": Float32, "double": Float64,
}

// ParseDataType resolves a "type" field value
func ParseDataType(s string) (DataType, error) {
	name := strings.ToLower(strings.Join(strings.Fields(s), " "))
	if name == "block" {
		return 0, fmt.Errorf("%w: block type", ErrUnsupported)
	}
	t, ok := typeAliases[name]
	if !ok {
		return 0, fmt.Errorf("%w: unknown type %q", ErrMalformedHeader, s)
	}
	return t, nil
}

// String returns the canonical NRRD name of the type
func (t DataType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("DataType(%d)", int(t))
}

// Size returns the number of bytes one sample occupies
func (t DataType) Size() int {
	switch t {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	default:
		return 0
	}
}

// IsFloat reports whether the type is a floating-point type
func (t DataType) IsFloat() bool {
	return t == Float32 || t == Float64
}

// roundLabel converts a floating-point sample to an integer label
func roundLabel(f float64) int64 {
	if math.IsNaN(f) {
		return 0
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64
	}
	if f <= math.MinInt64 {
		return math.MinInt64
	}
	return int64(math.Round(f))
}

// decodeSamples converts packed binary samples to labels
func decodeSamples(t DataType, order binary.ByteOrder, buf []byte, out []int64) {
	size := t.Size()
	for i := range out {
		b := buf[i*size : (i+1)*size]
		switch t {
		case Int8:
			out[i] = int64(int8(b[0]))
		case Uint8:
			out[i] = int64(b[0])
		case Int16:
			out[i] = int64(int16(order.Uint16(b)))
		case Uint16:
			out[i] = int64(order.Uint16(b))
		case Int32:
			out[i] = int64(int32(order.Uint32(b)))
		case Uint32:
			out[i] = int64(order.Uint32(b))
		case Int64:
			out[i] = int64(order.Uint64(b))
		case Uint64:
			// values above MaxInt64 wrap
			out[i] = int64(order.Uint64(b))
		case Float32:
			out[i] = roundLabel(float64(math.Float32frombits(order.Uint32(b))))
		case Float64:
			out[i] = roundLabel(math.Float64frombits(order.Uint64(b)))
		}
	}
}

// encodeSamples packs labels into binary samples of type t
func encodeSamples(t DataType, order binary.ByteOrder, samples []int64) []byte {
	size := t.Size()
	buf := make([]byte, len(samples)*size)
	for i, v := range samples {
		b := buf[i*size : (i+1)*size]
		switch t {
		case Int8, Uint8:
			b[0] = byte(v)
		case Int16, Uint16:
			order.PutUint16(b, uint16(v))
		case Int32, Uint32:
			order.PutUint32(b, uint32(v))
		case Int64, Uint64:
			order.PutUint64(b, uint64(v))
		case Float32:
			order.PutUint32(b, math.Float32bits(float32(v)))
		case Float64:
			order.PutUint64(b, math.Float64bits(float64(v)))
		}
	}
	return buf
}

// parseTextSample parses one ascii-encoded sample
func parseTextSample(t DataType, s string) (int64, error) {
	if t.IsFloat() {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		return roundLabel(f), nil
	}
	if t == Uint64 {
		u, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return 0, err
		}
		return int64(u), nil
	}
	return strconv.ParseInt(s, 10, 64)
}
