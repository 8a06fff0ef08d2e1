package nrrd

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Encoding is the way sample data is stored after the header.
type Encoding int

const (
	Raw Encoding = iota + 1
	Gzip
	Bzip2
	ASCII
	Hex
)

// ParseEncoding resolves an "encoding" field value
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "raw":
		return Raw, nil
	case "gzip", "gz":
		return Gzip, nil
	case "bzip2", "bz2":
		return Bzip2, nil
	case "ascii", "text", "txt":
		return ASCII, nil
	case "hex":
		return Hex, nil
	default:
		return 0, fmt.Errorf("%w: encoding %q", ErrUnsupported, s)
	}
}

// String returns the canonical field value for the encoding
func (e Encoding) String() string {
	switch e {
	case Raw:
		return "raw"
	case Gzip:
		return "gzip"
	case Bzip2:
		return "bzip2"
	case ASCII:
		return "ascii"
	case Hex:
		return "hex"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

// binaryEncoded reports whether samples are stored as packed bytes, and so
// depend on the byte order
func (e Encoding) binaryEncoded() bool {
	return e == Raw || e == Gzip || e == Bzip2 || e == Hex
}

// spaceDimensions maps the named spaces to their dimension.
var spaceDimensions = map[string]int{
	"right-anterior-superior": 3, "ras": 3,
	"left-anterior-superior": 3, "las": 3,
	"left-posterior-superior": 3, "lps": 3,
	"right-anterior-superior-time": 4, "rast": 4,
	"left-anterior-superior-time": 4, "last": 4,
	"left-posterior-superior-time": 4, "lpst": 4,
	"scanner-xyz": 3, "scanner-xyz-time": 4,
	"3d-right-handed": 3, "3d-left-handed": 3,
	"3d-right-handed-time": 4, "3d-left-handed-time": 4,
}

// Header holds the parsed fields of a NRRD header.
type Header struct {
	// Version is the format version from the magic line
	Version int

	Type      DataType
	Dimension int
	Sizes     []int
	Encoding  Encoding

	// Endian is nil when the header did not specify one
	Endian binary.ByteOrder

	Space          string
	SpaceDimension int

	// SpaceDirections has one entry per axis; entries are nil for axes
	// declared "none"
	SpaceDirections [][]float64
	SpaceOrigin     []float64
	Spacings        []float64
	Kinds           []string
	Content         string

	ByteSkip int
	LineSkip int

	// DataFile names a detached data file, relative to the header
	DataFile string

	// Fields holds every field line verbatim, keyed by lower-case name
	Fields map[string]string

	// KeyValues holds the "key:=value" pairs
	KeyValues map[string]string
}

// NewHeader returns a header for a raw little-endian volume of the given type
// and sizes
func NewHeader(t DataType, sizes ...int) *Header {
	return &Header{
		Version:   4,
		Type:      t,
		Dimension: len(sizes),
		Sizes:     append([]int(nil), sizes...),
		Encoding:  Raw,
		Endian:    binary.LittleEndian,
		Fields:    make(map[string]string),
		KeyValues: make(map[string]string),
	}
}

// NumSamples returns the number of samples the sizes describe
func (h *Header) NumSamples() int {
	if len(h.Sizes) == 0 {
		return 0
	}
	n := 1
	for _, s := range h.Sizes {
		n *= s
	}
	return n
}

// readLine reads one header line without its terminator. It returns io.EOF
// only when no characters remain.
func readLine(r *bufio.Reader) (string, error) {
	s, err := r.ReadString('\n')
	if err == io.EOF && s != "" {
		err = nil
	}
	return strings.TrimRight(s, "\r\n"), err
}

// ReadHeader parses a NRRD header, leaving r positioned at the first byte
// of attached data
func ReadHeader(r *bufio.Reader) (*Header, error) {
	magic, err := readLine(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotNRRD, err)
	}
	if len(magic) != 8 || !strings.HasPrefix(magic, "NRRD000") || magic[7] < '1' || magic[7] > '9' {
		return nil, ErrNotNRRD
	}

	h := &Header{
		Version:   int(magic[7] - '0'),
		Fields:    make(map[string]string),
		KeyValues: make(map[string]string),
	}

	for {
		line, err := readLine(r)
		if err == io.EOF {
			// detached headers may end without a blank line
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading header: %w", err)
		}
		if line == "" {
			break
		}
		if strings.HasPrefix(line, "#") {
			continue
		}

		fieldSep := strings.Index(line, ": ")
		kvSep := strings.Index(line, ":=")
		switch {
		case kvSep >= 0 && (fieldSep < 0 || kvSep < fieldSep):
			h.KeyValues[line[:kvSep]] = line[kvSep+2:]
		case fieldSep >= 0:
			name := strings.ToLower(strings.TrimSpace(line[:fieldSep]))
			value := strings.TrimSpace(line[fieldSep+2:])
			if err := h.setField(name, value); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: unparseable line %q", ErrMalformedHeader, line)
		}
	}

	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Header) setField(name, value string) error {
	if _, dup := h.Fields[name]; dup {
		return fmt.Errorf("%w: duplicate field %q", ErrMalformedHeader, name)
	}
	h.Fields[name] = value

	var err error
	switch name {
	case "type":
		h.Type, err = ParseDataType(value)
	case "dimension":
		h.Dimension, err = strconv.Atoi(value)
	case "sizes":
		h.Sizes, err = parseInts(value)
	case "encoding":
		h.Encoding, err = ParseEncoding(value)
	case "endian":
		switch strings.ToLower(value) {
		case "little":
			h.Endian = binary.LittleEndian
		case "big":
			h.Endian = binary.BigEndian
		default:
			err = fmt.Errorf("unknown endian %q", value)
		}
	case "space":
		dim, ok := spaceDimensions[strings.ToLower(value)]
		if !ok {
			return fmt.Errorf("%w: space %q", ErrUnsupported, value)
		}
		h.Space = value
		h.SpaceDimension = dim
	case "space dimension":
		h.SpaceDimension, err = strconv.Atoi(value)
	case "space directions":
		h.SpaceDirections, err = parseVectorList(value)
	case "space origin":
		var vs [][]float64
		vs, err = parseVectorList(value)
		if err == nil && (len(vs) != 1 || vs[0] == nil) {
			err = fmt.Errorf("expected one vector")
		}
		if err == nil {
			h.SpaceOrigin = vs[0]
		}
	case "spacings":
		h.Spacings, err = parseFloats(value)
	case "kinds":
		h.Kinds = strings.Fields(value)
	case "content":
		h.Content = value
	case "byte skip":
		h.ByteSkip, err = strconv.Atoi(value)
	case "line skip":
		h.LineSkip, err = strconv.Atoi(value)
	case "data file", "datafile":
		if strings.HasPrefix(value, "LIST") || len(strings.Fields(value)) > 1 {
			return fmt.Errorf("%w: multiple data files", ErrUnsupported)
		}
		h.DataFile = value
	}
	if err != nil {
		if errors.Is(err, ErrUnsupported) || errors.Is(err, ErrMalformedHeader) {
			return err
		}
		return fmt.Errorf("%w: field %q: %v", ErrMalformedHeader, name, err)
	}
	return nil
}

// Validate checks that the required fields are present and consistent
func (h *Header) Validate() error {
	if h.Type == 0 {
		return fmt.Errorf("%w: missing type", ErrMalformedHeader)
	}
	if h.Dimension <= 0 {
		return fmt.Errorf("%w: missing or invalid dimension", ErrMalformedHeader)
	}
	if len(h.Sizes) != h.Dimension {
		return fmt.Errorf("%w: %d sizes for dimension %d", ErrMalformedHeader, len(h.Sizes), h.Dimension)
	}
	// samples are held as int64, which bounds the total count
	limit := math.MaxInt / 8
	n := 1
	for _, s := range h.Sizes {
		if s < 0 {
			return fmt.Errorf("%w: negative size %d", ErrMalformedHeader, s)
		}
		if s > 0 && n > limit/s {
			return fmt.Errorf("%w: sizes %v overflow the sample count", ErrMalformedHeader, h.Sizes)
		}
		n *= s
	}
	if h.Encoding == 0 {
		return fmt.Errorf("%w: missing encoding", ErrMalformedHeader)
	}
	if h.Encoding.binaryEncoded() && h.Type.Size() > 1 && h.Endian == nil {
		return fmt.Errorf("%w: endian required for %s %s data", ErrMalformedHeader, h.Encoding, h.Type)
	}
	if h.LineSkip < 0 {
		return fmt.Errorf("%w: negative line skip", ErrMalformedHeader)
	}
	if h.ByteSkip < -1 || (h.ByteSkip == -1 && h.Encoding != Raw) {
		return fmt.Errorf("%w: byte skip %d with %s encoding", ErrMalformedHeader, h.ByteSkip, h.Encoding)
	}
	if h.SpaceDirections != nil && len(h.SpaceDirections) != h.Dimension {
		return fmt.Errorf("%w: %d space directions for dimension %d", ErrMalformedHeader, len(h.SpaceDirections), h.Dimension)
	}
	sd := h.SpaceDimension
	for _, v := range h.SpaceDirections {
		if v == nil {
			continue
		}
		if sd == 0 {
			sd = len(v)
		}
		if len(v) != sd {
			return fmt.Errorf("%w: space direction %v does not match space dimension %d", ErrMalformedHeader, v, sd)
		}
	}
	if h.Spacings != nil && len(h.Spacings) != h.Dimension {
		return fmt.Errorf("%w: %d spacings for dimension %d", ErrMalformedHeader, len(h.Spacings), h.Dimension)
	}
	return nil
}

func (h *Header) spaceDim() int {
	if h.SpaceDimension > 0 {
		return h.SpaceDimension
	}
	for _, v := range h.SpaceDirections {
		if v != nil {
			return len(v)
		}
	}
	if len(h.SpaceOrigin) > 0 {
		return len(h.SpaceOrigin)
	}
	return h.Dimension
}

// Affine returns the homogeneous transform from index coordinates to world
// space, with one column per axis plus the origin column. Headers without
// space directions fall back to per-axis spacings.
func (h *Header) Affine() *mat.Dense {
	d := h.Dimension
	sd := h.spaceDim()
	a := mat.NewDense(sd+1, d+1, nil)

	for axis := 0; axis < d; axis++ {
		if h.SpaceDirections != nil {
			for r, x := range h.SpaceDirections[axis] {
				a.Set(r, axis, x)
			}
			continue
		}
		if axis < sd {
			s := 1.0
			if axis < len(h.Spacings) && !math.IsNaN(h.Spacings[axis]) {
				s = h.Spacings[axis]
			}
			a.Set(axis, axis, s)
		}
	}
	for r, x := range h.SpaceOrigin {
		if r < sd {
			a.Set(r, d, x)
		}
	}
	a.Set(sd, d, 1)
	return a
}

// Spacing returns the physical distance between samples along each axis.
// Axes with no direction report a spacing of 1.
func (h *Header) Spacing() []float64 {
	a := h.Affine()
	sd := h.spaceDim()
	out := make([]float64, h.Dimension)
	col := make([]float64, sd+1)
	for axis := range out {
		mat.Col(col, axis, a)
		out[axis] = floats.Norm(col[:sd], 2)
		if out[axis] == 0 {
			out[axis] = 1
		}
	}
	return out
}

func parseInts(s string) ([]int, error) {
	fields := strings.Fields(s)
	out := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func parseFloats(s string) ([]float64, error) {
	fields := strings.Fields(s)
	out := make([]float64, len(fields))
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = x
	}
	return out, nil
}

// parseVectorList parses a list such as "(1,0,0) none (0,0,2.5)".
// "none" entries are returned as nil.
func parseVectorList(s string) ([][]float64, error) {
	var out [][]float64
	rest := strings.TrimSpace(s)
	for rest != "" {
		switch {
		case strings.HasPrefix(strings.ToLower(rest), "none"):
			out = append(out, nil)
			rest = rest[len("none"):]
		case rest[0] == '(':
			end := strings.IndexByte(rest, ')')
			if end < 0 {
				return nil, fmt.Errorf("unterminated vector in %q", s)
			}
			parts := strings.Split(rest[1:end], ",")
			v := make([]float64, len(parts))
			for i, p := range parts {
				x, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
				if err != nil {
					return nil, fmt.Errorf("vector %q: %v", rest[:end+1], err)
				}
				v[i] = x
			}
			out = append(out, v)
			rest = rest[end+1:]
		default:
			return nil, fmt.Errorf("unexpected %q in vector list", rest)
		}
		rest = strings.TrimSpace(rest)
	}
	return out, nil
}

// formatVector renders v in header syntax
func formatVector(v []float64) string {
	if v == nil {
		return "none"
	}
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return "(" + strings.Join(parts, ",") + ")"
}
