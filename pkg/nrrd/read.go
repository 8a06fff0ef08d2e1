package nrrd

import (
	"bufio"
	"compress/bzip2"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode"

	"github.com/klauspost/compress/gzip"

	"nrrdpreview/internal/models"
)

// Nrrd is a decoded NRRD file.
type Nrrd struct {
	Header *Header

	// Samples holds one value per sample with the first axis varying fastest
	Samples []int64
}

// ReadFile loads a NRRD file. Detached data files are resolved relative to
// the header's directory.
func ReadFile(path string) (*Nrrd, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	h, err := ReadHeader(br)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var src io.Reader = br
	if h.DataFile != "" {
		dataPath := h.DataFile
		if !filepath.IsAbs(dataPath) {
			dataPath = filepath.Join(filepath.Dir(path), dataPath)
		}
		df, err := os.Open(dataPath)
		if err != nil {
			return nil, fmt.Errorf("opening data file: %w", err)
		}
		defer df.Close()
		src = bufio.NewReader(df)
	}

	samples, err := ReadData(h, src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Nrrd{Header: h, Samples: samples}, nil
}

// Read decodes a NRRD stream with attached data
func Read(r io.Reader) (*Nrrd, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	h, err := ReadHeader(br)
	if err != nil {
		return nil, err
	}
	if h.DataFile != "" {
		return nil, fmt.Errorf("%w: detached data file in stream", ErrUnsupported)
	}
	samples, err := ReadData(h, br)
	if err != nil {
		return nil, err
	}
	return &Nrrd{Header: h, Samples: samples}, nil
}

// ReadData decodes the samples h describes from r, which must be positioned
// at the start of the stored data
func ReadData(h *Header, r io.Reader) ([]int64, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}

	for i := 0; i < h.LineSkip; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			return nil, fmt.Errorf("line skip: %w", err)
		}
	}

	var data io.Reader = br
	switch h.Encoding {
	case Gzip:
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer gz.Close()
		data = gz
	case Bzip2:
		data = bzip2.NewReader(br)
	}

	n := h.NumSamples()
	out := make([]int64, n)

	if h.Encoding == ASCII {
		if err := skipBytes(data, h.ByteSkip); err != nil {
			return nil, err
		}
		if err := readText(h.Type, data, out); err != nil {
			return nil, err
		}
		return out, nil
	}

	var buf []byte
	var err error
	size := n * h.Type.Size()
	switch {
	case h.Encoding == Hex:
		buf, err = readHex(data, h.ByteSkip, size)
	case h.ByteSkip == -1:
		buf, err = readTail(data, size)
	default:
		if err = skipBytes(data, h.ByteSkip); err == nil {
			buf = make([]byte, size)
			_, err = io.ReadFull(data, buf)
		}
	}
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		return nil, fmt.Errorf("%w: want %d bytes", ErrShortData, size)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s data: %w", h.Encoding, err)
	}

	order := h.Endian
	if order == nil {
		// single-byte samples
		order = binary.LittleEndian
	}
	decodeSamples(h.Type, order, buf, out)
	return out, nil
}

func skipBytes(r io.Reader, n int) error {
	if n <= 0 {
		return nil
	}
	if _, err := io.CopyN(io.Discard, r, int64(n)); err != nil {
		return fmt.Errorf("byte skip: %w", err)
	}
	return nil
}

// readTail returns the last size bytes of r, for "byte skip: -1"
func readTail(r io.Reader, size int) ([]byte, error) {
	all, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(all) < size {
		return nil, io.ErrUnexpectedEOF
	}
	return all[len(all)-size:], nil
}

func readHex(r io.Reader, skip, size int) ([]byte, error) {
	if err := skipBytes(r, skip); err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	digits := make([]byte, 0, len(raw))
	for _, c := range raw {
		if !unicode.IsSpace(rune(c)) {
			digits = append(digits, c)
		}
	}
	if len(digits) < 2*size {
		return nil, io.ErrUnexpectedEOF
	}
	buf := make([]byte, size)
	if _, err := hex.Decode(buf, digits[:2*size]); err != nil {
		return nil, err
	}
	return buf, nil
}

func readText(t DataType, r io.Reader, out []int64) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)
	for i := range out {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return fmt.Errorf("reading ascii data: %w", err)
			}
			return fmt.Errorf("%w: got %d of %d ascii samples", ErrShortData, i, len(out))
		}
		v, err := parseTextSample(t, sc.Text())
		if err != nil {
			return fmt.Errorf("ascii sample %d: %w", i, err)
		}
		out[i] = v
	}
	return nil
}

// Volume converts a 3-dimensional NRRD to a label volume
func (n *Nrrd) Volume() (*models.Volume, error) {
	h := n.Header
	if h.Dimension != 3 {
		return nil, fmt.Errorf("%w: expected a 3D volume, got dimension %d", ErrUnsupported, h.Dimension)
	}
	if len(n.Samples) != h.NumSamples() {
		return nil, fmt.Errorf("%w: %d samples for sizes %v", ErrShortData, len(n.Samples), h.Sizes)
	}

	v := &models.Volume{
		Data:  n.Samples,
		Shape: [3]int{h.Sizes[0], h.Sizes[1], h.Sizes[2]},
		DType: h.Type.String(),
	}
	copy(v.Spacing[:], h.Spacing())
	return v, nil
}
