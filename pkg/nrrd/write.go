package nrrd

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Write emits h and samples as a NRRD0004 stream with attached data.
// Raw, gzip and ascii encodings are supported.
func Write(w io.Writer, h *Header, samples []int64) error {
	if err := h.Validate(); err != nil {
		return err
	}
	if len(samples) != h.NumSamples() {
		return fmt.Errorf("%d samples for sizes %v", len(samples), h.Sizes)
	}
	if h.DataFile != "" {
		return fmt.Errorf("%w: writing detached data", ErrUnsupported)
	}

	bw := bufio.NewWriter(w)
	if err := writeHeader(bw, h); err != nil {
		return err
	}

	switch h.Encoding {
	case Raw:
		if _, err := bw.Write(encodeSamples(h.Type, byteOrder(h), samples)); err != nil {
			return err
		}
	case Gzip:
		gz := gzip.NewWriter(bw)
		if _, err := gz.Write(encodeSamples(h.Type, byteOrder(h), samples)); err != nil {
			return fmt.Errorf("gzip write: %w", err)
		}
		if err := gz.Close(); err != nil {
			return fmt.Errorf("gzip close: %w", err)
		}
	case ASCII:
		for i, v := range samples {
			sep := " "
			if (i+1)%h.Sizes[0] == 0 {
				sep = "\n"
			}
			if _, err := bw.WriteString(strconv.FormatInt(v, 10) + sep); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: writing %s encoding", ErrUnsupported, h.Encoding)
	}
	return bw.Flush()
}

// WriteFile writes a NRRD file, creating parent directories as needed
func WriteFile(path string, h *Header, samples []int64) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, h, samples); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func byteOrder(h *Header) binary.ByteOrder {
	if h.Endian == nil {
		return binary.LittleEndian
	}
	return h.Endian
}

func writeHeader(w *bufio.Writer, h *Header) error {
	sizes := make([]string, len(h.Sizes))
	for i, s := range h.Sizes {
		sizes[i] = strconv.Itoa(s)
	}

	lines := []string{
		"NRRD0004",
		"# Complete NRRD file format specification at:",
		"# http://teem.sourceforge.net/nrrd/format.html",
		"type: " + h.Type.String(),
		"dimension: " + strconv.Itoa(h.Dimension),
	}
	if h.Space != "" {
		lines = append(lines, "space: "+h.Space)
	} else if h.SpaceDimension > 0 {
		lines = append(lines, "space dimension: "+strconv.Itoa(h.SpaceDimension))
	}
	lines = append(lines, "sizes: "+strings.Join(sizes, " "))
	if h.SpaceDirections != nil {
		dirs := make([]string, len(h.SpaceDirections))
		for i, v := range h.SpaceDirections {
			dirs[i] = formatVector(v)
		}
		lines = append(lines, "space directions: "+strings.Join(dirs, " "))
	}
	if h.Spacings != nil {
		parts := make([]string, len(h.Spacings))
		for i, s := range h.Spacings {
			parts[i] = strconv.FormatFloat(s, 'g', -1, 64)
		}
		lines = append(lines, "spacings: "+strings.Join(parts, " "))
	}
	if len(h.Kinds) > 0 {
		lines = append(lines, "kinds: "+strings.Join(h.Kinds, " "))
	}
	if h.Content != "" {
		lines = append(lines, "content: "+h.Content)
	}
	if h.Type.Size() > 1 && h.Encoding != ASCII {
		endian := "little"
		if byteOrder(h) == binary.BigEndian {
			endian = "big"
		}
		lines = append(lines, "endian: "+endian)
	}
	lines = append(lines, "encoding: "+h.Encoding.String())
	if h.SpaceOrigin != nil {
		lines = append(lines, "space origin: "+formatVector(h.SpaceOrigin))
	}

	keys := make([]string, 0, len(h.KeyValues))
	for k := range h.KeyValues {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lines = append(lines, k+":="+h.KeyValues[k])
	}

	for _, l := range lines {
		if _, err := w.WriteString(l + "\n"); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\n")
	return err
}
