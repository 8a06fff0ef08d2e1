// Package palette assigns visually distinct colors to mask labels.
package palette

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Categorical palettes, in the order matplotlib's tab10, tab20 and Set3
// colormaps define them.
var (
	Tab10 = mustHex(
		"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
		"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
	)

	Tab20 = mustHex(
		"#1f77b4", "#aec7e8", "#ff7f0e", "#ffbb78", "#2ca02c",
		"#98df8a", "#d62728", "#ff9896", "#9467bd", "#c5b0d5",
		"#8c564b", "#c49c94", "#e377c2", "#f7b6d2", "#7f7f7f",
		"#c7c7c7", "#bcbd22", "#dbdb8d", "#17becf", "#9edae5",
	)

	Set3 = mustHex(
		"#8dd3c7", "#ffffb3", "#bebada", "#fb8072", "#80b1d3", "#fdb462",
		"#b3de69", "#fccde5", "#d9d9d9", "#bc80bd", "#ccebc5", "#ffed6f",
	)
)

func mustHex(codes ...string) []colorful.Color {
	out := make([]colorful.Color, len(codes))
	for i, code := range codes {
		c, err := colorful.Hex(code)
		if err != nil {
			panic(err)
		}
		out[i] = c
	}
	return out
}

// ColorsFor returns n distinct colors. Up to 10 labels draw from Tab10, up
// to 20 from Tab20; beyond that all of Tab20 is followed by Set3, repeated
// as often as needed.
func ColorsFor(n int) []colorful.Color {
	if n <= 0 {
		return []colorful.Color{}
	}

	out := make([]colorful.Color, 0, n)
	if n <= len(Tab10) {
		return append(out, Tab10[:n]...)
	}
	if n <= len(Tab20) {
		return append(out, Tab20[:n]...)
	}

	out = append(out, Tab20...)
	for i := 0; i < n-len(Tab20); i++ {
		out = append(out, Set3[i%len(Set3)])
	}
	return out
}

// NRGBA converts c to an opaque 8-bit color
func NRGBA(c colorful.Color) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// Assignment maps each label of a volume to its color. Labels and Colors
// are parallel slices; Labels is ascending.
type Assignment struct {
	Labels []int64
	Colors []colorful.Color

	lut map[int64]color.NRGBA
}

// Assign pairs labels, in the order given, with ColorsFor(len(labels))
func Assign(labels []int64) *Assignment {
	colors := ColorsFor(len(labels))
	lut := make(map[int64]color.NRGBA, len(labels))
	for i, l := range labels {
		lut[l] = NRGBA(colors[i])
	}
	return &Assignment{
		Labels: append([]int64(nil), labels...),
		Colors: colors,
		lut:    lut,
	}
}

// Len returns the number of assigned labels
func (a *Assignment) Len() int {
	return len(a.Labels)
}

// Color returns the color assigned to label
func (a *Assignment) Color(label int64) (color.NRGBA, bool) {
	c, ok := a.lut[label]
	return c, ok
}

// Map returns the label to color lookup table. Callers must not modify it.
func (a *Assignment) Map() map[int64]color.NRGBA {
	return a.lut
}
