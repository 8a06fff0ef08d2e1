package visualization

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"

	"nrrdpreview/internal/models"
	"nrrdpreview/pkg/config"
	"nrrdpreview/pkg/palette"
)

// ErrDegenerateVolume is returned for volumes with a zero-length axis.
var ErrDegenerateVolume = errors.New("volume has a zero-length axis")

// Kind tells which of the two preview layouts a volume gets.
type Kind int

const (
	// KindEmpty is a volume without labels: three grayscale mid-slices
	KindEmpty Kind = iota
	// KindLabeled is a volume with labels: five colored slices and a legend
	KindLabeled
)

func (k Kind) String() string {
	if k == KindLabeled {
		return "labeled"
	}
	return "empty"
}

// SliceRef names one slice of the volume
type SliceRef struct {
	Axis  models.Axis
	Index int
}

// Plan is what a volume will be rendered as. Empty plans hold the three
// mid-slices; labeled plans hold three axial slices, one coronal and one
// sagittal slice in grid order, the label colors and the legend.
type Plan struct {
	Kind  Kind
	Shape [3]int

	Slices []SliceRef

	// Assignment and Legend are nil for empty plans
	Assignment *palette.Assignment
	Legend     []LegendEntry
}

// LegendOptions controls how many labels the legend lists
type LegendOptions struct {
	// MaxEntries is the most patches shown; beyond it the last patch
	// summarises the remaining labels
	MaxEntries    int
	OverflowColor color.NRGBA
}

// NewPlan classifies v and selects its slices
func NewPlan(v *models.Volume, legend LegendOptions) (*Plan, error) {
	if v.Degenerate() {
		return nil, fmt.Errorf("%w: shape %v", ErrDegenerateVolume, v.Shape)
	}

	p := &Plan{Shape: v.Shape}
	labels := v.Labels()
	if len(labels) == 0 {
		p.Kind = KindEmpty
		for _, axis := range models.Axes {
			p.Slices = append(p.Slices, SliceRef{Axis: axis, Index: v.Shape[axis] / 2})
		}
		return p, nil
	}

	s0 := v.Shape[0]
	p.Kind = KindLabeled
	p.Slices = []SliceRef{
		{models.Axial, s0 / 4},
		{models.Axial, s0 / 2},
		{models.Axial, 3 * s0 / 4},
		{models.Coronal, v.Shape[1] / 2},
		{models.Sagittal, v.Shape[2] / 2},
	}
	p.Assignment = palette.Assign(labels)
	p.Legend = legendEntries(p.Assignment, legend)
	return p, nil
}

func legendEntries(a *palette.Assignment, opts LegendOptions) []LegendEntry {
	entries := make([]LegendEntry, 0, a.Len())
	for i, l := range a.Labels {
		entries = append(entries, LegendEntry{
			Label: fmt.Sprintf("Label %d", l),
			Color: palette.NRGBA(a.Colors[i]),
		})
	}

	if opts.MaxEntries > 1 && len(entries) > opts.MaxEntries {
		keep := opts.MaxEntries - 1
		rest := len(entries) - keep
		entries = append(entries[:keep], LegendEntry{
			Label: fmt.Sprintf("... +%d more", rest),
			Color: opts.OverflowColor,
		})
	}
	return entries
}

// AxialIndices returns the positions of the axial slices
func (p *Plan) AxialIndices() []int {
	var out []int
	for _, s := range p.Slices {
		if s.Axis == models.Axial {
			out = append(out, s.Index)
		}
	}
	return out
}

// Options holds the rendering parameters
type Options struct {
	DPI int

	// Figure sizes in inches
	FigureWidth   float64
	LabeledHeight float64
	EmptyHeight   float64

	LabeledQuality int
	EmptyQuality   int
	PadInches      float64

	Fonts  FontSizes
	Legend LegendOptions
}

// OptionsFromConfig converts the render sections of cfg
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	if err := cfg.Validate(); err != nil {
		return Options{}, err
	}
	overflow, err := colorful.Hex(cfg.Legend.OverflowColor)
	if err != nil {
		return Options{}, fmt.Errorf("legend overflow color: %w", err)
	}

	return Options{
		DPI:            cfg.Render.DPI,
		FigureWidth:    cfg.Render.FigureWidth,
		LabeledHeight:  cfg.Render.LabeledHeight,
		EmptyHeight:    cfg.Render.EmptyHeight,
		LabeledQuality: cfg.Render.LabeledQuality,
		EmptyQuality:   cfg.Render.EmptyQuality,
		PadInches:      cfg.Render.PadInches,
		Fonts: FontSizes{
			Title:    cfg.Fonts.Title,
			Suptitle: cfg.Fonts.Suptitle,
			Legend:   cfg.Fonts.Legend,
		},
		Legend: LegendOptions{
			MaxEntries:    cfg.Legend.MaxEntries,
			OverflowColor: palette.NRGBA(overflow),
		},
	}, nil
}

// DefaultOptions returns the options of the default configuration
func DefaultOptions() Options {
	opts, err := OptionsFromConfig(config.DefaultConfig())
	if err != nil {
		panic(err)
	}
	return opts
}

// Renderer turns label volumes into JPEG previews
type Renderer struct {
	opts Options
}

// NewRenderer creates a renderer with the given options
func NewRenderer(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

// Options returns the renderer's options
func (r *Renderer) Options() Options {
	return r.opts
}

// Render plans, draws and saves the preview of v to outputPath
func (r *Renderer) Render(v *models.Volume, outputPath string) (*Plan, error) {
	if r.opts.DPI <= 0 {
		return nil, fmt.Errorf("dpi must be positive, got %d", r.opts.DPI)
	}

	plan, err := NewPlan(v, r.opts.Legend)
	if err != nil {
		return nil, err
	}

	fig, err := r.Draw(v, plan)
	if err != nil {
		return nil, err
	}
	defer fig.Close()

	quality := r.opts.LabeledQuality
	if plan.Kind == KindEmpty {
		quality = r.opts.EmptyQuality
	}
	if err := fig.SaveJPEG(outputPath, quality, r.opts.PadInches); err != nil {
		return nil, fmt.Errorf("saving preview: %w", err)
	}
	return plan, nil
}

// Draw lays out plan on a new figure. The caller must Close the figure.
func (r *Renderer) Draw(v *models.Volume, plan *Plan) (*Figure, error) {
	height := r.opts.LabeledHeight
	if plan.Kind == KindEmpty {
		height = r.opts.EmptyHeight
	}
	fig, err := NewFigure(r.opts.FigureWidth, height, float64(r.opts.DPI), r.opts.Fonts)
	if err != nil {
		return nil, err
	}

	if plan.Kind == KindEmpty {
		err = r.drawEmpty(fig, v, plan)
	} else {
		err = r.drawLabeled(fig, v, plan)
	}
	if err != nil {
		fig.Close()
		return nil, err
	}
	return fig, nil
}

func (r *Renderer) drawEmpty(fig *Figure, v *models.Volume, plan *Plan) error {
	viewer := NewViewer(v)
	cells := fig.Grid(0, 1, len(plan.Slices))
	for i, ref := range plan.Slices {
		s, err := viewer.ExtractSlice(ref.Axis, ref.Index)
		if err != nil {
			return err
		}
		title := fmt.Sprintf("%s (%s=%d)", ref.Axis.Name(), ref.Axis.Letter(), ref.Index)
		if err := fig.Panel(cells[0][i], title, Grayscale(s)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) drawLabeled(fig *Figure, v *models.Volume, plan *Plan) error {
	top, err := fig.Suptitle(fmt.Sprintf("Shape: %d×%d×%d", v.Shape[0], v.Shape[1], v.Shape[2]))
	if err != nil {
		return err
	}

	viewer := NewViewer(v)
	lut := plan.Assignment.Map()
	cells := fig.Grid(top, 2, 3)
	for i, ref := range plan.Slices {
		s, err := viewer.ExtractSlice(ref.Axis, ref.Index)
		if err != nil {
			return err
		}
		title := fmt.Sprintf("%s %s=%d/%d", ref.Axis.Name(), ref.Axis.Letter(), ref.Index, v.AxisLength(ref.Axis))
		if err := fig.Panel(cells[i/3][i%3], title, flipVertical(Colorize(s, lut))); err != nil {
			return err
		}
	}

	title := fmt.Sprintf("%d labels", plan.Assignment.Len())
	return fig.Legend(cells[1][2], title, plan.Legend)
}
