package main

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"nrrdpreview/internal/models"
	"nrrdpreview/pkg/config"
	"nrrdpreview/pkg/nrrd"
	"nrrdpreview/pkg/visualization"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns its exit code
func run(args []string, stdout, stderr io.Writer) int {
	errStyle := lipgloss.NewRenderer(stderr).NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	fail := func(format string, a ...any) int {
		fmt.Fprintf(stderr, "%s %s\n", errStyle.Render("Error:"), fmt.Sprintf(format, a...))
		return 1
	}
	logger := log.New(stderr, "", 0)

	// Parse command line arguments
	flags := flag.NewFlagSet("nrrdpreview", flag.ContinueOnError)
	flags.SetOutput(stderr)
	var outputPath string
	flags.StringVar(&outputPath, "o", "", "Output JPEG path (default: input with .jpg extension)")
	flags.StringVar(&outputPath, "output", "", "Output JPEG path (same as -o)")
	dpi := flags.Int("dpi", 100, "Output resolution in dots per inch")
	configPath := flags.String("config", "", "Optional YAML configuration file")
	initConfig := flags.String("init-config", "", "Write the default configuration to this path and exit")
	slicesDir := flags.String("slices-dir", "", "Also save every slice along each axis to this directory")
	numCores := flags.Int("cores", runtime.NumCPU(), "Number of CPU cores used for slice export")
	verbose := flags.Bool("v", false, "Verbose output")
	flags.Usage = func() {
		fmt.Fprintln(stderr, "Usage: nrrdpreview [flags] input")
		fmt.Fprintln(stderr, "Render a JPEG preview of a 3D NRRD label mask.")
		fmt.Fprintln(stderr)
		flags.PrintDefaults()
	}

	positional, err := parseArgs(flags, args)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 2
	}

	if *initConfig != "" {
		if err := config.CreateDefaultConfigFile(*initConfig); err != nil {
			return fail("Failed to write config: %v", err)
		}
		fmt.Fprintf(stdout, "Wrote default config to %s\n", *initConfig)
		return 0
	}

	if len(positional) != 1 {
		fmt.Fprintln(stderr, "expected exactly one input file")
		flags.Usage()
		return 2
	}
	inputPath := positional[0]

	info, err := os.Stat(inputPath)
	if errors.Is(err, os.ErrNotExist) {
		return fail("File not found: %s", inputPath)
	}
	if err != nil {
		return fail("%v", err)
	}
	if info.IsDir() {
		return fail("%s is a directory", inputPath)
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		if cfg, err = config.LoadConfig(*configPath); err != nil {
			return fail("Failed to load config: %v", err)
		}
	}
	flags.Visit(func(f *flag.Flag) {
		if f.Name == "dpi" {
			cfg.Render.DPI = *dpi
		}
	})
	if *verbose {
		cfg.Output.Verbose = true
	}

	opts, err := visualization.OptionsFromConfig(cfg)
	if err != nil {
		return fail("Invalid configuration: %v", err)
	}

	if outputPath == "" {
		outputPath = defaultOutput(inputPath, cfg.Output.Extension)
	}

	fmt.Fprintf(stdout, "Loading: %s (%s)\n", inputPath, humanize.Bytes(uint64(info.Size())))
	file, err := nrrd.ReadFile(inputPath)
	if err != nil {
		return fail("Failed to load NRRD: %v", err)
	}
	volume, err := file.Volume()
	if err != nil {
		return fail("Failed to load NRRD: %v", err)
	}
	fmt.Fprintf(stdout, "Shape: (%d, %d, %d), dtype: %s\n", volume.Shape[0], volume.Shape[1], volume.Shape[2], volume.DType)

	if cfg.Output.Verbose {
		h := file.Header
		logger.Printf("Encoding: %s, endian: %v", h.Encoding, h.Endian)
		if h.Space != "" {
			logger.Printf("Space: %s", h.Space)
		}
		logger.Printf("Spacing: %.3g x %.3g x %.3g", volume.Spacing[0], volume.Spacing[1], volume.Spacing[2])
		logger.Printf("Voxels: %s", humanize.Comma(int64(volume.Len())))
	}

	fmt.Fprintln(stdout, "Rendering preview...")
	renderer := visualization.NewRenderer(opts)
	plan, err := renderer.Render(volume, outputPath)
	if err != nil {
		return fail("Failed to render preview: %v", err)
	}
	if cfg.Output.Verbose {
		if plan.Kind == visualization.KindLabeled {
			logger.Printf("Labels (%d): %v", plan.Assignment.Len(), plan.Assignment.Labels)
		} else {
			logger.Printf("No labels found, rendered grayscale mid-slices")
		}
	}

	saved, err := os.Stat(outputPath)
	if err != nil {
		return fail("%v", err)
	}
	fmt.Fprintf(stdout, "Saved: %s (%s)\n", outputPath, humanize.Bytes(uint64(saved.Size())))

	// Export every slice along each axis if requested
	if *slicesDir != "" {
		var lut map[int64]color.NRGBA
		if plan.Assignment != nil {
			lut = plan.Assignment.Map()
		}
		viewer := visualization.NewViewer(volume)
		for _, axis := range models.Axes {
			axisDir := filepath.Join(*slicesDir, axis.Letter())
			fmt.Fprintf(stdout, "Saving %s slices to: %s\n", strings.ToLower(axis.Name()), axisDir)
			if err := viewer.SaveSliceSequence(axis, axisDir, lut, *numCores); err != nil {
				logger.Printf("Warning: Failed to save %s slices: %v", strings.ToLower(axis.Name()), err)
			}
		}
	}

	return 0
}

// parseArgs parses flags that may appear before or after positional
// arguments and returns the positional arguments in order
func parseArgs(flags *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := flags.Parse(args); err != nil {
			return nil, err
		}
		rest := flags.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

// defaultOutput replaces the extension of input with ext. Names that are
// only an extension, such as ".mask", keep it and get ext appended.
func defaultOutput(input, ext string) string {
	base := filepath.Base(input)
	old := filepath.Ext(base)
	if old == base {
		old = ""
	}
	return strings.TrimSuffix(input, old) + ext
}
