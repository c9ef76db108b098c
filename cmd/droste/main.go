// Command droste renders a recursive Droste composite of an image and,
// optionally, the zoom animation into it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/droste"
	intImage "github.com/gogpu/droste/internal/image"
)

type config struct {
	in        string
	out       string
	corners   string
	sort      bool
	stack     string
	frames    string
	animator  string
	zoom      string
	gif       string
	framesDir string
	delay     int
	maxSize   int
	iters     int
	threshold float64
	verbose   bool
}

func main() {
	var cfg config
	flag.StringVar(&cfg.in, "in", "", "input image (PNG, JPEG, GIF, BMP, TIFF, WebP)")
	flag.StringVar(&cfg.out, "out", "droste.png", "composite output file (.png or .jpg)")
	flag.StringVar(&cfg.corners, "corners", "", `destination corners "x,y x,y x,y x,y" (default: centered square)`)
	flag.BoolVar(&cfg.sort, "sort", false, "sort corners by angle around their centroid")
	flag.StringVar(&cfg.stack, "stack", "toward", "stack order: toward or away")
	flag.StringVar(&cfg.frames, "frames", "", "animation frame count (default 15)")
	flag.StringVar(&cfg.animator, "animator", "auto", "animator: auto, fractional or spiral")
	flag.StringVar(&cfg.zoom, "zoom", "in", "zoom direction: in or out")
	flag.StringVar(&cfg.gif, "gif", "", "write the animation as a GIF")
	flag.StringVar(&cfg.framesDir, "frames-dir", "", "write the animation as numbered PNG frames")
	flag.IntVar(&cfg.delay, "delay", 10, "GIF frame delay in 1/100 s")
	flag.IntVar(&cfg.maxSize, "max-size", 1200, "downscale inputs larger than this (0 disables)")
	flag.IntVar(&cfg.iters, "iterations", 20, "maximum recursion depth")
	flag.Float64Var(&cfg.threshold, "threshold", 1.0, "stop once corners are closer than this many pixels")
	flag.BoolVar(&cfg.verbose, "v", false, "debug logging")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("droste: %v", err)
	}
}

func run(ctx context.Context, cfg config) error {
	if cfg.in == "" {
		return errors.New("-in is required")
	}

	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	droste.SetLogger(logger)

	opts, err := buildOptions(cfg)
	if err != nil {
		return err
	}
	dir, err := parseZoom(cfg.zoom)
	if err != nil {
		return err
	}

	img, format, err := intImage.Load(cfg.in)
	if err != nil {
		return err
	}
	base, err := droste.RasterFromImage(intImage.Downscale(img, cfg.maxSize))
	if err != nil {
		return err
	}
	w, h := base.Size()
	logger.Debug("loaded image", slog.String("format", format), slog.Int("width", w), slog.Int("height", h))

	corners := droste.DefaultCorners(w, h).Points()
	if cfg.corners != "" {
		if corners, err = parseCorners(cfg.corners); err != nil {
			return err
		}
	}

	s := droste.NewSession(base, opts...)
	if err := s.SetCorners(corners); err != nil {
		return err
	}

	seq, err := s.Sequences()
	if err != nil {
		return err
	}
	composite, err := s.Composite()
	if err != nil {
		return err
	}
	if err := saveImage(cfg.out, composite); err != nil {
		return err
	}

	p := message.NewPrinter(language.English)
	p.Printf("%s: %d×%d, %d layers (%d contracting, %d expanding, %v), stack %v\n",
		cfg.out, w, h, len(seq.Contracting)+len(seq.Expanding)+1, len(seq.Contracting), len(seq.Expanding), seq.Reason, s.StackOrder())

	if cfg.gif == "" && cfg.framesDir == "" {
		return nil
	}

	frames, err := s.Frames(ctx, dir)
	if err != nil {
		return err
	}
	if cfg.gif != "" {
		if err := intImage.SaveGIF(cfg.gif, frames.Images(), cfg.delay); err != nil {
			return err
		}
		p.Printf("%s: %d frames, zoom %v\n", cfg.gif, len(frames), dir)
	}
	if cfg.framesDir != "" {
		paths, err := intImage.PNGSequence(cfg.framesDir, "frame_", frames.Images())
		if err != nil {
			return err
		}
		p.Printf("%s: %d frames\n", cfg.framesDir, len(paths))
	}
	return nil
}

func buildOptions(cfg config) ([]droste.Option, error) {
	order, err := parseStack(cfg.stack)
	if err != nil {
		return nil, err
	}
	animator, err := parseAnimator(cfg.animator)
	if err != nil {
		return nil, err
	}
	return []droste.Option{
		droste.WithMaxIterations(cfg.iters),
		droste.WithMinDistance(cfg.threshold),
		droste.WithSortCorners(cfg.sort),
		droste.WithStackOrder(order),
		droste.WithAnimator(animator),
		droste.WithFrameCount(droste.ParseFrameCount(cfg.frames)),
	}, nil
}

// parseCorners parses "x,y x,y x,y x,y". Pairs may also be separated by
// semicolons.
func parseCorners(s string) ([]droste.Point, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ';' || r == '\t'
	})
	if len(fields) != 4 {
		return nil, errors.Errorf("corners: want 4 x,y pairs, got %d", len(fields))
	}

	pts := make([]droste.Point, 0, 4)
	for _, f := range fields {
		xs, ys, ok := strings.Cut(f, ",")
		if !ok {
			return nil, errors.Errorf("corners: %q is not an x,y pair", f)
		}
		x, err := strconv.ParseFloat(xs, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "corners: %q", f)
		}
		y, err := strconv.ParseFloat(ys, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "corners: %q", f)
		}
		pts = append(pts, droste.Pt(x, y))
	}
	return pts, nil
}

func parseStack(s string) (droste.StackOrder, error) {
	switch strings.ToLower(s) {
	case "toward", "":
		return droste.StackTowardViewer, nil
	case "away":
		return droste.StackAwayFromViewer, nil
	}
	return 0, errors.Errorf("stack: unknown order %q", s)
}

func parseAnimator(s string) (droste.AnimatorKind, error) {
	switch strings.ToLower(s) {
	case "auto", "":
		return droste.AnimatorAuto, nil
	case "fractional":
		return droste.AnimatorFractional, nil
	case "spiral":
		return droste.AnimatorSpiral, nil
	}
	return 0, errors.Errorf("animator: unknown kind %q", s)
}

func parseZoom(s string) (droste.Direction, error) {
	switch strings.ToLower(s) {
	case "in", "":
		return droste.ZoomIn, nil
	case "out":
		return droste.ZoomOut, nil
	}
	return 0, errors.Errorf("zoom: unknown direction %q", s)
}

// saveImage writes r as JPEG for .jpg/.jpeg paths and as PNG otherwise.
func saveImage(path string, r *droste.Raster) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		f, err := os.Create(filepath.Clean(path))
		if err != nil {
			return errors.Wrap(err, "create output")
		}
		if err := intImage.EncodeJPEG(f, r.ToImage(), 92); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	default:
		return intImage.SavePNG(path, r.ToImage())
	}
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: droste -in image [flags]\n\n")
		flag.PrintDefaults()
	}
}
