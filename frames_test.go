package droste

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func rotatedDest(w, h int, scale, theta float64) Quad {
	rect := RectQuad(w, h)
	c := rect.Centroid()
	var q Quad
	for i, p := range rect {
		r, a := p.Polar(c)
		q[i] = FromPolar(c, r*scale, a+theta)
	}
	return q
}

func TestBuildFramesFractional(t *testing.T) {
	comp := testRaster(40, 40)
	dest := rotatedDest(40, 40, 0.5, 0.3)

	frames, err := BuildFrames(context.Background(), comp, dest, ZoomIn,
		WithAnimator(AnimatorFractional), WithFrameCount(5))
	if err != nil {
		t.Fatalf("BuildFrames() error = %v", err)
	}
	if len(frames) != 5 {
		t.Fatalf("len(frames) = %d, want 5", len(frames))
	}
	for i, f := range frames {
		if f.Index != i {
			t.Errorf("frames[%d].Index = %d", i, f.Index)
		}
		if w, h := f.Raster.Size(); w != 40 || h != 40 {
			t.Errorf("frames[%d] size = %d×%d, want 40×40", i, w, h)
		}
	}
	if !frames[0].Raster.Equal(comp) {
		t.Error("frame 0 is not the composite")
	}
	if frames[0].Raster == comp {
		t.Error("frame 0 shares the composite raster")
	}
	if frames[1].Raster.Equal(comp) {
		t.Error("frame 1 did not move")
	}
}

func TestBuildFramesZoomOut(t *testing.T) {
	comp := testRaster(32, 24)
	dest := rotatedDest(32, 24, 0.6, -0.2)
	opts := []Option{WithAnimator(AnimatorFractional), WithFrameCount(4)}

	in, err := BuildFrames(context.Background(), comp, dest, ZoomIn, opts...)
	if err != nil {
		t.Fatalf("BuildFrames(ZoomIn) error = %v", err)
	}
	out, err := BuildFrames(context.Background(), comp, dest, ZoomOut, opts...)
	if err != nil {
		t.Fatalf("BuildFrames(ZoomOut) error = %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("len(ZoomOut) = %d, want %d", len(out), len(in))
	}
	for i := range out {
		if !out[i].Raster.Equal(in[len(in)-1-i].Raster) {
			t.Errorf("ZoomOut[%d] != ZoomIn[%d]", i, len(in)-1-i)
		}
	}
}

func TestBuildFramesSpiral(t *testing.T) {
	comp := testRaster(40, 30)
	dest := Quad{{8, 6}, {33, 5}, {35, 26}, {6, 24}}

	frames, err := BuildFrames(context.Background(), comp, dest, ZoomIn,
		WithAnimator(AnimatorSpiral), WithFrameCount(6))
	if err != nil {
		t.Fatalf("BuildFrames() error = %v", err)
	}
	if len(frames) != 6 {
		t.Fatalf("len(frames) = %d, want 6", len(frames))
	}
	for i, f := range frames {
		if f.Raster == nil {
			t.Fatalf("frames[%d] has no raster", i)
		}
	}
}

func TestBuildFramesCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := BuildFrames(ctx, testRaster(16, 16), rotatedDest(16, 16, 0.5, 0.1), ZoomIn,
		WithAnimator(AnimatorFractional))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("BuildFrames(canceled) error = %v, want context.Canceled", err)
	}
}

func TestBuildFramesDegenerate(t *testing.T) {
	collinear := Quad{{0, 0}, {5, 5}, {10, 10}, {15, 15}}
	_, err := BuildFrames(context.Background(), testRaster(16, 16), collinear, ZoomIn)
	if !errors.Is(err, ErrDegenerateCorrespondence) {
		t.Errorf("BuildFrames(collinear) error = %v, want ErrDegenerateCorrespondence", err)
	}
}

func TestBuildFramesNilComposite(t *testing.T) {
	_, err := BuildFrames(context.Background(), nil, scenarioDest, ZoomIn)
	if !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("BuildFrames(nil) error = %v, want ErrInvalidDimensions", err)
	}
}

func TestPlanFramesAutoFallback(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))

	rect := RectQuad(40, 40)
	dest := Quad{{4, 2}, {44, 2}, {44, 42}, {4, 42}}
	forward := HomographyFromCoeffs([8]float64{1, 0, 4, 0, 1, 2, 0, 0})
	inverse := HomographyFromCoeffs([8]float64{1, 0, -4, 0, 1, -2, 0, 0})

	_, err := planFrames(rect, dest, forward, inverse, applyOptions([]Option{WithAnimator(AnimatorFractional)}))
	if !errors.Is(err, ErrUnstableDecomposition) {
		t.Fatalf("fractional plans error = %v, want ErrUnstableDecomposition", err)
	}

	plans, err := planFrames(rect, dest, forward, inverse, applyOptions([]Option{WithFrameCount(7)}))
	if err != nil {
		t.Fatalf("auto plans error = %v", err)
	}
	if len(plans) != 7 {
		t.Errorf("len(plans) = %d, want 7", len(plans))
	}
	if !strings.Contains(buf.String(), "using spiral paths") {
		t.Errorf("no fallback warning logged, got %q", buf.String())
	}
}

func TestFramesReversed(t *testing.T) {
	a, b, c := newRaster(1, 1), newRaster(1, 1), newRaster(1, 1)
	frames := Frames{{0, a}, {1, b}, {2, c}}
	rev := frames.Reversed()

	want := []*Raster{c, b, a}
	for i, f := range rev {
		if f.Index != i || f.Raster != want[i] {
			t.Errorf("Reversed()[%d] = {%d %p}, want {%d %p}", i, f.Index, f.Raster, i, want[i])
		}
	}
	if frames[0].Raster != a {
		t.Error("Reversed() modified the receiver")
	}
	if got := rev.Rasters(); len(got) != 3 || got[0] != c {
		t.Errorf("Rasters() = %v", got)
	}
	if got := rev.Images(); len(got) != 3 || got[2] != a {
		t.Errorf("Images() = %v", got)
	}
}

func TestParseFrameCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"10", 10},
		{" 3 ", 3},
		{"1", 1},
		{"", DefaultFrameCount},
		{"0", DefaultFrameCount},
		{"-4", DefaultFrameCount},
		{"abc", DefaultFrameCount},
		{"2.5", DefaultFrameCount},
	}
	for _, tt := range tests {
		if got := ParseFrameCount(tt.in); got != tt.want {
			t.Errorf("ParseFrameCount(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestAnimatorKindString(t *testing.T) {
	tests := []struct {
		k    AnimatorKind
		want string
	}{
		{AnimatorAuto, "Auto"},
		{AnimatorFractional, "Fractional"},
		{AnimatorSpiral, "Spiral"},
		{AnimatorKind(9), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.k.String(); got != tt.want {
			t.Errorf("AnimatorKind(%d).String() = %q, want %q", tt.k, got, tt.want)
		}
	}
	if ZoomOut.String() != "ZoomOut" {
		t.Errorf("ZoomOut.String() = %q", ZoomOut.String())
	}
}
