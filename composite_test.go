package droste

import (
	"errors"
	"testing"

	"github.com/gogpu/droste/internal/blend"
)

func scenarioLayers(t *testing.T, opts ...Option) (*Raster, *Layers) {
	t.Helper()
	base, _, layers := scenarioLayersSeq(t, opts...)
	return base, layers
}

func scenarioLayersSeq(t *testing.T, opts ...Option) (*Raster, SequenceResult, *Layers) {
	t.Helper()
	base := testRaster(100, 100)
	seq, err := CornerSequences(scenarioBase, scenarioDest.Points(), WithMaxIterations(6))
	if err != nil {
		t.Fatalf("CornerSequences() error = %v", err)
	}
	layers, err := BuildLayers(base, seq, opts...)
	if err != nil {
		t.Fatalf("BuildLayers() error = %v", err)
	}
	return base, seq, layers
}

func TestBuildLayersOrder(t *testing.T) {
	base, seq, layers := scenarioLayersSeq(t)

	if layers.Len() != 13 {
		t.Fatalf("Len() = %d, want 13", layers.Len())
	}
	if layers.OriginIndex() != 6 {
		t.Errorf("OriginIndex() = %d, want 6", layers.OriginIndex())
	}
	if layers.Layer(layers.OriginIndex()) != base {
		t.Error("origin layer is not the base raster")
	}

	// The first contracting layer is the base warped into the destination.
	h, err := Solve(scenarioBase, seq.Contracting[0])
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	want := warp(base, h, 100, 100, InterpBicubic)
	if !layers.Layer(layers.OriginIndex() + 1).Equal(want) {
		t.Error("layer after origin is not the first contracting warp")
	}
}

func TestPaintOrder(t *testing.T) {
	_, layers := scenarioLayers(t)
	away := layers.PaintOrder(StackAwayFromViewer)
	toward := layers.PaintOrder(StackTowardViewer)

	for i := range away {
		if away[i] != i {
			t.Errorf("away[%d] = %d, want %d", i, away[i], i)
		}
		if toward[i] != away[len(away)-1-i] {
			t.Errorf("toward[%d] = %d, want %d", i, toward[i], away[len(away)-1-i])
		}
	}
}

func TestCompositeFlipIsReversePainting(t *testing.T) {
	_, layers := scenarioLayers(t)

	manual := func(order []int) *Raster {
		acc := newRaster(100, 100)
		for _, i := range order {
			blend.Span(acc.data, layers.Layer(i).data, blend.BlendSourceOver)
		}
		return acc
	}

	toward := layers.Composite(StackTowardViewer)
	away := layers.Composite(StackAwayFromViewer)

	towardOrder := layers.PaintOrder(StackTowardViewer)
	reversed := make([]int, len(towardOrder))
	for i, v := range towardOrder {
		reversed[len(towardOrder)-1-i] = v
	}

	if !toward.Equal(manual(towardOrder)) {
		t.Error("toward composite differs from serial painting")
	}
	if !away.Equal(manual(reversed)) {
		t.Error("flipped composite is not the reverse painter's order")
	}
	if toward.Equal(away) {
		t.Error("both stack orders produced the same raster")
	}
}

func TestCompositeDoesNotMutateLayers(t *testing.T) {
	_, layers := scenarioLayers(t)
	before := make([]*Raster, layers.Len())
	for i := range before {
		before[i] = layers.Layer(i).Clone()
	}

	first := layers.Composite(StackTowardViewer)
	_ = layers.Composite(StackAwayFromViewer)
	again := layers.Composite(StackTowardViewer)

	for i := range before {
		if !layers.Layer(i).Equal(before[i]) {
			t.Errorf("layer %d changed during compositing", i)
		}
	}
	if !first.Equal(again) {
		t.Error("recompositing the same order gave a different raster")
	}
}

func TestCompositeTopLayerWins(t *testing.T) {
	_, layers := scenarioLayers(t)
	got := layers.Composite(StackTowardViewer)

	// Toward the viewer, layer 0 (farthest expanding copy) is painted last.
	top := layers.Layer(0)
	for y := range 100 {
		for x := range 100 {
			if c := top.RGBAAt(x, y); c.A == 255 && got.RGBAAt(x, y) != c {
				t.Fatalf("pixel (%d,%d) = %v, want top layer %v", x, y, got.RGBAAt(x, y), c)
			}
		}
	}
}

func TestCompositeWorkerIndependent(t *testing.T) {
	_, one := scenarioLayers(t, WithWorkers(1))
	_, many := scenarioLayers(t, WithWorkers(5))
	if !one.Composite(StackTowardViewer).Equal(many.Composite(StackTowardViewer)) {
		t.Error("composite depends on worker count")
	}
}

func TestCompositeEmptySequence(t *testing.T) {
	base := testRaster(20, 10)
	got, err := Composite(base, SequenceResult{Reason: StopInsufficientCorners}, StackTowardViewer)
	if err != nil {
		t.Fatalf("Composite() error = %v", err)
	}
	if !got.Equal(base) {
		t.Error("composite of an empty sequence differs from the base")
	}
	if got == base {
		t.Error("Composite() returned the base raster itself")
	}
}

func TestBuildLayersNilBase(t *testing.T) {
	if _, err := BuildLayers(nil, SequenceResult{}); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("BuildLayers(nil) error = %v, want ErrInvalidDimensions", err)
	}
	if _, err := Composite(nil, SequenceResult{}, StackTowardViewer); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("Composite(nil) error = %v, want ErrInvalidDimensions", err)
	}
}

func TestStackOrder(t *testing.T) {
	if StackTowardViewer.Flip() != StackAwayFromViewer || StackAwayFromViewer.Flip() != StackTowardViewer {
		t.Error("Flip() is not an involution between the two orders")
	}
	if s := StackTowardViewer.String(); s != "TowardViewer" {
		t.Errorf("String() = %q, want TowardViewer", s)
	}
}

func BenchmarkComposite(b *testing.B) {
	base := testRaster(256, 256)
	seq, err := CornerSequences(RectQuad(256, 256), []Point{{50, 50}, {230, 25}, {240, 240}, {15, 215}})
	if err != nil {
		b.Fatalf("CornerSequences() error = %v", err)
	}
	b.ResetTimer()
	for b.Loop() {
		_, _ = Composite(base, seq, StackTowardViewer)
	}
}
