package droste

import (
	"errors"
	"math"
	"testing"
)

func TestCornerSequencesScenario(t *testing.T) {
	res, err := CornerSequences(scenarioBase, scenarioDest.Points())
	if err != nil {
		t.Fatalf("CornerSequences() error = %v", err)
	}

	if res.Reason != StopConverged {
		t.Errorf("Reason = %v, want Converged", res.Reason)
	}
	if res.Len() != 15 {
		t.Fatalf("Len() = %d, want 15", res.Len())
	}
	if len(res.Expanding) != len(res.Contracting) {
		t.Errorf("len(Expanding) = %d, want %d", len(res.Expanding), len(res.Contracting))
	}

	last, ok := res.Last()
	if !ok {
		t.Fatal("Last() = false, want true")
	}
	if d := last.MinDistance(); d >= 1 || d < 0.5 {
		t.Errorf("last MinDistance() = %v, want just under 1", d)
	}
	if d := res.Contracting[res.Len()-2].MinDistance(); d < 1 {
		t.Errorf("previous MinDistance() = %v, want >= 1", d)
	}

	if !res.Contracting[0].EqualWithin(scenarioDest, 1e-6) {
		t.Errorf("Contracting[0] = %v, want %v", res.Contracting[0], scenarioDest)
	}
}

func TestCornerSequencesMonotone(t *testing.T) {
	res, err := CornerSequences(scenarioBase, scenarioDest.Points())
	if err != nil {
		t.Fatalf("CornerSequences() error = %v", err)
	}

	prev := scenarioBase.MinDistance()
	for i, q := range res.Contracting {
		d := q.MinDistance()
		if d > prev {
			t.Errorf("Contracting[%d].MinDistance() = %v, grew from %v", i, d, prev)
		}
		prev = d
	}
}

func TestCornerSequencesInverseSteps(t *testing.T) {
	res, err := CornerSequences(scenarioBase, scenarioDest.Points(), WithMaxIterations(4))
	if err != nil {
		t.Fatalf("CornerSequences() error = %v", err)
	}
	fwd, err := Solve(scenarioBase, scenarioDest)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	// Applying the forward mapping to an expanding quad steps back inward.
	for i := 1; i < len(res.Expanding); i++ {
		got := res.Expanding[i].Transform(fwd)
		if !got.EqualWithin(res.Expanding[i-1], 1e-6) {
			t.Errorf("fwd(Expanding[%d]) = %v, want %v", i, got, res.Expanding[i-1])
		}
	}
}

func TestCornerSequencesIterationCap(t *testing.T) {
	tests := []struct {
		name  string
		iters int
		want  int
	}{
		{"zero", 0, 0},
		{"three", 3, 3},
		{"fourteen", 14, 14},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := CornerSequences(scenarioBase, scenarioDest.Points(), WithMaxIterations(tt.iters))
			if err != nil {
				t.Fatalf("CornerSequences() error = %v", err)
			}
			if res.Len() != tt.want {
				t.Errorf("Len() = %d, want %d", res.Len(), tt.want)
			}
			if res.Reason != StopIterationCap {
				t.Errorf("Reason = %v, want IterationCap", res.Reason)
			}
		})
	}
}

func TestCornerSequencesThreshold(t *testing.T) {
	// A threshold above the base quad's own size stops before any step.
	res, err := CornerSequences(scenarioBase, scenarioDest.Points(), WithMinDistance(1000))
	if err != nil {
		t.Fatalf("CornerSequences() error = %v", err)
	}
	if res.Len() != 0 || res.Reason != StopConverged {
		t.Errorf("Len() = %d, Reason = %v, want 0, Converged", res.Len(), res.Reason)
	}
	if _, ok := res.Last(); ok {
		t.Error("Last() on empty sequence = true, want false")
	}
}

func TestCornerSequencesInsufficientCorners(t *testing.T) {
	for n := range 4 {
		res, err := CornerSequences(scenarioBase, scenarioDest.Points()[:n])
		if err != nil {
			t.Fatalf("CornerSequences(%d corners) error = %v", n, err)
		}
		if res.Reason != StopInsufficientCorners || res.Len() != 0 || len(res.Expanding) != 0 {
			t.Errorf("CornerSequences(%d corners) = %+v, want empty InsufficientCorners", n, res)
		}
	}
}

func TestCornerSequencesDegenerate(t *testing.T) {
	collinear := []Point{{0, 0}, {10, 10}, {20, 20}, {30, 30}}
	if _, err := CornerSequences(scenarioBase, collinear); !errors.Is(err, ErrDegenerateCorrespondence) {
		t.Errorf("CornerSequences(collinear) error = %v, want ErrDegenerateCorrespondence", err)
	}
}

func TestGenerateSequencesIdentityHitsCap(t *testing.T) {
	id := IdentityHomography()
	res := GenerateSequences(scenarioBase, id, id, SequenceConfig{MaxIterations: 5, MinDistance: 1})
	if res.Len() != 5 || res.Reason != StopIterationCap {
		t.Fatalf("Len() = %d, Reason = %v, want 5, IterationCap", res.Len(), res.Reason)
	}
	for i, q := range res.Contracting {
		if q != scenarioBase {
			t.Errorf("Contracting[%d] = %v, want base", i, q)
		}
	}
}

func TestGenerateSequencesFiniteForSingularMapping(t *testing.T) {
	// Collapses everything onto one point: must still terminate.
	collapse := HomographyFromCoeffs([8]float64{0, 0, 5, 0, 0, 5, 0, 0})
	res := GenerateSequences(scenarioBase, collapse, IdentityHomography(), DefaultSequenceConfig())
	if res.Reason != StopConverged {
		t.Errorf("Reason = %v, want Converged", res.Reason)
	}
	if last, _ := res.Last(); last.MinDistance() != 0 || math.IsNaN(last[0].X) {
		t.Errorf("last = %v, want collapsed point", last)
	}
}

func TestGenerateSequencesExpandingStopsAtOverflow(t *testing.T) {
	halve := HomographyFromCoeffs([8]float64{0.5, 0, 0, 0, 0.5, 0, 0, 0})
	blowUp := HomographyFromCoeffs([8]float64{1e300, 0, 0, 0, 1e300, 0, 0, 0})
	res := GenerateSequences(scenarioBase, halve, blowUp, DefaultSequenceConfig())

	if res.Reason != StopConverged {
		t.Errorf("Reason = %v, want Converged", res.Reason)
	}
	if len(res.Contracting) != 7 {
		t.Errorf("len(Contracting) = %d, want 7", len(res.Contracting))
	}
	if len(res.Expanding) != 1 {
		t.Fatalf("len(Expanding) = %d, want 1", len(res.Expanding))
	}
	for i, p := range res.Expanding[0] {
		if !p.IsFinite() {
			t.Errorf("Expanding[0][%d] = %v, want finite", i, p)
		}
	}
}

func TestStopReasonString(t *testing.T) {
	tests := []struct {
		r    StopReason
		want string
	}{
		{StopConverged, "Converged"},
		{StopIterationCap, "IterationCap"},
		{StopInsufficientCorners, "InsufficientCorners"},
		{StopReason(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.r.String(); got != tt.want {
			t.Errorf("StopReason(%d).String() = %q, want %q", tt.r, got, tt.want)
		}
	}
}
