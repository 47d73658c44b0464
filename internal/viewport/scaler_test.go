package viewport

import (
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-4 }

func TestHeightIsBindingConstraint(t *testing.T) {
	s := NewScaler(0, 0)
	s.SetBase(1000, 1400)
	s.SetContainerWidth(800)
	s.maxContentH = 600

	if !s.Recompute() {
		t.Fatal("expected scale to change")
	}
	if !near(s.Scale(), 600.0/1400.0) {
		t.Errorf("scale = %.4f, want 0.4286", s.Scale())
	}
}

func TestWidthOnlyWhenHeightUnknown(t *testing.T) {
	s := NewScaler(DefaultChrome, DefaultMinContentHeight)
	s.SetBase(1000, 1400)
	s.SetContainerWidth(800)

	s.Recompute()
	if !near(s.Scale(), 0.8) {
		t.Errorf("scale = %v, want 0.8", s.Scale())
	}
}

func TestScaleCappedAtMax(t *testing.T) {
	s := NewScaler(0, 0)
	s.SetBase(100, 100)
	s.SetContainerWidth(5000)
	s.SetWindowHeight(5000)

	s.Recompute()
	if s.Scale() != MaxScale {
		t.Errorf("scale = %v, want %v", s.Scale(), MaxScale)
	}
}

func TestRecomputeIsIdempotent(t *testing.T) {
	s := NewScaler(100, 200)
	s.SetBase(612, 792)
	s.SetContainerWidth(700)
	s.SetWindowHeight(900)

	s.Recompute()
	first := s.Scale()
	if s.Recompute() {
		t.Error("second Recompute with unchanged inputs should not apply")
	}
	if math.Abs(s.Scale()-first) > Epsilon {
		t.Errorf("scale drifted from %v to %v", first, s.Scale())
	}
}

func TestHysteresis(t *testing.T) {
	s := NewScaler(0, 0)
	s.SetBase(1000, 1000)
	s.SetContainerWidth(500)
	s.Recompute()

	s.SetContainerWidth(505) // 0.505, within epsilon of 0.5
	if s.Recompute() {
		t.Error("change within epsilon should be ignored")
	}
	if s.Scale() != 0.5 {
		t.Errorf("scale = %v, want 0.5", s.Scale())
	}

	s.SetContainerWidth(520)
	if !s.Recompute() || !near(s.Scale(), 0.52) {
		t.Errorf("scale = %v, want 0.52", s.Scale())
	}
}

func TestNoBaseOrContainerKeepsScale(t *testing.T) {
	s := NewScaler(0, 0)
	s.SetContainerWidth(800)
	if s.Recompute() || s.Scale() != 1 {
		t.Errorf("without base: scale = %v", s.Scale())
	}

	s.SetBase(1000, 1000)
	s.SetContainerWidth(0)
	if s.Recompute() || s.Scale() != 1 {
		t.Errorf("without container: scale = %v", s.Scale())
	}
}

func TestBaseFixedOncePerDocument(t *testing.T) {
	s := NewScaler(0, 0)
	if !s.SetBase(1000, 1400) {
		t.Fatal("first SetBase should apply")
	}
	if s.SetBase(500, 500) {
		t.Error("second SetBase should be ignored")
	}
	if w, h := s.Base(); w != 1000 || h != 1400 {
		t.Errorf("base = %vx%v", w, h)
	}
	if s.SetBase(0, 10) {
		t.Error("invalid base should be rejected")
	}

	s.Reset()
	if s.HasBase() || s.Scale() != 1 {
		t.Error("Reset should clear base and scale")
	}
	if !s.SetBase(500, 500) {
		t.Error("SetBase should apply after Reset")
	}
}

func TestResetKeepsPanelSize(t *testing.T) {
	s := NewScaler(100, 300)
	s.SetContainerWidth(800)
	s.SetWindowHeight(1000)
	s.Reset()
	if s.MaxContentHeight() != 900 {
		t.Errorf("MaxContentHeight = %v, want 900", s.MaxContentHeight())
	}
}

func TestMaxContentHeight(t *testing.T) {
	tests := []struct {
		window, chrome, min, want float64
	}{
		{1000, 220, 320, 780},
		{400, 220, 320, 320},
		{0, 220, 320, 0},
		{-5, 220, 320, 0},
	}
	for _, tt := range tests {
		if got := MaxContentHeight(tt.window, tt.chrome, tt.min); got != tt.want {
			t.Errorf("MaxContentHeight(%v, %v, %v) = %v, want %v", tt.window, tt.chrome, tt.min, got, tt.want)
		}
	}
}

func TestScaleAlwaysInRange(t *testing.T) {
	s := NewScaler(DefaultChrome, DefaultMinContentHeight)
	s.SetBase(612, 792)
	for _, w := range []float64{1, 10, 300, 800, 2000, 100000} {
		for _, h := range []float64{0, 1, 500, 1200, 100000} {
			s.SetContainerWidth(w)
			s.SetWindowHeight(h)
			s.Recompute()
			if sc := s.Scale(); sc <= 0 || sc > MaxScale {
				t.Fatalf("scale %v out of range for container %v window %v", sc, w, h)
			}
		}
	}
}
