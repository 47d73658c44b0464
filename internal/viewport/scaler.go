// Package viewport computes the scale that fits a page into the space the
// viewer panel has available.
package viewport

import "math"

const (
	// MaxScale is the largest zoom a page is ever rendered at.
	MaxScale = 3.0
	// Epsilon is the smallest scale change worth a re-render.
	Epsilon = 0.01

	// DefaultChrome is the vertical space taken by the panel header, tabs
	// and pager controls.
	DefaultChrome = 220
	// DefaultMinContentHeight floors the height available to the page.
	DefaultMinContentHeight = 320
)

// Scaler tracks the fit inputs for one document. The zero value is not
// ready for use; call NewScaler.
type Scaler struct {
	chrome    float64
	minHeight float64

	baseWidth      float64
	baseHeight     float64
	containerWidth float64
	maxContentH    float64
	scale          float64
}

// NewScaler returns a Scaler at scale 1 with no base dimensions.
func NewScaler(chrome, minContentHeight float64) *Scaler {
	return &Scaler{chrome: chrome, minHeight: minContentHeight, scale: 1}
}

// MaxContentHeight is the window height minus chrome, floored at min.
// A non-positive window height means the height is not known yet.
func MaxContentHeight(windowHeight, chrome, min float64) float64 {
	if windowHeight <= 0 {
		return 0
	}
	return math.Max(windowHeight-chrome, min)
}

// SetBase records the natural page size. It only takes effect once per
// document and reports whether it did.
func (s *Scaler) SetBase(width, height float64) bool {
	if s.HasBase() || width <= 0 || height <= 0 {
		return false
	}
	s.baseWidth, s.baseHeight = width, height
	return true
}

// HasBase reports whether base dimensions are known.
func (s *Scaler) HasBase() bool { return s.baseWidth > 0 && s.baseHeight > 0 }

// SetContainerWidth records the width of the page container.
func (s *Scaler) SetContainerWidth(w float64) { s.containerWidth = w }

// SetWindowHeight records the window height.
func (s *Scaler) SetWindowHeight(h float64) {
	s.maxContentH = MaxContentHeight(h, s.chrome, s.minHeight)
}

// Recompute applies the fitting scale and reports whether it changed.
// Changes of Epsilon or less are ignored.
func (s *Scaler) Recompute() bool {
	if !s.HasBase() || s.containerWidth <= 0 {
		return false
	}

	widthScale := s.containerWidth / s.baseWidth
	heightScale := widthScale
	if s.maxContentH > 0 {
		heightScale = s.maxContentH / s.baseHeight
	}
	candidate := math.Min(math.Min(widthScale, heightScale), MaxScale)
	if candidate <= 0 || math.IsNaN(candidate) {
		return false
	}

	if math.Abs(candidate-s.scale) <= Epsilon {
		return false
	}
	s.scale = candidate
	return true
}

// Reset forgets the document dimensions and returns to scale 1. Container
// and window sizes are kept since the panel did not change.
func (s *Scaler) Reset() {
	s.baseWidth, s.baseHeight = 0, 0
	s.scale = 1
}

// Scale returns the current scale, always in (0, MaxScale].
func (s *Scaler) Scale() float64 { return s.scale }

// Base returns the natural page size, zero until known.
func (s *Scaler) Base() (width, height float64) { return s.baseWidth, s.baseHeight }

// MaxContentHeight returns the height available to the page, 0 if unknown.
func (s *Scaler) MaxContentHeight() float64 { return s.maxContentH }
