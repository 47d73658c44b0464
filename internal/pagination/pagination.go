// Package pagination tracks the current page of a menu.
package pagination

// Controller holds the page position. Pages are 1-based; NumPages is 0
// until the document has been decoded.
type Controller struct {
	numPages int
	current  int
}

// New returns a controller with no known pages, positioned on page 1.
func New() *Controller {
	return &Controller{current: 1}
}

// SetNumPages records the page count of a freshly decoded document and
// moves back to page 1.
func (c *Controller) SetNumPages(n int) {
	if n < 0 {
		n = 0
	}
	c.numPages = n
	c.current = 1
}

// Advance moves by delta pages, wrapping past either end. It is a no-op
// while the page count is unknown and reports whether the page changed.
func (c *Controller) Advance(delta int) bool {
	if c.numPages <= 0 || delta == 0 {
		return false
	}

	next := c.current + delta
	switch {
	case next < 1:
		next = c.numPages
	case next > c.numPages:
		next = 1
	}
	if next == c.current {
		return false
	}
	c.current = next
	return true
}

// Reset forgets the document.
func (c *Controller) Reset() {
	c.numPages = 0
	c.current = 1
}

// Current returns the current page.
func (c *Controller) Current() int { return c.current }

// NumPages returns the page count, 0 when unknown.
func (c *Controller) NumPages() int { return c.numPages }
