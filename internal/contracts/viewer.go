// Package contracts defines the websocket messages exchanged between the
// browser and a viewer session.
package contracts

const (
	// MessageTypeOpen loads the menus of a location into the viewer.
	MessageTypeOpen = "open"
	// MessageTypeSelect switches to another menu tab.
	MessageTypeSelect = "select"
	// MessageTypePage moves through the pages of the active menu.
	MessageTypePage = "page"
	// MessageTypeResize reports the container width and window height.
	MessageTypeResize = "resize"
	// MessageTypeClose closes the viewer.
	MessageTypeClose = "close"

	// MessageTypeState carries a viewer snapshot to the browser.
	MessageTypeState = "state"
	// MessageTypeError reports a rejected browser message.
	MessageTypeError = "error"
)

// IncomingMessage is the envelope used to route browser messages. Only the
// fields relevant to Type are set.
type IncomingMessage struct {
	Type           string  `json:"type"`
	Location       string  `json:"location,omitempty"`
	Index          int     `json:"index,omitempty"`
	Delta          int     `json:"delta,omitempty"`
	ContainerWidth float64 `json:"containerWidth,omitempty"`
	WindowHeight   float64 `json:"windowHeight,omitempty"`
}

// Tab is one selectable menu.
type Tab struct {
	Index        int    `json:"index"`
	Name         string `json:"name"`
	CanonicalURL string `json:"canonicalUrl"`
}

// PageImage is the rendered page: a single-page PDF drawn by the browser at
// PixelWidth x PixelHeight.
type PageImage struct {
	Number      int    `json:"number"`
	PixelWidth  int    `json:"pixelWidth"`
	PixelHeight int    `json:"pixelHeight"`
	PDF         string `json:"pdf"` // base64
}

// StateMessage mirrors the viewer state. Page is only sent when PageRev
// changed since the previous message on the connection.
type StateMessage struct {
	Type         string     `json:"type"`
	Session      string     `json:"session"`
	Location     string     `json:"location,omitempty"`
	Status       string     `json:"status"`
	Tabs         []Tab      `json:"tabs"`
	Active       int        `json:"active"`
	NumPages     int        `json:"numPages"`
	CurrentPage  int        `json:"currentPage"`
	Scale        float64    `json:"scale"`
	PageRev      uint64     `json:"pageRev"`
	Page         *PageImage `json:"page,omitempty"`
	CanonicalURL string     `json:"canonicalUrl,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// ErrorMessage reports a message the server could not act on.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
