package models

// These structs define the payloads exchanged with the Cloud Functions
// and returned by the HTTP API.

// GCSEvent is the data of a storage "object finalized" CloudEvent.
type GCSEvent struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        string `json:"size"`
}

// IndexResult reports what the menu indexer did with an uploaded object.
type IndexResult struct {
	Status     string             `json:"status"`
	LocationID string             `json:"locationId"`
	Descriptor DocumentDescriptor `json:"descriptor"`
}

// Index result statuses.
const (
	IndexStatusRegistered = "registered"
	IndexStatusDuplicate  = "duplicate"
	IndexStatusIgnored    = "ignored"
)

// MenuTab is a usable descriptor as returned by GET /api/locations/{id}/menus.
type MenuTab struct {
	Index        int    `json:"index"`
	Name         string `json:"name"`
	CanonicalURL string `json:"canonicalUrl"`
	RelayURL     string `json:"relayUrl"`
	PageCount    int    `json:"pageCount,omitempty"`
}
