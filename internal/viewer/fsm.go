package viewer

import "encoding/json"

// Status is the lifecycle state of the active document.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the status by name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Event drives Status transitions.
type Event int

const (
	EventDocumentSelected Event = iota
	EventRetrievalSucceeded
	EventRetrievalFailed
	EventRetrievalAborted
	EventPageRendered
	EventParseFailed
	EventClosed
)

func (e Event) String() string {
	switch e {
	case EventDocumentSelected:
		return "DocumentSelected"
	case EventRetrievalSucceeded:
		return "RetrievalSucceeded"
	case EventRetrievalFailed:
		return "RetrievalFailed"
	case EventRetrievalAborted:
		return "RetrievalAborted"
	case EventPageRendered:
		return "PageRendered"
	case EventParseFailed:
		return "ParseFailed"
	case EventClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Transition returns the status that follows s on e. ok is false when e is
// not valid in s; the status is then returned unchanged.
//
// Error is terminal for a document: only a new selection or closing the
// viewer leaves it.
func Transition(s Status, e Event) (next Status, ok bool) {
	switch e {
	case EventDocumentSelected:
		return StatusLoading, true
	case EventClosed:
		return StatusIdle, true
	case EventRetrievalAborted:
		return s, true
	case EventRetrievalSucceeded:
		if s == StatusLoading {
			return StatusLoading, true
		}
	case EventRetrievalFailed:
		if s == StatusLoading {
			return StatusError, true
		}
	case EventParseFailed:
		if s == StatusLoading || s == StatusReady {
			return StatusError, true
		}
	case EventPageRendered:
		if s == StatusLoading || s == StatusReady {
			return StatusReady, true
		}
	}
	return s, false
}
