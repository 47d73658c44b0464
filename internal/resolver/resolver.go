// Package resolver turns menu descriptors into fetchable addresses: the
// canonical URL the browser can open directly and the same-origin relay URL
// the viewer retrieves bytes through.
package resolver

import (
	"net/url"
	"strings"

	"github.com/HuSoftSolutions/bunker-website-sub001/internal/models"
)

// DefaultRelayEndpoint is the same-origin path of the relay handler.
const DefaultRelayEndpoint = "/api/menu-pdf"

// Resolved holds the two addresses derived from a descriptor.
type Resolved struct {
	CanonicalURL string `json:"canonicalUrl"`
	RelayURL     string `json:"relayUrl"`
}

// Tab is a descriptor that resolved to a usable address.
type Tab struct {
	Name       string
	Descriptor models.DocumentDescriptor
	Resolved   Resolved
}

// Resolver derives Resolved values. It holds no mutable state.
type Resolver struct {
	storageBase   string
	relayEndpoint string
}

// New returns a Resolver prefixing storage paths with storageBase and
// building relay addresses on relayEndpoint (DefaultRelayEndpoint if empty).
func New(storageBase, relayEndpoint string) *Resolver {
	if relayEndpoint == "" {
		relayEndpoint = DefaultRelayEndpoint
	}
	return &Resolver{
		storageBase:   strings.TrimRight(strings.TrimSpace(storageBase), "/"),
		relayEndpoint: relayEndpoint,
	}
}

// Resolve returns the addresses for d. ok is false when neither the source
// URL nor the storage path yields a usable value.
func (r *Resolver) Resolve(d models.DocumentDescriptor) (Resolved, bool) {
	canonical := r.canonicalURL(d)
	if canonical == "" {
		return Resolved{}, false
	}
	return Resolved{
		CanonicalURL: canonical,
		RelayURL:     r.RelayURL(canonical),
	}, true
}

// RelayURL returns the relay address that serves canonical.
func (r *Resolver) RelayURL(canonical string) string {
	return r.relayEndpoint + "?src=" + EscapeComponent(canonical)
}

// Tabs keeps the usable descriptors in their original order.
func (r *Resolver) Tabs(descriptors []models.DocumentDescriptor) []Tab {
	tabs := make([]Tab, 0, len(descriptors))
	for _, d := range descriptors {
		res, ok := r.Resolve(d)
		if !ok {
			continue
		}
		tabs = append(tabs, Tab{Name: d.DisplayName(), Descriptor: d, Resolved: res})
	}
	return tabs
}

func (r *Resolver) canonicalURL(d models.DocumentDescriptor) string {
	if src := strings.TrimSpace(d.SourceURL); isAbsoluteHTTP(src) {
		return encodeAbsolute(src)
	}

	p := strings.TrimLeft(strings.TrimSpace(d.StoragePath), "/")
	if p == "" || r.storageBase == "" {
		return ""
	}
	return r.storageBase + "/" + encodeSegments(p)
}

func isAbsoluteHTTP(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// encodeAbsolute re-encodes every path segment of raw, keeping scheme,
// userinfo, host, query and fragment. Input that does not parse is returned
// unchanged.
func encodeAbsolute(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	authority := u.Host
	if u.User != nil {
		authority = u.User.String() + "@" + authority
	}
	out := u.Scheme + "://" + authority + encodeSegments(u.EscapedPath())
	if u.RawQuery != "" {
		out += "?" + u.RawQuery
	}
	if u.Fragment != "" {
		out += "#" + u.EscapedFragment()
	}
	return out
}

// encodeSegments escapes each "/"-separated segment. Segments are unescaped
// first so already-encoded input is not encoded twice.
func encodeSegments(p string) string {
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		if dec, err := url.PathUnescape(seg); err == nil {
			seg = dec
		}
		segments[i] = EscapeComponent(seg)
	}
	return strings.Join(segments, "/")
}

// EscapeComponent percent-encodes s for use as a single URL component,
// encoding spaces as %20. Everything but letters, digits and "-_.~" is
// encoded, including "!'()*", so the result is safe both as a path segment
// and as a query value.
func EscapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
