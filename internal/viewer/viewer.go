// Package viewer drives one menu viewer panel: the tab list of a location,
// the retrieval of the active menu, its decoding, fitting and paging.
//
// A Viewer serialises all state changes behind one mutex. Retrieval,
// decoding and rendering run in their own goroutines and post their
// results back tagged with the session token (and, for renders, a
// sequence number); anything older than the current token or sequence is
// dropped.
package viewer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/HuSoftSolutions/bunker-website-sub001/internal/fetch"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/models"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/pagination"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/render"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/resolver"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/viewport"
)

// FailureMessage is shown in place of the page for any retrieval or parse
// failure.
const FailureMessage = "This menu could not be displayed."

var (
	ErrClosed    = errors.New("viewer is closed")
	ErrNoSuchTab = errors.New("no such menu tab")
)

// Options tune a Viewer.
type Options struct {
	// Chrome and MinContentHeight feed viewport.MaxContentHeight.
	Chrome           float64
	MinContentHeight float64
	// Prefetch warms the cache for every other tab after Open.
	Prefetch      bool
	PrefetchLimit int
	Logger        *slog.Logger
}

// TabInfo describes one selectable menu.
type TabInfo struct {
	Index        int    `json:"index"`
	Name         string `json:"name"`
	CanonicalURL string `json:"canonicalUrl"`
	RelayURL     string `json:"relayUrl"`
}

// State is an immutable snapshot of the viewer.
type State struct {
	Status       Status       `json:"status"`
	Tabs         []TabInfo    `json:"tabs"`
	Active       int          `json:"active"`
	NumPages     int          `json:"numPages"`
	CurrentPage  int          `json:"currentPage"`
	BaseWidth    float64      `json:"baseWidth"`
	BaseHeight   float64      `json:"baseHeight"`
	Scale        float64      `json:"scale"`
	Page         *render.Page `json:"page,omitempty"`
	PageRev      uint64       `json:"pageRev"`
	CanonicalURL string       `json:"canonicalUrl,omitempty"`
	FromCache    bool         `json:"fromCache"`
	Err          string       `json:"error,omitempty"`
}

// Viewer is one open (or closed) viewer instance.
type Viewer struct {
	coord    *fetch.Coordinator
	decoder  render.Decoder
	resolver *resolver.Resolver
	opts     Options
	logger   *slog.Logger

	mu        sync.Mutex
	open      bool
	tabs      []resolver.Tab
	active    int
	status    Status
	token     string
	fromCache bool
	errMsg    string

	doc          render.Document
	scaler       *viewport.Scaler
	pager        *pagination.Controller
	page         *render.Page
	pageRev      uint64
	renderSeq    uint64
	renderCancel context.CancelFunc

	prefetchCancel context.CancelFunc

	subs    map[int]chan State
	nextSub int
}

// New returns a closed viewer. coord must not be shared with another viewer;
// the cache behind it may be.
func New(coord *fetch.Coordinator, decoder render.Decoder, res *resolver.Resolver, opts Options) *Viewer {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Chrome == 0 && opts.MinContentHeight == 0 {
		opts.Chrome, opts.MinContentHeight = viewport.DefaultChrome, viewport.DefaultMinContentHeight
	}
	return &Viewer{
		coord:    coord,
		decoder:  decoder,
		resolver: res,
		opts:     opts,
		logger:   opts.Logger,
		active:   -1,
		scaler:   viewport.NewScaler(opts.Chrome, opts.MinContentHeight),
		pager:    pagination.New(),
		subs:     make(map[int]chan State),
	}
}

// Open shows the menus of a location and starts loading the first usable one.
func (v *Viewer) Open(descriptors []models.DocumentDescriptor) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.closeLocked()
	v.open = true
	v.tabs = v.resolver.Tabs(descriptors)
	v.logger.Info("Viewer opened.", "descriptors", len(descriptors), "tabs", len(v.tabs))

	if len(v.tabs) == 0 {
		v.publishLocked()
		return
	}
	v.selectLocked(0)

	if v.opts.Prefetch && len(v.tabs) > 1 {
		urls := make([]string, 0, len(v.tabs)-1)
		for _, tab := range v.tabs[1:] {
			urls = append(urls, tab.Resolved.RelayURL)
		}
		ctx, cancel := context.WithCancel(context.Background())
		v.prefetchCancel = cancel
		go func() {
			if err := v.coord.Prefetch(ctx, urls, v.opts.PrefetchLimit); err != nil && ctx.Err() == nil {
				v.logger.Warn("Prefetch stopped.", "error", err)
			}
		}()
	}
}

// Select switches to tab i. Selecting the active tab again only restarts
// it when it previously failed.
func (v *Viewer) Select(i int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.open {
		return ErrClosed
	}
	if i < 0 || i >= len(v.tabs) {
		return ErrNoSuchTab
	}
	if i == v.active && v.status != StatusError {
		return nil
	}
	v.selectLocked(i)
	return nil
}

// Advance moves delta pages with wraparound and reports whether the page
// changed. Nothing happens until the document is decoded.
func (v *Viewer) Advance(delta int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.doc == nil || v.status == StatusError {
		return false
	}
	if !v.pager.Advance(delta) {
		return false
	}
	v.renderLocked()
	v.publishLocked()
	return true
}

// ResizeContainer records the width available to the page.
func (v *Viewer) ResizeContainer(width float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scaler.SetContainerWidth(width)
	v.rescaleLocked()
}

// ResizeWindow records the window height.
func (v *Viewer) ResizeWindow(height float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scaler.SetWindowHeight(height)
	v.rescaleLocked()
}

// Close aborts any retrieval and clears all document state.
func (v *Viewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.open {
		return
	}
	v.closeLocked()
	v.logger.Info("Viewer closed.")
	v.publishLocked()
}

// State returns a snapshot of the viewer.
func (v *Viewer) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

// Subscribe returns a channel of state snapshots and a function that ends
// the subscription. Slow readers only see the newest snapshot.
func (v *Viewer) Subscribe() (<-chan State, func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.nextSub
	v.nextSub++
	ch := make(chan State, 1)
	v.subs[id] = ch
	ch <- v.snapshotLocked()

	return ch, func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if c, ok := v.subs[id]; ok {
			delete(v.subs, id)
			close(c)
		}
	}
}

func (v *Viewer) selectLocked(i int) {
	v.coord.Cancel()
	v.resetDocumentLocked()
	v.active = i
	v.applyLocked(EventDocumentSelected)

	tab := v.tabs[i]
	s := v.coord.Start(tab.Resolved.RelayURL, v.onRetrieved)
	v.token = s.Token
	v.logger.Info("Menu selected.", "tab", i, "name", tab.Name, "token", s.Token)
	v.publishLocked()
}

func (v *Viewer) closeLocked() {
	v.coord.Cancel()
	if v.prefetchCancel != nil {
		v.prefetchCancel()
		v.prefetchCancel = nil
	}
	v.resetDocumentLocked()
	v.tabs = nil
	v.active = -1
	v.open = false
	v.applyLocked(EventClosed)
}

// resetDocumentLocked clears everything derived from the active document.
func (v *Viewer) resetDocumentLocked() {
	if v.renderCancel != nil {
		v.renderCancel()
		v.renderCancel = nil
	}
	v.renderSeq++
	v.token = ""
	v.doc = nil
	v.page = nil
	v.fromCache = false
	v.errMsg = ""
	v.pager.Reset()
	v.scaler.Reset()
}

func (v *Viewer) applyLocked(e Event) {
	next, ok := Transition(v.status, e)
	if !ok {
		v.logger.Debug("Ignoring event.", "status", v.status.String(), "event", e.String())
		return
	}
	v.status = next
}

func (v *Viewer) failLocked(e Event, err error) {
	v.logger.Warn("Menu failed.", "event", e.String(), "token", v.token, "error", err)
	if v.renderCancel != nil {
		v.renderCancel()
		v.renderCancel = nil
	}
	v.renderSeq++
	v.page = nil
	v.errMsg = FailureMessage
	v.applyLocked(e)
}

// onRetrieved receives the coordinator's result for a session.
func (v *Viewer) onRetrieved(res fetch.Result) {
	if errors.Is(res.Err, fetch.ErrAborted) {
		v.logger.Debug("Retrieval aborted.", "token", res.Token, "event", EventRetrievalAborted.String())
		return
	}

	v.mu.Lock()
	if res.Token != v.token {
		v.mu.Unlock()
		return
	}
	if res.Err != nil {
		v.failLocked(EventRetrievalFailed, res.Err)
		v.publishLocked()
		v.mu.Unlock()
		return
	}
	v.applyLocked(EventRetrievalSucceeded)
	v.fromCache = res.FromCache
	token := v.token
	v.mu.Unlock()

	doc, err := v.decoder.Decode(context.Background(), res.Data)

	v.mu.Lock()
	defer v.mu.Unlock()
	if token != v.token {
		return
	}
	if err != nil {
		v.failLocked(EventParseFailed, err)
		v.publishLocked()
		return
	}
	v.doc = doc
	v.pager.SetNumPages(doc.NumPages())
	v.renderLocked()
	v.publishLocked()
}

// renderLocked starts rendering the current page at the current scale,
// superseding any render in flight.
func (v *Viewer) renderLocked() {
	if v.doc == nil {
		return
	}
	if v.renderCancel != nil {
		v.renderCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	v.renderCancel = cancel
	v.renderSeq++

	go v.renderPage(ctx, v.token, v.renderSeq, v.doc, v.pager.Current(), v.scaler.Scale())
}

func (v *Viewer) renderPage(ctx context.Context, token string, seq uint64, doc render.Document, number int, scale float64) {
	p, err := doc.RenderPage(ctx, number, scale)

	v.mu.Lock()
	defer v.mu.Unlock()
	if token != v.token || seq != v.renderSeq {
		return
	}
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		v.failLocked(EventParseFailed, err)
		v.publishLocked()
		return
	}

	// The first page fixes the natural size. When that changes the fit,
	// render again at the fitted scale instead of showing this one.
	if v.scaler.SetBase(p.Width, p.Height) && v.scaler.Recompute() {
		v.renderLocked()
		v.publishLocked()
		return
	}

	v.page = p
	v.pageRev++
	v.applyLocked(EventPageRendered)
	v.publishLocked()
}

func (v *Viewer) rescaleLocked() {
	if !v.scaler.Recompute() {
		return
	}
	if v.doc != nil && v.status != StatusError {
		v.renderLocked()
	}
	v.publishLocked()
}

func (v *Viewer) snapshotLocked() State {
	s := State{
		Status:      v.status,
		Active:      v.active,
		NumPages:    v.pager.NumPages(),
		CurrentPage: v.pager.Current(),
		Scale:       v.scaler.Scale(),
		Page:        v.page,
		PageRev:     v.pageRev,
		FromCache:   v.fromCache,
		Err:         v.errMsg,
	}
	s.BaseWidth, s.BaseHeight = v.scaler.Base()
	s.Tabs = make([]TabInfo, len(v.tabs))
	for i, tab := range v.tabs {
		s.Tabs[i] = TabInfo{
			Index:        i,
			Name:         tab.Name,
			CanonicalURL: tab.Resolved.CanonicalURL,
			RelayURL:     tab.Resolved.RelayURL,
		}
	}
	if v.active >= 0 && v.active < len(v.tabs) {
		s.CanonicalURL = v.tabs[v.active].Resolved.CanonicalURL
	}
	return s
}

// publishLocked hands the newest snapshot to every subscriber, replacing
// any snapshot they have not read yet.
func (v *Viewer) publishLocked() {
	if len(v.subs) == 0 {
		return
	}
	s := v.snapshotLocked()
	for _, ch := range v.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}
