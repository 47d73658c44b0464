// Package fetch retrieves menu bytes through the relay, one session at a
// time per viewer, consulting the shared cache first.
package fetch

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/HuSoftSolutions/bunker-website-sub001/internal/cache"
)

// ErrAborted reports that a session was superseded or cancelled. Results
// carrying it must be dropped without touching viewer state.
var ErrAborted = errors.New("retrieval aborted")

// Fetcher performs one network retrieval of a relay URL.
type Fetcher interface {
	Fetch(ctx context.Context, relayURL string) ([]byte, error)
}

// Session is one attempt to obtain bytes for a relay URL.
type Session struct {
	Token    string
	RelayURL string

	ctx    context.Context
	cancel context.CancelFunc
	waiter waiter
}

// flight is one network retrieval shared by every caller that asks for the
// same relay URL while it runs. Its context is cancelled once no caller is
// left waiting on it.
type flight struct {
	url     string
	done    chan struct{}
	data    []byte
	err     error
	waiters int
	cancel  context.CancelFunc
}

// waiter records the flight a caller joined. Guarded by Coordinator.flightMu.
type waiter struct {
	fl *flight
}

// Result is delivered once per session, from a separate goroutine.
type Result struct {
	Token     string
	RelayURL  string
	Data      []byte
	FromCache bool
	Err       error
}

// Coordinator owns at most one active session.
type Coordinator struct {
	cache   *cache.Cache
	fetcher Fetcher
	logger  *slog.Logger

	mu      sync.Mutex
	current *Session

	flightMu sync.Mutex
	flights  map[string]*flight
}

// NewCoordinator returns a coordinator backed by c and f.
func NewCoordinator(c *cache.Cache, f Fetcher, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{cache: c, fetcher: f, logger: logger, flights: make(map[string]*flight)}
}

// Start cancels the running session and begins a new one for relayURL.
// deliver is called exactly once with the outcome unless the session is
// aborted, in which case it receives a Result whose Err is ErrAborted.
func (c *Coordinator) Start(relayURL string, deliver func(Result)) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		Token:    uuid.NewString(),
		RelayURL: relayURL,
		ctx:      ctx,
		cancel:   cancel,
	}

	c.mu.Lock()
	if c.current != nil {
		c.current.cancel()
		c.leave(&c.current.waiter)
	}
	c.current = s
	c.mu.Unlock()

	go c.run(s, deliver)
	return s
}

// Cancel aborts the running session, if any.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		c.current.cancel()
		c.leave(&c.current.waiter)
		c.current = nil
	}
}

// Current returns the token of the running session.
func (c *Coordinator) Current() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return "", false
	}
	return c.current.Token, true
}

// IsCurrent reports whether token belongs to the running session.
func (c *Coordinator) IsCurrent(token string) bool {
	cur, ok := c.Current()
	return ok && cur == token
}

func (c *Coordinator) run(s *Session, deliver func(Result)) {
	logCtx := c.logger.With("token", s.Token, "relayUrl", s.RelayURL)
	res := Result{Token: s.Token, RelayURL: s.RelayURL}

	if data, ok := c.cache.Get(s.RelayURL); ok {
		logCtx.Debug("Serving menu from cache.", "bytes", len(data))
		res.Data, res.FromCache = data, true
		c.finish(s, res, deliver)
		return
	}

	data, err := c.fetchShared(s.ctx, s.RelayURL, &s.waiter)
	if s.ctx.Err() != nil {
		logCtx.Debug("Discarding superseded retrieval.")
		res.Err = ErrAborted
		deliver(res)
		return
	}
	if err != nil {
		logCtx.Warn("Menu retrieval failed.", "error", err)
		res.Err = err
		c.finish(s, res, deliver)
		return
	}

	logCtx.Info("Menu retrieved.", "bytes", len(data))
	res.Data = data
	c.finish(s, res, deliver)
}

// finish delivers res unless the session was superseded meanwhile.
func (c *Coordinator) finish(s *Session, res Result, deliver func(Result)) {
	if s.ctx.Err() != nil {
		res.Data, res.Err = nil, ErrAborted
	}
	deliver(res)
}

// Prefetch warms the cache for urls, at most limit at a time. It never
// touches the running session. Individual failures are logged and skipped.
func (c *Coordinator) Prefetch(ctx context.Context, urls []string, limit int) error {
	if limit <= 0 {
		limit = 4
	}
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)

	for _, u := range urls {
		relayURL := u
		if c.cache.Has(relayURL) {
			continue
		}
		eg.Go(func() error {
			var w waiter
			if _, err := c.fetchShared(gctx, relayURL, &w); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.logger.Warn("Prefetch failed.", "relayUrl", relayURL, "error", err)
			}
			return nil
		})
	}
	return eg.Wait()
}

// fetchShared returns the bytes for relayURL, joining a retrieval already in
// flight for it or starting one. Successful bytes are cached before any
// waiter is released. When ctx ends first the caller leaves the flight and
// gets ctx.Err().
func (c *Coordinator) fetchShared(ctx context.Context, relayURL string, w *waiter) ([]byte, error) {
	c.flightMu.Lock()
	if err := ctx.Err(); err != nil {
		c.flightMu.Unlock()
		return nil, err
	}
	fl, ok := c.flights[relayURL]
	if !ok {
		// A flight that just finished has already filled the cache.
		if data, hit := c.cache.Get(relayURL); hit {
			c.flightMu.Unlock()
			return data, nil
		}
		fl = c.startFlight(relayURL)
	}
	fl.waiters++
	w.fl = fl
	c.flightMu.Unlock()

	select {
	case <-fl.done:
		c.flightMu.Lock()
		w.fl = nil
		c.flightMu.Unlock()
		return fl.data, fl.err
	case <-ctx.Done():
		c.leave(w)
		return nil, ctx.Err()
	}
}

// startFlight must be called with flightMu held.
func (c *Coordinator) startFlight(relayURL string) *flight {
	fctx, cancel := context.WithCancel(context.Background())
	fl := &flight{url: relayURL, done: make(chan struct{}), cancel: cancel}
	c.flights[relayURL] = fl

	go func() {
		data, err := c.fetcher.Fetch(fctx, relayURL)
		if err == nil {
			// Abandoned flights that still succeed fill the cache too.
			c.cache.Put(relayURL, data)
		}
		c.flightMu.Lock()
		if c.flights[relayURL] == fl {
			delete(c.flights, relayURL)
		}
		c.flightMu.Unlock()

		fl.data, fl.err = data, err
		close(fl.done)
		cancel()
	}()
	return fl
}

// leave detaches w from its flight, cancelling the flight when w was the
// last waiter. Calling it again is a no-op.
func (c *Coordinator) leave(w *waiter) {
	c.flightMu.Lock()
	defer c.flightMu.Unlock()
	fl := w.fl
	if fl == nil {
		return
	}
	w.fl = nil
	fl.waiters--
	if fl.waiters > 0 {
		return
	}
	fl.cancel()
	if c.flights[fl.url] == fl {
		delete(c.flights, fl.url)
	}
}
