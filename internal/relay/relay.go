// Package relay serves menu PDFs from an allow-listed upstream on the
// viewer's own origin, so the browser never makes a cross-origin request.
package relay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/HuSoftSolutions/bunker-website-sub001/internal/gcp"
)

var (
	errMissingSource = errors.New("missing src parameter")
	errBadSource     = errors.New("src is not an absolute http(s) URL")
	errForbidden     = errors.New("host is not allowed")
	errNotFound      = errors.New("upstream object not found")
	errTooLarge      = errors.New("upstream object exceeds size limit")
	errUpstream      = errors.New("upstream request failed")
)

const maxRedirects = 10

// ObjectOpener streams Cloud Storage objects. *gcp.ObjectReader implements it.
type ObjectOpener interface {
	Open(ctx context.Context, bucket, object string) (io.ReadCloser, int64, error)
}

// Config controls what the relay will fetch.
type Config struct {
	// AllowedHosts lists upstream host names. "*" allows any host and a
	// leading "*." matches subdomains. The StorageBase host is always allowed.
	AllowedHosts []string
	// StorageBase and StorageBucket route storage URLs through the
	// Cloud Storage client instead of plain HTTP.
	StorageBase   string
	StorageBucket string
	MaxBytes      int64
	MaxRetries    int
	Timeout       time.Duration
	Backoff       time.Duration
}

// DefaultConfig returns the limits used when none are configured.
func DefaultConfig() Config {
	return Config{
		MaxBytes:   25 << 20,
		MaxRetries: 3,
		Timeout:    20 * time.Second,
		Backoff:    250 * time.Millisecond,
	}
}

// Handler is the relay endpoint: GET ?src=<canonical URL>.
type Handler struct {
	cfg     Config
	client  *http.Client
	objects ObjectOpener
	logger  *slog.Logger

	storagePrefix string
	allowed       []string
}

// NewHandler builds a relay. objects may be nil, in which case storage URLs
// are fetched over HTTP like any other.
func NewHandler(cfg Config, objects ObjectOpener, client *http.Client, logger *slog.Logger) *Handler {
	def := DefaultConfig()
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = def.MaxBytes
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = def.Backoff
	}
	if logger == nil {
		logger = slog.Default()
	}

	h := &Handler{
		cfg:           cfg,
		objects:       objects,
		logger:        logger,
		storagePrefix: strings.TrimRight(cfg.StorageBase, "/") + "/",
	}
	for _, host := range cfg.AllowedHosts {
		if host = strings.ToLower(strings.TrimSpace(host)); host != "" {
			h.allowed = append(h.allowed, host)
		}
	}
	if u, err := url.Parse(cfg.StorageBase); err == nil && u.Hostname() != "" {
		h.allowed = append(h.allowed, strings.ToLower(u.Hostname()))
	}
	h.client = h.guardRedirects(client)
	return h
}

// guardRedirects returns a copy of client that refuses to follow a redirect
// to a host outside the allow-list.
func (h *Handler) guardRedirects(client *http.Client) *http.Client {
	var c http.Client
	if client != nil {
		c = *client
	}
	next := c.CheckRedirect
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if !h.hostAllowed(req.URL.Hostname()) {
			return fmt.Errorf("%w: redirect to %s", errForbidden, req.URL.Hostname())
		}
		if next != nil {
			return next(req, via)
		}
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		return nil
	}
	return &c
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	src := r.URL.Query().Get("src")
	logCtx := h.logger.With("src", src)

	data, err := h.load(r.Context(), src)
	if err != nil {
		status := StatusFor(err)
		if status >= 500 {
			logCtx.Warn("Relay failed.", "status", status, "error", err)
		} else {
			logCtx.Info("Relay refused.", "status", status, "error", err)
		}
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(data); err != nil {
		logCtx.Warn("Failed to write relay response.", "error", err)
		return
	}
	logCtx.Info("Relayed menu.", "bytes", len(data))
}

// StatusFor maps a relay error to the HTTP status returned to the viewer.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, errMissingSource), errors.Is(err, errBadSource):
		return http.StatusBadRequest
	case errors.Is(err, errForbidden):
		return http.StatusForbidden
	case errors.Is(err, errNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func (h *Handler) load(ctx context.Context, src string) ([]byte, error) {
	if strings.TrimSpace(src) == "" {
		return nil, errMissingSource
	}
	u, err := url.Parse(src)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return nil, errBadSource
	}
	if !h.hostAllowed(u.Hostname()) {
		return nil, fmt.Errorf("%w: %s", errForbidden, u.Hostname())
	}

	if object, ok := h.storageObject(u); ok {
		return h.loadObject(ctx, object)
	}
	return h.loadHTTP(ctx, u.String())
}

func (h *Handler) hostAllowed(host string) bool {
	host = strings.ToLower(host)
	for _, a := range h.allowed {
		switch {
		case a == "*", a == host:
			return true
		case strings.HasPrefix(a, "*.") && strings.HasSuffix(host, a[1:]):
			return true
		}
	}
	return false
}

// storageObject returns the object name when u lies under the storage base
// and a storage client is available.
func (h *Handler) storageObject(u *url.URL) (string, bool) {
	if h.objects == nil || h.cfg.StorageBucket == "" || h.cfg.StorageBase == "" {
		return "", false
	}
	raw := u.Scheme + "://" + u.Host + u.EscapedPath()
	if !strings.HasPrefix(raw, h.storagePrefix) {
		return "", false
	}
	object, err := url.PathUnescape(strings.TrimPrefix(raw, h.storagePrefix))
	if err != nil || object == "" {
		return "", false
	}
	return object, true
}

func (h *Handler) loadObject(ctx context.Context, object string) ([]byte, error) {
	return h.withRetry(ctx, "gs://"+h.cfg.StorageBucket+"/"+object, func(ctx context.Context) ([]byte, bool, error) {
		return h.openOnce(ctx, object)
	})
}

func (h *Handler) openOnce(ctx context.Context, object string) (data []byte, retry bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.Timeout)
	defer cancel()

	rc, size, err := h.objects.Open(ctx, h.cfg.StorageBucket, object)
	if err != nil {
		if gcp.IsNotFound(err) {
			return nil, false, fmt.Errorf("%w: %v", errNotFound, err)
		}
		return nil, true, fmt.Errorf("%w: %v", errUpstream, err)
	}
	defer rc.Close()
	if size > h.cfg.MaxBytes {
		return nil, false, fmt.Errorf("%w: %d bytes", errTooLarge, size)
	}
	data, err = h.readCapped(rc)
	if err != nil {
		return nil, !errors.Is(err, errTooLarge), err
	}
	return data, false, nil
}

func (h *Handler) loadHTTP(ctx context.Context, target string) ([]byte, error) {
	return h.withRetry(ctx, target, func(ctx context.Context) ([]byte, bool, error) {
		return h.fetchOnce(ctx, target)
	})
}

// withRetry runs attempt until it succeeds, reports a permanent failure or
// MaxRetries is reached, doubling the backoff between attempts.
func (h *Handler) withRetry(ctx context.Context, src string, attempt func(context.Context) ([]byte, bool, error)) ([]byte, error) {
	backoff := h.cfg.Backoff
	var lastErr error

	for i := 0; i < h.cfg.MaxRetries; i++ {
		data, retry, err := attempt(ctx)
		if err == nil {
			return data, nil
		}
		if !retry {
			return nil, err
		}

		lastErr = err
		if i == h.cfg.MaxRetries-1 {
			break
		}
		h.logger.Warn(
			"Upstream fetch failed, will retry.",
			"src", src,
			"attempt", i+1,
			"maxRetries", h.cfg.MaxRetries,
			"backoff", backoff.String(),
			"error", err,
		)
		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", errUpstream, ctx.Err())
		}
	}
	return nil, fmt.Errorf("upstream fetch failed after %d attempts: %w", h.cfg.MaxRetries, lastErr)
}

func (h *Handler) fetchOnce(ctx context.Context, target string) (data []byte, retry bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", errBadSource, err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		if errors.Is(err, errForbidden) {
			return nil, false, err
		}
		return nil, true, fmt.Errorf("%w: %v", errUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, fmt.Errorf("%w: %s", errNotFound, target)
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("%w: status %d", errUpstream, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, false, fmt.Errorf("%w: status %d", errUpstream, resp.StatusCode)
	}
	if resp.ContentLength > h.cfg.MaxBytes {
		return nil, false, fmt.Errorf("%w: %d bytes", errTooLarge, resp.ContentLength)
	}

	data, err = h.readCapped(resp.Body)
	if err != nil {
		return nil, !errors.Is(err, errTooLarge), err
	}
	return data, false, nil
}

func (h *Handler) readCapped(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, h.cfg.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", errUpstream, err)
	}
	if n > h.cfg.MaxBytes {
		return nil, errTooLarge
	}
	return buf.Bytes(), nil
}
