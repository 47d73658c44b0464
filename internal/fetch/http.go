package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrRetrieval is wrapped by every non-cancellation retrieval failure.
var ErrRetrieval = errors.New("menu retrieval failed")

// StatusError is returned when the relay answers with a non-2xx status.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("relay returned %d for %s", e.Code, e.URL)
}

// Unwrap lets callers match StatusError with errors.Is(err, ErrRetrieval).
func (e *StatusError) Unwrap() error { return ErrRetrieval }

// HTTPFetcher retrieves relay URLs over HTTP. Relative relay URLs are
// resolved against BaseURL, the origin that serves the relay.
type HTTPFetcher struct {
	Client  *http.Client
	BaseURL string
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, relayURL string) ([]byte, error) {
	target := relayURL
	if strings.HasPrefix(relayURL, "/") {
		target = strings.TrimRight(f.BaseURL, "/") + relayURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrRetrieval, err)
	}
	req.Header.Set("Accept", "application/pdf")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Code: resp.StatusCode, URL: relayURL}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: reading body: %v", ErrRetrieval, err)
	}
	return data, nil
}
