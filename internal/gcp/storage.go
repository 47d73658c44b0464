package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// ErrObjectNotFound is returned by ObjectReader.Open for missing objects.
var ErrObjectNotFound = errors.New("object not found")

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// ObjectReader streams objects out of Cloud Storage.
type ObjectReader struct {
	client *storage.Client
}

// NewObjectReader creates a storage client using application default credentials.
func NewObjectReader(ctx context.Context) (*ObjectReader, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	return &ObjectReader{client: client}, nil
}

// NewObjectReaderFromClient wraps an existing client.
func NewObjectReaderFromClient(client *storage.Client) *ObjectReader {
	return &ObjectReader{client: client}
}

// Open returns a reader for gs://bucket/object and the object size.
func (r *ObjectReader) Open(ctx context.Context, bucket, object string) (io.ReadCloser, int64, error) {
	reader, err := r.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if IsNotFound(err) {
			return nil, 0, fmt.Errorf("gs://%s/%s: %w", bucket, object, ErrObjectNotFound)
		}
		return nil, 0, fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", bucket, object, err)
	}
	return reader, reader.Attrs.Size, nil
}

// Close releases the underlying client.
func (r *ObjectReader) Close() error {
	return r.client.Close()
}

// IsNotFound reports whether err means the object or document does not exist.
func IsNotFound(err error) bool {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, ErrObjectNotFound) {
		return true
	}
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
