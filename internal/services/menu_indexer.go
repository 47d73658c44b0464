package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/HuSoftSolutions/bunker-website-sub001/internal/catalog"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/gcp"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/models"
)

type MenuIndexerConfig struct {
	ProjectID      string
	MenusBucket    string
	CollectionName string
}

// ObjectSource streams uploaded objects. *gcp.ObjectReader implements it.
type ObjectSource interface {
	Open(ctx context.Context, bucket, object string) (io.ReadCloser, int64, error)
}

// MenuRegistry records menus against locations. *catalog.Firestore implements it.
type MenuRegistry interface {
	FindByHash(ctx context.Context, fileHash string) (string, bool, error)
	AddDocument(ctx context.Context, locationID string, d models.DocumentDescriptor) error
}

// MenuIndexerFunction registers PDFs uploaded to the menus bucket as
// descriptors of the location named by the object's first path segment.
type MenuIndexerFunction struct {
	objects  ObjectSource
	registry MenuRegistry
	config   MenuIndexerConfig
}

func NewMenuIndexer(ctx context.Context) (*MenuIndexerFunction, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}

	config := MenuIndexerConfig{
		ProjectID:      projectID,
		MenusBucket:    gcp.GetEnv("MENUS_BUCKET", ""),
		CollectionName: gcp.GetEnv("FIRESTORE_COLLECTION", catalog.DefaultCollection),
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	objects, err := gcp.NewObjectReader(ctx)
	if err != nil {
		return nil, err
	}

	f := NewMenuIndexerWith(objects, catalog.NewFirestore(firestoreClient, config.CollectionName), config)
	slog.Info("Menu indexer initialized.", "collection", config.CollectionName, "bucket", config.MenusBucket)
	return f, nil
}

// NewMenuIndexerWith builds an indexer on explicit dependencies.
func NewMenuIndexerWith(objects ObjectSource, registry MenuRegistry, config MenuIndexerConfig) *MenuIndexerFunction {
	return &MenuIndexerFunction{objects: objects, registry: registry, config: config}
}

func (f *MenuIndexerFunction) Process(ctx context.Context, e models.GCSEvent) (*models.IndexResult, error) {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)
	logCtx.Info("Processing new GCS object.")

	if f.config.MenusBucket != "" && e.Bucket != f.config.MenusBucket {
		logCtx.Info("Object is not in the menus bucket. Skipping.")
		return &models.IndexResult{Status: models.IndexStatusIgnored}, nil
	}
	locationID, name, ok := ParseMenuObject(e.Name)
	if !ok {
		logCtx.Info("Object is not a location menu. Skipping.")
		return &models.IndexResult{Status: models.IndexStatusIgnored}, nil
	}
	logCtx = logCtx.With("locationId", locationID)

	tempDir, err := os.MkdirTemp("", "menu-indexer-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	sourcePath := filepath.Join(tempDir, "source.pdf")
	if err := f.streamObject(ctx, e.Bucket, e.Name, sourcePath); err != nil {
		return nil, f.handleError(logCtx, "failed to download source PDF", err)
	}

	fileHash, err := calculateFileHash(sourcePath)
	if err != nil {
		return nil, f.handleError(logCtx, "failed to calculate file hash", err)
	}
	logCtx = logCtx.With("fileHash", fileHash)

	existing, isDuplicate, err := f.registry.FindByHash(ctx, fileHash)
	if err != nil {
		return nil, f.handleError(logCtx, "failed to check for duplicate", err)
	}
	if isDuplicate {
		logCtx.Info("Duplicate file detected. Skipping.", "existingLocationId", existing)
		return &models.IndexResult{Status: models.IndexStatusDuplicate, LocationID: existing}, nil
	}

	pageCount, err := validatePDF(sourcePath)
	if err != nil {
		return nil, f.handleError(logCtx, "failed to validate PDF", err)
	}

	d := models.DocumentDescriptor{
		Name:        name,
		StoragePath: e.Name,
		PageCount:   pageCount,
		FileHash:    fileHash,
	}
	if err := f.registry.AddDocument(ctx, locationID, d); err != nil {
		return nil, f.handleError(logCtx, "failed to register menu", err)
	}

	logCtx.Info("Menu registered.", "name", name, "pageCount", pageCount)
	return &models.IndexResult{Status: models.IndexStatusRegistered, LocationID: locationID, Descriptor: d}, nil
}

// ParseMenuObject splits "<location>/<file>.pdf" into the location ID and a
// display name derived from the file name.
func ParseMenuObject(object string) (locationID, name string, ok bool) {
	object = strings.TrimPrefix(object, "/")
	if !strings.EqualFold(path.Ext(object), ".pdf") {
		return "", "", false
	}
	locationID, rest, found := strings.Cut(object, "/")
	if !found || locationID == "" || rest == "" || strings.HasSuffix(rest, "/") {
		return "", "", false
	}
	return locationID, DisplayNameFromFile(path.Base(rest)), true
}

// DisplayNameFromFile turns "lunch_specials-2024.pdf" into "Lunch Specials 2024".
func DisplayNameFromFile(file string) string {
	base := strings.TrimSuffix(file, path.Ext(file))
	words := strings.FieldsFunc(base, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	if len(words) == 0 {
		return models.DefaultDocumentName
	}
	return strings.Join(words, " ")
}

func (f *MenuIndexerFunction) handleError(logCtx *slog.Logger, message string, originalErr error) error {
	fullError := fmt.Sprintf("%s: %v", message, originalErr)
	logCtx.Error(message, "error", originalErr)
	return fmt.Errorf("%s", fullError)
}

func (f *MenuIndexerFunction) streamObject(ctx context.Context, bucket, object, destPath string) error {
	reader, _, err := f.objects.Open(ctx, bucket, object)
	if err != nil {
		return err
	}
	defer reader.Close()
	localFile, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file at %s: %w", destPath, err)
	}
	defer localFile.Close()
	if _, err := io.Copy(localFile, reader); err != nil {
		return fmt.Errorf("failed to copy GCS object to local file: %w", err)
	}
	return nil
}

func validatePDF(path string) (int, error) {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(path, cfg); err != nil {
		return 0, err
	}
	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	if pageCount == 0 {
		return 0, fmt.Errorf("document has no pages")
	}
	return pageCount, nil
}

func calculateFileHash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
