package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/HuSoftSolutions/bunker-website-sub001/internal/models"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/services"
)

var (
	indexerInstance *services.MenuIndexerFunction
	once            sync.Once
	initErr         error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.CloudEvent("IndexMenuUpload", indexMenuUpload)
}

// main is required by the Go Functions Framework.
func main() {}

// indexMenuUpload handles storage "object finalized" events.
func indexMenuUpload(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		indexerInstance, initErr = services.NewMenuIndexer(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var gcsEvent models.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	res, err := indexerInstance.Process(ctx, gcsEvent)
	if err != nil {
		// Already logged with context; returning marks the invocation failed.
		return err
	}
	slog.Info("Index complete.", "status", res.Status, "locationId", res.LocationID, "eventId", e.ID())
	return nil
}
