package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/HuSoftSolutions/bunker-website-sub001/internal/gcp"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/relay"
)

var (
	relayInstance *relay.Handler
	once          sync.Once
	initErr       error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("MenuPDFRelay", menuPDFRelay)
}

// main is required by the Go Functions Framework.
func main() {}

func newRelay(ctx context.Context) (*relay.Handler, error) {
	cfg := relay.DefaultConfig()
	cfg.StorageBucket = gcp.GetEnv("MENUS_BUCKET", "")
	cfg.StorageBase = gcp.GetEnv("STORAGE_BASE", "")
	if cfg.StorageBase == "" && cfg.StorageBucket != "" {
		cfg.StorageBase = "https://storage.googleapis.com/" + cfg.StorageBucket
	}
	for _, host := range strings.Split(gcp.GetEnv("ALLOWED_HOSTS", "storage.googleapis.com,firebasestorage.googleapis.com"), ",") {
		cfg.AllowedHosts = append(cfg.AllowedHosts, strings.TrimSpace(host))
	}

	var objects relay.ObjectOpener
	if cfg.StorageBucket != "" {
		reader, err := gcp.NewObjectReader(ctx)
		if err != nil {
			return nil, err
		}
		objects = reader
	}
	slog.Info("Menu relay initialized.", "bucket", cfg.StorageBucket, "allowedHosts", cfg.AllowedHosts)
	return relay.NewHandler(cfg, objects, nil, slog.Default()), nil
}

func menuPDFRelay(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		relayInstance, initErr = newRelay(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	relayInstance.ServeHTTP(w, r)
}
