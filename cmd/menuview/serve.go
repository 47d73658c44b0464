package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/HuSoftSolutions/bunker-website-sub001/internal/catalog"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/config"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/gcp"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/relay"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/resolver"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/server"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/viewer"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the menu relay, API and viewer sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cat, closeCatalog, err := openCatalog(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeCatalog()

		var objects relay.ObjectOpener
		if cfg.Storage.UseClient {
			reader, err := gcp.NewObjectReader(ctx)
			if err != nil {
				return err
			}
			defer reader.Close()
			objects = reader
		}

		rel := relay.NewHandler(relay.Config{
			AllowedHosts:  cfg.Relay.AllowedHosts,
			StorageBase:   cfg.Storage.Base,
			StorageBucket: cfg.Storage.Bucket,
			MaxBytes:      cfg.Relay.MaxBytes,
			MaxRetries:    cfg.Relay.MaxRetries,
			Timeout:       cfg.Relay.Timeout,
			Backoff:       cfg.Relay.Backoff,
		}, objects, nil, slog.Default())

		srv := server.New(server.Config{
			Port:           cfg.Server.Port,
			AllowAll:       cfg.Server.AllowAllOrigins,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			RelayPath:      cfg.Server.RelayPath,
			PublicURL:      cfg.Server.PublicURL,
			RequestTimeout: cfg.Server.RequestTimeout,
			Viewer: viewer.Options{
				Chrome:           cfg.Viewer.WindowChrome,
				MinContentHeight: cfg.Viewer.MinContentHeight,
				Prefetch:         cfg.Viewer.Prefetch,
				PrefetchLimit:    cfg.Viewer.PrefetchLimit,
			},
		}, cat, resolver.New(cfg.Storage.Base, cfg.Server.RelayPath), rel, slog.Default())

		return srv.Run(ctx)
	},
}

// openCatalog returns the configured catalog and a function releasing it.
func openCatalog(ctx context.Context, cfg *config.Config) (catalog.Catalog, func(), error) {
	if cfg.Catalog.Source != config.CatalogFirestore {
		return catalog.NewStatic(cfg.Locations), func() {}, nil
	}
	client, err := gcp.NewFirestoreClient(ctx, cfg.Catalog.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return catalog.NewFirestore(client, cfg.Catalog.Collection), func() { client.Close() }, nil
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
