package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HuSoftSolutions/bunker-website-sub001/internal/models"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/resolver"
)

var resolveLocation string

var resolveCmd = &cobra.Command{
	Use:   "resolve [storage-path|url ...]",
	Short: "Print the canonical and relay addresses of menus",
	Long: `Resolves each argument (a storage path or an absolute URL) the way the
viewer does. With --location, the menus of that location are resolved
instead and unusable entries are dropped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		res := resolver.New(cfg.Storage.Base, cfg.Server.RelayPath)

		var descriptors []models.DocumentDescriptor
		if resolveLocation != "" {
			cat, closeCatalog, err := openCatalog(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeCatalog()
			descriptors, err = cat.Documents(cmd.Context(), resolveLocation)
			if err != nil {
				return fmt.Errorf("loading menus of %s: %w", resolveLocation, err)
			}
		}
		for _, arg := range args {
			d := models.DocumentDescriptor{StoragePath: arg}
			if lower := strings.ToLower(arg); strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
				d = models.DocumentDescriptor{SourceURL: arg}
			}
			descriptors = append(descriptors, d)
		}
		if len(descriptors) == 0 {
			return fmt.Errorf("nothing to resolve: pass paths/URLs or --location")
		}

		tabs := res.Tabs(descriptors)
		out := make([]models.MenuTab, 0, len(tabs))
		for i, tab := range tabs {
			out = append(out, models.MenuTab{
				Index:        i,
				Name:         tab.Name,
				CanonicalURL: tab.Resolved.CanonicalURL,
				RelayURL:     tab.Resolved.RelayURL,
				PageCount:    tab.Descriptor.PageCount,
			})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	resolveCmd.Flags().StringVarP(&resolveLocation, "location", "l", "", "resolve the menus of this location")
	rootCmd.AddCommand(resolveCmd)
}
