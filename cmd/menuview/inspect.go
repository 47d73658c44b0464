package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HuSoftSolutions/bunker-website-sub001/internal/fetch"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/render"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/viewport"
)

var (
	inspectWidth  float64
	inspectHeight float64
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.pdf|url>",
	Short: "Decode a menu and show how it would be fitted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		data, err := readMenu(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		doc, err := render.NewPDFDecoder().Decode(cmd.Context(), data)
		if err != nil {
			return err
		}
		first, err := doc.RenderPage(cmd.Context(), 1, 1)
		if err != nil {
			return err
		}

		extracted, err := render.PageCount(first.PDF)
		if err != nil {
			return fmt.Errorf("page 1 extract: %w", err)
		}

		scaler := viewport.NewScaler(cfg.Viewer.WindowChrome, cfg.Viewer.MinContentHeight)
		scaler.SetContainerWidth(inspectWidth)
		scaler.SetWindowHeight(inspectHeight)
		scaler.SetBase(first.Width, first.Height)
		scaler.Recompute()

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "bytes:        %d\n", len(data))
		fmt.Fprintf(w, "pages:        %d\n", doc.NumPages())
		fmt.Fprintf(w, "page 1 size:  %.0f x %.0f pt\n", first.Width, first.Height)
		fmt.Fprintf(w, "page 1 pdf:   %d bytes, %d page(s)\n", len(first.PDF), extracted)
		fmt.Fprintf(w, "panel:        %.0f wide, %.0f tall content\n", inspectWidth, scaler.MaxContentHeight())
		fmt.Fprintf(w, "scale:        %.4f\n", scaler.Scale())
		return nil
	},
}

func readMenu(ctx context.Context, src string) ([]byte, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		f := &fetch.HTTPFetcher{Client: http.DefaultClient}
		return f.Fetch(ctx, src)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", src, err)
	}
	return data, nil
}

func init() {
	inspectCmd.Flags().Float64Var(&inspectWidth, "width", 800, "container width in pixels")
	inspectCmd.Flags().Float64Var(&inspectHeight, "height", 900, "window height in pixels")
	rootCmd.AddCommand(inspectCmd)
}
