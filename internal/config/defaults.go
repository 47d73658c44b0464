package config

import (
	"time"

	"github.com/HuSoftSolutions/bunker-website-sub001/internal/resolver"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/viewport"
)

// DefaultFileName is the config file looked up when none is given.
const DefaultFileName = "menuview.yml"

// DefaultAllowedHosts are the upstreams menus are normally hosted on.
var DefaultAllowedHosts = []string{
	"storage.googleapis.com",
	"firebasestorage.googleapis.com",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			RelayPath:       resolver.DefaultRelayEndpoint,
			AllowAllOrigins: true,
			RequestTimeout:  60 * time.Second,
		},
		Storage: StorageConfig{
			Base: "https://storage.googleapis.com/bunker-menus",
		},
		Catalog: CatalogConfig{
			Source:     CatalogStatic,
			Collection: "locations",
		},
		Viewer: ViewerConfig{
			WindowChrome:     viewport.DefaultChrome,
			MinContentHeight: viewport.DefaultMinContentHeight,
			Prefetch:         false,
			PrefetchLimit:    2,
		},
		Relay: RelayConfig{
			AllowedHosts: append([]string(nil), DefaultAllowedHosts...),
			MaxBytes:     25 << 20,
			MaxRetries:   3,
			Timeout:      20 * time.Second,
			Backoff:      250 * time.Millisecond,
		},
		LogLevel: "info",
	}
}
