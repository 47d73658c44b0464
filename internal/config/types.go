package config

import (
	"time"

	"github.com/HuSoftSolutions/bunker-website-sub001/internal/models"
)

// CatalogSource selects where locations and their menus come from.
type CatalogSource string

const (
	CatalogStatic    CatalogSource = "static"
	CatalogFirestore CatalogSource = "firestore"
)

// Config is the top-level menuview configuration, corresponding to menuview.yml.
type Config struct {
	Server    ServerConfig      `yaml:"server" koanf:"server"`
	Storage   StorageConfig     `yaml:"storage" koanf:"storage"`
	Catalog   CatalogConfig     `yaml:"catalog" koanf:"catalog"`
	Viewer    ViewerConfig      `yaml:"viewer" koanf:"viewer"`
	Relay     RelayConfig       `yaml:"relay" koanf:"relay"`
	Locations []models.Location `yaml:"locations,omitempty" koanf:"locations"`
	LogLevel  string            `yaml:"log_level" koanf:"log_level"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port int `yaml:"port" koanf:"port"`
	// PublicURL is the origin viewer sessions use to reach the relay.
	// Empty means the server's own loopback address.
	PublicURL       string        `yaml:"public_url" koanf:"public_url"`
	RelayPath       string        `yaml:"relay_path" koanf:"relay_path"`
	AllowAllOrigins bool          `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	AllowedOrigins  []string      `yaml:"allowed_origins,omitempty" koanf:"allowed_origins"`
	RequestTimeout  time.Duration `yaml:"request_timeout" koanf:"request_timeout"`
}

// StorageConfig describes where menu objects live.
type StorageConfig struct {
	Base   string `yaml:"base" koanf:"base"`
	Bucket string `yaml:"bucket" koanf:"bucket"`
	// UseClient streams storage objects with the Cloud Storage client
	// instead of plain HTTP.
	UseClient bool `yaml:"use_client" koanf:"use_client"`
}

// CatalogConfig selects and configures the location catalog.
type CatalogConfig struct {
	Source     CatalogSource `yaml:"source" koanf:"source"`
	ProjectID  string        `yaml:"project_id" koanf:"project_id"`
	Collection string        `yaml:"collection" koanf:"collection"`
}

// ViewerConfig tunes viewer sessions.
type ViewerConfig struct {
	WindowChrome     float64 `yaml:"window_chrome" koanf:"window_chrome"`
	MinContentHeight float64 `yaml:"min_content_height" koanf:"min_content_height"`
	Prefetch         bool    `yaml:"prefetch" koanf:"prefetch"`
	PrefetchLimit    int     `yaml:"prefetch_limit" koanf:"prefetch_limit"`
}

// RelayConfig limits what the relay fetches.
type RelayConfig struct {
	AllowedHosts []string      `yaml:"allowed_hosts" koanf:"allowed_hosts"`
	MaxBytes     int64         `yaml:"max_bytes" koanf:"max_bytes"`
	MaxRetries   int           `yaml:"max_retries" koanf:"max_retries"`
	Timeout      time.Duration `yaml:"timeout" koanf:"timeout"`
	Backoff      time.Duration `yaml:"backoff" koanf:"backoff"`
}
