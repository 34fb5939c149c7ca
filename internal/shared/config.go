package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AppEnv      string `envconfig:"APP_ENV" default:"prod"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR"`
	MySQLDSN    string `envconfig:"MYSQL_DSN" default:"root:root@tcp(localhost:3306)/availability?parseTime=true&charset=utf8mb4,utf8&loc=UTC"`
	RedisAddr   string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPass   string `envconfig:"REDIS_PASSWORD"`
	RedisDB     int    `envconfig:"REDIS_DB" default:"0"`
	CatalogPath string `envconfig:"CATALOG_PATH" default:"config/catalog.yaml"`

	SearchTTL        time.Duration `envconfig:"SEARCH_TTL" default:"45m"`
	SettingsCacheTTL time.Duration `envconfig:"SETTINGS_CACHE_TTL" default:"5m"`
	AccommodationTTL time.Duration `envconfig:"ACCOMMODATION_CACHE_TTL" default:"15m"`
	SupplierTimeout  time.Duration `envconfig:"SUPPLIER_TIMEOUT" default:"30s"`
	ShutdownTimeout  time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	SearchWorkers    int           `envconfig:"SEARCH_WORKERS" default:"32"`
	SelectionWorkers int           `envconfig:"SELECTION_WORKERS" default:"4"`
	TargetCurrency   string        `envconfig:"TARGET_CURRENCY" default:"USD"`

	KafkaBrokers     []string `envconfig:"KAFKA_BROKERS"`
	KafkaSearchTopic string   `envconfig:"KAFKA_SEARCH_TOPIC" default:"availability.search"`

	IngestWorkers int `envconfig:"INGEST_WORKERS" default:"8"`

	Catalog Catalog `ignored:"true"`
}

// Catalog is the static supplier and currency setup read from CATALOG_PATH.
type Catalog struct {
	Suppliers     []SupplierConfig  `yaml:"suppliers"`
	CurrencyRates map[string]string `yaml:"currency_rates"`
}

type SupplierConfig struct {
	Code    string        `yaml:"code"`
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	RPS     float64       `yaml:"rps"`
	Burst   int           `yaml:"burst"`
	Timeout time.Duration `yaml:"timeout"`
	Enabled bool          `yaml:"enabled"`
}

// DefaultSuppliers returns the codes enabled when no agent or agency overrides them.
func (c Catalog) DefaultSuppliers() []string {
	var out []string
	for _, s := range c.Suppliers {
		if s.Enabled {
			out = append(out, s.Code)
		}
	}
	return out
}

func Load() (Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, fmt.Errorf("env config: %w", err)
	}
	cat, err := LoadCatalog(c.CatalogPath)
	if err != nil {
		return Config{}, err
	}
	c.Catalog = cat
	return c, nil
}

// LoadCatalog reads the yaml catalog. A missing file is not an error.
func LoadCatalog(path string) (Catalog, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("path", path).Msg("supplier catalog not found; no suppliers configured")
		return Catalog{}, nil
	}
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	var cat Catalog
	if err := yaml.Unmarshal(b, &cat); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	seen := make(map[string]bool, len(cat.Suppliers))
	for i := range cat.Suppliers {
		s := &cat.Suppliers[i]
		s.Code = strings.TrimSpace(s.Code)
		if s.Code == "" || s.BaseURL == "" {
			return Catalog{}, fmt.Errorf("catalog supplier #%d: code and base_url are required", i)
		}
		if seen[s.Code] {
			return Catalog{}, fmt.Errorf("catalog supplier %q listed twice", s.Code)
		}
		seen[s.Code] = true
		if s.APIKey == "" {
			log.Warn().Str("supplier", s.Code).Msg("supplier api_key is empty")
		}
	}
	return cat, nil
}
