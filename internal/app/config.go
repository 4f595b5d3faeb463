package app

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":3001"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"120s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"110s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`

	ShopifyStoreDomain string        `envconfig:"SHOPIFY_STORE_DOMAIN"`
	ShopifyAdminToken  string        `envconfig:"SHOPIFY_ADMIN_TOKEN"`
	ShopifyAPIVersion  string        `envconfig:"SHOPIFY_API_VERSION" default:"2024-10"`
	ShopifyLocationIDs string        `envconfig:"SHOPIFY_LOCATION_ID"`
	ShopifyTimeout     time.Duration `envconfig:"SHOPIFY_TIMEOUT" default:"30s"`

	ExternalStockURL string        `envconfig:"EXTERNAL_STOCK_URL" default:"http://192.168.3.172:3000/api/query"`
	ExternalFeedURL  string        `envconfig:"EXTERNAL_FEED_URL"`
	ExternalAPIKey   string        `envconfig:"EXTERNAL_API_KEY"`
	ExternalTimeout  time.Duration `envconfig:"EXTERNAL_TIMEOUT" default:"20s"`

	ExcludedWarehouse string `envconfig:"EXCLUDED_WAREHOUSE" default:"18"`
	LevelChunkSize    int    `envconfig:"LEVEL_CHUNK_SIZE" default:"50"`
	CrossRefWindow    int    `envconfig:"CROSSREF_WINDOW" default:"5"`

	StockSyncCron string `envconfig:"STOCK_SYNC_CRON"`
	CronTimezone  string `envconfig:"CRON_TIMEZONE" default:"America/Santiago"`

	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
}

// LoadConfig applies an optional .env file and reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.LevelChunkSize <= 0 {
		return nil, errors.New("level chunk size must be positive")
	}
	if cfg.CrossRefWindow <= 0 {
		return nil, errors.New("cross-reference window must be positive")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// LocationIDs splits the comma separated SHOPIFY_LOCATION_ID value.
func (c *Config) LocationIDs() []string {
	if c == nil {
		return nil
	}
	var ids []string
	for _, part := range strings.Split(c.ShopifyLocationIDs, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}
