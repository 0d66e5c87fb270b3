package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Providers ProvidersConfig `yaml:"providers" mapstructure:"providers"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Retry     RetryConfig     `yaml:"retry" mapstructure:"retry"`
	Breaker   BreakerConfig   `yaml:"breaker" mapstructure:"breaker"`
	Scoring   ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Ranking   RankingConfig   `yaml:"ranking" mapstructure:"ranking"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// ProvidersConfig configures the venue search providers.
type ProvidersConfig struct {
	Google GoogleConfig `yaml:"google" mapstructure:"google"`
	Yelp   YelpConfig   `yaml:"yelp" mapstructure:"yelp"`
	Static StaticConfig `yaml:"static" mapstructure:"static"`
}

// GoogleConfig configures Google Places and Routes.
type GoogleConfig struct {
	Enabled       bool    `yaml:"enabled" mapstructure:"enabled"`
	Key           string  `yaml:"key" mapstructure:"key"`
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	RoutesBaseURL string  `yaml:"routes_base_url" mapstructure:"routes_base_url"`
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit     float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// YelpConfig configures Yelp Fusion.
type YelpConfig struct {
	Enabled     bool    `yaml:"enabled" mapstructure:"enabled"`
	Key         string  `yaml:"key" mapstructure:"key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// StaticConfig configures the YAML fixture provider.
type StaticConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// SearchConfig configures orchestration and entity resolution.
type SearchConfig struct {
	Strategy                string  `yaml:"strategy" mapstructure:"strategy"`
	Primary                 string  `yaml:"primary" mapstructure:"primary"`
	MergeVenueData          bool    `yaml:"merge_venue_data" mapstructure:"merge_venue_data"`
	MaxVenuesPerSource      int     `yaml:"max_venues_per_source" mapstructure:"max_venues_per_source"`
	MaxTotalVenues          int     `yaml:"max_total_venues" mapstructure:"max_total_venues"`
	DedupThresholdM         float64 `yaml:"dedup_threshold_m" mapstructure:"dedup_threshold_m"`
	NameSimilarityThreshold float64 `yaml:"name_similarity_threshold" mapstructure:"name_similarity_threshold"`
	MaxClusterDiameterM     float64 `yaml:"max_cluster_diameter_m" mapstructure:"max_cluster_diameter_m"`
	RequireAtLeastOneSource bool    `yaml:"require_at_least_one_source" mapstructure:"require_at_least_one_source"`
	MinVenuesForSuccess     int     `yaml:"min_venues_for_success" mapstructure:"min_venues_for_success"`
}

// CacheConfig configures the search result cache.
type CacheConfig struct {
	TTLMins      int `yaml:"ttl_mins" mapstructure:"ttl_mins"`
	Capacity     int `yaml:"capacity" mapstructure:"capacity"`
	Headroom     int `yaml:"headroom" mapstructure:"headroom"`
	KeyPrecision int `yaml:"key_precision" mapstructure:"key_precision"`
}

// TTL returns the entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMins) * time.Minute
}

// RetryConfig configures provider and enrichment retries.
type RetryConfig struct {
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
	BaseDelayMs int    `yaml:"base_delay_ms" mapstructure:"base_delay_ms"`
	MaxDelayMs  int    `yaml:"max_delay_ms" mapstructure:"max_delay_ms"`
	Backoff     string `yaml:"backoff" mapstructure:"backoff"`
}

// BreakerConfig configures the per-provider circuit breakers.
type BreakerConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// ScoringConfig configures the compatibility scorer.
type ScoringConfig struct {
	AIEnabled   bool `yaml:"ai_enabled" mapstructure:"ai_enabled"`
	TimeoutSecs int  `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// AnthropicConfig configures the Anthropic client.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// RankingConfig holds the contextual adjustment magnitudes.
type RankingConfig struct {
	RatingBaseline  float64 `yaml:"rating_baseline" mapstructure:"rating_baseline"`
	RatingWeight    float64 `yaml:"rating_weight" mapstructure:"rating_weight"`
	OpenNowBonus    float64 `yaml:"open_now_bonus" mapstructure:"open_now_bonus"`
	ClosedPenalty   float64 `yaml:"closed_penalty" mapstructure:"closed_penalty"`
	TimeOfDayBonus  float64 `yaml:"time_of_day_bonus" mapstructure:"time_of_day_bonus"`
	DistancePenalty float64 `yaml:"distance_penalty" mapstructure:"distance_penalty"`
}

// EnrichConfig configures route enrichment.
type EnrichConfig struct {
	Enabled     bool    `yaml:"enabled" mapstructure:"enabled"`
	Concurrency int     `yaml:"concurrency" mapstructure:"concurrency"`
	TopN        int     `yaml:"top_n" mapstructure:"top_n"`
	Mode        string  `yaml:"mode" mapstructure:"mode"` // estimate or a Routes travel mode
	AvgSpeedKMH float64 `yaml:"avg_speed_kmh" mapstructure:"avg_speed_kmh"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// StoreConfig configures the preference store.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("VENUE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("providers.google.enabled", true)
	v.SetDefault("providers.google.key", "")
	v.SetDefault("providers.google.base_url", "")
	v.SetDefault("providers.google.routes_base_url", "")
	v.SetDefault("providers.google.timeout_secs", 10)
	v.SetDefault("providers.google.rate_limit", 10)
	v.SetDefault("providers.yelp.enabled", true)
	v.SetDefault("providers.yelp.key", "")
	v.SetDefault("providers.yelp.base_url", "")
	v.SetDefault("providers.yelp.timeout_secs", 10)
	v.SetDefault("providers.yelp.rate_limit", 5)
	v.SetDefault("providers.static.enabled", false)
	v.SetDefault("providers.static.path", "")
	v.SetDefault("search.strategy", "parallel")
	v.SetDefault("search.primary", "google")
	v.SetDefault("search.merge_venue_data", true)
	v.SetDefault("search.max_venues_per_source", 20)
	v.SetDefault("search.max_total_venues", 30)
	v.SetDefault("search.dedup_threshold_m", 50.0)
	v.SetDefault("search.name_similarity_threshold", 0.8)
	v.SetDefault("search.max_cluster_diameter_m", 0.0)
	v.SetDefault("search.require_at_least_one_source", true)
	v.SetDefault("search.min_venues_for_success", 3)
	v.SetDefault("cache.ttl_mins", 30)
	v.SetDefault("cache.capacity", 50)
	v.SetDefault("cache.headroom", 5)
	v.SetDefault("cache.key_precision", 3)
	v.SetDefault("retry.max_retries", 2)
	v.SetDefault("retry.base_delay_ms", 250)
	v.SetDefault("retry.max_delay_ms", 5000)
	v.SetDefault("retry.backoff", "exponential")
	v.SetDefault("breaker.failure_threshold", 5)
	v.SetDefault("breaker.reset_timeout_secs", 30)
	v.SetDefault("scoring.ai_enabled", true)
	v.SetDefault("scoring.timeout_secs", 8)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("ranking.rating_baseline", 3.5)
	v.SetDefault("ranking.rating_weight", 8.0)
	v.SetDefault("ranking.open_now_bonus", 5.0)
	v.SetDefault("ranking.closed_penalty", 10.0)
	v.SetDefault("ranking.time_of_day_bonus", 5.0)
	v.SetDefault("ranking.distance_penalty", 15.0)
	v.SetDefault("enrich.enabled", true)
	v.SetDefault("enrich.concurrency", 5)
	v.SetDefault("enrich.top_n", 10)
	v.SetDefault("enrich.mode", "estimate")
	v.SetDefault("enrich.avg_speed_kmh", 25.0)
	v.SetDefault("enrich.timeout_secs", 10)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "venue.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the fields required by mode ("search", "serve",
// "compat" or "prefs") plus value ranges shared by every mode, reporting
// every problem at once.
func (c *Config) Validate(mode string) error {
	var errs []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Sprintf(format, args...))
		}
	}

	switch mode {
	case "search", "serve":
		c.validateProviders(check)
		if mode == "serve" {
			check(c.Server.Port > 0, "server.port must be > 0")
		}
	case "compat", "prefs":
		check(c.Store.DatabaseURL != "", "store.database_url is required")
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Search.Strategy {
	case "parallel", "primary-first", "primary_first":
	default:
		errs = append(errs, fmt.Sprintf("search.strategy must be parallel or primary-first, got %q", c.Search.Strategy))
	}
	check(c.Search.MaxVenuesPerSource > 0, "search.max_venues_per_source must be > 0")
	check(c.Search.MaxTotalVenues > 0, "search.max_total_venues must be > 0")
	check(c.Search.DedupThresholdM > 0, "search.dedup_threshold_m must be > 0")
	check(c.Search.NameSimilarityThreshold > 0 && c.Search.NameSimilarityThreshold <= 1,
		"search.name_similarity_threshold must be in (0, 1], got %.2f", c.Search.NameSimilarityThreshold)
	check(c.Search.MaxClusterDiameterM >= 0, "search.max_cluster_diameter_m must be >= 0")
	check(c.Search.MinVenuesForSuccess >= 0, "search.min_venues_for_success must be >= 0")
	check(c.Cache.TTLMins > 0, "cache.ttl_mins must be > 0")
	check(c.Cache.Capacity > 0, "cache.capacity must be > 0")
	check(c.Cache.Headroom >= 0 && c.Cache.Headroom < c.Cache.Capacity, "cache.headroom must be in [0, capacity)")
	check(c.Cache.KeyPrecision >= 0 && c.Cache.KeyPrecision <= 6, "cache.key_precision must be in [0, 6]")
	check(c.Retry.MaxRetries >= 0, "retry.max_retries must be >= 0")
	check(c.Retry.Backoff == "linear" || c.Retry.Backoff == "exponential",
		"retry.backoff must be linear or exponential, got %q", c.Retry.Backoff)
	check(c.Breaker.FailureThreshold > 0, "breaker.failure_threshold must be > 0")
	check(c.Enrich.Concurrency > 0, "enrich.concurrency must be > 0")
	check(c.Enrich.TopN >= 0, "enrich.top_n must be >= 0")
	check(c.Store.Driver == "sqlite" || c.Store.Driver == "postgres",
		"store.driver must be sqlite or postgres, got %q", c.Store.Driver)

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateProviders(check func(bool, string, ...any)) {
	p := c.Providers
	check(p.Google.Enabled || p.Yelp.Enabled || p.Static.Enabled, "at least one provider must be enabled")
	if p.Google.Enabled {
		check(p.Google.Key != "", "providers.google.key is required")
	}
	if p.Yelp.Enabled {
		check(p.Yelp.Key != "", "providers.yelp.key is required")
	}
	if p.Static.Enabled {
		check(p.Static.Path != "", "providers.static.path is required")
	}
	if c.Search.Strategy == "primary-first" || c.Search.Strategy == "primary_first" {
		check(c.Search.Primary != "", "search.primary is required for primary-first")
	}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
