package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for NewsTrace.
type Config struct {
	Resolver   ResolverConfig   `mapstructure:"resolver"   yaml:"resolver"`
	Engine     EngineConfig     `mapstructure:"engine"     yaml:"engine"`
	Fetcher    FetcherConfig    `mapstructure:"fetcher"    yaml:"fetcher"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint" yaml:"checkpoint"`
	Storage    StorageConfig    `mapstructure:"storage"    yaml:"storage"`
	API        APIConfig        `mapstructure:"api"        yaml:"api"`
	Logging    LoggingConfig    `mapstructure:"logging"    yaml:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"    yaml:"metrics"`
}

// ResolverConfig controls outlet-name → domain resolution.
type ResolverConfig struct {
	ProbeTimeout  time.Duration `mapstructure:"probe_timeout"  yaml:"probe_timeout"`
	MaxProbes     int           `mapstructure:"max_probes"     yaml:"max_probes"`
	Budget        time.Duration `mapstructure:"budget"         yaml:"budget"`
	TLDs          []string      `mapstructure:"tlds"           yaml:"tlds"`
	SearchEngines []string      `mapstructure:"search_engines" yaml:"search_engines"`
}

// EngineConfig controls the crawl scheduler and job lifecycle.
type EngineConfig struct {
	Concurrency      int           `mapstructure:"concurrency"        yaml:"concurrency"`
	PerHostLimit     int           `mapstructure:"per_host_limit"     yaml:"per_host_limit"`
	MaxDepth         int           `mapstructure:"max_depth"          yaml:"max_depth"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"    yaml:"request_timeout"`
	JobBudget        time.Duration `mapstructure:"job_budget"         yaml:"job_budget"`
	PolitenessDelay  time.Duration `mapstructure:"politeness_delay"   yaml:"politeness_delay"`
	RespectRobotsTxt bool          `mapstructure:"respect_robots_txt" yaml:"respect_robots_txt"`
	MaxRetries       int           `mapstructure:"max_retries"        yaml:"max_retries"`
	RetryDelay       time.Duration `mapstructure:"retry_delay"        yaml:"retry_delay"`
	MinProfiles      int           `mapstructure:"min_profiles"       yaml:"min_profiles"`
	MaxPages         int           `mapstructure:"max_pages"          yaml:"max_pages"`
	BatchSize        int           `mapstructure:"batch_size"         yaml:"batch_size"`
	SeedPaths        []string      `mapstructure:"seed_paths"         yaml:"seed_paths"`
	UserAgents       []string      `mapstructure:"user_agents"        yaml:"user_agents"`
}

// FetcherConfig controls the page fetcher.
type FetcherConfig struct {
	Type            string        `mapstructure:"type"              yaml:"type"` // http or browser
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
}

// CheckpointConfig controls durable partial-result snapshots.
type CheckpointConfig struct {
	Dir      string `mapstructure:"dir"      yaml:"dir"`
	FileName string `mapstructure:"filename" yaml:"filename"`
}

// StorageConfig controls result export and archival.
type StorageConfig struct {
	OutputDir       string `mapstructure:"output_dir"       yaml:"output_dir"`
	MongoURI        string `mapstructure:"mongo_uri"        yaml:"mongo_uri"`
	MongoDatabase   string `mapstructure:"mongo_database"   yaml:"mongo_database"`
	MongoCollection string `mapstructure:"mongo_collection" yaml:"mongo_collection"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Port           int           `mapstructure:"port"            yaml:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Resolver: ResolverConfig{
			ProbeTimeout: 5 * time.Second,
			MaxProbes:    24,
			Budget:       20 * time.Second,
			TLDs:         []string{".com", ".co.uk", ".org", ".in", ".net", ".news", ".co"},
			SearchEngines: []string{
				"https://duckduckgo.com/html/?q=",
				"https://www.bing.com/search?q=",
			},
		},
		Engine: EngineConfig{
			Concurrency:      8,
			PerHostLimit:     3,
			MaxDepth:         3,
			RequestTimeout:   8 * time.Second,
			JobBudget:        40 * time.Second,
			PolitenessDelay:  200 * time.Millisecond,
			RespectRobotsTxt: true,
			MaxRetries:       2,
			RetryDelay:       500 * time.Millisecond,
			MinProfiles:      30,
			MaxPages:         800,
			BatchSize:        5,
			SeedPaths: []string{
				"/news", "/latest", "/world", "/articles", "/section",
				"/topics", "/author", "/authors", "/contributors", "/staff",
			},
			UserAgents: []string{
				"Mozilla/5.0 (NewsTraceBot/1.0)",
			},
		},
		Fetcher: FetcherConfig{
			Type:            "http",
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    100,
		},
		Checkpoint: CheckpointConfig{
			Dir:      ".",
			FileName: "data.json",
		},
		Storage: StorageConfig{
			OutputDir:       "./output",
			MongoDatabase:   "newstrace",
			MongoCollection: "results",
		},
		API: APIConfig{
			Port:           5000,
			RequestTimeout: 45 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
