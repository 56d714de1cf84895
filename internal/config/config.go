package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/samvad-hq/samvad-news-search/internal/dates"
	"github.com/samvad-hq/samvad-news-search/internal/domain"
)

// Config holds the application configuration loaded from files, environment
// variables and command-line flags.
type Config struct {
	AppName              string        `mapstructure:"app_name"`
	Env                  string        `mapstructure:"app_env"`
	LogLevel             string        `mapstructure:"log_level"`
	SearchesFile         string        `mapstructure:"searches_file"`
	PublishersFile       string        `mapstructure:"publishers_file"`
	CrawlIntervalSeconds int64         `mapstructure:"crawl_interval"`
	CrawlInterval        time.Duration `mapstructure:"-"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	SQLitePath             string        `mapstructure:"sqlite_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`

	SearchEndpoint        string        `mapstructure:"search_endpoint"`
	UserAgent             string        `mapstructure:"user_agent"`
	AcceptLanguage        string        `mapstructure:"accept_language"`
	Referer               string        `mapstructure:"referer"`
	RequestTimeoutSeconds int64         `mapstructure:"request_timeout_seconds"`
	RequestTimeout        time.Duration `mapstructure:"-"`
	RequestRetries        int           `mapstructure:"request_retries"`
	DiagnosticPath        string        `mapstructure:"diagnostic_path"`

	OriginFetch          bool          `mapstructure:"origin_fetch"`
	OriginTimeoutSeconds int64         `mapstructure:"origin_timeout_seconds"`
	OriginTimeout        time.Duration `mapstructure:"-"`
	OriginRPS            float64       `mapstructure:"origin_rps"`

	OutputDir string `mapstructure:"output_dir"`

	Keyword    string `mapstructure:"keyword"`
	StartDate  string `mapstructure:"start_date"`
	EndDate    string `mapstructure:"end_date"`
	Sort       string `mapstructure:"sort"`
	MaxPages   int    `mapstructure:"max_pages"`
	DelayMinMS int64  `mapstructure:"delay_min_ms"`
	DelayMaxMS int64  `mapstructure:"delay_max_ms"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
}

// queryFlags are the keys the one-shot CLI exposes as flags.
var queryFlags = []struct {
	key   string
	usage string
}{
	{"keyword", "search keyword (quotes request an exact phrase)"},
	{"start_date", "first day of the range, YYYY.MM.DD"},
	{"end_date", "last day of the range, YYYY.MM.DD"},
	{"sort", "relevance, newest or oldest"},
	{"max_pages", "maximum number of listing pages"},
	{"delay_min_ms", "minimum delay between pages in milliseconds"},
	{"delay_max_ms", "maximum delay between pages in milliseconds"},
	{"format", "export format: xlsx, csv or markdown"},
	{"output", "output file path (defaults to a name under output_dir)"},
	{"origin_fetch", "fetch article pages when the listing shows no date"},
	{"diagnostic_path", "where to save the raw response of an empty page"},
	{"log_level", "debug, info, warn or error"},
}

// RegisterFlags declares the query flags on fs with the configured defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	v := viper.New()
	setDefaults(v)
	for _, f := range queryFlags {
		name := strings.ReplaceAll(f.key, "_", "-")
		switch def := v.Get(f.key).(type) {
		case int:
			fs.Int(name, def, f.usage)
		case int64:
			fs.Int64(name, def, f.usage)
		case bool:
			fs.Bool(name, def, f.usage)
		default:
			fs.String(name, fmt.Sprint(def), f.usage)
		}
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "samvad-news-search")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("searches_file", "./configs/searches.yaml")
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("crawl_interval", 3600) // seconds
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/seen.db")
	v.SetDefault("sqlite_path", "./data/seen.sqlite")
	v.SetDefault("storage_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.SetDefault("search_endpoint", "https://search.naver.com/search.naver")
	v.SetDefault("user_agent", "")
	v.SetDefault("accept_language", "")
	v.SetDefault("referer", "")
	v.SetDefault("request_timeout_seconds", 15)
	v.SetDefault("request_retries", 2)
	v.SetDefault("diagnostic_path", "./data/debug_listing.html")

	v.SetDefault("origin_fetch", true)
	v.SetDefault("origin_timeout_seconds", 8)
	v.SetDefault("origin_rps", 2.0)
	v.SetDefault("output_dir", "./output")

	v.SetDefault("keyword", `"여의시스템"`)
	v.SetDefault("start_date", "2024.01.01")
	v.SetDefault("end_date", "2024.12.31")
	v.SetDefault("sort", "oldest")
	v.SetDefault("max_pages", 200)
	v.SetDefault("delay_min_ms", int64(1000))
	v.SetDefault("delay_max_ms", int64(2000))
	v.SetDefault("format", "xlsx")
	v.SetDefault("output", "")
}

// Load reads configuration from configs/.env, environment variables and,
// when fs is non-nil, the flags declared by RegisterFlags.
func Load(fs *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if fs != nil {
		for _, f := range queryFlags {
			flag := fs.Lookup(strings.ReplaceAll(f.key, "_", "-"))
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(f.key, flag); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", flag.Name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CrawlIntervalSeconds <= 0 {
		return nil, fmt.Errorf("invalid crawl_interval (must be positive seconds)")
	}
	cfg.CrawlInterval = time.Duration(cfg.CrawlIntervalSeconds) * time.Second

	if cfg.StorageTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	if cfg.RequestTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid request_timeout_seconds (must be positive seconds)")
	}
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if cfg.RequestRetries < 0 {
		return nil, fmt.Errorf("invalid request_retries (must not be negative)")
	}
	if cfg.OriginTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid origin_timeout_seconds (must be positive seconds)")
	}
	cfg.OriginTimeout = time.Duration(cfg.OriginTimeoutSeconds) * time.Second

	return &cfg, nil
}

// Query converts the query keys into a validated search query.
func (c *Config) Query() (domain.SearchQuery, error) {
	start, err := domain.ParseDate(c.StartDate, dates.KST)
	if err != nil {
		return domain.SearchQuery{}, fmt.Errorf("start_date: %w", err)
	}
	end, err := domain.ParseDate(c.EndDate, dates.KST)
	if err != nil {
		return domain.SearchQuery{}, fmt.Errorf("end_date: %w", err)
	}
	sort, err := domain.ParseSortMode(c.Sort)
	if err != nil {
		return domain.SearchQuery{}, err
	}
	q := domain.SearchQuery{
		Keyword:   c.Keyword,
		StartDate: start,
		EndDate:   end,
		Sort:      sort,
		MaxPages:  c.MaxPages,
		DelayMin:  time.Duration(c.DelayMinMS) * time.Millisecond,
		DelayMax:  time.Duration(c.DelayMaxMS) * time.Millisecond,
	}
	if err := q.Validate(); err != nil {
		return domain.SearchQuery{}, err
	}
	return q, nil
}

// ListingHeaders returns the configured header overrides, empty values omitted.
func (c *Config) ListingHeaders() map[string]string {
	out := map[string]string{}
	if c.UserAgent != "" {
		out["User-Agent"] = c.UserAgent
	}
	if c.AcceptLanguage != "" {
		out["Accept-Language"] = c.AcceptLanguage
	}
	if c.Referer != "" {
		out["Referer"] = c.Referer
	}
	return out
}
