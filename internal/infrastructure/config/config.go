package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Admin     AdminConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Scheduler SchedulerConfig
	Swagger   SwaggerConfig
	Telemetry TelemetryConfig
	Metrics   MetricsConfig
	Storage   StorageConfig
	Cache     CacheConfig
	Steam     SteamConfig
	AI        AIConfig
	Footprint FootprintConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name     string
	Env      string
	Port     string
	Timezone string // IANA zone used to render dates such as Steam last-played
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int  // in minutes
	ConnMaxIdleTime int  // in minutes
	AutoMigrate     bool // apply schema migrations on startup
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret                string
	AccessTokenExpiration time.Duration
	Issuer                string
}

// AdminConfig holds the single administrator account
type AdminConfig struct {
	Username     string
	PasswordHash string // bcrypt hash
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout           time.Duration
	WriteTimeout          time.Duration
	IdleTimeout           time.Duration
	MaxHeaderBytes        int
	MaxBodySize           int64
	RateLimitEnabled      bool
	RateLimitRequests     int
	RateLimitWindow       time.Duration
	AuthRateLimitEnabled  bool          // Enable stricter rate limiting for the login endpoint
	AuthRateLimitRequests int           // Max login attempts (default: 5)
	AuthRateLimitWindow   time.Duration // Login rate limit window (default: 1 minute)
	CORSAllowOrigins      []string
	CORSAllowMethods      []string
	CORSAllowHeaders      []string
	TrustedProxies        []string
}

// SchedulerConfig holds background job configuration
type SchedulerConfig struct {
	Enabled             bool
	MaxConcurrentJobs   int
	JobTimeout          time.Duration
	RetryAttempts       int
	RetryDelay          time.Duration
	SteamRefreshEnabled bool
	SummarySyncInterval time.Duration // 0 disables the periodic summary sync
}

// SwaggerConfig holds Swagger documentation endpoint configuration
type SwaggerConfig struct {
	Enabled     bool     // Whether to enable Swagger endpoint
	RequireAuth bool     // Require authentication to access Swagger
	AllowedIPs  []string // IP whitelist (empty = allow all)
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	// Database tracing options
	DBTraceEnabled    bool          // Enable database query tracing (otelgorm)
	DBLogFullSQL      bool          // Log full SQL statements (dev only)
	DBSlowQueryThresh time.Duration // Slow query threshold for warnings (default: 200ms)
	// Continuous profiling
	ProfilingEnabled  bool
	PyroscopeEndpoint string
}

// MetricsConfig holds the Prometheus scrape endpoint settings
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// StorageConfig holds S3-compatible object storage settings
type StorageConfig struct {
	Enabled       bool
	Endpoint      string
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	UsePathStyle  bool
	PublicURL     string // Base URL used to build public object links
	MaxUploadSize int64
}

// Cache backends for the Steam library
const (
	CacheBackendDatabase = "database"
	CacheBackendRedis    = "redis"
	CacheBackendMemory   = "memory"
)

// CacheConfig selects where the Steam library is cached
type CacheConfig struct {
	Backend   string
	KeyPrefix string
}

// SteamConfig holds the Steam widget settings
type SteamConfig struct {
	APIKey              string
	SteamID             string
	RefreshIntervalHrs  int      // parsed from steam.refresh_interval, defaults to 24
	HiddenGames         []string // parsed from the steam.hidden_games JSON array
	Language            string   // store language for localized names
	LocalizeConcurrency int
	RequestTimeout      time.Duration
}

// RefreshInterval returns the cache TTL
func (s SteamConfig) RefreshInterval() time.Duration {
	return time.Duration(s.RefreshIntervalHrs) * time.Hour
}

// ProviderConfig holds the credentials of one AI vendor
type ProviderConfig struct {
	APIKey    string
	ModelName string
	BaseURL   string
}

// FunctionConfig overrides the provider and prompt for one AI feature
type FunctionConfig struct {
	AIType       string
	SystemPrompt string
}

// AssistantConfig is the conversation widget configuration
type AssistantConfig struct {
	AssistantIcon    string
	ConversationIcon string
	AssistantName    string
	InputPlaceholder string
	DialogType       string
	ButtonPosition   string
	Suggestions      []string
}

// SummaryWidgetConfig is the summary box configuration
type SummaryWidgetConfig struct {
	Logo         string
	SummaryTitle string
	GPTName      string
	TypeSpeed    int
	DarkSelector string
	ThemeName    string
	Theme        map[string]string
	Typewriter   bool
}

// AIConfig holds all AI writing suite settings
type AIConfig struct {
	AIType              string // global provider key
	RequestTimeout      time.Duration
	Providers           map[string]ProviderConfig // keyed by provider type, e.g. "openAi"
	Functions           map[string]FunctionConfig // keyed by function, e.g. "summary"
	PolishMaxLength     int
	TagMaxCount         int
	SummaryAutoGenerate bool
	SyncConcurrency     int
	Assistant           AssistantConfig
	SummaryWidget       SummaryWidgetConfig
}

// FootprintConfig holds the map widget and geocoding settings
type FootprintConfig struct {
	Title       string
	GaoDeKey    string // browser JS key, public
	GaoDeWebKey string // web service key used for geocoding, never exposed
	Describe    string
	HSLA        string
	LogoName    string
	MapStyle    string
	GeocodeURL  string
}

// providerKeys maps lowercase viper keys to provider type names
var providerKeys = map[string]string{
	"openai":      "openAi",
	"zhipuai":     "zhipuAi",
	"dashscope":   "dashScope",
	"codesphere":  "codesphere",
	"siliconflow": "siliconFlow",
	"gemini":      "gemini",
}

var functionKeys = []string{"summary", "tags", "conversation", "polish", "generate", "title"}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with HALO_ prefix (e.g., HALO_DATABASE_PASSWORD)
// 2. .env file values (loaded into the environment without overriding it)
// 3. config.toml
// 4. Built-in defaults
func Load() (*Config, error) {
	loadDotEnv()

	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("HALO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:     v.GetString("app.name"),
			Env:      v.GetString("app.env"),
			Port:     v.GetString("app.port"),
			Timezone: v.GetString("app.timezone"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			SQLitePath:      v.GetString("database.sqlite_path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:                v.GetString("jwt.secret"),
			AccessTokenExpiration: v.GetDuration("jwt.access_token_expiration"),
			Issuer:                v.GetString("jwt.issuer"),
		},
		Admin: AdminConfig{
			Username:     v.GetString("admin.username"),
			PasswordHash: v.GetString("admin.password_hash"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:           v.GetDuration("http.read_timeout"),
			WriteTimeout:          v.GetDuration("http.write_timeout"),
			IdleTimeout:           v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:        v.GetInt("http.max_header_bytes"),
			MaxBodySize:           v.GetInt64("http.max_body_size"),
			RateLimitEnabled:      v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests:     v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:       v.GetDuration("http.rate_limit_window"),
			AuthRateLimitEnabled:  v.GetBool("http.auth_rate_limit_enabled"),
			AuthRateLimitRequests: v.GetInt("http.auth_rate_limit_requests"),
			AuthRateLimitWindow:   v.GetDuration("http.auth_rate_limit_window"),
			CORSAllowOrigins:      v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:      v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:      v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:        v.GetStringSlice("http.trusted_proxies"),
		},
		Scheduler: SchedulerConfig{
			Enabled:             v.GetBool("scheduler.enabled"),
			MaxConcurrentJobs:   v.GetInt("scheduler.max_concurrent_jobs"),
			JobTimeout:          v.GetDuration("scheduler.job_timeout"),
			RetryAttempts:       v.GetInt("scheduler.retry_attempts"),
			RetryDelay:          v.GetDuration("scheduler.retry_delay"),
			SteamRefreshEnabled: v.GetBool("scheduler.steam_refresh_enabled"),
			SummarySyncInterval: v.GetDuration("scheduler.summary_sync_interval"),
		},
		Swagger: SwaggerConfig{
			Enabled:     v.GetBool("swagger.enabled"),
			RequireAuth: v.GetBool("swagger.require_auth"),
			AllowedIPs:  v.GetStringSlice("swagger.allowed_ips"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
			ProfilingEnabled:  v.GetBool("telemetry.profiling_enabled"),
			PyroscopeEndpoint: v.GetString("telemetry.pyroscope_endpoint"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("metrics.enabled"),
			Path:    v.GetString("metrics.path"),
		},
		Storage: StorageConfig{
			Enabled:       v.GetBool("storage.enabled"),
			Endpoint:      v.GetString("storage.endpoint"),
			Region:        v.GetString("storage.region"),
			Bucket:        v.GetString("storage.bucket"),
			AccessKey:     v.GetString("storage.access_key"),
			SecretKey:     v.GetString("storage.secret_key"),
			UseSSL:        v.GetBool("storage.use_ssl"),
			UsePathStyle:  v.GetBool("storage.use_path_style"),
			PublicURL:     v.GetString("storage.public_url"),
			MaxUploadSize: v.GetInt64("storage.max_upload_size"),
		},
		Cache: CacheConfig{
			Backend:   v.GetString("cache.backend"),
			KeyPrefix: v.GetString("cache.key_prefix"),
		},
		Steam: SteamConfig{
			APIKey:              v.GetString("steam.api_key"),
			SteamID:             v.GetString("steam.steam_id"),
			RefreshIntervalHrs:  ParseRefreshInterval(v.GetString("steam.refresh_interval")),
			HiddenGames:         ParseHiddenGames(v.GetString("steam.hidden_games")),
			Language:            v.GetString("steam.language"),
			LocalizeConcurrency: v.GetInt("steam.localize_concurrency"),
			RequestTimeout:      v.GetDuration("steam.request_timeout"),
		},
		AI: AIConfig{
			AIType:              v.GetString("ai.ai_type"),
			RequestTimeout:      v.GetDuration("ai.request_timeout"),
			Providers:           make(map[string]ProviderConfig),
			Functions:           make(map[string]FunctionConfig),
			PolishMaxLength:     v.GetInt("ai.polish.max_length"),
			TagMaxCount:         v.GetInt("ai.tags.max_count"),
			SummaryAutoGenerate: v.GetBool("ai.summary.auto_generate"),
			SyncConcurrency:     v.GetInt("ai.summary.sync_concurrency"),
			Assistant: AssistantConfig{
				AssistantIcon:    v.GetString("ai.assistant.assistant_icon"),
				ConversationIcon: v.GetString("ai.assistant.conversation_icon"),
				AssistantName:    v.GetString("ai.assistant.assistant_name"),
				InputPlaceholder: v.GetString("ai.assistant.input_placeholder"),
				DialogType:       v.GetString("ai.assistant.dialog_type"),
				ButtonPosition:   v.GetString("ai.assistant.button_position"),
				Suggestions:      v.GetStringSlice("ai.assistant.suggestions"),
			},
			SummaryWidget: SummaryWidgetConfig{
				Logo:         v.GetString("ai.summary_widget.logo"),
				SummaryTitle: v.GetString("ai.summary_widget.summary_title"),
				GPTName:      v.GetString("ai.summary_widget.gpt_name"),
				TypeSpeed:    v.GetInt("ai.summary_widget.type_speed"),
				DarkSelector: v.GetString("ai.summary_widget.dark_selector"),
				ThemeName:    v.GetString("ai.summary_widget.theme_name"),
				Theme:        v.GetStringMapString("ai.summary_widget.theme"),
				Typewriter:   !v.IsSet("ai.summary_widget.typewriter") || v.GetBool("ai.summary_widget.typewriter"),
			},
		},
		Footprint: FootprintConfig{
			Title:       v.GetString("footprint.title"),
			GaoDeKey:    v.GetString("footprint.gaode_key"),
			GaoDeWebKey: v.GetString("footprint.gaode_web_key"),
			Describe:    v.GetString("footprint.describe"),
			HSLA:        v.GetString("footprint.hsla"),
			LogoName:    v.GetString("footprint.logo_name"),
			MapStyle:    v.GetString("footprint.map_style"),
			GeocodeURL:  v.GetString("footprint.geocode_url"),
		},
	}

	for key, providerType := range providerKeys {
		prefix := "ai.providers." + key + "."
		cfg.AI.Providers[providerType] = ProviderConfig{
			APIKey:    v.GetString(prefix + "api_key"),
			ModelName: v.GetString(prefix + "model_name"),
			BaseURL:   v.GetString(prefix + "base_url"),
		}
	}
	for _, fn := range functionKeys {
		prefix := "ai.functions." + fn + "."
		cfg.AI.Functions[fn] = FunctionConfig{
			AIType:       v.GetString(prefix + "ai_type"),
			SystemPrompt: v.GetString(prefix + "system_prompt"),
		}
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadDotEnv loads the first .env file found. Existing variables win.
func loadDotEnv() {
	for _, path := range []string{".env", "./backend/.env", "/app/.env"} {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// ParseRefreshInterval parses the Steam refresh interval in hours.
// Empty, unparsable and non-positive values fall back to 24.
func ParseRefreshInterval(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 24
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours <= 0 {
		return 24
	}
	return hours
}

// ParseHiddenGames parses a JSON array of app ids. Numbers and strings
// are both accepted; anything unparsable yields an empty list.
func ParseHiddenGames(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}
	var items []interface{}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			out = append(out, v)
		case float64:
			out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
		}
	}
	return out
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "halo-extras"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.App.Timezone == "" {
		cfg.App.Timezone = "Local"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "halo_extras"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "halo-extras.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 12 * time.Hour
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "halo-extras"
	}
	if cfg.Admin.Username == "" {
		cfg.Admin.Username = "admin"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// AI generations and the conversation stream outlive typical API calls
		cfg.HTTP.WriteTimeout = 5 * time.Minute
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if cfg.HTTP.AuthRateLimitRequests == 0 {
		cfg.HTTP.AuthRateLimitRequests = 5
	}
	if cfg.HTTP.AuthRateLimitWindow == 0 {
		cfg.HTTP.AuthRateLimitWindow = time.Minute
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Scheduler.MaxConcurrentJobs == 0 {
		cfg.Scheduler.MaxConcurrentJobs = 3
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 30 * time.Minute
	}
	if cfg.Scheduler.RetryAttempts == 0 {
		cfg.Scheduler.RetryAttempts = 3
	}
	if cfg.Scheduler.RetryDelay == 0 {
		cfg.Scheduler.RetryDelay = 5 * time.Minute
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Telemetry.PyroscopeEndpoint == "" {
		cfg.Telemetry.PyroscopeEndpoint = "http://localhost:4040"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.MaxUploadSize == 0 {
		cfg.Storage.MaxUploadSize = 5 << 20 // 5MB
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = CacheBackendDatabase
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = "halo-extras:"
	}

	if cfg.Steam.RefreshIntervalHrs == 0 {
		cfg.Steam.RefreshIntervalHrs = 24
	}
	if cfg.Steam.HiddenGames == nil {
		cfg.Steam.HiddenGames = []string{}
	}
	if cfg.Steam.Language == "" {
		cfg.Steam.Language = "schinese"
	}
	if cfg.Steam.LocalizeConcurrency == 0 {
		cfg.Steam.LocalizeConcurrency = 10
	}
	if cfg.Steam.RequestTimeout == 0 {
		cfg.Steam.RequestTimeout = 30 * time.Second
	}

	applyAIDefaults(&cfg.AI)

	if cfg.Footprint.Title == "" {
		cfg.Footprint.Title = "Handsome足迹"
	}
	if cfg.Footprint.Describe == "" {
		cfg.Footprint.Describe = "每一处足迹都充满了故事，那是对人生的思考和无限的风光。"
	}
	if cfg.Footprint.HSLA == "" {
		cfg.Footprint.HSLA = "109,42%,60%"
	}
	if cfg.Footprint.GeocodeURL == "" {
		cfg.Footprint.GeocodeURL = "https://restapi.amap.com/v3/geocode/geo"
	}
}

func applyAIDefaults(ai *AIConfig) {
	if ai.AIType == "" {
		ai.AIType = "openAi"
	}
	if ai.RequestTimeout == 0 {
		ai.RequestTimeout = 120 * time.Second
	}
	if ai.Providers == nil {
		ai.Providers = make(map[string]ProviderConfig)
	}
	if ai.Functions == nil {
		ai.Functions = make(map[string]FunctionConfig)
	}
	if ai.PolishMaxLength == 0 {
		ai.PolishMaxLength = 2000
	}
	if ai.TagMaxCount == 0 {
		ai.TagMaxCount = 6
	}
	if ai.SyncConcurrency == 0 {
		ai.SyncConcurrency = 3
	}

	a := &ai.Assistant
	if a.AssistantIcon == "" {
		a.AssistantIcon = "/plugins/summaraidGPT/assets/static/icon.svg"
	}
	if a.ConversationIcon == "" {
		a.ConversationIcon = "/plugins/summaraidGPT/assets/static/icon.svg"
	}
	if a.AssistantName == "" {
		a.AssistantName = "智阅GPT助手"
	}
	if a.InputPlaceholder == "" {
		a.InputPlaceholder = "请输入您想了解的问题..."
	}
	if a.DialogType == "" {
		a.DialogType = "overlay"
	}
	if a.ButtonPosition == "" {
		a.ButtonPosition = "right"
	}
	if len(a.Suggestions) == 0 {
		a.Suggestions = []string{"你是谁?", "如何设计网站封面?", "如何学习编程?", "讲讲AI的未来发展", "什么是人工智能"}
	}

	w := &ai.SummaryWidget
	if w.Logo == "" {
		w.Logo = "icon.svg"
	}
	if w.SummaryTitle == "" {
		w.SummaryTitle = "文章摘要"
	}
	if w.GPTName == "" {
		w.GPTName = "智阅GPT"
	}
	if w.TypeSpeed == 0 {
		w.TypeSpeed = 20
	}
	if w.ThemeName == "" {
		w.ThemeName = "custom"
	}
	if w.Theme == nil {
		w.Theme = map[string]string{}
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	// Validate connection pool settings
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}

	switch c.Cache.Backend {
	case CacheBackendDatabase, CacheBackendRedis, CacheBackendMemory:
	default:
		return fmt.Errorf("cache.backend must be one of database, redis, memory, got %q", c.Cache.Backend)
	}

	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when storage is enabled")
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Admin.PasswordHash == "" {
			return fmt.Errorf("admin.password_hash is required in production")
		}
		if c.Database.Driver == "postgres" && c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Swagger.Enabled {
			if !c.Swagger.RequireAuth && len(c.Swagger.AllowedIPs) == 0 {
				return fmt.Errorf("swagger endpoint must be disabled, require authentication, or have IP restriction in production")
			}
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production to prevent sensitive data exposure in traces")
		}
	}

	// Validate telemetry configuration (all environments)
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("app.timezone is invalid: %w", err)
	}

	return nil
}

// Location returns the configured time zone
func (a AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the Redis host:port address
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
