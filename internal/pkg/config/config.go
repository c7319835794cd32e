package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	TenantSourceStatic   = "static"
	TenantSourcePostgres = "postgres"

	EngineKeyword  = "keyword"
	EngineSemantic = "semantic"
)

// Config holds all application configuration.
type Config struct {
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
	ServerAddr        string `env:"SERVER_ADDR" envDefault:":8000"`
	AdminAddr         string `env:"ADMIN_ADDR" envDefault:":9091"`
	AdminJWTSecret    string `env:"ADMIN_JWT_SECRET"`
	DocumentsBasePath string `env:"DOCUMENTS_BASE_PATH" envDefault:"tenant_files"`
	APIKeyHeader      string `env:"API_KEY_HEADER" envDefault:"X-API-KEY"`

	// Credential to tenant ID, and tenant ID to display name.
	TenantAPIKeys      map[string]string `env:"TENANT_API_KEYS" envDefault:"tenantA_key:tenantA,tenantB_key:tenantB"`
	TenantDisplayNames map[string]string `env:"TENANT_DISPLAY_NAMES" envDefault:"tenantA:Tenant A,tenantB:Tenant B"`
	TenantsFile        string            `env:"TENANTS_FILE"`
	TenantSource       string            `env:"TENANT_SOURCE" envDefault:"static"`
	AuthExemptPaths    []string          `env:"AUTH_EXEMPT_PATHS" envDefault:"/,/docs,/openapi.json,/redoc,/health"`

	SearchEngine          string  `env:"SEARCH_ENGINE" envDefault:"keyword"`
	SemanticMinSimilarity float64 `env:"SEMANTIC_MIN_SIMILARITY" envDefault:"0.1"`
	LoadConcurrency       int     `env:"LOAD_CONCURRENCY" envDefault:"4"`

	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	MaxRequestBytes int64         `env:"MAX_REQUEST_BYTES" envDefault:"65536"`
	RateLimitRPS    float64       `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst  int           `env:"RATE_LIMIT_BURST" envDefault:"40"`

	RedisAddr      string        `env:"REDIS_ADDR"`
	AnswerCacheTTL time.Duration `env:"ANSWER_CACHE_TTL" envDefault:"5m"`
	PostgresURL    string        `env:"POSTGRES_URL"`

	AuditStream    string   `env:"AUDIT_STREAM" envDefault:"docqa:audit"`
	AuditDLQStream string   `env:"AUDIT_DLQ_STREAM" envDefault:"docqa:audit:dlq"`
	AuditGroup     string   `env:"AUDIT_CONSUMER_GROUP" envDefault:"audit-writers"`
	AuditRedact    []string `env:"AUDIT_REDACT" envDefault:"email,phone,card"`

	WALPath        string `env:"WAL_PATH" envDefault:"data/wal"`
	WALSegmentSize int64  `env:"WAL_SEGMENT_SIZE_BYTES" envDefault:"10485760"`   // 10MB
	WALMaxDiskSize int64  `env:"WAL_MAX_DISK_SIZE_BYTES" envDefault:"104857600"` // 100MB

	ConsumerBatchSize    int           `env:"CONSUMER_BATCH_SIZE" envDefault:"500"`
	ConsumerRetries      int           `env:"CONSUMER_RETRIES" envDefault:"3"`
	ConsumerRetryBackoff time.Duration `env:"CONSUMER_RETRY_BACKOFF" envDefault:"1s"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the combinations env tags cannot express.
func (c *Config) Validate() error {
	switch c.TenantSource {
	case TenantSourceStatic:
	case TenantSourcePostgres:
		if c.PostgresURL == "" {
			return fmt.Errorf("POSTGRES_URL is required when TENANT_SOURCE=%s", TenantSourcePostgres)
		}
	default:
		return fmt.Errorf("unknown TENANT_SOURCE %q", c.TenantSource)
	}

	switch c.SearchEngine {
	case EngineKeyword, EngineSemantic:
	default:
		return fmt.Errorf("unknown SEARCH_ENGINE %q", c.SearchEngine)
	}

	if c.APIKeyHeader == "" {
		return fmt.Errorf("API_KEY_HEADER must not be empty")
	}
	if c.LoadConcurrency < 1 {
		c.LoadConcurrency = 1
	}
	return nil
}
