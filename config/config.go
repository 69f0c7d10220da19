package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Qdrant        QdrantConfig
	Redis         RedisConfig
	AuditDatabase *DatabaseConfig // Optional: when nil, turn telemetry is logged only.
	Providers     ProvidersConfig
	Retrieval     RetrievalConfig
	Generation    GenerationConfig
	Tools         ToolsConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// QdrantConfig holds vector index connection configuration
type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
}

// RedisConfig holds the conversation history store configuration.
// When Addr is empty the in-memory store is used instead.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// DatabaseConfig holds PostgreSQL configuration for turn telemetry.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence.
type DatabaseConfig struct {
	ConnectionString string
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// ProvidersConfig holds model provider configurations
type ProvidersConfig struct {
	GitHubModels GitHubModelsConfig
	Embeddings   EmbeddingsConfig
}

// GitHubModelsConfig holds the generation provider configuration.
// GitHub Models exposes an OpenAI-compatible API.
type GitHubModelsConfig struct {
	Token      string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// EmbeddingsConfig holds the embedding provider configuration
type EmbeddingsConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// RetrievalConfig controls the knowledge base retrieval stage
type RetrievalConfig struct {
	TopK          int
	MinScore      float64
	Oversample    int // multiplier on TopK for the raw index query
	HistoryWindow int // exchanges folded into the embedded query text
}

// GenerationConfig controls the streaming generation stage
type GenerationConfig struct {
	Model         string
	Temperature   float64
	MaxTokens     int
	PromptBudget  int // character budget for the assembled prompt
	MaxToolRounds int
	MaxHistory    int // turns kept per conversation
}

// ToolsConfig controls tool execution
type ToolsConfig struct {
	Timeout time.Duration
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or console
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 5*time.Minute),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Qdrant: QdrantConfig{
			URL:        getEnv("QDRANT_URL", ""),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "mediblaze-bot"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      getEnvAsDuration("REDIS_SESSION_TTL", 2*time.Hour),
		},
		AuditDatabase: loadAuditDatabaseConfig(),
		Providers: ProvidersConfig{
			GitHubModels: GitHubModelsConfig{
				Token:      getEnv("GITHUB_TOKEN", ""),
				BaseURL:    getEnv("GITHUB_MODELS_BASE_URL", "https://models.inference.ai.azure.com"),
				Timeout:    getEnvAsDuration("GITHUB_MODELS_TIMEOUT", 120*time.Second),
				MaxRetries: getEnvAsInt("GITHUB_MODELS_MAX_RETRIES", 3),
				RetryDelay: getEnvAsDuration("GITHUB_MODELS_RETRY_DELAY", time.Second),
			},
			Embeddings: EmbeddingsConfig{
				BaseURL:    getEnv("EMBEDDINGS_BASE_URL", "https://models.inference.ai.azure.com"),
				APIKey:     getEnv("EMBEDDINGS_API_KEY", ""),
				Model:      getEnv("EMBEDDINGS_MODEL", "multilingual-e5-large"),
				Timeout:    getEnvAsDuration("EMBEDDINGS_TIMEOUT", 30*time.Second),
				MaxRetries: getEnvAsInt("EMBEDDINGS_MAX_RETRIES", 2),
			},
		},
		Retrieval: RetrievalConfig{
			TopK:          getEnvAsInt("RETRIEVAL_TOP_K", 7),
			MinScore:      getEnvAsFloat("RETRIEVAL_MIN_SCORE", 0.5),
			Oversample:    getEnvAsInt("RETRIEVAL_OVERSAMPLE", 3),
			HistoryWindow: getEnvAsInt("RETRIEVAL_HISTORY_WINDOW", 2),
		},
		Generation: GenerationConfig{
			Model:         getEnv("GENERATION_MODEL", "gpt-4o-mini"),
			Temperature:   getEnvAsFloat("GENERATION_TEMPERATURE", 0.3),
			MaxTokens:     getEnvAsInt("GENERATION_MAX_TOKENS", 1200),
			PromptBudget:  getEnvAsInt("GENERATION_PROMPT_BUDGET", 24000),
			MaxToolRounds: getEnvAsInt("GENERATION_MAX_TOOL_ROUNDS", 5),
			MaxHistory:    getEnvAsInt("GENERATION_MAX_HISTORY", 10),
		},
		Tools: ToolsConfig{
			Timeout: getEnvAsDuration("TOOL_TIMEOUT", 15*time.Second),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval top_k must be positive")
	}
	if c.Retrieval.Oversample < 1 {
		return fmt.Errorf("retrieval oversample must be at least 1")
	}
	if c.Retrieval.MinScore < 0 || c.Retrieval.MinScore > 1 {
		return fmt.Errorf("retrieval min_score must be in [0,1]")
	}
	if c.Generation.PromptBudget <= 0 {
		return fmt.Errorf("prompt budget must be positive")
	}
	if c.Generation.MaxToolRounds <= 0 {
		return fmt.Errorf("max tool rounds must be positive")
	}

	// Provider validation (required in production)
	if c.IsProduction() {
		if c.Providers.GitHubModels.Token == "" {
			return fmt.Errorf("GITHUB_TOKEN is required in production")
		}
		if c.Qdrant.URL == "" {
			return fmt.Errorf("QDRANT_URL is required in production")
		}
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// DSN returns the PostgreSQL data source name
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// LogString returns a loggable description without credentials
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// loadAuditDatabaseConfig loads the telemetry DB config from DATABASE_URL
// or DB_* env vars. Returns nil when no database is configured.
func loadAuditDatabaseConfig() *DatabaseConfig {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL != "" {
		return &DatabaseConfig{
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		}
	}
	if getEnv("DB_HOST", "") == "" {
		return nil
	}
	return &DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "mediblaze"),
		Password:        getEnv("DB_PASSWORD", ""),
		Database:        getEnv("DB_NAME", "mediblaze_audit"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8000)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 8000
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
