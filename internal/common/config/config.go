// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig                `mapstructure:"app"`
	Server        ServerConfig             `mapstructure:"server"`
	Database      DatabaseConfig           `mapstructure:"database"`
	APIs          APIsConfig               `mapstructure:"apis"`
	Handlers      map[string]HandlerConfig `mapstructure:"handlers"`
	Dashboard     DashboardConfig          `mapstructure:"dashboard"`
	Logging       LoggingConfig            `mapstructure:"logging"`
	Observability ObservabilityConfig      `mapstructure:"observability"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string   `mapstructure:"address" validate:"required"`
	ReadTimeout     int      `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int      `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"` // milliseconds
	MaxBodyBytes    int64    `mapstructure:"max_body_bytes"`
	AllowOrigins    []string `mapstructure:"allow_origins"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host" validate:"required"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database" validate:"required"`
	User           string `mapstructure:"user" validate:"required"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the lib/pq keyword/value connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses     []string `mapstructure:"addresses"`
	Username      string   `mapstructure:"username"`
	Password      string   `mapstructure:"password"`
	PropertyIndex string   `mapstructure:"property_index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address" validate:"required"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// HandlerConfig holds the settings shared by every HTTP handler.
type HandlerConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Timeout  int  `mapstructure:"timeout"`   // milliseconds
	CacheTTL int  `mapstructure:"cache_ttl"` // seconds
}

// APIsConfig holds settings for external API integrations.
type APIsConfig struct {
	LLM LLMConfig `mapstructure:"llm"`
}

// LLMConfig points at an OpenAI-compatible chat completions endpoint.
type LLMConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Timeout     int     `mapstructure:"timeout"` // milliseconds
	MaxRetries  int     `mapstructure:"max_retries"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// DashboardConfig holds the agent's targets shown against live metrics.
type DashboardConfig struct {
	MonthlyGCIGoal float64 `mapstructure:"monthly_gci_goal"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type ObservabilityConfig struct {
	ServiceName    string  `mapstructure:"service_name"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}
