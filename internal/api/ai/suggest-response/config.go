package suggestresponse

import (
	"errors"
	"time"

	"realty-crm/internal/common/config"
	"realty-crm/internal/common/llm"
)

type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  int
	BackoffBase time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL:     "https://api.openai.com/v1",
		Model:       "gpt-4",
		Temperature: 0.7,
		MaxTokens:   500,
		Timeout:     30 * time.Second,
		MaxRetries:  1,
		BackoffBase: 100 * time.Millisecond,
	}
}

// LoadConfig builds the handler config from the service configuration.
func LoadConfig(cfg *config.Config) *Config {
	c := DefaultConfig()
	apiCfg := cfg.APIs.LLM

	c.APIKey = apiCfg.APIKey
	if apiCfg.BaseURL != "" {
		c.BaseURL = apiCfg.BaseURL
	}
	if apiCfg.Model != "" {
		c.Model = apiCfg.Model
	}
	if apiCfg.Temperature > 0 {
		c.Temperature = apiCfg.Temperature
	}
	if apiCfg.MaxTokens > 0 {
		c.MaxTokens = apiCfg.MaxTokens
	}
	if apiCfg.MaxRetries > 0 {
		c.MaxRetries = apiCfg.MaxRetries
	}
	if apiCfg.Timeout > 0 {
		c.Timeout = config.GetDuration(apiCfg.Timeout)
	}
	if hc := config.GetHandlerConfig(cfg, config.HandlerSuggestResponse); hc.Timeout > 0 && config.GetDuration(hc.Timeout) < c.Timeout {
		c.Timeout = config.GetDuration(hc.Timeout)
	}
	return c
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("suggest-response: api key is required")
	}
	if c.MaxTokens <= 0 {
		return errors.New("suggest-response: max tokens must be positive")
	}
	return nil
}

// ProviderConfig is the llm client configuration derived from c.
func (c *Config) ProviderConfig() *llm.Config {
	return &llm.Config{
		BaseURL:     c.BaseURL,
		APIKey:      c.APIKey,
		Model:       c.Model,
		Timeout:     c.Timeout,
		MaxRetries:  c.MaxRetries,
		BackoffBase: c.BackoffBase,
	}
}
