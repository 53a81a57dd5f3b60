package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimalConfig = `
database:
  postgres:
    host: db.internal
    database: crm
    user: ${CRM_TEST_DB_USER}
  redis:
    address: localhost:6379
  elasticsearch:
    addresses: ["http://localhost:9200"]
apis:
  llm:
    api_key: test-key
`

func TestLoadFromFile_DefaultsAndExpansion(t *testing.T) {
	t.Setenv("CRM_TEST_DB_USER", "agent")

	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "agent", cfg.Database.Postgres.User)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "require", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, "gpt-4", cfg.APIs.LLM.Model)
	assert.Equal(t, 500, cfg.APIs.LLM.MaxTokens)
	assert.InDelta(t, 0.7, cfg.APIs.LLM.Temperature, 1e-9)
	assert.Equal(t, "properties", cfg.Database.Elasticsearch.PropertyIndex)
	assert.Equal(t, "realty-crm", cfg.Observability.ServiceName)
}

func TestLoadFromFile_APIKeyFromEnvironment(t *testing.T) {
	t.Setenv("CRM_TEST_DB_USER", "agent")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	body := `
database:
  postgres: {host: db, database: crm, user: agent}
  redis: {address: "localhost:6379"}
  elasticsearch: {addresses: ["http://es:9200"]}
`
	cfg, err := LoadFromFile(writeConfig(t, body))
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.APIs.LLM.APIKey)
}

func TestLoadFromFile_Validation(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name: "missing postgres host",
			body: `
database:
  postgres: {database: crm, user: agent}
  redis: {address: "localhost:6379"}
apis: {llm: {api_key: k}}
`,
			wantErr: "database.postgres.host",
		},
		{
			name: "missing llm key with synthesizer enabled",
			body: `
database:
  postgres: {host: db, database: crm, user: agent}
  redis: {address: "localhost:6379"}
  elasticsearch: {addresses: ["http://es:9200"]}
`,
			wantErr: "apis.llm.api_key",
		},
		{
			name: "search enabled without elasticsearch",
			body: `
database:
  postgres: {host: db, database: crm, user: agent}
  redis: {address: "localhost:6379"}
apis: {llm: {api_key: k}}
`,
			wantErr: "database.elasticsearch.addresses",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_DisabledHandlerSkipsItsRequirements(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	body := `
database:
  postgres: {host: db, database: crm, user: agent}
  redis: {address: "localhost:6379"}
handlers:
  suggest-response: {enabled: false}
  search-properties: {enabled: false}
`
	cfg, err := LoadFromFile(writeConfig(t, body))
	require.NoError(t, err)
	assert.False(t, IsHandlerEnabled(cfg, HandlerSuggestResponse))
	assert.Equal(t, 30000, cfg.Handlers[HandlerSuggestResponse].Timeout)
}

func TestGetHandlerConfig_Fallback(t *testing.T) {
	cfg := &Config{Handlers: map[string]HandlerConfig{
		HandlerListLeads: {Enabled: true, Timeout: 5000, CacheTTL: 30},
	}}

	assert.Equal(t, 5000, GetHandlerConfig(cfg, HandlerListLeads).Timeout)
	fallback := GetHandlerConfig(cfg, "unknown")
	assert.True(t, fallback.Enabled)
	assert.Equal(t, 30000, fallback.Timeout)
	assert.True(t, IsHandlerEnabled(cfg, "unknown"))
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
