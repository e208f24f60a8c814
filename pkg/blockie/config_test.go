package blockie

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, 100, config.CacheMaxSize)
	assert.Equal(t, time.Duration(0), config.CacheTTL)
	assert.Equal(t, "info", config.LogLevel)
	assert.False(t, config.StrictMode)
	assert.Equal(t, DefaultTabSize, config.TabSize)
	require.NoError(t, config.Validate())
}

func TestConfigFromEnvironment(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		check   func(t *testing.T, config *Config)
	}{
		{
			name:    "cache max size",
			envVars: map[string]string{"BLOCKIE_CACHE_MAX_SIZE": "50"},
			check: func(t *testing.T, config *Config) {
				assert.Equal(t, 50, config.CacheMaxSize)
			},
		},
		{
			name:    "cache TTL",
			envVars: map[string]string{"BLOCKIE_CACHE_TTL": "5m"},
			check: func(t *testing.T, config *Config) {
				assert.Equal(t, 5*time.Minute, config.CacheTTL)
			},
		},
		{
			name:    "log level is lower-cased",
			envVars: map[string]string{"BLOCKIE_LOG_LEVEL": "DEBUG"},
			check: func(t *testing.T, config *Config) {
				assert.Equal(t, "debug", config.LogLevel)
			},
		},
		{
			name:    "strict mode",
			envVars: map[string]string{"BLOCKIE_STRICT_MODE": "yes"},
			check: func(t *testing.T, config *Config) {
				assert.True(t, config.StrictMode)
			},
		},
		{
			name:    "tab size",
			envVars: map[string]string{"BLOCKIE_TAB_SIZE": "4"},
			check: func(t *testing.T, config *Config) {
				assert.Equal(t, 4, config.TabSize)
			},
		},
		{
			name: "multiple environment variables",
			envVars: map[string]string{
				"BLOCKIE_CACHE_MAX_SIZE": "25",
				"BLOCKIE_LOG_LEVEL":      "error",
				"BLOCKIE_STRICT_MODE":    "true",
			},
			check: func(t *testing.T, config *Config) {
				assert.Equal(t, 25, config.CacheMaxSize)
				assert.Equal(t, "error", config.LogLevel)
				assert.True(t, config.StrictMode)
			},
		},
		{
			name:    "invalid values keep defaults",
			envVars: map[string]string{"BLOCKIE_CACHE_MAX_SIZE": "invalid", "BLOCKIE_CACHE_TTL": "soon", "BLOCKIE_TAB_SIZE": "wide"},
			check: func(t *testing.T, config *Config) {
				assert.Equal(t, 100, config.CacheMaxSize)
				assert.Equal(t, time.Duration(0), config.CacheTTL)
				assert.Equal(t, DefaultTabSize, config.TabSize)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}
			tt.check(t, ConfigFromEnvironment())
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "log level off", mutate: func(c *Config) { c.LogLevel = "off" }},
		{name: "negative cache size", mutate: func(c *Config) { c.CacheMaxSize = -1 }, wantErr: "cache max size"},
		{name: "negative ttl", mutate: func(c *Config) { c.CacheTTL = -time.Second }, wantErr: "cache TTL"},
		{name: "unknown log level", mutate: func(c *Config) { c.LogLevel = "verbose" }, wantErr: "invalid log level"},
		{name: "zero tab size", mutate: func(c *Config) { c.TabSize = 0 }, wantErr: "tab size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewConfigWithDefaults(t *testing.T) {
	assert.Equal(t, DefaultConfig(), NewConfigWithDefaults(nil))

	c := NewConfigWithDefaults(&Config{CacheMaxSize: 5, StrictMode: true})
	assert.Equal(t, 5, c.CacheMaxSize)
	assert.True(t, c.StrictMode)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, DefaultTabSize, c.TabSize)
}

func TestGlobalConfigIsCopied(t *testing.T) {
	original := GetGlobalConfig()
	t.Cleanup(func() { SetGlobalConfig(original) })

	c := GetGlobalConfig()
	c.CacheMaxSize = 7
	assert.NotEqual(t, 7, GetGlobalConfig().CacheMaxSize)

	SetGlobalConfig(c)
	assert.Equal(t, 7, GetGlobalConfig().CacheMaxSize)
}
