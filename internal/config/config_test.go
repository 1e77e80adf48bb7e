package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgconfig "github.com/utafrali/laptopstore/pkg/config"
)

func load(t *testing.T, vars map[string]string) (*Config, error) {
	t.Helper()
	return Load(pkgconfig.WithEnvironment(vars))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(t, map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.APIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.APITimeout)
	assert.Equal(t, 2, cfg.APIMaxRetries)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "storefront", cfg.StoreNamespace)
	assert.Equal(t, 8090, cfg.HTTPPort)
	assert.Equal(t, "/login", cfg.LoginRoute)
	assert.Equal(t, 5*time.Second, cfg.NoticeTTL)
	assert.True(t, cfg.MergeGuestOnLogin)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.PprofAllowedCIDRs)
	assert.False(t, cfg.OTELEnabled)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(t, map[string]string{
		"API_BASE_URL":         "https://api.laptops.example/",
		"API_TIMEOUT":          "3s",
		"STORE_DRIVER":         "redis",
		"REDIS_ADDR":           "redis:6379",
		"MERGE_GUEST_ON_LOGIN": "false",
		"PPROF_ALLOWED_CIDRS":  "127.0.0.0/8,10.0.0.0/8",
		"ENVIRONMENT":          "production",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://api.laptops.example", cfg.APIBaseURL)
	assert.Equal(t, 3*time.Second, cfg.APITimeout)
	assert.Equal(t, DriverRedis, cfg.StoreDriver)
	assert.False(t, cfg.MergeGuestOnLogin)
	assert.Equal(t, []string{"127.0.0.0/8", "10.0.0.0/8"}, cfg.PprofAllowedCIDRs)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"bad url":          {"API_BASE_URL": "localhost:8000"},
		"zero timeout":     {"API_TIMEOUT": "0s"},
		"negative retries": {"API_MAX_RETRIES": "-1"},
		"unknown driver":   {"STORE_DRIVER": "leveldb"},
		"bad port":         {"HTTP_PORT": "70000"},
		"relative login":   {"LOGIN_ROUTE": "login"},
		"sample rate":      {"OTEL_SAMPLE_RATE": "1.5"},
		"unparsable":       {"NOTICE_TTL": "soon"},
	}

	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := load(t, vars)
			assert.Error(t, err)
		})
	}
}
