package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for _, key := range []string{
		"SERVER_PORT", "STORAGE_DRIVER", "DATABASE_URL", "JWT_SECRET_KEY", "ADVANCE_MAX_RETRIES",
		"RECONCILE_INTERVAL", "ALLOW_BYES", "CORS_ALLOWED_ORIGINS",
		"R2_ACCOUNT_ID", "R2_ACCESS_KEY_ID", "R2_SECRET_ACCESS_KEY", "R2_BUCKET_NAME", "R2_PUBLIC_BASE_URL",
	} {
		t.Setenv(key, env[key])
	}
}

func TestLoadDefaults(t *testing.T) {
	setEnv(t, map[string]string{
		"DATABASE_URL":   "postgres://localhost/sabo?sslmode=disable",
		"JWT_SECRET_KEY": "secret",
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, StorageDriverPostgres, cfg.StorageDriver)
	assert.Equal(t, 5, cfg.AdvanceMaxRetries)
	assert.Equal(t, time.Minute, cfg.ReconcileInterval)
	assert.False(t, cfg.AllowByes)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestLoadMemoryDriverWithoutDatabase(t *testing.T) {
	setEnv(t, map[string]string{
		"STORAGE_DRIVER":       "Memory",
		"JWT_SECRET_KEY":       "secret",
		"SERVER_PORT":          "9090",
		"ADVANCE_MAX_RETRIES":  "3",
		"RECONCILE_INTERVAL":   "15s",
		"ALLOW_BYES":           "true",
		"CORS_ALLOWED_ORIGINS": "https://a.example, https://b.example,",
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageDriverMemory, cfg.StorageDriver)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, 3, cfg.AdvanceMaxRetries)
	assert.Equal(t, 15*time.Second, cfg.ReconcileInterval)
	assert.True(t, cfg.AllowByes)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoadRejectsBadValues(t *testing.T) {
	base := map[string]string{
		"DATABASE_URL":   "postgres://localhost/sabo",
		"JWT_SECRET_KEY": "secret",
	}
	cases := map[string]map[string]string{
		"missing database url": {"DATABASE_URL": ""},
		"missing jwt secret":   {"JWT_SECRET_KEY": ""},
		"port out of range":    {"SERVER_PORT": "70000"},
		"port not a number":    {"SERVER_PORT": "http"},
		"unknown driver":       {"STORAGE_DRIVER": "redis"},
		"zero retries":         {"ADVANCE_MAX_RETRIES": "0"},
		"bad interval":         {"RECONCILE_INTERVAL": "soon"},
		"negative interval":    {"RECONCILE_INTERVAL": "-1m"},
		"bad bool":             {"ALLOW_BYES": "maybe"},
	}

	for name, overrides := range cases {
		t.Run(name, func(t *testing.T) {
			env := map[string]string{}
			for k, v := range base {
				env[k] = v
			}
			for k, v := range overrides {
				env[k] = v
			}
			setEnv(t, env)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
