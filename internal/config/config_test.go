package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"PORT", "STORE", "DATABASE_URL", "CORS_ORIGINS", "APP_ENV", "JWT_SECRET", "SHUTDOWN_TIMEOUT"} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	core, logs := observer.New(zapcore.WarnLevel)

	cfg, err := Load(nil, zap.New(core))
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, StorePostgres, cfg.Store)
	require.Equal(t, devJWTSecret, cfg.JWTSecret)
	require.Equal(t, []string{"http://localhost:5173", "http://127.0.0.1:5173"}, cfg.CORSOrigins)
	require.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	require.NotZero(t, logs.FilterMessage("JWT_SECRET not set, using development secret").Len())
}

func TestLoad_EnvAndFlags(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("STORE", "MEMORY")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load([]string{"--port", "9100", "--cors-origins", "https://a.example, ,https://b.example"}, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, "9100", cfg.Port, "flags win over env")
	require.Equal(t, StoreMemory, cfg.Store)
	require.Equal(t, "s3cret", cfg.JWTSecret)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	require.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load([]string{"--store", "redis"}, zap.NewNop())
	require.ErrorContains(t, err, "unknown store")

	_, err = Load([]string{"--env", "production"}, zap.NewNop())
	require.ErrorContains(t, err, "JWT_SECRET is required")

	t.Setenv("SHUTDOWN_TIMEOUT", "soon")
	_, err = Load(nil, zap.NewNop())
	require.ErrorContains(t, err, "SHUTDOWN_TIMEOUT")
}

func TestParseEnv(t *testing.T) {
	input := strings.Join([]string{
		"\ufeff# comment",
		"PORT=9000",
		"export STORE = memory",
		`JWT_SECRET="quoted value"`,
		"CORS_ORIGINS='single'",
		"NOEQUALS",
		"=novalue",
		"",
	}, "\n")

	got := map[string]string{}
	require.NoError(t, parseEnv(strings.NewReader(input), func(k, v string) { got[k] = v }))
	require.Equal(t, map[string]string{
		"PORT":         "9000",
		"STORE":        "memory",
		"JWT_SECRET":   "quoted value",
		"CORS_ORIGINS": "single",
	}, got)
}

func TestLoadEnvFile_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PORT=7000\nAPP_ENV=staging\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("PORT", "8081")
	t.Setenv("APP_ENV", "")
	os.Unsetenv("APP_ENV")

	LoadEnvFile(zap.NewNop())
	require.Equal(t, "8081", os.Getenv("PORT"))
	require.Equal(t, "staging", os.Getenv("APP_ENV"))
}
