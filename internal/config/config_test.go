package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"pingpong/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv garante que o ambiente da máquina não interfere no teste.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ALLOWED_ORIGINS", "SERVICE_NAME", "CONSUL_HTTP_ADDR",
		"SERVICE_ADVERTISED_HOSTNAME", "NATS_URL", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, ":3001", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 60, cfg.Match.TickRate)
	assert.Equal(t, time.Second/60, cfg.TickPeriod())
	assert.False(t, cfg.Consul.Enabled)
	assert.Empty(t, cfg.NATS.URL)
	assert.Equal(t, "pong", cfg.NATS.SubjectPrefix)

	port, err := cfg.Port()
	require.NoError(t, err)
	assert.Equal(t, 3001, port)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
server:
  addr: "0.0.0.0:9000"
  allowed_origins: ["*"]
  shutdown_timeout: 3s
match:
  tick_rate: 30
  seed: 42
log:
  level: debug
  format: json
nats:
  url: nats://nats:4222
`)
	t.Setenv("PORT", "7000")
	t.Setenv("CONSUL_HTTP_ADDR", "consul-1:8500,consul-2:8500")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr, "env wins over file")
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 30, cfg.Match.TickRate)
	assert.Equal(t, uint64(42), cfg.Match.Seed)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "nats://nats:4222", cfg.NATS.URL)
	assert.True(t, cfg.Consul.Enabled)
	assert.Equal(t, "consul-1:8500,consul-2:8500", cfg.Consul.Addr)
	assert.Equal(t, "pingpong-server", cfg.Consul.ServiceName)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		env     map[string]string
		wantErr string
	}{
		{name: "bad yaml", file: "server: [", wantErr: "parse config"},
		{name: "bad tick rate", file: "match:\n  tick_rate: 0\n", wantErr: "tick_rate"},
		{name: "bad log format", file: "log:\n  format: xml\n", wantErr: "log.format"},
		{name: "bad port", env: map[string]string{"PORT": "abc"}, wantErr: "PORT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeFile(t, tt.file)
			}

			_, err := config.Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "read config")
}
