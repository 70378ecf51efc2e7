package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, "tenant_registry", cfg.DB.Name)
	assert.Empty(t, cfg.DB.Password)
	assert.Equal(t, ":8080", cfg.ListenAddr())
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db:
  host: db.internal
  name: registry
  port: 6543
log:
  level: debug
`), 0o600))

	t.Setenv("TENANT_REGISTRY_DB_PASSWORD", "from-env")
	t.Setenv("TENANT_REGISTRY_DB_NAME", "override")

	cfg, err := LoadConfig(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, 6543, cfg.DB.Port)
	assert.Equal(t, "override", cfg.DB.Name)
	assert.Equal(t, "from-env", cfg.DB.Password)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := &Config{}
		c.DB.Host = "localhost"
		c.DB.Name = "db"
		c.DB.Port = 5432
		c.DB.MaxConns = 4
		c.DB.MinConns = 1
		return c
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"empty host", func(c *Config) { c.DB.Host = " " }, false},
		{"empty name", func(c *Config) { c.DB.Name = "" }, false},
		{"bad port", func(c *Config) { c.DB.Port = 0 }, false},
		{"min over max", func(c *Config) { c.DB.MinConns = 5 }, false},
		{"tls without files", func(c *Config) { c.TLS.Enable = true }, false},
		{"tls with files", func(c *Config) {
			c.TLS.Enable = true
			c.TLS.CertFile = "cert.pem"
			c.TLS.KeyFile = "key.pem"
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
