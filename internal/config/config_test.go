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

func TestLoadFromYAML(t *testing.T) {
	for _, key := range []string{"JWT_SECRET", "SERVER_PORT", "SERVER_MODE", "DB_HOST"} {
		t.Setenv(key, "")
	}
	path := writeConfig(t, `
server:
  host: 127.0.0.1
  port: 9000
  mode: debug
database:
  driver: postgres
  host: db
  user: ledger
  password: secret
  dbname: ledger
jwt:
  secret: yaml-secret
  expire_minutes: 60
audit:
  default_limit: 50
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, "yaml-secret", cfg.JWT.Secret)
	assert.Equal(t, time.Hour, cfg.JWT.TokenTTL())
	assert.Equal(t, 50, cfg.Audit.DefaultLimit)
	assert.Equal(t, 5000, cfg.Audit.MaxLimit)
	assert.Equal(t, "host=db port=5432 user=ledger password=secret dbname=ledger sslmode=disable", cfg.Database.DSN())
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 480, cfg.JWT.ExpireMinutes)
	assert.Equal(t, 8*time.Hour, cfg.JWT.TokenTTL())
	assert.Equal(t, 1000, cfg.Audit.DefaultLimit)
	assert.Equal(t, 5*time.Minute, cfg.Redis.IdentityTTL())
	assert.Equal(t, "daily-ledger", cfg.JWT.Issuer)
}

func TestEnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
jwt:
  secret: yaml-secret
redis:
  host: localhost
`)
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("JWT_EXPIRE_MINUTES", "15")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, 15, cfg.JWT.ExpireMinutes)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost:6380", cfg.Redis.Addr())
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	path := writeConfig(t, "server:\n  port: 1\n")

	_, err := Load(path)
	assert.ErrorContains(t, err, "jwt.secret")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		c := &Config{JWT: JWTConfig{Secret: "s"}}
		c.applyDefaults()
		return c
	}

	c := base()
	c.Database.Driver = "mysql"
	assert.ErrorContains(t, c.Validate(), "unsupported database driver")

	c = base()
	c.Database.Driver = DriverSQLite
	assert.ErrorContains(t, c.Validate(), "database.path")

	c.Database.Path = "ledger.db"
	assert.NoError(t, c.Validate())

	c = base()
	c.Audit.DefaultLimit = c.Audit.MaxLimit + 1
	assert.Error(t, c.Validate())
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := writeConfig(t, "server: [")
	_, err := Load(path)
	assert.Error(t, err)
}
