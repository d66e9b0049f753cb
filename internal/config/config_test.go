package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
server:
  host: 0.0.0.0
  port: 50051
database:
  host: localhost
  port: 5432
  user: nftrental
  password: secret
  database: nftrental
jwt:
  secret: 0123456789abcdef0123456789abcdef
rental:
  fee_basis_points: 250
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, "mock", cfg.Ledger.Type)
	assert.Equal(t, "prepaid", cfg.Rental.EscrowMode)
	assert.Equal(t, int32(250), cfg.Rental.FeeBasisPoints)
	assert.Equal(t, int64(10000), cfg.Rental.LatePenaltyMultiplierBps)
	assert.Equal(t, int32(365), cfg.Rental.MaxRentalDays)
	assert.Equal(t, int32(5), cfg.Alerts.StuckSettlementAttempts)
	assert.Equal(t, "0 */5 * * * *", cfg.Scheduler.ReconcileSettlements)
	assert.Equal(t, "host=localhost port=5432 user=nftrental password=secret dbname=nftrental sslmode=disable", cfg.Database.GetDSN())
	assert.Equal(t, "0.0.0.0:50051", cfg.Server.GetServerAddress())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("OPS_EMAIL", "a@ops.test,b@ops.test")
	t.Setenv("SERVER_HTTP_PORT", "9090")

	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{"a@ops.test", "b@ops.test"}, cfg.Alerts.OpsEmail)
	assert.Equal(t, 9090, cfg.Server.HTTPPort)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	tests := []struct {
		name  string
		patch func(*Config)
	}{
		{"Short JWT secret", func(c *Config) { c.JWT.Secret = "short" }},
		{"Fee out of range", func(c *Config) { c.Rental.FeeBasisPoints = 10001 }},
		{"RPC without URL", func(c *Config) { c.Ledger.Type = "rpc" }},
		{"Unknown ledger", func(c *Config) { c.Ledger.Type = "chain" }},
		{"Unknown escrow mode", func(c *Config) { c.Rental.EscrowMode = "later" }},
		{"Rental period too long", func(c *Config) { c.Rental.MaxRentalDays = 400 }},
		{"Missing database", func(c *Config) { c.Database.Host = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, minimalYAML))
			require.NoError(t, err)
			tt.patch(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestGetSecurityLevel(t *testing.T) {
	assert.Equal(t, SecurityPublic, GetSecurityLevel("/nftrental.v1.RentalService/CalculateRentalCost"))
	assert.Equal(t, SecurityAccess, GetSecurityLevel("/nftrental.v1.RentalService/AcceptBid"))
	assert.Equal(t, SecurityAccess, GetSecurityLevel("/nftrental.v1.RentalService/GetSettlement"))
	assert.Equal(t, SecurityAccess, GetSecurityLevel("/nftrental.v1.RentalService/Unknown"))
}
