package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"purissima/internal/mapping"
)

func TestLoadDefaultsAndOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ORDERS_API_RATE_LIMIT_RPS", "7")
	t.Setenv("MONITOR_AUTO_EXPORT", "off")
	t.Setenv("STATE_BACKEND", "SQLite")
	t.Setenv("ORDERS_API_MAX_ATTEMPTS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.OrdersAPIRateLimitRPS)
	assert.False(t, cfg.MonitorAutoExport)
	assert.Equal(t, "sqlite", cfg.StateBackend)
	assert.Equal(t, 3, cfg.OrdersAPIMaxAttempts)
	assert.Equal(t, "released", cfg.DefaultStatus)
	assert.Equal(t, 30*time.Second, cfg.OrdersAPITimeout())
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STATE_BACKEND", "mongo")
	_, err := Load()
	assert.Error(t, err)
}

func TestLocationFallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, Config{Timezone: "Nowhere/Atlantis"}.Location())
}

func TestRequire(t *testing.T) {
	var cfg Config
	assert.Error(t, cfg.Require("ORDERS_API_URL", "  "))
	assert.NoError(t, cfg.Require("ORDERS_API_URL", "https://example.test"))
}

func writeRules(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadRulesBuiltIn(t *testing.T) {
	rules, err := LoadRules("")
	require.NoError(t, err)
	assert.Equal(t, mapping.DefaultRules, rules.Items)
	assert.Empty(t, rules.Labels)
}

func TestLoadRulesExtend(t *testing.T) {
	path := writeRules(t, `
rules:
  - pattern: 'pouch\s+vital\s+kids'
    label: Vital Kids
    period: NOITE
labels:
  "Nº do pedido": ord_id
`)
	rules, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, rules.Items, len(mapping.DefaultRules)+1)
	assert.Equal(t, "Vital Kids", rules.Items[0].Label)
	assert.Equal(t, "ord_id", rules.Labels["Nº do pedido"])

	engine, err := mapping.NewEngine(rules.Items)
	require.NoError(t, err)
	m := engine.Resolve("Pouch Vital Kids morango")
	assert.Equal(t, "Vital Kids", m.Label)
	assert.Equal(t, mapping.PeriodNight, m.Period)
	assert.Equal(t, "Vital", engine.Canonicalize("Pouch Vital"))
}

func TestLoadRulesReplace(t *testing.T) {
	path := writeRules(t, `
mode: replace
rules:
  - pattern: 'vital'
    label: Só Vital
`)
	rules, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, rules.Items, 1)
}

func TestLoadRulesErrors(t *testing.T) {
	for name, body := range map[string]string{
		"bad yaml":      "rules: [",
		"bad regex":     "rules:\n  - pattern: '('\n    label: X\n",
		"empty label":   "rules:\n  - pattern: 'x'\n",
		"unknown mode":  "mode: merge\n",
		"empty replace": "mode: replace\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadRules(writeRules(t, body))
			assert.Error(t, err)
		})
	}

	_, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
