package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://services9.arcgis.com/weJ1QsnbMYJlCHdG/arcgis/rest/services", cfg.BaseURL)
	assert.Equal(t, []string{"ports", "trade"}, cfg.Tags)
	assert.Equal(t, []string{"hazards and risk", "ports", "trade"}, cfg.DisruptionsTags)
	assert.Equal(t, "https://data.humdata.org", cfg.HDX.Site)
	assert.Equal(t, "/tmp/portwatch", cfg.Run.TempDir)
	assert.Equal(t, 1000, cfg.Run.PageSize)
	assert.Equal(t, "portwatch-cli/1.0", cfg.Run.UserAgent)
	assert.False(t, cfg.Run.DryRun)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
base_url: https://example.org/arcgis/rest/services
tags:
  - ports
hdx:
  site: https://stage.data-humdata-org.ahconu.org
  owner_org: 22945e84-d492-497f-9ffa-f9c6c394c04f
run:
  page_size: 500
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://example.org/arcgis/rest/services", cfg.BaseURL)
	assert.Equal(t, []string{"ports"}, cfg.Tags)
	assert.Equal(t, "https://stage.data-humdata-org.ahconu.org", cfg.HDX.Site)
	assert.Equal(t, "22945e84-d492-497f-9ffa-f9c6c394c04f", cfg.HDX.OwnerOrg)
	assert.Equal(t, 500, cfg.Run.PageSize)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.Equal(t, "/tmp/portwatch", cfg.Run.TempDir)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
log:
  level: debug
hdx:
  api_key: from-file
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("PORTWATCH_LOG_LEVEL", "warn")
	t.Setenv("PORTWATCH_HDX_API_KEY", "from-env")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "from-env", cfg.HDX.APIKey)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("PORTWATCH_RUN_PAGE_SIZE", "250")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.Run.PageSize)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validRun returns a Config that passes "run" validation.
func validRun() *Config {
	return &Config{
		BaseURL: "https://example.org/arcgis/rest/services",
		HDX:     HDXConfig{Site: "https://data.humdata.org", APIKey: "key"},
		Run:     RunConfig{PageSize: 1000},
	}
}

func TestValidateRun_AllPresent(t *testing.T) {
	assert.NoError(t, validRun().Validate("run"))
}

func TestValidateRun_MissingFields(t *testing.T) {
	cfg := &Config{Run: RunConfig{PageSize: 1000}}

	err := cfg.Validate("run")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "base_url is required")
	assert.Contains(t, err.Error(), "hdx.api_key is required")
}

func TestValidateRun_DryRunNeedsNoKey(t *testing.T) {
	cfg := validRun()
	cfg.HDX.APIKey = ""
	cfg.Run.DryRun = true

	assert.NoError(t, cfg.Validate("run"))
}

func TestValidateRun_PageSizeBounds(t *testing.T) {
	cfg := validRun()

	cfg.Run.PageSize = 0
	err := cfg.Validate("run")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "run.page_size must be between 1 and 32000")

	cfg.Run.PageSize = 32001
	err = cfg.Validate("run")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "run.page_size must be between 1 and 32000")

	cfg.Run.PageSize = 32000
	assert.NoError(t, cfg.Validate("run"))
}

func TestValidateCountries(t *testing.T) {
	cfg := &Config{BaseURL: "https://example.org", Run: RunConfig{PageSize: 1000}}
	assert.NoError(t, cfg.Validate("countries"))

	cfg.BaseURL = ""
	assert.Error(t, cfg.Validate("countries"))
}

func TestValidateUnknownMode(t *testing.T) {
	err := validRun().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
