package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 9600, cfg.Serial.BaudRate)
	assert.Equal(t, float64(10), cfg.Alert.Level1)
	assert.Equal(t, float64(50), cfg.Alert.Level2)
	assert.Equal(t, float64(100), cfg.Alert.Level3)
	assert.Equal(t, 10*time.Second, cfg.Alert.ResendPeriod)
	assert.Equal(t, 60*time.Second, cfg.Trend.Window)
	assert.Equal(t, float64(20), cfg.Trend.Slope)
	assert.Equal(t, float64(10), cfg.Trend.MinDelta)
	assert.Equal(t, 3, cfg.Trend.MinPoints)
	assert.Equal(t, float64(30), cfg.Trend.AlertSlope)
	assert.Equal(t, 50, cfg.History.ChartPoints)
	assert.Equal(t, float64(3590), cfg.Mock.BaselineMV)
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "COM4"
  baud_rate: 19200

alert:
  level1: 5
  level2: 25
  level3: 80
  resend_period: 30s

trend:
  window: 2m
  slope: 30
  min_delta: 5
  min_points: 4
  cooldown: 90s
  alert_slope: -1

history:
  window: 10m
  chart_points: 100

mock:
  baseline_mv: 3500
  episode_mv: 900
  episode_period: 1m
  episode_duration: 20s
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "COM4", cfg.Serial.Port)
	assert.Equal(t, 19200, cfg.Serial.BaudRate)
	assert.Equal(t, float64(5), cfg.Alert.Level1)
	assert.Equal(t, float64(25), cfg.Alert.Level2)
	assert.Equal(t, float64(80), cfg.Alert.Level3)
	assert.Equal(t, 30*time.Second, cfg.Alert.ResendPeriod)
	assert.Equal(t, 2*time.Minute, cfg.Trend.Window)
	assert.Equal(t, float64(30), cfg.Trend.Slope)
	assert.Equal(t, 4, cfg.Trend.MinPoints)
	assert.Equal(t, 90*time.Second, cfg.Trend.Cooldown)
	assert.Equal(t, float64(-1), cfg.Trend.AlertSlope)
	assert.Equal(t, 10*time.Minute, cfg.History.Window)
	assert.Equal(t, 100, cfg.History.ChartPoints)
	assert.Equal(t, float64(900), cfg.Mock.EpisodeMV)
	assert.Equal(t, 20*time.Second, cfg.Mock.EpisodeDuration)
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("invalid: yaml: content: [")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_PartialYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyUSB0"
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// Should use defaults for missing fields
	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port)
	assert.Equal(t, 9600, cfg.Serial.BaudRate)
	assert.Equal(t, float64(100), cfg.Alert.Level3)
	assert.Equal(t, 60*time.Second, cfg.Trend.Cooldown)
	assert.Equal(t, 30*time.Second, cfg.Mock.EpisodeDuration)
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB0"
	cfg.Alert.Level3 = 150

	tmpfile, err := os.CreateTemp("", "test_save_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	err = cfg.Save(tmpfile.Name())
	require.NoError(t, err)

	// Load it back and verify
	loaded, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", loaded.Serial.Port)
	assert.Equal(t, float64(150), loaded.Alert.Level3)
}

func TestApplyEnv_DotEnvFile(t *testing.T) {
	t.Setenv(EnvPort, "")
	t.Setenv(EnvBaud, "")
	os.Unsetenv(EnvPort)
	os.Unsetenv(EnvBaud)

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("TURBIDITY_PORT=COM7\nTURBIDITY_BAUD=115200\n"), 0644))

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(envFile, filepath.Join(dir, "missing.env")))

	assert.Equal(t, "COM7", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
}

func TestApplyEnv_EnvironmentWins(t *testing.T) {
	t.Setenv(EnvPort, "/dev/ttyS1")
	t.Setenv(EnvBaud, "")
	os.Unsetenv(EnvBaud)

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("TURBIDITY_PORT=COM7\n"), 0644))

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(envFile))

	assert.Equal(t, "/dev/ttyS1", cfg.Serial.Port)
	assert.Equal(t, 9600, cfg.Serial.BaudRate)
}

func TestApplyEnv_InvalidBaud(t *testing.T) {
	t.Setenv(EnvBaud, "fast")

	cfg := Default()
	assert.Error(t, cfg.ApplyEnv())
}
