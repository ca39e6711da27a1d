package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the serial settings.
const (
	EnvPort = "TURBIDITY_PORT"
	EnvBaud = "TURBIDITY_BAUD"
)

// Config represents the host application configuration.
type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	Alert   AlertConfig   `yaml:"alert"`
	Trend   TrendConfig   `yaml:"trend"`
	History HistoryConfig `yaml:"history"`
	Mock    MockConfig    `yaml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// AlertConfig contains turbidity thresholds (NTU) for alert levels 1..3 and
// how often the same alert command may be resent.
type AlertConfig struct {
	Level1       float64       `yaml:"level1"`
	Level2       float64       `yaml:"level2"`
	Level3       float64       `yaml:"level3"`
	ResendPeriod time.Duration `yaml:"resend_period"`
}

// TrendConfig contains fast-rise detection parameters.
type TrendConfig struct {
	Window    time.Duration `yaml:"window"`     // Regression window
	Slope     float64       `yaml:"slope"`      // Alarm slope in NTU per minute
	MinDelta  float64       `yaml:"min_delta"`  // Minimum rise across the window (NTU)
	MinPoints int           `yaml:"min_points"` // Minimum readings in the window
	Cooldown  time.Duration `yaml:"cooldown"`   // Minimum time between alarms

	// AlertSlope switches the probe alert on when the rise from the first to
	// the last reading in Window reaches this many NTU per minute. Negative
	// values disable it.
	AlertSlope float64 `yaml:"alert_slope"`
}

// HistoryConfig controls how much history is kept and charted.
type HistoryConfig struct {
	Window      time.Duration `yaml:"window"`
	ChartPoints int           `yaml:"chart_points"`
}

// MockConfig contains simulated probe configuration.
type MockConfig struct {
	BaselineMV      float64       `yaml:"baseline_mv"`      // Sensor output in clear water (mV)
	NoiseMV         float64       `yaml:"noise_mv"`         // Peak noise amplitude (mV)
	EpisodeMV       float64       `yaml:"episode_mv"`       // Sensor output at the height of a turbid episode (mV)
	EpisodePeriod   time.Duration `yaml:"episode_period"`   // Time between turbid episodes
	EpisodeDuration time.Duration `yaml:"episode_duration"` // Length of a turbid episode
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyACM0", // Typically COM3 on Windows
			BaudRate: 9600,
		},
		Alert: AlertConfig{
			Level1:       10,
			Level2:       50,
			Level3:       100,
			ResendPeriod: 10 * time.Second,
		},
		Trend: TrendConfig{
			Window:    60 * time.Second,
			Slope:     20,
			MinDelta:  10,
			MinPoints: 3,
			Cooldown:  60 * time.Second,

			AlertSlope: 30,
		},
		History: HistoryConfig{
			Window:      5 * time.Minute,
			ChartPoints: 50,
		},
		Mock: MockConfig{
			BaselineMV:      3590,
			NoiseMV:         15,
			EpisodeMV:       1500,
			EpisodePeriod:   90 * time.Second,
			EpisodeDuration: 30 * time.Second,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv loads the given dotenv files (missing files are skipped) into the
// process environment and applies TURBIDITY_PORT and TURBIDITY_BAUD.
// Variables already set in the environment win over the files.
func (c *Config) ApplyEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	if port := os.Getenv(EnvPort); port != "" {
		c.Serial.Port = port
	}
	if baud := os.Getenv(EnvBaud); baud != "" {
		rate, err := strconv.Atoi(baud)
		if err != nil || rate <= 0 {
			return fmt.Errorf("invalid %s %q", EnvBaud, baud)
		}
		c.Serial.BaudRate = rate
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Alert.Level1 == 0 {
		c.Alert.Level1 = def.Alert.Level1
	}
	if c.Alert.Level2 == 0 {
		c.Alert.Level2 = def.Alert.Level2
	}
	if c.Alert.Level3 == 0 {
		c.Alert.Level3 = def.Alert.Level3
	}
	if c.Alert.ResendPeriod == 0 {
		c.Alert.ResendPeriod = def.Alert.ResendPeriod
	}

	if c.Trend.Window == 0 {
		c.Trend.Window = def.Trend.Window
	}
	if c.Trend.Slope == 0 {
		c.Trend.Slope = def.Trend.Slope
	}
	if c.Trend.MinPoints == 0 {
		c.Trend.MinPoints = def.Trend.MinPoints
	}
	if c.Trend.Cooldown == 0 {
		c.Trend.Cooldown = def.Trend.Cooldown
	}
	if c.Trend.AlertSlope == 0 {
		c.Trend.AlertSlope = def.Trend.AlertSlope
	}

	if c.History.Window == 0 {
		c.History.Window = def.History.Window
	}
	if c.History.ChartPoints == 0 {
		c.History.ChartPoints = def.History.ChartPoints
	}

	if c.Mock.BaselineMV == 0 {
		c.Mock.BaselineMV = def.Mock.BaselineMV
	}
	if c.Mock.EpisodeMV == 0 {
		c.Mock.EpisodeMV = def.Mock.EpisodeMV
	}
	if c.Mock.EpisodePeriod == 0 {
		c.Mock.EpisodePeriod = def.Mock.EpisodePeriod
	}
	if c.Mock.EpisodeDuration == 0 {
		c.Mock.EpisodeDuration = def.Mock.EpisodeDuration
	}
}
