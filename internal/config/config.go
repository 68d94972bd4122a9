package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds settings for both the tool server and the agent client.
// Values load from YAML with environment variable expansion; cobra flags
// override them afterwards.
type Config struct {
	Server struct {
		Browser        string  `yaml:"browser"`         // chromium, firefox, webkit, chrome, msedge
		Headless       bool    `yaml:"headless"`
		TimeoutSeconds int     `yaml:"timeout_seconds"` // default locator wait
		AdvancedTools  bool    `yaml:"advanced_tools"`
		Undetected     bool    `yaml:"undetected"`
		PaceOffset     float64 `yaml:"pace_offset"`   // seconds, undetected mode
		PaceVariance   float64 `yaml:"pace_variance"` // seconds, undetected mode
		ScreenshotsDir string  `yaml:"screenshots_dir"`
		RecordingsDir  string  `yaml:"recordings_dir"`
		Transport      string  `yaml:"transport"` // stdio or http
		HTTPAddr       string  `yaml:"http_addr"`
	} `yaml:"server"`

	Agent struct {
		Model         string   `yaml:"model"`
		MaxIterations int      `yaml:"max_iterations"`
		ServerCommand []string `yaml:"server_command"`
	} `yaml:"agent"`

	Logging struct {
		Dir   string `yaml:"dir"`
		Quiet bool   `yaml:"quiet"`
	} `yaml:"logging"`
}

// Default returns the built-in configuration.
func Default() Config {
	var c Config
	c.Server.Browser = "chromium"
	c.Server.TimeoutSeconds = 10
	c.Server.PaceOffset = 1
	c.Server.PaceVariance = 4
	c.Server.ScreenshotsDir = "screenshots"
	c.Server.RecordingsDir = "recordings"
	c.Server.Transport = "stdio"
	c.Server.HTTPAddr = ":8050"
	c.Agent.Model = "gpt-4.1-nano"
	c.Agent.MaxIterations = 10
	c.Logging.Dir = "logs"
	return c
}

// LoadFromBytes loads configuration from YAML bytes with environment variable expansion.
func LoadFromBytes(data []byte) (Config, error) {
	c := Default()
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &c); err != nil {
		return c, err
	}
	return c, nil
}

// LoadFile loads configuration from a YAML file; a missing file yields defaults.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Default(), err
	}
	return LoadFromBytes(data)
}
