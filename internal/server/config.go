package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config represents the complete server configuration
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Rooms  RoomDefaults   `hcl:"rooms,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// RoomDefaults configures rooms created without explicit options.
type RoomDefaults struct {
	TargetScore   int    `hcl:"target_score,optional"`
	TurnTimeoutMs int    `hcl:"turn_timeout_ms,optional"`
	Visibility    string `hcl:"visibility,optional"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Rooms: RoomDefaults{
			TargetScore:   1000,
			TurnTimeoutMs: 0, // per-turn deadlines off unless configured
			Visibility:    "public",
		},
	}
}

// LoadConfig loads configuration from an HCL file, falling back to the
// defaults when the file does not exist.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	def := DefaultConfig()
	if config.Server.Address == "" {
		config.Server.Address = def.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = def.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = def.Server.LogLevel
	}
	if config.Rooms.TargetScore == 0 {
		config.Rooms.TargetScore = def.Rooms.TargetScore
	}
	if config.Rooms.Visibility == "" {
		config.Rooms.Visibility = def.Rooms.Visibility
	}
	return &config, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Rooms.TargetScore < 100 {
		return fmt.Errorf("target score %d is below the minimum of 100", c.Rooms.TargetScore)
	}
	if c.Rooms.TurnTimeoutMs < 0 {
		return fmt.Errorf("turn timeout cannot be negative")
	}
	switch c.Rooms.Visibility {
	case "public", "private":
	default:
		return fmt.Errorf("invalid visibility %q", c.Rooms.Visibility)
	}
	return nil
}

// ListenAddress returns the full listen address.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// TurnTimeout returns the configured per-turn deadline.
func (c *Config) TurnTimeout() time.Duration {
	return time.Duration(c.Rooms.TurnTimeoutMs) * time.Millisecond
}
