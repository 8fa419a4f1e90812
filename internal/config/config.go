package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Hardware  HardwareConfig  `yaml:"hardware"`
	Network   NetworkConfig   `yaml:"network"`
	Transport TransportConfig `yaml:"transport"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	MaxConnections int      `yaml:"max_connections"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// HardwareConfig names the pins as the host driver registry knows them
// (e.g. "GPIO17" on a Raspberry Pi).
type HardwareConfig struct {
	Driver     string    `yaml:"driver"`
	Left       [2]string `yaml:"left"`
	Right      [2]string `yaml:"right"`
	UsersLED   string    `yaml:"users_led"`
	NoUsersLED string    `yaml:"no_users_led"`
}

type NetworkConfig struct {
	Interface string `yaml:"interface"`
}

type TransportConfig struct {
	PingInterval time.Duration `yaml:"ping_interval"`
	PongTimeout  time.Duration `yaml:"pong_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	SendBuffer   int           `yaml:"send_buffer"`
	EventQueue   int           `yaml:"event_queue"`
}

const (
	DriverGPIO = "gpio"
	DriverSim  = "sim"
)

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 3000,
			Host: "0.0.0.0",
		},
		Hardware: HardwareConfig{
			Driver:     DriverGPIO,
			Left:       [2]string{"GPIO17", "GPIO18"},
			Right:      [2]string{"GPIO22", "GPIO23"},
			UsersLED:   "GPIO24",
			NoUsersLED: "GPIO25",
		},
		Network: NetworkConfig{
			Interface: "wlan0",
		},
		Transport: TransportConfig{
			PingInterval: 30 * time.Second,
			PongTimeout:  60 * time.Second,
			WriteTimeout: 10 * time.Second,
			SendBuffer:   64,
			EventQueue:   256,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.Server.MaxConnections < 0 {
		return fmt.Errorf("%w: server.max_connections must not be negative", ErrInvalidConfig)
	}

	switch c.Hardware.Driver {
	case DriverGPIO, DriverSim:
	default:
		return fmt.Errorf("%w: unknown hardware.driver %q", ErrInvalidConfig, c.Hardware.Driver)
	}

	if c.Hardware.Driver == DriverGPIO {
		seen := make(map[string]bool)
		for _, name := range c.Hardware.Pins() {
			if name == "" {
				return fmt.Errorf("%w: empty pin name", ErrInvalidConfig)
			}
			if seen[name] {
				return fmt.Errorf("%w: pin %q assigned twice", ErrInvalidConfig, name)
			}
			seen[name] = true
		}
	}

	t := c.Transport
	if t.PingInterval <= 0 || t.PongTimeout <= 0 || t.WriteTimeout <= 0 {
		return fmt.Errorf("%w: transport timeouts must be positive", ErrInvalidConfig)
	}
	if t.PongTimeout <= t.PingInterval {
		return fmt.Errorf("%w: transport.pong_timeout must exceed ping_interval", ErrInvalidConfig)
	}
	if t.SendBuffer <= 0 || t.EventQueue <= 0 {
		return fmt.Errorf("%w: transport buffers must be positive", ErrInvalidConfig)
	}
	return nil
}

// Pins lists every configured pin name: left pair, right pair, then LEDs.
func (h HardwareConfig) Pins() []string {
	return []string{h.Left[0], h.Left[1], h.Right[0], h.Right[1], h.UsersLED, h.NoUsersLED}
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
