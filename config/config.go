package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"termdeck/log"
)

const (
	ConfigFileName = "config.json"
	StateFileName  = "state.json"
)

// GetConfigDir returns the path to the application's configuration directory
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config home directory: %w", err)
	}
	return filepath.Join(homeDir, ".termdeck"), nil
}

// AccelerationConfig tunes the accelerated-render context pool.
type AccelerationConfig struct {
	// Disabled forces the unaccelerated fallback path for every session.
	Disabled bool `json:"disabled"`
	// MaxContexts is the hard ceiling on concurrently accelerated sessions.
	// Environment hints are clamped to this value because hint-reported limits
	// are unreliable upper bounds, not guarantees. 0 means use the built-in default.
	MaxContexts int `json:"max_contexts"`
	// VendorDenylist adds GPU vendor ids (hex, e.g. "0x15ad") to the built-in
	// denylist of vendors known to mishandle context loss.
	VendorDenylist []string `json:"vendor_denylist"`
}

// Config represents the application configuration
type Config struct {
	// DefaultProgram is the default program to run in new sessions
	DefaultProgram string `json:"default_program"`
	// MouseEnabled turns on mouse support in the TUI.
	MouseEnabled bool `json:"mouse_enabled"`
	// Acceleration tunes the accelerated-render context pool.
	Acceleration AccelerationConfig `json:"acceleration"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	return &Config{
		DefaultProgram: shell,
		MouseEnabled:   true,
	}
}

// LoadConfig loads the configuration from disk. If it cannot be done, we return the default configuration.
func LoadConfig() *Config {
	configDir, err := GetConfigDir()
	if err != nil {
		log.ErrorLog.Printf("failed to get config directory: %v", err)
		return DefaultConfig()
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Create and save default config if file doesn't exist
			defaultCfg := DefaultConfig()
			if saveErr := saveConfig(defaultCfg); saveErr != nil {
				log.WarningLog.Printf("failed to save default config: %v", saveErr)
			}
			return defaultCfg
		}

		log.WarningLog.Printf("failed to get config file: %v", err)
		return DefaultConfig()
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		log.ErrorLog.Printf("failed to parse config file: %v", err)
		return DefaultConfig()
	}
	if config.DefaultProgram == "" {
		config.DefaultProgram = DefaultConfig().DefaultProgram
	}

	return &config
}

// saveConfig saves the configuration to disk
func saveConfig(config *Config) error {
	configDir, err := GetConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// SaveConfig exports the saveConfig function for use by other packages
func SaveConfig(config *Config) error {
	return saveConfig(config)
}
