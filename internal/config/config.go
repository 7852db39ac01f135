// Package config provides Viper-based configuration loading for the stash
// authority and client peers.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/stash/internal/game/grid"
)

// Peer roles accepted by server.mode.
const (
	ModeAuthority = "authority"
	ModeClient    = "client"
)

// ServerConfig holds top-level peer settings.
type ServerConfig struct {
	// Mode is the peer role: "authority" or "client".
	Mode string `mapstructure:"mode"`
	// PeerID identifies this peer as a claim controller and transaction
	// instigator.
	PeerID string `mapstructure:"peer_id"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// GameServerConfig holds gRPC settings. The authority listens on the
// address; clients dial it.
type GameServerConfig struct {
	GRPCHost string `mapstructure:"grpc_host"`
	GRPCPort int    `mapstructure:"grpc_port"`
}

// Addr returns the "host:port" gRPC address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (g GameServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", g.GRPCHost, g.GRPCPort)
}

// TabConfig is one entry of the ordered tab layout.
type TabConfig struct {
	ID     string `mapstructure:"id"`
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
	// SizePolicy is "respect" (default) or "ignore".
	SizePolicy string `mapstructure:"size_policy"`
	// AllowedTypes restricts the tab to item types; empty allows all.
	AllowedTypes []string `mapstructure:"allowed_types"`
	// FilterScript is Lua source defining accepts(item).
	FilterScript string `mapstructure:"filter_script"`
}

// InventoryConfig holds inventory and transaction settings.
type InventoryConfig struct {
	// Containers are the inventory IDs each peer creates, all sharing Tabs.
	Containers    []string      `mapstructure:"containers"`
	HistoryLength int           `mapstructure:"history_length"`
	ClaimTTL      time.Duration `mapstructure:"claim_ttl"`
	// Predictive enables client-side prediction of predictable transactions.
	Predictive             bool        `mapstructure:"predictive"`
	ScriptInstructionLimit int         `mapstructure:"script_instruction_limit"`
	Tabs                   []TabConfig `mapstructure:"tabs"`
}

// ContentConfig locates static content.
type ContentConfig struct {
	// ItemsDir holds item definition YAML files.
	ItemsDir string `mapstructure:"items_dir"`
}

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	GameServer GameServerConfig `mapstructure:"gameserver"`
	Inventory  InventoryConfig  `mapstructure:"inventory"`
	Content    ContentConfig    `mapstructure:"content"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateServer(c.Server); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGameServer(c.GameServer); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateInventory(c.Inventory); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Content.ItemsDir == "" {
		errs = append(errs, "content.items_dir must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	validModes := map[string]bool{ModeAuthority: true, ModeClient: true}
	if !validModes[s.Mode] {
		return fmt.Errorf("server.mode must be one of [authority, client], got %q", s.Mode)
	}
	if s.PeerID == "" {
		return errors.New("server.peer_id must not be empty")
	}
	return nil
}

func validateGameServer(g GameServerConfig) error {
	var errs []string
	if g.GRPCHost == "" {
		errs = append(errs, "gameserver.grpc_host must not be empty")
	}
	if g.GRPCPort < 1 || g.GRPCPort > 65535 {
		errs = append(errs, fmt.Sprintf("gameserver.grpc_port must be 1-65535, got %d", g.GRPCPort))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateInventory(inv InventoryConfig) error {
	var errs []string
	if len(inv.Containers) == 0 {
		errs = append(errs, "inventory.containers must not be empty")
	}
	seenContainer := map[string]bool{}
	for _, id := range inv.Containers {
		if id == "" || seenContainer[id] {
			errs = append(errs, fmt.Sprintf("inventory.containers entry %q must be unique and non-empty", id))
		}
		seenContainer[id] = true
	}
	if inv.HistoryLength < 1 {
		errs = append(errs, fmt.Sprintf("inventory.history_length must be >= 1, got %d", inv.HistoryLength))
	}
	if inv.ClaimTTL < 0 {
		errs = append(errs, "inventory.claim_ttl must not be negative")
	}
	if inv.ScriptInstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("inventory.script_instruction_limit must be >= 0, got %d", inv.ScriptInstructionLimit))
	}
	if len(inv.Tabs) == 0 {
		errs = append(errs, "inventory.tabs must declare at least one tab")
	}
	seenTab := map[string]bool{}
	for i, t := range inv.Tabs {
		if t.ID == "" {
			errs = append(errs, fmt.Sprintf("inventory.tabs[%d].id must not be empty", i))
		} else if seenTab[t.ID] {
			errs = append(errs, fmt.Sprintf("inventory.tabs[%d].id %q is duplicated", i, t.ID))
		}
		seenTab[t.ID] = true
		if t.Width < 1 || t.Height < 1 {
			errs = append(errs, fmt.Sprintf("inventory.tabs[%d] must be at least 1x1, got %dx%d", i, t.Width, t.Height))
		}
		if _, err := grid.ParseSizePolicy(t.SizePolicy); err != nil {
			errs = append(errs, fmt.Sprintf("inventory.tabs[%d].size_policy: %v", i, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with STASH_ prefix
	v.SetEnvPrefix("STASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", "authority")
	v.SetDefault("server.peer_id", "authority")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("gameserver.grpc_host", "127.0.0.1")
	v.SetDefault("gameserver.grpc_port", 50051)

	v.SetDefault("inventory.containers", []string{"backpack"})
	v.SetDefault("inventory.history_length", 25)
	v.SetDefault("inventory.claim_ttl", "30s")
	v.SetDefault("inventory.predictive", true)
	v.SetDefault("inventory.script_instruction_limit", 10000)

	v.SetDefault("content.items_dir", "content/items")
}
