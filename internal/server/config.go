package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/aldelg/quantummus/internal/deck"
)

// ServerConfig represents the complete server configuration. The server and
// history blocks are pointers so a config file may omit them entirely.
type ServerConfig struct {
	Server  *ServerSettings `hcl:"server,block"`
	Tables  []TableConfig   `hcl:"table,block"`
	History *HistoryConfig  `hcl:"history,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
	LogFile  string `hcl:"log_file,optional"`
}

// TableConfig defines a Mus table
type TableConfig struct {
	Name        string `hcl:"name,label"`
	Mode        string `hcl:"mode,optional"` // "normal" or "8-reyes"
	TargetScore int    `hcl:"target_score,optional"`
	TurnTimeout int    `hcl:"turn_timeout_seconds,optional"`
	AIDelay     int    `hcl:"ai_delay_ms,optional"`
	FillBots    bool   `hcl:"fill_bots,optional"`
	Seed        int64  `hcl:"seed,optional"`
}

// HistoryConfig controls match history persistence
type HistoryConfig struct {
	Enabled bool   `hcl:"enabled,optional"`
	Dir     string `hcl:"dir,optional"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Server: &ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
			LogFile:  "mus-server.log",
		},
		Tables: []TableConfig{
			{
				Name:        "main",
				Mode:        "8-reyes",
				TargetScore: 40,
				TurnTimeout: 30,
				AIDelay:     300,
				FillBots:    true,
			},
		},
		History: &HistoryConfig{
			Enabled: true,
			Dir:     "match-history",
		},
	}
}

// LoadServerConfig loads server configuration from an HCL file. A missing
// file yields the defaults.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	if config.Server == nil {
		config.Server = &ServerSettings{}
	}
	if config.History == nil {
		config.History = &HistoryConfig{}
	}
	if config.Server.Address == "" {
		config.Server.Address = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = "info"
	}
	if config.Server.LogFile == "" {
		config.Server.LogFile = "mus-server.log"
	}

	for i := range config.Tables {
		if config.Tables[i].Mode == "" {
			config.Tables[i].Mode = "8-reyes"
		}
		if config.Tables[i].TargetScore == 0 {
			config.Tables[i].TargetScore = 40
		}
		if config.Tables[i].TurnTimeout == 0 {
			config.Tables[i].TurnTimeout = 30
		}
		if config.Tables[i].AIDelay == 0 {
			config.Tables[i].AIDelay = 300
		}
	}

	if config.History.Dir == "" {
		config.History.Dir = "match-history"
	}

	return &config, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if len(c.Tables) == 0 {
		return fmt.Errorf("at least one table must be configured")
	}

	for _, table := range c.Tables {
		if _, ok := deck.ParseMode(table.Mode); !ok {
			return fmt.Errorf("table %s: invalid mode %q", table.Name, table.Mode)
		}
		if table.TargetScore < 1 {
			return fmt.Errorf("table %s: target score must be positive", table.Name)
		}
		if table.TurnTimeout < 1 {
			return fmt.Errorf("table %s: turn timeout must be positive", table.Name)
		}
	}

	return nil
}

// GetServerAddress returns the full server address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// GetTableByName returns a table configuration by name
func (c *ServerConfig) GetTableByName(name string) *TableConfig {
	for i := range c.Tables {
		if c.Tables[i].Name == name {
			return &c.Tables[i]
		}
	}
	return nil
}
