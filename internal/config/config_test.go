package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{
			Mode:   "authority",
			PeerID: "authority",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		GameServer: GameServerConfig{
			GRPCHost: "127.0.0.1",
			GRPCPort: 50051,
		},
		Inventory: InventoryConfig{
			Containers:             []string{"backpack"},
			HistoryLength:          25,
			ClaimTTL:               30 * time.Second,
			Predictive:             true,
			ScriptInstructionLimit: 10000,
			Tabs: []TabConfig{
				{ID: "main", Width: 8, Height: 6},
				{ID: "hotbar", Width: 6, Height: 1, SizePolicy: "ignore"},
			},
		},
		Content: ContentConfig{ItemsDir: "content/items"},
	}
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestGameServerAddr(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "127.0.0.1:50051", cfg.GameServer.Addr())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	err := os.WriteFile(path, []byte(`
server:
  mode: client
  peer_id: alice
logging:
  level: debug
  format: console
gameserver:
  grpc_host: 10.0.0.5
  grpc_port: 6000
inventory:
  containers: [backpack, stash]
  history_length: 10
  claim_ttl: 5s
  predictive: false
  tabs:
    - id: main
      width: 6
      height: 4
    - id: weapons
      width: 4
      height: 2
      allowed_types: [weapon]
      filter_script: |
        function accepts(item) return item.width <= 4 end
    - id: hotbar
      width: 5
      height: 1
      size_policy: ignore
content:
  items_dir: /srv/items
`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "client", cfg.Server.Mode)
	assert.Equal(t, "alice", cfg.Server.PeerID)
	assert.Equal(t, "10.0.0.5:6000", cfg.GameServer.Addr())
	assert.Equal(t, []string{"backpack", "stash"}, cfg.Inventory.Containers)
	assert.Equal(t, 10, cfg.Inventory.HistoryLength)
	assert.Equal(t, 5*time.Second, cfg.Inventory.ClaimTTL)
	assert.False(t, cfg.Inventory.Predictive)
	require.Len(t, cfg.Inventory.Tabs, 3)
	assert.Equal(t, []string{"weapon"}, cfg.Inventory.Tabs[1].AllowedTypes)
	assert.Contains(t, cfg.Inventory.Tabs[1].FilterScript, "function accepts")
	assert.Equal(t, "ignore", cfg.Inventory.Tabs[2].SizePolicy)
	assert.Equal(t, 10000, cfg.Inventory.ScriptInstructionLimit, "default applies")
}

func TestLoadInvalidPath(t *testing.T) {
	_, err := Load("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
inventory:
  tabs:
    - id: main
      width: 2
      height: 2
`), 0644))
	t.Setenv("STASH_GAMESERVER_GRPC_PORT", "7001")
	t.Setenv("STASH_SERVER_PEER_ID", "bob")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.GameServer.GRPCPort)
	assert.Equal(t, "bob", cfg.Server.PeerID)
	assert.Equal(t, 25, cfg.Inventory.HistoryLength)
}

func TestLoadFromViper(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("inventory.tabs", []map[string]any{{"id": "main", "width": 3, "height": 3}})
	cfg, err := LoadFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "authority", cfg.Server.Mode)
	assert.Equal(t, 30*time.Second, cfg.Inventory.ClaimTTL)
}

func TestValidateServerMode(t *testing.T) {
	for _, mode := range []string{"authority", "client"} {
		cfg := validConfig()
		cfg.Server.Mode = mode
		assert.NoError(t, cfg.Validate(), "mode %q should be valid", mode)
	}
	cfg := validConfig()
	cfg.Server.Mode = "standalone"
	assert.Error(t, cfg.Validate())
}

func TestValidatePeerIDEmpty(t *testing.T) {
	cfg := validConfig()
	cfg.Server.PeerID = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateLogging(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "verbose"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Logging.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestValidateInventory(t *testing.T) {
	cases := map[string]func(c *Config){
		"no containers":       func(c *Config) { c.Inventory.Containers = nil },
		"duplicate container": func(c *Config) { c.Inventory.Containers = []string{"a", "a"} },
		"zero history":        func(c *Config) { c.Inventory.HistoryLength = 0 },
		"negative ttl":        func(c *Config) { c.Inventory.ClaimTTL = -time.Second },
		"negative limit":      func(c *Config) { c.Inventory.ScriptInstructionLimit = -1 },
		"no tabs":             func(c *Config) { c.Inventory.Tabs = nil },
		"empty tab id":        func(c *Config) { c.Inventory.Tabs[0].ID = "" },
		"duplicate tab":       func(c *Config) { c.Inventory.Tabs[1].ID = "main" },
		"zero width":          func(c *Config) { c.Inventory.Tabs[0].Width = 0 },
		"bad size policy":     func(c *Config) { c.Inventory.Tabs[0].SizePolicy = "shrink" },
		"no items dir":        func(c *Config) { c.Content.ItemsDir = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_ReportsAllViolations(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Mode = "bogus"
	cfg.GameServer.GRPCPort = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.mode")
	assert.Contains(t, err.Error(), "gameserver.grpc_port")
	assert.Contains(t, err.Error(), "; ")
}

func TestPropertyGRPCPortValidation(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		port := rapid.IntRange(-1000, 70000).Draw(rt, "port")
		cfg := validConfig()
		cfg.GameServer.GRPCPort = port
		err := cfg.Validate()
		if port >= 1 && port <= 65535 {
			if err != nil {
				rt.Fatalf("port %d should be valid: %v", port, err)
			}
		} else if err == nil {
			rt.Fatalf("port %d should be invalid", port)
		}
	})
}
