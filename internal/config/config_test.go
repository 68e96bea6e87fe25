package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() error: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing catalog", mutate: func(c *Config) { c.Catalog = nil }},
		{name: "empty catalog path", mutate: func(c *Config) { c.Catalog.Path = "" }},
		{name: "zero catalog timeout", mutate: func(c *Config) { c.Catalog.Timeout = 0 }},
		{name: "missing http", mutate: func(c *Config) { c.HTTP = nil }},
		{name: "port zero", mutate: func(c *Config) { c.HTTP.Port = 0 }},
		{name: "port too large", mutate: func(c *Config) { c.HTTP.Port = 70000 }},
		{name: "empty host", mutate: func(c *Config) { c.HTTP.Host = "" }},
		{name: "missing websocket", mutate: func(c *Config) { c.WebSocket = nil }},
		{name: "zero ping interval", mutate: func(c *Config) { c.WebSocket.PingInterval = 0 }},
		{
			name: "read timeout below ping interval",
			mutate: func(c *Config) {
				c.WebSocket.PingInterval = time.Minute
				c.WebSocket.ReadTimeout = 30 * time.Second
			},
		},
		{name: "zero send buffer", mutate: func(c *Config) { c.WebSocket.SendBuffer = 0 }},
		{name: "missing chat", mutate: func(c *Config) { c.Chat = nil }},
		{name: "invalid default room", mutate: func(c *Config) { c.Chat.DefaultRoom = "has space" }},
		{name: "private id as seed channel", mutate: func(c *Config) { c.Chat.Channels = []string{"alice#bob"} }},
		{name: "zero typing ttl", mutate: func(c *Config) { c.Chat.TypingTTL = 0 }},
		{name: "zero max file bytes", mutate: func(c *Config) { c.Chat.MaxFileBytes = 0 }},
		{
			name: "file cap above frame cap",
			mutate: func(c *Config) {
				c.WebSocket.MaxMessageBytes = 1024
				c.Chat.MaxFileBytes = 2048
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			config := DefaultConfig()
			tc.mutate(config)
			if err := config.Validate(); err == nil {
				t.Error("Validate() accepted an invalid configuration")
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CHATRELAY_HTTP_PORT", "9999")
	t.Setenv("CHATRELAY_CATALOG_PATH", "/tmp/roster.db")
	t.Setenv("CHATRELAY_CHAT_DEFAULT_ROOM", "lobby")
	t.Setenv("CHATRELAY_CHAT_CHANNELS", "lobby,dev,ops")
	t.Setenv("CHATRELAY_CHAT_TYPING_TTL", "5s")
	t.Setenv("CHATRELAY_CHAT_TYPING_GLOBAL", "true")

	config := LoadFromEnv()

	if config.HTTP.Port != 9999 {
		t.Errorf("Port = %d, want 9999", config.HTTP.Port)
	}
	if config.Catalog.Path != "/tmp/roster.db" {
		t.Errorf("Catalog.Path = %q", config.Catalog.Path)
	}
	if config.Chat.DefaultRoom != "lobby" {
		t.Errorf("DefaultRoom = %q, want lobby", config.Chat.DefaultRoom)
	}
	if len(config.Chat.Channels) != 3 || config.Chat.Channels[1] != "dev" {
		t.Errorf("Channels = %v, want [lobby dev ops]", config.Chat.Channels)
	}
	if config.Chat.TypingTTL != 5*time.Second {
		t.Errorf("TypingTTL = %v, want 5s", config.Chat.TypingTTL)
	}
	if !config.Chat.TypingGlobal {
		t.Error("TypingGlobal = false, want true")
	}
}

func TestLoadFromEnv_InvalidValuesIgnored(t *testing.T) {
	t.Setenv("CHATRELAY_HTTP_PORT", "not-a-port")
	t.Setenv("CHATRELAY_CHAT_TYPING_TTL", "forever")

	config := LoadFromEnv()

	if config.HTTP.Port != DefaultConfig().HTTP.Port {
		t.Errorf("Port = %d, want default", config.HTTP.Port)
	}
	if config.Chat.TypingTTL != DefaultConfig().Chat.TypingTTL {
		t.Errorf("TypingTTL = %v, want default", config.Chat.TypingTTL)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"http": {"port": 7070, "read_timeout": "45s"},
		"catalog": {"path": "/data/roster.db"},
		"chat": {"default_room": "lobby", "typing_global": true, "max_file_bytes": 1024}
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}

	if config.HTTP.Port != 7070 {
		t.Errorf("Port = %d, want 7070", config.HTTP.Port)
	}
	if config.HTTP.ReadTimeout != 45*time.Second {
		t.Errorf("ReadTimeout = %v, want 45s", config.HTTP.ReadTimeout)
	}
	if config.Catalog.Path != "/data/roster.db" {
		t.Errorf("Catalog.Path = %q", config.Catalog.Path)
	}
	if !config.Chat.TypingGlobal {
		t.Error("TypingGlobal = false, want true")
	}
	if config.Chat.MaxFileBytes != 1024 {
		t.Errorf("MaxFileBytes = %d, want 1024", config.Chat.MaxFileBytes)
	}
	// Sections the file does not mention keep their defaults.
	if config.WebSocket.PingInterval != DefaultConfig().WebSocket.PingInterval {
		t.Errorf("PingInterval = %v, want default", config.WebSocket.PingInterval)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("LoadFromFile() on a missing file returned no error")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte(`{"http":`), 0o644)
	if _, err := LoadFromFile(path); err == nil {
		t.Error("LoadFromFile() on malformed JSON returned no error")
	}

	path = filepath.Join(t.TempDir(), "invalid.json")
	os.WriteFile(path, []byte(`{"chat": {"default_room": "has space"}}`), 0o644)
	if _, err := LoadFromFile(path); err == nil {
		t.Error("LoadFromFile() accepted a config that fails validation")
	}
}

func TestLoadConfigWithPrecedence(t *testing.T) {
	t.Setenv("CHATRELAY_HTTP_PORT", "9999")

	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte(`{"http": {"port": 7070}}`), 0o644)

	// The file wins over the environment.
	config := LoadConfigWithPrecedence(path)
	if config.HTTP.Port != 7070 {
		t.Errorf("Port = %d, want 7070 from file", config.HTTP.Port)
	}

	// A broken file falls back to the environment layer.
	config = LoadConfigWithPrecedence(filepath.Join(t.TempDir(), "missing.json"))
	if config.HTTP.Port != 9999 {
		t.Errorf("Port = %d, want 9999 from environment", config.HTTP.Port)
	}
}
