package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"chatrelay/pkg/types"
)

// Config is the system-wide settings coordinator.
type Config struct {
	Catalog   *CatalogConfig   `json:"catalog"`
	HTTP      *HTTPConfig      `json:"http"`
	WebSocket *WebSocketConfig `json:"websocket"`
	Chat      *ChatConfig      `json:"chat"`
}

// CatalogConfig configures the sqlite-backed channel roster.
type CatalogConfig struct {
	Path    string        `json:"path"`
	Timeout time.Duration `json:"timeout"`
}

type HTTPConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

type WebSocketConfig struct {
	PingInterval    time.Duration `json:"ping_interval"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	SendBuffer      int           `json:"send_buffer"`
	MaxMessageBytes int64         `json:"max_message_bytes"`
}

// ChatConfig carries relay behavior knobs.
type ChatConfig struct {
	// DefaultRoom receives messages that name no room.
	DefaultRoom string `json:"default_room"`
	// Channels seeds the catalog on first start.
	Channels []string `json:"channels"`
	// TypingTTL bounds how long a typing indicator survives without a
	// renewed signal.
	TypingTTL time.Duration `json:"typing_ttl"`
	// TypingGlobal broadcasts typing signals to every connection
	// instead of the sender's room. Compatibility option for clients
	// that render one global indicator; leave off.
	TypingGlobal bool `json:"typing_global"`
	// MaxFileBytes caps the encoded size of an in-line file payload.
	MaxFileBytes int `json:"max_file_bytes"`
}

// DefaultConfig returns production defaults: catalog on the local
// filesystem, HTTP on 8080, 4MB frames, room-scoped typing.
func DefaultConfig() *Config {
	return &Config{
		Catalog: &CatalogConfig{
			Path:    "./chatrelay.db",
			Timeout: 30 * time.Second,
		},
		HTTP: &HTTPConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		WebSocket: &WebSocketConfig{
			PingInterval:    30 * time.Second,
			ReadTimeout:     60 * time.Second,
			WriteTimeout:    10 * time.Second,
			SendBuffer:      256,
			MaxMessageBytes: 4 << 20,
		},
		Chat: &ChatConfig{
			DefaultRoom:  "general",
			Channels:     []string{"general", "random"},
			TypingTTL:    3 * time.Second,
			TypingGlobal: false,
			MaxFileBytes: 2 << 20,
		},
	}
}

// Validate catches invalid configurations before component startup.
func (c *Config) Validate() error {
	if c.Catalog == nil {
		return fmt.Errorf("catalog configuration is required")
	}
	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog path cannot be empty")
	}
	if c.Catalog.Timeout <= 0 {
		return fmt.Errorf("catalog timeout must be positive")
	}

	if c.HTTP == nil {
		return fmt.Errorf("HTTP configuration is required")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP port must be between 1 and 65535")
	}
	if c.HTTP.Host == "" {
		return fmt.Errorf("HTTP host cannot be empty")
	}
	if c.HTTP.ReadTimeout <= 0 || c.HTTP.WriteTimeout <= 0 {
		return fmt.Errorf("HTTP timeouts must be positive")
	}

	if c.WebSocket == nil {
		return fmt.Errorf("WebSocket configuration is required")
	}
	if c.WebSocket.PingInterval <= 0 {
		return fmt.Errorf("WebSocket ping interval must be positive")
	}
	if c.WebSocket.ReadTimeout <= c.WebSocket.PingInterval {
		return fmt.Errorf("WebSocket read timeout must exceed the ping interval")
	}
	if c.WebSocket.WriteTimeout <= 0 {
		return fmt.Errorf("WebSocket write timeout must be positive")
	}
	if c.WebSocket.SendBuffer <= 0 {
		return fmt.Errorf("WebSocket send buffer must be positive")
	}
	if c.WebSocket.MaxMessageBytes <= 0 {
		return fmt.Errorf("WebSocket max message bytes must be positive")
	}

	if c.Chat == nil {
		return fmt.Errorf("chat configuration is required")
	}
	if !types.IsValidChannelName(c.Chat.DefaultRoom) {
		return fmt.Errorf("chat default room %q is not a valid channel name", c.Chat.DefaultRoom)
	}
	for _, ch := range c.Chat.Channels {
		if !types.IsValidChannelName(ch) {
			return fmt.Errorf("seed channel %q is not a valid channel name", ch)
		}
	}
	if c.Chat.TypingTTL <= 0 {
		return fmt.Errorf("chat typing TTL must be positive")
	}
	if c.Chat.MaxFileBytes <= 0 {
		return fmt.Errorf("chat max file bytes must be positive")
	}
	if int64(c.Chat.MaxFileBytes) > c.WebSocket.MaxMessageBytes {
		return fmt.Errorf("chat max file bytes cannot exceed WebSocket max message bytes")
	}

	return nil
}

// LoadFromEnv overlays CHATRELAY_* environment variables on defaults.
func LoadFromEnv() *Config {
	config := DefaultConfig()

	if v := os.Getenv("CHATRELAY_HTTP_HOST"); v != "" {
		config.HTTP.Host = v
	}
	if v := os.Getenv("CHATRELAY_HTTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			config.HTTP.Port = p
		}
	}
	if v := os.Getenv("CHATRELAY_HTTP_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.HTTP.ReadTimeout = d
		}
	}
	if v := os.Getenv("CHATRELAY_HTTP_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.HTTP.WriteTimeout = d
		}
	}
	if v := os.Getenv("CHATRELAY_CATALOG_PATH"); v != "" {
		config.Catalog.Path = v
	}
	if v := os.Getenv("CHATRELAY_CATALOG_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Catalog.Timeout = d
		}
	}
	if v := os.Getenv("CHATRELAY_WEBSOCKET_PING_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.WebSocket.PingInterval = d
		}
	}
	if v := os.Getenv("CHATRELAY_WEBSOCKET_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.WebSocket.ReadTimeout = d
		}
	}
	if v := os.Getenv("CHATRELAY_WEBSOCKET_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.WebSocket.WriteTimeout = d
		}
	}
	if v := os.Getenv("CHATRELAY_WEBSOCKET_SEND_BUFFER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.WebSocket.SendBuffer = n
		}
	}
	if v := os.Getenv("CHATRELAY_WEBSOCKET_MAX_MESSAGE_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.WebSocket.MaxMessageBytes = n
		}
	}
	if v := os.Getenv("CHATRELAY_CHAT_DEFAULT_ROOM"); v != "" {
		config.Chat.DefaultRoom = v
	}
	if v := os.Getenv("CHATRELAY_CHAT_CHANNELS"); v != "" {
		config.Chat.Channels = strings.Split(v, ",")
	}
	if v := os.Getenv("CHATRELAY_CHAT_TYPING_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Chat.TypingTTL = d
		}
	}
	if v := os.Getenv("CHATRELAY_CHAT_TYPING_GLOBAL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Chat.TypingGlobal = b
		}
	}
	if v := os.Getenv("CHATRELAY_CHAT_MAX_FILE_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Chat.MaxFileBytes = n
		}
	}

	return config
}

// configFile mirrors Config with string durations for JSON parsing.
type configFile struct {
	Catalog *struct {
		Path    string `json:"path"`
		Timeout string `json:"timeout"`
	} `json:"catalog"`
	HTTP *struct {
		Host         string `json:"host"`
		Port         int    `json:"port"`
		ReadTimeout  string `json:"read_timeout"`
		WriteTimeout string `json:"write_timeout"`
	} `json:"http"`
	WebSocket *struct {
		PingInterval    string `json:"ping_interval"`
		ReadTimeout     string `json:"read_timeout"`
		WriteTimeout    string `json:"write_timeout"`
		SendBuffer      int    `json:"send_buffer"`
		MaxMessageBytes int64  `json:"max_message_bytes"`
	} `json:"websocket"`
	Chat *struct {
		DefaultRoom  string   `json:"default_room"`
		Channels     []string `json:"channels"`
		TypingTTL    string   `json:"typing_ttl"`
		TypingGlobal *bool    `json:"typing_global"`
		MaxFileBytes int      `json:"max_file_bytes"`
	} `json:"chat"`
}

func setDuration(dst *time.Duration, s string) {
	if s == "" {
		return
	}
	if d, err := time.ParseDuration(s); err == nil {
		*dst = d
	}
}

// LoadFromFile overlays a JSON config file on defaults and validates
// the result.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var file configFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	config := DefaultConfig()

	if file.Catalog != nil {
		if file.Catalog.Path != "" {
			config.Catalog.Path = file.Catalog.Path
		}
		setDuration(&config.Catalog.Timeout, file.Catalog.Timeout)
	}
	if file.HTTP != nil {
		if file.HTTP.Host != "" {
			config.HTTP.Host = file.HTTP.Host
		}
		if file.HTTP.Port > 0 {
			config.HTTP.Port = file.HTTP.Port
		}
		setDuration(&config.HTTP.ReadTimeout, file.HTTP.ReadTimeout)
		setDuration(&config.HTTP.WriteTimeout, file.HTTP.WriteTimeout)
	}
	if file.WebSocket != nil {
		if file.WebSocket.SendBuffer > 0 {
			config.WebSocket.SendBuffer = file.WebSocket.SendBuffer
		}
		if file.WebSocket.MaxMessageBytes > 0 {
			config.WebSocket.MaxMessageBytes = file.WebSocket.MaxMessageBytes
		}
		setDuration(&config.WebSocket.PingInterval, file.WebSocket.PingInterval)
		setDuration(&config.WebSocket.ReadTimeout, file.WebSocket.ReadTimeout)
		setDuration(&config.WebSocket.WriteTimeout, file.WebSocket.WriteTimeout)
	}
	if file.Chat != nil {
		if file.Chat.DefaultRoom != "" {
			config.Chat.DefaultRoom = file.Chat.DefaultRoom
		}
		if len(file.Chat.Channels) > 0 {
			config.Chat.Channels = file.Chat.Channels
		}
		if file.Chat.TypingGlobal != nil {
			config.Chat.TypingGlobal = *file.Chat.TypingGlobal
		}
		if file.Chat.MaxFileBytes > 0 {
			config.Chat.MaxFileBytes = file.Chat.MaxFileBytes
		}
		setDuration(&config.Chat.TypingTTL, file.Chat.TypingTTL)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}

	return config, nil
}

// LoadConfigWithPrecedence resolves configuration as file > environment
// > defaults. File errors fall back silently to the environment layer.
func LoadConfigWithPrecedence(path string) *Config {
	config := LoadFromEnv()

	if path != "" {
		if fileConfig, err := LoadFromFile(path); err == nil {
			config = fileConfig
		}
	}

	return config
}
