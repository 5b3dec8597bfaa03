package internal

import (
	"fmt"
	"net/url"
	"time"
)

type Config struct {
	ServerURL       string        `env:"SERVER_URL,required=true"`
	WebsocketURL    string        `env:"WEBSOCKET_URL,required=true"`
	Username        string        `env:"CHAT_USERNAME,required=true"`
	LogLevel        string        `env:"LOG_LEVEL,required=true"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,required=true"`
	TypingTimeout   time.Duration `env:"TYPING_TIMEOUT"`
	DebugPort       int           `env:"DEBUG_PORT"`
}

// Validate catches URL mistakes before any dial attempt.
func (c Config) Validate() error {
	server, err := url.Parse(c.ServerURL)
	if err != nil || server.Scheme == "" {
		return fmt.Errorf("SERVER_URL must be an absolute http(s) URL, got %q", c.ServerURL)
	}
	ws, err := url.Parse(c.WebsocketURL)
	if err != nil || (ws.Scheme != "ws" && ws.Scheme != "wss") {
		return fmt.Errorf("WEBSOCKET_URL must be a ws(s) URL, got %q", c.WebsocketURL)
	}
	return nil
}
