package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port           int    `env:"PORT" envDefault:"8080"`
	DatabaseURL    string `env:"DATABASE_URL,required"`
	RedisURL       string `env:"REDIS_URL,required"`
	AMQPURL        string `env:"AMQP_URL"`
	AdminTokenHash string `env:"ADMIN_TOKEN_HASH"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	NotifyExchange string `env:"NOTIFY_EXCHANGE" envDefault:"order.events"`

	// Conversation tunables. Defaults match production behavior; staging
	// overrides them through the environment.
	RateLimitWindowSeconds int `env:"RATE_LIMIT_WINDOW_SECONDS" envDefault:"60"`
	RateLimitMaxMessages   int `env:"RATE_LIMIT_MAX_MESSAGES" envDefault:"20"`
	OutboundDelayMillis    int `env:"OUTBOUND_DELAY_MILLIS" envDefault:"500"`
	ConversationTTLMinutes int `env:"CONVERSATION_TTL_MINUTES" envDefault:"30"`
	PairingTTLSeconds      int `env:"PAIRING_TTL_SECONDS" envDefault:"60"`
	ReconnectDelaySeconds  int `env:"RECONNECT_DELAY_SECONDS" envDefault:"5"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

func (c *Config) OutboundDelay() time.Duration {
	return time.Duration(c.OutboundDelayMillis) * time.Millisecond
}

func (c *Config) ConversationTTL() time.Duration {
	return time.Duration(c.ConversationTTLMinutes) * time.Minute
}

func (c *Config) PairingTTL() time.Duration {
	return time.Duration(c.PairingTTLSeconds) * time.Second
}

func (c *Config) ReconnectDelay() time.Duration {
	return time.Duration(c.ReconnectDelaySeconds) * time.Second
}

func (c *Config) NotifyEnabled() bool {
	return c.AMQPURL != ""
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
