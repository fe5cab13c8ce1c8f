// internal/storage/redis/config.go
package redis

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/taskstack/todo-service/pkg/backoff"
)

// Config holds the connection parameters for the todo store.
type Config struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"` // empty → skip AUTH
	DB       int    `mapstructure:"db"`

	// OpTimeout bounds every storage operation; a hung command resolves
	// with ErrTimeout instead of hanging the caller. Zero → no limit.
	OpTimeout time.Duration `mapstructure:"op_timeout"`

	Backoff backoff.Config `mapstructure:"backoff"`
}

func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 6379
	}
	if c.OpTimeout == 0 {
		c.OpTimeout = 5 * time.Second
	}
}

func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("redis: host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("redis: port must be between 1 and 65535")
	}
	if c.DB < 0 {
		return fmt.Errorf("redis: db must be >= 0")
	}
	return nil
}

// Addr returns the host:port dial address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
