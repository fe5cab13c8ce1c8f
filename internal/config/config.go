// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	storage "github.com/taskstack/todo-service/internal/storage/redis"
	"github.com/taskstack/todo-service/pkg/httpserver"
	"github.com/taskstack/todo-service/pkg/logger"
	"github.com/taskstack/todo-service/pkg/telemetry"
)

// Config describes the runtime parameters of the todo service.
type Config struct {
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`

	Logging   logger.Config     `mapstructure:"logging"`
	Telemetry telemetry.Config  `mapstructure:"telemetry"`
	HTTP      httpserver.Config `mapstructure:"http"`
	Redis     storage.Config    `mapstructure:"redis"`
}

// Load reads configuration from defaults, environment (prefix TODO) and an
// optional YAML file, in that order of increasing precedence.
func Load(path string) (*Config, error) {
	v := viper.New()

	/* ---------- 1) defaults ---------- */

	v.SetDefault("service_name", "todo-service")
	v.SetDefault("service_version", "v1.0.0")

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.dev_mode", false)

	// Telemetry
	v.SetDefault("telemetry.endpoint", "otel-collector:4317")
	v.SetDefault("telemetry.insecure", true)

	// HTTP
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", "10s")
	v.SetDefault("http.write_timeout", "15s")
	v.SetDefault("http.idle_timeout", "60s")
	v.SetDefault("http.shutdown_timeout", "5s")
	v.SetDefault("http.metrics_path", "/metrics")
	v.SetDefault("http.healthz_path", "/healthz")
	v.SetDefault("http.readyz_path", "/readyz")

	// Redis (password is expected to come from ENV when set; the key must
	// be registered for AutomaticEnv to pick it up)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.op_timeout", "5s")

	/* ---------- 2) env ---------- */

	v.SetEnvPrefix("TODO")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	/* ---------- 3) optional file ---------- */

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	/* ---------- 4) decode ---------- */

	var cfg Config
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		func(f, t reflect.Kind, data interface{}) (interface{}, error) {
			if f == reflect.String && t == reflect.Bool {
				return strconv.ParseBool(data.(string))
			}
			return data, nil
		},
	)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "mapstructure",
		Result:     &cfg,
		DecodeHook: decodeHook,
	})
	if err != nil {
		return nil, fmt.Errorf("create config decoder: %w", err)
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	/* ---------- 5) defaults + validate ---------- */

	cfg.Logging.ApplyDefaults()
	cfg.HTTP.ApplyDefaults()
	cfg.Redis.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.ServiceVersion == "" {
		return fmt.Errorf("service_version is required")
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	if err := c.Redis.Validate(); err != nil {
		return err
	}
	return nil
}

// Print dumps the loaded configuration in a readable form.
func (c *Config) Print() {
	b, _ := json.MarshalIndent(c, "", "  ")
	fmt.Println("Loaded configuration:\n", string(b))
}
