package util

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

type Config struct {
	Port           string        `mapstructure:"PORT" validate:"required,number"`
	AllowedOrigins []string      `mapstructure:"ALLOWED_ORIGINS"`
	StaticDir      string        `mapstructure:"STATIC_DIR"`
	LogLevel       string        `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat      string        `mapstructure:"LOG_FORMAT" validate:"oneof=json console"`
	ReadLimit      int64         `mapstructure:"WS_READ_LIMIT" validate:"gt=0"`
	PongWait       time.Duration `mapstructure:"WS_PONG_WAIT" validate:"gt=0"`
	WriteWait      time.Duration `mapstructure:"WS_WRITE_WAIT" validate:"gt=0"`
	EgressBuffer   int           `mapstructure:"WS_EGRESS_BUFFER" validate:"gt=0"`
}

// PingInterval is how often the server pings a connection. It must stay below
// PongWait or healthy clients would time out.
func (c *Config) PingInterval() time.Duration {
	return (c.PongWait * 9) / 10
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%v", c.Port)
}

func LoadConfig() (*Config, error) {
	godotenv.Load()

	readLimit, err := strconv.ParseInt(getEnv("WS_READ_LIMIT", "512"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing WS_READ_LIMIT: %w", err)
	}

	pongWait, err := time.ParseDuration(getEnv("WS_PONG_WAIT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("parsing WS_PONG_WAIT: %w", err)
	}

	writeWait, err := time.ParseDuration(getEnv("WS_WRITE_WAIT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("parsing WS_WRITE_WAIT: %w", err)
	}

	egressBuffer, err := strconv.Atoi(getEnv("WS_EGRESS_BUFFER", "16"))
	if err != nil {
		return nil, fmt.Errorf("parsing WS_EGRESS_BUFFER: %w", err)
	}

	config := &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
		StaticDir:      os.Getenv("STATIC_DIR"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		ReadLimit:      readLimit,
		PongWait:       pongWait,
		WriteWait:      writeWait,
		EgressBuffer:   egressBuffer,
	}

	if Validate == nil {
		InitValidator()
	}

	if err := Validate.Struct(config); err != nil {
		return nil, err
	}

	return config, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	parts := lo.Map(strings.Split(s, ","), func(item string, _ int) string {
		return strings.TrimSpace(item)
	})

	return lo.Filter(parts, func(item string, _ int) bool {
		return item != ""
	})
}
