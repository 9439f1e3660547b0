package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	DefaultBackendURL = "http://localhost:8864"
	DefaultChatPath   = "/api/v1/chat"
	DefaultHealthPath = "/api/v1/health"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Backend BackendConfig `mapstructure:"backend"`
	CORS    CORSConfig    `mapstructure:"cors"`
	Log     LogConfig     `mapstructure:"log"`
	Render  RenderConfig  `mapstructure:"render"`
	Session SessionConfig `mapstructure:"session"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes" validate:"min=0"`
}

// BackendConfig points at the travel-assistant backend. Timeout 0 means the
// chat call is never cut short on the client side.
type BackendConfig struct {
	BaseURL    string        `mapstructure:"base_url" validate:"required,url"`
	ChatPath   string        `mapstructure:"chat_path" validate:"required,startswith=/"`
	HealthPath string        `mapstructure:"health_path" validate:"required,startswith=/"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=json text"`
}

type RenderConfig struct {
	Style    string `mapstructure:"style" validate:"omitempty,oneof=auto dark light notty ascii"`
	WordWrap int    `mapstructure:"word_wrap" validate:"min=0"`
}

type SessionConfig struct {
	SubscriberBuffer int `mapstructure:"subscriber_buffer" validate:"min=1"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", time.Duration(0))
	v.SetDefault("server.max_header_bytes", 1<<20)

	v.SetDefault("backend.base_url", DefaultBackendURL)
	v.SetDefault("backend.chat_path", DefaultChatPath)
	v.SetDefault("backend.health_path", DefaultHealthPath)
	v.SetDefault("backend.timeout", time.Duration(0))

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept"})
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("render.style", "auto")
	v.SetDefault("render.word_wrap", 100)

	v.SetDefault("session.subscriber_buffer", 16)
}

// Load reads the yaml file at configPath on top of the defaults. A missing
// file is not an error. Environment variables prefixed with MAPCHAT_ win over
// both, e.g. MAPCHAT_BACKEND_BASE_URL.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MAPCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
			}
		}
	}

	loaded := &Config{}
	if err := v.Unmarshal(loaded); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	loaded.Backend.BaseURL = strings.TrimRight(loaded.Backend.BaseURL, "/")

	if err := Validate(loaded); err != nil {
		return nil, err
	}

	return loaded, nil
}

func Validate(c *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ChatURL is the absolute URL of the backend chat endpoint.
func (b BackendConfig) ChatURL() string {
	return b.BaseURL + b.ChatPath
}

func (b BackendConfig) HealthURL() string {
	return b.BaseURL + b.HealthPath
}
