package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Caption  CaptionConfig  `mapstructure:"caption"`
	Annotate AnnotateConfig `mapstructure:"annotate"`
	Render   RenderConfig   `mapstructure:"render"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type CatalogConfig struct {
	SchemaPath string `mapstructure:"schema_path"`
	ImageDir   string `mapstructure:"image_dir"`
	TopicDir   string `mapstructure:"topic_dir"`
}

type CaptionConfig struct {
	Model          string  `mapstructure:"model"`
	APIKey         string  `mapstructure:"api_key"`
	BaseURL        string  `mapstructure:"base_url"`
	Temperature    float32 `mapstructure:"temperature"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	MaxRetries     int     `mapstructure:"max_retries"`
}

// Timeout returns the caption API timeout as a duration.
func (c *CaptionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type AnnotateConfig struct {
	Model string `mapstructure:"model"`
}

type RenderConfig struct {
	JPEGQuality int `mapstructure:"jpeg_quality"`
	StrokeWidth int `mapstructure:"stroke_width"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	// Set config file path
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("catalog.schema_path", "./memedb.jsonl")
	v.SetDefault("catalog.image_dir", "./meme_templates")
	v.SetDefault("catalog.topic_dir", "./meme_briefs")
	v.SetDefault("caption.model", "gpt-3.5-turbo")
	v.SetDefault("caption.base_url", "https://api.openai.com/v1")
	v.SetDefault("caption.temperature", 0.8)
	v.SetDefault("caption.max_tokens", 500)
	v.SetDefault("caption.timeout_seconds", 30)
	v.SetDefault("caption.max_retries", 2)
	v.SetDefault("annotate.model", "gpt-4o")
	v.SetDefault("render.jpeg_quality", 90)
	v.SetDefault("render.stroke_width", 2)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("caption.api_key", "OPENAI_API_KEY")
	v.BindEnv("caption.base_url", "OPENAI_BASE_URL")
	v.BindEnv("caption.model", "CAPTION_MODEL")
	v.BindEnv("annotate.model", "ANNOTATE_MODEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
