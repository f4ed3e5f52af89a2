package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Extractor   ExtractorConfig   `mapstructure:"extractor"`
	Database    DatabaseConfig    `mapstructure:"database"`
	AI          AIConfig          `mapstructure:"ai"`
	Application ApplicationConfig `mapstructure:"application"`
}

type ExtractorConfig struct {
	DefaultInput string `mapstructure:"default_input"`
	Format       string `mapstructure:"format"`
}

type ApplicationConfig struct {
	Name        string        `mapstructure:"name"`
	Version     string        `mapstructure:"version"`
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	CORSOrigins []string      `mapstructure:"cors_origins"`
	Storage     StorageConfig `mapstructure:"storage"`
}

type StorageConfig struct {
	// Stage is watched for new presentations.
	Stage string `mapstructure:"stage"`
	// Archive receives processed presentations; empty leaves them in Stage.
	Archive string `mapstructure:"archive"`
	Uploads string `mapstructure:"uploads"`
}

type AIConfig struct {
	ActiveProvider string                      `mapstructure:"active_provider"`
	Providers      map[string]ProviderSettings `mapstructure:"providers"`
}

type ProviderSettings struct {
	Driver      string  `mapstructure:"driver"`
	Key         string  `mapstructure:"key"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// Active returns the settings of the active provider and whether a key is configured.
func (c *AIConfig) Active() (ProviderSettings, bool) {
	p, ok := c.Providers[c.ActiveProvider]
	if !ok || p.Key == "" {
		return ProviderSettings{}, false
	}
	return p, true
}

type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Options  string `mapstructure:"options"`
}

// IsConfigured reports whether enough is set to open a connection.
func (c *DatabaseConfig) IsConfigured() bool {
	return c.URL != "" || (c.Host != "" && c.DBName != "")
}

func (c *DatabaseConfig) GetConnectStr() string {
	if c.URL != "" {
		return c.URL
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	port := c.Port
	if port == "" {
		port = "5432"
	}

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, port, c.DBName, sslmode)

	if c.Options != "" {
		encodedOptions := strings.ReplaceAll(c.Options, " ", "%20")
		connStr += fmt.Sprintf("&options=%s", encodedOptions)
	}

	return connStr
}

// LoadConfig reads .env, then configFile (config.yaml when empty), then the environment.
func LoadConfig(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: .env file not found, using system environment variables")
	}

	v := viper.New()
	explicit := configFile != ""
	if !explicit {
		configFile = "config.yaml"
	}
	v.SetConfigFile(configFile)
	v.AutomaticEnv()

	mappings := []struct {
		key, env string
	}{
		{"extractor.default_input", "SLIDETEXT_INPUT"},
		{"extractor.format", "SLIDETEXT_FORMAT"},

		{"database.url", "DB_URL"},
		{"database.host", "PG_HOST"},
		{"database.port", "PG_PORT"},
		{"database.user", "PG_USER"},
		{"database.password", "PG_PASSWORD"},
		{"database.dbname", "PG_DB"},
		{"database.sslmode", "PG_SSLMODE"},
		{"database.options", "PG_OPTIONS"},

		{"application.host", "HOST"},
		{"application.port", "PORT"},
		{"application.storage.stage", "STORAGE_STAGE"},
		{"application.storage.archive", "STORAGE_ARCHIVE"},
		{"application.storage.uploads", "STORAGE_UPLOADS"},

		{"ai.active_provider", "AI_PROVIDER"},
		{"ai.providers.gemini.key", "GEMINI_KEY"},
		{"ai.providers.gemini.model", "GEMINI_MODEL"},
	}

	for _, m := range mappings {
		v.BindEnv(m.key, m.env)
	}

	v.SetDefault("extractor.default_input", "data/inputs/Intro to Java.pptx")
	v.SetDefault("extractor.format", "text")
	v.SetDefault("application.name", "SlideText")
	v.SetDefault("application.version", "dev")
	v.SetDefault("application.host", "localhost")
	v.SetDefault("application.port", 8080)
	v.SetDefault("application.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("application.storage.stage", "data/stage")
	v.SetDefault("application.storage.uploads", "data/uploads")
	v.SetDefault("ai.active_provider", "gemini")
	v.SetDefault("ai.providers.gemini.driver", "gemini")
	v.SetDefault("ai.providers.gemini.model", "gemini-1.5-flash")

	if err := v.ReadInConfig(); err != nil && explicit {
		return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.AI.ActiveProvider == "" {
		cfg.AI.ActiveProvider = "gemini"
	}

	return &cfg, nil
}
