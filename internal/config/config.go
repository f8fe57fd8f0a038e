package config

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// DefaultUserAgent is the default User-Agent string sent with all HTTP requests.
const DefaultUserAgent = "PodnapisiClient/2.0 (+https://github.com/Belphemur/PodnapisiClient)"

// DefaultPodnapisiDomain is the catalog base URL used when none is configured.
const DefaultPodnapisiDomain = "https://www.podnapisi.net"

// DefaultMaxEntityChars caps the characters DTD entity expansion may produce in one search response.
const DefaultMaxEntityChars = 1024

type Config struct {
	ProxyConnectionString string `mapstructure:"proxy_connection_string"`
	PodnapisiDomain       string `mapstructure:"podnapisi_domain"`
	ClientTimeout         string `mapstructure:"client_timeout"` // Go duration string like "30s", "1h", etc.
	UserAgent             string `mapstructure:"user_agent"`
	LogLevel              string `mapstructure:"log_level"`
	Retry                 struct {
		MaxRetries int    `mapstructure:"max_retries"` // 0 disables the retry policy
		Backoff    string `mapstructure:"backoff"`     // Go duration string, initial delay between attempts
	} `mapstructure:"retry"`
	Parser struct {
		MaxEntityChars int `mapstructure:"max_entity_chars"`
	} `mapstructure:"parser"`
	Metrics struct {
		Textfile string `mapstructure:"textfile"` // node_exporter textfile path, empty disables export
	} `mapstructure:"metrics"`
}

var (
	globalConfig *Config
	logger       zerolog.Logger
)

func init() {
	// Initialize zerolog with console writer for human-readable output.
	// Logs go to stderr so CLI output on stdout stays machine readable.
	logger = zerolog.New(zerolog.ConsoleWriter{
		Out:     os.Stderr,
		NoColor: false,
	}).With().Timestamp().Logger()

	config, err := LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	level := zerolog.InfoLevel
	if config.LogLevel != "" {
		if parsedLevel, err := zerolog.ParseLevel(config.LogLevel); err == nil {
			level = parsedLevel
		} else {
			logger.Warn().Str("invalid_level", config.LogLevel).Msg("Invalid log level, using default 'info'")
		}
	}

	zerolog.SetGlobalLevel(level)
	logger = logger.Level(level)

	logger.Debug().Str("level", level.String()).Msg("Logging configured")
	globalConfig = config
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variable support
	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	_ = viper.BindEnv("log_level", "LOG_LEVEL")

	viper.SetDefault("podnapisi_domain", DefaultPodnapisiDomain)
	viper.SetDefault("client_timeout", "30s")
	viper.SetDefault("retry.max_retries", 0)
	viper.SetDefault("retry.backoff", "1s")
	viper.SetDefault("parser.max_entity_chars", DefaultMaxEntityChars)
	viper.SetDefault("metrics.textfile", "")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}

	return &config, nil
}

func GetConfig() *Config {
	return globalConfig
}

func GetUserAgent() string {
	if globalConfig != nil && globalConfig.UserAgent != "" {
		return globalConfig.UserAgent
	}

	return DefaultUserAgent
}

func GetLogger() zerolog.Logger {
	return logger
}

// SetLevel overrides the configured log level, used by the CLI --verbose flag.
func SetLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
	logger = logger.Level(level)
}
