package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("httpdeco version %s, commit %s, built at %s", version, commit, date)
}

type Config struct {
	Server      ServerConfig   `mapstructure:"server"`
	Logging     LoggingConfig  `mapstructure:"logging"`
	Endpoint    EndpointConfig `mapstructure:"endpoint"`
	CatalogFile string         `mapstructure:"catalog_file"`
	SwaggerFile string         `mapstructure:"swagger_file"`
	Reload      ReloadConfig   `mapstructure:"reload"`

	// SelectionFile restricts and re-describes the operations imported from SwaggerFile.
	SelectionFile string `mapstructure:"selection_file"`

	// Defaults is the request configuration fragment merged into the process-wide registry at start-up.
	// It is read straight from the YAML file since viper folds key case and request keys such as
	// baseURL are case sensitive.
	Defaults map[string]any `mapstructure:"-"`
	// File is the config file that was loaded, empty when none was found.
	File string `mapstructure:"-"`
}

// AuthType represents the type of authentication to use
type AuthType string

const (
	AuthTypeNone   AuthType = "none"
	AuthTypeBasic  AuthType = "basic"
	AuthTypeBearer AuthType = "bearer"
	AuthTypeAPIKey AuthType = "api_key"
)

type EndpointConfig struct {
	BaseURL    string            `json:"base_url" mapstructure:"base_url"`
	AuthType   AuthType          `json:"auth_type" mapstructure:"auth_type"`
	AuthConfig map[string]string `json:"auth_config" mapstructure:"auth_config"`
	Headers    map[string]string `json:"headers" mapstructure:"headers"`
	// Timeout bounds every outbound request, e.g. "30s". Per-call timeouts in the request
	// configuration take precedence.
	Timeout string `json:"timeout" mapstructure:"timeout"`
}

type ServerMode string

const (
	ServerModeSTDIO ServerMode = "stdio"
	ServerModeHTTP  ServerMode = "http"
)

type ServerConfig struct {
	Port        int        `mapstructure:"port"`
	Host        string     `mapstructure:"host"`
	Mode        ServerMode `mapstructure:"mode"`
	Name        string     `mapstructure:"name"`
	Version     string     `mapstructure:"version"`
	MetricsPath string     `mapstructure:"metrics_path"`
}

type LoggingConfig struct {
	Level             string `mapstructure:"level"`
	Format            string `mapstructure:"format"`
	Color             bool   `mapstructure:"color"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file"`
	DisableConsole    bool   `mapstructure:"disable_console"`
	MaxSizeMB         int    `mapstructure:"max_size_mb"`
	MaxBackups        int    `mapstructure:"max_backups"`
	MaxAgeDays        int    `mapstructure:"max_age_days"`
}

type ReloadConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	DebounceMS int  `mapstructure:"debounce_ms"`
}

// ErrNoEndpointSource is returned when neither a catalog nor an OpenAPI document is configured.
var ErrNoEndpointSource = errors.New("no endpoint source, please set catalog_file or swagger_file, pass --catalog-file or --swagger-file, or use HTTPDECO_CATALOG_FILE / HTTPDECO_SWAGGER_FILE")

// InitFlags registers the configuration flags on fs (without parsing)
func InitFlags(fs *pflag.FlagSet) {
	fs.String("mode", "", "Server mode (stdio|http)")
	fs.String("catalog-file", "", "Path to the endpoint catalog file")
	fs.String("swagger-file", "", "Path to the swagger file")
	fs.String("selection-file", "", "Path to the route selection file for the swagger file")
	fs.String("config", "", "Path to the config file")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", string(ServerModeSTDIO))
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.name", "httpdeco")
	v.SetDefault("server.version", version)
	v.SetDefault("server.metrics_path", "/metrics")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
	v.SetDefault("endpoint.auth_type", string(AuthTypeNone))
	v.SetDefault("endpoint.timeout", "30s")
	v.SetDefault("reload.debounce_ms", 250)
}

// Load reads the configuration from the config file, the environment and the flags in fs.
// fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("HTTPDECO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, err
		}
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/httpdeco")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Loading additional config files
	if _, err := os.Stat("/config/config.yaml"); err == nil {
		v.SetConfigFile("/config/config.yaml")
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to merge /config/config.yaml: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	config.File = v.ConfigFileUsed()

	if mode := v.GetString("mode"); mode != "" {
		switch ServerMode(mode) {
		case ServerModeSTDIO, ServerModeHTTP:
			config.Server.Mode = ServerMode(mode)
		default:
			return nil, fmt.Errorf("unsupported server mode: %s", mode)
		}
	}
	if catalogFile := v.GetString("catalog-file"); catalogFile != "" {
		config.CatalogFile = catalogFile
	}
	if swaggerFile := v.GetString("swagger-file"); swaggerFile != "" {
		config.SwaggerFile = swaggerFile
	}
	if selectionFile := v.GetString("selection-file"); selectionFile != "" {
		config.SelectionFile = selectionFile
	}

	if config.File != "" {
		defaults, err := ReadDefaults(config.File)
		if err != nil {
			return nil, err
		}
		config.Defaults = defaults
	}

	return &config, nil
}

// Validate checks that the configuration names somewhere to read endpoints from.
func (c *Config) Validate() error {
	if c.CatalogFile == "" && c.SwaggerFile == "" {
		return ErrNoEndpointSource
	}
	return nil
}

// ReadDefaults returns the defaults section of a YAML file, preserving key case. A file without
// the section yields nil.
func ReadDefaults(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read defaults from %s: %w", path, err)
	}
	var doc struct {
		Defaults map[string]any `yaml:"defaults"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse defaults in %s: %w", path, err)
	}
	return doc.Defaults, nil
}
