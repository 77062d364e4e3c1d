// Package config provides configuration management for siccprobe using Viper.
// It supports configuration from files, environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/jmylchreest/siccprobe/internal/urlutil"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "SICCPROBE"

// Default configuration values.
const (
	defaultTargetScheme   = "http"
	defaultTargetHost     = "localhost"
	defaultTargetPort     = 8080
	defaultHealthTimeout  = 2 * time.Second
	defaultRequestTimeout = 5 * time.Second
	defaultPageSize       = 10
	defaultTokenPreview   = 50
	defaultMaxResponse    = "10MiB"
	defaultMockHost       = "127.0.0.1"
	defaultMockShutdown   = 5 * time.Second
)

// Config holds all configuration for the application.
type Config struct {
	Target      TargetConfig      `mapstructure:"target"`
	Timeouts    TimeoutsConfig    `mapstructure:"timeouts"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Pagination  PaginationConfig  `mapstructure:"pagination"`
	Resources   ResourcesConfig   `mapstructure:"resources"`
	Suite       SuiteConfig       `mapstructure:"suite"`
	Output      OutputConfig      `mapstructure:"output"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Mock        MockConfig        `mapstructure:"mock"`
}

// TargetConfig identifies the API under test.
type TargetConfig struct {
	Scheme string `mapstructure:"scheme" validate:"oneof=http https"`
	Host   string `mapstructure:"host" validate:"required"`
	Port   int    `mapstructure:"port" validate:"min=1,max=65535"`
	// BaseURL overrides scheme/host/port when set.
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
	// MaxResponseSize caps decoded response bodies (0 = unlimited).
	MaxResponseSize ByteSize `mapstructure:"max_response_size"`
}

// TimeoutsConfig holds per-request deadlines.
type TimeoutsConfig struct {
	Health  time.Duration `mapstructure:"health" validate:"gt=0"`
	Request time.Duration `mapstructure:"request" validate:"gt=0"`
}

// CredentialsConfig holds the throwaway account used for registration and login.
type CredentialsConfig struct {
	Firstname   string `mapstructure:"firstname" validate:"required"`
	Lastname    string `mapstructure:"lastname" validate:"required"`
	EmailPrefix string `mapstructure:"email_prefix" validate:"required"`
	EmailDomain string `mapstructure:"email_domain" validate:"required,hostname"`
	Password    string `mapstructure:"password" validate:"required"`
}

// PaginationConfig holds the page query used for list endpoints.
type PaginationConfig struct {
	Page int `mapstructure:"page" validate:"min=0"`
	Size int `mapstructure:"size" validate:"min=1"`
}

// ResourcesConfig holds the collection paths exercised with a bearer token.
type ResourcesConfig struct {
	Patients           string `mapstructure:"patients" validate:"startswith=/"`
	Consultations      string `mapstructure:"consultations" validate:"startswith=/"`
	Prescriptions      string `mapstructure:"prescriptions" validate:"startswith=/"`
	Professionals      string `mapstructure:"professionals" validate:"startswith=/"`
	Medications        string `mapstructure:"medications" validate:"startswith=/"`
	PharmaceuticalForm string `mapstructure:"pharmaceutical_forms" validate:"startswith=/"`
	Cie10              string `mapstructure:"cie10" validate:"startswith=/"`
	Dashboard          string `mapstructure:"dashboard" validate:"startswith=/"`
}

// SuiteConfig controls which scenarios run and how failures are reported.
type SuiteConfig struct {
	// Extended enables scenarios for the less central SICC endpoints.
	Extended bool `mapstructure:"extended"`
	// Strict makes any failed scenario produce a non-zero exit status.
	Strict bool `mapstructure:"strict"`
	// TokenPreview is how many token characters are echoed to the console.
	TokenPreview int `mapstructure:"token_preview" validate:"min=0"`
}

// OutputConfig holds console report configuration.
type OutputConfig struct {
	Color string `mapstructure:"color" validate:"oneof=auto always never"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"oneof=json text"`
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// MockConfig holds settings for the built-in mock SICC API.
type MockConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	CookieOnly      bool          `mapstructure:"cookie_only"`
	SeedItems       int           `mapstructure:"seed_items" validate:"min=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration.
// Environment variables are prefixed with SICCPROBE_ and use underscores for nesting.
// Example: SICCPROBE_TARGET_PORT=9090.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(".siccprobe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook())); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Logging.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// decodeHook lets config values be written as "5s" or "10MiB".
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// Defaults returns the configuration with every default applied and no file
// or environment overrides.
func Defaults() (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	return FromViper(v)
}

// SetDefaults configures default values for all configuration options.
// This should be called before reading the config file to ensure defaults are in place.
func SetDefaults(v *viper.Viper) {
	// Target defaults
	v.SetDefault("target.scheme", defaultTargetScheme)
	v.SetDefault("target.host", defaultTargetHost)
	v.SetDefault("target.port", defaultTargetPort)
	v.SetDefault("target.base_url", "")
	v.SetDefault("target.max_response_size", defaultMaxResponse)

	// Timeout defaults
	v.SetDefault("timeouts.health", defaultHealthTimeout)
	v.SetDefault("timeouts.request", defaultRequestTimeout)

	// Credential defaults
	v.SetDefault("credentials.firstname", "Juan")
	v.SetDefault("credentials.lastname", "Pérez")
	v.SetDefault("credentials.email_prefix", "juan")
	v.SetDefault("credentials.email_domain", "example.com")
	v.SetDefault("credentials.password", "password123")

	// Pagination defaults
	v.SetDefault("pagination.page", 0)
	v.SetDefault("pagination.size", defaultPageSize)

	// Resource path defaults
	v.SetDefault("resources.patients", "/api/patients")
	v.SetDefault("resources.consultations", "/api/consultations")
	v.SetDefault("resources.prescriptions", "/api/prescriptions")
	v.SetDefault("resources.professionals", "/api/healthcareprofessionals")
	v.SetDefault("resources.medications", "/api/medications")
	v.SetDefault("resources.pharmaceutical_forms", "/api/pharmaceutical-forms")
	v.SetDefault("resources.cie10", "/api/cie10")
	v.SetDefault("resources.dashboard", "/api/stats/dashboard")

	// Suite defaults
	v.SetDefault("suite.extended", false)
	v.SetDefault("suite.strict", false)
	v.SetDefault("suite.token_preview", defaultTokenPreview)

	// Output defaults
	v.SetDefault("output.color", "auto")

	// Logging defaults. The console report goes to stdout; logs are kept quiet on stderr.
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Mock server defaults
	v.SetDefault("mock.host", defaultMockHost)
	v.SetDefault("mock.port", defaultTargetPort)
	v.SetDefault("mock.cookie_only", false)
	v.SetDefault("mock.seed_items", 25)
	v.SetDefault("mock.shutdown_timeout", defaultMockShutdown)
}

// structValidator is shared; validator.Validate caches struct metadata and is safe for concurrent use.
var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := structValidator.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			key := strings.TrimPrefix(fe.Namespace(), "Config.")
			if fe.Param() != "" {
				return fmt.Errorf("%s failed %s=%s (got %v)", key, fe.Tag(), fe.Param(), fe.Value())
			}
			return fmt.Errorf("%s failed %s (got %v)", key, fe.Tag(), fe.Value())
		}
		return err
	}

	if c.Target.BaseURL != "" {
		if err := urlutil.ValidateBaseURL(c.Target.BaseURL); err != nil {
			return fmt.Errorf("target.base_url: %w", err)
		}
	}

	return nil
}

// Normalize lowercases level and format and maps "warning" to "warn".
func (c *LoggingConfig) Normalize() {
	c.Level = strings.ToLower(strings.TrimSpace(c.Level))
	if c.Level == "warning" {
		c.Level = "warn"
	}
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
}

// URL returns the base URL of the API under test without a trailing slash.
func (c *TargetConfig) URL() string {
	if c.BaseURL != "" {
		return urlutil.NormalizeBaseURL(c.BaseURL)
	}
	return fmt.Sprintf("%s://%s:%d", c.Scheme, c.Host, c.Port)
}

// Address returns the mock server listen address in host:port format.
func (c *MockConfig) Address() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
