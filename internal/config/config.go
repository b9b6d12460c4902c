package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/face-sorter/internal/constants"
)

var (
	// ErrMissingCredentials is returned when the face service key or endpoint is not configured.
	ErrMissingCredentials = errors.New("you need to provide an endpoint and API key in the config.yaml")

	// ErrInvalidGroupName is returned for person group names the face service would reject.
	ErrInvalidGroupName = errors.New("the person group name is invalid, please only use letters (no special characters like 'ä'), numbers and underscores")
)

var groupNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,64}$`)

type Config struct {
	FaceAPI  FaceAPIConfig  `yaml:"secrets"`
	Settings SettingsConfig `yaml:"settings"`
}

type FaceAPIConfig struct {
	Key      string `yaml:"face_api_key"`
	Endpoint string `yaml:"face_api_endpoint"`
}

type SettingsConfig struct {
	MaxImageSize         int           `yaml:"max_image_size"`
	RequestsPerMinute    int           `yaml:"requests_per_minute"`
	PollInterval         time.Duration `yaml:"poll_interval"`
	MaxPollAttempts      int           `yaml:"max_poll_attempts"`
	RouteDetectionErrors bool          `yaml:"route_detection_errors"` // copy photos whose detection failed to api_error/
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

func defaults() *Config {
	return &Config{
		Settings: SettingsConfig{
			MaxImageSize:      constants.MaxImageSize,
			RequestsPerMinute: constants.DefaultRequestsPerMinute,
			PollInterval:      constants.DefaultPollInterval,
			MaxPollAttempts:   constants.DefaultMaxPollAttempts,
		},
	}
}

// Load reads the YAML config file at path and applies environment overrides.
// A missing file is not an error: credentials may come from the environment alone.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path) //nolint:gosec // config path is chosen by the user
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("could not parse config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("could not read config file %s: %w", path, err)
	}

	if v := os.Getenv("FACE_API_KEY"); v != "" {
		cfg.FaceAPI.Key = v
	}
	if v := os.Getenv("FACE_API_ENDPOINT"); v != "" {
		cfg.FaceAPI.Endpoint = v
	}
	cfg.Settings.RequestsPerMinute = envInt("FACE_REQUESTS_PER_MINUTE", cfg.Settings.RequestsPerMinute)

	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults replaces zero or negative settings left by a partial config file.
func (c *Config) applyDefaults() {
	d := defaults().Settings
	if c.Settings.MaxImageSize <= 0 {
		c.Settings.MaxImageSize = d.MaxImageSize
	}
	if c.Settings.RequestsPerMinute <= 0 {
		c.Settings.RequestsPerMinute = d.RequestsPerMinute
	}
	if c.Settings.PollInterval <= 0 {
		c.Settings.PollInterval = d.PollInterval
	}
	if c.Settings.MaxPollAttempts <= 0 {
		c.Settings.MaxPollAttempts = d.MaxPollAttempts
	}
}

// Validate checks that the face service credentials are usable.
func (c *Config) Validate() error {
	if c.FaceAPI.Key == "" || c.FaceAPI.Endpoint == "" {
		return ErrMissingCredentials
	}
	u, err := url.Parse(c.FaceAPI.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: invalid endpoint %q", ErrMissingCredentials, c.FaceAPI.Endpoint)
	}
	return nil
}

// ValidateGroupName reports whether name is accepted as a person group identifier.
func ValidateGroupName(name string) error {
	if !groupNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidGroupName, name)
	}
	return nil
}
