// Package config loads layoutswap runtime configuration from a YAML file,
// .env files and LAYOUTSWAP_* environment variables.
package config

import (
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/layoutswap/internal/fetch"
	"git.home.luguber.info/inful/layoutswap/internal/foundation/errors"
	"git.home.luguber.info/inful/layoutswap/internal/store"
)

// DefaultPath is the configuration file used when none is given.
const DefaultPath = "layoutswap.yaml"

// Environment variable overrides.
const (
	EnvAccessToken = "LAYOUTSWAP_ACCESS_TOKEN"
	EnvTargetHost  = "LAYOUTSWAP_TARGET_HOST"
	EnvConcurrency = "LAYOUTSWAP_CONCURRENCY"
)

// Defaults.
const (
	DefaultConcurrency   = 10
	DefaultMode          = "migrate"
	DefaultNotifySubject = "layoutswap.records"
)

// Config is the full runtime configuration of a run.
type Config struct {
	Site               string            `yaml:"site"`
	TargetHost         string            `yaml:"target_host,omitempty"`
	ForwardedHost      string            `yaml:"forwarded_host,omitempty"`
	AccessToken        string            `yaml:"access_token,omitempty"`
	Concurrency        int               `yaml:"concurrency,omitempty"`
	Timeout            string            `yaml:"timeout,omitempty"` // Go duration, e.g. "30s"; empty disables
	InsecureSkipVerify bool              `yaml:"insecure_skip_verify,omitempty"`
	TolerateStatuses   []int             `yaml:"tolerate_statuses,omitempty"` // published-lane statuses meaning "absent"
	RequestsPerSecond  float64           `yaml:"requests_per_second,omitempty"`
	Mapping            map[string]string `yaml:"mapping"`
	Mode               string            `yaml:"mode,omitempty"`
	Journal            JournalConfig     `yaml:"journal,omitempty"`
	Notify             NotifyConfig      `yaml:"notify,omitempty"`
	Metrics            MetricsConfig     `yaml:"metrics,omitempty"`

	// Environments holds named connection variants selected with Select.
	Environments map[string]Environment `yaml:"environments,omitempty"`
}

// JournalConfig locates the SQLite run journal.
type JournalConfig struct {
	Path string `yaml:"path,omitempty"`
}

// NotifyConfig configures NATS record notifications.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// MetricsConfig configures the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// Environment overrides connection settings for one deployment.
type Environment struct {
	TargetHost         string `yaml:"target_host,omitempty"`
	ForwardedHost      string `yaml:"forwarded_host,omitempty"`
	AccessToken        string `yaml:"access_token,omitempty"`
	InsecureSkipVerify *bool  `yaml:"insecure_skip_verify,omitempty"`
}

// Load reads configuration from path. An empty path yields a configuration
// built from the environment alone. Defaults are applied; validation is left
// to the caller so flags can be merged first.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.ConfigError("configuration file not found").
					WithContext("path", path).
					Build()
			}
			return nil, errors.ConfigError("failed to read configuration file").
				WithCause(err).
				WithContext("path", path).
				Build()
		}

		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, errors.ConfigError("failed to parse configuration file").
				WithCause(err).
				WithContext("path", path).
				Build()
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvAccessToken); v != "" {
		c.AccessToken = v
	}
	if v := os.Getenv(EnvTargetHost); v != "" {
		c.TargetHost = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvConcurrency)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.ConfigError("invalid concurrency in environment").
				WithCause(err).
				WithContext("variable", EnvConcurrency).
				WithContext("value", v).
				Build()
		}
		c.Concurrency = n
	}
	return nil
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Concurrency == 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.Mode == "" {
		c.Mode = DefaultMode
	}
	if c.TolerateStatuses == nil {
		c.TolerateStatuses = append([]int(nil), fetch.DefaultTolerated...)
	}
	if c.Notify.NATSURL != "" && c.Notify.Subject == "" {
		c.Notify.Subject = DefaultNotifySubject
	}
}

// Select applies the named environment on top of the file settings.
// LAYOUTSWAP_* variables still win over the environment's values. An empty
// name is a no-op.
func (c *Config) Select(name string) error {
	if name == "" {
		return nil
	}
	env, ok := c.Environments[name]
	if !ok {
		return errors.ConfigError("unknown environment").
			WithContext("environment", name).
			WithContext("available", strings.Join(c.EnvironmentNames(), ",")).
			Build()
	}
	if env.TargetHost != "" {
		c.TargetHost = env.TargetHost
	}
	if env.ForwardedHost != "" {
		c.ForwardedHost = env.ForwardedHost
	}
	if env.AccessToken != "" {
		c.AccessToken = env.AccessToken
	}
	if env.InsecureSkipVerify != nil {
		c.InsecureSkipVerify = *env.InsecureSkipVerify
	}
	return c.applyEnvOverrides()
}

// EnvironmentNames lists the configured environments in sorted order.
func (c *Config) EnvironmentNames() []string {
	return slices.Sorted(maps.Keys(c.Environments))
}

// TimeoutDuration parses Timeout; Validate guarantees it parses.
func (c *Config) TimeoutDuration() time.Duration {
	if c.Timeout == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// StoreOptions derives content store client options.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		TargetHost:         c.TargetHost,
		ForwardedHost:      c.ForwardedHost,
		AccessToken:        c.AccessToken,
		Timeout:            c.TimeoutDuration(),
		InsecureSkipVerify: c.InsecureSkipVerify,
		RequestsPerSecond:  c.RequestsPerSecond,
		Concurrency:        c.Concurrency,
	}
}
