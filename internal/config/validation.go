package config

import (
	"net/url"
	"time"

	"git.home.luguber.info/inful/layoutswap/internal/foundation/errors"
	"git.home.luguber.info/inful/layoutswap/internal/layout"
	"git.home.luguber.info/inful/layoutswap/internal/pipeline"
)

// Validate checks everything that can be checked without touching the network.
func (c *Config) Validate() error {
	if err := c.validateSite(); err != nil {
		return err
	}
	if _, err := c.LayoutMapping(); err != nil {
		return err
	}
	mode, err := c.RunMode()
	if err != nil {
		return err
	}
	if mode == pipeline.ModeMigrate && c.AccessToken == "" {
		return errors.ConfigError("access token is required to commit changes").
			WithContext("hint", "set access_token or "+EnvAccessToken).
			Build()
	}
	return c.validateConnection()
}

func (c *Config) validateSite() error {
	if c.Site == "" {
		return errors.ConfigError("site is required").Build()
	}
	u, err := url.Parse(c.Site)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.ConfigError("site must be an absolute http(s) URL").
			WithCause(err).
			WithContext("site", c.Site).
			Build()
	}
	return nil
}

func (c *Config) validateConnection() error {
	if c.Concurrency <= 0 {
		return errors.ConfigError("concurrency must be positive").
			WithContext("concurrency", c.Concurrency).
			Build()
	}
	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil || d < 0 {
			return errors.ConfigError("invalid timeout").
				WithCause(err).
				WithContext("timeout", c.Timeout).
				Build()
		}
	}
	if c.RequestsPerSecond < 0 {
		return errors.ConfigError("requests_per_second must not be negative").
			WithContext("requests_per_second", c.RequestsPerSecond).
			Build()
	}
	for _, code := range c.TolerateStatuses {
		if code < 400 || code > 599 {
			return errors.ConfigError("tolerate_statuses must be HTTP error statuses").
				WithContext("status", code).
				Build()
		}
	}
	return nil
}

// LayoutMapping validates and returns the configured layout mapping.
func (c *Config) LayoutMapping() (layout.Mapping, error) {
	return layout.NewMapping(c.Mapping)
}

// RunMode parses Mode.
func (c *Config) RunMode() (pipeline.Mode, error) {
	return pipeline.ParseMode(c.Mode)
}
