package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/jkbrsn/callmetrics"
)

const (
	defaultListenAddr = ":9464"
	defaultCadence    = 30 * time.Second
	defaultTimeout    = 10 * time.Second
)

var (
	// ErrNoTargets is returned for configurations without probe targets.
	ErrNoTargets = errors.New("no targets configured")
	// ErrInvalidTarget is returned for targets that cannot be probed.
	ErrInvalidTarget = errors.New("invalid target")
)

// probeConfig is the YAML configuration of the probe command.
type probeConfig struct {
	Listen   string             `koanf:"listen"`
	Timeouts httpTimeouts       `koanf:"timeouts"`
	Observer callmetrics.Config `koanf:"observer"`
	Targets  []targetConfig     `koanf:"targets"`
}

// targetConfig describes one probed endpoint.
type targetConfig struct {
	URL       string        `koanf:"url"`
	Method    string        `koanf:"method"`
	Service   string        `koanf:"service"`
	Operation string        `koanf:"operation"`
	Region    string        `koanf:"region"`
	Cadence   time.Duration `koanf:"cadence"`
	Body      string        `koanf:"body"`
}

// loadConfig reads and validates a YAML configuration file.
func loadConfig(path string) (probeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return probeConfig{}, fmt.Errorf("read config: %w", err)
	}
	return parseConfig(data)
}

// parseConfig parses YAML configuration, applies defaults and validates the result.
func parseConfig(data []byte) (probeConfig, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return probeConfig{}, fmt.Errorf("parse config: %w", err)
	}

	var cfg probeConfig
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return probeConfig{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return probeConfig{}, err
	}
	return cfg, nil
}

func (c *probeConfig) applyDefaults() {
	if c.Listen == "" {
		c.Listen = defaultListenAddr
	}
	if c.Timeouts.Total == 0 {
		c.Timeouts.Total = defaultTimeout
	}
	for i := range c.Targets {
		t := &c.Targets[i]
		if t.Method == "" {
			t.Method = http.MethodGet
		}
		if t.Cadence == 0 {
			t.Cadence = defaultCadence
		}
	}
}

// Validate checks that the configuration can be run.
func (c probeConfig) Validate() error {
	if err := c.Observer.Validate(); err != nil {
		return err
	}
	if err := c.Timeouts.Validate(); err != nil {
		return err
	}
	if len(c.Targets) == 0 {
		return ErrNoTargets
	}
	for i, t := range c.Targets {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("target %d: %w", i, err)
		}
	}
	return nil
}

// Validate checks that the target has a usable URL, identity and cadence.
func (t targetConfig) Validate() error {
	u, err := url.Parse(t.URL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTarget, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidTarget, u.Scheme)
	}
	if t.Service == "" || t.Operation == "" {
		return fmt.Errorf("%w: service and operation are required", ErrInvalidTarget)
	}
	if t.Cadence < 0 {
		return fmt.Errorf("%w: cadence cannot be negative", ErrInvalidTarget)
	}
	return nil
}

// operation returns the identity probes of the target are attributed to.
func (t targetConfig) operation() callmetrics.Operation {
	return callmetrics.Operation{
		ServiceID: t.Service,
		Name:      t.Operation,
		Region:    t.Region,
	}
}
