// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/blinklabs-io/bowerbird/chainstate"
)

type ctxKey string

const configContextKey ctxKey = "bowerbird.config"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type Config struct {
	Network            string        `yaml:"network"`
	BindAddr           string        `yaml:"bindAddr"           split_words:"true"`
	SocketPath         string        `yaml:"socketPath"         envconfig:"CARDANO_NODE_SOCKET_PATH"`
	ProtocolParamsFile string        `yaml:"protocolParamsFile" split_words:"true"`
	TokenRegistryUrl   string        `yaml:"tokenRegistryUrl"   split_words:"true"`
	TlsCertFilePath    string        `yaml:"tlsCertFilePath"    envconfig:"TLS_CERT_FILE_PATH"`
	TlsKeyFilePath     string        `yaml:"tlsKeyFilePath"     envconfig:"TLS_KEY_FILE_PATH"`
	ProtocolParamsTtl  time.Duration `yaml:"protocolParamsTtl"  split_words:"true"`
	SubmitTimeout      time.Duration `yaml:"submitTimeout"      split_words:"true"`
	ShutdownTimeout    time.Duration `yaml:"shutdownTimeout"    split_words:"true"`
	RelativeTtl        uint64        `yaml:"relativeTtl"        split_words:"true"`
	NetworkMagic       uint32        `yaml:"networkMagic"       split_words:"true"`
	Port               uint          `yaml:"port"`
	MetricsPort        uint          `yaml:"metricsPort"        split_words:"true"`
	Debug              bool          `yaml:"debug"`
	Tracing            bool          `yaml:"tracing"`
	TracingStdout      bool          `yaml:"tracingStdout"      split_words:"true"`
	// Slot clock reference point for networks without a well-known one
	SlotClock SlotClockConfig `yaml:"slotClock" split_words:"true"`
}

type SlotClockConfig struct {
	ReferenceSlot uint64        `yaml:"referenceSlot" split_words:"true"`
	ReferenceTime string        `yaml:"referenceTime" split_words:"true"`
	SlotLength    time.Duration `yaml:"slotLength"    split_words:"true"`
}

func DefaultConfig() *Config {
	return &Config{
		Network:         "mainnet",
		BindAddr:        "0.0.0.0",
		Port:            8080,
		MetricsPort:     12798,
		SubmitTimeout:   30 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

var globalConfig = DefaultConfig()

func LoadConfig(configFile string) (*Config, error) {
	cfg := DefaultConfig()
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.bowerbird/bowerbird.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".bowerbird", "bowerbird.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/bowerbird/bowerbird.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/bowerbird/bowerbird.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	// Process environment variables
	if err := envconfig.Process("bowerbird", cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	globalConfig = cfg
	return globalConfig, nil
}

func GetConfig() *Config {
	return globalConfig
}

// Validate checks the configuration for values that cannot work together
func (c *Config) Validate() error {
	if c.Network == "" {
		return errors.New("invalid config: no network specified")
	}
	if c.Port == 0 {
		return errors.New("invalid config: port must be non-zero")
	}
	if c.MetricsPort != 0 && c.MetricsPort == c.Port {
		return fmt.Errorf(
			"invalid config: metricsPort %d conflicts with port",
			c.MetricsPort,
		)
	}
	if (c.TlsCertFilePath == "") != (c.TlsKeyFilePath == "") {
		return errors.New(
			"invalid config: tlsCertFilePath and tlsKeyFilePath must be set together",
		)
	}
	if c.ProtocolParamsTtl < 0 || c.SubmitTimeout < 0 || c.ShutdownTimeout < 0 {
		return errors.New("invalid config: durations must not be negative")
	}
	if _, _, err := c.SlotClockConfig(); err != nil {
		return err
	}
	return nil
}

// ListenAddress returns the Mesh API listen address
func (c *Config) ListenAddress() string {
	return net.JoinHostPort(c.BindAddr, strconv.FormatUint(uint64(c.Port), 10))
}

// MetricsAddress returns the metrics listen address, or an empty string
// when metrics are disabled
func (c *Config) MetricsAddress() string {
	if c.MetricsPort == 0 {
		return ""
	}
	return net.JoinHostPort(c.BindAddr, strconv.FormatUint(uint64(c.MetricsPort), 10))
}

// SlotClockConfig returns the configured slot clock reference point. The
// second return value is false when no reference time is configured.
func (c *Config) SlotClockConfig() (chainstate.SlotClockConfig, bool, error) {
	if c.SlotClock.ReferenceTime == "" {
		return chainstate.SlotClockConfig{}, false, nil
	}
	refTime, err := time.Parse(time.RFC3339, c.SlotClock.ReferenceTime)
	if err != nil {
		return chainstate.SlotClockConfig{}, false, fmt.Errorf(
			"invalid config: slotClock.referenceTime: %w",
			err,
		)
	}
	slotLength := c.SlotClock.SlotLength
	if slotLength == 0 {
		slotLength = time.Second
	}
	return chainstate.SlotClockConfig{
		ReferenceSlot: c.SlotClock.ReferenceSlot,
		ReferenceTime: refTime.UTC(),
		SlotLength:    slotLength,
	}, true, nil
}
