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

package bowerbird

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/blinklabs-io/bowerbird/chainstate"
	"github.com/blinklabs-io/bowerbird/ouroboros"
	"github.com/blinklabs-io/bowerbird/pparams"
)

const (
	defaultListenAddress   = ":8080"
	defaultShutdownTimeout = 30 * time.Second
)

type Config struct {
	promRegistry     prometheus.Registerer
	logger           *slog.Logger
	protocolParams   *pparams.ProtocolParams
	slotClock        *chainstate.SlotClockConfig
	network          string
	listenAddress    string
	metricsAddress   string
	socketPath       string
	paramsFile       string
	tokenRegistryURL string
	tlsCertFilePath  string
	tlsKeyFilePath   string
	networkMagic     uint32
	relativeTTL      uint64
	paramsTTL        time.Duration
	submitTimeout    time.Duration
	shutdownTimeout  time.Duration
	tracing          bool
	tracingStdout    bool
}

// configPopulateNetworkMagic uses the named network (if specified) to determine the network magic value (if not specified)
func (c *Config) configPopulateNetworkMagic() error {
	if c.networkMagic == 0 && c.network != "" {
		networkMagic, err := ouroboros.GetNetworkMagic(c.network)
		if err != nil {
			return err
		}
		c.networkMagic = networkMagic
	}
	return nil
}

// configPopulateSlotClock uses the named network to determine the slot
// clock reference point (if not specified)
func (c *Config) configPopulateSlotClock() error {
	if c.slotClock != nil {
		return nil
	}
	clockCfg, err := chainstate.SlotClockConfigForNetwork(c.network)
	if err != nil {
		return fmt.Errorf("%w: configure a slot clock reference", err)
	}
	c.slotClock = &clockCfg
	return nil
}

// configPopulatePromRegistry registers metrics globally when a metrics
// listener is configured without a registry
func (c *Config) configPopulatePromRegistry() {
	if c.promRegistry == nil && c.metricsAddress != "" {
		c.promRegistry = prometheus.DefaultRegisterer
	}
}

func (c *Config) configValidate() error {
	if c.network == "" {
		return errors.New("no network configured")
	}
	if c.networkMagic == 0 {
		return fmt.Errorf(
			"invalid network magic value: %d",
			c.networkMagic,
		)
	}
	if c.listenAddress == "" {
		return errors.New("no listen address configured")
	}
	if c.paramsFile == "" && c.protocolParams == nil {
		return errors.New("no protocol parameters source configured")
	}
	if (c.tlsCertFilePath == "") != (c.tlsKeyFilePath == "") {
		return errors.New("TLS requires both a certificate and a key file")
	}
	if c.metricsAddress != "" && c.metricsAddress == c.listenAddress {
		return fmt.Errorf(
			"metrics address %s conflicts with the API listen address",
			c.metricsAddress,
		)
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the Bowerbird config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new bowerbird config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:          slog.New(slog.NewJSONHandler(io.Discard, nil)),
		listenAddress:   defaultListenAddress,
		shutdownTimeout: defaultShutdownTimeout,
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithLogger specifies the logger to use. The default discards all logs
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithNetwork specifies the named network to serve
func WithNetwork(network string) ConfigOptionFunc {
	return func(c *Config) {
		c.network = network
	}
}

// WithNetworkMagic specifies the network magic value. This is only needed for networks without a well-known name
func WithNetworkMagic(networkMagic uint32) ConfigOptionFunc {
	return func(c *Config) {
		c.networkMagic = networkMagic
	}
}

// WithListenAddress specifies the address for the Mesh API. The default is :8080
func WithListenAddress(address string) ConfigOptionFunc {
	return func(c *Config) {
		c.listenAddress = address
	}
}

// WithTLSCertFilePath specifies the certificate file for serving the Mesh API over TLS
func WithTLSCertFilePath(path string) ConfigOptionFunc {
	return func(c *Config) {
		c.tlsCertFilePath = path
	}
}

// WithTLSKeyFilePath specifies the key file for serving the Mesh API over TLS
func WithTLSKeyFilePath(path string) ConfigOptionFunc {
	return func(c *Config) {
		c.tlsKeyFilePath = path
	}
}

// WithMetricsAddress specifies the address to serve Prometheus metrics on (empty = disabled)
func WithMetricsAddress(address string) ConfigOptionFunc {
	return func(c *Config) {
		c.metricsAddress = address
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithProtocolParamsFile specifies a cardano-cli protocol parameters file. The file is re-read when the cached snapshot expires
func WithProtocolParamsFile(path string) ConfigOptionFunc {
	return func(c *Config) {
		c.paramsFile = path
	}
}

// WithProtocolParams specifies a fixed protocol parameters snapshot. A configured file takes precedence
func WithProtocolParams(params *pparams.ProtocolParams) ConfigOptionFunc {
	return func(c *Config) {
		c.protocolParams = params
	}
}

// WithProtocolParamsTTL specifies how long a protocol parameters snapshot is cached
func WithProtocolParamsTTL(ttl time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.paramsTTL = ttl
	}
}

// WithSlotClock specifies the slot clock reference point. The default is derived from the named network
func WithSlotClock(clockCfg chainstate.SlotClockConfig) ConfigOptionFunc {
	return func(c *Config) {
		c.slotClock = &clockCfg
	}
}

// WithSocketPath specifies the cardano-node socket used for transaction submission (empty = submission disabled)
func WithSocketPath(socketPath string) ConfigOptionFunc {
	return func(c *Config) {
		c.socketPath = socketPath
	}
}

// WithSubmitTimeout specifies the timeout for a single transaction submission
func WithSubmitTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.submitTimeout = timeout
	}
}

// WithRelativeTTL specifies the default number of slots a transaction stays valid for
func WithRelativeTTL(relativeTTL uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.relativeTTL = relativeTTL
	}
}

// WithTokenRegistryURL specifies the token metadata registry used to enrich native asset currencies (empty = disabled)
func WithTokenRegistryURL(registryURL string) ConfigOptionFunc {
	return func(c *Config) {
		c.tokenRegistryURL = registryURL
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout writes spans to stdout instead of an OTLP endpoint. Tracing must be enabled separately
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. The default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
