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

// Package bowerbird wires the Mesh construction service, its chain state
// and the node submitter into a runnable application.
package bowerbird

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/blinklabs-io/bowerbird/chainstate"
	"github.com/blinklabs-io/bowerbird/construction"
	"github.com/blinklabs-io/bowerbird/ouroboros"
	"github.com/blinklabs-io/bowerbird/server"
	"github.com/blinklabs-io/bowerbird/tokenregistry"
)

type Bowerbird struct {
	config        Config
	logger        *slog.Logger
	chainState    *chainstate.State
	construction  *construction.Service
	server        *server.Server
	metricsServer *http.Server
	metricsAddr   net.Addr
	shutdownFuncs []func(context.Context) error
	mu            sync.Mutex
	done          chan struct{}
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Bowerbird, error) {
	if err := cfg.configPopulateNetworkMagic(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.configPopulateSlotClock(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.configValidate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.configPopulatePromRegistry()
	b := &Bowerbird{
		config: cfg,
		logger: cfg.logger,
		done:   make(chan struct{}),
	}
	if err := b.init(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Bowerbird) init() error {
	// Chain state
	var source chainstate.ParamsSource = chainstate.StaticSource{
		Params: b.config.protocolParams,
	}
	if b.config.paramsFile != "" {
		source = chainstate.FileSource{Path: b.config.paramsFile}
	}
	paramsCache, err := chainstate.NewParamsCache(
		chainstate.ParamsCacheConfig{
			Logger:       b.config.logger,
			Source:       source,
			TTL:          b.config.paramsTTL,
			PromRegistry: b.config.promRegistry,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to create params cache: %w", err)
	}
	chainState, err := chainstate.NewState(
		paramsCache,
		chainstate.NewSlotClock(*b.config.slotClock),
	)
	if err != nil {
		return fmt.Errorf("failed to create chain state: %w", err)
	}
	b.chainState = chainState
	// Construction service
	constructionCfg := construction.Config{
		Logger:       b.config.logger,
		Network:      b.config.network,
		ChainState:   chainState,
		RelativeTTL:  b.config.relativeTTL,
		PromRegistry: b.config.promRegistry,
	}
	if b.config.socketPath != "" {
		submitter, err := ouroboros.NewSubmitter(
			ouroboros.SubmitterConfig{
				Logger:       b.config.logger,
				SocketPath:   b.config.socketPath,
				NetworkMagic: b.config.networkMagic,
				Timeout:      b.config.submitTimeout,
			},
		)
		if err != nil {
			return fmt.Errorf("failed to create submitter: %w", err)
		}
		constructionCfg.Submitter = submitter
	} else {
		b.logger.Warn(
			"no node socket configured, transaction submission is disabled",
		)
	}
	if b.config.tokenRegistryURL != "" {
		constructionCfg.Registry = tokenregistry.NewHTTP(
			b.config.tokenRegistryURL,
		)
	}
	svc, err := construction.New(constructionCfg)
	if err != nil {
		return fmt.Errorf("failed to create construction service: %w", err)
	}
	b.construction = svc
	// Mesh API
	srv, err := server.NewServer(server.ServerConfig{
		Logger:          b.config.logger,
		Construction:    svc,
		ListenAddress:   b.config.listenAddress,
		TLSCertFilePath: b.config.tlsCertFilePath,
		TLSKeyFilePath:  b.config.tlsKeyFilePath,
	})
	if err != nil {
		return fmt.Errorf("failed to create Mesh API server: %w", err)
	}
	b.server = srv
	return nil
}

// Start loads the initial chain state and starts the listeners. It
// returns once everything is serving.
func (b *Bowerbird) Start(ctx context.Context) error {
	// Configure tracing
	if b.config.tracing {
		if err := b.setupTracing(ctx); err != nil {
			return err
		}
	}
	// Load the initial chain state so a broken source fails at startup
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		params, err := b.chainState.ProtocolParams(gctx)
		if err != nil {
			return fmt.Errorf("failed to load protocol parameters: %w", err)
		}
		b.logger.Debug(
			"loaded protocol parameters",
			"min_fee_a", params.MinFeeA,
			"min_fee_b", params.MinFeeB,
		)
		return nil
	})
	g.Go(func() error {
		slot, err := b.chainState.CurrentSlot(gctx)
		if err != nil {
			return fmt.Errorf("failed to determine current slot: %w", err)
		}
		b.logger.Debug("current slot", "slot", slot)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	// Start metrics listener
	if b.config.metricsAddress != "" {
		if err := b.startMetrics(); err != nil {
			return err
		}
	}
	// Start Mesh API
	if err := b.server.Start(ctx); err != nil {
		return err
	}
	b.mu.Lock()
	b.shutdownFuncs = append(b.shutdownFuncs, b.server.Stop)
	b.mu.Unlock()
	b.logger.Info(
		"bowerbird started",
		"network", b.config.network,
		"network_magic", b.config.networkMagic,
	)
	return nil
}

// Run starts the service and blocks until ctx is cancelled or Stop is
// called.
func (b *Bowerbird) Run(ctx context.Context) error {
	if err := b.Start(ctx); err != nil {
		return multierror.Append(err, b.Stop()).ErrorOrNil()
	}
	select {
	case <-ctx.Done():
		return b.Stop()
	case <-b.done:
		return nil
	}
}

// Addr returns the address of the Mesh API listener, or nil when not
// serving.
func (b *Bowerbird) Addr() net.Addr {
	return b.server.Addr()
}

// MetricsAddr returns the address of the metrics listener, or nil when
// not serving.
func (b *Bowerbird) MetricsAddr() net.Addr {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.metricsAddr
}

// InvalidateParams drops the cached protocol parameters. The next
// request reloads them from the configured source.
func (b *Bowerbird) InvalidateParams() {
	b.logger.Info("invalidating cached protocol parameters")
	b.chainState.Invalidate()
}

func (b *Bowerbird) startMetrics() error {
	gatherer := prometheus.DefaultGatherer
	if g, ok := b.config.promRegistry.(prometheus.Gatherer); ok {
		gatherer = g
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{
		Addr:              b.config.metricsAddress,
		Handler:           mux,
		ReadHeaderTimeout: 60 * time.Second,
	}
	ln, err := net.Listen("tcp", metricsServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen for metrics: %w", err)
	}
	go func() {
		if err := metricsServer.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			b.logger.Error("metrics server error", "error", err)
		}
	}()
	b.mu.Lock()
	b.metricsServer = metricsServer
	b.metricsAddr = ln.Addr()
	b.shutdownFuncs = append(b.shutdownFuncs, metricsServer.Shutdown)
	b.mu.Unlock()
	b.logger.Info("metrics listener started on " + ln.Addr().String())
	return nil
}

func (b *Bowerbird) Stop() error {
	var err error
	b.shutdownOnce.Do(func() {
		err = b.shutdown()
	})
	return err
}

func (b *Bowerbird) shutdown() error {
	ctx, cancel := context.WithTimeout(
		context.Background(),
		b.config.shutdownTimeout,
	)
	defer cancel()

	b.logger.Debug("starting graceful shutdown")

	b.mu.Lock()
	shutdownFuncs := b.shutdownFuncs
	b.shutdownFuncs = nil
	b.metricsServer = nil
	b.metricsAddr = nil
	b.mu.Unlock()

	var result *multierror.Error
	// Stop in reverse order of startup
	for i := len(shutdownFuncs) - 1; i >= 0; i-- {
		if fnErr := shutdownFuncs[i](ctx); fnErr != nil {
			result = multierror.Append(
				result,
				fmt.Errorf("shutdown function: %w", fnErr),
			)
		}
	}

	b.logger.Debug("graceful shutdown complete")
	close(b.done)
	return result.ErrorOrNil()
}
