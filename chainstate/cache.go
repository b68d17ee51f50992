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

package chainstate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/blinklabs-io/bowerbird/pparams"
)

const (
	// DefaultParamsTTL is how long a snapshot is served before a refresh
	DefaultParamsTTL = 5 * time.Minute

	fetchTimeout = 30 * time.Second
	fillKey      = "protocol-params"
)

// ParamsCacheConfig holds configuration for the ParamsCache
type ParamsCacheConfig struct {
	Logger       *slog.Logger
	Source       ParamsSource
	TTL          time.Duration
	PromRegistry prometheus.Registerer
	// Now replaces the wall clock, for testing
	Now func() time.Time
}

// ParamsCache holds the current protocol parameter snapshot. Expired or
// invalidated snapshots are refreshed on the next lookup, with one fetch
// shared by all concurrent callers.
type ParamsCache struct {
	config  ParamsCacheConfig
	logger  *slog.Logger
	metrics cacheMetrics
	group   singleflight.Group

	mu         sync.RWMutex
	params     *pparams.ProtocolParams
	expires    time.Time
	generation uint64
}

// NewParamsCache creates a cache over the configured source.
func NewParamsCache(config ParamsCacheConfig) (*ParamsCache, error) {
	if config.Source == nil {
		return nil, errors.New("params cache: no source configured")
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if config.TTL <= 0 {
		config.TTL = DefaultParamsTTL
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	c := &ParamsCache{
		config: config,
		logger: config.Logger.With("component", "chainstate"),
	}
	c.metrics.init(config.PromRegistry)
	return c, nil
}

// Get returns the cached snapshot, fetching a new one when it is missing
// or expired. The returned value must not be modified.
func (c *ParamsCache) Get(ctx context.Context) (*pparams.ProtocolParams, error) {
	c.mu.RLock()
	params, expires := c.params, c.expires
	c.mu.RUnlock()
	if params != nil && c.config.Now().Before(expires) {
		c.metrics.hits.Inc()
		return params, nil
	}
	c.metrics.misses.Inc()
	fillCtx := context.WithoutCancel(ctx)
	resultCh := c.group.DoChan(fillKey, func() (any, error) {
		return c.fill(fillCtx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-resultCh:
		if result.Err != nil {
			return nil, result.Err
		}
		return result.Val.(*pparams.ProtocolParams), nil
	}
}

func (c *ParamsCache) fill(ctx context.Context) (*pparams.ProtocolParams, error) {
	c.mu.RLock()
	generation := c.generation
	c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	params, err := c.config.Source.ProtocolParams(ctx)
	if err != nil {
		c.metrics.fetchErrors.Inc()
		c.logger.Error(
			"failed to fetch protocol parameters",
			"error", err,
		)
		return nil, err
	}
	c.mu.Lock()
	// a snapshot fetched before an invalidation is handed to the waiting
	// callers but not cached
	if c.generation == generation {
		c.params = params
		c.expires = c.config.Now().Add(c.config.TTL)
	}
	c.mu.Unlock()
	c.logger.Debug(
		"protocol parameters refreshed",
		"min_fee_a", params.MinFeeA,
		"min_fee_b", params.MinFeeB,
		"protocol_major", params.ProtocolMajorVersion,
	)
	return params, nil
}

// Invalidate drops the cached snapshot so the next lookup fetches a new
// one.
func (c *ParamsCache) Invalidate() {
	c.mu.Lock()
	c.params = nil
	c.generation++
	c.mu.Unlock()
	c.group.Forget(fillKey)
}
