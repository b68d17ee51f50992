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

package tokenregistry

import (
	"context"
	"io"
	"log/slog"
	"math"

	"github.com/blinklabs-io/bowerbird/mesh"
)

// Currency returns the Mesh currency of an asset. Without metadata the
// currency has no decimals and only carries the policy id.
func Currency(asset Asset, meta *Metadata) *mesh.Currency {
	ret := mesh.NativeAssetCurrency(asset.PolicyHex(), asset.NameHex())
	if meta == nil {
		return ret
	}
	ret.Decimals = int32(min(meta.Decimals, math.MaxInt32)) //nolint:gosec // bounded above
	ret.Metadata.Name = meta.Name
	ret.Metadata.Ticker = meta.Ticker
	ret.Metadata.Description = meta.Description
	ret.Metadata.URL = meta.URL
	ret.Metadata.Logo = meta.Logo
	return ret
}

// Enricher replaces token bundle currencies with registry backed ones.
// Registry failures are logged and the policy id only currencies kept.
type Enricher struct {
	registry Registry
	logger   *slog.Logger
}

// NewEnricher returns an Enricher. A nil registry leaves currencies
// untouched.
func NewEnricher(registry Registry, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Enricher{
		registry: registry,
		logger:   logger.With("component", "tokenregistry"),
	}
}

type bundleToken struct {
	amount *mesh.Amount
	asset  Asset
}

func collectTokens(items []*mesh.TokenBundleItem, dst []bundleToken) []bundleToken {
	for _, item := range items {
		if item == nil {
			continue
		}
		for _, token := range item.Tokens {
			if token == nil || token.Currency == nil {
				continue
			}
			asset, err := ParseAsset(item.PolicyID, token.Currency.Symbol)
			if err != nil {
				continue
			}
			dst = append(dst, bundleToken{amount: token, asset: asset})
		}
	}
	return dst
}

func (e *Enricher) enrich(ctx context.Context, tokens []bundleToken) {
	if e.registry == nil || len(tokens) == 0 {
		return
	}
	assets := make([]Asset, 0, len(tokens))
	for _, token := range tokens {
		assets = append(assets, token.asset)
	}
	entries, err := e.registry.BatchMetadata(ctx, assets)
	if err != nil {
		e.logger.Warn(
			"token metadata lookup failed",
			"assets", len(assets),
			"error", err,
		)
		entries = nil
	}
	for _, token := range tokens {
		var meta *Metadata
		if entry, ok := entries[token.asset.Subject()]; ok {
			meta = &entry
		}
		token.amount.Currency = Currency(token.asset, meta)
	}
}

// Operations enriches the token bundles of operation metadata.
func (e *Enricher) Operations(ctx context.Context, ops []*mesh.Operation) {
	var tokens []bundleToken
	for _, op := range ops {
		if op == nil || op.Metadata == nil {
			continue
		}
		tokens = collectTokens(op.Metadata.TokenBundle, tokens)
	}
	e.enrich(ctx, tokens)
}

// Coins enriches the token bundles of coins.
func (e *Enricher) Coins(ctx context.Context, coins []*mesh.Coin) {
	var tokens []bundleToken
	for _, coin := range coins {
		if coin == nil {
			continue
		}
		for _, items := range coin.Metadata {
			tokens = collectTokens(items, tokens)
		}
	}
	e.enrich(ctx, tokens)
}
