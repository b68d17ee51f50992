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

package tokenregistry_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/bowerbird/mesh"
	"github.com/blinklabs-io/bowerbird/tokenregistry"
)

const (
	testPolicy = "29a8fb8318718bd756124f0c144f56d4b4579dc5edf2dd42d669ac61"
	testName   = "6675726e697368613239686e"
)

func testAsset(t *testing.T) tokenregistry.Asset {
	t.Helper()
	asset, err := tokenregistry.ParseAsset(testPolicy, testName)
	require.NoError(t, err)
	return asset
}

func TestAsset(t *testing.T) {
	t.Parallel()

	asset := testAsset(t)
	assert.Equal(t, testPolicy+testName, asset.Subject())
	assert.Equal(t, "asset1jdu2xcrwlqsjqqjger6kj2szddz8dcpvcg4ksz", asset.Fingerprint())

	empty, err := tokenregistry.ParseAsset(testPolicy, "")
	require.NoError(t, err)
	assert.Equal(t, testPolicy, empty.Subject())
}

func TestParseAssetErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		policy string
		asset  string
	}{
		{"policy not hex", "zz", testName},
		{"short policy", "abcd", testName},
		{"name not hex", testPolicy, "xyz"},
		{"long name", testPolicy, testPolicy + testPolicy},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			_, err := tokenregistry.ParseAsset(test.policy, test.asset)
			assert.Error(t, err)
		})
	}
}

func TestStatic(t *testing.T) {
	t.Parallel()

	asset := testAsset(t)
	registry := tokenregistry.NewStatic(tokenregistry.Metadata{
		Subject:  asset.Subject(),
		Ticker:   "FURN",
		Decimals: 2,
	})
	other, err := tokenregistry.ParseAsset(testPolicy, "")
	require.NoError(t, err)

	entries, err := registry.BatchMetadata(context.Background(), []tokenregistry.Asset{asset, other})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "FURN", entries[asset.Subject()].Ticker)
}

func TestHTTPBatchMetadata(t *testing.T) {
	t.Parallel()

	asset := testAsset(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// t.Errorf, not require, from the handler goroutine
		if r.Method != http.MethodPost || r.URL.Path != "/metadata/query" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var query struct {
			Subjects   []string `json:"subjects"`
			Properties []string `json:"properties"`
		}
		if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
			t.Errorf("decode query: %s", err)
		}
		if len(query.Subjects) != 1 || query.Subjects[0] != asset.Subject() {
			t.Errorf("unexpected subjects %v", query.Subjects)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"subjects":[` +
			`{"subject":"` + asset.Subject() + `","name":{"value":"Furnisha"},` +
			`"ticker":{"value":"FURN"},"decimals":{"value":6}},` +
			`{"subject":"unrequested","name":{"value":"x"}}]}`))
	}))
	t.Cleanup(server.Close)

	registry := tokenregistry.NewHTTP(server.URL+"/", tokenregistry.WithHTTPClient(server.Client()))
	entries, err := registry.BatchMetadata(context.Background(), []tokenregistry.Asset{asset, asset})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	entry := entries[asset.Subject()]
	assert.Equal(t, "Furnisha", entry.Name)
	assert.Equal(t, "FURN", entry.Ticker)
	assert.Equal(t, uint32(6), entry.Decimals)
	assert.Empty(t, entry.Logo)

	entries, err = registry.BatchMetadata(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHTTPStatusError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	registry := tokenregistry.NewHTTP(server.URL)
	_, err := registry.BatchMetadata(context.Background(), []tokenregistry.Asset{testAsset(t)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 503")
}

type failingRegistry struct{}

func (failingRegistry) BatchMetadata(context.Context, []tokenregistry.Asset) (map[string]tokenregistry.Metadata, error) {
	return nil, errors.New("registry unavailable")
}

func bundleOps() []*mesh.Operation {
	return []*mesh.Operation{
		{
			OperationIdentifier: &mesh.OperationIdentifier{Index: 0},
			Type:                mesh.OpOutput,
			Amount:              mesh.LovelaceAmount(2000000, false),
			Metadata: &mesh.OperationMetadata{
				TokenBundle: []*mesh.TokenBundleItem{{
					PolicyID: testPolicy,
					Tokens: []*mesh.Amount{
						{Value: "10", Currency: mesh.NativeAssetCurrency(testPolicy, testName)},
						{Value: "3", Currency: mesh.NativeAssetCurrency(testPolicy, "")},
					},
				}},
			},
		},
	}
}

func TestEnricherOperations(t *testing.T) {
	t.Parallel()

	asset := testAsset(t)
	registry := tokenregistry.NewStatic(tokenregistry.Metadata{
		Subject:  asset.Subject(),
		Name:     "Furnisha",
		Ticker:   "FURN",
		Decimals: 6,
	})
	ops := bundleOps()
	tokenregistry.NewEnricher(registry, nil).Operations(context.Background(), ops)

	tokens := ops[0].Metadata.TokenBundle[0].Tokens
	assert.Equal(t, int32(6), tokens[0].Currency.Decimals)
	assert.Equal(t, testName, tokens[0].Currency.Symbol)
	assert.Equal(t, "FURN", tokens[0].Currency.Metadata.Ticker)
	assert.Equal(t, testPolicy, tokens[0].Currency.Metadata.PolicyID)
	assert.Equal(t, mesh.NativeAssetCurrency(testPolicy, ""), tokens[1].Currency)
	assert.True(t, mesh.IsAda(ops[0].Amount.Currency))
}

func TestEnricherFallback(t *testing.T) {
	t.Parallel()

	ops := bundleOps()
	tokenregistry.NewEnricher(failingRegistry{}, nil).Operations(context.Background(), ops)
	tokens := ops[0].Metadata.TokenBundle[0].Tokens
	assert.Equal(t, mesh.NativeAssetCurrency(testPolicy, testName), tokens[0].Currency)

	ops = bundleOps()
	tokenregistry.NewEnricher(nil, nil).Operations(context.Background(), ops)
	assert.Equal(t, bundleOps(), ops)
}

func TestEnricherCoins(t *testing.T) {
	t.Parallel()

	asset := testAsset(t)
	coins := []*mesh.Coin{{
		CoinIdentifier: &mesh.CoinIdentifier{Identifier: "x:0"},
		Amount:         mesh.LovelaceAmount(1, false),
		Metadata: map[string][]*mesh.TokenBundleItem{
			"x:0": {{
				PolicyID: testPolicy,
				Tokens: []*mesh.Amount{
					{Value: "1", Currency: mesh.NativeAssetCurrency(testPolicy, testName)},
				},
			}},
		},
	}}
	registry := tokenregistry.NewStatic(tokenregistry.Metadata{Subject: asset.Subject(), Decimals: 2})
	tokenregistry.NewEnricher(registry, nil).Coins(context.Background(), coins)
	assert.Equal(t, int32(2), coins[0].Metadata["x:0"][0].Tokens[0].Currency.Decimals)
}
