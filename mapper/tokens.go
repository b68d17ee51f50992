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

package mapper

import (
	"encoding/hex"

	"github.com/blinklabs-io/gouroboros/cbor"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"

	"github.com/blinklabs-io/bowerbird/failure"
	"github.com/blinklabs-io/bowerbird/ledger"
	"github.com/blinklabs-io/bowerbird/mesh"
)

// maxAssetNameSize is the ledger limit on asset names
const maxAssetNameSize = 32

func invalidTokenBundle(fields ...failure.FieldFunc) error {
	return failure.New(failure.ErrInvalidTokenBundle, fields...)
}

// tokenBundle converts output token bundle metadata into a multi-asset
// value. The encoding orders policies and names canonically.
func tokenBundle(items []*mesh.TokenBundleItem) (*lcommon.MultiAsset[lcommon.MultiAssetTypeOutput], error) {
	if len(items) == 0 {
		return nil, nil
	}
	data := make(map[lcommon.Blake2b224]map[cbor.ByteString]uint64, len(items))
	policies := make(map[string]bool, len(items))
	for _, item := range items {
		if item == nil {
			return nil, invalidTokenBundle()
		}
		policyID, err := hex.DecodeString(item.PolicyID)
		if err != nil || len(policyID) != lcommon.Blake2b224Size {
			return nil, invalidTokenBundle(failure.WithString("policy_id", item.PolicyID))
		}
		if policies[item.PolicyID] {
			return nil, invalidTokenBundle(
				failure.WithString("policy_id", item.PolicyID),
				failure.WithString("reason", "duplicate policy"),
			)
		}
		policies[item.PolicyID] = true
		if len(item.Tokens) == 0 {
			return nil, invalidTokenBundle(
				failure.WithString("policy_id", item.PolicyID),
				failure.WithString("reason", "no tokens"),
			)
		}
		entry := make(map[cbor.ByteString]uint64, len(item.Tokens))
		names := make(map[string]bool, len(item.Tokens))
		for _, token := range item.Tokens {
			if token == nil || token.Currency == nil {
				return nil, invalidTokenBundle(failure.WithString("policy_id", item.PolicyID))
			}
			name, err := hex.DecodeString(token.Currency.Symbol)
			if err != nil || len(name) > maxAssetNameSize {
				return nil, invalidTokenBundle(
					failure.WithString("policy_id", item.PolicyID),
					failure.WithString("symbol", token.Currency.Symbol),
				)
			}
			if names[token.Currency.Symbol] {
				return nil, invalidTokenBundle(
					failure.WithString("symbol", token.Currency.Symbol),
					failure.WithString("reason", "duplicate asset"),
				)
			}
			names[token.Currency.Symbol] = true
			qty, sign, err := magnitude(token.Value, "token", failure.ErrInvalidTokenBundle)
			if err != nil {
				return nil, err
			}
			if sign <= 0 {
				return nil, invalidTokenBundle(
					failure.WithString("symbol", token.Currency.Symbol),
					failure.WithString("value", token.Value),
				)
			}
			entry[cbor.NewByteString(name)] = qty
		}
		data[lcommon.NewBlake2b224(policyID)] = entry
	}
	ret := lcommon.NewMultiAsset[lcommon.MultiAssetTypeOutput](data)
	return &ret, nil
}

// tokenBundleItems is the inverse of tokenBundle.
// Entries come out in canonical order.
func tokenBundleItems(
	assets *lcommon.MultiAsset[lcommon.MultiAssetTypeOutput],
	negative bool,
) []*mesh.TokenBundleItem {
	policies := ledger.SortedPolicies(assets)
	if len(policies) == 0 {
		return nil
	}
	ret := make([]*mesh.TokenBundleItem, 0, len(policies))
	for _, policy := range policies {
		names := ledger.SortedAssetNames(assets, policy)
		item := &mesh.TokenBundleItem{
			PolicyID: hex.EncodeToString(policy[:]),
			Tokens:   make([]*mesh.Amount, 0, len(names)),
		}
		for _, name := range names {
			item.Tokens = append(
				item.Tokens,
				mesh.AssetAmount(policy[:], name, assets.Asset(policy, name), negative),
			)
		}
		ret = append(ret, item)
	}
	return ret
}
