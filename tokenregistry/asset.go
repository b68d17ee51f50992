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

// Package tokenregistry looks up off-chain metadata for native assets and
// turns it into Mesh currencies.
package tokenregistry

import (
	"context"
	"encoding/hex"
	"fmt"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
)

// maxAssetNameSize is the ledger limit on asset names
const maxAssetNameSize = 32

// Asset identifies a native asset.
type Asset struct {
	PolicyID lcommon.Blake2b224
	Name     []byte
}

// ParseAsset returns the asset for a hex policy id and hex asset name.
func ParseAsset(policyHex string, nameHex string) (Asset, error) {
	policyID, err := hex.DecodeString(policyHex)
	if err != nil {
		return Asset{}, fmt.Errorf("policy id %q: %w", policyHex, err)
	}
	if len(policyID) != lcommon.Blake2b224Size {
		return Asset{}, fmt.Errorf(
			"policy id %q: expected %d bytes, found %d",
			policyHex,
			lcommon.Blake2b224Size,
			len(policyID),
		)
	}
	name, err := hex.DecodeString(nameHex)
	if err != nil {
		return Asset{}, fmt.Errorf("asset name %q: %w", nameHex, err)
	}
	if len(name) > maxAssetNameSize {
		return Asset{}, fmt.Errorf("asset name %q: longer than %d bytes", nameHex, maxAssetNameSize)
	}
	return Asset{
		PolicyID: lcommon.NewBlake2b224(policyID),
		Name:     name,
	}, nil
}

// PolicyHex returns the hex policy id.
func (a Asset) PolicyHex() string {
	return hex.EncodeToString(a.PolicyID[:])
}

// NameHex returns the hex asset name.
func (a Asset) NameHex() string {
	return hex.EncodeToString(a.Name)
}

// Subject is the registry key of the asset: the policy id followed by the
// asset name, both hex.
func (a Asset) Subject() string {
	return a.PolicyHex() + a.NameHex()
}

// Fingerprint returns the CIP-14 asset fingerprint.
func (a Asset) Fingerprint() string {
	return lcommon.NewAssetFingerprint(a.PolicyID[:], a.Name).String()
}

// Metadata is the registry entry for an asset.
type Metadata struct {
	Subject     string
	Name        string
	Description string
	Ticker      string
	URL         string
	Logo        string
	Decimals    uint32
}

// Registry resolves asset metadata. Assets without an entry are left out
// of the result.
type Registry interface {
	BatchMetadata(ctx context.Context, assets []Asset) (map[string]Metadata, error)
}

// Static is a fixed in-memory registry.
type Static struct {
	entries map[string]Metadata
}

// NewStatic returns a registry holding the given entries, keyed by their
// subject.
func NewStatic(entries ...Metadata) *Static {
	ret := &Static{entries: make(map[string]Metadata, len(entries))}
	for _, entry := range entries {
		ret.entries[entry.Subject] = entry
	}
	return ret
}

func (s *Static) BatchMetadata(_ context.Context, assets []Asset) (map[string]Metadata, error) {
	ret := make(map[string]Metadata)
	for _, asset := range assets {
		if entry, ok := s.entries[asset.Subject()]; ok {
			ret[entry.Subject] = entry
		}
	}
	return ret, nil
}
