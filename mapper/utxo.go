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
	"fmt"
	"strconv"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"

	"github.com/blinklabs-io/bowerbird/failure"
	"github.com/blinklabs-io/bowerbird/mesh"
)

// UnitLovelace is the unit of the native currency in a Utxo amount list.
const UnitLovelace = "lovelace"

// Amt is one entry of a Utxo amount list. Native assets use the policy
// id followed by the hex asset name as unit.
type Amt struct {
	Unit      string `json:"unit"`
	Quantity  string `json:"quantity"`
	PolicyID  string `json:"policy_id,omitempty"`
	AssetName string `json:"asset_name,omitempty"`
}

// Utxo is an unspent output reference with its value.
type Utxo struct {
	TxHash      string `json:"tx_hash"`
	OutputIndex uint32 `json:"output_index"`
	Amounts     []Amt  `json:"amounts"`
}

// CoinIdentifier returns the "<tx hash>:<index>" identifier.
func (u Utxo) CoinIdentifier() string {
	return u.TxHash + ":" + strconv.FormatUint(uint64(u.OutputIndex), 10)
}

// CoinFromUtxo converts a Utxo into a Mesh coin. The lovelace entry is
// required; other units become token bundle metadata keyed by the coin
// identifier.
func CoinFromUtxo(utxo Utxo) (*mesh.Coin, error) {
	coinID := utxo.CoinIdentifier()
	var ada *mesh.Amount
	var bundle []*mesh.TokenBundleItem
	byPolicy := make(map[string]*mesh.TokenBundleItem)
	for _, amt := range utxo.Amounts {
		qty, err := strconv.ParseUint(amt.Quantity, 10, 64)
		if err != nil {
			return nil, failure.New(
				failure.ErrInvalidAmount,
				failure.WithString("unit", amt.Unit),
				failure.WithString("quantity", amt.Quantity),
			)
		}
		if amt.Unit == UnitLovelace {
			ada = mesh.LovelaceAmount(qty, false)
			continue
		}
		policyHex, nameHex, err := splitUnit(amt)
		if err != nil {
			return nil, err
		}
		policyID, _ := hex.DecodeString(policyHex)
		name, _ := hex.DecodeString(nameHex)
		item, ok := byPolicy[policyHex]
		if !ok {
			item = &mesh.TokenBundleItem{PolicyID: policyHex}
			byPolicy[policyHex] = item
			bundle = append(bundle, item)
		}
		item.Tokens = append(item.Tokens, mesh.AssetAmount(policyID, name, qty, false))
	}
	if ada == nil {
		return nil, failure.New(
			failure.ErrMissingLovelace,
			failure.WithString("coin_identifier", coinID),
		)
	}
	ret := &mesh.Coin{
		CoinIdentifier: &mesh.CoinIdentifier{Identifier: coinID},
		Amount:         ada,
	}
	if len(bundle) > 0 {
		ret.Metadata = map[string][]*mesh.TokenBundleItem{coinID: bundle}
	}
	return ret, nil
}

func splitUnit(amt Amt) (string, string, error) {
	policyHex, nameHex := amt.PolicyID, amt.AssetName
	if policyHex == "" {
		if len(amt.Unit) < 2*lcommon.Blake2b224Size {
			return "", "", failure.New(
				failure.ErrInvalidTokenBundle,
				failure.WithString("unit", amt.Unit),
			)
		}
		policyHex = amt.Unit[:2*lcommon.Blake2b224Size]
		nameHex = amt.Unit[2*lcommon.Blake2b224Size:]
	}
	policyID, err := hex.DecodeString(policyHex)
	if err != nil || len(policyID) != lcommon.Blake2b224Size {
		return "", "", failure.New(
			failure.ErrInvalidTokenBundle,
			failure.WithString("policy_id", policyHex),
		)
	}
	if _, err := hex.DecodeString(nameHex); err != nil {
		return "", "", failure.New(
			failure.ErrInvalidTokenBundle,
			failure.WithString("asset_name", nameHex),
			failure.WithErr(fmt.Errorf("asset name is not hex: %w", err)),
		)
	}
	return policyHex, nameHex, nil
}
