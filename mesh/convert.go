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

package mesh

import (
	"encoding/hex"
	"math/big"
	"strconv"
)

// Ada currency constants.
const (
	AdaSymbol   = "ADA"
	AdaDecimals = 6
)

// AdaCurrency returns the ADA currency descriptor.
// 1 ADA = 1,000,000 lovelace (6 decimals).
func AdaCurrency() *Currency {
	return &Currency{
		Symbol:   AdaSymbol,
		Decimals: AdaDecimals,
	}
}

// NativeAssetCurrency returns a Currency for a Cardano
// native asset identified by hex-encoded policy ID and
// asset name. Registry metadata may later override the
// decimals.
func NativeAssetCurrency(policyHex, nameHex string) *Currency {
	return &Currency{
		Symbol:   nameHex,
		Decimals: 0,
		Metadata: &CurrencyMetadata{
			PolicyID: policyHex,
		},
	}
}

// IsAda reports whether the currency is the native currency.
func IsAda(c *Currency) bool {
	return c != nil && c.Symbol == AdaSymbol && c.Decimals == AdaDecimals &&
		(c.Metadata == nil || c.Metadata.PolicyID == "")
}

// LovelaceAmount returns an ADA amount, negated when negative is set.
func LovelaceAmount(lovelace uint64, negative bool) *Amount {
	value := new(big.Int).SetUint64(lovelace)
	if negative {
		value.Neg(value)
	}
	return &Amount{
		Value:    value.String(),
		Currency: AdaCurrency(),
	}
}

// AssetAmount returns a native asset amount.
func AssetAmount(policyID []byte, name []byte, quantity uint64, negative bool) *Amount {
	value := strconv.FormatUint(quantity, 10)
	if negative && quantity != 0 {
		value = "-" + value
	}
	return &Amount{
		Value: value,
		Currency: NativeAssetCurrency(
			hex.EncodeToString(policyID),
			hex.EncodeToString(name),
		),
	}
}

// BigValue parses the amount value as a decimal integer.
func (a *Amount) BigValue() (*big.Int, bool) {
	if a == nil {
		return nil, false
	}
	return new(big.Int).SetString(a.Value, 10)
}
