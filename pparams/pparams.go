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

// Package pparams holds the protocol parameter snapshot and the fee,
// TTL and deposit arithmetic derived from it.
package pparams

import (
	"math/bits"

	"github.com/blinklabs-io/bowerbird/failure"
)

// DefaultRelativeTTL is the number of slots added to the current slot
// when the caller does not request a relative TTL.
const DefaultRelativeTTL uint64 = 1000

// ProtocolParams is an immutable snapshot of the ledger parameters used
// to price a transaction. It is safe to share between goroutines.
type ProtocolParams struct {
	MinFeeA              uint64             `json:"minFeeCoefficient"`
	MinFeeB              uint64             `json:"minFeeConstant"`
	MaxTxSize            uint64             `json:"maxTxSize"`
	KeyDeposit           uint64             `json:"keyDeposit"`
	PoolDeposit          uint64             `json:"poolDeposit"`
	MinPoolCost          uint64             `json:"minPoolCost"`
	AdaPerUtxoByte       uint64             `json:"coinsPerUtxoSize"`
	MaxValSize           uint64             `json:"maxValSize"`
	MaxCollateralInputs  uint64             `json:"maxCollateralInputs"`
	ProtocolMajorVersion uint64             `json:"protocol"`
	CostModels           map[string][]int64 `json:"costModels,omitempty"`
}

// MinimumFee returns min_fee_a * txSize + min_fee_b.
func (p *ProtocolParams) MinimumFee(txSize uint64) (uint64, error) {
	hi, product := bits.Mul64(p.MinFeeA, txSize)
	if hi != 0 {
		return 0, overflow("minimum_fee")
	}
	fee, carry := bits.Add64(product, p.MinFeeB, 0)
	if carry != 0 {
		return 0, overflow("minimum_fee")
	}
	return fee, nil
}

// Deposits returns the deposit values of the snapshot.
func (p *ProtocolParams) Deposits() Deposits {
	return Deposits{
		Key:  p.KeyDeposit,
		Pool: p.PoolDeposit,
	}
}

// TTL returns the absolute slot a transaction stays valid until.
func TTL(currentSlot uint64, relativeTTL uint64) (uint64, error) {
	ret, carry := bits.Add64(currentSlot, relativeTTL, 0)
	if carry != 0 {
		return 0, overflow("ttl")
	}
	return ret, nil
}

func overflow(field string) error {
	return failure.New(
		failure.ErrAmountOverflow,
		failure.WithString("field", field),
	)
}
