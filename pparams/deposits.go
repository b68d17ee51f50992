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

package pparams

import (
	"math/big"
	"math/bits"
	"strconv"

	"github.com/blinklabs-io/bowerbird/failure"
)

// Deposits are the lovelace amounts locked by key and pool registrations.
type Deposits struct {
	Key  uint64
	Pool uint64
}

// DepositParameters optionally override the snapshot deposits.
type DepositParameters struct {
	KeyDeposit  *string `json:"keyDeposit,omitempty"`
	PoolDeposit *string `json:"poolDeposit,omitempty"`
}

// Resolve applies the overrides on top of the fallback deposits.
func (d *DepositParameters) Resolve(fallback Deposits) (Deposits, error) {
	ret := fallback
	if d == nil {
		return ret, nil
	}
	if d.KeyDeposit != nil {
		v, err := parseDeposit("keyDeposit", *d.KeyDeposit)
		if err != nil {
			return Deposits{}, err
		}
		ret.Key = v
	}
	if d.PoolDeposit != nil {
		v, err := parseDeposit("poolDeposit", *d.PoolDeposit)
		if err != nil {
			return Deposits{}, err
		}
		ret.Pool = v
	}
	return ret, nil
}

func parseDeposit(field string, value string) (uint64, error) {
	ret, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, failure.New(
			failure.ErrInvalidDepositParameters,
			failure.WithString("field", field),
			failure.WithString("value", value),
		)
	}
	return ret, nil
}

// DepositsSum accumulates deposits and refunds while certificates are
// mapped. It is a value type and its methods return updated copies.
type DepositsSum struct {
	KeyDeposits  uint64
	PoolDeposits uint64
	Refunds      uint64
}

func (s DepositsSum) AddKeyDeposit(amount uint64) (DepositsSum, error) {
	sum, carry := bits.Add64(s.KeyDeposits, amount, 0)
	if carry != 0 {
		return s, overflow("key_deposits_sum")
	}
	s.KeyDeposits = sum
	return s, nil
}

func (s DepositsSum) AddPoolDeposit(amount uint64) (DepositsSum, error) {
	sum, carry := bits.Add64(s.PoolDeposits, amount, 0)
	if carry != 0 {
		return s, overflow("pool_deposits_sum")
	}
	s.PoolDeposits = sum
	return s, nil
}

func (s DepositsSum) AddRefund(amount uint64) (DepositsSum, error) {
	sum, carry := bits.Add64(s.Refunds, amount, 0)
	if carry != 0 {
		return s, overflow("refunds_sum")
	}
	s.Refunds = sum
	return s, nil
}

// NetFee returns inputs + withdrawals + refunds - outputs - deposits.
func NetFee(
	inputSum uint64,
	outputSum uint64,
	withdrawalSum uint64,
	deposits DepositsSum,
) (uint64, error) {
	fee := new(big.Int).SetUint64(inputSum)
	fee.Add(fee, new(big.Int).SetUint64(withdrawalSum))
	fee.Add(fee, new(big.Int).SetUint64(deposits.Refunds))
	fee.Sub(fee, new(big.Int).SetUint64(outputSum))
	fee.Sub(fee, new(big.Int).SetUint64(deposits.KeyDeposits))
	fee.Sub(fee, new(big.Int).SetUint64(deposits.PoolDeposits))
	if fee.Sign() < 0 {
		return 0, failure.New(
			failure.ErrOutputsExceedInputs,
			failure.WithString("fee", fee.String()),
		)
	}
	if !fee.IsUint64() {
		return 0, overflow("fee")
	}
	return fee.Uint64(), nil
}
