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

// Package address derives and parses Cardano addresses for the
// construction API.
package address

import (
	"encoding/hex"
	"strconv"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"

	"github.com/blinklabs-io/bowerbird/failure"
)

// Type is an address variant that can be requested in a derive call.
type Type string

const (
	TypeEnterprise  Type = "Enterprise"
	TypeBase        Type = "Base"
	TypeReward      Type = "Reward"
	TypePoolKeyHash Type = "PoolKeyHash"
)

const (
	// PublicKeySize is the size of an ed25519 public key
	PublicKeySize = 32
	// ChainCodeSize is the size of a BIP32-Ed25519 chain code
	ChainCodeSize = 32

	networkMainnet = "mainnet"
)

// NetworkID returns the address network id for a network name. Only
// mainnet uses the mainnet id.
func NetworkID(network string) uint8 {
	if network == networkMainnet {
		return lcommon.AddressNetworkMainnet
	}
	return lcommon.AddressNetworkTestnet
}

// ParsePublicKey decodes a hex ed25519 public key.
func ParsePublicKey(pubKeyHex string) ([]byte, error) {
	ret, err := hex.DecodeString(pubKeyHex)
	if err != nil {
		return nil, failure.New(
			failure.ErrInvalidPublicKeyFormat,
			failure.WithErr(err),
		)
	}
	if len(ret) != PublicKeySize {
		return nil, failure.New(
			failure.ErrInvalidPublicKeyFormat,
			failure.WithMismatch("length", "32", strconv.Itoa(len(ret))),
		)
	}
	return ret, nil
}

// KeyHash returns the blake2b-224 credential hash of a public key.
func KeyHash(pubKey []byte) lcommon.Blake2b224 {
	return lcommon.Blake2b224Hash(pubKey)
}

// Derive builds an address of the requested type from raw public keys.
// A Reward address without a staking key uses the payment key as the
// reward credential.
func Derive(
	addrType Type,
	networkID uint8,
	paymentKey []byte,
	stakingKey []byte,
) (lcommon.Address, error) {
	if len(paymentKey) != PublicKeySize {
		return lcommon.Address{}, failure.New(
			failure.ErrInvalidPublicKeyFormat,
			failure.WithInt("length", len(paymentKey)),
		)
	}
	if stakingKey != nil && len(stakingKey) != PublicKeySize {
		return lcommon.Address{}, failure.New(
			failure.ErrInvalidStakingKeyFormat,
			failure.WithInt("length", len(stakingKey)),
		)
	}
	paymentHash := KeyHash(paymentKey)
	switch addrType {
	case TypeEnterprise:
		return newAddress(
			lcommon.AddressTypeKeyNone,
			networkID,
			paymentHash[:],
			nil,
		)
	case TypeBase:
		if stakingKey == nil {
			return lcommon.Address{}, failure.New(
				failure.ErrStakingKeyMissing,
				failure.WithString("address_type", string(addrType)),
			)
		}
		stakeHash := KeyHash(stakingKey)
		return newAddress(
			lcommon.AddressTypeKeyKey,
			networkID,
			paymentHash[:],
			stakeHash[:],
		)
	case TypeReward:
		rewardKey := stakingKey
		if rewardKey == nil {
			rewardKey = paymentKey
		}
		return RewardAddress(networkID, KeyHash(rewardKey))
	default:
		return lcommon.Address{}, failure.New(
			failure.ErrInvalidAddressType,
			failure.WithString("address_type", string(addrType)),
		)
	}
}

// RewardAddress returns the stake address for a staking key hash.
func RewardAddress(
	networkID uint8,
	keyHash lcommon.Blake2b224,
) (lcommon.Address, error) {
	return newAddress(lcommon.AddressTypeNoneKey, networkID, nil, keyHash[:])
}

func newAddress(
	addrType uint8,
	networkID uint8,
	payment []byte,
	staking []byte,
) (lcommon.Address, error) {
	addr, err := lcommon.NewAddressFromParts(addrType, networkID, payment, staking)
	if err != nil {
		return lcommon.Address{}, failure.New(
			failure.ErrInvalidAddress,
			failure.WithErr(err),
		)
	}
	return addr, nil
}
