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

package address

import (
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/bech32"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"

	"github.com/blinklabs-io/bowerbird/failure"
)

const (
	poolHRP     = "pool"
	keyHashSize = lcommon.AddressHashSize
)

var shelleyHRPs = map[string]bool{
	"addr":       true,
	"addr_test":  true,
	"stake":      true,
	"stake_test": true,
}

func invalidAddress(addr string, err error) error {
	fields := []failure.FieldFunc{failure.WithString("address", addr)}
	if err != nil {
		fields = append(fields, failure.WithErr(err))
	}
	return failure.New(failure.ErrInvalidAddress, fields...)
}

// decode returns the parsed address along with the exact bytes it was
// decoded from. Byron addresses are kept as their original encoding.
func decode(addr string) (lcommon.Address, []byte, error) {
	var raw []byte
	if strings.ToLower(addr) != addr {
		raw = base58.Decode(addr)
	} else {
		hrp, data, err := bech32.DecodeNoLimit(addr)
		if err != nil {
			return lcommon.Address{}, nil, invalidAddress(addr, err)
		}
		if !shelleyHRPs[hrp] {
			return lcommon.Address{}, nil, invalidAddress(addr, nil)
		}
		raw, err = bech32.ConvertBits(data, 5, 8, false)
		if err != nil {
			return lcommon.Address{}, nil, invalidAddress(addr, err)
		}
	}
	if len(raw) == 0 {
		return lcommon.Address{}, nil, invalidAddress(addr, nil)
	}
	ret, err := lcommon.NewAddressFromBytes(raw)
	if err != nil {
		return lcommon.Address{}, nil, invalidAddress(addr, err)
	}
	return ret, raw, nil
}

// Parse decodes a bech32 Shelley address or a base58 Byron address.
func Parse(addr string) (lcommon.Address, error) {
	ret, _, err := decode(addr)
	return ret, err
}

// Bytes returns the ledger encoding of an address string.
func Bytes(addr string) ([]byte, error) {
	_, raw, err := decode(addr)
	return raw, err
}

// FromBytes returns the display form of a ledger-encoded address.
func FromBytes(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", invalidAddress(hex.EncodeToString(raw), nil)
	}
	addr, err := lcommon.NewAddressFromBytes(raw)
	if err != nil {
		return "", invalidAddress(hex.EncodeToString(raw), err)
	}
	if addr.Type() == lcommon.AddressTypeByron {
		return base58.Encode(raw), nil
	}
	return addr.String(), nil
}

// IsByron reports whether addr is a valid Byron-era address.
func IsByron(addr string) bool {
	parsed, err := Parse(addr)
	return err == nil && parsed.Type() == lcommon.AddressTypeByron
}

// IsReward reports whether addr is a stake (reward) address.
func IsReward(addr lcommon.Address) bool {
	return addr.Type() == lcommon.AddressTypeNoneKey ||
		addr.Type() == lcommon.AddressTypeNoneScript
}

// ParseRewardAddress decodes a stake address.
func ParseRewardAddress(addr string) (lcommon.Address, error) {
	ret, err := Parse(addr)
	if err != nil {
		return lcommon.Address{}, err
	}
	if !IsReward(ret) {
		return lcommon.Address{}, invalidAddress(addr, nil)
	}
	return ret, nil
}

// StakeKeyHash returns the staking credential of a reward or base address.
func StakeKeyHash(addr lcommon.Address) (lcommon.Blake2b224, bool) {
	switch addr.Type() {
	case lcommon.AddressTypeNoneKey,
		lcommon.AddressTypeKeyKey,
		lcommon.AddressTypeScriptKey:
		return addr.StakeKeyHash(), true
	default:
		return lcommon.Blake2b224{}, false
	}
}

// ParsePoolKeyHash accepts a pool key hash as 56 hex characters or as a
// bech32 pool id.
func ParsePoolKeyHash(value string) (lcommon.Blake2b224, error) {
	invalid := func(err error) error {
		fields := []failure.FieldFunc{failure.WithString("pool_key_hash", value)}
		if err != nil {
			fields = append(fields, failure.WithErr(err))
		}
		return failure.New(failure.ErrInvalidPoolKeyHash, fields...)
	}
	var raw []byte
	if strings.HasPrefix(value, poolHRP+"1") {
		hrp, data, err := bech32.Decode(value)
		if err != nil {
			return lcommon.Blake2b224{}, invalid(err)
		}
		if hrp != poolHRP {
			return lcommon.Blake2b224{}, invalid(nil)
		}
		raw, err = bech32.ConvertBits(data, 5, 8, false)
		if err != nil {
			return lcommon.Blake2b224{}, invalid(err)
		}
	} else {
		var err error
		raw, err = hex.DecodeString(value)
		if err != nil {
			return lcommon.Blake2b224{}, invalid(err)
		}
	}
	if len(raw) != keyHashSize {
		return lcommon.Blake2b224{}, invalid(nil)
	}
	return lcommon.NewBlake2b224(raw), nil
}

// PoolID returns the bech32 pool id for a pool key hash.
func PoolID(hash lcommon.Blake2b224) (string, error) {
	conv, err := bech32.ConvertBits(hash[:], 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(poolHRP, conv)
}
