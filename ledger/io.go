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

package ledger

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/blinklabs-io/gouroboros/cbor"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/blinklabs-io/gouroboros/ledger/mary"
	"github.com/blinklabs-io/gouroboros/ledger/shelley"
)

// Output map keys
const (
	outputKeyAddress = 0
	outputKeyValue   = 1
)

// ParseCoinIdentifier parses a "<tx hash>:<index>" coin identifier.
func ParseCoinIdentifier(id string) (shelley.ShelleyTransactionInput, error) {
	hashHex, indexStr, ok := strings.Cut(id, ":")
	if !ok {
		return shelley.ShelleyTransactionInput{}, fmt.Errorf("coin identifier %q has no index", id)
	}
	hash, err := hex.DecodeString(hashHex)
	if err != nil {
		return shelley.ShelleyTransactionInput{}, fmt.Errorf("coin identifier %q: %w", id, err)
	}
	if len(hash) != lcommon.Blake2b256Size {
		return shelley.ShelleyTransactionInput{}, fmt.Errorf(
			"coin identifier %q: transaction hash must be %d bytes",
			id,
			lcommon.Blake2b256Size,
		)
	}
	index, err := strconv.ParseUint(indexStr, 10, 32)
	if err != nil {
		return shelley.ShelleyTransactionInput{}, fmt.Errorf("coin identifier %q: %w", id, err)
	}
	return shelley.ShelleyTransactionInput{
		TxId:        lcommon.NewBlake2b256(hash),
		OutputIndex: uint32(index),
	}, nil
}

// CoinIdentifier returns the input as a coin identifier.
func CoinIdentifier(input shelley.ShelleyTransactionInput) string {
	return hex.EncodeToString(input.TxId[:]) + ":" +
		strconv.FormatUint(uint64(input.OutputIndex), 10)
}

// TransactionOutput is a transaction output in the legacy array form. The
// address is held as encoded so Byron addresses keep their exact bytes,
// which lcommon.Address rebuilds from parsed attributes.
type TransactionOutput struct {
	Address []byte
	Amount  mary.MaryTransactionOutputValue
}

// NewTransactionOutput returns an output of coin lovelace plus the
// native assets, if any.
func NewTransactionOutput(
	addr []byte,
	coin uint64,
	assets *lcommon.MultiAsset[lcommon.MultiAssetTypeOutput],
) TransactionOutput {
	return TransactionOutput{
		Address: addr,
		Amount: mary.MaryTransactionOutputValue{
			Amount: coin,
			Assets: assets,
		},
	}
}

func (o TransactionOutput) Coin() uint64 {
	return o.Amount.Amount
}

func (o TransactionOutput) Assets() *lcommon.MultiAsset[lcommon.MultiAssetTypeOutput] {
	return o.Amount.Assets
}

func (o *TransactionOutput) MarshalCBOR() ([]byte, error) {
	addr := o.Address
	if addr == nil {
		addr = []byte{}
	}
	return cbor.Encode([]any{addr, &o.Amount})
}

// UnmarshalCBOR accepts the legacy array form and the Babbage map form.
// Datums and reference scripts are ignored.
func (o *TransactionOutput) UnmarshalCBOR(data []byte) error {
	var addrRaw, valueRaw cbor.RawMessage
	if len(data) > 0 && data[0]>>5 == 5 {
		fields, err := decodeFields(data, "transaction output")
		if err != nil {
			return err
		}
		var ok bool
		if addrRaw, ok = fields[outputKeyAddress]; !ok {
			return errors.New("transaction output: missing address")
		}
		if valueRaw, ok = fields[outputKeyValue]; !ok {
			return errors.New("transaction output: missing value")
		}
	} else {
		var elems []cbor.RawMessage
		if _, err := cbor.Decode(data, &elems); err != nil {
			return fmt.Errorf("transaction output: %w", err)
		}
		if len(elems) < 2 {
			return fmt.Errorf("transaction output: expected at least 2 elements, found %d", len(elems))
		}
		addrRaw, valueRaw = elems[0], elems[1]
	}
	var addr []byte
	if _, err := cbor.Decode(addrRaw, &addr); err != nil {
		return fmt.Errorf("transaction output address: %w", err)
	}
	var value mary.MaryTransactionOutputValue
	if _, err := cbor.Decode(valueRaw, &value); err != nil {
		return fmt.Errorf("transaction output value: %w", err)
	}
	o.Address = bytes.Clone(addr)
	o.Amount = value
	return nil
}

// SortedPolicies returns the policies of a multi-asset in ascending
// order.
func SortedPolicies(assets *lcommon.MultiAsset[lcommon.MultiAssetTypeOutput]) []lcommon.Blake2b224 {
	if assets == nil {
		return nil
	}
	ret := assets.Policies()
	slices.SortFunc(ret, func(a, b lcommon.Blake2b224) int {
		return bytes.Compare(a[:], b[:])
	})
	return ret
}

// SortedAssetNames returns the asset names under a policy in ascending
// order.
func SortedAssetNames(
	assets *lcommon.MultiAsset[lcommon.MultiAssetTypeOutput],
	policy lcommon.Blake2b224,
) [][]byte {
	if assets == nil {
		return nil
	}
	ret := assets.Assets(policy)
	slices.SortFunc(ret, bytes.Compare)
	return ret
}

type Withdrawal struct {
	RewardAccount []byte
	Amount        uint64
}
