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
	"errors"
	"fmt"
	"slices"

	"github.com/blinklabs-io/gouroboros/cbor"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/blinklabs-io/gouroboros/ledger/shelley"
)

// Transaction body map keys
const (
	bodyKeyInputs        = 0
	bodyKeyOutputs       = 1
	bodyKeyFee           = 2
	bodyKeyTTL           = 3
	bodyKeyCertificates  = 4
	bodyKeyWithdrawals   = 5
	bodyKeyAuxDataHash   = 7
	bodyKeyValidityStart = 8
)

type TransactionBody struct {
	Inputs        []shelley.ShelleyTransactionInput
	Outputs       []TransactionOutput
	Fee           uint64
	TTL           *uint64
	Certificates  []lcommon.Certificate
	Withdrawals   []Withdrawal
	AuxDataHash   *lcommon.Blake2b256
	ValidityStart *uint64
}

type transactionBodyCbor struct {
	Inputs        []shelley.ShelleyTransactionInput `cbor:"0,keyasint"`
	Outputs       []TransactionOutput               `cbor:"1,keyasint"`
	Fee           uint64                            `cbor:"2,keyasint"`
	TTL           *uint64                           `cbor:"3,keyasint,omitempty"`
	Certificates  []cbor.RawMessage                 `cbor:"4,keyasint,omitempty"`
	Withdrawals   map[cbor.ByteString]uint64        `cbor:"5,keyasint,omitempty"`
	AuxDataHash   *lcommon.Blake2b256               `cbor:"7,keyasint,omitempty"`
	ValidityStart *uint64                           `cbor:"8,keyasint,omitempty"`
}

// MarshalCBOR encodes the body with ascending keys. Optional fields are
// left out when empty.
func (b *TransactionBody) MarshalCBOR() ([]byte, error) {
	tmp := transactionBodyCbor{
		Inputs:        b.Inputs,
		Outputs:       b.Outputs,
		Fee:           b.Fee,
		TTL:           b.TTL,
		AuxDataHash:   b.AuxDataHash,
		ValidityStart: b.ValidityStart,
	}
	if tmp.Inputs == nil {
		tmp.Inputs = []shelley.ShelleyTransactionInput{}
	}
	if tmp.Outputs == nil {
		tmp.Outputs = []TransactionOutput{}
	}
	for idx, cert := range b.Certificates {
		data, err := encodeCertificate(cert)
		if err != nil {
			return nil, fmt.Errorf("certificate %d: %w", idx, err)
		}
		tmp.Certificates = append(tmp.Certificates, data)
	}
	if len(b.Withdrawals) > 0 {
		tmp.Withdrawals = make(map[cbor.ByteString]uint64, len(b.Withdrawals))
		for _, withdrawal := range b.Withdrawals {
			tmp.Withdrawals[cbor.NewByteString(withdrawal.RewardAccount)] += withdrawal.Amount
		}
	}
	return cbor.Encode(&tmp)
}

// UnmarshalCBOR decodes a transaction body. Fields the construction API
// does not produce are ignored, as are unsupported certificates.
func (b *TransactionBody) UnmarshalCBOR(data []byte) error {
	fields, err := decodeFields(data, "transaction body")
	if err != nil {
		return err
	}
	var ret TransactionBody
	inputs, ok := fields[bodyKeyInputs]
	if !ok {
		return errors.New("transaction body: missing inputs")
	}
	if err := decodeSet(inputs, &ret.Inputs); err != nil {
		return fmt.Errorf("transaction inputs: %w", err)
	}
	outputs, ok := fields[bodyKeyOutputs]
	if !ok {
		return errors.New("transaction body: missing outputs")
	}
	if _, err := cbor.Decode(outputs, &ret.Outputs); err != nil {
		return fmt.Errorf("transaction outputs: %w", err)
	}
	fee, ok := fields[bodyKeyFee]
	if !ok {
		return errors.New("transaction body: missing fee")
	}
	if _, err := cbor.Decode(fee, &ret.Fee); err != nil {
		return fmt.Errorf("transaction fee: %w", err)
	}
	if ttl, ok := fields[bodyKeyTTL]; ok {
		var v uint64
		if _, err := cbor.Decode(ttl, &v); err != nil {
			return fmt.Errorf("transaction ttl: %w", err)
		}
		ret.TTL = &v
	}
	if certs, ok := fields[bodyKeyCertificates]; ok {
		var raws []cbor.RawMessage
		if err := decodeSet(certs, &raws); err != nil {
			return fmt.Errorf("certificates: %w", err)
		}
		for _, raw := range raws {
			cert, err := decodeCertificate(raw)
			if err != nil {
				if errors.Is(err, ErrUnsupportedCertificate) {
					continue
				}
				return err
			}
			ret.Certificates = append(ret.Certificates, cert)
		}
	}
	if withdrawals, ok := fields[bodyKeyWithdrawals]; ok {
		var accounts map[cbor.ByteString]uint64
		if _, err := cbor.Decode(withdrawals, &accounts); err != nil {
			return fmt.Errorf("withdrawals: %w", err)
		}
		for account, amount := range accounts {
			ret.Withdrawals = append(ret.Withdrawals, Withdrawal{
				RewardAccount: bytes.Clone(account.Bytes()),
				Amount:        amount,
			})
		}
		slices.SortFunc(ret.Withdrawals, func(a, b Withdrawal) int {
			return bytes.Compare(a.RewardAccount, b.RewardAccount)
		})
	}
	if auxHash, ok := fields[bodyKeyAuxDataHash]; ok {
		hash, err := decodeHash(auxHash, lcommon.Blake2b256Size, "auxiliary data hash")
		if err != nil {
			return err
		}
		v := lcommon.NewBlake2b256(hash)
		ret.AuxDataHash = &v
	}
	if start, ok := fields[bodyKeyValidityStart]; ok {
		var v uint64
		if _, err := cbor.Decode(start, &v); err != nil {
			return fmt.Errorf("validity interval start: %w", err)
		}
		ret.ValidityStart = &v
	}
	*b = ret
	return nil
}

// NewTransactionBodyFromCbor decodes an encoded transaction body.
func NewTransactionBodyFromCbor(data []byte) (TransactionBody, error) {
	var ret TransactionBody
	if _, err := cbor.Decode(data, &ret); err != nil {
		return TransactionBody{}, err
	}
	return ret, nil
}
