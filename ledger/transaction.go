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
	"fmt"

	"github.com/blinklabs-io/gouroboros/cbor"
)

// Transaction is a signed transaction. BodyBytes keeps the exact body
// encoding, which the transaction id is computed over, and
// AuxiliaryData keeps the encoding its hash was computed over.
type Transaction struct {
	Body          TransactionBody
	BodyBytes     []byte
	Witnesses     WitnessSet
	Valid         bool
	AuxiliaryData []byte
}

// MarshalCBOR encodes the transaction as [body, witness set, is valid,
// aux]. The body and auxiliary data are spliced in as held.
func (t *Transaction) MarshalCBOR() ([]byte, error) {
	var aux any
	if len(t.AuxiliaryData) > 0 {
		aux = cbor.RawMessage(t.AuxiliaryData)
	}
	return cbor.Encode([]any{
		cbor.RawMessage(t.BodyBytes),
		&t.Witnesses,
		t.Valid,
		aux,
	})
}

// UnmarshalCBOR decodes a Shelley-style [body, witnesses, aux] or
// Alonzo-style [body, witnesses, is valid, aux] transaction.
func (t *Transaction) UnmarshalCBOR(data []byte) error {
	var elems []cbor.RawMessage
	if _, err := cbor.Decode(data, &elems); err != nil {
		return fmt.Errorf("transaction: %w", err)
	}
	if len(elems) < 3 || len(elems) > 4 {
		return fmt.Errorf("transaction: expected 3 or 4 elements, found %d", len(elems))
	}
	ret := Transaction{
		BodyBytes: bytes.Clone(elems[0]),
		Valid:     true,
	}
	if _, err := cbor.Decode(elems[0], &ret.Body); err != nil {
		return err
	}
	if _, err := cbor.Decode(elems[1], &ret.Witnesses); err != nil {
		return err
	}
	aux := elems[2]
	if len(elems) == 4 {
		if _, err := cbor.Decode(elems[2], &ret.Valid); err != nil {
			return fmt.Errorf("transaction validity flag: %w", err)
		}
		aux = elems[3]
	}
	if !isNull(aux) {
		ret.AuxiliaryData = bytes.Clone(aux)
	}
	*t = ret
	return nil
}

// NewTransactionFromCbor decodes an encoded transaction.
func NewTransactionFromCbor(data []byte) (Transaction, error) {
	var ret Transaction
	if _, err := cbor.Decode(data, &ret); err != nil {
		return Transaction{}, err
	}
	return ret, nil
}
