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

package transaction

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/blinklabs-io/bowerbird/codec"
	"github.com/blinklabs-io/bowerbird/mesh"
)

const (
	extraOperations  = "operations"
	extraMetadataHex = "transactionMetadataHex"
)

var errEmptyPayload = errors.New("empty transaction payload")

// envelope is the hex blob handed to callers between construction steps.
// It wraps the body (or signed transaction) bytes together with the
// operations that cannot be recovered from the ledger encoding and the
// auxiliary data the body commits to.
type envelope struct {
	Payload    []byte
	Operations []*mesh.Operation
	AuxData    []byte
}

func (e envelope) encode() (string, error) {
	ops := e.Operations
	if ops == nil {
		ops = []*mesh.Operation{}
	}
	opsJSON, err := json.Marshal(ops)
	if err != nil {
		return "", fmt.Errorf("encode operations: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(opsJSON))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return "", fmt.Errorf("encode operations: %w", err)
	}
	opsItem, err := codec.FromJSON(generic)
	if err != nil {
		return "", fmt.Errorf("encode operations: %w", err)
	}
	extra := codec.Map(
		codec.Pair{Key: codec.Text(extraOperations), Value: opsItem},
		codec.Pair{
			Key:   codec.Text(extraMetadataHex),
			Value: codec.Text(hex.EncodeToString(e.AuxData)),
		},
	)
	raw, err := codec.Encode(codec.Array(
		codec.Text(hex.EncodeToString(e.Payload)),
		extra,
	))
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

// decodeEnvelope accepts an envelope or bare payload bytes, both hex
// encoded.
func decodeEnvelope(blob string) (envelope, error) {
	raw, err := hex.DecodeString(blob)
	if err != nil {
		return envelope{}, err
	}
	if len(raw) == 0 {
		return envelope{}, errEmptyPayload
	}
	item, err := codec.DecodeOne(raw)
	if err != nil {
		return envelope{}, err
	}
	elems, err := item.Array()
	if err != nil || len(elems) != 2 || elems[0].Kind() != codec.KindText {
		return envelope{Payload: raw}, nil
	}
	payloadHex, err := elems[0].Text()
	if err != nil {
		return envelope{}, err
	}
	var ret envelope
	if ret.Payload, err = hex.DecodeString(payloadHex); err != nil {
		return envelope{}, fmt.Errorf("envelope payload: %w", err)
	}
	if len(ret.Payload) == 0 {
		return envelope{}, errEmptyPayload
	}
	if opsItem, ok := elems[1].LookupText(extraOperations); ok && !opsItem.IsNull() {
		generic, err := codec.ToJSON(opsItem)
		if err != nil {
			return envelope{}, fmt.Errorf("envelope operations: %w", err)
		}
		opsJSON, err := json.Marshal(generic)
		if err != nil {
			return envelope{}, fmt.Errorf("envelope operations: %w", err)
		}
		if err := json.Unmarshal(opsJSON, &ret.Operations); err != nil {
			return envelope{}, fmt.Errorf("envelope operations: %w", err)
		}
	}
	if metaItem, ok := elems[1].LookupText(extraMetadataHex); ok && !metaItem.IsNull() {
		metaHex, err := metaItem.Text()
		if err != nil {
			return envelope{}, fmt.Errorf("envelope metadata: %w", err)
		}
		aux, err := hex.DecodeString(metaHex)
		if err != nil {
			return envelope{}, fmt.Errorf("envelope metadata: %w", err)
		}
		if len(aux) > 0 {
			ret.AuxData = aux
		}
	}
	return ret, nil
}
