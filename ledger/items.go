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

// Package ledger contains the native transaction entities produced by the
// construction API. Entities are gouroboros ledger types wherever their
// encoding matches what the ledger expects; the few adapters here keep
// the bytes the transaction id and addresses depend on.
package ledger

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/gouroboros/cbor"
	_cbor "github.com/fxamacker/cbor/v2"

	"github.com/blinklabs-io/bowerbird/codec"
)

var ErrUnsupportedCertificate = errors.New("unsupported certificate")

// cborNull is the encoding of a null value
const cborNull = 0xf6

// decodeSet decodes an array into dest, unwrapping the set tag Conway
// allows around it.
func decodeSet(data []byte, dest any) error {
	if len(data) > 0 && data[0]>>5 == 6 {
		var tag _cbor.RawTag
		if _, err := cbor.Decode(data, &tag); err != nil {
			return err
		}
		if tag.Number != cbor.CborTagSet {
			return fmt.Errorf("unexpected tag %d", tag.Number)
		}
		data = tag.Content
	}
	_, err := cbor.Decode(data, dest)
	return err
}

// decodeFields decodes a map with unsigned keys into its raw values.
func decodeFields(data []byte, what string) (map[uint64]cbor.RawMessage, error) {
	var ret map[uint64]cbor.RawMessage
	if _, err := cbor.Decode(data, &ret); err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return ret, nil
}

func isNull(data []byte) bool {
	return len(data) == 1 && data[0] == cborNull
}

func fixedArray(item codec.Item, minLen int, what string) ([]codec.Item, error) {
	elems, err := item.Array()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	if len(elems) < minLen {
		return nil, fmt.Errorf(
			"%s: expected at least %d elements, found %d",
			what,
			minLen,
			len(elems),
		)
	}
	return elems, nil
}

func uintField(item codec.Item, what string) (uint64, error) {
	v, err := item.Uint()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", what, err)
	}
	return v, nil
}

func codecMismatch(item codec.Item, expected codec.Kind) error {
	return fmt.Errorf(
		"%w: expected %s, found %s",
		codec.ErrInvalidMajorType,
		expected,
		item.Kind(),
	)
}
