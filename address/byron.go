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
	"bytes"
	"errors"
	"fmt"

	"github.com/blinklabs-io/gouroboros/cbor"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"golang.org/x/crypto/sha3"

	"github.com/blinklabs-io/bowerbird/codec"
	"github.com/blinklabs-io/bowerbird/failure"
)

var errNotByron = errors.New("not a Byron address")

// byronAddress is a parsed Byron address along with its attributes as
// encoded. lcommon.Address re-encodes the attributes it parsed, which
// need not match the bytes the address root commits to, so those are
// sliced out of the original encoding.
type byronAddress struct {
	addr       lcommon.Address
	attributes []byte
}

// byronAttributes returns the encoded attribute map of a Byron address,
// the second field of the tag 24 payload.
func byronAttributes(raw []byte) ([]byte, error) {
	outer, err := codec.DecodeOne(raw)
	if err != nil {
		return nil, err
	}
	elems, err := outer.Array()
	if err != nil {
		return nil, err
	}
	if len(elems) != 2 {
		return nil, fmt.Errorf("expected 2 address elements, found %d", len(elems))
	}
	_, content, err := elems[0].Tag()
	if err != nil {
		return nil, err
	}
	payloadBytes, err := content.Bytes()
	if err != nil {
		return nil, err
	}
	payload, err := codec.DecodeOne(payloadBytes)
	if err != nil {
		return nil, err
	}
	fields, err := payload.Array()
	if err != nil {
		return nil, err
	}
	if len(fields) != 3 {
		return nil, fmt.Errorf("expected 3 payload fields, found %d", len(fields))
	}
	return fields[1].Raw(), nil
}

func parseByron(addr string) (byronAddress, error) {
	parsed, raw, err := decode(addr)
	if err != nil {
		return byronAddress{}, err
	}
	if parsed.Type() != lcommon.AddressTypeByron {
		return byronAddress{}, invalidAddress(addr, errNotByron)
	}
	attributes, err := byronAttributes(raw)
	if err != nil {
		return byronAddress{}, invalidAddress(addr, err)
	}
	// The slice must hold the attributes the address was parsed with
	var check lcommon.ByronAddressAttributes
	if _, err := cbor.Decode(attributes, &check); err != nil {
		return byronAddress{}, invalidAddress(addr, err)
	}
	parsedAttr := parsed.ByronAttr()
	if !bytes.Equal(check.Payload, parsedAttr.Payload) ||
		(check.Network == nil) != (parsedAttr.Network == nil) ||
		(check.Network != nil && *check.Network != *parsedAttr.Network) {
		return byronAddress{}, invalidAddress(addr, errors.New("attribute mismatch"))
	}
	return byronAddress{addr: parsed, attributes: attributes}, nil
}

// BootstrapAttributes returns the encoded attributes of a Byron address,
// as carried by bootstrap witnesses.
func BootstrapAttributes(addr string) ([]byte, error) {
	parsed, err := parseByron(addr)
	if err != nil {
		return nil, err
	}
	return parsed.attributes, nil
}

// VerifyBootstrapKey checks that the extended public key formed by
// pubKey and chainCode is the one committed to by a Byron address.
func VerifyBootstrapKey(addr string, pubKey []byte, chainCode []byte) error {
	if len(chainCode) != ChainCodeSize {
		return failure.New(
			failure.ErrInvalidChainCode,
			failure.WithInt("length", len(chainCode)),
		)
	}
	parsed, err := parseByron(addr)
	if err != nil {
		return err
	}
	xpub := make([]byte, 0, len(pubKey)+len(chainCode))
	xpub = append(xpub, pubKey...)
	xpub = append(xpub, chainCode...)
	spendingBytes, err := cbor.Encode([]any{
		parsed.addr.ByronType(),
		[]any{uint64(lcommon.ByronAddressTypePubkey), xpub},
		cbor.RawMessage(parsed.attributes),
	})
	if err != nil {
		return err
	}
	digest := sha3.Sum256(spendingBytes)
	root := lcommon.Blake2b224Hash(digest[:])
	expected := parsed.addr.PaymentKeyHash()
	if !bytes.Equal(root[:], expected[:]) {
		return failure.New(
			failure.ErrInvalidChainCode,
			failure.WithString("address", addr),
		)
	}
	return nil
}
