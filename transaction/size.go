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
	"github.com/blinklabs-io/gouroboros/cbor"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"

	"github.com/blinklabs-io/bowerbird/address"
	"github.com/blinklabs-io/bowerbird/failure"
	"github.com/blinklabs-io/bowerbird/ledger"
	"github.com/blinklabs-io/bowerbird/mapper"
	"github.com/blinklabs-io/bowerbird/mesh"
)

// estimateFee stands in for the fee while sizing. It takes as many bytes
// as any realistic fee.
const estimateFee = 1<<32 - 1

// EstimateSize returns the size in bytes of the signed transaction the
// operations produce. Witnesses use zeroed keys and signatures of the
// real sizes.
func EstimateSize(ops []*mesh.Operation, params BuildParams) (int, error) {
	entities, err := mapper.FromOperations(ops, params.Params)
	if err != nil {
		return 0, err
	}
	ttl := params.TTL
	body := entities.Body(estimateFee, &ttl)
	tx := ledger.Transaction{Valid: true}
	if tx.AuxiliaryData, body.AuxDataHash, err = auxiliaryData(entities.VoteRegistration); err != nil {
		return 0, err
	}
	if tx.BodyBytes, err = cbor.Encode(&body); err != nil {
		return 0, failure.New(failure.ErrCantEncodeTransaction, failure.WithErr(err))
	}
	tx.Body = body
	if tx.Witnesses, err = dummyWitnesses(entities.Signers); err != nil {
		return 0, err
	}
	raw, err := cbor.Encode(&tx)
	if err != nil {
		return 0, failure.New(failure.ErrCantEncodeTransaction, failure.WithErr(err))
	}
	return len(raw), nil
}

func dummyWitnesses(signers []*mesh.AccountIdentifier) (ledger.WitnessSet, error) {
	var ret ledger.WitnessSet
	for _, signer := range signers {
		if !address.IsByron(signer.Address) {
			ret.Vkey = append(ret.Vkey, lcommon.VkeyWitness{
				Vkey:      make([]byte, address.PublicKeySize),
				Signature: make([]byte, signatureSize),
			})
			continue
		}
		attributes, err := address.BootstrapAttributes(signer.Address)
		if err != nil {
			return ledger.WitnessSet{}, err
		}
		ret.Bootstrap = append(ret.Bootstrap, lcommon.BootstrapWitness{
			PublicKey:  make([]byte, address.PublicKeySize),
			Signature:  make([]byte, signatureSize),
			ChainCode:  make([]byte, address.ChainCodeSize),
			Attributes: attributes,
		})
	}
	return ret, nil
}
