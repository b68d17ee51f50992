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

// Package transaction builds, signs, hashes and parses transactions
// described by Mesh operations.
package transaction

import (
	"encoding/hex"
	"fmt"

	"github.com/blinklabs-io/gouroboros/cbor"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"golang.org/x/crypto/blake2b"

	"github.com/blinklabs-io/bowerbird/address"
	"github.com/blinklabs-io/bowerbird/codec"
	"github.com/blinklabs-io/bowerbird/failure"
	"github.com/blinklabs-io/bowerbird/ledger"
	"github.com/blinklabs-io/bowerbird/mapper"
	"github.com/blinklabs-io/bowerbird/mesh"
)

// signatureSize is the size of an ed25519 signature
const signatureSize = 64

// BuildParams are the inputs of Build besides the operations.
type BuildParams struct {
	mapper.Params
	TTL uint64
}

// Unsigned is a transaction ready to be signed.
type Unsigned struct {
	// Hex is the envelope returned to the caller
	Hex      string
	Body     ledger.TransactionBody
	BodyHash lcommon.Blake2b256
	Payloads []*mesh.SigningPayload
}

// Parsed is the operation view of a transaction.
type Parsed struct {
	Operations []*mesh.Operation
	// Signers is only set for signed transactions
	Signers []*mesh.AccountIdentifier
	Valid   bool
}

// BodyHash returns the blake2b-256 hash of an encoded body, which is the
// transaction id.
func BodyHash(bodyBytes []byte) lcommon.Blake2b256 {
	return lcommon.Blake2b256(blake2b.Sum256(bodyBytes))
}

func auxiliaryData(vote *ledger.VoteRegistration) ([]byte, *lcommon.Blake2b256, error) {
	if vote == nil {
		return nil, nil, nil
	}
	raw, err := codec.Encode(vote.AuxiliaryData())
	if err != nil {
		return nil, nil, failure.New(failure.ErrCantEncodeTransaction, failure.WithErr(err))
	}
	hash := lcommon.Blake2b256(blake2b.Sum256(raw))
	return raw, &hash, nil
}

// Build maps the operations into a transaction body whose fee is the
// implicit fee left by the operations. The body carries that net fee
// rather than a zero placeholder, so the signing payloads carry the hash
// of the fee-bearing body for every required signer.
func Build(ops []*mesh.Operation, params BuildParams) (*Unsigned, error) {
	entities, err := mapper.FromOperations(ops, params.Params)
	if err != nil {
		return nil, err
	}
	fee, err := entities.Fee()
	if err != nil {
		return nil, err
	}
	ttl := params.TTL
	body := entities.Body(fee, &ttl)
	auxData, auxHash, err := auxiliaryData(entities.VoteRegistration)
	if err != nil {
		return nil, err
	}
	body.AuxDataHash = auxHash
	bodyBytes, err := cbor.Encode(&body)
	if err != nil {
		return nil, failure.New(failure.ErrCantEncodeTransaction, failure.WithErr(err))
	}
	envHex, err := envelope{
		Payload:    bodyBytes,
		Operations: entities.Preserved,
		AuxData:    auxData,
	}.encode()
	if err != nil {
		return nil, failure.New(failure.ErrCantEncodeTransaction, failure.WithErr(err))
	}
	ret := &Unsigned{
		Hex:      envHex,
		Body:     body,
		BodyHash: BodyHash(bodyBytes),
		Payloads: make([]*mesh.SigningPayload, 0, len(entities.Signers)),
	}
	hashHex := hex.EncodeToString(ret.BodyHash[:])
	for _, signer := range entities.Signers {
		ret.Payloads = append(ret.Payloads, &mesh.SigningPayload{
			AccountIdentifier: signer,
			HexBytes:          hashHex,
			SignatureType:     mesh.Ed25519,
		})
	}
	return ret, nil
}

func decodeUnsigned(blob string) (envelope, ledger.TransactionBody, error) {
	env, err := decodeEnvelope(blob)
	if err != nil {
		return envelope{}, ledger.TransactionBody{}, cantCreateUnsigned(err)
	}
	body, err := ledger.NewTransactionBodyFromCbor(env.Payload)
	if err != nil {
		return envelope{}, ledger.TransactionBody{}, cantCreateUnsigned(err)
	}
	return env, body, nil
}

func cantCreateUnsigned(err error) error {
	return failure.New(failure.ErrCantCreateUnsignedTransactionFromBytes, failure.WithErr(err))
}

func decodeSigned(blob string) (envelope, ledger.Transaction, error) {
	env, err := decodeEnvelope(blob)
	if err != nil {
		return envelope{}, ledger.Transaction{}, cantCreateSigned(err)
	}
	tx, err := ledger.NewTransactionFromCbor(env.Payload)
	if err != nil {
		return envelope{}, ledger.Transaction{}, cantCreateSigned(err)
	}
	return env, tx, nil
}

func cantCreateSigned(err error) error {
	return failure.New(failure.ErrCantCreateSignedTransactionFromBytes, failure.WithErr(err))
}

// witnessSet turns signatures into key witnesses. Signatures for Byron
// accounts become bootstrap witnesses, which need the chain code of the
// extended key.
func witnessSet(signatures []*mesh.Signature) (ledger.WitnessSet, error) {
	var ret ledger.WitnessSet
	for idx, sig := range signatures {
		if sig == nil || sig.SigningPayload == nil || sig.PublicKey == nil {
			return ledger.WitnessSet{}, failure.New(
				failure.ErrInvalidSignatureFormat,
				failure.WithInt("signature", idx),
			)
		}
		pubKey, err := address.ParsePublicKey(sig.PublicKey.HexBytes)
		if err != nil {
			return ledger.WitnessSet{}, err
		}
		signature, err := hex.DecodeString(sig.HexBytes)
		if err != nil || len(signature) != signatureSize {
			return ledger.WitnessSet{}, failure.New(
				failure.ErrInvalidSignatureFormat,
				failure.WithInt("signature", idx),
				failure.WithString("hex_bytes", sig.HexBytes),
			)
		}
		account := sig.SigningPayload.AccountIdentifier
		if account == nil || !address.IsByron(account.Address) {
			ret.Vkey = append(ret.Vkey, lcommon.VkeyWitness{
				Vkey:      pubKey,
				Signature: signature,
			})
			continue
		}
		chainCodeHex := account.ChainCode()
		if chainCodeHex == "" {
			return ledger.WitnessSet{}, failure.New(
				failure.ErrMissingChainCode,
				failure.WithString("address", account.Address),
			)
		}
		chainCode, err := hex.DecodeString(chainCodeHex)
		if err != nil {
			return ledger.WitnessSet{}, failure.New(
				failure.ErrInvalidChainCode,
				failure.WithErr(err),
			)
		}
		if err := address.VerifyBootstrapKey(account.Address, pubKey, chainCode); err != nil {
			return ledger.WitnessSet{}, err
		}
		attributes, err := address.BootstrapAttributes(account.Address)
		if err != nil {
			return ledger.WitnessSet{}, err
		}
		ret.Bootstrap = append(ret.Bootstrap, lcommon.BootstrapWitness{
			PublicKey:  pubKey,
			Signature:  signature,
			ChainCode:  chainCode,
			Attributes: attributes,
		})
	}
	return ret, nil
}

// Combine attaches the signatures to an unsigned transaction and returns
// the signed envelope. The body and auxiliary data bytes are kept as
// built.
func Combine(unsignedHex string, signatures []*mesh.Signature) (string, error) {
	env, body, err := decodeUnsigned(unsignedHex)
	if err != nil {
		return "", err
	}
	witnesses, err := witnessSet(signatures)
	if err != nil {
		return "", err
	}
	tx := ledger.Transaction{
		Body:      body,
		BodyBytes: env.Payload,
		Witnesses: witnesses,
		Valid:     true,
	}
	if len(env.AuxData) > 0 {
		if _, err := codec.DecodeOne(env.AuxData); err != nil {
			return "", cantCreateUnsigned(fmt.Errorf("auxiliary data: %w", err))
		}
		tx.AuxiliaryData = env.AuxData
	}
	txBytes, err := cbor.Encode(&tx)
	if err != nil {
		return "", failure.New(failure.ErrCantBuildSignedTransaction, failure.WithErr(err))
	}
	ret, err := envelope{
		Payload:    txBytes,
		Operations: env.Operations,
		AuxData:    env.AuxData,
	}.encode()
	if err != nil {
		return "", failure.New(failure.ErrCantBuildSignedTransaction, failure.WithErr(err))
	}
	return ret, nil
}

// Hash returns the hex transaction id of a signed transaction.
func Hash(signedHex string) (string, error) {
	_, tx, err := decodeSigned(signedHex)
	if err != nil {
		return "", err
	}
	hash := BodyHash(tx.BodyBytes)
	return hex.EncodeToString(hash[:]), nil
}

// Bytes returns the ledger encoding of a signed transaction, as submitted
// to a node.
func Bytes(signedHex string) ([]byte, error) {
	env, _, err := decodeSigned(signedHex)
	if err != nil {
		return nil, err
	}
	return env.Payload, nil
}

// Parse describes an unsigned or signed transaction as operations.
// Operations of signed transactions carry a status; outputs of a
// transaction flagged invalid are left out.
func Parse(blob string, signed bool, networkID uint8) (*Parsed, error) {
	if !signed {
		return parseUnsigned(blob, networkID)
	}
	env, tx, err := decodeSigned(blob)
	if err != nil {
		return nil, err
	}
	auxData := tx.AuxiliaryData
	if auxData == nil {
		auxData = env.AuxData
	}
	var vote *ledger.VoteRegistration
	if len(auxData) > 0 {
		aux, err := codec.DecodeOne(auxData)
		if err != nil {
			return nil, failure.New(failure.ErrParseSignedTransaction, failure.WithErr(err))
		}
		if vote, err = ledger.VoteRegistrationFromAuxiliaryData(aux); err != nil {
			return nil, failure.New(failure.ErrParseSignedTransaction, failure.WithErr(err))
		}
	}
	ops, err := mapper.ToOperations(tx.Body, vote, env.Operations, mapper.ParseParams{
		NetworkID: networkID,
		Status:    mesh.Status(tx.Valid),
	})
	if err != nil {
		return nil, err
	}
	signers, err := mapper.RequiredSigners(ops, networkID)
	if err != nil {
		return nil, err
	}
	return &Parsed{
		Operations: ops,
		Signers:    signers,
		Valid:      tx.Valid,
	}, nil
}

func parseUnsigned(blob string, networkID uint8) (*Parsed, error) {
	env, body, err := decodeUnsigned(blob)
	if err != nil {
		return nil, err
	}
	var vote *ledger.VoteRegistration
	if len(env.AuxData) > 0 {
		aux, err := codec.DecodeOne(env.AuxData)
		if err != nil {
			return nil, cantCreateUnsigned(err)
		}
		if vote, err = ledger.VoteRegistrationFromAuxiliaryData(aux); err != nil {
			return nil, cantCreateUnsigned(err)
		}
	}
	ops, err := mapper.ToOperations(body, vote, env.Operations, mapper.ParseParams{
		NetworkID: networkID,
	})
	if err != nil {
		return nil, err
	}
	return &Parsed{Operations: ops, Valid: true}, nil
}
