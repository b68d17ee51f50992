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

package transaction_test

import (
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/blinklabs-io/gouroboros/cbor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/bowerbird/codec"
	"github.com/blinklabs-io/bowerbird/failure"
	"github.com/blinklabs-io/bowerbird/ledger"
	"github.com/blinklabs-io/bowerbird/mapper"
	"github.com/blinklabs-io/bowerbird/mesh"
	"github.com/blinklabs-io/bowerbird/pparams"
	"github.com/blinklabs-io/bowerbird/transaction"
)

const (
	paymentKey = "1b400d60aaf34eaf6dcbab9bba46001a23497886cf11066f7846933d30e5ad3f"
	stakingKey = "6d7e2d1ca0b5de9e09bd7e6bbd5c7c6ea7af1e6b3aeb6a5b7de3d4aa1b4c3e1f"
	baseAddr   = "addr_test1qza5pudxg77g3sdaddecmw8tvc6hmynywn49lltt4fmvn7eqnp3q252880axvdpspngvz6cmq7w745whjespkg5zzegsv85dnm"
	enterprise = "addr_test1vza5pudxg77g3sdaddecmw8tvc6hmynywn49lltt4fmvn7c6mzywr"
	rewardAddr = "stake_test1uqsfscs929rnh7nxxscqe5xpdvds080268tevcqmy2ppv5gtlh3x7"
	byronAddr  = "Ae2tdPwUPEYyuaqKnmixSrQQ1U5Qc8j3myTx2PSxGfrJwce2ffWSh2HbX95"
	txHash     = "2f23fd8cca835af21f3ac375bac601f97ead75f2e79143bdf71fe2c4be043e8f"
)

var (
	chainCode = strings.Repeat("2a", 32)
	signature = strings.Repeat("ab", 64)
	params    = transaction.BuildParams{
		Params: mapper.Params{
			NetworkID: 0,
			Deposits:  pparams.Deposits{Key: 2000000, Pool: 500000000},
		},
		TTL: 1000,
	}
)

func transferOps() []*mesh.Operation {
	return []*mesh.Operation{
		{
			OperationIdentifier: &mesh.OperationIdentifier{Index: 0},
			Type:                mesh.OpInput,
			Account:             &mesh.AccountIdentifier{Address: baseAddr},
			Amount:              &mesh.Amount{Value: "-1000000", Currency: mesh.AdaCurrency()},
			CoinChange: &mesh.CoinChange{
				CoinIdentifier: &mesh.CoinIdentifier{Identifier: txHash + ":0"},
				CoinAction:     mesh.CoinSpent,
			},
		},
		{
			OperationIdentifier: &mesh.OperationIdentifier{Index: 1},
			RelatedOperations:   []*mesh.OperationIdentifier{{Index: 0}},
			Type:                mesh.OpOutput,
			Account:             &mesh.AccountIdentifier{Address: enterprise},
			Amount:              mesh.LovelaceAmount(998000, false),
		},
	}
}

func voteOp(index int64) *mesh.Operation {
	nonce := uint64(26912766)
	return &mesh.Operation{
		OperationIdentifier: &mesh.OperationIdentifier{Index: index},
		Type:                mesh.OpVoteRegistration,
		Metadata: &mesh.OperationMetadata{
			VoteRegistrationMetadata: &mesh.VoteRegistrationMetadata{
				StakeKey:        &mesh.PublicKey{HexBytes: stakingKey, CurveType: mesh.Edwards25519},
				VotingKey:       &mesh.PublicKey{HexBytes: paymentKey, CurveType: mesh.Edwards25519},
				RewardAddress:   rewardAddr,
				VotingNonce:     &nonce,
				VotingSignature: signature,
			},
		},
	}
}

func sign(payloads []*mesh.SigningPayload) []*mesh.Signature {
	ret := make([]*mesh.Signature, 0, len(payloads))
	for _, payload := range payloads {
		ret = append(ret, &mesh.Signature{
			SigningPayload: payload,
			PublicKey:      &mesh.PublicKey{HexBytes: paymentKey, CurveType: mesh.Edwards25519},
			SignatureType:  mesh.Ed25519,
			HexBytes:       signature,
		})
	}
	return ret
}

func signedTx(t *testing.T, signedHex string) ledger.Transaction {
	t.Helper()
	raw, err := transaction.Bytes(signedHex)
	require.NoError(t, err)
	tx, err := ledger.NewTransactionFromCbor(raw)
	require.NoError(t, err)
	return tx
}

func assertSameOperations(t *testing.T, expected []*mesh.Operation, actual []*mesh.Operation) {
	t.Helper()
	expectedJSON, err := json.Marshal(expected)
	require.NoError(t, err)
	actualJSON, err := json.Marshal(actual)
	require.NoError(t, err)
	assert.JSONEq(t, string(expectedJSON), string(actualJSON))
}

func TestBuildTransfer(t *testing.T) {
	t.Parallel()

	unsigned, err := transaction.Build(transferOps(), params)
	require.NoError(t, err)
	assert.Equal(t, uint64(2000), unsigned.Body.Fee)
	require.NotNil(t, unsigned.Body.TTL)
	assert.Equal(t, uint64(1000), *unsigned.Body.TTL)
	assert.Nil(t, unsigned.Body.AuxDataHash)

	require.Len(t, unsigned.Payloads, 1)
	payload := unsigned.Payloads[0]
	assert.Equal(t, baseAddr, payload.AccountIdentifier.Address)
	assert.Equal(t, hex.EncodeToString(unsigned.BodyHash[:]), payload.HexBytes)
	assert.Equal(t, mesh.Ed25519, payload.SignatureType)

	again, err := transaction.Build(transferOps(), params)
	require.NoError(t, err)
	assert.Equal(t, unsigned.Hex, again.Hex)
}

func TestBuildErrors(t *testing.T) {
	t.Parallel()

	ops := transferOps()
	ops[1].Amount = mesh.LovelaceAmount(2000000, false)
	_, err := transaction.Build(ops, params)
	assert.ErrorIs(t, err, failure.ErrOutputsExceedInputs)

	ops = transferOps()
	ops[1].OperationIdentifier.Index = 2
	_, err = transaction.Build(ops, params)
	assert.ErrorIs(t, err, failure.ErrInvalidOperationIndex)
}

func TestParseUnsigned(t *testing.T) {
	t.Parallel()

	unsigned, err := transaction.Build(transferOps(), params)
	require.NoError(t, err)
	parsed, err := transaction.Parse(unsigned.Hex, false, 0)
	require.NoError(t, err)
	assertSameOperations(t, transferOps(), parsed.Operations)
	assert.Empty(t, parsed.Signers)
	for _, op := range parsed.Operations {
		assert.Nil(t, op.Status)
	}
}

func TestCombineHashParse(t *testing.T) {
	t.Parallel()

	unsigned, err := transaction.Build(transferOps(), params)
	require.NoError(t, err)
	signed, err := transaction.Combine(unsigned.Hex, sign(unsigned.Payloads))
	require.NoError(t, err)

	hash, err := transaction.Hash(signed)
	require.NoError(t, err)
	assert.Equal(t, unsigned.Payloads[0].HexBytes, hash)

	tx := signedTx(t, signed)
	assert.True(t, tx.Valid)
	require.Len(t, tx.Witnesses.Vkey, 1)
	assert.Equal(t, paymentKey, hex.EncodeToString(tx.Witnesses.Vkey[0].Vkey))
	assert.Equal(t, signature, hex.EncodeToString(tx.Witnesses.Vkey[0].Signature))
	assert.Empty(t, tx.Witnesses.Bootstrap)
	assert.Nil(t, tx.AuxiliaryData)

	parsed, err := transaction.Parse(signed, true, 0)
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	require.Len(t, parsed.Operations, 2)
	for _, op := range parsed.Operations {
		require.NotNil(t, op.Status)
		assert.Equal(t, mesh.StatusSuccess, *op.Status)
	}
	require.Len(t, parsed.Signers, 1)
	assert.Equal(t, baseAddr, parsed.Signers[0].Address)

	// the bare transaction hashes the same
	raw, err := transaction.Bytes(signed)
	require.NoError(t, err)
	bareHash, err := transaction.Hash(hex.EncodeToString(raw))
	require.NoError(t, err)
	assert.Equal(t, hash, bareHash)
}

func TestCombineSignatureErrors(t *testing.T) {
	t.Parallel()

	unsigned, err := transaction.Build(transferOps(), params)
	require.NoError(t, err)

	tests := []struct {
		name   string
		modify func(*mesh.Signature)
		cause  *failure.Cause
	}{
		{
			name:   "short signature",
			modify: func(sig *mesh.Signature) { sig.HexBytes = "abcd" },
			cause:  failure.ErrInvalidSignatureFormat,
		},
		{
			name:   "bad public key",
			modify: func(sig *mesh.Signature) { sig.PublicKey.HexBytes = "abcd" },
			cause:  failure.ErrInvalidPublicKeyFormat,
		},
		{
			name:   "missing payload",
			modify: func(sig *mesh.Signature) { sig.SigningPayload = nil },
			cause:  failure.ErrInvalidSignatureFormat,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			sigs := sign(unsigned.Payloads)
			test.modify(sigs[0])
			_, err := transaction.Combine(unsigned.Hex, sigs)
			assert.ErrorIs(t, err, test.cause)
		})
	}
}

func byronOps(account *mesh.AccountIdentifier) []*mesh.Operation {
	ops := transferOps()
	ops[0].Account = account
	return ops
}

func TestCombineByron(t *testing.T) {
	t.Parallel()

	account := &mesh.AccountIdentifier{
		Address:  byronAddr,
		Metadata: &mesh.AccountIdentifierMetadata{ChainCode: chainCode},
	}
	unsigned, err := transaction.Build(byronOps(account), params)
	require.NoError(t, err)
	require.Len(t, unsigned.Payloads, 1)
	assert.Equal(t, chainCode, unsigned.Payloads[0].AccountIdentifier.ChainCode())

	signed, err := transaction.Combine(unsigned.Hex, sign(unsigned.Payloads))
	require.NoError(t, err)
	tx := signedTx(t, signed)
	assert.Empty(t, tx.Witnesses.Vkey)
	require.Len(t, tx.Witnesses.Bootstrap, 1)
	witness := tx.Witnesses.Bootstrap[0]
	assert.Equal(t, chainCode, hex.EncodeToString(witness.ChainCode))
	assert.Equal(t, []byte{0xa0}, witness.Attributes)

	size, err := transaction.EstimateSize(byronOps(account), params)
	require.NoError(t, err)
	raw, err := transaction.Bytes(signed)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, size, len(raw))

	// wrong chain code
	wrong := &mesh.AccountIdentifier{
		Address:  byronAddr,
		Metadata: &mesh.AccountIdentifierMetadata{ChainCode: strings.Repeat("01", 32)},
	}
	unsigned, err = transaction.Build(byronOps(wrong), params)
	require.NoError(t, err)
	_, err = transaction.Combine(unsigned.Hex, sign(unsigned.Payloads))
	assert.ErrorIs(t, err, failure.ErrInvalidChainCode)

	// no chain code
	unsigned, err = transaction.Build(byronOps(&mesh.AccountIdentifier{Address: byronAddr}), params)
	require.NoError(t, err)
	_, err = transaction.Combine(unsigned.Hex, sign(unsigned.Payloads))
	assert.ErrorIs(t, err, failure.ErrMissingChainCode)
}

func TestVoteRegistration(t *testing.T) {
	t.Parallel()

	ops := transferOps()
	ops[1].OperationIdentifier.Index = 2
	ops = []*mesh.Operation{ops[0], voteOp(1), ops[1]}

	unsigned, err := transaction.Build(ops, params)
	require.NoError(t, err)
	require.NotNil(t, unsigned.Body.AuxDataHash)

	parsed, err := transaction.Parse(unsigned.Hex, false, 0)
	require.NoError(t, err)
	assertSameOperations(t, ops, parsed.Operations)

	signed, err := transaction.Combine(unsigned.Hex, sign(unsigned.Payloads))
	require.NoError(t, err)
	tx := signedTx(t, signed)
	require.NotNil(t, tx.AuxiliaryData)
	assert.Equal(t, transaction.BodyHash(tx.AuxiliaryData), *tx.Body.AuxDataHash)

	// the bare transaction still describes the vote from its auxiliary data
	raw, err := transaction.Bytes(signed)
	require.NoError(t, err)
	bare, err := transaction.Parse(hex.EncodeToString(raw), true, 0)
	require.NoError(t, err)
	require.Len(t, bare.Operations, 3)
	vote := bare.Operations[1]
	assert.Equal(t, mesh.OpVoteRegistration, vote.Type)
	meta := vote.Metadata.VoteRegistrationMetadata
	require.NotNil(t, meta)
	assert.Equal(t, paymentKey, meta.VotingKey.HexBytes)
	assert.Equal(t, stakingKey, meta.StakeKey.HexBytes)
	assert.Equal(t, rewardAddr, meta.RewardAddress)
	assert.Equal(t, signature, meta.VotingSignature)
}

// indefiniteMap rewrites a definite map encoding with fewer than 24
// entries into the indefinite-length form.
func indefiniteMap(t *testing.T, data []byte) []byte {
	t.Helper()
	require.Equal(t, byte(0xa0), data[0]&0xe0)
	ret := append([]byte{0xbf}, data[1:]...)
	return append(ret, 0xff)
}

// unsignedEnvelope wraps body and aux bytes the way Build does.
func unsignedEnvelope(t *testing.T, body []byte, aux []byte) string {
	t.Helper()
	raw, err := codec.Encode(codec.Array(
		codec.Text(hex.EncodeToString(body)),
		codec.Map(
			codec.Pair{Key: codec.Text("operations"), Value: codec.Array()},
			codec.Pair{Key: codec.Text("transactionMetadataHex"), Value: codec.Text(hex.EncodeToString(aux))},
		),
	))
	require.NoError(t, err)
	return hex.EncodeToString(raw)
}

func TestCombineIndefiniteEncodings(t *testing.T) {
	t.Parallel()

	ops := transferOps()
	ops[1].OperationIdentifier.Index = 2
	ops = []*mesh.Operation{ops[0], voteOp(1), ops[1]}
	unsigned, err := transaction.Build(ops, params)
	require.NoError(t, err)
	require.NotNil(t, unsigned.Body.AuxDataHash)

	// Re-encode the aux data and body with indefinite-length maps
	vote, err := mapper.FromOperations(ops, params.Params)
	require.NoError(t, err)
	require.NotNil(t, vote.VoteRegistration)
	auxDefinite, err := codec.Encode(vote.VoteRegistration.AuxiliaryData())
	require.NoError(t, err)
	aux := indefiniteMap(t, auxDefinite)
	body := unsigned.Body
	auxHash := transaction.BodyHash(aux)
	body.AuxDataHash = &auxHash
	bodyDefinite, err := cbor.Encode(&body)
	require.NoError(t, err)
	bodyBytes := indefiniteMap(t, bodyDefinite)
	expectedHash := transaction.BodyHash(bodyBytes)

	signed, err := transaction.Combine(
		unsignedEnvelope(t, bodyBytes, aux),
		sign(unsigned.Payloads),
	)
	require.NoError(t, err)
	hash, err := transaction.Hash(signed)
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(expectedHash[:]), hash)

	tx := signedTx(t, signed)
	assert.Equal(t, bodyBytes, tx.BodyBytes)
	assert.Equal(t, aux, tx.AuxiliaryData)
	require.Len(t, tx.Witnesses.Vkey, 1)

	parsed, err := transaction.Parse(signed, true, 0)
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	require.Len(t, parsed.Operations, 3)
	assert.Equal(t, mesh.OpInput, parsed.Operations[0].Type)
	assert.Equal(t, mesh.OpVoteRegistration, parsed.Operations[1].Type)
	assert.Equal(t, mesh.OpOutput, parsed.Operations[2].Type)

	// the bare signed transaction carries the same bytes
	raw, err := transaction.Bytes(signed)
	require.NoError(t, err)
	bareHash, err := transaction.Hash(hex.EncodeToString(raw))
	require.NoError(t, err)
	assert.Equal(t, hash, bareHash)
	bare, err := transaction.Parse(hex.EncodeToString(raw), true, 0)
	require.NoError(t, err)
	require.Len(t, bare.Operations, 3)
	assert.Equal(t, mesh.OpVoteRegistration, bare.Operations[1].Type)
}

func TestParseInvalidTransaction(t *testing.T) {
	t.Parallel()

	unsigned, err := transaction.Build(transferOps(), params)
	require.NoError(t, err)
	bodyBytes, err := cbor.Encode(&unsigned.Body)
	require.NoError(t, err)
	raw, err := cbor.Encode(&ledger.Transaction{
		Body:      unsigned.Body,
		BodyBytes: bodyBytes,
		Valid:     false,
	})
	require.NoError(t, err)

	parsed, err := transaction.Parse(hex.EncodeToString(raw), true, 0)
	require.NoError(t, err)
	assert.False(t, parsed.Valid)
	require.Len(t, parsed.Operations, 1)
	assert.Equal(t, mesh.OpInput, parsed.Operations[0].Type)
	assert.Equal(t, mesh.StatusInvalid, *parsed.Operations[0].Status)
}

func TestParseBareBody(t *testing.T) {
	t.Parallel()

	unsigned, err := transaction.Build(transferOps(), params)
	require.NoError(t, err)
	bodyBytes, err := cbor.Encode(&unsigned.Body)
	require.NoError(t, err)

	parsed, err := transaction.Parse(hex.EncodeToString(bodyBytes), false, 0)
	require.NoError(t, err)
	require.Len(t, parsed.Operations, 2)
	assert.Equal(t, txHash+":0", parsed.Operations[0].CoinChange.CoinIdentifier.Identifier)
	assert.Nil(t, parsed.Operations[0].Account)
	assert.Equal(t, enterprise, parsed.Operations[1].Account.Address)
}

func TestMalformedInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		call  func() error
		cause *failure.Cause
	}{
		{
			name: "unsigned not hex",
			call: func() error {
				_, err := transaction.Parse("zz", false, 0)
				return err
			},
			cause: failure.ErrCantCreateUnsignedTransactionFromBytes,
		},
		{
			name: "unsigned not a body",
			call: func() error {
				_, err := transaction.Parse("00", false, 0)
				return err
			},
			cause: failure.ErrCantCreateUnsignedTransactionFromBytes,
		},
		{
			name: "signed not a transaction",
			call: func() error {
				_, err := transaction.Parse("a0", true, 0)
				return err
			},
			cause: failure.ErrCantCreateSignedTransactionFromBytes,
		},
		{
			name: "hash of empty input",
			call: func() error {
				_, err := transaction.Hash("")
				return err
			},
			cause: failure.ErrCantCreateSignedTransactionFromBytes,
		},
		{
			name: "combine garbage",
			call: func() error {
				_, err := transaction.Combine("8200", nil)
				return err
			},
			cause: failure.ErrCantCreateUnsignedTransactionFromBytes,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			err := test.call()
			require.Error(t, err)
			assert.ErrorIs(t, err, test.cause)
			assert.Equal(t, failure.KindCodec, failure.KindOf(err))
		})
	}
}

func TestEstimateSize(t *testing.T) {
	t.Parallel()

	size, err := transaction.EstimateSize(transferOps(), params)
	require.NoError(t, err)

	unsigned, err := transaction.Build(transferOps(), params)
	require.NoError(t, err)
	signed, err := transaction.Combine(unsigned.Hex, sign(unsigned.Payloads))
	require.NoError(t, err)
	raw, err := transaction.Bytes(signed)
	require.NoError(t, err)

	// only the fee encoding differs
	assert.GreaterOrEqual(t, size, len(raw))
	assert.LessOrEqual(t, size, len(raw)+4)

	// the estimate does not depend on the balance
	ops := transferOps()
	ops[1].Amount = mesh.LovelaceAmount(5000000, false)
	imbalanced, err := transaction.EstimateSize(ops, params)
	require.NoError(t, err)
	assert.Equal(t, size, imbalanced)

	withVote := transferOps()
	withVote[1].OperationIdentifier.Index = 2
	withVote = []*mesh.Operation{withVote[0], voteOp(1), withVote[1]}
	voteSize, err := transaction.EstimateSize(withVote, params)
	require.NoError(t, err)
	assert.Greater(t, voteSize, size)
}
