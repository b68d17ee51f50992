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

package ledger_test

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"net"
	"strings"
	"testing"

	"github.com/blinklabs-io/gouroboros/cbor"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/blinklabs-io/gouroboros/ledger/shelley"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"

	"github.com/blinklabs-io/bowerbird/codec"
	"github.com/blinklabs-io/bowerbird/ledger"
)

const (
	testPaymentKeyHash = "bb40f1a647bc88c1bd6b738db8eb66357d926474ea5ffd6baa76c9fb"
	testStakeKeyHash   = "2098620551473bfa6634300cd0c16b1b079dead1d796601b22821651"
	testPoolKeyHash    = "1b268f4cba3faa7e36d8a0cc4adca2096fb856119412ee7330f692b5"
)

func decodeHex(t *testing.T, s string) []byte {
	t.Helper()
	ret, err := hex.DecodeString(s)
	require.NoError(t, err)
	return ret
}

func hash224(t *testing.T, s string) lcommon.Blake2b224 {
	return lcommon.NewBlake2b224(decodeHex(t, s))
}

func encodeItem(t *testing.T, item codec.Item) []byte {
	t.Helper()
	data, err := codec.Encode(item)
	require.NoError(t, err)
	return data
}

func TestParseCoinIdentifier(t *testing.T) {
	t.Parallel()

	txHash := strings.Repeat("ab", 32)
	input, err := ledger.ParseCoinIdentifier(txHash + ":3")
	require.NoError(t, err)
	assert.Equal(t, uint32(3), input.Index())
	assert.Equal(t, txHash, input.Id().String())
	assert.Equal(t, txHash+":3", ledger.CoinIdentifier(input))

	for _, bad := range []string{
		"",
		txHash,
		txHash + ":x",
		"abcd:0",
		txHash + ":-1",
		txHash + ":4294967296",
	} {
		_, err := ledger.ParseCoinIdentifier(bad)
		assert.Error(t, err, bad)
	}
}

func TestBodyEncoding(t *testing.T) {
	t.Parallel()

	addr := decodeHex(t, "60"+testPaymentKeyHash)
	ttl := uint64(1000)
	body := ledger.TransactionBody{
		Inputs: []shelley.ShelleyTransactionInput{
			{TxId: lcommon.Blake2b256{}, OutputIndex: 0},
		},
		Outputs: []ledger.TransactionOutput{
			ledger.NewTransactionOutput(addr, 1000000, nil),
		},
		Fee: 2000,
		TTL: &ttl,
	}
	data, err := cbor.Encode(&body)
	require.NoError(t, err)
	expected := "a4" +
		"00818258200000000000000000000000000000000000000000000000000000000000000000" + "00" +
		"018182581d60" + testPaymentKeyHash + "1a000f4240" +
		"021907d0" +
		"031903e8"
	assert.Equal(t, expected, hex.EncodeToString(data))

	decoded, err := ledger.NewTransactionBodyFromCbor(data)
	require.NoError(t, err)
	assert.Equal(t, body.Inputs, decoded.Inputs)
	require.Len(t, decoded.Outputs, 1)
	assert.Equal(t, addr, decoded.Outputs[0].Address)
	assert.Equal(t, uint64(1000000), decoded.Outputs[0].Coin())
	assert.Nil(t, decoded.Outputs[0].Assets())
	assert.Equal(t, body.Fee, decoded.Fee)
	assert.Equal(t, body.TTL, decoded.TTL)
	assert.Empty(t, decoded.Certificates)
	assert.Nil(t, decoded.AuxDataHash)
}

func testPoolRegistration(t *testing.T) *ledger.PoolRegistration {
	port := uint32(3001)
	ipv4 := net.IPv4(127, 0, 0, 1).To4()
	relayHost := "relay.example.com"
	poolHost := "pool.example.com"
	return ledger.NewPoolRegistration(
		lcommon.PoolRegistrationCertificate{
			Operator:   hash224(t, testPoolKeyHash),
			VrfKeyHash: lcommon.Blake2b256Hash([]byte("vrf")),
			Pledge:     500000000,
			Cost:       340000000,
			Margin:     lcommon.GenesisRat{Rat: big.NewRat(1, 100)},
			PoolOwners: []lcommon.AddrKeyHash{hash224(t, testStakeKeyHash)},
			Relays: []lcommon.PoolRelay{
				{Type: lcommon.PoolRelayTypeSingleHostAddress, Port: &port, Ipv4: &ipv4},
				{Type: lcommon.PoolRelayTypeSingleHostName, Hostname: &relayHost},
				{Type: lcommon.PoolRelayTypeMultiHostName, Hostname: &poolHost},
			},
			PoolMetadata: &lcommon.PoolMetadata{
				Url:  "https://example.com/pool.json",
				Hash: lcommon.Blake2b256Hash([]byte("meta")),
			},
		},
		decodeHex(t, "e0"+testStakeKeyHash),
	)
}

func TestBodyFullRoundTrip(t *testing.T) {
	t.Parallel()

	auxHash := lcommon.Blake2b256Hash([]byte("aux"))
	start := uint64(10)
	ttl := uint64(5000)
	policy := hash224(t, testPoolKeyHash)
	assets := lcommon.NewMultiAsset[lcommon.MultiAssetTypeOutput](
		map[lcommon.Blake2b224]map[cbor.ByteString]uint64{
			policy: {
				cbor.NewByteString([]byte("token")): 10,
				cbor.NewByteString([]byte("x")):     1,
			},
		},
	)
	body := ledger.TransactionBody{
		Inputs: []shelley.ShelleyTransactionInput{
			{TxId: lcommon.Blake2b256Hash([]byte("a")), OutputIndex: 1},
			{TxId: lcommon.Blake2b256Hash([]byte("b")), OutputIndex: 0},
		},
		Outputs: []ledger.TransactionOutput{
			ledger.NewTransactionOutput(
				decodeHex(t, "00"+testPaymentKeyHash+testStakeKeyHash),
				5000000,
				&assets,
			),
		},
		Fee: 180000,
		TTL: &ttl,
		Certificates: []lcommon.Certificate{
			ledger.NewStakeRegistration(hash224(t, testStakeKeyHash)),
			ledger.NewStakeDelegation(hash224(t, testStakeKeyHash), policy),
			testPoolRegistration(t),
			ledger.NewPoolRetirement(hash224(t, testPoolKeyHash), 300),
			ledger.NewStakeDeregistration(hash224(t, testStakeKeyHash)),
		},
		Withdrawals: []ledger.Withdrawal{
			{RewardAccount: decodeHex(t, "e0"+testStakeKeyHash), Amount: 1234},
		},
		AuxDataHash:   &auxHash,
		ValidityStart: &start,
	}
	data, err := cbor.Encode(&body)
	require.NoError(t, err)
	decoded, err := ledger.NewTransactionBodyFromCbor(data)
	require.NoError(t, err)

	assert.Equal(t, body.Inputs, decoded.Inputs)
	require.Len(t, decoded.Outputs, 1)
	out := decoded.Outputs[0]
	assert.Equal(t, body.Outputs[0].Address, out.Address)
	assert.Equal(t, uint64(5000000), out.Coin())
	assert.Equal(t, []lcommon.Blake2b224{policy}, ledger.SortedPolicies(out.Assets()))
	assert.Equal(
		t,
		[][]byte{[]byte("token"), []byte("x")},
		ledger.SortedAssetNames(out.Assets(), policy),
	)
	assert.Equal(t, uint64(10), out.Assets().Asset(policy, []byte("token")))
	assert.Equal(t, body.Withdrawals, decoded.Withdrawals)
	assert.Equal(t, body.AuxDataHash, decoded.AuxDataHash)
	assert.Equal(t, body.ValidityStart, decoded.ValidityStart)

	require.Len(t, decoded.Certificates, 5)
	reg, ok := decoded.Certificates[0].(*lcommon.StakeRegistrationCertificate)
	require.True(t, ok)
	assert.Equal(t, hash224(t, testStakeKeyHash), ledger.CredentialHash(reg.StakeCredential))
	deleg, ok := decoded.Certificates[1].(*lcommon.StakeDelegationCertificate)
	require.True(t, ok)
	require.NotNil(t, deleg.StakeCredential)
	assert.Equal(t, hash224(t, testStakeKeyHash), ledger.CredentialHash(*deleg.StakeCredential))
	assert.Equal(t, policy, lcommon.Blake2b224(deleg.PoolKeyHash))

	pool, ok := decoded.Certificates[2].(*ledger.PoolRegistration)
	require.True(t, ok)
	expected := testPoolRegistration(t)
	assert.Equal(t, expected.Operator, pool.Operator)
	assert.Equal(t, expected.VrfKeyHash, pool.VrfKeyHash)
	assert.Equal(t, expected.Pledge, pool.Pledge)
	assert.Equal(t, expected.Cost, pool.Cost)
	assert.Equal(t, 0, expected.Margin.Cmp(pool.Margin.Rat))
	assert.Equal(t, expected.RewardAddress, pool.RewardAddress)
	assert.Equal(t, hash224(t, testStakeKeyHash), lcommon.Blake2b224(pool.RewardAccount))
	assert.Equal(t, expected.PoolOwners, pool.PoolOwners)
	require.Len(t, pool.Relays, 3)
	require.NotNil(t, pool.Relays[0].Port)
	assert.Equal(t, uint32(3001), *pool.Relays[0].Port)
	require.NotNil(t, pool.Relays[0].Ipv4)
	assert.True(t, net.IPv4(127, 0, 0, 1).Equal(*pool.Relays[0].Ipv4))
	require.NotNil(t, pool.Relays[1].Hostname)
	assert.Equal(t, "relay.example.com", *pool.Relays[1].Hostname)
	assert.Equal(t, lcommon.PoolRelayTypeMultiHostName, pool.Relays[2].Type)
	require.NotNil(t, pool.PoolMetadata)
	assert.Equal(t, expected.PoolMetadata.Url, pool.PoolMetadata.Url)

	retire, ok := decoded.Certificates[3].(*lcommon.PoolRetirementCertificate)
	require.True(t, ok)
	assert.Equal(t, uint64(300), retire.Epoch)
	_, ok = decoded.Certificates[4].(*lcommon.StakeDeregistrationCertificate)
	assert.True(t, ok)

	// Re-encoding the decoded body gives the same bytes
	again, err := cbor.Encode(&decoded)
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(data), hex.EncodeToString(again))
}

func TestBodyDecodingVariants(t *testing.T) {
	t.Parallel()

	addr := codec.Bytes(decodeHex(t, "60"+testPaymentKeyHash))
	input := codec.Array(codec.Bytes(make([]byte, 32)), codec.Uint(2))
	cred := codec.Array(codec.Uint(0), codec.Bytes(decodeHex(t, testStakeKeyHash)))
	body := codec.Map(
		codec.Pair{Key: codec.Uint(0), Value: codec.Tag(258, codec.Array(input))},
		codec.Pair{Key: codec.Uint(1), Value: codec.Array(
			codec.Map(
				codec.Pair{Key: codec.Uint(0), Value: addr},
				codec.Pair{Key: codec.Uint(1), Value: codec.Uint(42)},
			),
		)},
		codec.Pair{Key: codec.Uint(2), Value: codec.Uint(100)},
		codec.Pair{Key: codec.Uint(4), Value: codec.Array(
			codec.Array(codec.Uint(7), cred, codec.Uint(2000000)),
			// vote delegation, not produced by the construction API
			codec.Array(codec.Uint(9), cred, codec.Array(codec.Uint(2))),
			codec.Array(codec.Uint(8), cred, codec.Uint(2000000)),
		)},
		// mint is ignored
		codec.Pair{Key: codec.Uint(9), Value: codec.Map()},
	)
	decoded, err := ledger.NewTransactionBodyFromCbor(encodeItem(t, body))
	require.NoError(t, err)
	require.Len(t, decoded.Inputs, 1)
	assert.Equal(t, uint32(2), decoded.Inputs[0].Index())
	require.Len(t, decoded.Outputs, 1)
	assert.Equal(t, uint64(42), decoded.Outputs[0].Coin())
	assert.Nil(t, decoded.TTL)
	require.Len(t, decoded.Certificates, 2)
	reg, ok := decoded.Certificates[0].(*lcommon.RegistrationCertificate)
	require.True(t, ok)
	assert.Equal(t, int64(2000000), reg.Amount)
	dereg, ok := decoded.Certificates[1].(*lcommon.DeregistrationCertificate)
	require.True(t, ok)
	assert.Equal(t, int64(2000000), dereg.Amount)
}

func TestBodyDecodingErrors(t *testing.T) {
	t.Parallel()

	_, err := ledger.NewTransactionBodyFromCbor(encodeItem(t, codec.Array()))
	require.Error(t, err)

	_, err = ledger.NewTransactionBodyFromCbor(encodeItem(t, codec.Map(
		codec.Pair{Key: codec.Uint(1), Value: codec.Array()},
	)))
	assert.ErrorContains(t, err, "missing inputs")

	_, err = ledger.NewTransactionBodyFromCbor(encodeItem(t, codec.Map(
		codec.Pair{Key: codec.Uint(0), Value: codec.Array()},
		codec.Pair{Key: codec.Uint(1), Value: codec.Array()},
		codec.Pair{Key: codec.Uint(2), Value: codec.Uint(0)},
		codec.Pair{Key: codec.Uint(7), Value: codec.Bytes([]byte{1})},
	)))
	assert.ErrorContains(t, err, "expected 32 bytes")
}

func TestPoolRegistrationFromBytes(t *testing.T) {
	t.Parallel()

	cert := ledger.NewPoolRegistration(
		lcommon.PoolRegistrationCertificate{
			Operator: hash224(t, testPoolKeyHash),
			Margin:   lcommon.GenesisRat{Rat: big.NewRat(3, 10)},
		},
		decodeHex(t, "e0"+testStakeKeyHash),
	)
	data, err := cert.MarshalCBOR()
	require.NoError(t, err)
	decoded, err := ledger.PoolRegistrationFromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, cert.Operator, decoded.Operator)
	assert.Equal(t, "3/10", decoded.Margin.String())
	assert.Equal(t, cert.RewardAddress, decoded.RewardAddress)
	assert.Empty(t, decoded.PoolOwners)
	assert.Nil(t, decoded.PoolMetadata)

	retirement, err := cbor.Encode(ledger.NewPoolRetirement(hash224(t, testPoolKeyHash), 1))
	require.NoError(t, err)
	_, err = ledger.PoolRegistrationFromBytes(retirement)
	assert.ErrorContains(t, err, "not a pool registration")

	_, err = ledger.PoolRegistrationFromBytes([]byte{0x83, 0x03})
	assert.Error(t, err)

	noMargin := ledger.NewPoolRegistration(lcommon.PoolRegistrationCertificate{}, nil)
	_, err = noMargin.MarshalCBOR()
	assert.ErrorContains(t, err, "missing margin")
}

func TestWitnessSet(t *testing.T) {
	t.Parallel()

	empty, err := cbor.Encode(&ledger.WitnessSet{})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xa0}, empty)

	ws := ledger.WitnessSet{
		Vkey: []lcommon.VkeyWitness{
			{Vkey: bytes.Repeat([]byte{1}, 32), Signature: bytes.Repeat([]byte{2}, 64)},
		},
		Bootstrap: []lcommon.BootstrapWitness{
			{
				PublicKey:  bytes.Repeat([]byte{3}, 32),
				Signature:  bytes.Repeat([]byte{4}, 64),
				ChainCode:  bytes.Repeat([]byte{5}, 32),
				Attributes: []byte{0xa0},
			},
		},
	}
	data, err := cbor.Encode(&ws)
	require.NoError(t, err)
	var decoded ledger.WitnessSet
	_, err = cbor.Decode(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, ws, decoded)

	// Conway set tags are accepted
	tagged := encodeItem(t, codec.Map(codec.Pair{
		Key: codec.Uint(0),
		Value: codec.Tag(258, codec.Array(codec.Array(
			codec.Bytes(bytes.Repeat([]byte{1}, 32)),
			codec.Bytes(bytes.Repeat([]byte{2}, 64)),
		))),
	}))
	_, err = cbor.Decode(tagged, &decoded)
	require.NoError(t, err)
	assert.Equal(t, ws.Vkey, decoded.Vkey)
	assert.Empty(t, decoded.Bootstrap)

	_, err = cbor.Decode(encodeItem(t, codec.Map(
		codec.Pair{Key: codec.Uint(0), Value: codec.Uint(1)},
	)), &decoded)
	assert.Error(t, err)
}

func TestVoteRegistration(t *testing.T) {
	t.Parallel()

	roundTrip := func(item codec.Item) codec.Item {
		decoded, err := codec.DecodeOne(encodeItem(t, item))
		require.NoError(t, err)
		return decoded
	}
	vote := ledger.VoteRegistration{
		VotingKey:     bytes.Repeat([]byte{1}, 32),
		StakeKey:      bytes.Repeat([]byte{2}, 32),
		RewardAddress: decodeHex(t, "e0"+testStakeKeyHash),
		Nonce:         26912766,
		Signature:     bytes.Repeat([]byte{3}, 64),
	}
	aux := vote.AuxiliaryData()
	decoded, err := ledger.VoteRegistrationFromAuxiliaryData(roundTrip(aux))
	require.NoError(t, err)
	require.NotNil(t, decoded)
	assert.Equal(t, vote, *decoded)

	// Shelley-MA and Alonzo forms
	for _, wrapped := range []codec.Item{
		codec.Array(aux, codec.Array()),
		codec.Tag(259, codec.Map(codec.Pair{Key: codec.Uint(0), Value: aux})),
	} {
		decoded, err := ledger.VoteRegistrationFromAuxiliaryData(roundTrip(wrapped))
		require.NoError(t, err)
		require.NotNil(t, decoded)
		assert.Equal(t, vote.Nonce, decoded.Nonce)
	}

	none, err := ledger.VoteRegistrationFromAuxiliaryData(codec.Map(
		codec.Pair{Key: codec.Uint(674), Value: codec.Text("memo")},
	))
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = ledger.VoteRegistrationFromAuxiliaryData(codec.Map(
		codec.Pair{Key: codec.Uint(61284), Value: codec.Map()},
	))
	assert.ErrorContains(t, err, "missing voting key")
}

// indefiniteMap rewrites a definite map encoding with fewer than 24
// entries into the indefinite-length form.
func indefiniteMap(t *testing.T, data []byte) []byte {
	t.Helper()
	require.Equal(t, byte(0xa0), data[0]&0xe0)
	ret := append([]byte{0xbf}, data[1:]...)
	return append(ret, 0xff)
}

func TestTransaction(t *testing.T) {
	t.Parallel()

	body := ledger.TransactionBody{
		Inputs: []shelley.ShelleyTransactionInput{{OutputIndex: 0}},
		Outputs: []ledger.TransactionOutput{
			ledger.NewTransactionOutput(decodeHex(t, "60"+testPaymentKeyHash), 1, nil),
		},
		Fee: 1,
	}
	bodyBytes, err := cbor.Encode(&body)
	require.NoError(t, err)
	// Indefinite-length encodings of the body and aux data are kept as-is
	indefinite := indefiniteMap(t, bodyBytes)
	aux := indefiniteMap(t, encodeItem(t, codec.Map(
		codec.Pair{Key: codec.Uint(674), Value: codec.Text("memo")},
	)))
	signed := encodeItem(t, codec.Array(
		codec.Raw(indefinite),
		codec.Map(),
		codec.Bool(false),
		codec.Raw(aux),
	))
	tx, err := ledger.NewTransactionFromCbor(signed)
	require.NoError(t, err)
	assert.False(t, tx.Valid)
	assert.Equal(t, indefinite, tx.BodyBytes)
	assert.Equal(t, aux, tx.AuxiliaryData)
	assert.Equal(t, body.Fee, tx.Body.Fee)

	tx.Witnesses.Vkey = []lcommon.VkeyWitness{
		{Vkey: make([]byte, 32), Signature: make([]byte, 64)},
	}
	encoded, err := cbor.Encode(&tx)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(encoded, indefinite))
	assert.True(t, bytes.Contains(encoded, aux))
	again, err := ledger.NewTransactionFromCbor(encoded)
	require.NoError(t, err)
	assert.Equal(t, blake2b.Sum256(indefinite), blake2b.Sum256(again.BodyBytes))
	assert.Len(t, again.Witnesses.Vkey, 1)

	shelleyTx := encodeItem(t, codec.Array(codec.Raw(indefinite), codec.Map(), codec.Null()))
	tx, err = ledger.NewTransactionFromCbor(shelleyTx)
	require.NoError(t, err)
	assert.True(t, tx.Valid)
	assert.Nil(t, tx.AuxiliaryData)

	_, err = ledger.NewTransactionFromCbor(encodeItem(t, codec.Array(codec.Raw(indefinite))))
	assert.Error(t, err)
}
