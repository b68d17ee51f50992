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

package address_test

import (
	"bytes"
	"encoding/hex"
	"testing"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/bowerbird/address"
	"github.com/blinklabs-io/bowerbird/failure"
)

const (
	testPaymentKey = "1b400d60aaf34eaf6dcbab9bba46001a23497886cf11066f7846933d30e5ad3f"
	testStakingKey = "6d7e2d1ca0b5de9e09bd7e6bbd5c7c6ea7af1e6b3aeb6a5b7de3d4aa1b4c3e1f"

	testPaymentKeyHash = "bb40f1a647bc88c1bd6b738db8eb66357d926474ea5ffd6baa76c9fb"
	testStakeKeyHash   = "2098620551473bfa6634300cd0c16b1b079dead1d796601b22821651"

	testBaseAddrTestnet       = "addr_test1qza5pudxg77g3sdaddecmw8tvc6hmynywn49lltt4fmvn7eqnp3q252880axvdpspngvz6cmq7w745whjespkg5zzegsv85dnm"
	testBaseAddrMainnet       = "addr1qxa5pudxg77g3sdaddecmw8tvc6hmynywn49lltt4fmvn7eqnp3q252880axvdpspngvz6cmq7w745whjespkg5zzegs03fdly"
	testEnterpriseAddrTestnet = "addr_test1vza5pudxg77g3sdaddecmw8tvc6hmynywn49lltt4fmvn7c6mzywr"
	testEnterpriseAddrMainnet = "addr1vxa5pudxg77g3sdaddecmw8tvc6hmynywn49lltt4fmvn7cpnkcpx"
	testRewardAddrTestnet     = "stake_test1uqsfscs929rnh7nxxscqe5xpdvds080268tevcqmy2ppv5gtlh3x7"
	testRewardAddrMainnet     = "stake1uysfscs929rnh7nxxscqe5xpdvds080268tevcqmy2ppv5gv4anzr"
	testRewardFromPaymentKey  = "stake_test1uza5pudxg77g3sdaddecmw8tvc6hmynywn49lltt4fmvn7c6nuuef"

	testPoolKeyHash = "1b268f4cba3faa7e36d8a0cc4adca2096fb856119412ee7330f692b5"
	testPoolID      = "pool1rvng7n968748udkc5rxy4h9zp9hms4s3jsfwuues76ft28uc056"

	testByronAddr    = "Ae2tdPwUPEYyuaqKnmixSrQQ1U5Qc8j3myTx2PSxGfrJwce2ffWSh2HbX95"
	testByronAddrHex = "82d818582183581c1f1269410f493e88679736d8f261def4a2515bf353698b6f30efa1eda0001ac6a6757c"
)

var testChainCode = bytes.Repeat([]byte{0x2a}, 32)

func decodeHex(t *testing.T, s string) []byte {
	t.Helper()
	ret, err := hex.DecodeString(s)
	require.NoError(t, err)
	return ret
}

func TestNetworkID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint8(1), address.NetworkID("mainnet"))
	assert.Equal(t, uint8(0), address.NetworkID("preprod"))
	assert.Equal(t, uint8(0), address.NetworkID("preview"))
}

func TestParsePublicKey(t *testing.T) {
	t.Parallel()

	key, err := address.ParsePublicKey(testPaymentKey)
	require.NoError(t, err)
	assert.Len(t, key, 32)

	_, err = address.ParsePublicKey("zz")
	assert.ErrorIs(t, err, failure.ErrInvalidPublicKeyFormat)

	_, err = address.ParsePublicKey(testPaymentKey[:62])
	assert.ErrorIs(t, err, failure.ErrInvalidPublicKeyFormat)
}

func TestDerive(t *testing.T) {
	t.Parallel()

	testDefs := []struct {
		name       string
		addrType   address.Type
		networkID  uint8
		stakingKey string
		expected   string
		err        error
	}{
		{
			name:       "base preprod",
			addrType:   address.TypeBase,
			stakingKey: testStakingKey,
			expected:   testBaseAddrTestnet,
		},
		{
			name:       "base mainnet",
			addrType:   address.TypeBase,
			networkID:  1,
			stakingKey: testStakingKey,
			expected:   testBaseAddrMainnet,
		},
		{
			name:     "enterprise testnet",
			addrType: address.TypeEnterprise,
			expected: testEnterpriseAddrTestnet,
		},
		{
			name:       "enterprise ignores staking key",
			addrType:   address.TypeEnterprise,
			networkID:  1,
			stakingKey: testStakingKey,
			expected:   testEnterpriseAddrMainnet,
		},
		{
			name:       "reward testnet",
			addrType:   address.TypeReward,
			stakingKey: testStakingKey,
			expected:   testRewardAddrTestnet,
		},
		{
			name:       "reward mainnet",
			addrType:   address.TypeReward,
			networkID:  1,
			stakingKey: testStakingKey,
			expected:   testRewardAddrMainnet,
		},
		{
			name:     "reward falls back to payment key",
			addrType: address.TypeReward,
			expected: testRewardFromPaymentKey,
		},
		{
			name:     "base without staking key",
			addrType: address.TypeBase,
			err:      failure.ErrStakingKeyMissing,
		},
		{
			name:       "pool key hash",
			addrType:   address.TypePoolKeyHash,
			stakingKey: testStakingKey,
			err:        failure.ErrInvalidAddressType,
		},
		{
			name:     "unknown type",
			addrType: address.Type("Pointer"),
			err:      failure.ErrInvalidAddressType,
		},
	}
	paymentKey := decodeHex(t, testPaymentKey)
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			t.Parallel()
			var stakingKey []byte
			if testDef.stakingKey != "" {
				stakingKey = decodeHex(t, testDef.stakingKey)
			}
			addr, err := address.Derive(
				testDef.addrType,
				testDef.networkID,
				paymentKey,
				stakingKey,
			)
			if testDef.err != nil {
				assert.ErrorIs(t, err, testDef.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testDef.expected, addr.String())
			// Derivation is a pure function
			again, err := address.Derive(
				testDef.addrType,
				testDef.networkID,
				paymentKey,
				stakingKey,
			)
			require.NoError(t, err)
			assert.Equal(t, addr.String(), again.String())
		})
	}
}

func TestDeriveRejectsShortKeys(t *testing.T) {
	t.Parallel()

	_, err := address.Derive(address.TypeEnterprise, 0, []byte{1, 2, 3}, nil)
	assert.ErrorIs(t, err, failure.ErrInvalidPublicKeyFormat)

	_, err = address.Derive(
		address.TypeBase,
		0,
		decodeHex(t, testPaymentKey),
		[]byte{1},
	)
	assert.ErrorIs(t, err, failure.ErrInvalidStakingKeyFormat)
}

func TestKeyHash(t *testing.T) {
	t.Parallel()

	hash := address.KeyHash(decodeHex(t, testPaymentKey))
	assert.Equal(t, testPaymentKeyHash, hex.EncodeToString(hash[:]))
}

func TestBytesRoundTrip(t *testing.T) {
	t.Parallel()

	for _, addr := range []string{
		testBaseAddrTestnet,
		testEnterpriseAddrMainnet,
		testRewardAddrTestnet,
		testByronAddr,
	} {
		raw, err := address.Bytes(addr)
		require.NoError(t, err, addr)
		back, err := address.FromBytes(raw)
		require.NoError(t, err, addr)
		assert.Equal(t, addr, back)
	}

	raw, err := address.Bytes(testByronAddr)
	require.NoError(t, err)
	assert.Equal(t, testByronAddrHex, hex.EncodeToString(raw))
}

func TestParseInvalid(t *testing.T) {
	t.Parallel()

	for _, addr := range []string{
		"",
		"not an address",
		"addr_test1invalid",
		testPoolID,
	} {
		_, err := address.Parse(addr)
		assert.ErrorIs(t, err, failure.ErrInvalidAddress, addr)
	}
	_, err := address.FromBytes(nil)
	assert.ErrorIs(t, err, failure.ErrInvalidAddress)
}

func TestRewardAddresses(t *testing.T) {
	t.Parallel()

	reward, err := address.ParseRewardAddress(testRewardAddrTestnet)
	require.NoError(t, err)
	assert.True(t, address.IsReward(reward))

	_, err = address.ParseRewardAddress(testBaseAddrTestnet)
	assert.ErrorIs(t, err, failure.ErrInvalidAddress)

	base, err := address.Parse(testBaseAddrTestnet)
	require.NoError(t, err)
	hash, ok := address.StakeKeyHash(base)
	require.True(t, ok)
	assert.Equal(t, testStakeKeyHash, hex.EncodeToString(hash[:]))

	built, err := address.RewardAddress(0, hash)
	require.NoError(t, err)
	assert.Equal(t, testRewardAddrTestnet, built.String())

	enterprise, err := address.Parse(testEnterpriseAddrTestnet)
	require.NoError(t, err)
	_, ok = address.StakeKeyHash(enterprise)
	assert.False(t, ok)
}

func TestPoolKeyHash(t *testing.T) {
	t.Parallel()

	fromHex, err := address.ParsePoolKeyHash(testPoolKeyHash)
	require.NoError(t, err)
	fromBech32, err := address.ParsePoolKeyHash(testPoolID)
	require.NoError(t, err)
	assert.Equal(t, fromHex, fromBech32)

	id, err := address.PoolID(fromHex)
	require.NoError(t, err)
	assert.Equal(t, testPoolID, id)

	for _, bad := range []string{"", "abcd", "pool1xyz", testPaymentKey} {
		_, err := address.ParsePoolKeyHash(bad)
		assert.ErrorIs(t, err, failure.ErrInvalidPoolKeyHash, bad)
	}
}

func TestByron(t *testing.T) {
	t.Parallel()

	assert.True(t, address.IsByron(testByronAddr))
	assert.False(t, address.IsByron(testBaseAddrTestnet))

	parsed, err := address.Parse(testByronAddr)
	require.NoError(t, err)
	assert.Equal(t, uint8(lcommon.AddressTypeByron), parsed.Type())

	attrs, err := address.BootstrapAttributes(testByronAddr)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xa0}, attrs)

	pubKey := decodeHex(t, testPaymentKey)
	require.NoError(t, address.VerifyBootstrapKey(testByronAddr, pubKey, testChainCode))

	otherChainCode := bytes.Repeat([]byte{0x01}, 32)
	err = address.VerifyBootstrapKey(testByronAddr, pubKey, otherChainCode)
	assert.ErrorIs(t, err, failure.ErrInvalidChainCode)

	err = address.VerifyBootstrapKey(testByronAddr, pubKey, []byte{1})
	assert.ErrorIs(t, err, failure.ErrInvalidChainCode)

	_, err = address.BootstrapAttributes(testBaseAddrTestnet)
	assert.ErrorIs(t, err, failure.ErrInvalidAddress)
}

func TestByronAttributes(t *testing.T) {
	t.Parallel()

	// testnet address carrying a network magic attribute
	const magicAddr = "2cWKMJemoBah8R3jomQCz5P1dE82b6M3iTiaPFsSVbJ1Y29uSWnqCYonJZDW2ka4UGxdi"
	assert.True(t, address.IsByron(magicAddr))
	raw, err := address.Bytes(magicAddr)
	require.NoError(t, err)
	assert.Equal(
		t,
		"82d818582883581c000102030405060708090a0b0c0d0e0f101112131415161718191a1ba102451a4170cb17001a89dd49b5",
		hex.EncodeToString(raw),
	)
	attrs, err := address.BootstrapAttributes(magicAddr)
	require.NoError(t, err)
	assert.Equal(t, "a102451a4170cb17", hex.EncodeToString(attrs))

	// the root is not derived from any key
	err = address.VerifyBootstrapKey(magicAddr, decodeHex(t, testPaymentKey), testChainCode)
	assert.ErrorIs(t, err, failure.ErrInvalidChainCode)

	// corrupted checksum
	corrupted := append([]byte{}, raw...)
	corrupted[len(corrupted)-1] ^= 0xff
	_, err = address.BootstrapAttributes(base58.Encode(corrupted))
	assert.ErrorIs(t, err, failure.ErrInvalidAddress)
}
