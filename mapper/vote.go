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

package mapper

import (
	"encoding/hex"

	"github.com/blinklabs-io/bowerbird/address"
	"github.com/blinklabs-io/bowerbird/failure"
	"github.com/blinklabs-io/bowerbird/ledger"
	"github.com/blinklabs-io/bowerbird/mesh"
)

// voteSignatureSize is the size of an ed25519 signature
const voteSignatureSize = 64

func voteKey(key *mesh.PublicKey, missing *failure.Cause, invalid *failure.Cause) ([]byte, error) {
	if key == nil || key.HexBytes == "" {
		return nil, failure.New(missing)
	}
	raw, err := hex.DecodeString(key.HexBytes)
	if err != nil || len(raw) != address.PublicKeySize {
		return nil, failure.New(invalid, failure.WithString("key", key.HexBytes))
	}
	return raw, nil
}

func voteRegistration(meta *mesh.VoteRegistrationMetadata) (ledger.VoteRegistration, error) {
	if meta == nil {
		return ledger.VoteRegistration{}, failure.New(failure.ErrMissingVoteRegistrationMetadata)
	}
	var ret ledger.VoteRegistration
	var err error
	if ret.VotingKey, err = voteKey(
		meta.VotingKey,
		failure.ErrMissingVotingKey,
		failure.ErrInvalidVotingKeyFormat,
	); err != nil {
		return ledger.VoteRegistration{}, err
	}
	if ret.StakeKey, err = voteKey(
		meta.StakeKey,
		failure.ErrStakingKeyMissing,
		failure.ErrInvalidStakingKeyFormat,
	); err != nil {
		return ledger.VoteRegistration{}, err
	}
	if address.IsByron(meta.RewardAddress) {
		return ledger.VoteRegistration{}, failure.New(
			failure.ErrInvalidAddress,
			failure.WithString("address", meta.RewardAddress),
		)
	}
	if ret.RewardAddress, err = address.Bytes(meta.RewardAddress); err != nil {
		return ledger.VoteRegistration{}, err
	}
	if meta.VotingNonce == nil || *meta.VotingNonce == 0 {
		return ledger.VoteRegistration{}, failure.New(failure.ErrVotingNonceNotValid)
	}
	ret.Nonce = *meta.VotingNonce
	signature, err := hex.DecodeString(meta.VotingSignature)
	if err != nil || len(signature) != voteSignatureSize {
		return ledger.VoteRegistration{}, failure.New(
			failure.ErrInvalidVotingSignature,
			failure.WithString("signature", meta.VotingSignature),
		)
	}
	ret.Signature = signature
	return ret, nil
}

func voteRegistrationMetadata(vote *ledger.VoteRegistration) (*mesh.VoteRegistrationMetadata, error) {
	reward, err := address.FromBytes(vote.RewardAddress)
	if err != nil {
		return nil, err
	}
	nonce := vote.Nonce
	return &mesh.VoteRegistrationMetadata{
		StakeKey: &mesh.PublicKey{
			HexBytes:  hex.EncodeToString(vote.StakeKey),
			CurveType: mesh.Edwards25519,
		},
		VotingKey: &mesh.PublicKey{
			HexBytes:  hex.EncodeToString(vote.VotingKey),
			CurveType: mesh.Edwards25519,
		},
		RewardAddress:   reward,
		VotingNonce:     &nonce,
		VotingSignature: hex.EncodeToString(vote.Signature),
	}, nil
}
