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

	"github.com/blinklabs-io/bowerbird/codec"
)

// Metadata labels used by vote registrations (CIP-15)
const (
	LabelVoteRegistration = 61284
	LabelVoteSignature    = 61285

	tagAuxiliaryData = 259
)

const (
	voteKeyVotingKey = 1
	voteKeyStakeKey  = 2
	voteKeyReward    = 3
	voteKeyNonce     = 4
	voteKeySignature = 1
)

type VoteRegistration struct {
	VotingKey     []byte
	StakeKey      []byte
	RewardAddress []byte
	Nonce         uint64
	Signature     []byte
}

// AuxiliaryData returns the transaction auxiliary data carrying the
// registration.
func (v VoteRegistration) AuxiliaryData() codec.Item {
	return codec.Map(
		codec.Pair{
			Key: codec.Uint(LabelVoteRegistration),
			Value: codec.Map(
				codec.Pair{Key: codec.Uint(voteKeyVotingKey), Value: codec.Bytes(v.VotingKey)},
				codec.Pair{Key: codec.Uint(voteKeyStakeKey), Value: codec.Bytes(v.StakeKey)},
				codec.Pair{Key: codec.Uint(voteKeyReward), Value: codec.Bytes(v.RewardAddress)},
				codec.Pair{Key: codec.Uint(voteKeyNonce), Value: codec.Uint(v.Nonce)},
			),
		},
		codec.Pair{
			Key: codec.Uint(LabelVoteSignature),
			Value: codec.Map(
				codec.Pair{Key: codec.Uint(voteKeySignature), Value: codec.Bytes(v.Signature)},
			),
		},
	)
}

// auxiliaryMetadata extracts the metadata map from any auxiliary data
// form: a Shelley map, a Shelley-MA array or an Alonzo tagged map.
func auxiliaryMetadata(item codec.Item) (codec.Item, error) {
	switch item.Kind() {
	case codec.KindMap:
		return item, nil
	case codec.KindArray:
		elems, err := fixedArray(item, 1, "auxiliary data")
		if err != nil {
			return codec.Item{}, err
		}
		return elems[0], nil
	case codec.KindTag:
		num, content, err := item.Tag()
		if err != nil {
			return codec.Item{}, err
		}
		if num != tagAuxiliaryData {
			return codec.Item{}, fmt.Errorf("auxiliary data: unexpected tag %d", num)
		}
		metadata, ok := content.LookupUint(0)
		if !ok {
			return codec.Map(), nil
		}
		return metadata, nil
	default:
		return codec.Item{}, fmt.Errorf(
			"auxiliary data: %w",
			codecMismatch(item, codec.KindMap),
		)
	}
}

// VoteRegistrationFromAuxiliaryData returns the vote registration in the
// auxiliary data, or nil if there is none.
func VoteRegistrationFromAuxiliaryData(item codec.Item) (*VoteRegistration, error) {
	metadata, err := auxiliaryMetadata(item)
	if err != nil {
		return nil, err
	}
	registration, ok := metadata.LookupUint(LabelVoteRegistration)
	if !ok {
		return nil, nil
	}
	field := func(m codec.Item, key uint64, what string) ([]byte, error) {
		value, ok := m.LookupUint(key)
		if !ok {
			return nil, fmt.Errorf("vote registration: missing %s", what)
		}
		b, err := value.Bytes()
		if err != nil {
			return nil, fmt.Errorf("vote registration %s: %w", what, err)
		}
		return bytes.Clone(b), nil
	}
	var ret VoteRegistration
	if ret.VotingKey, err = field(registration, voteKeyVotingKey, "voting key"); err != nil {
		return nil, err
	}
	if ret.StakeKey, err = field(registration, voteKeyStakeKey, "stake key"); err != nil {
		return nil, err
	}
	if ret.RewardAddress, err = field(registration, voteKeyReward, "reward address"); err != nil {
		return nil, err
	}
	nonce, ok := registration.LookupUint(voteKeyNonce)
	if !ok {
		return nil, fmt.Errorf("vote registration: missing nonce")
	}
	if ret.Nonce, err = uintField(nonce, "vote registration nonce"); err != nil {
		return nil, err
	}
	if signature, ok := metadata.LookupUint(LabelVoteSignature); ok {
		if ret.Signature, err = field(signature, voteKeySignature, "signature"); err != nil {
			return nil, err
		}
	}
	return &ret, nil
}
