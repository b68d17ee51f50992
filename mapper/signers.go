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

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"

	"github.com/blinklabs-io/bowerbird/address"
	"github.com/blinklabs-io/bowerbird/failure"
	"github.com/blinklabs-io/bowerbird/ledger"
	"github.com/blinklabs-io/bowerbird/mesh"
)

type signerSet struct {
	networkID uint8
	seen      map[string]bool
	signers   []*mesh.AccountIdentifier
}

func (s *signerSet) add(account *mesh.AccountIdentifier) {
	if s.seen[account.Address] {
		return
	}
	s.seen[account.Address] = true
	s.signers = append(s.signers, account)
}

func (s *signerSet) addAddress(addr string) {
	s.add(&mesh.AccountIdentifier{Address: addr})
}

func (s *signerSet) addStake(hash lcommon.Blake2b224) error {
	addr, err := address.RewardAddress(s.networkID, hash)
	if err != nil {
		return err
	}
	s.addAddress(addr.String())
	return nil
}

func (s *signerSet) addPool(cert *ledger.PoolRegistration) error {
	s.addAddress(hex.EncodeToString(cert.Operator[:]))
	reward, err := address.FromBytes(cert.RewardAddress)
	if err != nil {
		return err
	}
	s.addAddress(reward)
	for _, owner := range cert.PoolOwners {
		if err := s.addStake(owner); err != nil {
			return err
		}
	}
	return nil
}

// RequiredSigners returns the accounts whose keys must witness a
// transaction built from ops: input owners, the reward accounts of
// deregistrations, delegations and withdrawals, the operator, reward
// account and owners of pool registrations and the retiring pool.
// Accounts are deduplicated in first-seen order.
func RequiredSigners(ops []*mesh.Operation, networkID uint8) ([]*mesh.AccountIdentifier, error) {
	set := &signerSet{networkID: networkID, seen: make(map[string]bool)}
	for _, op := range ops {
		var err error
		switch op.Type {
		case mesh.OpInput:
			if op.Account != nil && op.Account.Address != "" {
				account := &mesh.AccountIdentifier{Address: op.Account.Address}
				if chainCode := op.Account.ChainCode(); chainCode != "" {
					account.Metadata = &mesh.AccountIdentifierMetadata{ChainCode: chainCode}
				}
				set.add(account)
			}
		case mesh.OpStakeKeyDeregistration, mesh.OpStakeDelegation, mesh.OpWithdrawal:
			var hash lcommon.Blake2b224
			if hash, err = stakeCredential(op); err == nil {
				err = set.addStake(hash)
			}
		case mesh.OpPoolRegistration:
			var operator lcommon.Blake2b224
			if operator, err = poolOperator(op); err != nil {
				break
			}
			meta := metadataOf(op).PoolRegistrationParams
			if meta == nil {
				err = failure.New(failure.ErrPoolRegistrationParamsMissing)
				break
			}
			var cert *ledger.PoolRegistration
			if cert, err = poolParamsFromMetadata(operator, meta); err == nil {
				err = set.addPool(cert)
			}
		case mesh.OpPoolRegistrationWithCert:
			var cert *ledger.PoolRegistration
			if cert, err = poolCertificate(op); err == nil {
				err = set.addPool(cert)
			}
		case mesh.OpPoolRetirement:
			var pool lcommon.Blake2b224
			if pool, err = poolOperator(op); err == nil {
				set.addAddress(hex.EncodeToString(pool[:]))
			}
		}
		if err != nil {
			var index int64
			if op.OperationIdentifier != nil {
				index = op.OperationIdentifier.Index
			}
			return nil, failure.Wrap(err, index, op.Type)
		}
	}
	return set.signers, nil
}
