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
	"strings"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"

	"github.com/blinklabs-io/bowerbird/address"
	"github.com/blinklabs-io/bowerbird/ledger"
	"github.com/blinklabs-io/bowerbird/mesh"
)

// ParseParams control how a body is described as operations.
type ParseParams struct {
	NetworkID uint8
	// Status is attached to every operation. It is nil for unsigned
	// transactions. An invalid status suppresses the outputs.
	Status *string
}

// preservedQueue hands out preserved operations per type in order.
type preservedQueue map[string][]*mesh.Operation

func queueKey(opType string) string {
	if opType == mesh.OpPoolRegistrationWithCert {
		return mesh.OpPoolRegistration
	}
	return opType
}

func newPreservedQueue(ops []*mesh.Operation) preservedQueue {
	ret := make(preservedQueue)
	for _, op := range ops {
		if op == nil {
			continue
		}
		key := queueKey(op.Type)
		ret[key] = append(ret[key], op)
	}
	return ret
}

func (q preservedQueue) next(opType string, match func(*mesh.Operation) bool) *mesh.Operation {
	key := queueKey(opType)
	pending := q[key]
	if len(pending) == 0 {
		return nil
	}
	if match != nil && !match(pending[0]) {
		return nil
	}
	q[key] = pending[1:]
	return pending[0]
}

type opList struct {
	status *string
	ops    []*mesh.Operation
}

// add appends a copy of op with the next index and the list status.
func (l *opList) add(op *mesh.Operation) *mesh.OperationIdentifier {
	entry := *op
	entry.OperationIdentifier = &mesh.OperationIdentifier{Index: int64(len(l.ops))}
	entry.RelatedOperations = nil
	entry.Status = nil
	if l.status != nil {
		status := *l.status
		entry.Status = &status
	}
	l.ops = append(l.ops, &entry)
	return entry.OperationIdentifier
}

func rewardAccount(cred lcommon.Credential, networkID uint8) (*mesh.AccountIdentifier, error) {
	addr, err := address.RewardAddress(networkID, ledger.CredentialHash(cred))
	if err != nil {
		return nil, err
	}
	return &mesh.AccountIdentifier{Address: addr.String()}, nil
}

// ToOperations describes a transaction body as operations. Entities are
// visited in a fixed order: inputs, withdrawals, stake registrations,
// stake deregistrations, delegations, pool registrations, pool
// retirements, the vote registration and finally outputs, which relate
// to every input. Preserved operations from a build restore the fields
// the body does not carry.
func ToOperations(
	body ledger.TransactionBody,
	vote *ledger.VoteRegistration,
	preserved []*mesh.Operation,
	params ParseParams,
) ([]*mesh.Operation, error) {
	queue := newPreservedQueue(preserved)
	list := &opList{status: params.Status}

	inputIDs := make([]*mesh.OperationIdentifier, 0, len(body.Inputs))
	for _, input := range body.Inputs {
		coinID := ledger.CoinIdentifier(input)
		op := queue.next(mesh.OpInput, func(op *mesh.Operation) bool {
			return op.CoinChange != nil && op.CoinChange.CoinIdentifier != nil &&
				strings.EqualFold(op.CoinChange.CoinIdentifier.Identifier, coinID)
		})
		if op == nil {
			op = &mesh.Operation{
				Type: mesh.OpInput,
				CoinChange: &mesh.CoinChange{
					CoinIdentifier: &mesh.CoinIdentifier{Identifier: coinID},
					CoinAction:     mesh.CoinSpent,
				},
			}
		}
		inputIDs = append(inputIDs, list.add(op))
	}

	for _, withdrawal := range body.Withdrawals {
		op := queue.next(mesh.OpWithdrawal, nil)
		if op == nil {
			reward, err := address.FromBytes(withdrawal.RewardAccount)
			if err != nil {
				return nil, err
			}
			op = &mesh.Operation{
				Type:    mesh.OpWithdrawal,
				Account: &mesh.AccountIdentifier{Address: reward},
				Metadata: &mesh.OperationMetadata{
					WithdrawalAmount: mesh.LovelaceAmount(withdrawal.Amount, true),
				},
			}
		}
		list.add(op)
	}

	if err := certificateOperations(body.Certificates, queue, list, params.NetworkID); err != nil {
		return nil, err
	}

	if vote != nil {
		op := queue.next(mesh.OpVoteRegistration, nil)
		if op == nil {
			meta, err := voteRegistrationMetadata(vote)
			if err != nil {
				return nil, err
			}
			op = &mesh.Operation{
				Type:     mesh.OpVoteRegistration,
				Metadata: &mesh.OperationMetadata{VoteRegistrationMetadata: meta},
			}
		}
		list.add(op)
	}

	if params.Status != nil && *params.Status == mesh.StatusInvalid {
		return list.ops, nil
	}
	for _, output := range body.Outputs {
		addr, err := address.FromBytes(output.Address)
		if err != nil {
			return nil, err
		}
		op := &mesh.Operation{
			Type:    mesh.OpOutput,
			Account: &mesh.AccountIdentifier{Address: addr},
			Amount:  mesh.LovelaceAmount(output.Coin(), false),
		}
		if bundle := tokenBundleItems(output.Assets(), false); bundle != nil {
			op.Metadata = &mesh.OperationMetadata{TokenBundle: bundle}
		}
		list.add(op)
		last := list.ops[len(list.ops)-1]
		last.RelatedOperations = make([]*mesh.OperationIdentifier, 0, len(inputIDs))
		for _, id := range inputIDs {
			last.RelatedOperations = append(
				last.RelatedOperations,
				&mesh.OperationIdentifier{Index: id.Index},
			)
		}
	}
	return list.ops, nil
}

// stakeRegistration matches both registration certificate kinds. Only
// the Conway kind carries its deposit.
func stakeRegistration(cert lcommon.Certificate) (lcommon.Credential, *uint64, bool) {
	switch c := cert.(type) {
	case *lcommon.StakeRegistrationCertificate:
		return c.StakeCredential, nil, true
	case *lcommon.RegistrationCertificate:
		deposit := uint64(c.Amount)
		return c.StakeCredential, &deposit, true
	default:
		return lcommon.Credential{}, nil, false
	}
}

func stakeDeregistration(cert lcommon.Certificate) (lcommon.Credential, *uint64, bool) {
	switch c := cert.(type) {
	case *lcommon.StakeDeregistrationCertificate:
		return c.StakeCredential, nil, true
	case *lcommon.DeregistrationCertificate:
		refund := uint64(c.Amount)
		return c.StakeCredential, &refund, true
	default:
		return lcommon.Credential{}, nil, false
	}
}

func certificateOperations(
	certs []lcommon.Certificate,
	queue preservedQueue,
	list *opList,
	networkID uint8,
) error {
	for _, cert := range certs {
		cred, deposit, ok := stakeRegistration(cert)
		if !ok {
			continue
		}
		op := queue.next(mesh.OpStakeKeyRegistration, nil)
		if op == nil {
			account, err := rewardAccount(cred, networkID)
			if err != nil {
				return err
			}
			op = &mesh.Operation{Type: mesh.OpStakeKeyRegistration, Account: account}
			if deposit != nil {
				op.Metadata = &mesh.OperationMetadata{
					DepositAmount: mesh.LovelaceAmount(*deposit, false),
				}
			}
		}
		list.add(op)
	}
	for _, cert := range certs {
		cred, refund, ok := stakeDeregistration(cert)
		if !ok {
			continue
		}
		op := queue.next(mesh.OpStakeKeyDeregistration, nil)
		if op == nil {
			account, err := rewardAccount(cred, networkID)
			if err != nil {
				return err
			}
			op = &mesh.Operation{Type: mesh.OpStakeKeyDeregistration, Account: account}
			if refund != nil {
				op.Metadata = &mesh.OperationMetadata{
					RefundAmount: mesh.LovelaceAmount(*refund, true),
				}
			}
		}
		list.add(op)
	}
	for _, cert := range certs {
		deleg, ok := cert.(*lcommon.StakeDelegationCertificate)
		if !ok || deleg.StakeCredential == nil {
			continue
		}
		op := queue.next(mesh.OpStakeDelegation, nil)
		if op == nil {
			account, err := rewardAccount(*deleg.StakeCredential, networkID)
			if err != nil {
				return err
			}
			op = &mesh.Operation{
				Type:    mesh.OpStakeDelegation,
				Account: account,
				Metadata: &mesh.OperationMetadata{
					PoolKeyHash: hex.EncodeToString(deleg.PoolKeyHash[:]),
				},
			}
		}
		list.add(op)
	}
	for _, cert := range certs {
		pool, ok := cert.(*ledger.PoolRegistration)
		if !ok {
			continue
		}
		op := queue.next(mesh.OpPoolRegistration, nil)
		if op == nil {
			meta, err := poolParamsMetadata(pool, networkID)
			if err != nil {
				return err
			}
			op = &mesh.Operation{
				Type: mesh.OpPoolRegistration,
				Account: &mesh.AccountIdentifier{
					Address: hex.EncodeToString(pool.Operator[:]),
				},
				Metadata: &mesh.OperationMetadata{PoolRegistrationParams: meta},
			}
		}
		list.add(op)
	}
	for _, cert := range certs {
		retirement, ok := cert.(*lcommon.PoolRetirementCertificate)
		if !ok {
			continue
		}
		op := queue.next(mesh.OpPoolRetirement, nil)
		if op == nil {
			epoch := retirement.Epoch
			op = &mesh.Operation{
				Type: mesh.OpPoolRetirement,
				Account: &mesh.AccountIdentifier{
					Address: hex.EncodeToString(retirement.PoolKeyHash[:]),
				},
				Metadata: &mesh.OperationMetadata{Epoch: &epoch},
			}
		}
		list.add(op)
	}
	return nil
}
