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

// Package mapper converts between Mesh operations and the native ledger
// entities of a transaction body.
package mapper

import (
	"cmp"
	"encoding/hex"
	"math/big"
	"slices"
	"strconv"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/blinklabs-io/gouroboros/ledger/shelley"

	"github.com/blinklabs-io/bowerbird/address"
	"github.com/blinklabs-io/bowerbird/failure"
	"github.com/blinklabs-io/bowerbird/ledger"
	"github.com/blinklabs-io/bowerbird/mesh"
	"github.com/blinklabs-io/bowerbird/pparams"
)

// Params are the network settings the build path needs.
type Params struct {
	NetworkID uint8
	Deposits  pparams.Deposits
}

// Entities is the result of mapping a list of operations. It is built as
// an immutable accumulator: every operation handler receives a copy and
// returns the updated value.
type Entities struct {
	Inputs           []shelley.ShelleyTransactionInput
	Outputs          []ledger.TransactionOutput
	Certificates     []lcommon.Certificate
	Withdrawals      []ledger.Withdrawal
	VoteRegistration *ledger.VoteRegistration

	InputSum      uint64
	OutputSum     uint64
	WithdrawalSum uint64
	Deposits      pparams.DepositsSum

	// Signers are the accounts whose keys must sign the body
	Signers []*mesh.AccountIdentifier
	// Preserved are the operations that cannot be recovered from the
	// body alone, in index order
	Preserved []*mesh.Operation
}

// Fee returns the implicit fee of the mapped transaction.
func (e Entities) Fee() (uint64, error) {
	return pparams.NetFee(e.InputSum, e.OutputSum, e.WithdrawalSum, e.Deposits)
}

// Body returns the transaction body for the entities.
func (e Entities) Body(fee uint64, ttl *uint64) ledger.TransactionBody {
	return ledger.TransactionBody{
		Inputs:       e.Inputs,
		Outputs:      e.Outputs,
		Fee:          fee,
		TTL:          ttl,
		Certificates: e.Certificates,
		Withdrawals:  e.Withdrawals,
	}
}

type handler func(Entities, *mesh.Operation, Params) (Entities, error)

func handlerFor(opType string) (handler, bool) {
	switch opType {
	case mesh.OpInput:
		return withInput, true
	case mesh.OpOutput:
		return withOutput, true
	case mesh.OpStakeKeyRegistration:
		return withStakeRegistration, true
	case mesh.OpStakeKeyDeregistration:
		return withStakeDeregistration, true
	case mesh.OpStakeDelegation:
		return withStakeDelegation, true
	case mesh.OpWithdrawal:
		return withWithdrawal, true
	case mesh.OpPoolRegistration:
		return withPoolRegistration, true
	case mesh.OpPoolRegistrationWithCert:
		return withPoolRegistrationCert, true
	case mesh.OpPoolRetirement:
		return withPoolRetirement, true
	case mesh.OpVoteRegistration:
		return withVoteRegistration, true
	default:
		return nil, false
	}
}

// SortOperations returns the operations ordered by index. Indices must
// be unique and contiguous from zero.
func SortOperations(ops []*mesh.Operation) ([]*mesh.Operation, error) {
	sorted := slices.Clone(ops)
	for idx, op := range sorted {
		if op == nil || op.OperationIdentifier == nil {
			return nil, failure.New(
				failure.ErrInvalidOperationIndex,
				failure.WithInt("position", idx),
			)
		}
	}
	slices.SortStableFunc(sorted, func(a, b *mesh.Operation) int {
		return cmp.Compare(a.OperationIdentifier.Index, b.OperationIdentifier.Index)
	})
	for idx, op := range sorted {
		if op.OperationIdentifier.Index != int64(idx) {
			return nil, failure.New(
				failure.ErrInvalidOperationIndex,
				failure.WithMismatch(
					"index",
					strconv.Itoa(idx),
					strconv.FormatInt(op.OperationIdentifier.Index, 10),
				),
			)
		}
	}
	return sorted, nil
}

// FromOperations maps operations onto ledger entities, walking them in
// index order.
func FromOperations(ops []*mesh.Operation, params Params) (Entities, error) {
	sorted, err := SortOperations(ops)
	if err != nil {
		return Entities{}, err
	}
	var acc Entities
	for _, op := range sorted {
		handle, ok := handlerFor(op.Type)
		if !ok {
			return Entities{}, failure.Wrap(
				failure.New(
					failure.ErrInvalidOperationType,
					failure.WithString("type", op.Type),
				),
				op.OperationIdentifier.Index,
				op.Type,
			)
		}
		if acc, err = handle(acc, op, params); err != nil {
			return Entities{}, failure.Wrap(err, op.OperationIdentifier.Index, op.Type)
		}
		if op.Type != mesh.OpOutput {
			acc.Preserved = append(acc.Preserved, op)
		}
	}
	if acc.Signers, err = RequiredSigners(sorted, params.NetworkID); err != nil {
		return Entities{}, err
	}
	return acc, nil
}

func metadataOf(op *mesh.Operation) *mesh.OperationMetadata {
	if op.Metadata == nil {
		return &mesh.OperationMetadata{}
	}
	return op.Metadata
}

// lovelace returns the magnitude of an ADA amount.
func lovelace(amount *mesh.Amount, field string) (uint64, int, error) {
	if amount == nil {
		return 0, 0, failure.New(
			failure.ErrInvalidAmount,
			failure.WithString("field", field),
		)
	}
	if !mesh.IsAda(amount.Currency) {
		symbol := ""
		if amount.Currency != nil {
			symbol = amount.Currency.Symbol
		}
		return 0, 0, failure.New(
			failure.ErrInvalidAmount,
			failure.WithString("field", field),
			failure.WithMismatch("currency", mesh.AdaSymbol, symbol),
		)
	}
	return magnitude(amount.Value, field, failure.ErrInvalidAmount)
}

// magnitude parses a signed decimal string into its absolute value and
// sign.
func magnitude(value string, field string, cause *failure.Cause) (uint64, int, error) {
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return 0, 0, failure.New(
			cause,
			failure.WithString("field", field),
			failure.WithString("value", value),
		)
	}
	sign := parsed.Sign()
	parsed.Abs(parsed)
	if !parsed.IsUint64() {
		return 0, 0, failure.New(
			failure.ErrAmountOverflow,
			failure.WithString("field", field),
			failure.WithString("value", value),
		)
	}
	return parsed.Uint64(), sign, nil
}

func checkedAdd(a uint64, b uint64, field string) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, failure.New(
			failure.ErrAmountOverflow,
			failure.WithString("field", field),
		)
	}
	return sum, nil
}

func withInput(acc Entities, op *mesh.Operation, _ Params) (Entities, error) {
	if op.CoinChange == nil || op.CoinChange.CoinIdentifier == nil {
		return acc, failure.New(failure.ErrTransactionInputsParametersMissing)
	}
	input, err := ledger.ParseCoinIdentifier(op.CoinChange.CoinIdentifier.Identifier)
	if err != nil {
		return acc, failure.New(
			failure.ErrTransactionInputsParametersMissing,
			failure.WithErr(err),
		)
	}
	if op.Account != nil {
		if _, err := address.Parse(op.Account.Address); err != nil {
			return acc, err
		}
	}
	if op.Amount != nil {
		value, _, err := lovelace(op.Amount, "amount")
		if err != nil {
			return acc, err
		}
		if acc.InputSum, err = checkedAdd(acc.InputSum, value, "input_sum"); err != nil {
			return acc, err
		}
	}
	acc.Inputs = append(acc.Inputs, input)
	return acc, nil
}

func withOutput(acc Entities, op *mesh.Operation, _ Params) (Entities, error) {
	if op.Account == nil || op.Account.Address == "" || op.Amount == nil {
		return acc, failure.New(failure.ErrTransactionOutputsParametersMissing)
	}
	addr, err := address.Bytes(op.Account.Address)
	if err != nil {
		return acc, err
	}
	value, sign, err := lovelace(op.Amount, "amount")
	if err != nil {
		return acc, err
	}
	if sign <= 0 {
		return acc, failure.New(
			failure.ErrInvalidAmount,
			failure.WithString("field", "amount"),
			failure.WithString("value", op.Amount.Value),
		)
	}
	assets, err := tokenBundle(metadataOf(op).TokenBundle)
	if err != nil {
		return acc, err
	}
	if acc.OutputSum, err = checkedAdd(acc.OutputSum, value, "output_sum"); err != nil {
		return acc, err
	}
	acc.Outputs = append(acc.Outputs, ledger.NewTransactionOutput(addr, value, assets))
	return acc, nil
}

// stakeCredential returns the staking key hash of an operation, from
// the staking_credential metadata or else from the account address.
func stakeCredential(op *mesh.Operation) (lcommon.Blake2b224, error) {
	meta := metadataOf(op)
	if meta.StakingCredential != nil && meta.StakingCredential.HexBytes != "" {
		key, err := hex.DecodeString(meta.StakingCredential.HexBytes)
		if err != nil || len(key) != address.PublicKeySize {
			fields := []failure.FieldFunc{
				failure.WithString("staking_credential", meta.StakingCredential.HexBytes),
			}
			if err != nil {
				fields = append(fields, failure.WithErr(err))
			}
			return lcommon.Blake2b224{}, failure.New(failure.ErrInvalidStakingKeyFormat, fields...)
		}
		return address.KeyHash(key), nil
	}
	if op.Account != nil && op.Account.Address != "" {
		addr, err := address.Parse(op.Account.Address)
		if err != nil {
			return lcommon.Blake2b224{}, err
		}
		if hash, ok := address.StakeKeyHash(addr); ok {
			return hash, nil
		}
	}
	return lcommon.Blake2b224{}, failure.New(failure.ErrStakingKeyMissing)
}

func withStakeRegistration(acc Entities, op *mesh.Operation, params Params) (Entities, error) {
	hash, err := stakeCredential(op)
	if err != nil {
		return acc, err
	}
	if acc.Deposits, err = acc.Deposits.AddKeyDeposit(params.Deposits.Key); err != nil {
		return acc, err
	}
	acc.Certificates = append(acc.Certificates, ledger.NewStakeRegistration(hash))
	return acc, nil
}

func withStakeDeregistration(acc Entities, op *mesh.Operation, params Params) (Entities, error) {
	hash, err := stakeCredential(op)
	if err != nil {
		return acc, err
	}
	if acc.Deposits, err = acc.Deposits.AddRefund(params.Deposits.Key); err != nil {
		return acc, err
	}
	acc.Certificates = append(acc.Certificates, ledger.NewStakeDeregistration(hash))
	return acc, nil
}

func withStakeDelegation(acc Entities, op *mesh.Operation, _ Params) (Entities, error) {
	hash, err := stakeCredential(op)
	if err != nil {
		return acc, err
	}
	meta := metadataOf(op)
	if meta.PoolKeyHash == "" {
		return acc, failure.New(failure.ErrPoolKeyMissing)
	}
	pool, err := address.ParsePoolKeyHash(meta.PoolKeyHash)
	if err != nil {
		return acc, err
	}
	acc.Certificates = append(acc.Certificates, ledger.NewStakeDelegation(hash, pool))
	return acc, nil
}

func withWithdrawal(acc Entities, op *mesh.Operation, params Params) (Entities, error) {
	hash, err := stakeCredential(op)
	if err != nil {
		return acc, failure.New(failure.ErrInvalidAddress, failure.WithErr(err))
	}
	reward, err := address.RewardAddress(params.NetworkID, hash)
	if err != nil {
		return acc, err
	}
	rewardBytes, err := reward.Bytes()
	if err != nil {
		return acc, failure.New(failure.ErrInvalidAddress, failure.WithErr(err))
	}
	amount := metadataOf(op).WithdrawalAmount
	if amount == nil {
		amount = op.Amount
	}
	value, _, err := lovelace(amount, "withdrawalAmount")
	if err != nil {
		return acc, err
	}
	if acc.WithdrawalSum, err = checkedAdd(acc.WithdrawalSum, value, "withdrawal_sum"); err != nil {
		return acc, err
	}
	acc.Withdrawals = append(acc.Withdrawals, ledger.Withdrawal{
		RewardAccount: rewardBytes,
		Amount:        value,
	})
	return acc, nil
}

// poolOperator returns the pool key hash in the operation account.
func poolOperator(op *mesh.Operation) (lcommon.Blake2b224, error) {
	if op.Account == nil || op.Account.Address == "" {
		return lcommon.Blake2b224{}, failure.New(failure.ErrPoolKeyMissing)
	}
	return address.ParsePoolKeyHash(op.Account.Address)
}

func withPoolRegistration(acc Entities, op *mesh.Operation, params Params) (Entities, error) {
	operator, err := poolOperator(op)
	if err != nil {
		return acc, err
	}
	meta := metadataOf(op)
	if meta.PoolRegistrationParams == nil {
		return acc, failure.New(failure.ErrPoolRegistrationParamsMissing)
	}
	cert, err := poolParamsFromMetadata(operator, meta.PoolRegistrationParams)
	if err != nil {
		return acc, err
	}
	if acc.Deposits, err = acc.Deposits.AddPoolDeposit(params.Deposits.Pool); err != nil {
		return acc, err
	}
	acc.Certificates = append(acc.Certificates, cert)
	return acc, nil
}

func withPoolRegistrationCert(acc Entities, op *mesh.Operation, params Params) (Entities, error) {
	cert, err := poolCertificate(op)
	if err != nil {
		return acc, err
	}
	if acc.Deposits, err = acc.Deposits.AddPoolDeposit(params.Deposits.Pool); err != nil {
		return acc, err
	}
	acc.Certificates = append(acc.Certificates, cert)
	return acc, nil
}

func poolCertificate(op *mesh.Operation) (*ledger.PoolRegistration, error) {
	certHex := metadataOf(op).PoolRegistrationCert
	if certHex == "" {
		return nil, failure.New(failure.ErrPoolCertMissing)
	}
	raw, err := hex.DecodeString(certHex)
	if err != nil {
		return nil, failure.New(
			failure.ErrInvalidPoolRegistrationCert,
			failure.WithErr(err),
		)
	}
	cert, err := ledger.PoolRegistrationFromBytes(raw)
	if err != nil {
		return nil, failure.New(
			failure.ErrInvalidPoolRegistrationCert,
			failure.WithErr(err),
		)
	}
	return cert, nil
}

func withPoolRetirement(acc Entities, op *mesh.Operation, _ Params) (Entities, error) {
	pool, err := poolOperator(op)
	if err != nil {
		return acc, err
	}
	epoch := metadataOf(op).Epoch
	if epoch == nil {
		return acc, failure.New(failure.ErrEpochMissing)
	}
	acc.Certificates = append(acc.Certificates, ledger.NewPoolRetirement(pool, *epoch))
	return acc, nil
}

func withVoteRegistration(acc Entities, op *mesh.Operation, _ Params) (Entities, error) {
	if acc.VoteRegistration != nil {
		return acc, failure.New(failure.ErrDuplicateVoteRegistration)
	}
	vote, err := voteRegistration(metadataOf(op).VoteRegistrationMetadata)
	if err != nil {
		return acc, err
	}
	acc.VoteRegistration = &vote
	return acc, nil
}
