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

package failure

// Codec
var (
	ErrCantCreateUnsignedTransactionFromBytes = newCause(
		KindCodec,
		"cannot create unsigned transaction from bytes",
	)
	ErrCantCreateSignedTransactionFromBytes = newCause(
		KindCodec,
		"cannot create signed transaction from bytes",
	)
	ErrParseSignedTransaction = newCause(
		KindCodec,
		"cannot parse signed transaction",
	)
	ErrCantBuildSignedTransaction = newCause(
		KindCodec,
		"cannot build signed transaction",
	)
	ErrCantEncodeTransaction = newCause(
		KindCodec,
		"cannot encode transaction",
	)
)

// Address
var (
	ErrInvalidPublicKeyFormat = newCause(
		KindAddress,
		"invalid public key format",
	)
	ErrStakingKeyMissing = newCause(
		KindAddress,
		"staking key is required for this type of address",
	)
	ErrInvalidAddressType = newCause(
		KindAddress,
		"provided address type is invalid",
	)
	ErrInvalidAddress = newCause(
		KindAddress,
		"provided address is invalid",
	)
	ErrInvalidStakingKeyFormat = newCause(
		KindAddress,
		"invalid staking key format",
	)
	ErrInvalidPoolKeyHash = newCause(
		KindAddress,
		"provided pool key hash has an invalid format",
	)
)

// Validation
var (
	ErrInvalidNetwork = newCause(
		KindValidation,
		"network identifier does not match the configured network",
	)
	ErrInvalidOperationIndex = newCause(
		KindValidation,
		"operation indices must be unique and contiguous from zero",
	)
	ErrInvalidOperationType = newCause(
		KindValidation,
		"operation type is not supported",
	)
	ErrTransactionInputsParametersMissing = newCause(
		KindValidation,
		"transaction inputs parameters missing",
	)
	ErrTransactionOutputsParametersMissing = newCause(
		KindValidation,
		"transaction outputs parameters missing",
	)
	ErrInvalidAmount = newCause(
		KindValidation,
		"amount is invalid",
	)
	ErrInvalidTokenBundle = newCause(
		KindValidation,
		"token bundle is invalid",
	)
	ErrPoolKeyMissing = newCause(
		KindValidation,
		"pool key hash is required to operate",
	)
	ErrEpochMissing = newCause(
		KindValidation,
		"epoch is required for pool retirement",
	)
	ErrPoolRegistrationParamsMissing = newCause(
		KindValidation,
		"pool registration parameters were expected",
	)
	ErrInvalidPoolRegistrationParams = newCause(
		KindValidation,
		"pool registration parameters are invalid",
	)
	ErrPoolCertMissing = newCause(
		KindValidation,
		"pool registration certificate is required",
	)
	ErrInvalidPoolRegistrationCert = newCause(
		KindValidation,
		"pool registration certificate is invalid",
	)
	ErrMissingVoteRegistrationMetadata = newCause(
		KindValidation,
		"vote registration metadata was not provided",
	)
	ErrMissingVotingKey = newCause(
		KindValidation,
		"voting key is missing",
	)
	ErrInvalidVotingKeyFormat = newCause(
		KindValidation,
		"voting key format is invalid",
	)
	ErrVotingNonceNotValid = newCause(
		KindValidation,
		"voting nonce not valid",
	)
	ErrDuplicateVoteRegistration = newCause(
		KindValidation,
		"only one vote registration is allowed per transaction",
	)
	ErrInvalidDepositParameters = newCause(
		KindValidation,
		"deposit parameters are invalid",
	)
	ErrInvalidConstructionOptions = newCause(
		KindValidation,
		"construction options are invalid",
	)
	ErrMissingLovelace = newCause(
		KindValidation,
		"utxo has no lovelace amount",
	)
)

// Arithmetic
var (
	ErrOutputsExceedInputs = newCause(
		KindArithmetic,
		"outputs and deposits exceed inputs",
	)
	ErrAmountOverflow = newCause(
		KindArithmetic,
		"amount overflows the ledger integer range",
	)
)

// Crypto
var (
	ErrInvalidSignatureFormat = newCause(
		KindCrypto,
		"invalid signature format",
	)
	ErrInvalidVotingSignature = newCause(
		KindCrypto,
		"invalid voting signature",
	)
	ErrInvalidChainCode = newCause(
		KindCrypto,
		"chain code does not match the byron address",
	)
	ErrMissingChainCode = newCause(
		KindCrypto,
		"chain code is required for byron signers",
	)
)

// Causes returns every known cause in declaration order.
func Causes() []*Cause {
	return []*Cause{
		ErrCantCreateUnsignedTransactionFromBytes,
		ErrCantCreateSignedTransactionFromBytes,
		ErrParseSignedTransaction,
		ErrCantBuildSignedTransaction,
		ErrCantEncodeTransaction,
		ErrInvalidPublicKeyFormat,
		ErrStakingKeyMissing,
		ErrInvalidAddressType,
		ErrInvalidAddress,
		ErrInvalidStakingKeyFormat,
		ErrInvalidPoolKeyHash,
		ErrInvalidNetwork,
		ErrInvalidOperationIndex,
		ErrInvalidOperationType,
		ErrTransactionInputsParametersMissing,
		ErrTransactionOutputsParametersMissing,
		ErrInvalidAmount,
		ErrInvalidTokenBundle,
		ErrPoolKeyMissing,
		ErrEpochMissing,
		ErrPoolRegistrationParamsMissing,
		ErrInvalidPoolRegistrationParams,
		ErrPoolCertMissing,
		ErrInvalidPoolRegistrationCert,
		ErrMissingVoteRegistrationMetadata,
		ErrMissingVotingKey,
		ErrInvalidVotingKeyFormat,
		ErrVotingNonceNotValid,
		ErrDuplicateVoteRegistration,
		ErrInvalidDepositParameters,
		ErrInvalidConstructionOptions,
		ErrMissingLovelace,
		ErrOutputsExceedInputs,
		ErrAmountOverflow,
		ErrInvalidSignatureFormat,
		ErrInvalidVotingSignature,
		ErrInvalidChainCode,
		ErrMissingChainCode,
	}
}
