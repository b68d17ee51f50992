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

package mesh

// Operation type constants. The strings are a fixed contract shared with
// the cardano-rosetta implementations.
const (
	OpInput                    = "input"
	OpOutput                   = "output"
	OpStakeKeyRegistration     = "stakeKeyRegistration"
	OpStakeDelegation          = "stakeDelegation"
	OpWithdrawal               = "withdrawal"
	OpStakeKeyDeregistration   = "stakeKeyDeregistration"
	OpPoolRegistration         = "poolRegistration"
	OpPoolRegistrationWithCert = "poolRegistrationWithCert"
	OpPoolRetirement           = "poolRetirement"
	OpVoteRegistration         = "voteRegistration"
)

// Operation status constants.
const (
	StatusSuccess = "success"
	StatusInvalid = "invalid"
)

// OperationTypes returns all supported operation types.
func OperationTypes() []string {
	return []string{
		OpInput,
		OpOutput,
		OpStakeKeyRegistration,
		OpStakeDelegation,
		OpWithdrawal,
		OpStakeKeyDeregistration,
		OpPoolRegistration,
		OpPoolRegistrationWithCert,
		OpPoolRetirement,
		OpVoteRegistration,
	}
}

// IsOperationType reports whether opType is a supported operation type.
func IsOperationType(opType string) bool {
	switch opType {
	case OpInput, OpOutput, OpStakeKeyRegistration, OpStakeDelegation,
		OpWithdrawal, OpStakeKeyDeregistration, OpPoolRegistration,
		OpPoolRegistrationWithCert, OpPoolRetirement, OpVoteRegistration:
		return true
	}
	return false
}

// OperationStatuses returns the supported operation statuses.
func OperationStatuses() []*OperationStatus {
	return []*OperationStatus{
		{Status: StatusSuccess, Successful: true},
		{Status: StatusInvalid, Successful: false},
	}
}

// Status returns a pointer to the status string, as used by Operation.
func Status(valid bool) *string {
	if valid {
		s := StatusSuccess
		return &s
	}
	s := StatusInvalid
	return &s
}
