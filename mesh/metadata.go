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

// OperationMetadata is the typed view of Operation.Metadata. Which fields
// apply depends on the operation type.
type OperationMetadata struct {
	StakingCredential        *PublicKey                `json:"staking_credential,omitempty"`
	PoolKeyHash              string                    `json:"pool_key_hash,omitempty"`
	Epoch                    *uint64                   `json:"epoch,omitempty"`
	TokenBundle              []*TokenBundleItem        `json:"tokenBundle,omitempty"`
	PoolRegistrationCert     string                    `json:"poolRegistrationCert,omitempty"`
	PoolRegistrationParams   *PoolRegistrationParams   `json:"poolRegistrationParams,omitempty"`
	VoteRegistrationMetadata *VoteRegistrationMetadata `json:"voteRegistrationMetadata,omitempty"`
	WithdrawalAmount         *Amount                   `json:"withdrawalAmount,omitempty"`
	DepositAmount            *Amount                   `json:"depositAmount,omitempty"`
	RefundAmount             *Amount                   `json:"refundAmount,omitempty"`
}

// TokenBundleItem lists the native assets of one policy.
type TokenBundleItem struct {
	PolicyID string    `json:"policyId"`
	Tokens   []*Amount `json:"tokens"`
}

// PoolRegistrationParams describes a pool registration certificate.
// Amounts are decimal strings.
type PoolRegistrationParams struct {
	VrfKeyHash       string        `json:"vrfKeyHash"`
	RewardAddress    string        `json:"rewardAddress"`
	Pledge           string        `json:"pledge"`
	Cost             string        `json:"cost"`
	PoolOwners       []string      `json:"poolOwners"`
	Relays           []*Relay      `json:"relays"`
	Margin           *PoolMargin   `json:"margin,omitempty"`
	MarginPercentage string        `json:"margin_percentage,omitempty"`
	PoolMetadata     *PoolMetadata `json:"poolMetadata,omitempty"`
}

// PoolMargin is the pool margin as a fraction of decimal strings.
type PoolMargin struct {
	Numerator   string `json:"numerator"`
	Denominator string `json:"denominator"`
}

// Relay types.
const (
	RelaySingleHostAddr = "single_host_addr"
	RelaySingleHostName = "single_host_name"
	RelayMultiHostName  = "multi_host_name"
)

// Relay is a pool relay.
type Relay struct {
	Type    string `json:"type"`
	IPv4    string `json:"ipv4,omitempty"`
	IPv6    string `json:"ipv6,omitempty"`
	DNSName string `json:"dnsName,omitempty"`
	Port    string `json:"port,omitempty"`
}

// PoolMetadata is the pool metadata anchor.
type PoolMetadata struct {
	URL  string `json:"url"`
	Hash string `json:"hash"`
}

// VoteRegistrationMetadata describes a catalyst vote registration.
type VoteRegistrationMetadata struct {
	StakeKey        *PublicKey `json:"stakeKey,omitempty"`
	VotingKey       *PublicKey `json:"votingKey,omitempty"`
	RewardAddress   string     `json:"rewardAddress"`
	VotingNonce     *uint64    `json:"votingNonce,omitempty"`
	VotingSignature string     `json:"votingSignature"`
}
