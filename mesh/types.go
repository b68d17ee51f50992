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

import "github.com/blinklabs-io/bowerbird/pparams"

// Mesh API types for the construction and network endpoints, following
// the Coinbase Mesh API v1.4.15. They implement the JSON wire
// format expected by mesh-cli and other Mesh-compatible tooling.

// Blockchain is the blockchain name of every network identifier.
const Blockchain = "cardano"

// NetworkIdentifier identifies a blockchain network.
type NetworkIdentifier struct {
	Blockchain string `json:"blockchain" validate:"required"`
	Network    string `json:"network"    validate:"required"`
}

// TransactionIdentifier uniquely identifies a transaction.
type TransactionIdentifier struct {
	Hash string `json:"hash"`
}

// AccountIdentifier uniquely identifies an account. Byron signers carry
// their chain code in Metadata.
type AccountIdentifier struct {
	Address    string                     `json:"address"                validate:"required"`
	SubAccount *SubAccountIdentifier      `json:"sub_account,omitempty"`
	Metadata   *AccountIdentifierMetadata `json:"metadata,omitempty"`
}

// AccountIdentifierMetadata holds the extra key material of an account.
type AccountIdentifierMetadata struct {
	ChainCode string `json:"chain_code,omitempty"`
}

// ChainCode returns the account chain code, if any.
func (a *AccountIdentifier) ChainCode() string {
	if a == nil || a.Metadata == nil {
		return ""
	}
	return a.Metadata.ChainCode
}

// SubAccountIdentifier identifies a sub-account.
type SubAccountIdentifier struct {
	Address string `json:"address"`
}

// CoinIdentifier uniquely identifies a UTXO coin.
type CoinIdentifier struct {
	Identifier string `json:"identifier" validate:"required"`
}

// Currency represents a currency with symbol and decimals. Native assets
// carry their policy id in Metadata.
type Currency struct {
	Symbol   string            `json:"symbol"`
	Decimals int32             `json:"decimals"           validate:"gte=0"`
	Metadata *CurrencyMetadata `json:"metadata,omitempty"`
}

// CurrencyMetadata identifies a native asset and carries optional token
// registry metadata.
type CurrencyMetadata struct {
	PolicyID    string `json:"policyId"`
	Name        string `json:"name,omitempty"`
	Ticker      string `json:"ticker,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Logo        string `json:"logo,omitempty"`
}

// Amount represents a value in a specific currency.
type Amount struct {
	Value    string    `json:"value"    validate:"required"`
	Currency *Currency `json:"currency" validate:"required"`
}

// Operation describes a single mutation to state.
type Operation struct {
	OperationIdentifier *OperationIdentifier   `json:"operation_identifier"         validate:"required"`
	RelatedOperations   []*OperationIdentifier `json:"related_operations,omitempty"`
	Type                string                 `json:"type"                         validate:"required"`
	Status              *string                `json:"status,omitempty"`
	Account             *AccountIdentifier     `json:"account,omitempty"`
	Amount              *Amount                `json:"amount,omitempty"`
	CoinChange          *CoinChange            `json:"coin_change,omitempty"`
	Metadata            *OperationMetadata     `json:"metadata,omitempty"`
}

// OperationIdentifier uniquely identifies an operation.
type OperationIdentifier struct {
	Index        int64  `json:"index"                   validate:"gte=0"`
	NetworkIndex *int64 `json:"network_index,omitempty"`
}

// CoinChange describes the change to a coin (created or spent).
type CoinChange struct {
	CoinIdentifier *CoinIdentifier `json:"coin_identifier" validate:"required"`
	CoinAction     string          `json:"coin_action"     validate:"oneof=coin_created coin_spent"`
}

// Coin represents a UTXO.
type Coin struct {
	CoinIdentifier *CoinIdentifier               `json:"coin_identifier"`
	Amount         *Amount                       `json:"amount"`
	Metadata       map[string][]*TokenBundleItem `json:"metadata,omitempty"`
}

// Version describes software version info.
type Version struct {
	RosettaVersion    string         `json:"rosetta_version"`
	NodeVersion       string         `json:"node_version"`
	MiddlewareVersion *string        `json:"middleware_version,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// Allow specifies what the server supports.
type Allow struct {
	OperationStatuses       []*OperationStatus `json:"operation_statuses"`
	OperationTypes          []string           `json:"operation_types"`
	Errors                  []*Error           `json:"errors"`
	HistoricalBalanceLookup bool               `json:"historical_balance_lookup"`
	CallMethods             []string           `json:"call_methods,omitempty"`
	MempoolCoins            bool               `json:"mempool_coins"`
}

// OperationStatus describes the status of an operation.
type OperationStatus struct {
	Status     string `json:"status"`
	Successful bool   `json:"successful"`
}

// SigningPayload is the payload to be signed.
type SigningPayload struct {
	AccountIdentifier *AccountIdentifier `json:"account_identifier,omitempty"`
	HexBytes          string             `json:"hex_bytes"                    validate:"required,hexadecimal"`
	SignatureType     string             `json:"signature_type,omitempty"`
}

// Signature is a signed payload.
type Signature struct {
	SigningPayload *SigningPayload `json:"signing_payload" validate:"required"`
	PublicKey      *PublicKey      `json:"public_key"      validate:"required"`
	SignatureType  string          `json:"signature_type"  validate:"required"`
	HexBytes       string          `json:"hex_bytes"       validate:"required,hexadecimal"`
}

// PublicKey represents a public key.
type PublicKey struct {
	HexBytes  string `json:"hex_bytes"  validate:"required,hexadecimal"`
	CurveType string `json:"curve_type" validate:"required"`
}

// CoinAction constants.
const (
	CoinCreated = "coin_created"
	CoinSpent   = "coin_spent"
)

// Signature type constants.
const (
	Ed25519 = "ed25519"
)

// Curve type constants.
const (
	Edwards25519 = "edwards25519"
)

// --- Request types ---

// MetadataRequest is used for network list.
type MetadataRequest struct {
	Metadata map[string]any `json:"metadata,omitempty"`
}

// networkIdentifierField is embedded by request types
// that carry a NetworkIdentifier.
type networkIdentifierField struct {
	NetworkIdentifier *NetworkIdentifier `json:"network_identifier" validate:"required"`
}

// Network returns the request's network identifier.
func (f *networkIdentifierField) Network() *NetworkIdentifier {
	return f.NetworkIdentifier
}

// NetworkRequest identifies the target network.
type NetworkRequest struct {
	networkIdentifierField
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ConstructionDeriveRequest derives an address.
type ConstructionDeriveRequest struct {
	networkIdentifierField
	PublicKey *PublicKey      `json:"public_key"         validate:"required"`
	Metadata  *DeriveMetadata `json:"metadata,omitempty"`
}

// DeriveMetadata selects the address type and optional staking key.
type DeriveMetadata struct {
	AddressType       string     `json:"address_type,omitempty"`
	StakingCredential *PublicKey `json:"staking_credential,omitempty"`
}

// ConstructionPreprocessRequest preprocesses operations.
type ConstructionPreprocessRequest struct {
	networkIdentifierField
	Operations []*Operation         `json:"operations"         validate:"required,min=1,dive,required"`
	Metadata   *PreprocessMetadata `json:"metadata,omitempty"`
}

// PreprocessMetadata carries the caller's TTL and deposit overrides.
type PreprocessMetadata struct {
	RelativeTTL       *uint64            `json:"relative_ttl,omitempty"`
	DepositParameters *DepositParameters `json:"deposit_parameters,omitempty"`
}

// DepositParameters override the protocol parameter deposits.
type DepositParameters = pparams.DepositParameters

// PreprocessOptions is passed from preprocess to metadata.
type PreprocessOptions struct {
	RelativeTTL       uint64             `json:"relative_ttl"`
	TransactionSize   uint64             `json:"transaction_size"`
	DepositParameters *DepositParameters `json:"deposit_parameters,omitempty"`
}

// ConstructionMetadataRequest fetches tx metadata.
type ConstructionMetadataRequest struct {
	networkIdentifierField
	Options    *PreprocessOptions `json:"options"               validate:"required"`
	PublicKeys []*PublicKey       `json:"public_keys,omitempty"`
}

// ConstructionPayloadsRequest creates unsigned tx.
type ConstructionPayloadsRequest struct {
	networkIdentifierField
	Operations []*Operation      `json:"operations"            validate:"required,min=1,dive,required"`
	Metadata   *PayloadsMetadata `json:"metadata,omitempty"`
	PublicKeys []*PublicKey      `json:"public_keys,omitempty"`
}

// PayloadsMetadata is the metadata response fed back into payloads.
type PayloadsMetadata struct {
	TTL                string              `json:"ttl"`
	ProtocolParameters *ProtocolParameters `json:"protocol_parameters,omitempty"`
	DepositParameters  *DepositParameters  `json:"deposit_parameters,omitempty"`
}

// ProtocolParameters echoes the protocol parameter snapshot used for the
// fee suggestion.
type ProtocolParameters = pparams.ProtocolParams

// ConstructionCombineRequest combines unsigned tx + sigs.
type ConstructionCombineRequest struct {
	networkIdentifierField
	UnsignedTransaction string       `json:"unsigned_transaction" validate:"required,hexadecimal"`
	Signatures          []*Signature `json:"signatures"           validate:"required,min=1,dive,required"`
}

// ConstructionParseRequest parses a transaction.
type ConstructionParseRequest struct {
	networkIdentifierField
	Signed      bool   `json:"signed"`
	Transaction string `json:"transaction" validate:"required,hexadecimal"`
}

// ConstructionHashRequest computes a tx hash.
type ConstructionHashRequest struct {
	networkIdentifierField
	SignedTransaction string `json:"signed_transaction" validate:"required,hexadecimal"`
}

// ConstructionSubmitRequest submits a signed tx.
type ConstructionSubmitRequest struct {
	networkIdentifierField
	SignedTransaction string `json:"signed_transaction" validate:"required,hexadecimal"`
}

// --- Response types ---

// NetworkListResponse lists supported networks.
type NetworkListResponse struct {
	NetworkIdentifiers []*NetworkIdentifier `json:"network_identifiers"`
}

// NetworkOptionsResponse describes network options.
type NetworkOptionsResponse struct {
	Version *Version `json:"version"`
	Allow   *Allow   `json:"allow"`
}

// ConstructionDeriveResponse returns a derived address.
type ConstructionDeriveResponse struct {
	AccountIdentifier *AccountIdentifier `json:"account_identifier,omitempty"`
	Metadata          map[string]any     `json:"metadata,omitempty"`
}

// ConstructionPreprocessResponse returns options.
type ConstructionPreprocessResponse struct {
	Options            *PreprocessOptions   `json:"options,omitempty"`
	RequiredPublicKeys []*AccountIdentifier `json:"required_public_keys,omitempty"`
}

// ConstructionMetadataResponse returns tx metadata.
type ConstructionMetadataResponse struct {
	Metadata     *PayloadsMetadata `json:"metadata"`
	SuggestedFee []*Amount         `json:"suggested_fee,omitempty"`
}

// ConstructionPayloadsResponse returns unsigned tx.
type ConstructionPayloadsResponse struct {
	UnsignedTransaction string            `json:"unsigned_transaction"`
	Payloads            []*SigningPayload `json:"payloads"`
}

// ConstructionCombineResponse returns signed tx.
type ConstructionCombineResponse struct {
	SignedTransaction string `json:"signed_transaction"`
}

// ConstructionParseResponse returns parsed operations.
type ConstructionParseResponse struct {
	Operations               []*Operation         `json:"operations"`
	AccountIdentifierSigners []*AccountIdentifier `json:"account_identifier_signers,omitempty"`
	Metadata                 map[string]any       `json:"metadata,omitempty"`
}

// ConstructionHashResponse returns a tx hash.
type ConstructionHashResponse struct {
	TransactionIdentifier *TransactionIdentifier `json:"transaction_identifier"`
	Metadata              map[string]any         `json:"metadata,omitempty"`
}

// ConstructionSubmitResponse returns submit result.
type ConstructionSubmitResponse struct {
	TransactionIdentifier *TransactionIdentifier `json:"transaction_identifier"`
	Metadata              map[string]any         `json:"metadata,omitempty"`
}
