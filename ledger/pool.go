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
	"errors"
	"fmt"

	"github.com/blinklabs-io/gouroboros/cbor"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
)

// poolRegistrationFields is the length of an encoded pool registration,
// certificate kind included
const poolRegistrationFields = 10

// PoolRegistration is a pool registration certificate. The ledger writes
// the reward account as a full reward address, while
// lcommon.PoolRegistrationCertificate only holds a key hash, so the
// address bytes ride alongside. Relays are encoded here since
// lcommon.PoolRelay only decodes.
type PoolRegistration struct {
	lcommon.PoolRegistrationCertificate
	RewardAddress []byte
}

// NewPoolRegistration fills in the certificate kind and the reward
// account key hash.
func NewPoolRegistration(params lcommon.PoolRegistrationCertificate, rewardAddress []byte) *PoolRegistration {
	params.CertType = uint(lcommon.CertificateTypePoolRegistration)
	if len(rewardAddress) == lcommon.AddressHashSize+1 {
		params.RewardAccount = lcommon.NewBlake2b224(rewardAddress[1:])
	}
	return &PoolRegistration{
		PoolRegistrationCertificate: params,
		RewardAddress:               rewardAddress,
	}
}

func relayValue(relay lcommon.PoolRelay) (any, error) {
	var port any
	if relay.Port != nil {
		port = *relay.Port
	}
	var ipv4, ipv6 any
	if relay.Ipv4 != nil {
		ipv4 = []byte(*relay.Ipv4)
	}
	if relay.Ipv6 != nil {
		ipv6 = []byte(*relay.Ipv6)
	}
	switch relay.Type {
	case lcommon.PoolRelayTypeSingleHostAddress:
		return []any{relay.Type, port, ipv4, ipv6}, nil
	case lcommon.PoolRelayTypeSingleHostName, lcommon.PoolRelayTypeMultiHostName:
		if relay.Hostname == nil {
			return nil, fmt.Errorf("relay type %d: missing hostname", relay.Type)
		}
		if relay.Type == lcommon.PoolRelayTypeMultiHostName {
			return []any{relay.Type, *relay.Hostname}, nil
		}
		return []any{relay.Type, port, *relay.Hostname}, nil
	default:
		return nil, fmt.Errorf("unknown relay type %d", relay.Type)
	}
}

func (c *PoolRegistration) MarshalCBOR() ([]byte, error) {
	if c.Margin.Rat == nil {
		return nil, errors.New("pool registration: missing margin")
	}
	owners := make([]lcommon.Blake2b224, 0, len(c.PoolOwners))
	for _, owner := range c.PoolOwners {
		owners = append(owners, lcommon.Blake2b224(owner))
	}
	relays := make([]any, 0, len(c.Relays))
	for _, relay := range c.Relays {
		value, err := relayValue(relay)
		if err != nil {
			return nil, err
		}
		relays = append(relays, value)
	}
	var metadata any
	if c.PoolMetadata != nil {
		metadata = []any{c.PoolMetadata.Url, c.PoolMetadata.Hash}
	}
	rewardAddress := c.RewardAddress
	if rewardAddress == nil {
		rewardAddress = []byte{}
	}
	return cbor.Encode([]any{
		uint(lcommon.CertificateTypePoolRegistration),
		c.Operator,
		c.VrfKeyHash,
		c.Pledge,
		c.Cost,
		&c.Margin,
		rewardAddress,
		owners,
		relays,
		metadata,
	})
}

func decodeHash(data []byte, size int, what string) ([]byte, error) {
	var ret []byte
	if _, err := cbor.Decode(data, &ret); err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	if len(ret) != size {
		return nil, fmt.Errorf("%s: expected %d bytes, found %d", what, size, len(ret))
	}
	return ret, nil
}

// UnmarshalCBOR decodes the certificate field by field, since the reward
// account does not fit lcommon.AddrKeyHash.
func (c *PoolRegistration) UnmarshalCBOR(data []byte) error {
	var fields []cbor.RawMessage
	if _, err := cbor.Decode(data, &fields); err != nil {
		return fmt.Errorf("pool registration: %w", err)
	}
	if len(fields) != poolRegistrationFields {
		return fmt.Errorf(
			"pool registration: expected %d elements, found %d",
			poolRegistrationFields,
			len(fields),
		)
	}
	var cert lcommon.PoolRegistrationCertificate
	operator, err := decodeHash(fields[1], lcommon.Blake2b224Size, "pool operator")
	if err != nil {
		return err
	}
	cert.Operator = lcommon.NewBlake2b224(operator)
	vrf, err := decodeHash(fields[2], lcommon.Blake2b256Size, "pool vrf key hash")
	if err != nil {
		return err
	}
	cert.VrfKeyHash = lcommon.NewBlake2b256(vrf)
	if _, err := cbor.Decode(fields[3], &cert.Pledge); err != nil {
		return fmt.Errorf("pool pledge: %w", err)
	}
	if _, err := cbor.Decode(fields[4], &cert.Cost); err != nil {
		return fmt.Errorf("pool cost: %w", err)
	}
	if _, err := cbor.Decode(fields[5], &cert.Margin); err != nil {
		return fmt.Errorf("pool margin: %w", err)
	}
	var rewardAddress []byte
	if _, err := cbor.Decode(fields[6], &rewardAddress); err != nil {
		return fmt.Errorf("pool reward account: %w", err)
	}
	if err := decodeSet(fields[7], &cert.PoolOwners); err != nil {
		return fmt.Errorf("pool owners: %w", err)
	}
	if _, err := cbor.Decode(fields[8], &cert.Relays); err != nil {
		return fmt.Errorf("pool relays: %w", err)
	}
	if !isNull(fields[9]) {
		var metadata lcommon.PoolMetadata
		if _, err := cbor.Decode(fields[9], &metadata); err != nil {
			return fmt.Errorf("pool metadata: %w", err)
		}
		cert.PoolMetadata = &metadata
	}
	*c = *NewPoolRegistration(cert, bytes.Clone(rewardAddress))
	return nil
}

// PoolRegistrationFromBytes decodes an encoded pool registration
// certificate.
func PoolRegistrationFromBytes(data []byte) (*PoolRegistration, error) {
	certType, err := cbor.DecodeIdFromList(data)
	if err != nil {
		return nil, err
	}
	if certType != lcommon.CertificateTypePoolRegistration {
		return nil, fmt.Errorf("certificate kind %d is not a pool registration", certType)
	}
	ret := &PoolRegistration{}
	if _, err := cbor.Decode(data, ret); err != nil {
		return nil, err
	}
	return ret, nil
}
