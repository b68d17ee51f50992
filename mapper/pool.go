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
	"math/big"
	"net"
	"strconv"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"

	"github.com/blinklabs-io/bowerbird/address"
	"github.com/blinklabs-io/bowerbird/failure"
	"github.com/blinklabs-io/bowerbird/ledger"
	"github.com/blinklabs-io/bowerbird/mesh"
)

// maxPoolMetadataURL is the ledger limit on the metadata url length
const maxPoolMetadataURL = 64

func invalidPoolParams(field string, value string, err error) error {
	fields := []failure.FieldFunc{
		failure.WithString("field", field),
		failure.WithString("value", value),
	}
	if err != nil {
		fields = append(fields, failure.WithErr(err))
	}
	return failure.New(failure.ErrInvalidPoolRegistrationParams, fields...)
}

// poolParamsFromMetadata builds a pool registration certificate for
// operator from the operation metadata.
func poolParamsFromMetadata(
	operator lcommon.Blake2b224,
	meta *mesh.PoolRegistrationParams,
) (*ledger.PoolRegistration, error) {
	params := lcommon.PoolRegistrationCertificate{
		Operator:   lcommon.PoolKeyHash(operator),
		PoolOwners: []lcommon.AddrKeyHash{},
		Relays:     []lcommon.PoolRelay{},
	}
	vrf, err := hex.DecodeString(meta.VrfKeyHash)
	if err != nil || len(vrf) != lcommon.Blake2b256Size {
		return nil, invalidPoolParams("vrfKeyHash", meta.VrfKeyHash, err)
	}
	params.VrfKeyHash = lcommon.VrfKeyHash(lcommon.NewBlake2b256(vrf))
	reward, err := address.ParseRewardAddress(meta.RewardAddress)
	if err != nil {
		return nil, invalidPoolParams("rewardAddress", meta.RewardAddress, err)
	}
	rewardAddress, err := reward.Bytes()
	if err != nil {
		return nil, invalidPoolParams("rewardAddress", meta.RewardAddress, err)
	}
	if params.Pledge, err = strconv.ParseUint(meta.Pledge, 10, 64); err != nil {
		return nil, invalidPoolParams("pledge", meta.Pledge, err)
	}
	if params.Cost, err = strconv.ParseUint(meta.Cost, 10, 64); err != nil {
		return nil, invalidPoolParams("cost", meta.Cost, err)
	}
	margin, err := poolMargin(meta)
	if err != nil {
		return nil, err
	}
	params.Margin = lcommon.GenesisRat{Rat: margin}
	for _, owner := range meta.PoolOwners {
		hash, err := poolOwner(owner)
		if err != nil {
			return nil, invalidPoolParams("poolOwners", owner, err)
		}
		params.PoolOwners = append(params.PoolOwners, hash)
	}
	for _, relay := range meta.Relays {
		parsed, err := poolRelay(relay)
		if err != nil {
			return nil, err
		}
		params.Relays = append(params.Relays, parsed)
	}
	if meta.PoolMetadata != nil {
		if len(meta.PoolMetadata.URL) > maxPoolMetadataURL {
			return nil, invalidPoolParams("poolMetadata.url", meta.PoolMetadata.URL, nil)
		}
		hash, err := hex.DecodeString(meta.PoolMetadata.Hash)
		if err != nil || len(hash) != lcommon.Blake2b256Size {
			return nil, invalidPoolParams("poolMetadata.hash", meta.PoolMetadata.Hash, err)
		}
		params.PoolMetadata = &lcommon.PoolMetadata{
			Url:  meta.PoolMetadata.URL,
			Hash: lcommon.PoolMetadataHash(lcommon.NewBlake2b256(hash)),
		}
	}
	return ledger.NewPoolRegistration(params, rewardAddress), nil
}

// poolOwner accepts an owner as a stake address or a raw key hash.
func poolOwner(owner string) (lcommon.Blake2b224, error) {
	if raw, err := hex.DecodeString(owner); err == nil && len(raw) == lcommon.Blake2b224Size {
		return lcommon.NewBlake2b224(raw), nil
	}
	addr, err := address.ParseRewardAddress(owner)
	if err != nil {
		return lcommon.Blake2b224{}, err
	}
	hash, ok := address.StakeKeyHash(addr)
	if !ok {
		return lcommon.Blake2b224{}, failure.New(
			failure.ErrInvalidAddress,
			failure.WithString("address", owner),
		)
	}
	return hash, nil
}

// poolMargin reads the margin as a fraction or as a decimal percentage.
// The result is in lowest terms.
func poolMargin(meta *mesh.PoolRegistrationParams) (*big.Rat, error) {
	if meta.Margin != nil {
		num, err := strconv.ParseUint(meta.Margin.Numerator, 10, 64)
		if err != nil {
			return nil, invalidPoolParams("margin.numerator", meta.Margin.Numerator, err)
		}
		den, err := strconv.ParseUint(meta.Margin.Denominator, 10, 64)
		if err != nil || den == 0 || num > den {
			return nil, invalidPoolParams("margin.denominator", meta.Margin.Denominator, err)
		}
		return new(big.Rat).SetFrac(
			new(big.Int).SetUint64(num),
			new(big.Int).SetUint64(den),
		), nil
	}
	if meta.MarginPercentage == "" {
		return nil, invalidPoolParams("margin", "", nil)
	}
	ratio, ok := new(big.Rat).SetString(meta.MarginPercentage)
	if !ok || ratio.Sign() < 0 || ratio.Cmp(big.NewRat(1, 1)) > 0 ||
		!ratio.Num().IsUint64() || !ratio.Denom().IsUint64() {
		return nil, invalidPoolParams("margin_percentage", meta.MarginPercentage, nil)
	}
	return ratio, nil
}

func relayPort(relay *mesh.Relay) (*uint32, error) {
	if relay.Port == "" {
		return nil, nil
	}
	port, err := strconv.ParseUint(relay.Port, 10, 16)
	if err != nil {
		return nil, invalidPoolParams("relays.port", relay.Port, err)
	}
	ret := uint32(port)
	return &ret, nil
}

func poolRelay(relay *mesh.Relay) (lcommon.PoolRelay, error) {
	if relay == nil {
		return lcommon.PoolRelay{}, invalidPoolParams("relays", "", nil)
	}
	port, err := relayPort(relay)
	if err != nil {
		return lcommon.PoolRelay{}, err
	}
	switch relay.Type {
	case mesh.RelaySingleHostAddr:
		ret := lcommon.PoolRelay{Type: lcommon.PoolRelayTypeSingleHostAddress, Port: port}
		if relay.IPv4 != "" {
			ip := net.ParseIP(relay.IPv4).To4()
			if ip == nil {
				return lcommon.PoolRelay{}, invalidPoolParams("relays.ipv4", relay.IPv4, nil)
			}
			ret.Ipv4 = &ip
		}
		if relay.IPv6 != "" {
			ip := net.ParseIP(relay.IPv6)
			if ip == nil || ip.To4() != nil {
				return lcommon.PoolRelay{}, invalidPoolParams("relays.ipv6", relay.IPv6, nil)
			}
			ip = ip.To16()
			ret.Ipv6 = &ip
		}
		if ret.Ipv4 == nil && ret.Ipv6 == nil {
			return lcommon.PoolRelay{}, invalidPoolParams("relays.ipv4", "", nil)
		}
		return ret, nil
	case mesh.RelaySingleHostName, mesh.RelayMultiHostName:
		if relay.DNSName == "" {
			return lcommon.PoolRelay{}, invalidPoolParams("relays.dnsName", "", nil)
		}
		hostname := relay.DNSName
		if relay.Type == mesh.RelayMultiHostName {
			return lcommon.PoolRelay{
				Type:     lcommon.PoolRelayTypeMultiHostName,
				Hostname: &hostname,
			}, nil
		}
		return lcommon.PoolRelay{
			Type:     lcommon.PoolRelayTypeSingleHostName,
			Port:     port,
			Hostname: &hostname,
		}, nil
	default:
		return lcommon.PoolRelay{}, invalidPoolParams("relays.type", relay.Type, nil)
	}
}

// poolParamsMetadata describes a decoded pool registration as operation
// metadata.
func poolParamsMetadata(cert *ledger.PoolRegistration, networkID uint8) (*mesh.PoolRegistrationParams, error) {
	reward, err := address.FromBytes(cert.RewardAddress)
	if err != nil {
		return nil, err
	}
	ret := &mesh.PoolRegistrationParams{
		VrfKeyHash:    hex.EncodeToString(cert.VrfKeyHash[:]),
		RewardAddress: reward,
		Pledge:        strconv.FormatUint(cert.Pledge, 10),
		Cost:          strconv.FormatUint(cert.Cost, 10),
		PoolOwners:    make([]string, 0, len(cert.PoolOwners)),
		Relays:        make([]*mesh.Relay, 0, len(cert.Relays)),
	}
	if cert.Margin.Rat != nil {
		ret.Margin = &mesh.PoolMargin{
			Numerator:   cert.Margin.Num().String(),
			Denominator: cert.Margin.Denom().String(),
		}
	}
	for _, owner := range cert.PoolOwners {
		addr, err := address.RewardAddress(networkID, owner)
		if err != nil {
			return nil, err
		}
		ret.PoolOwners = append(ret.PoolOwners, addr.String())
	}
	for _, relay := range cert.Relays {
		entry := &mesh.Relay{}
		if relay.Hostname != nil {
			entry.DNSName = *relay.Hostname
		}
		if relay.Port != nil {
			entry.Port = strconv.FormatUint(uint64(*relay.Port), 10)
		}
		switch relay.Type {
		case lcommon.PoolRelayTypeSingleHostAddress:
			entry.Type = mesh.RelaySingleHostAddr
			if relay.Ipv4 != nil {
				entry.IPv4 = relay.Ipv4.String()
			}
			if relay.Ipv6 != nil {
				entry.IPv6 = relay.Ipv6.String()
			}
		case lcommon.PoolRelayTypeSingleHostName:
			entry.Type = mesh.RelaySingleHostName
		default:
			entry.Type = mesh.RelayMultiHostName
		}
		ret.Relays = append(ret.Relays, entry)
	}
	if cert.PoolMetadata != nil {
		ret.PoolMetadata = &mesh.PoolMetadata{
			URL:  cert.PoolMetadata.Url,
			Hash: hex.EncodeToString(cert.PoolMetadata.Hash[:]),
		}
	}
	return ret, nil
}
