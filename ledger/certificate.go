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
	"fmt"

	"github.com/blinklabs-io/gouroboros/cbor"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
)

// KeyCredential returns a key hash credential.
func KeyCredential(hash lcommon.Blake2b224) lcommon.Credential {
	return lcommon.Credential{
		CredType:   lcommon.CredentialTypeAddrKeyHash,
		Credential: lcommon.CredentialHash(hash),
	}
}

// CredentialHash returns the key or script hash of a credential.
func CredentialHash(cred lcommon.Credential) lcommon.Blake2b224 {
	return lcommon.Blake2b224(cred.Credential)
}

func NewStakeRegistration(hash lcommon.Blake2b224) *lcommon.StakeRegistrationCertificate {
	return &lcommon.StakeRegistrationCertificate{
		CertType:        uint(lcommon.CertificateTypeStakeRegistration),
		StakeCredential: KeyCredential(hash),
	}
}

func NewStakeDeregistration(hash lcommon.Blake2b224) *lcommon.StakeDeregistrationCertificate {
	return &lcommon.StakeDeregistrationCertificate{
		CertType:        uint(lcommon.CertificateTypeStakeDeregistration),
		StakeCredential: KeyCredential(hash),
	}
}

func NewStakeDelegation(hash lcommon.Blake2b224, pool lcommon.Blake2b224) *lcommon.StakeDelegationCertificate {
	cred := KeyCredential(hash)
	return &lcommon.StakeDelegationCertificate{
		CertType:        uint(lcommon.CertificateTypeStakeDelegation),
		StakeCredential: &cred,
		PoolKeyHash:     lcommon.PoolKeyHash(pool),
	}
}

func NewPoolRetirement(pool lcommon.Blake2b224, epoch uint64) *lcommon.PoolRetirementCertificate {
	return &lcommon.PoolRetirementCertificate{
		CertType:    uint(lcommon.CertificateTypePoolRetirement),
		PoolKeyHash: lcommon.PoolKeyHash(pool),
		Epoch:       epoch,
	}
}

// encodeCertificate encodes a certificate. Pool registrations go through
// their own encoder.
func encodeCertificate(cert lcommon.Certificate) ([]byte, error) {
	if pool, ok := cert.(*PoolRegistration); ok {
		return pool.MarshalCBOR()
	}
	return cbor.Encode(cert)
}

// decodeCertificate decodes the certificate kinds the construction API
// produces, plus the Conway registration forms that state the deposit.
// Other kinds return ErrUnsupportedCertificate.
func decodeCertificate(data []byte) (lcommon.Certificate, error) {
	certType, err := cbor.DecodeIdFromList(data)
	if err != nil {
		return nil, fmt.Errorf("certificate: %w", err)
	}
	switch certType {
	case lcommon.CertificateTypePoolRegistration:
		ret := &PoolRegistration{}
		if _, err := cbor.Decode(data, ret); err != nil {
			return nil, err
		}
		return ret, nil
	case lcommon.CertificateTypeStakeRegistration,
		lcommon.CertificateTypeStakeDeregistration,
		lcommon.CertificateTypeStakeDelegation,
		lcommon.CertificateTypePoolRetirement,
		lcommon.CertificateTypeRegistration,
		lcommon.CertificateTypeDeregistration:
		var wrapper lcommon.CertificateWrapper
		if _, err := cbor.Decode(data, &wrapper); err != nil {
			return nil, fmt.Errorf("certificate %d: %w", certType, err)
		}
		return wrapper.Certificate, nil
	default:
		return nil, fmt.Errorf("%w: kind %d", ErrUnsupportedCertificate, certType)
	}
}
