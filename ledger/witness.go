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

const (
	witnessKeyVkey      = 0
	witnessKeyBootstrap = 2
)

type WitnessSet struct {
	Vkey      []lcommon.VkeyWitness
	Bootstrap []lcommon.BootstrapWitness
}

func (w *WitnessSet) MarshalCBOR() ([]byte, error) {
	tmp := struct {
		Vkey      []lcommon.VkeyWitness      `cbor:"0,keyasint,omitempty"`
		Bootstrap []lcommon.BootstrapWitness `cbor:"2,keyasint,omitempty"`
	}{
		Vkey:      w.Vkey,
		Bootstrap: w.Bootstrap,
	}
	return cbor.Encode(&tmp)
}

// UnmarshalCBOR decodes the key witnesses of a witness set. Script and
// redeemer entries are ignored.
func (w *WitnessSet) UnmarshalCBOR(data []byte) error {
	fields, err := decodeFields(data, "witness set")
	if err != nil {
		return err
	}
	var ret WitnessSet
	if vkeys, ok := fields[witnessKeyVkey]; ok {
		if err := decodeSet(vkeys, &ret.Vkey); err != nil {
			return fmt.Errorf("vkey witnesses: %w", err)
		}
	}
	if bootstraps, ok := fields[witnessKeyBootstrap]; ok {
		if err := decodeSet(bootstraps, &ret.Bootstrap); err != nil {
			return fmt.Errorf("bootstrap witnesses: %w", err)
		}
	}
	*w = ret
	return nil
}
