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

package chainstate

import (
	"context"
	"errors"

	"github.com/blinklabs-io/bowerbird/pparams"
)

// State answers the chain questions of the construction flow.
type State struct {
	params *ParamsCache
	clock  *SlotClock
}

// NewState combines a parameter cache and a slot clock.
func NewState(params *ParamsCache, clock *SlotClock) (*State, error) {
	if params == nil || clock == nil {
		return nil, errors.New("chain state: params cache and slot clock are required")
	}
	return &State{params: params, clock: clock}, nil
}

// ProtocolParams returns the current protocol parameter snapshot.
func (s *State) ProtocolParams(ctx context.Context) (*pparams.ProtocolParams, error) {
	return s.params.Get(ctx)
}

// CurrentSlot returns the slot at the current wall clock time.
func (s *State) CurrentSlot(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.clock.CurrentSlot()
}

// Invalidate drops the cached protocol parameters.
func (s *State) Invalidate() {
	s.params.Invalidate()
}
