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
	"errors"
	"fmt"
	"time"
)

// ErrBeforeReference is returned for times earlier than the clock
// reference point.
var ErrBeforeReference = errors.New("time is before the slot clock reference point")

// SlotClockConfig holds configuration for the SlotClock
type SlotClockConfig struct {
	// ReferenceSlot is a slot known to start at ReferenceTime. It must
	// lie in the current era.
	ReferenceSlot uint64
	ReferenceTime time.Time
	// SlotLength is the duration of a slot. Default: 1s
	SlotLength time.Duration
	// Now replaces the wall clock, for testing
	Now func() time.Time
}

// networkReferences are Shelley era reference points of the public
// networks.
var networkReferences = map[string]SlotClockConfig{
	"mainnet": {
		ReferenceSlot: 4492800,
		ReferenceTime: time.Unix(1596059091, 0).UTC(),
	},
	"preprod": {
		ReferenceSlot: 86400,
		ReferenceTime: time.Unix(1655769600, 0).UTC(),
	},
	"preview": {
		ReferenceSlot: 0,
		ReferenceTime: time.Unix(1666656000, 0).UTC(),
	},
}

// SlotClockConfigForNetwork returns the clock configuration of a public
// network.
func SlotClockConfigForNetwork(network string) (SlotClockConfig, error) {
	ret, ok := networkReferences[network]
	if !ok {
		return SlotClockConfig{}, fmt.Errorf("no slot clock reference for network %q", network)
	}
	ret.SlotLength = time.Second
	return ret, nil
}

// SlotClock converts between wall clock time and slots.
type SlotClock struct {
	config SlotClockConfig
}

// NewSlotClock creates a new SlotClock with the given configuration
func NewSlotClock(config SlotClockConfig) *SlotClock {
	if config.SlotLength <= 0 {
		config.SlotLength = time.Second
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &SlotClock{config: config}
}

// CurrentSlot returns the current slot number based on wall-clock time.
func (sc *SlotClock) CurrentSlot() (uint64, error) {
	return sc.TimeToSlot(sc.config.Now())
}

// TimeToSlot returns the slot containing t.
func (sc *SlotClock) TimeToSlot(t time.Time) (uint64, error) {
	elapsed := t.Sub(sc.config.ReferenceTime)
	if elapsed < 0 {
		return 0, ErrBeforeReference
	}
	return sc.config.ReferenceSlot + uint64(elapsed/sc.config.SlotLength), nil
}

// SlotToTime returns the time when the given slot starts.
func (sc *SlotClock) SlotToTime(slot uint64) (time.Time, error) {
	if slot < sc.config.ReferenceSlot {
		return time.Time{}, fmt.Errorf(
			"slot %d is before the reference slot %d",
			slot,
			sc.config.ReferenceSlot,
		)
	}
	offset := time.Duration(slot-sc.config.ReferenceSlot) * sc.config.SlotLength //nolint:gosec // slot counts fit
	return sc.config.ReferenceTime.Add(offset), nil
}
