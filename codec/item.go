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

// Package codec implements a generic CBOR item model used to build and
// parse ledger transactions byte-exactly.
package codec

import (
	"bytes"
	"fmt"
	"math"
	"math/big"
)

// Kind identifies the variant held by an Item.
type Kind uint8

const (
	KindUnsigned Kind = iota
	KindNegative
	KindBytes
	KindText
	KindArray
	KindMap
	KindTag
	KindSimple
	// KindRaw holds pre-encoded CBOR which is emitted verbatim.
	KindRaw
)

func (k Kind) String() string {
	switch k {
	case KindUnsigned:
		return "unsigned integer"
	case KindNegative:
		return "negative integer"
	case KindBytes:
		return "byte string"
	case KindText:
		return "text string"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindTag:
		return "tag"
	case KindSimple:
		return "simple value"
	case KindRaw:
		return "raw"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Simple values supported by the item model
const (
	SimpleFalse uint64 = 20
	SimpleTrue  uint64 = 21
	SimpleNull  uint64 = 22
)

// Pair is a single map entry.
type Pair struct {
	Key   Item
	Value Item
}

// Item is one CBOR data item.
type Item struct {
	kind Kind
	// unsigned value, negative argument (value is -1-num), tag number or
	// simple value
	num   uint64
	data  []byte
	items []Item
	pairs []Pair
	// original encoding for decoded items
	raw []byte
}

func Uint(v uint64) Item {
	return Item{kind: KindUnsigned, num: v}
}

// NegInt returns the negative integer -1-n.
func NegInt(n uint64) Item {
	return Item{kind: KindNegative, num: n}
}

func Int(v int64) Item {
	if v >= 0 {
		return Uint(uint64(v))
	}
	return NegInt(uint64(-(v + 1)))
}

// BigInt returns an integer item for any value in the CBOR integer range.
func BigInt(v *big.Int) (Item, error) {
	if v.Sign() >= 0 {
		if !v.IsUint64() {
			return Item{}, fmt.Errorf("integer %s out of range", v)
		}
		return Uint(v.Uint64()), nil
	}
	n := new(big.Int).Neg(v)
	n.Sub(n, big.NewInt(1))
	if !n.IsUint64() {
		return Item{}, fmt.Errorf("integer %s out of range", v)
	}
	return NegInt(n.Uint64()), nil
}

func Bytes(b []byte) Item {
	return Item{kind: KindBytes, data: bytes.Clone(b)}
}

func Text(s string) Item {
	return Item{kind: KindText, data: []byte(s)}
}

func Array(items ...Item) Item {
	return Item{kind: KindArray, items: items}
}

func Map(pairs ...Pair) Item {
	return Item{kind: KindMap, pairs: pairs}
}

func Tag(number uint64, content Item) Item {
	return Item{kind: KindTag, num: number, items: []Item{content}}
}

func Bool(b bool) Item {
	if b {
		return Item{kind: KindSimple, num: SimpleTrue}
	}
	return Item{kind: KindSimple, num: SimpleFalse}
}

func Null() Item {
	return Item{kind: KindSimple, num: SimpleNull}
}

// Raw wraps already encoded CBOR so it can be embedded without
// re-encoding.
func Raw(encoded []byte) Item {
	return Item{kind: KindRaw, data: bytes.Clone(encoded), raw: encoded}
}

func (i Item) Kind() Kind {
	return i.kind
}

// Raw returns the original encoding of a decoded item, or nil for
// constructed items.
func (i Item) Raw() []byte {
	return i.raw
}

func (i Item) mismatch(expected Kind) error {
	return fmt.Errorf(
		"%w: expected %s, found %s",
		ErrInvalidMajorType,
		expected,
		i.kind,
	)
}

func (i Item) Uint() (uint64, error) {
	if i.kind != KindUnsigned {
		return 0, i.mismatch(KindUnsigned)
	}
	return i.num, nil
}

// Int returns the value of an unsigned or negative integer item.
func (i Item) Int() (*big.Int, error) {
	switch i.kind {
	case KindUnsigned:
		return new(big.Int).SetUint64(i.num), nil
	case KindNegative:
		v := new(big.Int).SetUint64(i.num)
		v.Add(v, big.NewInt(1))
		return v.Neg(v), nil
	default:
		return nil, i.mismatch(KindUnsigned)
	}
}

func (i Item) Bytes() ([]byte, error) {
	if i.kind != KindBytes {
		return nil, i.mismatch(KindBytes)
	}
	return i.data, nil
}

func (i Item) Text() (string, error) {
	if i.kind != KindText {
		return "", i.mismatch(KindText)
	}
	return string(i.data), nil
}

func (i Item) Array() ([]Item, error) {
	if i.kind != KindArray {
		return nil, i.mismatch(KindArray)
	}
	return i.items, nil
}

func (i Item) Map() ([]Pair, error) {
	if i.kind != KindMap {
		return nil, i.mismatch(KindMap)
	}
	return i.pairs, nil
}

// Tag returns the tag number and the tagged content.
func (i Item) Tag() (uint64, Item, error) {
	if i.kind != KindTag {
		return 0, Item{}, i.mismatch(KindTag)
	}
	return i.num, i.items[0], nil
}

func (i Item) Bool() (bool, error) {
	if i.kind != KindSimple || (i.num != SimpleTrue && i.num != SimpleFalse) {
		return false, fmt.Errorf(
			"%w: expected boolean, found %s",
			ErrInvalidMajorType,
			i.kind,
		)
	}
	return i.num == SimpleTrue, nil
}

func (i Item) IsNull() bool {
	return i.kind == KindSimple && i.num == SimpleNull
}

// Lookup returns the value stored under key in a map item.
func (i Item) Lookup(key Item) (Item, bool) {
	if i.kind != KindMap {
		return Item{}, false
	}
	for _, pair := range i.pairs {
		if pair.Key.Equal(key) {
			return pair.Value, true
		}
	}
	return Item{}, false
}

// LookupUint is a shortcut for Lookup with an unsigned integer key.
func (i Item) LookupUint(key uint64) (Item, bool) {
	return i.Lookup(Uint(key))
}

// LookupText is a shortcut for Lookup with a text key.
func (i Item) LookupText(key string) (Item, bool) {
	return i.Lookup(Text(key))
}

// Equal reports whether both items have the same canonical encoding.
func (i Item) Equal(other Item) bool {
	if i.kind != other.kind {
		return false
	}
	switch i.kind {
	case KindUnsigned, KindNegative, KindSimple:
		return i.num == other.num
	case KindBytes, KindText, KindRaw:
		return bytes.Equal(i.data, other.data)
	}
	a, errA := Encode(i)
	b, errB := Encode(other)
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

// Canonical returns a copy of the item without its original encoding.
func (i Item) Canonical() Item {
	if i.kind == KindRaw {
		return i
	}
	ret := i
	ret.raw = nil
	if i.items != nil {
		ret.items = make([]Item, len(i.items))
		for idx, child := range i.items {
			ret.items[idx] = child.Canonical()
		}
	}
	if i.pairs != nil {
		ret.pairs = make([]Pair, len(i.pairs))
		for idx, pair := range i.pairs {
			ret.pairs[idx] = Pair{
				Key:   pair.Key.Canonical(),
				Value: pair.Value.Canonical(),
			}
		}
	}
	return ret
}

// Int64 returns the value of an integer item that fits in an int64.
func (i Item) Int64() (int64, error) {
	switch i.kind {
	case KindUnsigned:
		if i.num > math.MaxInt64 {
			return 0, fmt.Errorf("integer %d out of int64 range", i.num)
		}
		return int64(i.num), nil
	case KindNegative:
		if i.num > math.MaxInt64 {
			return 0, fmt.Errorf("integer -1-%d out of int64 range", i.num)
		}
		return -1 - int64(i.num), nil
	default:
		return 0, i.mismatch(KindUnsigned)
	}
}
