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

package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"sync"

	_cbor "github.com/fxamacker/cbor/v2"
)

const (
	majorUnsigned byte = 0
	majorNegative byte = 1
	majorBytes    byte = 2
	majorText     byte = 3
	majorArray    byte = 4
	majorMap      byte = 5
	majorTag      byte = 6
	majorSimple   byte = 7

	breakByte byte = 0xff
)

var (
	cachedEncMode     _cbor.EncMode
	cachedEncModeErr  error
	cachedEncModeOnce sync.Once
)

func getEncMode() (_cbor.EncMode, error) {
	cachedEncModeOnce.Do(func() {
		encOptions := _cbor.EncOptions{
			Sort:          _cbor.SortCoreDeterministic,
			IndefLength:   _cbor.IndefLengthForbidden,
			BigIntConvert: _cbor.BigIntConvertShortest,
		}
		cachedEncMode, cachedEncModeErr = encOptions.EncMode()
	})
	return cachedEncMode, cachedEncModeErr
}

// Encode returns the canonical encoding of the item. Arrays and maps are
// always written with definite lengths, and map entries keep their order.
// Raw items are written as given.
func Encode(item Item) ([]byte, error) {
	return item.MarshalCBOR()
}

// MarshalCBOR implements the fxamacker/cbor Marshaler interface.
func (i Item) MarshalCBOR() ([]byte, error) {
	em, err := getEncMode()
	if err != nil {
		return nil, err
	}
	switch i.kind {
	case KindUnsigned:
		return em.Marshal(i.num)
	case KindNegative:
		if i.num <= math.MaxInt64 {
			return em.Marshal(-1 - int64(i.num))
		}
		v := new(big.Int).SetUint64(i.num)
		v.Add(v, big.NewInt(1))
		return em.Marshal(v.Neg(v))
	case KindBytes:
		if i.data == nil {
			return em.Marshal([]byte{})
		}
		return em.Marshal(i.data)
	case KindText:
		return em.Marshal(string(i.data))
	case KindArray:
		// Children are spliced in as encoded so that raw elements keep
		// their original bytes, indefinite lengths included.
		ret := appendHead(nil, majorArray, uint64(len(i.items)))
		for idx, child := range i.items {
			data, err := child.MarshalCBOR()
			if err != nil {
				return nil, fmt.Errorf("array element %d: %w", idx, err)
			}
			ret = append(ret, data...)
		}
		return ret, nil
	case KindMap:
		// The underlying encoder sorts map keys, so the head is written
		// here to keep entries in the order they were given.
		ret := appendHead(nil, majorMap, uint64(len(i.pairs)))
		for idx, pair := range i.pairs {
			key, err := pair.Key.MarshalCBOR()
			if err != nil {
				return nil, fmt.Errorf("map key %d: %w", idx, err)
			}
			val, err := pair.Value.MarshalCBOR()
			if err != nil {
				return nil, fmt.Errorf("map value %d: %w", idx, err)
			}
			ret = append(ret, key...)
			ret = append(ret, val...)
		}
		return ret, nil
	case KindTag:
		content, err := i.items[0].MarshalCBOR()
		if err != nil {
			return nil, fmt.Errorf("tag %d content: %w", i.num, err)
		}
		return append(appendHead(nil, majorTag, i.num), content...), nil
	case KindSimple:
		switch i.num {
		case SimpleFalse:
			return em.Marshal(false)
		case SimpleTrue:
			return em.Marshal(true)
		case SimpleNull:
			return em.Marshal(nil)
		}
		return nil, fmt.Errorf(
			"%w: unsupported simple value %d",
			ErrInvalidMajorType,
			i.num,
		)
	case KindRaw:
		return i.data, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %d", ErrInvalidMajorType, i.kind)
	}
}

func appendHead(dst []byte, major byte, arg uint64) []byte {
	prefix := major << 5
	switch {
	case arg < 24:
		return append(dst, prefix|byte(arg))
	case arg <= math.MaxUint8:
		return append(dst, prefix|24, byte(arg))
	case arg <= math.MaxUint16:
		return binary.BigEndian.AppendUint16(append(dst, prefix|25), uint16(arg))
	case arg <= math.MaxUint32:
		return binary.BigEndian.AppendUint32(append(dst, prefix|26), uint32(arg))
	default:
		return binary.BigEndian.AppendUint64(append(dst, prefix|27), arg)
	}
}
