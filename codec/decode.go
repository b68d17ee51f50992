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
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	_cbor "github.com/fxamacker/cbor/v2"
)

var (
	cachedDecMode     _cbor.DecMode
	cachedDecModeErr  error
	cachedDecModeOnce sync.Once
)

func getDecMode() (_cbor.DecMode, error) {
	cachedDecModeOnce.Do(func() {
		decOptions := _cbor.DecOptions{
			// Transactions in the wild use deeply nested metadata
			MaxNestedLevels: 256,
			DupMapKey:       _cbor.DupMapKeyQuiet,
		}
		cachedDecMode, cachedDecModeErr = decOptions.DecMode()
	})
	return cachedDecMode, cachedDecModeErr
}

// Decode decodes a sequence of top-level items. Indefinite-length arrays,
// maps and strings are accepted and returned as finite items.
func Decode(data []byte) ([]Item, error) {
	if len(data) == 0 {
		return nil, ErrUnexpectedEOF
	}
	var ret []Item
	rest := data
	for len(rest) > 0 {
		item, next, err := decodeFirst(rest)
		if err != nil {
			return nil, fmt.Errorf(
				"item at offset %d: %w",
				len(data)-len(rest),
				err,
			)
		}
		ret = append(ret, item)
		rest = next
	}
	return ret, nil
}

// DecodeOne decodes exactly one item and fails if any bytes remain.
func DecodeOne(data []byte) (Item, error) {
	if len(data) == 0 {
		return Item{}, ErrUnexpectedEOF
	}
	item, rest, err := decodeFirst(data)
	if err != nil {
		return Item{}, err
	}
	if len(rest) > 0 {
		return Item{}, fmt.Errorf(
			"%w: %d bytes after offset %d",
			ErrTrailingBytes,
			len(rest),
			len(data)-len(rest),
		)
	}
	return item, nil
}

func decodeFirst(data []byte) (Item, []byte, error) {
	dm, err := getDecMode()
	if err != nil {
		return Item{}, nil, err
	}
	var raw _cbor.RawMessage
	rest, err := dm.UnmarshalFirst(data, &raw)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Item{}, nil, ErrUnexpectedEOF
		}
		return Item{}, nil, fmt.Errorf("%w: %w", ErrInvalidMajorType, err)
	}
	item, err := fromRaw(dm, raw)
	if err != nil {
		return Item{}, nil, err
	}
	return item, rest, nil
}

// readHead parses the initial byte and argument of a well-formed item.
func readHead(raw []byte) (arg uint64, size int, indefinite bool) {
	info := raw[0] & 0x1f
	switch {
	case info < 24:
		return uint64(info), 1, false
	case info == 24:
		return uint64(raw[1]), 2, false
	case info == 25:
		return uint64(binary.BigEndian.Uint16(raw[1:3])), 3, false
	case info == 26:
		return uint64(binary.BigEndian.Uint32(raw[1:5])), 5, false
	case info == 27:
		return binary.BigEndian.Uint64(raw[1:9]), 9, false
	default:
		return 0, 1, true
	}
}

// fromRaw converts one complete, well-formed encoded item.
func fromRaw(dm _cbor.DecMode, raw []byte) (Item, error) {
	major := raw[0] >> 5
	arg, size, indefinite := readHead(raw)
	item := Item{raw: bytes.Clone(raw)}
	switch major {
	case majorUnsigned:
		item.kind = KindUnsigned
		item.num = arg
	case majorNegative:
		item.kind = KindNegative
		item.num = arg
	case majorBytes:
		var b []byte
		if err := dm.Unmarshal(raw, &b); err != nil {
			return Item{}, fmt.Errorf("%w: %w", ErrInvalidMajorType, err)
		}
		item.kind = KindBytes
		item.data = b
	case majorText:
		var s string
		if err := dm.Unmarshal(raw, &s); err != nil {
			return Item{}, fmt.Errorf("%w: %w", ErrInvalidMajorType, err)
		}
		item.kind = KindText
		item.data = []byte(s)
	case majorArray:
		children, err := decodeChildren(raw[size:], arg, indefinite)
		if err != nil {
			return Item{}, err
		}
		item.kind = KindArray
		item.items = children
		if item.items == nil {
			item.items = []Item{}
		}
	case majorMap:
		count := arg * 2
		children, err := decodeChildren(raw[size:], count, indefinite)
		if err != nil {
			return Item{}, err
		}
		if len(children)%2 != 0 {
			return Item{}, fmt.Errorf("%w: map with odd item count", ErrUnexpectedEOF)
		}
		item.kind = KindMap
		item.pairs = make([]Pair, 0, len(children)/2)
		for idx := 0; idx < len(children); idx += 2 {
			item.pairs = append(
				item.pairs,
				Pair{Key: children[idx], Value: children[idx+1]},
			)
		}
	case majorTag:
		content, _, err := decodeFirst(raw[size:])
		if err != nil {
			return Item{}, err
		}
		item.kind = KindTag
		item.num = arg
		item.items = []Item{content}
	case majorSimple:
		switch raw[0] {
		case 0xf4:
			item.num = SimpleFalse
		case 0xf5:
			item.num = SimpleTrue
		case 0xf6, 0xf7:
			// undefined is read as null
			item.num = SimpleNull
		default:
			return Item{}, fmt.Errorf(
				"%w: unsupported simple or float value 0x%02x",
				ErrInvalidMajorType,
				raw[0],
			)
		}
		item.kind = KindSimple
	}
	return item, nil
}

func decodeChildren(data []byte, count uint64, indefinite bool) ([]Item, error) {
	var ret []Item
	rest := data
	for indefinite || uint64(len(ret)) < count {
		if len(rest) == 0 {
			return nil, ErrUnexpectedEOF
		}
		if indefinite && rest[0] == breakByte {
			break
		}
		child, next, err := decodeFirst(rest)
		if err != nil {
			return nil, err
		}
		ret = append(ret, child)
		rest = next
	}
	return ret, nil
}
