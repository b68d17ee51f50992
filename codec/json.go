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
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
)

// FromJSON converts a generic JSON value, as produced by encoding/json
// with or without UseNumber, into an item. Object keys are sorted so
// the result is deterministic.
func FromJSON(v any) (Item, error) {
	switch val := v.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(val), nil
	case string:
		return Text(val), nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return Int(i), nil
		}
		if u, err := strconv.ParseUint(val.String(), 10, 64); err == nil {
			return Uint(u), nil
		}
		return Item{}, fmt.Errorf("non-integer number %s", val)
	case float64:
		if val != math.Trunc(val) || math.Abs(val) > 1<<53 {
			return Item{}, fmt.Errorf("non-integer number %v", val)
		}
		return Int(int64(val)), nil
	case int:
		return Int(int64(val)), nil
	case int64:
		return Int(val), nil
	case uint64:
		return Uint(val), nil
	case []any:
		items := make([]Item, 0, len(val))
		for idx, elem := range val {
			item, err := FromJSON(elem)
			if err != nil {
				return Item{}, fmt.Errorf("index %d: %w", idx, err)
			}
			items = append(items, item)
		}
		return Array(items...), nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for key := range val {
			keys = append(keys, key)
		}
		slices.Sort(keys)
		pairs := make([]Pair, 0, len(keys))
		for _, key := range keys {
			item, err := FromJSON(val[key])
			if err != nil {
				return Item{}, fmt.Errorf("key %q: %w", key, err)
			}
			pairs = append(pairs, Pair{Key: Text(key), Value: item})
		}
		return Map(pairs...), nil
	default:
		return Item{}, fmt.Errorf("unsupported JSON value of type %T", v)
	}
}

// ToJSON converts an item back into a generic JSON value. Only items
// that FromJSON can produce are supported.
func ToJSON(item Item) (any, error) {
	switch item.kind {
	case KindUnsigned:
		return item.num, nil
	case KindNegative:
		return item.Int64()
	case KindText:
		return string(item.data), nil
	case KindSimple:
		if item.IsNull() {
			return nil, nil
		}
		return item.Bool()
	case KindArray:
		ret := make([]any, 0, len(item.items))
		for idx, child := range item.items {
			val, err := ToJSON(child)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", idx, err)
			}
			ret = append(ret, val)
		}
		return ret, nil
	case KindMap:
		ret := make(map[string]any, len(item.pairs))
		for _, pair := range item.pairs {
			key, err := pair.Key.Text()
			if err != nil {
				return nil, fmt.Errorf("map key: %w", err)
			}
			val, err := ToJSON(pair.Value)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", key, err)
			}
			ret[key] = val
		}
		return ret, nil
	default:
		return nil, fmt.Errorf("%s has no JSON representation", item.kind)
	}
}
