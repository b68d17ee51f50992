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

package failure

import (
	"fmt"
	"strconv"
	"strings"
)

type Description struct {
	Text   string
	Fields Fields
}

func NewDescription(text string, fields ...FieldFunc) Description {
	d := Description{
		Text:   text,
		Fields: Fields{},
	}
	for _, field := range fields {
		field(&d.Fields)
	}
	return d
}

func (d Description) String() string {
	if len(d.Fields) == 0 {
		return d.Text
	}
	return fmt.Sprintf("%s (%s)", d.Text, d.Fields)
}

type Field struct {
	Key string
	Val string
}

type Fields []Field

// Map returns the fields as a map, suitable for a JSON details payload.
func (f Fields) Map() map[string]any {
	ret := make(map[string]any, len(f))
	for _, field := range f {
		ret[field.Key] = field.Val
	}
	return ret
}

func (f Fields) String() string {
	parts := make([]string, 0, len(f))
	for _, field := range f {
		parts = append(parts, field.Key+": "+field.Val)
	}
	return strings.Join(parts, ", ")
}

type FieldFunc func(*Fields)

func WithErr(err error) FieldFunc {
	return func(f *Fields) {
		*f = append(*f, Field{Key: "error", Val: err.Error()})
	}
}

func WithInt(key string, val int) FieldFunc {
	return func(f *Fields) {
		*f = append(*f, Field{Key: key, Val: strconv.Itoa(val)})
	}
}

func WithUint64(key string, val uint64) FieldFunc {
	return func(f *Fields) {
		*f = append(*f, Field{Key: key, Val: strconv.FormatUint(val, 10)})
	}
}

func WithString(key string, val string) FieldFunc {
	return func(f *Fields) {
		*f = append(*f, Field{Key: key, Val: val})
	}
}

// WithMismatch records an expected and a found value for the same field.
func WithMismatch(key string, expected string, found string) FieldFunc {
	return func(f *Fields) {
		*f = append(
			*f,
			Field{Key: key + "_expected", Val: expected},
			Field{Key: key + "_found", Val: found},
		)
	}
}
