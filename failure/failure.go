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

// Package failure defines the error causes shared by the construction
// packages. Every cause belongs to a Kind, and errors returned to callers
// carry a Description with the fields needed to correct the request.
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies a failure cause.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindCodec
	KindAddress
	KindValidation
	KindArithmetic
	KindCrypto
)

func (k Kind) String() string {
	switch k {
	case KindCodec:
		return "codec"
	case KindAddress:
		return "address"
	case KindValidation:
		return "validation"
	case KindArithmetic:
		return "arithmetic"
	case KindCrypto:
		return "crypto"
	default:
		return "unknown"
	}
}

// Cause is a sentinel error identifying one failure reason.
type Cause struct {
	Kind    Kind
	Message string
}

func (c *Cause) Error() string {
	return c.Message
}

func newCause(kind Kind, msg string) *Cause {
	return &Cause{Kind: kind, Message: msg}
}

// Error ties a Cause to a Description of the offending input.
type Error struct {
	Cause       *Cause
	Description Description
}

// New returns an error for the given cause with the provided fields.
func New(cause *Cause, fields ...FieldFunc) error {
	return Error{
		Cause:       cause,
		Description: NewDescription(cause.Message, fields...),
	}
}

func (e Error) Error() string {
	return e.Description.String()
}

func (e Error) Unwrap() error {
	return e.Cause
}

// KindOf returns the kind of the first Cause found in the error chain.
func KindOf(err error) Kind {
	var cause *Cause
	if errors.As(err, &cause) {
		return cause.Kind
	}
	return KindUnknown
}

// CauseOf returns the first Cause found in the error chain, or nil.
func CauseOf(err error) *Cause {
	var cause *Cause
	if errors.As(err, &cause) {
		return cause
	}
	return nil
}

// DescriptionOf returns the description attached to err, if any.
func DescriptionOf(err error) (Description, bool) {
	var ferr Error
	if errors.As(err, &ferr) {
		return ferr.Description, true
	}
	return Description{}, false
}

// Wrap prefixes a failure with the index and type of the operation that
// produced it.
func Wrap(err error, index int64, opType string) error {
	var ferr Error
	if !errors.As(err, &ferr) {
		return fmt.Errorf("operation %d (%s): %w", index, opType, err)
	}
	ferr.Description.Fields = append(
		Fields{
			{Key: "operation_index", Val: fmt.Sprint(index)},
			{Key: "operation_type", Val: opType},
		},
		ferr.Description.Fields...,
	)
	return ferr
}
