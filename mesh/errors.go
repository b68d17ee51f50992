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

package mesh

import (
	"errors"

	"github.com/blinklabs-io/bowerbird/failure"
)

// Error represents a Mesh API error response.
type Error struct {
	Code        int32          `json:"code"`
	Message     string         `json:"message"`
	Description string         `json:"description,omitempty"`
	Retriable   bool           `json:"retriable"`
	Details     map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	if e.Description != "" {
		return e.Message + ": " + e.Description
	}
	return e.Message
}

// Standard Mesh API error codes.
var (
	ErrNetworkNotSupported = &Error{
		Code:    1,
		Message: "network not supported",
		Description: "The requested network is not supported " +
			"by this server.",
		Retriable: false,
	}
	ErrInvalidRequest = &Error{
		Code:        5,
		Message:     "invalid request",
		Description: "The request was invalid or malformed.",
		Retriable:   false,
	}
	ErrInternal = &Error{
		Code:        6,
		Message:     "internal error",
		Description: "An internal server error occurred.",
		Retriable:   true,
	}
	ErrInvalidPublicKey = &Error{
		Code:        8,
		Message:     "invalid public key",
		Description: "The provided public key is invalid.",
		Retriable:   false,
	}
	ErrInvalidTransaction = &Error{
		Code:    9,
		Message: "invalid transaction",
		Description: "The provided transaction is " +
			"invalid or malformed.",
		Retriable: false,
	}
	ErrSubmitFailed = &Error{
		Code:    10,
		Message: "transaction submit failed",
		Description: "The transaction could not be " +
			"submitted to the network.",
		Retriable: true,
	}
	ErrUnavailable = &Error{
		Code:    11,
		Message: "service unavailable",
		Description: "The service is temporarily " +
			"unavailable. Please retry.",
		Retriable: true,
	}
	ErrTransactionRejected = &Error{
		Code:    12,
		Message: "transaction rejected",
		Description: "The node rejected the " +
			"submitted transaction.",
		Retriable: false,
	}
)

// causeCodeBase is the first code assigned to construction failures.
const causeCodeBase = 4000

// causeErrors maps each failure cause to its Mesh error. Codes follow
// the order of failure.Causes, so new causes must be appended there.
var causeErrors = func() map[*failure.Cause]*Error {
	causes := failure.Causes()
	ret := make(map[*failure.Cause]*Error, len(causes))
	for idx, cause := range causes {
		ret[cause] = &Error{
			Code:        int32(causeCodeBase + idx), // #nosec G115
			Message:     cause.Message,
			Description: cause.Kind.String() + " error",
			Retriable:   false,
		}
	}
	return ret
}()

// CauseError returns the Mesh error for a failure cause.
func CauseError(cause *failure.Cause) *Error {
	if ret, ok := causeErrors[cause]; ok {
		return ret
	}
	return ErrInternal
}

// AllErrors returns all defined error types for the
// /network/options response.
func AllErrors() []*Error {
	ret := []*Error{
		ErrNetworkNotSupported,
		ErrInvalidRequest,
		ErrInternal,
		ErrInvalidPublicKey,
		ErrInvalidTransaction,
		ErrSubmitFailed,
		ErrUnavailable,
		ErrTransactionRejected,
	}
	for _, cause := range failure.Causes() {
		ret = append(ret, causeErrors[cause])
	}
	return ret
}

// ErrorFrom converts any error into a Mesh error. Failure causes map to
// their own code with the failure description fields as details, and
// anything unrecognized becomes an internal error.
func ErrorFrom(err error) *Error {
	if err == nil {
		return nil
	}
	var meshErr *Error
	if errors.As(err, &meshErr) {
		return meshErr
	}
	cause := failure.CauseOf(err)
	if cause == nil {
		return WrapErr(ErrInternal, err)
	}
	ret := WrapErr(CauseError(cause), err)
	if desc, ok := failure.DescriptionOf(err); ok {
		for key, val := range desc.Fields.Map() {
			ret.Details[key] = val
		}
	}
	return ret
}

// WrapErr creates a new Error with additional details.
func WrapErr(base *Error, detail error) *Error {
	if detail == nil {
		return base
	}
	return &Error{
		Code:        base.Code,
		Message:     base.Message,
		Description: base.Description,
		Retriable:   base.Retriable,
		Details: map[string]any{
			"error": detail.Error(),
		},
	}
}
