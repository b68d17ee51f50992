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

package server

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/blinklabs-io/bowerbird/mesh"
)

func newRequestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(amountValidation, mesh.Amount{})
	v.RegisterStructValidation(signatureValidation, mesh.Signature{})
	return v
}

// validateRequest checks a decoded request against its validate tags and
// the registered struct-level rules.
func (s *Server) validateRequest(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		msgs = append(msgs, describeFieldError(fieldErr))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describeFieldError(fieldErr validator.FieldError) string {
	field := fieldPath(fieldErr.Namespace())
	switch fieldErr.Tag() {
	case "required":
		return field + " is required"
	case "hexadecimal":
		return field + " must be hex encoded"
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, fieldErr.Param())
	default:
		if fieldErr.Param() != "" {
			return fmt.Sprintf("%s failed %s=%s", field, fieldErr.Tag(), fieldErr.Param())
		}
		return fmt.Sprintf("%s failed %s", field, fieldErr.Tag())
	}
}

// fieldPath turns a validator namespace into a JSON field path. Type
// names of the root and embedded structs are dropped.
func fieldPath(namespace string) string {
	segments := strings.Split(namespace, ".")
	path := make([]string, 0, len(segments))
	for idx, segment := range segments {
		if idx < len(segments)-1 && strings.ToLower(segment) != segment {
			continue
		}
		path = append(path, segment)
	}
	return strings.Join(path, ".")
}

func amountValidation(sl validator.StructLevel) {
	amount := sl.Current().Interface().(mesh.Amount)
	if amount.Value == "" {
		return
	}
	if _, ok := amount.BigValue(); !ok {
		sl.ReportError(amount.Value, "value", "Value", "integer", "")
	}
}

func signatureValidation(sl validator.StructLevel) {
	sig := sl.Current().Interface().(mesh.Signature)
	if sig.SignatureType != "" && sig.SignatureType != mesh.Ed25519 {
		sl.ReportError(sig.SignatureType, "signature_type", "SignatureType", "eq", mesh.Ed25519)
	}
	if sig.PublicKey != nil && sig.PublicKey.CurveType != "" &&
		sig.PublicKey.CurveType != mesh.Edwards25519 {
		sl.ReportError(
			sig.PublicKey.CurveType,
			"curve_type",
			"CurveType",
			"eq",
			mesh.Edwards25519,
		)
	}
}
