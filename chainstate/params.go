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

// Package chainstate provides the chain derived inputs of the
// construction flow: the protocol parameter snapshot and the current
// slot.
package chainstate

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/blinklabs-io/bowerbird/pparams"
)

// cliProtocolParams is the layout of `cardano-cli query
// protocol-parameters` output. JSON is a subset of YAML, so the same
// decoder reads both.
type cliProtocolParams struct {
	TxFeePerByte        *uint64 `yaml:"txFeePerByte"`
	TxFeeFixed          *uint64 `yaml:"txFeeFixed"`
	MaxTxSize           uint64  `yaml:"maxTxSize"`
	StakeAddressDeposit uint64  `yaml:"stakeAddressDeposit"`
	StakePoolDeposit    uint64  `yaml:"stakePoolDeposit"`
	MinPoolCost         uint64  `yaml:"minPoolCost"`
	UtxoCostPerByte     uint64  `yaml:"utxoCostPerByte"`
	MaxValueSize        uint64  `yaml:"maxValueSize"`
	MaxCollateralInputs uint64  `yaml:"maxCollateralInputs"`
	ProtocolVersion     struct {
		Major uint64 `yaml:"major"`
		Minor uint64 `yaml:"minor"`
	} `yaml:"protocolVersion"`
	CostModels map[string][]int64 `yaml:"costModels"`
}

// ParseParams decodes protocol parameters in cardano-cli JSON or YAML
// form.
func ParseParams(data []byte) (*pparams.ProtocolParams, error) {
	var raw cliProtocolParams
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode protocol parameters: %w", err)
	}
	if raw.TxFeePerByte == nil || raw.TxFeeFixed == nil {
		return nil, errors.New("protocol parameters: txFeePerByte and txFeeFixed are required")
	}
	return &pparams.ProtocolParams{
		MinFeeA:              *raw.TxFeePerByte,
		MinFeeB:              *raw.TxFeeFixed,
		MaxTxSize:            raw.MaxTxSize,
		KeyDeposit:           raw.StakeAddressDeposit,
		PoolDeposit:          raw.StakePoolDeposit,
		MinPoolCost:          raw.MinPoolCost,
		AdaPerUtxoByte:       raw.UtxoCostPerByte,
		MaxValSize:           raw.MaxValueSize,
		MaxCollateralInputs:  raw.MaxCollateralInputs,
		ProtocolMajorVersion: raw.ProtocolVersion.Major,
		CostModels:           raw.CostModels,
	}, nil
}

// LoadParamsFile reads protocol parameters from a file.
func LoadParamsFile(path string) (*pparams.ProtocolParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read protocol parameters: %w", err)
	}
	return ParseParams(data)
}

// ParamsSource supplies fresh protocol parameter snapshots.
type ParamsSource interface {
	ProtocolParams(ctx context.Context) (*pparams.ProtocolParams, error)
}

// FileSource reads the snapshot from a file on every fetch, so an
// external process can keep the file current.
type FileSource struct {
	Path string
}

func (s FileSource) ProtocolParams(ctx context.Context) (*pparams.ProtocolParams, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadParamsFile(s.Path)
}

// StaticSource always returns the same snapshot.
type StaticSource struct {
	Params *pparams.ProtocolParams
}

func (s StaticSource) ProtocolParams(context.Context) (*pparams.ProtocolParams, error) {
	if s.Params == nil {
		return nil, errors.New("no protocol parameters configured")
	}
	return s.Params, nil
}
