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

// Package construction sequences the Mesh construction flow: address
// derivation, size and fee estimation, transaction assembly, signing,
// parsing, hashing and submission.
package construction

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/blinklabs-io/bowerbird/address"
	"github.com/blinklabs-io/bowerbird/failure"
	"github.com/blinklabs-io/bowerbird/mapper"
	"github.com/blinklabs-io/bowerbird/mesh"
	"github.com/blinklabs-io/bowerbird/pparams"
	"github.com/blinklabs-io/bowerbird/tokenregistry"
	"github.com/blinklabs-io/bowerbird/transaction"
)

const tracerName = "github.com/blinklabs-io/bowerbird/construction"

// estimateTTL stands in for the TTL while sizing. Its encoding is as wide
// as any slot the networks will reach.
const estimateTTL = math.MaxUint32

// ChainState provides the chain view the service prices transactions with.
type ChainState interface {
	ProtocolParams(ctx context.Context) (*pparams.ProtocolParams, error)
	CurrentSlot(ctx context.Context) (uint64, error)
}

// Submitter forwards a signed transaction to the network.
type Submitter interface {
	Submit(ctx context.Context, tx []byte) error
}

// Config holds configuration for the construction Service
type Config struct {
	Logger     *slog.Logger
	Network    string
	ChainState ChainState
	// Submitter is optional; without it submissions report the service
	// as unavailable
	Submitter Submitter
	// Registry is optional; without it native assets only carry their
	// policy id
	Registry     tokenregistry.Registry
	RelativeTTL  uint64
	PromRegistry prometheus.Registerer
}

// Service implements the construction operations. It holds no per-request
// state and is safe for concurrent use.
type Service struct {
	config    Config
	logger    *slog.Logger
	networkID uint8
	enricher  *tokenregistry.Enricher
	metrics   serviceMetrics
	tracer    trace.Tracer
}

func New(cfg Config) (*Service, error) {
	if cfg.Network == "" {
		return nil, errors.New("construction: network is required")
	}
	if cfg.ChainState == nil {
		return nil, errors.New("construction: chain state is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.RelativeTTL == 0 {
		cfg.RelativeTTL = pparams.DefaultRelativeTTL
	}
	logger := cfg.Logger.With("component", "construction")
	s := &Service{
		config:    cfg,
		logger:    logger,
		networkID: address.NetworkID(cfg.Network),
		enricher:  tokenregistry.NewEnricher(cfg.Registry, cfg.Logger),
		tracer:    otel.Tracer(tracerName),
	}
	s.metrics.init(cfg.PromRegistry)
	return s, nil
}

// NetworkIdentifier returns the network the service builds for.
func (s *Service) NetworkIdentifier() *mesh.NetworkIdentifier {
	return &mesh.NetworkIdentifier{
		Blockchain: mesh.Blockchain,
		Network:    s.config.Network,
	}
}

// CheckNetwork verifies a request targets the configured network.
func (s *Service) CheckNetwork(id *mesh.NetworkIdentifier) error {
	if id == nil || id.Blockchain != mesh.Blockchain {
		return mesh.ErrNetworkNotSupported
	}
	if id.Network != s.config.Network {
		return failure.New(
			failure.ErrInvalidNetwork,
			failure.WithMismatch("network", s.config.Network, id.Network),
		)
	}
	return nil
}

// begin opens the span and returns the function recording the outcome.
func (s *Service) begin(
	ctx context.Context,
	operation string,
) (context.Context, func(*error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(
		ctx,
		"construction."+operation,
		trace.WithAttributes(attribute.String("network", s.config.Network)),
	)
	return ctx, func(errp *error) {
		var err error
		if errp != nil {
			err = *errp
		}
		kind := ""
		if err != nil {
			kind = errorKind(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.logger.Debug(
				"construction request failed",
				"operation", operation,
				"error", err,
			)
		}
		s.metrics.observe(operation, start, kind)
		span.End()
	}
}

func errorKind(err error) string {
	var meshErr *mesh.Error
	if errors.As(err, &meshErr) {
		return "service"
	}
	return failure.KindOf(err).String()
}

func (s *Service) buildParams(deposits pparams.Deposits, ttl uint64) transaction.BuildParams {
	return transaction.BuildParams{
		Params: mapper.Params{
			NetworkID: s.networkID,
			Deposits:  deposits,
		},
		TTL: ttl,
	}
}

// Derive returns the address of the requested type for a public key.
// Enterprise addresses are derived when no type is given.
func (s *Service) Derive(
	ctx context.Context,
	req *mesh.ConstructionDeriveRequest,
) (resp *mesh.ConstructionDeriveResponse, err error) {
	_, done := s.begin(ctx, "derive")
	defer func() { done(&err) }()
	if err := s.CheckNetwork(req.Network()); err != nil {
		return nil, err
	}
	paymentKey, err := parsePublicKey(req.PublicKey)
	if err != nil {
		return nil, err
	}
	addrType := address.TypeEnterprise
	var stakingKey []byte
	if req.Metadata != nil {
		if req.Metadata.AddressType != "" {
			addrType = address.Type(req.Metadata.AddressType)
		}
		if req.Metadata.StakingCredential != nil {
			stakingKey, err = parsePublicKey(req.Metadata.StakingCredential)
			if err != nil {
				return nil, failure.New(
					failure.ErrInvalidStakingKeyFormat,
					failure.WithErr(err),
				)
			}
		}
	}
	addr, err := address.Derive(addrType, s.networkID, paymentKey, stakingKey)
	if err != nil {
		return nil, err
	}
	return &mesh.ConstructionDeriveResponse{
		AccountIdentifier: &mesh.AccountIdentifier{Address: addr.String()},
	}, nil
}

func parsePublicKey(pk *mesh.PublicKey) ([]byte, error) {
	if pk == nil {
		return nil, failure.New(
			failure.ErrInvalidPublicKeyFormat,
			failure.WithString("public_key", "missing"),
		)
	}
	if pk.CurveType != mesh.Edwards25519 {
		return nil, failure.New(
			failure.ErrInvalidPublicKeyFormat,
			failure.WithMismatch("curve_type", mesh.Edwards25519, pk.CurveType),
		)
	}
	return address.ParsePublicKey(pk.HexBytes)
}

// Preprocess estimates the signed size of the transaction the operations
// describe and returns the options for the metadata call.
func (s *Service) Preprocess(
	ctx context.Context,
	req *mesh.ConstructionPreprocessRequest,
) (resp *mesh.ConstructionPreprocessResponse, err error) {
	_, done := s.begin(ctx, "preprocess")
	defer func() { done(&err) }()
	if err := s.CheckNetwork(req.Network()); err != nil {
		return nil, err
	}
	relativeTTL := s.config.RelativeTTL
	var depositParams *pparams.DepositParameters
	if req.Metadata != nil {
		if req.Metadata.RelativeTTL != nil {
			relativeTTL = *req.Metadata.RelativeTTL
		}
		depositParams = req.Metadata.DepositParameters
	}
	// Deposits only move the fee, which is a placeholder while sizing
	deposits, err := depositParams.Resolve(pparams.Deposits{})
	if err != nil {
		return nil, err
	}
	size, err := transaction.EstimateSize(
		req.Operations,
		s.buildParams(deposits, estimateTTL),
	)
	if err != nil {
		return nil, err
	}
	signers, err := mapper.RequiredSigners(req.Operations, s.networkID)
	if err != nil {
		return nil, err
	}
	return &mesh.ConstructionPreprocessResponse{
		Options: &mesh.PreprocessOptions{
			RelativeTTL:       relativeTTL,
			TransactionSize:   uint64(size), // #nosec G115
			DepositParameters: depositParams,
		},
		RequiredPublicKeys: signers,
	}, nil
}

// Metadata resolves the TTL against the current slot and suggests the
// minimum fee for the preprocessed size.
func (s *Service) Metadata(
	ctx context.Context,
	req *mesh.ConstructionMetadataRequest,
) (resp *mesh.ConstructionMetadataResponse, err error) {
	ctx, done := s.begin(ctx, "metadata")
	defer func() { done(&err) }()
	if err := s.CheckNetwork(req.Network()); err != nil {
		return nil, err
	}
	if req.Options == nil {
		return nil, mesh.WrapErr(
			mesh.ErrInvalidRequest,
			errors.New("options are required"),
		)
	}
	params, err := s.config.ChainState.ProtocolParams(ctx)
	if err != nil {
		return nil, mesh.WrapErr(
			mesh.ErrUnavailable,
			fmt.Errorf("protocol parameters: %w", err),
		)
	}
	slot, err := s.config.ChainState.CurrentSlot(ctx)
	if err != nil {
		return nil, mesh.WrapErr(
			mesh.ErrUnavailable,
			fmt.Errorf("current slot: %w", err),
		)
	}
	relativeTTL := req.Options.RelativeTTL
	if relativeTTL == 0 {
		relativeTTL = s.config.RelativeTTL
	}
	ttl, err := pparams.TTL(slot, relativeTTL)
	if err != nil {
		return nil, err
	}
	fee, err := params.MinimumFee(req.Options.TransactionSize)
	if err != nil {
		return nil, err
	}
	return &mesh.ConstructionMetadataResponse{
		Metadata: &mesh.PayloadsMetadata{
			TTL:                strconv.FormatUint(ttl, 10),
			ProtocolParameters: params,
			DepositParameters:  req.Options.DepositParameters,
		},
		SuggestedFee: []*mesh.Amount{mesh.LovelaceAmount(fee, false)},
	}, nil
}

// Payloads builds the unsigned transaction and the payloads each required
// signer has to sign.
func (s *Service) Payloads(
	ctx context.Context,
	req *mesh.ConstructionPayloadsRequest,
) (resp *mesh.ConstructionPayloadsResponse, err error) {
	ctx, done := s.begin(ctx, "payloads")
	defer func() { done(&err) }()
	if err := s.CheckNetwork(req.Network()); err != nil {
		return nil, err
	}
	if req.Metadata == nil || req.Metadata.TTL == "" {
		return nil, mesh.WrapErr(
			mesh.ErrInvalidRequest,
			errors.New("metadata.ttl is required"),
		)
	}
	ttl, err := strconv.ParseUint(req.Metadata.TTL, 10, 64)
	if err != nil {
		return nil, mesh.WrapErr(
			mesh.ErrInvalidRequest,
			fmt.Errorf("invalid ttl: %w", err),
		)
	}
	params := req.Metadata.ProtocolParameters
	if params == nil {
		if params, err = s.config.ChainState.ProtocolParams(ctx); err != nil {
			return nil, mesh.WrapErr(
				mesh.ErrUnavailable,
				fmt.Errorf("protocol parameters: %w", err),
			)
		}
	}
	deposits, err := req.Metadata.DepositParameters.Resolve(params.Deposits())
	if err != nil {
		return nil, err
	}
	unsigned, err := transaction.Build(req.Operations, s.buildParams(deposits, ttl))
	if err != nil {
		return nil, err
	}
	return &mesh.ConstructionPayloadsResponse{
		UnsignedTransaction: unsigned.Hex,
		Payloads:            unsigned.Payloads,
	}, nil
}

// Combine attaches the signatures to the unsigned transaction.
func (s *Service) Combine(
	ctx context.Context,
	req *mesh.ConstructionCombineRequest,
) (resp *mesh.ConstructionCombineResponse, err error) {
	_, done := s.begin(ctx, "combine")
	defer func() { done(&err) }()
	if err := s.CheckNetwork(req.Network()); err != nil {
		return nil, err
	}
	signed, err := transaction.Combine(req.UnsignedTransaction, req.Signatures)
	if err != nil {
		return nil, err
	}
	return &mesh.ConstructionCombineResponse{SignedTransaction: signed}, nil
}

// Parse describes a transaction as operations. Native asset currencies
// are completed from the token registry.
func (s *Service) Parse(
	ctx context.Context,
	req *mesh.ConstructionParseRequest,
) (resp *mesh.ConstructionParseResponse, err error) {
	ctx, done := s.begin(ctx, "parse")
	defer func() { done(&err) }()
	if err := s.CheckNetwork(req.Network()); err != nil {
		return nil, err
	}
	parsed, err := transaction.Parse(req.Transaction, req.Signed, s.networkID)
	if err != nil {
		return nil, err
	}
	s.enricher.Operations(ctx, parsed.Operations)
	return &mesh.ConstructionParseResponse{
		Operations:               parsed.Operations,
		AccountIdentifierSigners: parsed.Signers,
	}, nil
}

// Hash returns the identifier of a signed transaction.
func (s *Service) Hash(
	ctx context.Context,
	req *mesh.ConstructionHashRequest,
) (resp *mesh.ConstructionHashResponse, err error) {
	_, done := s.begin(ctx, "hash")
	defer func() { done(&err) }()
	if err := s.CheckNetwork(req.Network()); err != nil {
		return nil, err
	}
	hash, err := transaction.Hash(req.SignedTransaction)
	if err != nil {
		return nil, err
	}
	return &mesh.ConstructionHashResponse{
		TransactionIdentifier: &mesh.TransactionIdentifier{Hash: hash},
	}, nil
}

// Submit forwards the signed transaction to the node and returns its
// identifier once accepted.
func (s *Service) Submit(
	ctx context.Context,
	req *mesh.ConstructionSubmitRequest,
) (resp *mesh.ConstructionSubmitResponse, err error) {
	ctx, done := s.begin(ctx, "submit")
	defer func() { done(&err) }()
	if err := s.CheckNetwork(req.Network()); err != nil {
		return nil, err
	}
	if s.config.Submitter == nil {
		return nil, mesh.WrapErr(
			mesh.ErrUnavailable,
			errors.New("no node submitter configured"),
		)
	}
	hash, err := transaction.Hash(req.SignedTransaction)
	if err != nil {
		return nil, err
	}
	raw, err := transaction.Bytes(req.SignedTransaction)
	if err != nil {
		return nil, err
	}
	if err := s.config.Submitter.Submit(ctx, raw); err != nil {
		s.metrics.submissions.WithLabelValues(submitResult(err)).Inc()
		s.logger.Warn(
			"transaction submission failed",
			"hash", hash,
			"error", err,
		)
		return nil, err
	}
	s.metrics.submissions.WithLabelValues("accepted").Inc()
	s.logger.Info("transaction submitted", "hash", hash)
	return &mesh.ConstructionSubmitResponse{
		TransactionIdentifier: &mesh.TransactionIdentifier{Hash: hash},
	}, nil
}

func submitResult(err error) string {
	var meshErr *mesh.Error
	if errors.As(err, &meshErr) && meshErr.Code == mesh.ErrTransactionRejected.Code {
		return "rejected"
	}
	return "failed"
}
