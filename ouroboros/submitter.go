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

package ouroboros

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	gouroboros "github.com/blinklabs-io/gouroboros"
	"github.com/blinklabs-io/gouroboros/ledger"
	olocaltxsubmission "github.com/blinklabs-io/gouroboros/protocol/localtxsubmission"

	"github.com/blinklabs-io/bowerbird/mesh"
)

// DefaultSubmitTimeout bounds a single submission, dial included.
const DefaultSubmitTimeout = 30 * time.Second

var ErrNoSocketPath = errors.New("node socket path not configured")

// DialFunc opens the transport to the node.
type DialFunc func(ctx context.Context) (net.Conn, error)

type SubmitterConfig struct {
	Logger       *slog.Logger
	SocketPath   string
	NetworkMagic uint32
	Timeout      time.Duration
	// Dial overrides the default unix socket dialer
	Dial DialFunc
}

// Submitter hands signed transactions to a local node over the
// node-to-client tx-submission mini-protocol. Each call uses its own
// connection.
type Submitter struct {
	config SubmitterConfig
}

func NewSubmitter(cfg SubmitterConfig) (*Submitter, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	cfg.Logger = cfg.Logger.With("component", "ouroboros")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultSubmitTimeout
	}
	if cfg.Dial == nil {
		if cfg.SocketPath == "" {
			return nil, ErrNoSocketPath
		}
		socketPath := cfg.SocketPath
		cfg.Dial = func(ctx context.Context) (net.Conn, error) {
			var dialer net.Dialer
			return dialer.DialContext(ctx, "unix", socketPath)
		}
	}
	return &Submitter{config: cfg}, nil
}

// Submit sends the raw signed transaction to the node. A rejection by the
// ledger is reported as mesh.ErrTransactionRejected; any transport problem
// is reported as the retriable mesh.ErrSubmitFailed.
func (s *Submitter) Submit(ctx context.Context, tx []byte) error {
	txType, err := ledger.DetermineTransactionType(tx)
	if err != nil {
		return mesh.WrapErr(
			mesh.ErrInvalidTransaction,
			fmt.Errorf("determine transaction era: %w", err),
		)
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()
	conn, err := s.config.Dial(ctx)
	if err != nil {
		return mesh.WrapErr(
			mesh.ErrSubmitFailed,
			fmt.Errorf("dial node: %w", err),
		)
	}
	// Unblock the handshake and protocol I/O once ctx is done
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()
	errorChan := make(chan error, 10)
	oConn, err := gouroboros.NewConnection(
		append(
			NodeToClientOpts(s.config.NetworkMagic, errorChan),
			gouroboros.WithConnection(conn),
		)...,
	)
	if err != nil {
		_ = conn.Close()
		return mesh.WrapErr(
			mesh.ErrSubmitFailed,
			fmt.Errorf("node handshake: %w", err),
		)
	}
	defer func() {
		if err := oConn.Close(); err != nil {
			s.config.Logger.Debug(
				"failed to close node connection",
				"error", err,
			)
		}
	}()
	resultChan := make(chan error, 1)
	go func() {
		resultChan <- oConn.LocalTxSubmission().Client.SubmitTx(
			uint16(txType), // #nosec G115
			tx,
		)
	}()
	select {
	case err := <-resultChan:
		return s.submitResult(txType, err)
	case err, ok := <-errorChan:
		if !ok || err == nil {
			err = errors.New("connection closed")
		}
		return mesh.WrapErr(
			mesh.ErrSubmitFailed,
			fmt.Errorf("node connection: %w", err),
		)
	case <-ctx.Done():
		return mesh.WrapErr(
			mesh.ErrSubmitFailed,
			fmt.Errorf("submit transaction: %w", ctx.Err()),
		)
	}
}

func (s *Submitter) submitResult(txType uint, err error) error {
	if err == nil {
		s.config.Logger.Debug(
			"transaction accepted by node",
			"era", txType,
		)
		return nil
	}
	if IsRejection(err) {
		s.config.Logger.Info(
			"transaction rejected by node",
			"era", txType,
			"reason", err.Error(),
		)
		return mesh.WrapErr(mesh.ErrTransactionRejected, err)
	}
	return mesh.WrapErr(
		mesh.ErrSubmitFailed,
		fmt.Errorf("submit transaction: %w", err),
	)
}

// IsRejection reports whether err is an explicit ledger rejection from
// the node.
func IsRejection(err error) bool {
	var rejectErr olocaltxsubmission.TransactionRejectedError
	if errors.As(err, &rejectErr) {
		return true
	}
	var rejectErrPtr *olocaltxsubmission.TransactionRejectedError
	return errors.As(err, &rejectErrPtr)
}
