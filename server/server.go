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

// Package server exposes the construction service over the Mesh HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/blinklabs-io/bowerbird/mesh"
)

const (
	// rosettaVersion is pinned to 1.4.15 for
	// compatibility with existing Mesh/Rosetta tooling
	// (mesh-cli, exchanges).
	rosettaVersion    = "1.4.15"
	defaultListenAddr = ":8080"
	maxRequestBody    = 1 << 20 // 1 MB
)

// ConstructionAPI is the set of operations served by the Mesh endpoints.
type ConstructionAPI interface {
	NetworkIdentifier() *mesh.NetworkIdentifier
	CheckNetwork(id *mesh.NetworkIdentifier) error
	Derive(ctx context.Context, req *mesh.ConstructionDeriveRequest) (*mesh.ConstructionDeriveResponse, error)
	Preprocess(ctx context.Context, req *mesh.ConstructionPreprocessRequest) (*mesh.ConstructionPreprocessResponse, error)
	Metadata(ctx context.Context, req *mesh.ConstructionMetadataRequest) (*mesh.ConstructionMetadataResponse, error)
	Payloads(ctx context.Context, req *mesh.ConstructionPayloadsRequest) (*mesh.ConstructionPayloadsResponse, error)
	Combine(ctx context.Context, req *mesh.ConstructionCombineRequest) (*mesh.ConstructionCombineResponse, error)
	Parse(ctx context.Context, req *mesh.ConstructionParseRequest) (*mesh.ConstructionParseResponse, error)
	Hash(ctx context.Context, req *mesh.ConstructionHashRequest) (*mesh.ConstructionHashResponse, error)
	Submit(ctx context.Context, req *mesh.ConstructionSubmitRequest) (*mesh.ConstructionSubmitResponse, error)
}

// ServerConfig holds configuration for the Mesh API server.
type ServerConfig struct {
	Logger        *slog.Logger
	Construction  ConstructionAPI
	ListenAddress string
	// TLS is enabled when both paths are set
	TLSCertFilePath string
	TLSKeyFilePath  string
}

// Server is the Mesh-compatible REST API server.
type Server struct {
	config     ServerConfig
	logger     *slog.Logger
	validate   *validator.Validate
	handler    http.Handler
	httpServer *http.Server
	listenAddr net.Addr
	mu         sync.Mutex
}

// NewServer creates a new Mesh API server instance.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Construction == nil {
		return nil, errors.New(
			"server: Construction is required",
		)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = defaultListenAddr
	}
	s := &Server{
		config:   cfg,
		logger:   cfg.Logger.With("component", "server"),
		validate: newRequestValidator(),
	}
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	s.handler = mux
	return s, nil
}

// Handler returns the HTTP handler serving the Mesh endpoints.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the address the server listens on, or nil when stopped.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listenAddr
}

// Start starts the HTTP server in a background goroutine.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.httpServer != nil {
		s.mu.Unlock()
		return errors.New("server already started")
	}

	server := &http.Server{
		Addr:              s.config.ListenAddress,
		Handler:           s.handler,
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.httpServer = server

	// Launch context monitor before unlocking so there
	// is no window where Stop() could race with the
	// goroutine not yet existing.
	go func() {
		<-ctx.Done()
		s.mu.Lock()
		srv := s.httpServer
		s.httpServer = nil
		s.listenAddr = nil
		s.mu.Unlock()

		if srv != nil {
			s.logger.Debug(
				"context cancelled, shutting down " +
					"Mesh API server",
			)
			//nolint:contextcheck
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				30*time.Second,
			)
			defer cancel()
			//nolint:contextcheck
			if err := srv.Shutdown(
				shutdownCtx,
			); err != nil {
				s.logger.Error(
					"failed to shutdown Mesh API "+
						"server on context "+
						"cancellation",
					"error", err,
				)
			}
		}
	}()

	s.mu.Unlock()

	ln, err := s.startServer(server)
	if err != nil {
		s.mu.Lock()
		s.httpServer = nil
		s.mu.Unlock()
		return err
	}
	s.mu.Lock()
	s.listenAddr = ln.Addr()
	s.mu.Unlock()

	s.logger.Info(
		"Mesh API listener started on " +
			ln.Addr().String(),
	)

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.listenAddr = nil
	s.mu.Unlock()

	if srv != nil {
		s.logger.Debug("shutting down Mesh API server")
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf(
				"failed to shutdown Mesh API server: %w",
				err,
			)
		}
	}
	return nil
}

// startServer starts the HTTP server with deterministic
// error detection.
func (s *Server) startServer(
	server *http.Server,
) (net.Listener, error) {
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to listen for Mesh API server: %w",
			err,
		)
	}
	go func() {
		var err error
		if s.config.TLSCertFilePath != "" && s.config.TLSKeyFilePath != "" {
			err = server.ServeTLS(
				ln,
				s.config.TLSCertFilePath,
				s.config.TLSKeyFilePath,
			)
		} else {
			err = server.Serve(ln)
		}
		if err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(
				"Mesh API server error",
				"error", err,
			)
		}
	}()
	return ln, nil
}

// registerRoutes registers all Mesh API endpoints.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	construction := s.config.Construction

	// Network API
	mux.HandleFunc(
		"POST /network/list",
		s.handleNetworkList,
	)
	mux.HandleFunc(
		"POST /network/options",
		s.handleNetworkOptions,
	)

	// Construction API
	mux.HandleFunc(
		"POST /construction/derive",
		handle(s, construction.Derive),
	)
	mux.HandleFunc(
		"POST /construction/preprocess",
		handle(s, construction.Preprocess),
	)
	mux.HandleFunc(
		"POST /construction/metadata",
		handle(s, construction.Metadata),
	)
	mux.HandleFunc(
		"POST /construction/payloads",
		handle(s, construction.Payloads),
	)
	mux.HandleFunc(
		"POST /construction/combine",
		handle(s, construction.Combine),
	)
	mux.HandleFunc(
		"POST /construction/parse",
		handle(s, construction.Parse),
	)
	mux.HandleFunc(
		"POST /construction/hash",
		handle(s, construction.Hash),
	)
	mux.HandleFunc(
		"POST /construction/submit",
		handle(s, construction.Submit),
	)
}

// handle decodes and validates the request, calls the operation and
// writes its response or error.
func handle[Req any, Resp any](
	s *Server,
	operation func(context.Context, *Req) (*Resp, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := new(Req)
		if meshErr := s.decodeAndValidate(w, r, req); meshErr != nil {
			writeError(w, meshErr)
			return
		}
		resp, err := operation(r.Context(), req)
		if err != nil {
			s.writeOperationError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// decodeAndValidate decodes a JSON request body and
// validates it. Returns a non-nil *mesh.Error if decoding
// or validation fails.
func (s *Server) decodeAndValidate(
	w http.ResponseWriter,
	r *http.Request,
	dst any,
) *mesh.Error {
	if err := decodeRequest(w, r, dst); err != nil {
		return mesh.WrapErr(mesh.ErrInvalidRequest, err)
	}
	if err := s.validateRequest(dst); err != nil {
		return mesh.WrapErr(mesh.ErrInvalidRequest, err)
	}
	return nil
}

func (s *Server) writeOperationError(
	w http.ResponseWriter,
	r *http.Request,
	err error,
) {
	meshErr := mesh.ErrorFrom(err)
	s.logger.Debug(
		"request failed",
		"path", r.URL.Path,
		"code", meshErr.Code,
		"error", err,
	)
	writeError(w, meshErr)
}

// writeJSON writes a JSON response.
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error(
			"failed to encode JSON response",
			"error", err,
		)
	}
}

// writeError writes a Mesh error response. Mesh reports every error
// with status 500 and the error object as body.
func writeError(w http.ResponseWriter, meshErr *mesh.Error) {
	writeJSON(w, http.StatusInternalServerError, meshErr)
}

// decodeRequest decodes a JSON request body into dst.
// Unknown fields are rejected.
func decodeRequest(
	w http.ResponseWriter,
	r *http.Request,
	dst any,
) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer body.Close()
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if decoder.More() {
		return errors.New("unexpected data after request body")
	}
	return nil
}
