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
	"net/http"

	"github.com/blinklabs-io/bowerbird/internal/version"
	"github.com/blinklabs-io/bowerbird/mesh"
)

// nodeVersion is the Cardano node version the submitter speaks to.
const nodeVersion = "10.5.1"

// handleNetworkList handles POST /network/list.
func (s *Server) handleNetworkList(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req mesh.MetadataRequest
	if meshErr := s.decodeAndValidate(
		w, r, &req,
	); meshErr != nil {
		writeError(w, meshErr)
		return
	}

	resp := &mesh.NetworkListResponse{
		NetworkIdentifiers: []*mesh.NetworkIdentifier{
			s.config.Construction.NetworkIdentifier(),
		},
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleNetworkOptions handles POST /network/options.
func (s *Server) handleNetworkOptions(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req mesh.NetworkRequest
	if meshErr := s.decodeAndValidate(
		w, r, &req,
	); meshErr != nil {
		writeError(w, meshErr)
		return
	}
	if err := s.config.Construction.CheckNetwork(
		req.Network(),
	); err != nil {
		s.writeOperationError(w, r, err)
		return
	}

	middlewareVersion := version.GetVersionString()
	resp := &mesh.NetworkOptionsResponse{
		Version: &mesh.Version{
			RosettaVersion:    rosettaVersion,
			NodeVersion:       nodeVersion,
			MiddlewareVersion: &middlewareVersion,
		},
		Allow: &mesh.Allow{
			OperationStatuses:       mesh.OperationStatuses(),
			OperationTypes:          mesh.OperationTypes(),
			Errors:                  mesh.AllErrors(),
			HistoricalBalanceLookup: false,
			MempoolCoins:            false,
		},
	}
	writeJSON(w, http.StatusOK, resp)
}
