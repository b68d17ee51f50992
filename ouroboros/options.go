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
	"fmt"

	gouroboros "github.com/blinklabs-io/gouroboros"
)

const (
	// NetworkMainnet represents the Cardano mainnet network.
	NetworkMainnet = "mainnet"
	// NetworkPreview represents the Cardano preview testnet.
	NetworkPreview = "preview"
	// NetworkPreprod represents the Cardano preprod testnet.
	NetworkPreprod = "preprod"
	// NetworkDevnet represents a local development network.
	NetworkDevnet = "devnet"
)

// NodeToClientOpts returns the connection options for a node-to-client
// session used only for local tx-submission.
func NodeToClientOpts(
	networkMagic uint32,
	errorChan chan error,
) []gouroboros.ConnectionOptionFunc {
	return []gouroboros.ConnectionOptionFunc{
		gouroboros.WithNetworkMagic(networkMagic),
		gouroboros.WithNodeToNode(false),
		gouroboros.WithKeepAlive(false),
		gouroboros.WithErrorChan(errorChan),
	}
}

// GetNetworkMagic returns the network magic for the given network name.
func GetNetworkMagic(networkName string) (uint32, error) {
	network, ok := gouroboros.NetworkByName(networkName)
	if !ok {
		return 0, fmt.Errorf("unknown network name: %s", networkName)
	}
	return network.NetworkMagic, nil
}
