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

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blinklabs-io/bowerbird/address"
	"github.com/blinklabs-io/bowerbird/internal/version"
	"github.com/blinklabs-io/bowerbird/transaction"
)

func deriveCommand() *cobra.Command {
	var publicKey, stakingKey, addrType string
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive an address from public keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFromCommand(cmd)
			paymentKey, err := address.ParsePublicKey(publicKey)
			if err != nil {
				return fmt.Errorf("public key: %w", err)
			}
			var stakeKey []byte
			if stakingKey != "" {
				stakeKey, err = address.ParsePublicKey(stakingKey)
				if err != nil {
					return fmt.Errorf("staking key: %w", err)
				}
			}
			addr, err := address.Derive(
				address.Type(addrType),
				address.NetworkID(cfg.Network),
				paymentKey,
				stakeKey,
			)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), addr.String())
			return err
		},
	}
	cmd.Flags().StringVar(&publicKey, "public-key", "", "hex ed25519 payment public key")
	cmd.Flags().StringVar(&stakingKey, "staking-key", "", "hex ed25519 staking public key")
	cmd.Flags().StringVar(
		&addrType,
		"type",
		string(address.TypeEnterprise),
		"address type: Enterprise, Base or Reward",
	)
	_ = cmd.MarkFlagRequired("public-key")
	return cmd
}

func hashCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash [signed-transaction|-]",
		Short: "Print the id of a signed transaction",
		Long:  "Print the id of a signed transaction. Pass - to read the hex transaction from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			signedTx := args[0]
			if signedTx == "-" {
				buf, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read transaction: %w", err)
				}
				signedTx = string(buf)
			}
			signedTx = strings.TrimSpace(signedTx)
			if signedTx == "" {
				return errors.New("empty transaction")
			}
			hash, err := transaction.Hash(signedTx)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
	return cmd
}

func versionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(
				cmd.OutOrStdout(),
				"%s %s\n",
				programName,
				version.GetVersionString(),
			)
			return err
		},
	}
	return cmd
}
