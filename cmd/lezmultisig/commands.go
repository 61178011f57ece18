package main

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lez-one/lez"
	"github.com/lez-one/lez/client"
)

const version = "0.1.0"

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new signing key at the wallet path",
		RunE: func(cmd *cobra.Command, args []string) error {
			wallet, err := client.GenerateWallet(cfg.WalletPath)
			if err != nil {
				return err
			}
			return emit(map[string]interface{}{
				"account_id":  wallet.AccountID().String(),
				"wallet_path": cfg.WalletPath,
			})
		},
	}
}

func newCreateCmd() *cobra.Command {
	var (
		createKey string
		threshold uint8
		members   []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new M-of-N multisig",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			key, err := parseCreateKey(createKey)
			if err != nil {
				return err
			}
			ids := make([]lez.AccountID, len(members))
			for i, m := range members {
				if ids[i], err = lez.ParseAccountID(m); err != nil {
					return fmt.Errorf("members[%d]: %v", i, err)
				}
			}
			res, err := c.CreateMultisig(context.Background(), key, threshold, ids)
			if err != nil {
				return err
			}
			return emit(res)
		},
	}
	cmd.Flags().StringVar(&createKey, "create-key", "", "32 byte create key, 64 hex characters")
	cmd.Flags().Uint8Var(&threshold, "threshold", 0, "required number of approvals (M)")
	cmd.Flags().StringSliceVar(&members, "members", nil, "member account ids, 64 hex characters each")
	return cmd
}

func newProposeCmd() *cobra.Command {
	var (
		createKey         string
		targetProgram     string
		instructionData   string
		accountCount      uint8
		pdaSeeds          []string
		authorizedIndices []uint
	)
	cmd := &cobra.Command{
		Use:   "propose",
		Short: "Propose an action to the multisig",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			key, err := parseCreateKey(createKey)
			if err != nil {
				return err
			}
			program, err := lez.ParseProgramID(targetProgram)
			if err != nil {
				return fmt.Errorf("invalid target program id: %v", err)
			}
			data, err := hex.DecodeString(instructionData)
			if err != nil {
				return fmt.Errorf("target instruction data is not hex: %v", err)
			}
			seeds := make([][lez.IdentitySize]byte, len(pdaSeeds))
			for i, s := range pdaSeeds {
				if seeds[i], err = parseCreateKey(s); err != nil {
					return fmt.Errorf("pda_seeds[%d]: %v", i, err)
				}
			}
			indices := make([]uint8, len(authorizedIndices))
			for i, idx := range authorizedIndices {
				if idx > 255 {
					return fmt.Errorf("authorized_indices[%d] out of range", i)
				}
				indices[i] = uint8(idx)
			}
			res, err := c.Propose(context.Background(), key, client.ProposalTarget{
				Program:           program,
				InstructionData:   data,
				AccountCount:      accountCount,
				PDASeeds:          seeds,
				AuthorizedIndices: indices,
			})
			if err != nil {
				return err
			}
			return emit(res)
		},
	}
	cmd.Flags().StringVar(&createKey, "create-key", "", "create key of the multisig")
	cmd.Flags().StringVar(&targetProgram, "target-program-id", "", "program the proposal will call")
	cmd.Flags().StringVar(&instructionData, "target-instruction-data", "", "hex encoded payload for the target program")
	cmd.Flags().Uint8Var(&accountCount, "target-account-count", 0, "number of target accounts at execute time")
	cmd.Flags().StringSliceVar(&pdaSeeds, "pda-seeds", nil, "seeds for derived addresses of the chained call")
	cmd.Flags().UintSliceVar(&authorizedIndices, "authorized-indices", nil, "member indices allowed to vote")
	return cmd
}

func newVoteCmd(action, short string) *cobra.Command {
	var (
		createKey string
		index     uint64
	)
	cmd := &cobra.Command{
		Use:   action,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			key, err := parseCreateKey(createKey)
			if err != nil {
				return err
			}
			var res *client.VoteResult
			if action == "approve" {
				res, err = c.Approve(context.Background(), key, index)
			} else {
				res, err = c.Reject(context.Background(), key, index)
			}
			if err != nil {
				return err
			}
			return emit(res)
		},
	}
	cmd.Flags().StringVar(&createKey, "create-key", "", "create key of the multisig")
	cmd.Flags().Uint64Var(&index, "proposal-index", 0, "index of the proposal")
	return cmd
}

func newExecuteCmd() *cobra.Command {
	var (
		createKey string
		index     uint64
	)
	cmd := &cobra.Command{
		Use:   "execute",
		Short: "Execute an approved proposal",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			key, err := parseCreateKey(createKey)
			if err != nil {
				return err
			}
			res, err := c.Execute(context.Background(), key, index)
			if err != nil {
				return err
			}
			return emit(res)
		},
	}
	cmd.Flags().StringVar(&createKey, "create-key", "", "create key of the multisig")
	cmd.Flags().Uint64Var(&index, "proposal-index", 0, "index of the proposal")
	return cmd
}

func newListProposalsCmd() *cobra.Command {
	var createKey string
	cmd := &cobra.Command{
		Use:   "list-proposals",
		Short: "List all proposals of a multisig",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			key, err := parseCreateKey(createKey)
			if err != nil {
				return err
			}
			res, err := c.ListProposals(context.Background(), key)
			if err != nil {
				return err
			}
			return emit(res)
		},
	}
	cmd.Flags().StringVar(&createKey, "create-key", "", "create key of the multisig")
	return cmd
}

func newGetStateCmd() *cobra.Command {
	var createKey string
	cmd := &cobra.Command{
		Use:   "get-state",
		Short: "Show the current state of a multisig",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			key, err := parseCreateKey(createKey)
			if err != nil {
				return err
			}
			res, err := c.GetState(context.Background(), key)
			if err != nil {
				return err
			}
			return emit(res)
		},
	}
	cmd.Flags().StringVar(&createKey, "create-key", "", "create key of the multisig")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return emit(map[string]interface{}{"version": version})
		},
	}
}

func parseCreateKey(s string) ([lez.IdentitySize]byte, error) {
	id, err := lez.ParseAccountID(s)
	if err != nil {
		return [lez.IdentitySize]byte{}, fmt.Errorf("invalid create key: %v", err)
	}
	return [lez.IdentitySize]byte(id), nil
}
