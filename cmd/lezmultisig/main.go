// Command lezmultisig drives an on-chain multisig from the terminal. Every
// subcommand prints a single JSON document on stdout, so the output can be
// consumed by scripts as well as humans.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	log "github.com/helinwang/log15"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/lez-one/lez"
	"github.com/lez-one/lez/client"
)

// Config carries the connection settings shared by all subcommands. Every
// field can come from the environment (LEZ_ prefix) and be overridden by a
// flag.
type Config struct {
	SequencerURL string `envconfig:"SEQUENCER_URL" default:"http://127.0.0.1:3040"`
	WalletPath   string `envconfig:"WALLET_PATH" default:"wallet.key"`
	ProgramID    string `envconfig:"PROGRAM_ID"`
	Debug        bool   `envconfig:"DEBUG"`
}

var cfg Config

func main() {
	if err := envconfig.Process("lez", &cfg); err != nil {
		fail(err)
	}

	root := &cobra.Command{
		Use:           "lezmultisig",
		Short:         "Operate an M-of-N multisig account",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfg.SequencerURL, "sequencer-url", cfg.SequencerURL, "base URL of the sequencer")
	root.PersistentFlags().StringVar(&cfg.WalletPath, "wallet-path", cfg.WalletPath, "path to the signing key file")
	root.PersistentFlags().StringVar(&cfg.ProgramID, "program-id", cfg.ProgramID, "multisig program id, 64 hex characters")
	root.PersistentFlags().BoolVar(&cfg.Debug, "debug", cfg.Debug, "log requests and responses")

	root.AddCommand(
		newKeygenCmd(),
		newCreateCmd(),
		newProposeCmd(),
		newVoteCmd("approve", "Approve a proposal"),
		newVoteCmd("reject", "Reject a proposal"),
		newExecuteCmd(),
		newListProposalsCmd(),
		newGetStateCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		fail(err)
	}
}

// newClient assembles the sequencer connection and wallet for a mutating or
// reading command.
func newClient() (*client.Client, error) {
	program, err := lez.ParseProgramID(cfg.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("invalid program id: %v", err)
	}
	wallet, err := client.LoadWallet(cfg.WalletPath)
	if err != nil {
		return nil, err
	}
	if cfg.Debug {
		log.Root().SetHandler(log.StderrHandler)
	} else {
		log.Root().SetHandler(log.DiscardHandler())
	}
	seq := client.NewHTTPSequencer(cfg.SequencerURL, cfg.Debug)
	return client.NewClient(seq, wallet, program), nil
}

// emit prints the payload with "success": true folded in.
func emit(payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	doc := make(map[string]interface{})
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	doc["success"] = true
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// fail prints the uniform error envelope and exits non-zero.
func fail(err error) {
	doc := map[string]interface{}{
		"success": false,
		"error":   err.Error(),
	}
	out, _ := json.Marshal(doc)
	fmt.Println(string(out))
	os.Exit(1)
}
