package cli

import (
	"fmt"

	"simple-ledger-go/archive"
	"simple-ledger-go/blockchain"
	"simple-ledger-go/client"
	"simple-ledger-go/common"
	"simple-ledger-go/config"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func snapshotCmd() *cobra.Command {
	var node, out string
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Fetch a node's chain, validate it and write it to a bbolt file",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := bindFlags(cmd.Flags(), map[string]string{
				"difficulty":     config.KEY_DIFFICULTY,
				"hash-algorithm": config.KEY_HASH_ALGORITHM,
			})
			if err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			chain, err := client.NewClient(0).FetchChain(cmd.Context(), node)
			if err != nil {
				return err
			}
			if _, err := blockchain.ValidateChain(chain, cfg.Difficulty, cfg.Algorithm()); err != nil {
				return fmt.Errorf("refusing to archive %s: %w", node, err)
			}

			a, err := archive.Open(out)
			if err != nil {
				return err
			}
			defer a.Close()
			meta := archive.Meta{Algorithm: cfg.Algorithm(), Difficulty: cfg.Difficulty}
			if err := a.WriteChain(chain, meta); err != nil {
				return err
			}
			pterm.Success.Printfln("archived %d blocks from %s to %s", len(chain), node, out)
			return nil
		},
	}
	addNodeFlag(cmd, &node)
	cmd.Flags().StringVarP(&out, "out", "f", "ledger_snapshot.db", "archive file")
	cmd.Flags().Int("difficulty", 4, "network difficulty")
	cmd.Flags().String("hash-algorithm", "sha256", "network hash algorithm")
	return cmd
}

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify FILE",
		Short: "Validate a chain archive offline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !common.ExistFile(args[0]) {
				return fmt.Errorf("no archive at %s", args[0])
			}
			a, err := archive.Open(args[0])
			if err != nil {
				return err
			}
			defer a.Close()

			length, err := a.Verify()
			if err != nil {
				return err
			}
			meta, _ := a.GetMeta()
			pterm.Success.Printfln("%s holds a valid chain of %d blocks (%s, difficulty %d)",
				args[0], length, meta.Algorithm, meta.Difficulty)
			return nil
		},
	}
}
