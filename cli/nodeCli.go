package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"simple-ledger-go/config"
	"simple-ledger-go/nodes"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func nodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Run a ledger node (HTTP API and peer broadcast listener)",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := bindFlags(cmd.Flags(), map[string]string{
				"host":           config.KEY_HOST,
				"port":           config.KEY_HTTP_PORT,
				"p2p-port":       config.KEY_P2P_PORT,
				"difficulty":     config.KEY_DIFFICULTY,
				"hash-algorithm": config.KEY_HASH_ALGORITHM,
				"peer":           config.KEY_PEERS,
				"auto-mine":      config.KEY_AUTO_MINE_INTERVAL,
				"node-id":        config.KEY_NODE_ID,
			})
			if err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			n, err := nodes.NewLedgerNode(cfg)
			if err != nil {
				return err
			}
			pterm.Info.Printfln("node %s serving http on %s, peers on %s",
				cfg.NodeID, cfg.HTTPAddress(), cfg.P2PAddress())

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return n.Run(ctx)
		},
	}

	fs := cmd.Flags()
	fs.String("host", "127.0.0.1", "address to listen on")
	fs.IntP("port", "p", 5000, "HTTP API port")
	fs.Int("p2p-port", 0, "peer broadcast port (default port + p2p_port_offset)")
	fs.Int("difficulty", 4, "leading zero hex digits a proof must produce")
	fs.String("hash-algorithm", "sha256", "sha256, sha3-256 or blake3")
	fs.StringSlice("peer", nil, "peer HTTP address, repeatable")
	fs.Duration("auto-mine", 0, "mine every interval, 0 disables")
	fs.String("node-id", "", "reward recipient id (default random)")
	return cmd
}
