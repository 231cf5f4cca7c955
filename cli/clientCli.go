package cli

import (
	"fmt"
	"strings"

	"simple-ledger-go/api"
	"simple-ledger-go/client"
	"simple-ledger-go/common"
	"simple-ledger-go/transactions"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

const DEFAULT_NODE = "127.0.0.1:5000"

func addNodeFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "node", "n", DEFAULT_NODE, "node HTTP address")
}

func chainCmd() *cobra.Command {
	var node, output string
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Print a node's full chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.NewClient(0).Chain(cmd.Context(), node)
			if err != nil {
				return err
			}
			out, err := renderChain(resp, output)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	addNodeFlag(cmd, &node)
	cmd.Flags().StringVarP(&output, "output", "o", "json", "json or yaml")
	return cmd
}

func renderChain(resp *api.ChainResponse, output string) ([]byte, error) {
	switch strings.ToLower(output) {
	case "json":
		return common.Encode(resp)
	case "yaml", "yml":
		return yaml.Marshal(struct {
			Chain  interface{} `yaml:"chain"`
			Length int         `yaml:"length"`
		}{resp.Chain, resp.Length})
	default:
		return nil, fmt.Errorf("unknown output format %q", output)
	}
}

func mineCmd() *cobra.Command {
	var node string
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "Ask a node to forge the next block",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.NewClient(0).Mine(cmd.Context(), node)
			if err != nil {
				return err
			}
			pterm.Success.Printfln("%s: block %d, proof %d, %d transactions",
				resp.Message, resp.Index, resp.Proof, len(resp.Transactions))
			return nil
		},
	}
	addNodeFlag(cmd, &node)
	return cmd
}

func sendCmd() *cobra.Command {
	var node, sender, recipient string
	var amount float64
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Submit a transaction to a node",
		RunE: func(cmd *cobra.Command, args []string) error {
			tx := transactions.Transaction{Sender: sender, Recipient: recipient, Amount: amount}
			resp, err := client.NewClient(0).SendTransaction(cmd.Context(), node, tx)
			if err != nil {
				return err
			}
			pterm.Success.Println(resp.Message)
			return nil
		},
	}
	addNodeFlag(cmd, &node)
	cmd.Flags().StringVar(&sender, "sender", "", "sender address")
	cmd.Flags().StringVar(&recipient, "recipient", "", "recipient address")
	cmd.Flags().Float64Var(&amount, "amount", 0, "amount to transfer")
	cmd.MarkFlagRequired("sender")
	cmd.MarkFlagRequired("recipient")
	cmd.MarkFlagRequired("amount")
	return cmd
}

func registerCmd() *cobra.Command {
	var node string
	cmd := &cobra.Command{
		Use:   "register PEER...",
		Short: "Tell a node about its peers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.NewClient(0).RegisterPeers(cmd.Context(), node, args)
			if err != nil {
				return err
			}
			pterm.Success.Printfln("%s, total nodes: %s", resp.Message, strings.Join(resp.TotalNodes, ", "))
			return nil
		},
	}
	addNodeFlag(cmd, &node)
	return cmd
}

func resolveCmd() *cobra.Command {
	var node string
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Run consensus on a node against its peers",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.NewClient(0).Resolve(cmd.Context(), node)
			if err != nil {
				return err
			}
			length := len(resp.Chain)
			if resp.Replaced() {
				length = len(resp.NewChain)
			}
			pterm.Info.Printfln("%s (length %d)", resp.Message, length)
			return nil
		},
	}
	addNodeFlag(cmd, &node)
	return cmd
}

func statusCmd() *cobra.Command {
	var node string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether a node is up and how long its chain is",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.NewClient(0).Health(cmd.Context(), node)
			if err != nil {
				return err
			}
			pterm.Info.Printfln("node %s is %s, chain length %d", resp.NodeID, resp.Status, resp.Length)
			return nil
		},
	}
	addNodeFlag(cmd, &node)
	return cmd
}
