package nodes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"simple-ledger-go/api"
	"simple-ledger-go/blockchain"
	"simple-ledger-go/blocks"
	"simple-ledger-go/client"
	"simple-ledger-go/common"
	"simple-ledger-go/config"
	"simple-ledger-go/consensus"
	"simple-ledger-go/epoch"
	"simple-ledger-go/p2p"
	"simple-ledger-go/peers"
	"simple-ledger-go/transactions"
)

type LedgerNode struct {
	Node
	chain       *blockchain.Blockchain
	resolver    *consensus.Resolver
	api         *api.Server
	httpAddress string
	autoMine    time.Duration
}

func NewLedgerNode(cfg *config.Config) (*LedgerNode, error) {
	opts := blockchain.Options{
		Difficulty: cfg.Difficulty,
		Algorithm:  cfg.Algorithm(),
		Reward:     cfg.MiningReward,
		Now:        time.Now,
	}
	bc := blockchain.NewBlockchain(cfg.NodeID, opts)
	known := peers.NewKnownNodes(cfg.HTTPAddress())

	n := LedgerNode{
		Node: Node{
			id:         cfg.NodeID,
			address:    cfg.P2PAddress(),
			offset:     cfg.P2PPortOffset,
			knownNodes: known,
			seen:       p2p.NewSeenSet(p2p.DEFAULT_SEEN_CAPACITY),
		},
		chain:       bc,
		resolver:    consensus.NewResolver(bc, known, client.NewClient(client.DEFAULT_TIMEOUT)),
		httpAddress: cfg.HTTPAddress(),
		autoMine:    cfg.AutoMineInterval,
	}
	n.api = api.NewServer(&n, n.httpAddress)

	if len(cfg.Peers) > 0 {
		if _, err := n.RegisterPeers(cfg.Peers); err != nil {
			return nil, err
		}
	}
	return &n, nil
}

func (n *LedgerNode) Blockchain() *blockchain.Blockchain {
	return n.chain
}

// Run serves the HTTP API and the P2P listener, and drives the auto-miner
// when configured, until ctx ends or either server fails.
func (n *LedgerNode) Run(ctx context.Context) error {
	listener, err := net.Listen(p2p.TCP, n.address)
	if err != nil {
		return err
	}
	return n.run(ctx, listener)
}

func (n *LedgerNode) run(ctx context.Context, listener net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	slog.Info("ledger node is listening",
		"node_id", n.id, "http", n.httpAddress, "p2p", listener.Addr().String(),
		"peers", n.knownNodes.Len())

	errCh := make(chan error, 2)
	go func() { errCh <- n.api.Run(ctx) }()
	go func() { errCh <- n.serve(ctx, listener, n.handleMessage) }()

	if n.autoMine > 0 {
		e := epoch.NewEpoch(func() { n.autoMineOnce(ctx) })
		go e.StartEpochRoutine()
		go e.Drive(ctx, n.autoMine)
		slog.Info("auto-mining", "interval", n.autoMine.String())
	}

	first := <-errCh
	cancel()
	second := <-errCh
	if first != nil {
		return first
	}
	return second
}

func (n *LedgerNode) autoMineOnce(ctx context.Context) {
	_, err := n.Mine(ctx)
	switch {
	case err == nil:
	case errors.Is(err, blockchain.ErrStaleMining):
		slog.Info("tip moved while mining, retrying next tick")
	case ctx.Err() != nil:
	default:
		slog.Error("auto-mining failed", "err", err)
	}
}

func (n *LedgerNode) ID() string {
	return n.id
}

func (n *LedgerNode) Chain() []blocks.Block {
	return n.chain.Blocks()
}

// Mine forges a block and announces it to every known peer.
func (n *LedgerNode) Mine(ctx context.Context) (*blocks.Block, error) {
	block, err := n.chain.Mine(ctx)
	if err != nil {
		return nil, err
	}

	id := p2p.NewMessageId()
	n.seen.Mark(id)
	n.broadcast(p2p.NEW_BLOCK_MSG, p2p.NewBlockMsg{
		From:  n.address,
		Id:    id,
		Block: *block,
	})
	return block, nil
}

func (n *LedgerNode) SubmitTransaction(tx transactions.Transaction) int64 {
	index := n.chain.AddTransaction(tx)

	id := p2p.NewMessageId()
	n.seen.Mark(id)
	n.broadcast(p2p.NEW_TX_MSG, p2p.NewTransactionMsg{
		From:        n.address,
		Id:          id,
		Transaction: tx,
	})
	return index
}

// RegisterPeers adds every address or none of them.
func (n *LedgerNode) RegisterPeers(addresses []string) ([]string, error) {
	for _, a := range addresses {
		if _, err := peers.ParseAddress(a); err != nil {
			return nil, err
		}
	}
	for _, a := range addresses {
		added, _ := n.knownNodes.Register(a)
		if added {
			slog.Info("registered peer", "peer", a)
		}
	}
	return n.knownNodes.Addresses(), nil
}

func (n *LedgerNode) Resolve(ctx context.Context) consensus.Result {
	return n.resolver.ResolveConflicts(ctx)
}

func (n *LedgerNode) handleMessage(raw []byte) {
	kind, body, err := p2p.SplitPayload(raw)
	if err != nil {
		slog.Warn("dropping message", "err", err)
		return
	}
	slog.Debug("received msg", "kind", kind.ToString())

	switch kind {
	case p2p.NEW_BLOCK_MSG:
		err = n.handleNewBlock(body)
	case p2p.NEW_TX_MSG:
		err = n.handleNewTransaction(body)
	case p2p.REQUEST_CHAIN_MSG:
		err = n.handleRequestChain(body)
	case p2p.RESPOND_CHAIN_MSG:
		err = n.handleRespondChain(body)
	default:
		slog.Warn("unknown message skipping", "kind", byte(kind))
	}
	if err != nil {
		slog.Warn("handling message failed", "kind", kind.ToString(), "err", err)
	}
}

// A rejected block whose index reaches past our tip means the sender may
// hold a longer chain, so its full chain is requested.
func (n *LedgerNode) handleNewBlock(raw []byte) error {
	msg, err := common.Decode[p2p.NewBlockMsg](raw)
	if err != nil {
		return err
	}
	if !n.seen.Mark(msg.Id) {
		return nil
	}

	err = n.chain.AcceptExternalBlock(msg.Block)
	if err == nil {
		return nil
	}
	if !errors.Is(err, blockchain.ErrChainExtensionRejected) {
		return err
	}

	slog.Info("peer block does not extend tip", "peer", msg.From, "err", err)
	if msg.Block.Index < int64(n.chain.Len()) {
		return nil
	}
	return n.sendMessage(msg.From, p2p.REQUEST_CHAIN_MSG, p2p.RequestChainMsg{
		From: n.address,
	})
}

func (n *LedgerNode) handleNewTransaction(raw []byte) error {
	msg, err := common.Decode[p2p.NewTransactionMsg](raw)
	if err != nil {
		return err
	}
	if !n.seen.Mark(msg.Id) {
		return nil
	}

	n.chain.AddTransaction(msg.Transaction)
	n.broadcast(p2p.NEW_TX_MSG, p2p.NewTransactionMsg{
		From:        n.address,
		Id:          msg.Id,
		Transaction: msg.Transaction,
	})
	return nil
}

func (n *LedgerNode) handleRequestChain(raw []byte) error {
	msg, err := common.Decode[p2p.RequestChainMsg](raw)
	if err != nil {
		return err
	}
	chain := n.chain.Blocks()
	return n.sendMessage(msg.From, p2p.RESPOND_CHAIN_MSG, p2p.RespondChainMsg{
		From:   n.address,
		Chain:  chain,
		Length: len(chain),
	})
}

func (n *LedgerNode) handleRespondChain(raw []byte) error {
	msg, err := common.Decode[p2p.RespondChainMsg](raw)
	if err != nil {
		return err
	}
	if msg.Length != len(msg.Chain) {
		return fmt.Errorf("peer %s reported length %d with %d blocks", msg.From, msg.Length, len(msg.Chain))
	}

	result := consensus.Resolve(n.chain, []consensus.PeerChain{
		{Peer: msg.From, Chain: msg.Chain},
	})
	slog.Info("resolved against peer chain",
		"peer", msg.From, "replaced", result.Replaced, "length", result.Length)
	return nil
}
