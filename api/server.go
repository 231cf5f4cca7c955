package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"simple-ledger-go/blockchain"
	"simple-ledger-go/blocks"
	"simple-ledger-go/common"
	"simple-ledger-go/consensus"
	"simple-ledger-go/transactions"

	"github.com/gorilla/mux"
)

const (
	READ_TIMEOUT     = 10 * time.Second
	SHUTDOWN_TIMEOUT = 5 * time.Second
)

// Node is what the HTTP surface needs from a running ledger node.
type Node interface {
	ID() string
	Mine(ctx context.Context) (*blocks.Block, error)
	SubmitTransaction(tx transactions.Transaction) int64
	Chain() []blocks.Block
	RegisterPeers(addresses []string) ([]string, error)
	Resolve(ctx context.Context) consensus.Result
}

type Server struct {
	node   Node
	router *mux.Router
	server *http.Server
}

func NewServer(node Node, address string) *Server {
	s := Server{
		node:   node,
		router: mux.NewRouter(),
	}
	s.registerRoutes()
	s.server = &http.Server{
		Addr:              address,
		Handler:           s.router,
		ReadHeaderTimeout: READ_TIMEOUT,
		ReadTimeout:       READ_TIMEOUT,
	}
	return &s
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/mine", s.handleMine).Methods(http.MethodGet)
	s.router.HandleFunc("/transactions/new", s.handleNewTransaction).Methods(http.MethodPost)
	s.router.HandleFunc("/chain", s.handleChain).Methods(http.MethodGet)
	s.router.HandleFunc("/nodes/register", s.handleRegisterNodes).Methods(http.MethodPost)
	s.router.HandleFunc("/nodes/resolve", s.handleResolve).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http api is listening", "address", s.server.Addr)
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), SHUTDOWN_TIMEOUT)
	defer cancel()
	err := s.server.Shutdown(shutdownCtx)
	if errors.Is(<-errCh, http.ErrServerClosed) && err == nil {
		slog.Info("http api stopped")
	}
	return err
}

func (s *Server) handleMine(w http.ResponseWriter, r *http.Request) {
	block, err := s.node.Mine(r.Context())
	switch {
	case errors.Is(err, blockchain.ErrStaleMining):
		writeError(w, http.StatusConflict, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, MineResponse{
		Message:      MINED_MSG,
		Index:        block.Index,
		Transactions: block.Transactions,
		Proof:        block.Proof,
		PreviousHash: block.PreviousHash,
	})
}

func (s *Server) handleNewTransaction(w http.ResponseWriter, r *http.Request) {
	req, err := common.Decode[transactions.Request](readBody(r))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", transactions.ErrMalformedTransaction, err))
		return
	}
	tx, err := req.Transaction()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	index := s.node.SubmitTransaction(tx)
	writeJSON(w, http.StatusCreated, TransactionResponse{
		Message: fmt.Sprintf(TX_QUEUED_FMT, index),
		Index:   index,
	})
}

func (s *Server) handleChain(w http.ResponseWriter, r *http.Request) {
	chain := s.node.Chain()
	writeJSON(w, http.StatusOK, ChainResponse{
		Chain:  chain,
		Length: len(chain),
	})
}

func (s *Server) handleRegisterNodes(w http.ResponseWriter, r *http.Request) {
	req, err := common.Decode[RegisterRequest](readBody(r))
	// an empty list is a valid no-op, only an absent one is refused
	if err != nil || req.Nodes == nil {
		writeError(w, http.StatusBadRequest, errors.New(MISSING_NODES_MSG))
		return
	}

	total, err := s.node.RegisterPeers(req.Nodes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if total == nil {
		total = []string{}
	}
	writeJSON(w, http.StatusCreated, RegisterResponse{
		Message:    NODES_ADDED_MSG,
		TotalNodes: total,
	})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	result := s.node.Resolve(r.Context())
	chain := s.node.Chain()

	resp := ResolveResponse{Message: CHAIN_AUTHORITY, Chain: chain}
	if result.Replaced {
		resp = ResolveResponse{Message: CHAIN_REPLACED, NewChain: chain}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: HEALTH_STATUS_OK,
		NodeID: s.node.ID(),
		Length: len(s.node.Chain()),
	})
}
