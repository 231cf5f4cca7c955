package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"simple-ledger-go/api"
	"simple-ledger-go/blocks"
	"simple-ledger-go/common"
	"simple-ledger-go/transactions"
)

const (
	DEFAULT_TIMEOUT = 10 * time.Second
	// bounds a peer's chain response
	MAX_RESPONSE_BYTES int64 = 32 << 20
)

var (
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrResponseTooLarge = errors.New("response too large")
)

// Client talks to a node's HTTP API. Addresses are host:port or full URLs.
type Client struct {
	http        *http.Client
	maxResponse int64
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DEFAULT_TIMEOUT
	}
	return &Client{
		http:        &http.Client{Timeout: timeout},
		maxResponse: MAX_RESPONSE_BYTES,
	}
}

func baseURL(address string) string {
	address = strings.TrimSuffix(address, "/")
	if strings.Contains(address, "://") {
		return address
	}
	return "http://" + address
}

func do[T any](
	ctx context.Context, c *Client, method, url string, body interface{}, want ...int,
) (*T, error) {
	var reader io.Reader
	if body != nil {
		enc, err := common.Encode(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(enc)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponse+1))
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > c.maxResponse {
		return nil, fmt.Errorf("%w: over %d bytes from %s", ErrResponseTooLarge, c.maxResponse, url)
	}
	if !statusIn(resp.StatusCode, want) {
		if apiErr, err := common.Decode[api.ErrorResponse](raw); err == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("%w %d from %s: %s", ErrUnexpectedStatus, resp.StatusCode, url, apiErr.Error)
		}
		return nil, fmt.Errorf("%w %d from %s", ErrUnexpectedStatus, resp.StatusCode, url)
	}
	return common.Decode[T](raw)
}

func statusIn(status int, want []int) bool {
	for _, w := range want {
		if status == w {
			return true
		}
	}
	return false
}

// FetchChain returns a peer's chain. A response whose length field does not
// match the chain it carries is refused.
func (c *Client) FetchChain(ctx context.Context, address string) ([]blocks.Block, error) {
	resp, err := c.Chain(ctx, address)
	if err != nil {
		return nil, err
	}
	if resp.Length != len(resp.Chain) {
		return nil, fmt.Errorf(
			"peer %s reported length %d with %d blocks",
			address, resp.Length, len(resp.Chain),
		)
	}
	return resp.Chain, nil
}

func (c *Client) Chain(ctx context.Context, address string) (*api.ChainResponse, error) {
	return do[api.ChainResponse](ctx, c, http.MethodGet, baseURL(address)+"/chain", nil, http.StatusOK)
}

func (c *Client) Mine(ctx context.Context, address string) (*api.MineResponse, error) {
	return do[api.MineResponse](ctx, c, http.MethodGet, baseURL(address)+"/mine", nil, http.StatusOK)
}

func (c *Client) SendTransaction(
	ctx context.Context, address string, tx transactions.Transaction,
) (*api.TransactionResponse, error) {
	return do[api.TransactionResponse](
		ctx, c, http.MethodPost, baseURL(address)+"/transactions/new", tx, http.StatusCreated,
	)
}

func (c *Client) RegisterPeers(
	ctx context.Context, address string, nodes []string,
) (*api.RegisterResponse, error) {
	return do[api.RegisterResponse](
		ctx, c, http.MethodPost, baseURL(address)+"/nodes/register",
		api.RegisterRequest{Nodes: nodes}, http.StatusCreated,
	)
}

func (c *Client) Resolve(ctx context.Context, address string) (*api.ResolveResponse, error) {
	return do[api.ResolveResponse](ctx, c, http.MethodGet, baseURL(address)+"/nodes/resolve", nil, http.StatusOK)
}

func (c *Client) Health(ctx context.Context, address string) (*api.HealthResponse, error) {
	return do[api.HealthResponse](ctx, c, http.MethodGet, baseURL(address)+"/health", nil, http.StatusOK)
}
