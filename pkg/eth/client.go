package eth

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/holiman/uint256"
)

// PriceReader abstracts gas price observation.
type PriceReader interface {
	GasPrice(ctx context.Context) (*uint256.Int, error)
	FeeHistory(ctx context.Context, blocks int) (*FeeHistory, error)
}

// BlockReader abstracts block fetching operations.
type BlockReader interface {
	BlockByNumber(ctx context.Context, number *uint256.Int) (*Block, error)
	LatestBlock(ctx context.Context) (*Block, error)
	ChainID(ctx context.Context) (uint64, error)
}

// Client provides access to an Ethereum node via JSON-RPC.
type Client struct {
	httpURL    string
	httpClient *http.Client
	requestID  atomic.Uint64
}

// NewClient creates a new Ethereum RPC client.
func NewClient(httpURL string) *Client {
	return &Client{
		httpURL: httpURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// ChainID returns the chain ID of the connected network.
func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	var result hexUint64
	if err := c.call(ctx, "eth_chainId", nil, &result); err != nil {
		return 0, err
	}
	return uint64(result), nil
}

// GasPrice returns the gas price the node currently suggests, in wei.
func (c *Client) GasPrice(ctx context.Context) (*uint256.Int, error) {
	var result hexBig
	if err := c.call(ctx, "eth_gasPrice", nil, &result); err != nil {
		return nil, err
	}
	return result.Int(), nil
}

// FeeHistory returns base fees and utilization for the most recent
// blocks, oldest first.
func (c *Client) FeeHistory(ctx context.Context, blocks int) (*FeeHistory, error) {
	if blocks < 1 {
		return nil, fmt.Errorf("fee history: block count must be positive, got %d", blocks)
	}

	count := uint256.NewInt(uint64(blocks))
	var raw rpcFeeHistory
	if err := c.call(ctx, "eth_feeHistory", []any{count.Hex(), "latest", []float64{}}, &raw); err != nil {
		return nil, err
	}
	return raw.toFeeHistory(), nil
}

// LatestBlock returns the most recent block header.
func (c *Client) LatestBlock(ctx context.Context) (*Block, error) {
	return c.blockByTag(ctx, "latest")
}

// BlockByNumber returns the block header at the given height.
// Pass nil for the latest block.
func (c *Client) BlockByNumber(ctx context.Context, number *uint256.Int) (*Block, error) {
	if number == nil {
		return c.LatestBlock(ctx)
	}
	return c.blockByTag(ctx, number.Hex())
}

func (c *Client) blockByTag(ctx context.Context, tag string) (*Block, error) {
	var raw rpcBlock
	if err := c.call(ctx, "eth_getBlockByNumber", []any{tag, false}, &raw); err != nil {
		return nil, err
	}
	return raw.toBlock(), nil
}

// Close releases resources.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// rpcRequest represents a JSON-RPC request.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func (c *Client) call(ctx context.Context, method string, params []any, result any) error {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.httpURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	if rpcResp.Error != nil {
		return rpcResp.Error
	}

	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("unmarshaling result: %w", err)
		}
	}

	return nil
}

// Verify interface compliance at compile time.
var (
	_ PriceReader = (*Client)(nil)
	_ BlockReader = (*Client)(nil)
)
