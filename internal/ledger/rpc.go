package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"nftrental-backend/internal/logger"
	"nftrental-backend/internal/metrics"

	"golang.org/x/time/rate"
)

// JSON-RPC error codes the gateway treats as permanent.
const (
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeRejected       = -32010
)

type RPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int64  `json:"id"`
}

type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      int64           `json:"id"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Unwrap lets callers match permanent failures with errors.Is(err, ErrRejected).
func (e *RPCError) Unwrap() error {
	switch e.Code {
	case CodeInvalidRequest, CodeMethodNotFound, CodeInvalidParams, CodeRejected:
		return ErrRejected
	}
	return nil
}

type RPCConfig struct {
	URL               string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// RPCGateway submits settlements to a JSON-RPC ledger node. Requests are
// throttled client side so retry storms cannot flood the node.
type RPCGateway struct {
	url        string
	httpClient *http.Client
	limiter    *rate.Limiter
	nextID     atomic.Int64
}

func NewRPCGateway(cfg RPCConfig) (*RPCGateway, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("ledger RPC URL required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &RPCGateway{
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
	}, nil
}

func (g *RPCGateway) Submit(ctx context.Context, op Operation) (string, error) {
	result, err := g.call(ctx, "ledger_submit", op.ID, []any{op})
	if err != nil {
		return "", err
	}
	var out struct {
		Ref string `json:"ref"`
	}
	if err := json.Unmarshal(result, &out); err != nil {
		return "", fmt.Errorf("unmarshal submit result: %w", err)
	}
	if out.Ref == "" {
		return "", fmt.Errorf("ledger returned an empty confirmation ref")
	}
	return out.Ref, nil
}

func (g *RPCGateway) GetConfirmation(ctx context.Context, ref string) (ConfirmationStatus, error) {
	result, err := g.call(ctx, "ledger_getConfirmation", "", []any{ref})
	if err != nil {
		return "", err
	}
	var out struct {
		Status ConfirmationStatus `json:"status"`
	}
	if err := json.Unmarshal(result, &out); err != nil {
		return "", fmt.Errorf("unmarshal confirmation result: %w", err)
	}
	switch out.Status {
	case ConfirmationPending, ConfirmationConfirmed, ConfirmationFailed:
		return out.Status, nil
	}
	return "", fmt.Errorf("unknown confirmation status %q", out.Status)
}

// call performs one JSON-RPC round trip. idempotencyKey, when set, is sent as
// the Idempotency-Key header.
func (g *RPCGateway) call(ctx context.Context, method, idempotencyKey string, params []any) (json.RawMessage, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(RPCRequest{JSONRPC: "2.0", Method: method, Params: params, ID: g.nextID.Add(1)})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", idempotencyKey)
	}

	logger.LedgerCall(method, idempotencyKey)
	start := time.Now()
	result, err := g.do(httpReq)
	metrics.ObserveLedgerCall(method, time.Since(start))
	logger.LedgerResult(method, idempotencyKey, err)
	return result, err
}

func (g *RPCGateway) do(httpReq *http.Request) (json.RawMessage, error) {
	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("ledger node returned HTTP %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("ledger node returned HTTP %d: %w", resp.StatusCode, ErrRejected)
	}

	var rpcResp RPCResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	return rpcResp.Result, nil
}
