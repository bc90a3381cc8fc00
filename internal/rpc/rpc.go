package rpc

import (
	"context"
	"fmt"
	"strings"

	gethRpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog/log"
	"github.com/thirdweb-dev/tracecollector/internal/common"
)

type IRPCClient interface {
	TraceTransaction(ctx context.Context, txHash string) RPCFetchResult[string, common.RawTrace]
	GetBlock(ctx context.Context, blockNumber uint64) RPCFetchResult[uint64, common.RawBlock]
	GetTransactionReceipt(ctx context.Context, txHash string) RPCFetchResult[string, common.RawReceipt]
	GetURL() string
	IsWebsocket() bool
	Close()
}

type Client struct {
	RPCClient   *gethRpc.Client
	isWebsocket bool
	url         string
}

// Initialize connects to the node at rpcUrl. HTTP endpoints are not contacted until the
// first call.
func Initialize(ctx context.Context, rpcUrl string) (IRPCClient, error) {
	if rpcUrl == "" {
		return nil, fmt.Errorf("RPC URL is not set")
	}
	log.Debug().Str("url", rpcUrl).Msg("Initializing RPC")
	rpcClient, dialErr := gethRpc.DialContext(ctx, rpcUrl)
	if dialErr != nil {
		return nil, fmt.Errorf("failed to dial RPC %s: %w", rpcUrl, dialErr)
	}

	rpc := &Client{
		RPCClient:   rpcClient,
		url:         rpcUrl,
		isWebsocket: strings.HasPrefix(rpcUrl, "ws://") || strings.HasPrefix(rpcUrl, "wss://"),
	}
	return IRPCClient(rpc), nil
}

func (rpc *Client) GetURL() string {
	return rpc.url
}

func (rpc *Client) IsWebsocket() bool {
	return rpc.isWebsocket
}

func (rpc *Client) Close() {
	rpc.RPCClient.Close()
}

// TraceTransaction runs debug_traceTransaction with the prestate tracer.
func (rpc *Client) TraceTransaction(ctx context.Context, txHash string) RPCFetchResult[string, common.RawTrace] {
	return RPCFetchRaw(rpc, ctx, txHash, "debug_traceTransaction", TraceTransactionParams)
}

// GetBlock fetches a block including full transaction objects.
func (rpc *Client) GetBlock(ctx context.Context, blockNumber uint64) RPCFetchResult[uint64, common.RawBlock] {
	return RPCFetchRaw(rpc, ctx, blockNumber, "eth_getBlockByNumber", GetBlockWithTransactionsParams)
}

func (rpc *Client) GetTransactionReceipt(ctx context.Context, txHash string) RPCFetchResult[string, common.RawReceipt] {
	return RPCFetchRaw(rpc, ctx, txHash, "eth_getTransactionReceipt", GetTransactionReceiptParams)
}
