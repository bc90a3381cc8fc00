package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	gethRpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog/log"
	"github.com/thirdweb-dev/tracecollector/internal/metrics"
)

var ErrNullResult = errors.New("node returned a null result")

// RPCFetchResult is the outcome of a single RPC call for Key. Exactly one of Error and
// Result is set: Result is never a JSON null.
type RPCFetchResult[K any, T any] struct {
	Key    K
	Error  error
	Result T
}

func (r RPCFetchResult[K, T]) Ok() bool {
	return r.Error == nil
}

// RPCFetchRaw issues method with the params for key and keeps the result undecoded so the
// payload passes through with its key order and number precision intact.
func RPCFetchRaw[K any](rpc *Client, ctx context.Context, key K, method string, argsFunc func(K) []interface{}) RPCFetchResult[K, json.RawMessage] {
	result := RPCFetchResult[K, json.RawMessage]{Key: key}
	metrics.RPCRequests.WithLabelValues(method).Inc()

	var raw json.RawMessage
	err := rpc.RPCClient.CallContext(ctx, &raw, method, argsFunc(key)...)
	if errors.Is(err, gethRpc.ErrNoResult) || (err == nil && (len(raw) == 0 || bytes.Equal(raw, []byte("null")))) {
		err = ErrNullResult
	}
	if err != nil {
		metrics.RPCFailures.WithLabelValues(method).Inc()
		log.Error().Err(err).Str("method", method).Interface("key", key).Msgf("%s call failed", method)
		result.Error = err
		return result
	}

	result.Result = raw
	return result
}
