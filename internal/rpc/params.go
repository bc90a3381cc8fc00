package rpc

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const PrestateTracer = "prestateTracer"

func GetBlockWithTransactionsParams(blockNum uint64) []interface{} {
	return []interface{}{hexutil.EncodeUint64(blockNum), true}
}

func GetTransactionReceiptParams(txHash string) []interface{} {
	return []interface{}{txHash}
}

func TraceTransactionParams(txHash string) []interface{} {
	return []interface{}{txHash, map[string]string{"tracer": PrestateTracer}}
}
