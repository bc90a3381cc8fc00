package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/thirdweb-dev/tracecollector/internal/common"
	"github.com/thirdweb-dev/tracecollector/internal/rpc"
)

// MockIRPCClient is a testify mock of rpc.IRPCClient.
type MockIRPCClient struct {
	mock.Mock
}

var _ rpc.IRPCClient = (*MockIRPCClient)(nil)

func (m *MockIRPCClient) TraceTransaction(ctx context.Context, txHash string) rpc.RPCFetchResult[string, common.RawTrace] {
	ret := m.Called(ctx, txHash)
	return ret.Get(0).(rpc.RPCFetchResult[string, common.RawTrace])
}

func (m *MockIRPCClient) GetBlock(ctx context.Context, blockNumber uint64) rpc.RPCFetchResult[uint64, common.RawBlock] {
	ret := m.Called(ctx, blockNumber)
	return ret.Get(0).(rpc.RPCFetchResult[uint64, common.RawBlock])
}

func (m *MockIRPCClient) GetTransactionReceipt(ctx context.Context, txHash string) rpc.RPCFetchResult[string, common.RawReceipt] {
	ret := m.Called(ctx, txHash)
	return ret.Get(0).(rpc.RPCFetchResult[string, common.RawReceipt])
}

func (m *MockIRPCClient) GetURL() string {
	ret := m.Called()
	return ret.String(0)
}

func (m *MockIRPCClient) IsWebsocket() bool {
	ret := m.Called()
	return ret.Bool(0)
}

func (m *MockIRPCClient) Close() {
	m.Called()
}
