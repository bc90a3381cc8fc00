package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thirdweb-dev/tracecollector/internal/common"
)

func sampleResult() common.CollectResult {
	result := common.NewCollectResult()
	result.Blocks = append(result.Blocks,
		common.RawBlock(`{"number":"0x64","gasUsed":"0x5208","transactions":[{"hash":"0xT1"},{"hash":"0xT2"}]}`),
		common.RawBlock(`{"number":"0x65","gasUsed":"0x0","transactions":[]}`),
	)
	result.Txs = append(result.Txs,
		common.TraceRecord{
			BlockNumber:  100,
			TxHash:       "0xT1",
			StorageSlots: []common.StorageSlots{{"0x5", "0x1"}, nil},
			Receipt:      common.RawReceipt(`{"status":"0x1","gasUsed":"0x5208"}`),
		},
		common.TraceRecord{
			BlockNumber:  9007199254740993,
			TxHash:       "0xT2",
			StorageSlots: []common.StorageSlots{{}},
		},
	)
	return result
}

func TestJSONFileSink_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.json")
	sink := NewJSONFileSink(path, false)
	assert.Equal(t, "json", sink.Name())
	assert.Equal(t, path, sink.Path())

	original := sampleResult()
	require.NoError(t, sink.Write(context.Background(), common.NewBlockRange(100, 101), original))

	read, err := ReadJSONFile(path)
	require.NoError(t, err)

	require.Len(t, read.Blocks, len(original.Blocks))
	for i := range original.Blocks {
		assert.JSONEq(t, string(original.Blocks[i]), string(read.Blocks[i]))
	}
	require.Len(t, read.Txs, len(original.Txs))
	for i := range original.Txs {
		assert.Equal(t, original.Txs[i].BlockNumber, read.Txs[i].BlockNumber)
		assert.Equal(t, original.Txs[i].TxHash, read.Txs[i].TxHash)
		assert.Equal(t, original.Txs[i].StorageSlots, read.Txs[i].StorageSlots)
	}
	assert.JSONEq(t, `{"status":"0x1","gasUsed":"0x5208"}`, string(read.Txs[0].Receipt))
	assert.Equal(t, "null", string(read.Txs[1].Receipt))
}

func TestJSONFileSink_EmptyResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, NewJSONFileSink(path, false).Write(context.Background(), common.NewBlockRange(2, 1), common.NewCollectResult()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"blocks":[],"txs":[]}`, string(data))
}

func TestJSONFileSink_Legacy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.json")
	require.NoError(t, NewJSONFileSink(path, true).Write(context.Background(), common.NewBlockRange(100, 101), sampleResult()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"blockNumber":100,"txHash":"0xT1","storageSlots":[["0x5","0x1"],null]},
		{"blockNumber":9007199254740993,"txHash":"0xT2","storageSlots":[[]]}
	]`, string(data))

	read, err := ReadJSONFile(path)
	require.NoError(t, err)
	assert.Empty(t, read.Blocks)
	require.Len(t, read.Txs, 2)
	assert.Equal(t, "0xT1", read.Txs[0].TxHash)
	assert.Nil(t, read.Txs[0].Receipt)
}

func TestJSONFileSink_UnwritableDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "traces.json")
	err := NewJSONFileSink(path, false).Write(context.Background(), common.NewBlockRange(1, 1), sampleResult())
	assert.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestReadJSONFile_Errors(t *testing.T) {
	_, err := ReadJSONFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"blocks": [`), 0o644))
	_, err = ReadJSONFile(path)
	assert.Error(t, err)
}
