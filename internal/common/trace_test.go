package common

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractStorageSlots_FollowsDocumentOrder(t *testing.T) {
	trace := RawTrace(`{"0xAAA": {"storage": {"0x1": "0xaa", "0x2": "0xbb"}}, "0xBBB": {}}`)

	slots, err := ExtractStorageSlots(trace)
	require.NoError(t, err)

	require.Len(t, slots, 2)
	assert.Equal(t, StorageSlots{"0x1", "0x2"}, slots[0])
	assert.Nil(t, slots[1])

	encoded, err := json.Marshal(slots)
	require.NoError(t, err)
	assert.JSONEq(t, `[["0x1","0x2"], null]`, string(encoded))
}

func TestExtractStorageSlots_KeepsOrderThatIsNotSorted(t *testing.T) {
	trace := RawTrace(`{
		"0xfff": {"balance": "0x0", "storage": {"0x9": "0x1", "0x3": "0x2", "0x7": "0x3"}},
		"0x001": {"balance": "0x1", "nonce": 4}
	}`)

	slots, err := ExtractStorageSlots(trace)
	require.NoError(t, err)

	assert.Equal(t, []StorageSlots{{"0x9", "0x3", "0x7"}, nil}, slots)
}

func TestExtractStorageSlots_EmptyAndNullStorage(t *testing.T) {
	trace := RawTrace(`{"0xA": {"storage": {}}, "0xB": {"storage": null}, "0xC": null}`)

	slots, err := ExtractStorageSlots(trace)
	require.NoError(t, err)

	require.Len(t, slots, 3)
	assert.NotNil(t, slots[0])
	assert.Empty(t, slots[0])
	assert.Nil(t, slots[1])
	assert.Nil(t, slots[2])

	encoded, err := json.Marshal(slots)
	require.NoError(t, err)
	assert.Equal(t, `[[],null,null]`, string(encoded))
}

func TestExtractStorageSlots_EmptyTrace(t *testing.T) {
	slots, err := ExtractStorageSlots(RawTrace(`{}`))
	require.NoError(t, err)
	assert.NotNil(t, slots)
	assert.Empty(t, slots)
}

func TestExtractStorageSlots_RepeatedAccountKeepsFirstPositionAndLastValue(t *testing.T) {
	trace := RawTrace(`{"0xA":{"storage":{"0x1":"a"}},"0xB":{"storage":{"0x2":"b"}},"0xA":{"storage":{"0x3":"c","0x4":"d"}}}`)

	slots, err := ExtractStorageSlots(trace)
	require.NoError(t, err)

	assert.Equal(t, []StorageSlots{{"0x3", "0x4"}, {"0x2"}}, slots)
}

func TestExtractStorageSlots_RepeatedAccountWithoutStorage(t *testing.T) {
	slots, err := ExtractStorageSlots(RawTrace(`{"0xA":{"storage":{"0x1":"a"}},"0xA":{}}`))
	require.NoError(t, err)

	assert.Equal(t, []StorageSlots{nil}, slots)
}

func TestExtractStorageSlots_RejectsNonObjects(t *testing.T) {
	for _, trace := range []string{`null`, `[]`, `"0x"`, ``} {
		_, err := ExtractStorageSlots(RawTrace(trace))
		assert.ErrorIs(t, err, ErrTraceNotObject, "trace %q", trace)
	}
}

func TestExtractStorageSlots_RejectsMalformedStorage(t *testing.T) {
	_, err := ExtractStorageSlots(RawTrace(`{"0xA": {"storage": ["0x1"]}}`))
	assert.Error(t, err)
}

func TestCollectResult_EmptyListsSerializeAsArrays(t *testing.T) {
	encoded, err := json.Marshal(NewCollectResult())
	require.NoError(t, err)
	assert.JSONEq(t, `{"blocks": [], "txs": []}`, string(encoded))
}

func TestTraceRecord_Serialization(t *testing.T) {
	record := TraceRecord{
		BlockNumber:  100,
		TxHash:       "0xT1",
		StorageSlots: []StorageSlots{{"0x5"}},
		Receipt:      RawReceipt(`{"status":"0x1"}`),
	}

	encoded, err := json.Marshal(record)
	require.NoError(t, err)
	assert.JSONEq(t, `{"blockNumber":100,"txHash":"0xT1","storageSlots":[["0x5"]],"receipt":{"status":"0x1"}}`, string(encoded))

	record.Receipt = nil
	encoded, err = json.Marshal(record)
	require.NoError(t, err)
	assert.JSONEq(t, `{"blockNumber":100,"txHash":"0xT1","storageSlots":[["0x5"]],"receipt":null}`, string(encoded))
}

func TestCollectResult_Legacy(t *testing.T) {
	result := NewCollectResult()
	result.Txs = append(result.Txs, TraceRecord{
		BlockNumber:  7,
		TxHash:       "0x01",
		StorageSlots: []StorageSlots{nil},
		Receipt:      RawReceipt(`{}`),
	})

	encoded, err := json.Marshal(result.Legacy())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"blockNumber":7,"txHash":"0x01","storageSlots":[null]}]`, string(encoded))
}
