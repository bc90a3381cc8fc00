package common

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
)

var ErrTraceNotObject = errors.New("prestate trace is not an object")

// RawTrace is a prestateTracer result keyed by touched account address.
type RawTrace = json.RawMessage

// RawReceipt is the receipt payload exactly as returned by eth_getTransactionReceipt.
type RawReceipt = json.RawMessage

// StorageSlots holds the storage keys of one traced account. A nil value means the
// account had no storage field and is serialized as null.
type StorageSlots []string

type TraceRecord struct {
	BlockNumber  uint64         `json:"blockNumber"`
	TxHash       string         `json:"txHash"`
	StorageSlots []StorageSlots `json:"storageSlots"`
	Receipt      RawReceipt     `json:"receipt"`
}

// LegacyTraceRecord is the record shape of the flat output document, which predates receipts.
type LegacyTraceRecord struct {
	BlockNumber  uint64         `json:"blockNumber"`
	TxHash       string         `json:"txHash"`
	StorageSlots []StorageSlots `json:"storageSlots"`
}

type CollectResult struct {
	Blocks []RawBlock    `json:"blocks"`
	Txs    []TraceRecord `json:"txs"`
}

func NewCollectResult() CollectResult {
	return CollectResult{
		Blocks: make([]RawBlock, 0),
		Txs:    make([]TraceRecord, 0),
	}
}

func (r CollectResult) Legacy() []LegacyTraceRecord {
	records := make([]LegacyTraceRecord, 0, len(r.Txs))
	for _, tx := range r.Txs {
		records = append(records, LegacyTraceRecord{
			BlockNumber:  tx.BlockNumber,
			TxHash:       tx.TxHash,
			StorageSlots: tx.StorageSlots,
		})
	}
	return records
}

// ExtractStorageSlots returns, for every account of the trace in document order, the
// storage keys touched by the transaction in document order.
//
// An account without a storage field (or with a null one) yields a nil entry so that
// the result stays aligned with the traced accounts. An empty storage object yields
// an empty, non-nil entry. An account that appears more than once counts once, at its
// first position, with the storage of its last occurrence.
func ExtractStorageSlots(trace RawTrace) ([]StorageSlots, error) {
	_, dataType, _, err := jsonparser.Get(trace)
	if err != nil || dataType != jsonparser.Object {
		return nil, ErrTraceNotObject
	}

	slots := make([]StorageSlots, 0)
	positions := make(map[string]int)
	err = jsonparser.ObjectEach(trace, func(key []byte, account []byte, dataType jsonparser.ValueType, offset int) error {
		var accountSlots StorageSlots
		if dataType == jsonparser.Object {
			var err error
			if accountSlots, err = storageKeys(account); err != nil {
				return fmt.Errorf("account %s: %w", key, err)
			}
		}
		address, err := jsonparser.ParseString(key)
		if err != nil {
			address = string(key)
		}
		// a repeated account keeps its first position and takes the last value
		if i, seen := positions[address]; seen {
			slots[i] = accountSlots
			return nil
		}
		positions[address] = len(slots)
		slots = append(slots, accountSlots)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func storageKeys(account []byte) (StorageSlots, error) {
	storage, dataType, _, err := jsonparser.Get(account, "storage")
	if errors.Is(err, jsonparser.KeyPathNotFoundError) || dataType == jsonparser.Null {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if dataType != jsonparser.Object {
		return nil, fmt.Errorf("storage is %s, not an object", dataType)
	}

	keys := make(StorageSlots, 0)
	err = jsonparser.ObjectEach(storage, func(key []byte, _ []byte, _ jsonparser.ValueType, _ int) error {
		slot, err := jsonparser.ParseString(key)
		if err != nil {
			return err
		}
		keys = append(keys, slot)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}
