package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/buger/jsonparser"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var ErrMissingTransactions = errors.New("block has no transactions list")

// BlockRange is an inclusive range of block numbers.
type BlockRange struct {
	StartBlock uint64 `json:"startBlock"`
	EndBlock   uint64 `json:"endBlock"`
}

func NewBlockRange(start, end uint64) BlockRange {
	return BlockRange{StartBlock: start, EndBlock: end}
}

func (r BlockRange) IsEmpty() bool {
	return r.StartBlock > r.EndBlock
}

func (r BlockRange) Len() uint64 {
	if r.IsEmpty() {
		return 0
	}
	if r.StartBlock == 0 && r.EndBlock == math.MaxUint64 {
		return math.MaxUint64
	}
	return r.EndBlock - r.StartBlock + 1
}

// Each calls fn for every block number of the range in ascending order, stopping at the
// first error. Numbers are produced one at a time so the size of the range does not matter.
func (r BlockRange) Each(fn func(blockNumber uint64) error) error {
	if r.IsEmpty() {
		return nil
	}
	for n := r.StartBlock; ; n++ {
		if err := fn(n); err != nil {
			return err
		}
		if n == r.EndBlock {
			return nil
		}
	}
}

func (r BlockRange) String() string {
	return fmt.Sprintf("%d-%d", r.StartBlock, r.EndBlock)
}

// RawBlock is the block payload exactly as returned by eth_getBlockByNumber.
type RawBlock = json.RawMessage

// TransactionHashes returns the hashes of the block's transactions in list order.
// Both full transaction objects and hash-only lists are accepted.
func TransactionHashes(block RawBlock) ([]string, error) {
	txs, dataType, _, err := jsonparser.Get(block, "transactions")
	if err != nil || dataType != jsonparser.Array {
		return nil, ErrMissingTransactions
	}

	hashes := make([]string, 0)
	var parseErr error
	_, err = jsonparser.ArrayEach(txs, func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
		if parseErr != nil {
			return
		}
		if err != nil {
			parseErr = err
			return
		}
		switch dataType {
		case jsonparser.Object:
			hash, err := jsonparser.GetString(value, "hash")
			if err != nil {
				parseErr = fmt.Errorf("transaction at offset %d has no hash: %w", offset, err)
				return
			}
			hashes = append(hashes, hash)
		case jsonparser.String:
			hash, err := jsonparser.ParseString(value)
			if err != nil {
				parseErr = err
				return
			}
			hashes = append(hashes, hash)
		default:
			parseErr = fmt.Errorf("unexpected transaction entry of type %s", dataType)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	if parseErr != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", parseErr)
	}
	return hashes, nil
}

// BlockNumberOf reads the hex number field of a raw block.
func BlockNumberOf(block RawBlock) (uint64, error) {
	number, err := jsonparser.GetString(block, "number")
	if err != nil {
		return 0, fmt.Errorf("block has no number: %w", err)
	}
	return hexutil.DecodeUint64(number)
}
