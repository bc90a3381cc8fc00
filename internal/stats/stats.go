package stats

import (
	"fmt"
	"math"
	"sort"

	"github.com/buger/jsonparser"
	"github.com/holiman/uint256"
	"github.com/thirdweb-dev/tracecollector/internal/common"
)

// DefaultGasBucketSize is the width of a transaction gas usage histogram bucket.
const DefaultGasBucketSize = 12000

const maxHistogramBuckets = 1000

type BlockGas struct {
	BlockNumber uint64 `json:"blockNumber"`
	GasUsed     uint64 `json:"gasUsed"`
}

type TxGas struct {
	BlockNumber uint64 `json:"blockNumber"`
	TxHash      string `json:"txHash"`
	GasUsed     uint64 `json:"gasUsed"`
}

type HistogramBucket struct {
	From  uint64 `json:"from"`
	To    uint64 `json:"to"`
	Count int    `json:"count"`
}

// SlotFrequency counts how often a storage slot was touched, per block and overall.
type SlotFrequency struct {
	Slot     string            `json:"slot"`
	Total    uint64            `json:"total"`
	PerBlock map[uint64]uint64 `json:"perBlock"`
}

type Report struct {
	Blocks        []BlockGas        `json:"blocks"`
	TotalBlockGas string            `json:"totalBlockGas"`
	Txs           []TxGas           `json:"txs"`
	TotalTxGas    string            `json:"totalTxGas"`
	GasHistogram  []HistogramBucket `json:"gasHistogram"`
	Slots         []SlotFrequency   `json:"slots"`
}

func Analyze(result common.CollectResult, bucketSize uint64) (Report, error) {
	blocks, blockTotal, err := GasPerBlock(result)
	if err != nil {
		return Report{}, err
	}
	txs, txTotal, err := TxGasUsage(result)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Blocks:        blocks,
		TotalBlockGas: blockTotal.Dec(),
		Txs:           txs,
		TotalTxGas:    txTotal.Dec(),
		GasHistogram:  GasHistogram(txs, bucketSize),
		Slots:         SlotFrequencies(result),
	}, nil
}

// GasPerBlock reads number and gasUsed of every block and sums the gas.
func GasPerBlock(result common.CollectResult) ([]BlockGas, *uint256.Int, error) {
	total := new(uint256.Int)
	blocks := make([]BlockGas, 0, len(result.Blocks))
	for i, block := range result.Blocks {
		number, err := hexField(block, "number")
		if err != nil {
			return nil, nil, fmt.Errorf("block %d: %w", i, err)
		}
		gasUsed, err := hexField(block, "gasUsed")
		if err != nil {
			return nil, nil, fmt.Errorf("block %s: %w", number.Dec(), err)
		}
		if !number.IsUint64() || !gasUsed.IsUint64() {
			return nil, nil, fmt.Errorf("block %s: quantity does not fit 64 bits", number.Dec())
		}
		total.Add(total, gasUsed)
		blocks = append(blocks, BlockGas{BlockNumber: number.Uint64(), GasUsed: gasUsed.Uint64()})
	}
	return blocks, total, nil
}

// TxGasUsage reads gasUsed from every receipt. Records without a receipt or without
// gasUsed are left out.
func TxGasUsage(result common.CollectResult) ([]TxGas, *uint256.Int, error) {
	total := new(uint256.Int)
	txs := make([]TxGas, 0, len(result.Txs))
	for _, tx := range result.Txs {
		if len(tx.Receipt) == 0 {
			continue
		}
		if _, dataType, _, err := jsonparser.Get(tx.Receipt, "gasUsed"); err != nil || dataType != jsonparser.String {
			continue
		}
		gasUsed, err := hexField(tx.Receipt, "gasUsed")
		if err != nil {
			return nil, nil, fmt.Errorf("receipt of %s: %w", tx.TxHash, err)
		}
		if !gasUsed.IsUint64() {
			return nil, nil, fmt.Errorf("receipt of %s: gasUsed does not fit 64 bits", tx.TxHash)
		}
		total.Add(total, gasUsed)
		txs = append(txs, TxGas{BlockNumber: tx.BlockNumber, TxHash: tx.TxHash, GasUsed: gasUsed.Uint64()})
	}
	return txs, total, nil
}

// GasHistogram buckets transaction gas usage in bucketSize wide buckets starting at 0,
// up to the bucket holding the largest value. When that would take more than
// maxHistogramBuckets buckets, the buckets are widened to fit.
func GasHistogram(txs []TxGas, bucketSize uint64) []HistogramBucket {
	if len(txs) == 0 {
		return make([]HistogramBucket, 0)
	}
	if bucketSize == 0 {
		bucketSize = DefaultGasBucketSize
	}

	var maxGas uint64
	for _, tx := range txs {
		if tx.GasUsed > maxGas {
			maxGas = tx.GasUsed
		}
	}
	if maxGas/bucketSize >= maxHistogramBuckets {
		bucketSize = maxGas/maxHistogramBuckets + 1
	}

	count := maxGas/bucketSize + 1
	buckets := make([]HistogramBucket, count)
	for i := range buckets {
		from := uint64(i) * bucketSize
		to := from + bucketSize
		if to < from {
			to = math.MaxUint64
		}
		buckets[i] = HistogramBucket{From: from, To: to}
	}
	for _, tx := range txs {
		buckets[tx.GasUsed/bucketSize].Count++
	}
	return buckets
}

// SlotFrequencies counts storage slot accesses across all records. Null slot groups are
// skipped. The result is ordered by total descending, then slot.
func SlotFrequencies(result common.CollectResult) []SlotFrequency {
	bySlot := make(map[string]*SlotFrequency)
	for _, tx := range result.Txs {
		for _, group := range tx.StorageSlots {
			for _, slot := range group {
				frequency, ok := bySlot[slot]
				if !ok {
					frequency = &SlotFrequency{Slot: slot, PerBlock: make(map[uint64]uint64)}
					bySlot[slot] = frequency
				}
				frequency.Total++
				frequency.PerBlock[tx.BlockNumber]++
			}
		}
	}

	frequencies := make([]SlotFrequency, 0, len(bySlot))
	for _, frequency := range bySlot {
		frequencies = append(frequencies, *frequency)
	}
	sort.Slice(frequencies, func(i, j int) bool {
		if frequencies[i].Total != frequencies[j].Total {
			return frequencies[i].Total > frequencies[j].Total
		}
		return frequencies[i].Slot < frequencies[j].Slot
	})
	return frequencies
}

func hexField(data []byte, key string) (*uint256.Int, error) {
	value, err := jsonparser.GetString(data, key)
	if err != nil {
		return nil, fmt.Errorf("missing %s: %w", key, err)
	}
	number, err := uint256.FromHex(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return number, nil
}
