package worker

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/thirdweb-dev/tracecollector/internal/common"
	"github.com/thirdweb-dev/tracecollector/internal/metrics"
	"github.com/thirdweb-dev/tracecollector/internal/rpc"
)

// Worker collects blocks and per-transaction prestate traces over a block range.
// Every RPC call is awaited before the next one is issued.
type Worker struct {
	rpc rpc.IRPCClient
}

func NewWorker(rpc rpc.IRPCClient) *Worker {
	return &Worker{
		rpc: rpc,
	}
}

// ProcessBlocks walks blockRange in ascending order. Blocks that cannot be fetched or read
// are skipped, as are transactions whose trace is not available. The only error returned
// is the context's, in which case the partial result must not be used.
func (w *Worker) ProcessBlocks(ctx context.Context, blockRange common.BlockRange) (common.CollectResult, error) {
	result := common.NewCollectResult()
	if blockRange.IsEmpty() {
		log.Warn().Stringer("range", blockRange).Msg("Start block is after end block, nothing to process")
		return result, nil
	}

	log.Info().Uint64("from", blockRange.StartBlock).Uint64("to", blockRange.EndBlock).Msg("Processing blocks")
	err := blockRange.Each(func(blockNumber uint64) error {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("processing stopped at block %d: %w", blockNumber, err)
		}
		return w.processBlock(ctx, blockNumber, &result)
	})
	if err != nil {
		return result, err
	}
	log.Info().Int("blocks", len(result.Blocks)).Int("txs", len(result.Txs)).Msg("Finished processing blocks")
	return result, nil
}

func (w *Worker) processBlock(ctx context.Context, blockNumber uint64, result *common.CollectResult) error {
	log.Debug().Msgf("Processing block %d", blockNumber)
	block := w.rpc.GetBlock(ctx, blockNumber)
	if block.Error != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("error fetching block %d: %w", blockNumber, ctx.Err())
		}
		metrics.BlocksFailed.Inc()
		log.Error().Err(block.Error).Uint64("block", blockNumber).Msg("Error fetching block, skipping it")
		return nil
	}

	txHashes, err := common.TransactionHashes(block.Result)
	if err != nil {
		metrics.BlocksFailed.Inc()
		log.Error().Err(err).Uint64("block", blockNumber).Msg("Error reading block transactions, skipping it")
		return nil
	}
	result.Blocks = append(result.Blocks, block.Result)

	for _, txHash := range txHashes {
		if err := w.processTransaction(ctx, blockNumber, txHash, result); err != nil {
			return err
		}
	}

	metrics.BlocksProcessed.Inc()
	metrics.LastProcessedBlock.Set(float64(blockNumber))
	log.Info().Uint64("block", blockNumber).Int("txs", len(txHashes)).Msg("Processed block")
	return nil
}

func (w *Worker) processTransaction(ctx context.Context, blockNumber uint64, txHash string, result *common.CollectResult) error {
	trace := w.rpc.TraceTransaction(ctx, txHash)
	receipt := w.rpc.GetTransactionReceipt(ctx, txHash)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("error processing transaction %s: %w", txHash, err)
	}

	if trace.Error != nil {
		w.skipTransaction(blockNumber, txHash)
		return nil
	}
	storageSlots, err := common.ExtractStorageSlots(trace.Result)
	if err != nil {
		log.Error().Err(err).Str("tx", txHash).Msg("Error reading prestate trace")
		w.skipTransaction(blockNumber, txHash)
		return nil
	}

	record := common.TraceRecord{
		BlockNumber:  blockNumber,
		TxHash:       txHash,
		StorageSlots: storageSlots,
		Receipt:      receipt.Result,
	}
	result.Txs = append(result.Txs, record)
	metrics.TracesCollected.Inc()
	log.Debug().Uint64("block", blockNumber).Str("tx", txHash).Int("accounts", len(storageSlots)).Msg("Collected trace")
	return nil
}

func (w *Worker) skipTransaction(blockNumber uint64, txHash string) {
	metrics.TracesSkipped.Inc()
	log.Warn().Uint64("block", blockNumber).Str("tx", txHash).Msgf("Block: %d, Tx: %s, Trace not available", blockNumber, txHash)
}
