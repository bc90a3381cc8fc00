package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	config "github.com/thirdweb-dev/tracecollector/configs"
	"github.com/thirdweb-dev/tracecollector/internal/common"
	"github.com/thirdweb-dev/tracecollector/internal/metrics"
)

// ISink persists a finished collection run.
type ISink interface {
	Name() string
	Write(ctx context.Context, blockRange common.BlockRange, result common.CollectResult) error
	Close() error
}

// IFileSink is the sink that owns the output file. It always runs first.
type IFileSink interface {
	ISink
	Path() string
}

type Sinks struct {
	File   IFileSink
	Others []ISink
}

func NewFileSink(cfg *config.OutputConfig) (IFileSink, error) {
	switch cfg.Format {
	case config.OutputFormatJSON, "":
		return NewJSONFileSink(cfg.Path, cfg.Legacy), nil
	case config.OutputFormatParquet:
		return NewParquetFileSink(cfg.Path), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", cfg.Format)
	}
}

// NewSinks builds the output file sink and every optional sink that is configured.
func NewSinks(ctx context.Context, output *config.OutputConfig, storage *config.StorageConfig) (*Sinks, error) {
	file, err := NewFileSink(output)
	if err != nil {
		return nil, err
	}
	sinks := &Sinks{File: file}

	if output.S3 != nil {
		s3Sink, err := NewS3Uploader(ctx, output.S3, file.Path())
		if err != nil {
			return nil, errors.Join(fmt.Errorf("failed to create s3 uploader: %w", err), sinks.Close())
		}
		sinks.Others = append(sinks.Others, s3Sink)
	}
	if storage.Clickhouse != nil {
		chSink, err := NewClickHouseSink(ctx, storage.Clickhouse)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("failed to create clickhouse sink: %w", err), sinks.Close())
		}
		sinks.Others = append(sinks.Others, chSink)
	}
	if storage.Kafka != nil {
		kafkaSink, err := NewKafkaSink(ctx, storage.Kafka)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("failed to create kafka sink: %w", err), sinks.Close())
		}
		sinks.Others = append(sinks.Others, kafkaSink)
	}
	if storage.Postgres != nil {
		pgSink, err := NewPostgresSink(ctx, storage.Postgres)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("failed to create postgres sink: %w", err), sinks.Close())
		}
		sinks.Others = append(sinks.Others, pgSink)
	}
	return sinks, nil
}

// Write runs the file sink and then every other sink. A file sink failure is returned
// straight away; failures of the other sinks are logged and joined after all of them ran.
func (s *Sinks) Write(ctx context.Context, blockRange common.BlockRange, result common.CollectResult) error {
	if err := writeSink(ctx, s.File, blockRange, result); err != nil {
		return fmt.Errorf("failed to write output file %s: %w", s.File.Path(), err)
	}

	var errs []error
	for _, sink := range s.Others {
		if err := writeSink(ctx, sink, blockRange, result); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (s *Sinks) Close() error {
	var errs []error
	for _, sink := range s.Others {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.File != nil {
		if err := s.File.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func writeSink(ctx context.Context, sink ISink, blockRange common.BlockRange, result common.CollectResult) error {
	if err := sink.Write(ctx, blockRange, result); err != nil {
		metrics.SinkFailures.WithLabelValues(sink.Name()).Inc()
		log.Error().Err(err).Str("sink", sink.Name()).Msg("Failed to write collected data")
		return err
	}
	metrics.SinkWrites.WithLabelValues(sink.Name()).Inc()
	log.Info().Str("sink", sink.Name()).Int("blocks", len(result.Blocks)).Int("txs", len(result.Txs)).Msg("Wrote collected data")
	return nil
}

// traceRow is the flattened shape of a trace record used by the tabular sinks.
type traceRow struct {
	BlockNumber  uint64 `parquet:"block_number" ch:"block_number"`
	TxHash       string `parquet:"tx_hash" ch:"tx_hash"`
	StorageSlots []byte `parquet:"storage_slots_json" ch:"storage_slots"`
	Receipt      []byte `parquet:"receipt_json" ch:"receipt"`
}

func traceRows(txs []common.TraceRecord) ([]traceRow, error) {
	rows := make([]traceRow, 0, len(txs))
	for _, tx := range txs {
		slotsJSON, err := json.Marshal(tx.StorageSlots)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal storage slots of %s: %w", tx.TxHash, err)
		}
		receiptJSON := []byte("null")
		if len(tx.Receipt) > 0 {
			receiptJSON = tx.Receipt
		}
		rows = append(rows, traceRow{
			BlockNumber:  tx.BlockNumber,
			TxHash:       tx.TxHash,
			StorageSlots: slotsJSON,
			Receipt:      receiptJSON,
		})
	}
	return rows, nil
}
