package storage

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog/log"
	"github.com/thirdweb-dev/tracecollector/internal/common"
)

type blockRow struct {
	BlockNumber uint64 `parquet:"block_number"`
	Block       []byte `parquet:"block_json"`
}

var writerOptions = []parquet.WriterOption{
	parquet.Compression(&parquet.Zstd),
	parquet.DataPageStatistics(true),
}

// ParquetFileSink writes trace records to path and the raw blocks to a sibling
// <name>.blocks.parquet file.
type ParquetFileSink struct {
	path string
}

func NewParquetFileSink(path string) *ParquetFileSink {
	return &ParquetFileSink{path: path}
}

func (s *ParquetFileSink) Name() string {
	return "parquet"
}

func (s *ParquetFileSink) Path() string {
	return s.path
}

func (s *ParquetFileSink) BlocksPath() string {
	return blocksPath(s.path)
}

func (s *ParquetFileSink) Write(ctx context.Context, blockRange common.BlockRange, result common.CollectResult) error {
	rows, err := traceRows(result.Txs)
	if err != nil {
		return err
	}
	if err := writeParquetFile(s.path, rows); err != nil {
		return err
	}

	blocks := make([]blockRow, 0, len(result.Blocks))
	for _, block := range result.Blocks {
		number, err := common.BlockNumberOf(block)
		if err != nil {
			log.Warn().Err(err).Msg("Block without a readable number, storing it as 0")
		}
		blocks = append(blocks, blockRow{BlockNumber: number, Block: block})
	}
	return writeParquetFile(s.BlocksPath(), blocks)
}

func (s *ParquetFileSink) Close() error {
	return nil
}

func writeParquetFile[T any](path string, rows []T) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}

	writer := parquet.NewGenericWriter[T](file, writerOptions...)
	if _, err := writer.Write(rows); err != nil {
		file.Close()
		return fmt.Errorf("failed to write parquet data: %w", err)
	}
	if err := writer.Close(); err != nil {
		file.Close()
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close parquet file: %w", err)
	}
	return nil
}

func blocksPath(path string) string {
	return strings.TrimSuffix(path, ".parquet") + ".blocks.parquet"
}
