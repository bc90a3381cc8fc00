package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/thirdweb-dev/tracecollector/internal/common"
)

// JSONFileSink writes the whole run as one indented JSON document.
type JSONFileSink struct {
	path   string
	legacy bool
}

func NewJSONFileSink(path string, legacy bool) *JSONFileSink {
	return &JSONFileSink{path: path, legacy: legacy}
}

func (s *JSONFileSink) Name() string {
	return "json"
}

func (s *JSONFileSink) Path() string {
	return s.path
}

func (s *JSONFileSink) Write(ctx context.Context, blockRange common.BlockRange, result common.CollectResult) error {
	if s.legacy {
		return writeJSONFile(s.path, result.Legacy())
	}
	return writeJSONFile(s.path, result)
}

func (s *JSONFileSink) Close() error {
	return nil
}

// writeJSONFile writes v next to path first and renames it into place, so a failed
// write never leaves a truncated document behind.
func writeJSONFile(path string, v interface{}) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode output: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set output file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

// ReadJSONFile parses a document written by JSONFileSink. Legacy flat documents are
// accepted too and come back with no blocks and null receipts.
func ReadJSONFile(path string) (common.CollectResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return common.CollectResult{}, err
	}

	result := common.NewCollectResult()
	if trimmed := bytes.TrimLeft(data, " \t\r\n"); len(trimmed) > 0 && trimmed[0] == '[' {
		var legacy []common.LegacyTraceRecord
		if err := json.Unmarshal(data, &legacy); err != nil {
			return common.CollectResult{}, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		for _, record := range legacy {
			result.Txs = append(result.Txs, common.TraceRecord{
				BlockNumber:  record.BlockNumber,
				TxHash:       record.TxHash,
				StorageSlots: record.StorageSlots,
			})
		}
		return result, nil
	}

	if err := json.Unmarshal(data, &result); err != nil {
		return common.CollectResult{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return result, nil
}
