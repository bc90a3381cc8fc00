package storage

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/rs/zerolog/log"
	config "github.com/thirdweb-dev/tracecollector/configs"
	"github.com/thirdweb-dev/tracecollector/internal/common"
)

const defaultTraceTable = "storage_traces"

type ClickHouseSink struct {
	conn  clickhouse.Conn
	cfg   *config.ClickhouseConfig
	table string
}

func NewClickHouseSink(ctx context.Context, cfg *config.ClickhouseConfig) (*ClickHouseSink, error) {
	table := qualifiedTable(cfg.Database, cfg.Table)
	if !tableNameRegex.MatchString(table) {
		return nil, fmt.Errorf("invalid clickhouse table name %q", table)
	}
	conn, err := connectDB(cfg)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	sink := &ClickHouseSink{
		conn:  conn,
		cfg:   cfg,
		table: table,
	}
	if err := conn.Exec(ctx, createTraceTableQuery(sink.table)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create clickhouse table %s: %w", sink.table, err)
	}
	return sink, nil
}

func connectDB(cfg *config.ClickhouseConfig) (clickhouse.Conn, error) {
	var tlsConfig *tls.Config
	if !cfg.DisableTLS {
		tlsConfig = &tls.Config{}
	}
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr:     []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Protocol: clickhouse.Native,
		TLS:      tlsConfig,
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open clickhouse connection: %w", err)
	}
	return conn, nil
}

func (c *ClickHouseSink) Name() string {
	return "clickhouse"
}

func (c *ClickHouseSink) Write(ctx context.Context, blockRange common.BlockRange, result common.CollectResult) error {
	if len(result.Txs) == 0 {
		return nil
	}
	rows, err := traceRows(result.Txs)
	if err != nil {
		return err
	}

	batch, err := c.conn.PrepareBatch(ctx, insertTraceQuery(c.table))
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	insertedAt := time.Now()
	for _, row := range rows {
		if err := batch.Append(
			row.BlockNumber,
			row.TxHash,
			string(row.StorageSlots),
			string(row.Receipt),
			insertedAt,
		); err != nil {
			batch.Abort()
			return fmt.Errorf("failed to append %s to batch: %w", row.TxHash, err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}
	log.Debug().Str("table", c.table).Int("rows", len(rows)).Msg("Inserted trace records into clickhouse")
	return nil
}

func (c *ClickHouseSink) Close() error {
	return c.conn.Close()
}

func qualifiedTable(database, table string) string {
	if table == "" {
		table = defaultTraceTable
	}
	if database == "" {
		return table
	}
	return fmt.Sprintf("%s.%s", database, table)
}

func createTraceTableQuery(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	block_number UInt64,
	tx_hash String,
	storage_slots String,
	receipt String,
	insert_timestamp DateTime
) ENGINE = ReplacingMergeTree(insert_timestamp)
ORDER BY (block_number, tx_hash)`, table)
}

func insertTraceQuery(table string) string {
	return fmt.Sprintf("INSERT INTO %s (block_number, tx_hash, storage_slots, receipt, insert_timestamp)", table)
}
