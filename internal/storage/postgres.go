package storage

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	config "github.com/thirdweb-dev/tracecollector/configs"
	"github.com/thirdweb-dev/tracecollector/internal/common"
)

var tableNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

type PostgresSink struct {
	db    *sql.DB
	table string
}

func NewPostgresSink(ctx context.Context, cfg *config.PostgresConfig) (*PostgresSink, error) {
	table := cfg.Table
	if table == "" {
		table = defaultTraceTable
	}
	if !tableNameRegex.MatchString(table) {
		return nil, fmt.Errorf("invalid postgres table name %q", table)
	}

	db, err := sql.Open("postgres", postgresConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, createPostgresTableQuery(table)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create postgres table %s: %w", table, err)
	}

	return &PostgresSink{db: db, table: table}, nil
}

func postgresConnString(cfg *config.PostgresConfig) string {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database)

	// Default to "require" for security if SSL mode not specified
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}
	connStr += fmt.Sprintf(" sslmode=%s", sslMode)

	if cfg.ConnectTimeout > 0 {
		connStr += fmt.Sprintf(" connect_timeout=%d", cfg.ConnectTimeout)
	}
	return connStr
}

func (p *PostgresSink) Name() string {
	return "postgres"
}

func (p *PostgresSink) Write(ctx context.Context, blockRange common.BlockRange, result common.CollectResult) error {
	if len(result.Txs) == 0 {
		return nil
	}
	rows, err := traceRows(result.Txs)
	if err != nil {
		return err
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertPostgresQuery(p.table))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, int64(row.BlockNumber), row.TxHash, string(row.StorageSlots), string(row.Receipt)); err != nil {
			return fmt.Errorf("failed to insert %s: %w", row.TxHash, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	log.Debug().Str("table", p.table).Int("rows", len(rows)).Msg("Inserted trace records into postgres")
	return nil
}

func (p *PostgresSink) Close() error {
	return p.db.Close()
}

func createPostgresTableQuery(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	block_number BIGINT NOT NULL,
	tx_hash TEXT NOT NULL,
	storage_slots JSONB NOT NULL,
	receipt JSONB,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (block_number, tx_hash)
)`, table)
}

func upsertPostgresQuery(table string) string {
	return fmt.Sprintf(`INSERT INTO %s (block_number, tx_hash, storage_slots, receipt)
	VALUES ($1, $2, $3::jsonb, $4::jsonb)
	ON CONFLICT (block_number, tx_hash)
	DO UPDATE SET storage_slots = EXCLUDED.storage_slots, receipt = EXCLUDED.receipt, updated_at = NOW()`, table)
}
