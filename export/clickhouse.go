package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	"github.com/sgoldberg/nocogo/nocodb"
)

type ClickHouseSinkConfig struct {
	Addr     []string `yaml:"addr"`
	Database string   `yaml:"database"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`

	// Table is the destination table; created on connect if missing.
	Table string `yaml:"table"`
}

// ClickHouseSink batches exported records into a ClickHouse table. Field
// maps land in a JSON column, so the destination needs no per-table schema.
type ClickHouseSink struct {
	conn driver.Conn
	cfg  ClickHouseSinkConfig
}

func NewClickHouseSink(cfg ClickHouseSinkConfig) (*ClickHouseSink, error) {
	if cfg.Table == "" {
		cfg.Table = "nocodb_records"
	}
	return &ClickHouseSink{cfg: cfg}, nil
}

func (s *ClickHouseSink) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: s.cfg.Addr,
		Auth: clickhouse.Auth{
			Database: s.cfg.Database,
			Username: s.cfg.Username,
			Password: s.cfg.Password,
		},
		Settings: clickhouse.Settings{
			"allow_experimental_json_type": 1,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping the database: %w", err)
	}

	s.conn = conn

	return s.setupTable(ctx)
}

func (s *ClickHouseSink) setupTable(ctx context.Context) error {
	err := s.conn.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			batch_id UUID,
			record_id String,
			exported_at DateTime64(3),
			fields JSON
		)
		ENGINE = MergeTree
		ORDER BY (batch_id, record_id)
		PARTITION BY toYYYYMM(exported_at)
	`, s.cfg.Table))
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

func (s *ClickHouseSink) Write(ctx context.Context, batchID uuid.UUID, records []nocodb.Record) error {
	if len(records) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 1*time.Minute)
	defer cancel()

	batch, err := s.conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s (batch_id, record_id, exported_at, fields)", s.cfg.Table))
	if err != nil {
		return fmt.Errorf("couldn't prepare batch: %w", err)
	}

	now := time.Now().UTC()
	for _, r := range records {
		fields, err := json.Marshal(r.Fields)
		if err != nil {
			return fmt.Errorf("couldn't encode record fields: %w", err)
		}

		if err := batch.Append(batchID, fmt.Sprint(r.ID), now, string(fields)); err != nil {
			return fmt.Errorf("couldn't append record to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("couldn't send batch: %w", err)
	}

	return nil
}

func (s *ClickHouseSink) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
