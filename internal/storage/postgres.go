package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// PostgresStorage implements Storage using PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage opens a connection and verifies it with a ping.
func NewPostgresStorage(cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStorage{db: db, logger: logger}, nil
}

// NewPostgresStorageFromDB wraps an existing connection, used by tests.
func NewPostgresStorageFromDB(db *sql.DB, logger *zap.Logger) *PostgresStorage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStorage{db: db, logger: logger}
}

// StoreFill inserts one fill record.
func (p *PostgresStorage) StoreFill(ctx context.Context, record *FillRecord) error {
	query := `
		INSERT INTO order_fills (
			id, order_id, market_id, outcome, side, event,
			price, fill_size, filled_size, order_size, recorded_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	_, err := p.db.ExecContext(ctx, query,
		record.ID,
		record.OrderID,
		record.MarketID,
		record.Outcome,
		record.Side,
		record.Event,
		record.Price,
		record.FillSize,
		record.FilledSize,
		record.OrderSize,
		record.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("insert fill: %w", err)
	}

	fillsStored.Inc()
	p.logger.Debug("fill-stored",
		zap.String("record-id", record.ID),
		zap.String("order-id", record.OrderID),
		zap.String("event", record.Event))

	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}
