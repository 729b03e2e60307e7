package storage

import (
	"context"

	"go.uber.org/zap"
)

// ConsoleStorage implements Storage by logging fills instead of persisting
// them. It is the default when no database is configured.
type ConsoleStorage struct {
	logger *zap.Logger
}

// NewConsoleStorage creates a console storage.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{logger: logger}
}

// StoreFill logs the fill record.
func (c *ConsoleStorage) StoreFill(ctx context.Context, record *FillRecord) error {
	fillsStored.Inc()
	c.logger.Info("order-fill",
		zap.String("order-id", record.OrderID),
		zap.String("market-id", record.MarketID),
		zap.String("outcome", record.Outcome),
		zap.String("side", record.Side),
		zap.String("event", record.Event),
		zap.Float64("price", record.Price),
		zap.Float64("fill-size", record.FillSize),
		zap.Float64("filled-size", record.FilledSize),
		zap.Float64("order-size", record.OrderSize))
	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}
