// Package app wires the client's components together and runs them.
package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/predictkit/predictkit/internal/exchange"
	"github.com/predictkit/predictkit/internal/markets"
	"github.com/predictkit/predictkit/internal/orderbook"
	"github.com/predictkit/predictkit/internal/storage"
	"github.com/predictkit/predictkit/internal/tracker"
	"github.com/predictkit/predictkit/pkg/config"
	"github.com/predictkit/predictkit/pkg/healthprobe"
	"github.com/predictkit/predictkit/pkg/httpserver"
	"github.com/predictkit/predictkit/pkg/websocket"
)

// App is the application orchestrator: it owns the stream pool, the book
// synchronizer, the order tracker, storage and the debug HTTP server.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	registry      *exchange.Registry
	metadata      *markets.Service
	wsPool        *websocket.Pool
	books         *orderbook.Synchronizer
	tracker       *tracker.Tracker
	storage       storage.Storage
	opts          *Options

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Options holds run options.
type Options struct {
	// MarketIDs are markets whose outcome tokens should be streamed.
	MarketIDs []string
	// AssetIDs are token ids to stream directly, without market lookups.
	AssetIDs []string
}

// Tracker returns the order tracker.
func (a *App) Tracker() *tracker.Tracker { return a.tracker }

// Books returns the book synchronizer.
func (a *App) Books() *orderbook.Synchronizer { return a.books }

// Registry returns the venue registry.
func (a *App) Registry() *exchange.Registry { return a.registry }
