package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/predictkit/predictkit/internal/storage"
	"github.com/predictkit/predictkit/internal/tracker"
	"github.com/predictkit/predictkit/pkg/websocket"
)

// Run starts the application and blocks until a shutdown signal.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.String("log-level", a.cfg.LogLevel),
		zap.String("storage-mode", a.cfg.StorageMode))

	if err := a.startComponents(); err != nil {
		return err
	}

	a.healthChecker.SetReady(true)

	a.logger.Info("application-ready",
		zap.String("http-addr", ":"+a.cfg.HTTPPort),
		zap.String("ws-url", a.cfg.WSURL))

	return a.waitForShutdown()
}

func (a *App) startComponents() error {
	a.wg.Add(1)
	go a.runHTTPServer()

	assetIDs, err := a.resolveAssetIDs(a.ctx)
	if err != nil {
		return err
	}

	if err := a.wsPool.Connect(a.ctx); err != nil {
		return fmt.Errorf("connect stream pool: %w", err)
	}
	a.healthChecker.RegisterCheck("stream", a.streamCheck)

	if len(assetIDs) > 0 {
		if err := a.wsPool.Subscribe(a.ctx, assetIDs); err != nil {
			return fmt.Errorf("subscribe assets: %w", err)
		}
		a.logger.Info("assets-subscribed", zap.Int("count", len(assetIDs)))
	}

	a.wg.Add(1)
	go a.runSynchronizer()

	a.tracker.OnFill(a.persistFill)

	return nil
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

func (a *App) runSynchronizer() {
	defer a.wg.Done()
	a.books.Run(a.ctx, a.wsPool.Messages())
}

// streamCheck reports unhealthy when every pool connection is down.
func (a *App) streamCheck() error {
	states := a.wsPool.States()
	for _, state := range states {
		if state == websocket.StateConnected {
			return nil
		}
	}
	return fmt.Errorf("no connected stream (states: %v)", states)
}

// persistFill records tracker events through the configured storage.
func (a *App) persistFill(ev tracker.Event) {
	record := storage.RecordFromEvent(ev)
	if err := a.storage.StoreFill(a.ctx, record); err != nil {
		a.logger.Error("store-fill-failed",
			zap.String("order-id", record.OrderID),
			zap.Error(err))
	}
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}
