package websocket

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// PoolConfig holds connection pool configuration.
type PoolConfig struct {
	Size                  int
	URL                   string
	DialTimeout           time.Duration
	PongTimeout           time.Duration
	PingInterval          time.Duration
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration
	ReconnectBackoffMult  float64
	ReconnectMaxAttempts  int
	MessageBufferSize     int
	Logger                *zap.Logger
}

// Pool shards asset subscriptions across multiple stream connections so a
// single venue-imposed per-connection subscription cap does not bound the
// number of watched assets. Assets are routed to connections by stable hash,
// and all inbound messages are multiplexed onto one channel.
type Pool struct {
	cfg          PoolConfig
	managers     []*Manager
	assetToIndex map[string]int
	mu           sync.RWMutex
	messageChan  chan json.RawMessage
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	logger       *zap.Logger
}

// NewPool creates a pool of Size stream connections.
func NewPool(cfg PoolConfig) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Size <= 0 {
		cfg.Size = 1
	}

	pool := &Pool{
		cfg:          cfg,
		managers:     make([]*Manager, cfg.Size),
		assetToIndex: make(map[string]int),
		messageChan:  make(chan json.RawMessage, cfg.Size*cfg.MessageBufferSize),
		ctx:          ctx,
		cancel:       cancel,
		logger:       logger,
	}

	for i := range pool.managers {
		pool.managers[i] = New(Config{
			URL:                   cfg.URL,
			DialTimeout:           cfg.DialTimeout,
			PongTimeout:           cfg.PongTimeout,
			PingInterval:          cfg.PingInterval,
			ReconnectInitialDelay: cfg.ReconnectInitialDelay,
			ReconnectMaxDelay:     cfg.ReconnectMaxDelay,
			ReconnectBackoffMult:  cfg.ReconnectBackoffMult,
			ReconnectMaxAttempts:  cfg.ReconnectMaxAttempts,
			MessageBufferSize:     cfg.MessageBufferSize,
			Logger:                logger.With(zap.Int("connection-id", i)),
		})
	}

	return pool
}

// Connect opens all pooled connections and starts the multiplexer.
func (p *Pool) Connect(ctx context.Context) error {
	p.logger.Info("stream-pool-connecting", zap.Int("pool-size", len(p.managers)))

	var errs []error
	for i, mgr := range p.managers {
		if err := mgr.Connect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("connection %d: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	for _, mgr := range p.managers {
		p.wg.Add(1)
		go p.forward(mgr)
	}
	return nil
}

// forward copies one connection's messages onto the shared channel.
func (p *Pool) forward(mgr *Manager) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case msg, ok := <-mgr.Messages():
			if !ok {
				return
			}
			select {
			case p.messageChan <- msg:
			default:
				MessagesDroppedTotal.Inc()
			}
		}
	}
}

// route returns the connection index for an asset, assigning one by stable
// hash on first sight.
func (p *Pool) route(assetID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if idx, ok := p.assetToIndex[assetID]; ok {
		return idx
	}
	idx := int(crc32.ChecksumIEEE([]byte(assetID))) % len(p.managers)
	p.assetToIndex[assetID] = idx
	return idx
}

// Subscribe routes each asset to its connection and subscribes there.
func (p *Pool) Subscribe(ctx context.Context, assetIDs []string) error {
	byConn := make(map[int][]string)
	for _, id := range assetIDs {
		idx := p.route(id)
		byConn[idx] = append(byConn[idx], id)
	}

	var errs []error
	for idx, ids := range byConn {
		if err := p.managers[idx].Subscribe(ctx, ids); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Unsubscribe removes assets from their assigned connection.
func (p *Pool) Unsubscribe(ctx context.Context, assetIDs []string) error {
	byConn := make(map[int][]string)
	p.mu.Lock()
	for _, id := range assetIDs {
		if idx, ok := p.assetToIndex[id]; ok {
			byConn[idx] = append(byConn[idx], id)
			delete(p.assetToIndex, id)
		}
	}
	p.mu.Unlock()

	var errs []error
	for idx, ids := range byConn {
		if err := p.managers[idx].Unsubscribe(ctx, ids); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Messages returns the multiplexed inbound message channel.
func (p *Pool) Messages() <-chan json.RawMessage {
	return p.messageChan
}

// States returns the state of each pooled connection.
func (p *Pool) States() []ConnectionState {
	states := make([]ConnectionState, len(p.managers))
	for i, mgr := range p.managers {
		states[i] = mgr.State()
	}
	return states
}

// Close closes all pooled connections.
func (p *Pool) Close() error {
	p.logger.Info("stream-pool-closing")

	for _, mgr := range p.managers {
		mgr.Close()
	}
	p.cancel()
	p.wg.Wait()
	close(p.messageChan)

	p.logger.Info("stream-pool-closed")
	return nil
}
