// Package websocket maintains persistent market-data stream connections with
// automatic reconnection and subscription replay.
package websocket

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/predictkit/predictkit/pkg/types"
)

// Manager manages a single stream connection. It owns one reader goroutine
// per open transport, a heartbeat timer and a reconnect supervisor, all
// sharing a lock-protected subscription registry.
//
// The subscription set survives reconnects: on every successful reconnect
// the entire current set is replayed, since the venue offers no server-side
// resume.
type Manager struct {
	url          string
	config       Config
	logger       *zap.Logger
	reconnectMgr *ReconnectManager

	messageChan chan json.RawMessage
	disconnects chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.RWMutex
	conn       *websocket.Conn
	subscribed map[string]bool

	state           atomic.Int32
	lastPongTime    atomic.Int64
	connectionStart atomic.Int64
	loopsOnce       sync.Once
	closeOnce       sync.Once
}

// Config holds stream connection configuration.
type Config struct {
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

// New creates a stream connection manager. The connection is not opened
// until Connect is called.
func New(cfg Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	reconnectCfg := ReconnectConfig{
		InitialDelay:      cfg.ReconnectInitialDelay,
		MaxDelay:          cfg.ReconnectMaxDelay,
		BackoffMultiplier: cfg.ReconnectBackoffMult,
		JitterPercent:     0.2,
		MaxAttempts:       cfg.ReconnectMaxAttempts,
	}

	return &Manager{
		url:          cfg.URL,
		config:       cfg,
		logger:       logger,
		reconnectMgr: NewReconnectManager(reconnectCfg, logger),
		messageChan:  make(chan json.RawMessage, cfg.MessageBufferSize),
		disconnects:  make(chan struct{}, 1),
		subscribed:   make(map[string]bool),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// State returns the current connection state.
func (m *Manager) State() ConnectionState {
	return ConnectionState(m.state.Load())
}

func (m *Manager) setState(s ConnectionState) {
	m.state.Store(int32(s))
	ConnectionStateGauge.Set(float64(s))
}

// Connect opens the transport and starts the reader, heartbeat and
// reconnect supervisor. Calling Connect on a Closed manager fails; calling
// it while already connected or reconnecting is a no-op.
func (m *Manager) Connect(ctx context.Context) error {
	switch m.State() {
	case StateClosed:
		return fmt.Errorf("%w: manager is closed", types.ErrConnection)
	case StateConnected, StateConnecting, StateReconnecting:
		return nil
	}

	m.setState(StateConnecting)
	m.logger.Info("connecting-to-stream", zap.String("url", m.url))

	if err := m.dial(ctx); err != nil {
		m.setState(StateDisconnected)
		return err
	}

	m.setState(StateConnected)
	m.startLoops()

	if err := m.replaySubscriptions(); err != nil {
		// No reader exists yet to observe a closed transport, so hand the
		// failure to the supervisor directly.
		m.logger.Warn("initial-subscription-replay-failed", zap.Error(err))
		m.setState(StateReconnecting)
		m.failTransport()
		m.signalDisconnect()
		return nil
	}

	m.startReader()
	return nil
}

// dial establishes the transport and installs the pong handler.
func (m *Manager) dial(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: m.config.DialTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, m.url, nil)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", types.ErrConnection, m.url, err)
	}

	conn.SetPongHandler(func(string) error {
		m.lastPongTime.Store(time.Now().UnixNano())
		return nil
	})

	m.mu.Lock()
	m.conn = conn
	m.mu.Unlock()

	now := time.Now()
	m.lastPongTime.Store(now.UnixNano())
	m.connectionStart.Store(now.Unix())
	ActiveConnections.Set(1)

	m.logger.Info("stream-connected")
	return nil
}

func (m *Manager) startLoops() {
	m.loopsOnce.Do(func() {
		m.wg.Add(2)
		go m.pingLoop()
		go m.superviseReconnect()
	})
}

func (m *Manager) startReader() {
	m.mu.RLock()
	conn := m.conn
	m.mu.RUnlock()

	m.wg.Add(1)
	go m.readLoop(conn)
}

// Subscribe adds asset ids to the registry and, when connected, sends the
// subscription immediately. When not connected the change is remembered and
// applied on the next successful connect.
func (m *Manager) Subscribe(ctx context.Context, assetIDs []string) error {
	if len(assetIDs) == 0 {
		return nil
	}

	m.mu.Lock()
	newAssets := make([]string, 0, len(assetIDs))
	for _, id := range assetIDs {
		if !m.subscribed[id] {
			newAssets = append(newAssets, id)
			m.subscribed[id] = true
		}
	}
	initial := len(m.subscribed) == len(newAssets)
	total := len(m.subscribed)
	conn := m.conn
	m.mu.Unlock()

	SubscriptionCount.Set(float64(total))
	if len(newAssets) == 0 {
		m.logger.Debug("all-assets-already-subscribed")
		return nil
	}

	if m.State() != StateConnected || conn == nil {
		m.logger.Debug("subscription-deferred-until-connect",
			zap.Int("count", len(newAssets)))
		return nil
	}

	msg := subscribeMessage(newAssets, initial)
	if err := conn.WriteJSON(msg); err != nil {
		// The registry keeps the assets; the next reconnect replays them.
		return fmt.Errorf("%w: write subscribe message: %v", types.ErrConnection, err)
	}

	m.logger.Info("subscribed-to-assets",
		zap.Int("new-count", len(newAssets)),
		zap.Int("total-count", total))
	return nil
}

// Unsubscribe removes asset ids from the registry and, when connected,
// sends the unsubscription immediately.
func (m *Manager) Unsubscribe(ctx context.Context, assetIDs []string) error {
	if len(assetIDs) == 0 {
		return nil
	}

	m.mu.Lock()
	removed := make([]string, 0, len(assetIDs))
	for _, id := range assetIDs {
		if m.subscribed[id] {
			removed = append(removed, id)
			delete(m.subscribed, id)
		}
	}
	total := len(m.subscribed)
	conn := m.conn
	m.mu.Unlock()

	SubscriptionCount.Set(float64(total))
	if len(removed) == 0 {
		m.logger.Debug("no-assets-to-unsubscribe")
		return nil
	}
	UnsubscriptionsTotal.Add(float64(len(removed)))

	if m.State() != StateConnected || conn == nil {
		return nil
	}

	msg := map[string]interface{}{
		"assets_ids": removed,
		"operation":  "unsubscribe",
	}
	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("%w: write unsubscribe message: %v", types.ErrConnection, err)
	}

	m.logger.Info("unsubscribed-from-assets",
		zap.Int("count", len(removed)),
		zap.Int("remaining-count", total))
	return nil
}

// Subscriptions returns the current subscription set.
func (m *Manager) Subscriptions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.subscribed))
	for id := range m.subscribed {
		out = append(out, id)
	}
	return out
}

func subscribeMessage(assetIDs []string, initial bool) map[string]interface{} {
	if initial {
		return map[string]interface{}{
			"assets_ids": assetIDs,
			"type":       "market",
		}
	}
	return map[string]interface{}{
		"assets_ids": assetIDs,
		"operation":  "subscribe",
	}
}

// readLoop drains the transport until it fails, forwarding each message
// element to the outbound channel. Malformed frames are logged and skipped;
// they never tear down the connection.
func (m *Manager) readLoop(conn *websocket.Conn) {
	defer m.wg.Done()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if start := m.connectionStart.Load(); start > 0 {
				ConnectionDuration.Observe(time.Since(time.Unix(start, 0)).Seconds())
			}
			ActiveConnections.Set(0)

			select {
			case <-m.ctx.Done():
				// Close in progress; the terminal state is already set.
				return
			default:
			}

			m.logger.Warn("read-error", zap.Error(err))
			m.setState(StateReconnecting)
			m.signalDisconnect()
			return
		}

		m.dispatch(message)
	}
}

// dispatch splits a venue frame (an array of event objects) into individual
// messages and forwards them without blocking.
func (m *Manager) dispatch(message []byte) {
	var elements []json.RawMessage
	if err := json.Unmarshal(message, &elements); err != nil {
		// Not an array: heartbeats and subscription confirmations arrive as
		// bare objects or empty payloads.
		if len(message) < 10 {
			m.logger.Debug("stream-heartbeat-received", zap.Int("bytes", len(message)))
			return
		}
		var control map[string]interface{}
		if json.Unmarshal(message, &control) == nil {
			m.logger.Debug("stream-control-message", zap.Int("bytes", len(message)))
			return
		}
		ProtocolErrorsTotal.Inc()
		m.logger.Debug("stream-unparseable-message",
			zap.Error(fmt.Errorf("%w: %v", types.ErrProtocol, err)),
			zap.Int("bytes", len(message)))
		return
	}

	for _, el := range elements {
		MessagesReceivedTotal.Inc()
		select {
		case m.messageChan <- el:
		default:
			m.logger.Warn("message-channel-full")
			MessagesDroppedTotal.Inc()
		}
	}
}

// pingLoop sends heartbeats on a fixed timer. A failed heartbeat or a stale
// pong is treated as a transport error and forces the reconnect path.
func (m *Manager) pingLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			if m.State() != StateConnected {
				continue
			}

			m.mu.RLock()
			conn := m.conn
			m.mu.RUnlock()
			if conn == nil {
				continue
			}

			if m.config.PongTimeout > 0 {
				lastPong := time.Unix(0, m.lastPongTime.Load())
				if time.Since(lastPong) > m.config.PongTimeout {
					m.logger.Warn("pong-timeout", zap.Time("last_pong", lastPong))
					m.failTransport()
					continue
				}
			}

			err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(time.Second))
			if err != nil {
				m.logger.Warn("ping-error", zap.Error(err))
				m.failTransport()
			}
		}
	}
}

// failTransport closes the current transport so the reader observes the
// failure and enters the reconnect path.
func (m *Manager) failTransport() {
	m.mu.RLock()
	conn := m.conn
	m.mu.RUnlock()
	if conn != nil {
		conn.Close()
	}
}

// superviseReconnect restores the transport after a drop. The full
// subscription set is replayed on every success. After the attempt budget is
// exhausted the manager settles into Disconnected and waits for an explicit
// Connect.
func (m *Manager) superviseReconnect() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-m.disconnects:
		}

		if m.State() == StateClosed {
			return
		}

		m.logger.Warn("connection-lost-initiating-reconnect")

		err := m.reconnectMgr.Reconnect(m.ctx, m.dial)
		if err != nil {
			if m.ctx.Err() != nil {
				return
			}
			m.logger.Error("reconnection-abandoned", zap.Error(err))
			m.setState(StateDisconnected)
			continue
		}

		m.setState(StateConnected)

		if err := m.replaySubscriptions(); err != nil {
			m.logger.Error("resubscribe-failed", zap.Error(err))
			m.setState(StateReconnecting)
			m.failTransport()
			m.signalDisconnect()
			continue
		}

		m.startReader()
	}
}

// replaySubscriptions re-sends the entire subscription set.
func (m *Manager) replaySubscriptions() error {
	m.mu.RLock()
	assetIDs := make([]string, 0, len(m.subscribed))
	for id := range m.subscribed {
		assetIDs = append(assetIDs, id)
	}
	conn := m.conn
	m.mu.RUnlock()

	if len(assetIDs) == 0 || conn == nil {
		return nil
	}

	if err := conn.WriteJSON(subscribeMessage(assetIDs, true)); err != nil {
		return fmt.Errorf("%w: write resubscribe message: %v", types.ErrConnection, err)
	}

	m.logger.Info("resubscribed-to-all-assets", zap.Int("count", len(assetIDs)))
	return nil
}

func (m *Manager) signalDisconnect() {
	select {
	case m.disconnects <- struct{}{}:
	default:
	}
}

// Messages returns the channel of raw inbound message elements.
func (m *Manager) Messages() <-chan json.RawMessage {
	return m.messageChan
}

// Close transitions to the terminal Closed state, stops all goroutines and
// suppresses any reconnect already in flight. It is idempotent.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		m.logger.Info("closing-stream-manager")

		m.setState(StateClosed)
		m.cancel()

		m.mu.RLock()
		if m.conn != nil {
			m.conn.Close()
		}
		m.mu.RUnlock()

		m.wg.Wait()
		close(m.messageChan)
		ActiveConnections.Set(0)

		m.logger.Info("stream-manager-closed")
	})
	return nil
}
