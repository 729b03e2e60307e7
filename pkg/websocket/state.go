package websocket

// ConnectionState is the lifecycle state of a stream connection.
type ConnectionState int32

const (
	// StateDisconnected means no transport is open and no reconnect is in
	// flight. Connect may be called.
	StateDisconnected ConnectionState = iota

	// StateConnecting means an initial dial is in progress.
	StateConnecting

	// StateConnected means the transport is open and the reader is running.
	StateConnected

	// StateReconnecting means the transport dropped and the backoff loop is
	// attempting to restore it.
	StateReconnecting

	// StateClosed is terminal. No further reconnection occurs and Connect
	// returns an error.
	StateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
