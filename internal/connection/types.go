package connection

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rickgao/market-pulse/internal/backoff"
)

// Errors
var (
	ErrNotConnected  = errors.New("not connected")
	ErrAlreadyClosed = errors.New("already closed")
)

// State is the lifecycle state of the push channel.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// TransportError wraps a failure of the underlying channel. The manager
// recovers from it by reconnecting; it is never returned to callers of
// Connect.
type TransportError struct {
	Op  string // "dial", "read" or "write"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("push %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Frame is an outbound {type, data} message.
type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// SubscribeData is the payload of a subscribe frame.
type SubscribeData struct {
	Symbol string `json:"symbol"`
}

// Outbound frame types.
const (
	FrameHeartbeat = "heartbeat"
	FrameSubscribe = "subscribe"
)

// ManagerConfig configures the Manager.
type ManagerConfig struct {
	URL               string         // Push URL (see PushURL)
	HeartbeatInterval time.Duration  // Interval between heartbeat frames
	ReconnectPolicy   backoff.Policy // Delay before reconnect attempt n
	ReconnectAttempts int            // Consecutive failed attempts before giving up; 0 = never give up
	DialTimeout       time.Duration  // Timeout for a single dial
	Clock             clockwork.Clock
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		HeartbeatInterval: 30 * time.Second,
		ReconnectPolicy:   backoff.Constant(backoff.DefaultReconnectDelay),
		ReconnectAttempts: 0,
		DialTimeout:       10 * time.Second,
	}
}

// Hooks are optional callbacks. OnStateChange runs with the manager's lock
// held and must not call back into the Manager; the others run without it.
type Hooks struct {
	// OnMessage receives every inbound frame of the current connection.
	OnMessage func(data []byte, receivedAt time.Time)

	// OnOpen runs after each successful (re)connect.
	OnOpen func()

	// OnStateChange observes every state transition.
	OnStateChange func(from, to State)

	// OnHeartbeat reports the outcome of each heartbeat send.
	OnHeartbeat func(err error)

	// OnReconnectScheduled reports each scheduled reconnect.
	OnReconnectScheduled func(attempt int, delay time.Duration)

	// OnGiveUp runs when ReconnectAttempts is exhausted.
	OnGiveUp func(attempts int)
}

// ManagerStats provides statistics about the manager.
type ManagerStats struct {
	State               State
	Attempts            int // Consecutive failed attempts since the last open
	GaveUp              bool
	Connects            int64
	Disconnects         int64
	ReconnectsScheduled int64
	HeartbeatsSent      int64
	HeartbeatsFailed    int64
	MessagesReceived    int64
	LastConnectedAt     time.Time
}
