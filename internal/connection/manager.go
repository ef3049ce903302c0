package connection

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rickgao/market-pulse/internal/backoff"
	"github.com/rickgao/market-pulse/internal/schedule"
)

// Manager owns the push channel and drives its state machine:
//
//	Disconnected --Connect--> Connecting --open--> Connected
//	Connecting/Connected --close or dial error--> Disconnected (reconnect scheduled)
//	any --Shutdown--> Closing (terminal)
//
// Every dial starts a new generation. Events from an older generation are
// ignored, so a late close from a replaced connection never schedules a
// second reconnect.
type Manager struct {
	cfg       ManagerConfig
	transport Transport
	hooks     Hooks
	logger    *slog.Logger
	clock     clockwork.Clock

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// At most one of each
	heartbeat schedule.Slot
	reconnect schedule.Slot

	mu       sync.Mutex
	state    State
	gen      uint64
	conn     Conn
	attempts int
	gaveUp   bool

	// Stats
	connects            int64
	disconnects         int64
	reconnectsScheduled int64
	heartbeatsSent      int64
	heartbeatsFailed    int64
	messagesReceived    int64
	lastConnectedAt     time.Time
}

// NewManager creates a Manager in the Disconnected state.
func NewManager(cfg ManagerConfig, transport Transport, hooks Hooks, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.ReconnectPolicy == nil {
		cfg.ReconnectPolicy = backoff.Constant(backoff.DefaultReconnectDelay)
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultManagerConfig().HeartbeatInterval
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultManagerConfig().DialTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		cfg:       cfg,
		transport: transport,
		hooks:     hooks,
		logger:    logger,
		clock:     cfg.Clock,
		ctx:       ctx,
		cancel:    cancel,
		state:     StateDisconnected,
	}
}

// Connect starts a dial when the manager is Disconnected. In any other
// state it does nothing. It does not wait for the dial to finish.
func (m *Manager) Connect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateDisconnected {
		return
	}

	// An explicit connect replaces any pending reconnect and clears a
	// previous give-up.
	m.reconnect.Stop()
	m.attempts = 0
	m.gaveUp = false

	m.dialLocked()
}

// Shutdown moves the manager to Closing, cancels the heartbeat and any
// pending reconnect, closes the channel and waits for the manager's
// goroutines. No hook fires after Shutdown returns.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.state == StateClosing {
		m.mu.Unlock()
		return nil
	}
	m.logger.Info("stopping push channel")
	m.setStateLocked(StateClosing)
	m.gen++
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	heartbeat := m.heartbeat.Take()
	heartbeat.Stop()
	m.reconnect.Stop()
	m.cancel()

	// Closing unblocks a heartbeat write still in flight.
	if conn != nil {
		conn.Close()
	}

	// Wait for goroutines with timeout
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		heartbeat.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("push channel stopped")
		return nil
	case <-ctx.Done():
		m.logger.Warn("push channel stop timed out")
		return ctx.Err()
	}
}

// Send writes a {type, data} frame. It returns ErrNotConnected unless the
// channel is Connected.
func (m *Manager) Send(frameType string, data any) error {
	frame, err := json.Marshal(Frame{Type: frameType, Data: data})
	if err != nil {
		return err
	}
	return m.write(0, frame)
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// HeartbeatActive reports whether a heartbeat task is scheduled.
func (m *Manager) HeartbeatActive() bool {
	return m.heartbeat.Active()
}

// ReconnectPending reports whether a reconnect is scheduled.
func (m *Manager) ReconnectPending() bool {
	return m.reconnect.Active()
}

// Stats returns current statistics.
func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return ManagerStats{
		State:               m.state,
		Attempts:            m.attempts,
		GaveUp:              m.gaveUp,
		Connects:            m.connects,
		Disconnects:         m.disconnects,
		ReconnectsScheduled: m.reconnectsScheduled,
		HeartbeatsSent:      m.heartbeatsSent,
		HeartbeatsFailed:    m.heartbeatsFailed,
		MessagesReceived:    m.messagesReceived,
		LastConnectedAt:     m.lastConnectedAt,
	}
}

// setStateLocked records a transition and notifies OnStateChange.
func (m *Manager) setStateLocked(to State) {
	from := m.state
	if from == to {
		return
	}
	m.state = to
	if m.hooks.OnStateChange != nil {
		m.hooks.OnStateChange(from, to)
	}
}

// dialLocked starts a new generation and dials it asynchronously.
func (m *Manager) dialLocked() {
	m.gen++
	gen := m.gen
	m.setStateLocked(StateConnecting)

	m.wg.Add(1)
	go m.dial(gen)
}

func (m *Manager) dial(gen uint64) {
	defer m.wg.Done()

	ctx, cancel := context.WithTimeout(m.ctx, m.cfg.DialTimeout)
	conn, err := m.transport.Dial(ctx, m.cfg.URL)
	cancel()

	m.mu.Lock()
	if gen != m.gen || m.state != StateConnecting {
		m.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}

	if err != nil {
		terr := &TransportError{Op: "dial", Err: err}
		m.logger.Warn("push channel dial failed", "url", m.cfg.URL, "attempt", m.attempts+1, "error", terr)
		ev := m.handleDownLocked()
		m.mu.Unlock()
		m.notifyDown(ev)
		return
	}

	m.conn = conn
	m.attempts = 0
	m.connects++
	m.lastConnectedAt = m.clock.Now()
	m.setStateLocked(StateConnected)
	m.startHeartbeatLocked(gen)

	m.wg.Add(1)
	go m.readLoop(gen, conn)
	m.mu.Unlock()

	m.logger.Info("push channel connected", "url", m.cfg.URL)

	if m.hooks.OnOpen != nil {
		m.hooks.OnOpen()
	}
}

// readLoop forwards frames until the connection fails.
func (m *Manager) readLoop(gen uint64, conn Conn) {
	defer m.wg.Done()

	for {
		data, err := conn.ReadMessage()
		receivedAt := m.clock.Now() // Capture timestamp immediately

		if err != nil {
			m.handleClose(gen, err)
			return
		}

		m.mu.Lock()
		current := gen == m.gen
		if current {
			m.messagesReceived++
		}
		m.mu.Unlock()

		if !current {
			return
		}

		if m.hooks.OnMessage != nil {
			m.hooks.OnMessage(data, receivedAt)
		}
	}
}

// handleClose moves a Connected generation to Disconnected.
func (m *Manager) handleClose(gen uint64, err error) {
	m.mu.Lock()
	if gen != m.gen || m.state != StateConnected {
		m.mu.Unlock()
		return
	}

	m.logger.Warn("push channel closed", "error", &TransportError{Op: "read", Err: err})

	conn := m.conn
	m.conn = nil
	ev := m.handleDownLocked()
	m.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	m.notifyDown(ev)
}

// downEvent describes the outcome of a down transition.
type downEvent struct {
	gaveUp   bool
	attempts int
	delay    time.Duration
}

// handleDownLocked performs the close/error transition: stop the
// heartbeat, go Disconnected and schedule the next reconnect, unless the
// reconnect budget is exhausted.
func (m *Manager) handleDownLocked() downEvent {
	m.gen++
	m.disconnects++
	m.heartbeat.Stop()
	m.setStateLocked(StateDisconnected)

	if m.cfg.ReconnectAttempts > 0 && m.attempts >= m.cfg.ReconnectAttempts {
		m.gaveUp = true
		m.logger.Error("push channel reconnect attempts exhausted",
			"attempts", m.attempts,
		)
		return downEvent{gaveUp: true, attempts: m.attempts}
	}

	delay := m.cfg.ReconnectPolicy.Delay(m.attempts)
	m.attempts++
	m.reconnectsScheduled++
	m.reconnect.Set(schedule.After(m.clock, delay, m.reconnectNow))

	m.logger.Info("scheduling reconnect",
		"attempt", m.attempts,
		"delay", delay,
	)

	return downEvent{attempts: m.attempts, delay: delay}
}

// notifyDown fires the hooks for a completed down transition.
func (m *Manager) notifyDown(ev downEvent) {
	if ev.gaveUp {
		if m.hooks.OnGiveUp != nil {
			m.hooks.OnGiveUp(ev.attempts)
		}
		return
	}
	if m.hooks.OnReconnectScheduled != nil {
		m.hooks.OnReconnectScheduled(ev.attempts, ev.delay)
	}
}

// reconnectNow is the reconnect task body.
func (m *Manager) reconnectNow() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateDisconnected {
		return
	}

	m.logger.Info("attempting reconnection", "attempt", m.attempts)
	m.dialLocked()
}

// startHeartbeatLocked schedules heartbeat frames for gen.
func (m *Manager) startHeartbeatLocked(gen uint64) {
	m.heartbeat.Set(schedule.Every(m.clock, m.cfg.HeartbeatInterval, func() {
		m.sendHeartbeat(gen)
	}))
}

var heartbeatFrame = []byte(`{"type":"heartbeat"}`)

// sendHeartbeat sends one heartbeat. Failures are swallowed: a dead
// channel is detected by the read loop.
func (m *Manager) sendHeartbeat(gen uint64) {
	err := m.write(gen, heartbeatFrame)
	if errors.Is(err, ErrNotConnected) {
		return
	}

	m.mu.Lock()
	if err != nil {
		m.heartbeatsFailed++
	} else {
		m.heartbeatsSent++
	}
	m.mu.Unlock()

	if err != nil {
		m.logger.Debug("failed to send heartbeat", "error", err)
	}
	if m.hooks.OnHeartbeat != nil {
		m.hooks.OnHeartbeat(err)
	}
}

// write sends data on the current connection. A non-zero gen restricts
// the write to that generation.
func (m *Manager) write(gen uint64, data []byte) error {
	m.mu.Lock()
	if m.state != StateConnected || (gen != 0 && gen != m.gen) {
		m.mu.Unlock()
		return ErrNotConnected
	}
	conn := m.conn
	m.mu.Unlock()

	if err := conn.WriteMessage(data); err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	return nil
}
