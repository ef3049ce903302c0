package router

import (
	"log/slog"
	"sync"
	"time"
)

// Handlers are the per-tag destinations of Dispatch. A nil handler makes
// that tag a no-op.
type Handlers struct {
	Market       func(MarketUpdate)
	Technical    func(TechnicalUpdate)
	Performance  func(PerformanceUpdate)
	Alert        func(AlertUpdate)
	HeartbeatAck func(HeartbeatAck)
}

// RouterStats contains runtime statistics.
type RouterStats struct {
	MessagesReceived int64
	MessagesRouted   int64
	ParseErrors      int64
	UnknownMessages  int64
	ByTag            map[Tag]int64
}

// Router delivers decoded messages to the handler for their tag.
//
// Dispatch is synchronous and total over Message. Calls for the same tag
// are serialized, so a caller that dispatches in arrival order gets
// handler invocations in arrival order for every tag.
type Router struct {
	handlers Handlers
	logger   *slog.Logger

	tagMu map[Tag]*sync.Mutex

	// Stats
	mu              sync.RWMutex
	received        int64
	routed          int64
	parseErrors     int64
	unknownMessages int64
	byTag           map[Tag]int64
}

// NewRouter creates a Router.
func NewRouter(handlers Handlers, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}

	tagMu := make(map[Tag]*sync.Mutex)
	for _, tag := range []Tag{TagMarket, TagTechnical, TagPerformance, TagAlert, TagHeartbeatAck} {
		tagMu[tag] = &sync.Mutex{}
	}

	return &Router{
		handlers: handlers,
		logger:   logger,
		tagMu:    tagMu,
		byTag:    make(map[Tag]int64),
	}
}

// Decode parses a push frame and records parse failures and unknown tags
// in the router's stats.
func (r *Router) Decode(data []byte, receivedAt time.Time) (Message, error) {
	msg, err := Decode(data, receivedAt)
	if err != nil {
		r.mu.Lock()
		r.parseErrors++
		r.mu.Unlock()
		return nil, err
	}
	return msg, nil
}

// Dispatch invokes the handler matching msg's tag.
func (r *Router) Dispatch(msg Message) {
	r.mu.Lock()
	r.received++
	r.mu.Unlock()

	if msg == nil {
		return
	}

	tag := msg.Tag()
	mu, ok := r.tagMu[tag]
	if !ok {
		if u, isUnknown := msg.(Unknown); isUnknown {
			r.logger.Debug("skipping message type", "type", u.Type)
		}
		r.mu.Lock()
		r.unknownMessages++
		r.mu.Unlock()
		return
	}

	mu.Lock()
	handled := r.invoke(msg)
	mu.Unlock()

	if handled {
		r.mu.Lock()
		r.routed++
		r.byTag[tag]++
		r.mu.Unlock()
	}
}

func (r *Router) invoke(msg Message) bool {
	switch m := msg.(type) {
	case MarketUpdate:
		if r.handlers.Market == nil {
			return false
		}
		r.handlers.Market(m)
	case TechnicalUpdate:
		if r.handlers.Technical == nil {
			return false
		}
		r.handlers.Technical(m)
	case PerformanceUpdate:
		if r.handlers.Performance == nil {
			return false
		}
		r.handlers.Performance(m)
	case AlertUpdate:
		if r.handlers.Alert == nil {
			return false
		}
		r.handlers.Alert(m)
	case HeartbeatAck:
		if r.handlers.HeartbeatAck == nil {
			return false
		}
		r.handlers.HeartbeatAck(m)
	default:
		return false
	}
	return true
}

// Stats returns current statistics.
func (r *Router) Stats() RouterStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byTag := make(map[Tag]int64, len(r.byTag))
	for k, v := range r.byTag {
		byTag[k] = v
	}

	return RouterStats{
		MessagesReceived: r.received,
		MessagesRouted:   r.routed,
		ParseErrors:      r.parseErrors,
		UnknownMessages:  r.unknownMessages,
		ByTag:            byTag,
	}
}
