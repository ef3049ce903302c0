package router

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rickgao/market-pulse/internal/alerts"
	"github.com/rickgao/market-pulse/internal/model"
)

// Tag is the wire discriminator of an inbound message.
type Tag string

const (
	TagMarket       Tag = "market"
	TagTechnical    Tag = "technical"
	TagPerformance  Tag = "performance"
	TagAlert        Tag = "alert"
	TagHeartbeatAck Tag = "heartbeat_ack"
	TagUnknown      Tag = "unknown"
)

// Source records which path produced a message.
type Source string

const (
	SourcePush Source = "push"
	SourcePull Source = "pull"
)

// Message is an inbound update. The set of implementations is closed:
// MarketUpdate, TechnicalUpdate, PerformanceUpdate, AlertUpdate,
// HeartbeatAck and Unknown.
type Message interface {
	Tag() Tag
	isMessage()
}

// MarketUpdate carries a market snapshot.
type MarketUpdate struct {
	Source     Source
	Snapshot   model.MarketSnapshot
	ReceivedAt time.Time
}

// TechnicalUpdate carries technical indicator series.
type TechnicalUpdate struct {
	Source     Source
	Indicators model.TechnicalIndicators
	ReceivedAt time.Time
}

// PerformanceUpdate carries performance metrics.
type PerformanceUpdate struct {
	Source     Source
	Metrics    model.PerformanceMetrics
	ReceivedAt time.Time
}

// AlertUpdate carries one alert.
type AlertUpdate struct {
	Source     Source
	Alert      alerts.Alert
	ReceivedAt time.Time
}

// HeartbeatAck is the server's reply to a heartbeat frame.
type HeartbeatAck struct {
	ReceivedAt time.Time
}

// Unknown is a message with a missing or unrecognized tag. It is dropped.
type Unknown struct {
	Type       string
	ReceivedAt time.Time
}

func (MarketUpdate) Tag() Tag      { return TagMarket }
func (TechnicalUpdate) Tag() Tag   { return TagTechnical }
func (PerformanceUpdate) Tag() Tag { return TagPerformance }
func (AlertUpdate) Tag() Tag       { return TagAlert }
func (HeartbeatAck) Tag() Tag      { return TagHeartbeatAck }
func (Unknown) Tag() Tag           { return TagUnknown }

func (MarketUpdate) isMessage()      {}
func (TechnicalUpdate) isMessage()   {}
func (PerformanceUpdate) isMessage() {}
func (AlertUpdate) isMessage()       {}
func (HeartbeatAck) isMessage()      {}
func (Unknown) isMessage()           {}

// SymbolOf returns the symbol a message refers to, or "" when the message
// is not symbol-scoped.
func SymbolOf(msg Message) string {
	switch m := msg.(type) {
	case MarketUpdate:
		return m.Snapshot.Symbol
	case TechnicalUpdate:
		return m.Indicators.Symbol
	case PerformanceUpdate:
		return m.Metrics.Symbol
	default:
		return ""
	}
}

// DecodeError reports a frame that could not be decoded. Tag is empty when
// the envelope itself was malformed.
type DecodeError struct {
	Tag Tag
	Err error
}

func (e *DecodeError) Error() string {
	if e.Tag == "" {
		return fmt.Sprintf("decode envelope: %v", e.Err)
	}
	return fmt.Sprintf("decode %s payload: %v", e.Tag, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Wire types for JSON parsing

// messageEnvelope is the {type, data} frame shared by every push message.
type messageEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}
