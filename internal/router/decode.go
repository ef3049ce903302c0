package router

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/rickgao/market-pulse/internal/alerts"
	"github.com/rickgao/market-pulse/internal/model"
)

var errMissingPayload = errors.New("missing data payload")

// Decode parses one push frame into a Message. A missing or unrecognized
// type yields Unknown with a nil error. Malformed JSON, or a known type with
// a malformed payload, yields a *DecodeError.
func Decode(data []byte, receivedAt time.Time) (Message, error) {
	var env messageEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &DecodeError{Err: err}
	}

	tag := Tag(env.Type)
	switch tag {
	case TagMarket:
		var snap model.MarketSnapshot
		if err := decodePayload(env.Data, &snap); err != nil {
			return nil, &DecodeError{Tag: tag, Err: err}
		}
		snap.Symbol = model.NormalizeSymbol(snap.Symbol)
		return MarketUpdate{Source: SourcePush, Snapshot: snap, ReceivedAt: receivedAt}, nil

	case TagTechnical:
		var ind model.TechnicalIndicators
		if err := decodePayload(env.Data, &ind); err != nil {
			return nil, &DecodeError{Tag: tag, Err: err}
		}
		ind.Symbol = model.NormalizeSymbol(ind.Symbol)
		return TechnicalUpdate{Source: SourcePush, Indicators: ind, ReceivedAt: receivedAt}, nil

	case TagPerformance:
		var perf model.PerformanceMetrics
		if err := decodePayload(env.Data, &perf); err != nil {
			return nil, &DecodeError{Tag: tag, Err: err}
		}
		perf.Symbol = model.NormalizeSymbol(perf.Symbol)
		return PerformanceUpdate{Source: SourcePush, Metrics: perf, ReceivedAt: receivedAt}, nil

	case TagAlert:
		if isEmptyPayload(env.Data) {
			return nil, &DecodeError{Tag: tag, Err: errMissingPayload}
		}
		a, err := alerts.Decode(env.Data, receivedAt)
		if err != nil {
			return nil, &DecodeError{Tag: tag, Err: err}
		}
		return AlertUpdate{Source: SourcePush, Alert: a, ReceivedAt: receivedAt}, nil

	case TagHeartbeatAck:
		return HeartbeatAck{ReceivedAt: receivedAt}, nil

	default:
		return Unknown{Type: env.Type, ReceivedAt: receivedAt}, nil
	}
}

func decodePayload(raw json.RawMessage, v any) error {
	if isEmptyPayload(raw) {
		return errMissingPayload
	}
	return json.Unmarshal(raw, v)
}

func isEmptyPayload(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
