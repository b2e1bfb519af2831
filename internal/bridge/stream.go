package bridge

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tabpilot/tabpilot/pkg/events"
)

// streamMessage is the envelope for events pushed by the bridge.
type streamMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// NetworkEventHandler receives captured network requests from the stream.
type NetworkEventHandler func(NetworkEvent)

// Stream consumes the bridge's WebSocket event feed and republishes
// events on the process event bus. Network capture events additionally go
// to the registered handler so the netlog store sees every request.
type Stream struct {
	wsURL     string
	eventBus  *events.EventBus
	onNetwork NetworkEventHandler
	backoff   *reconnectBackoff
}

// NewStream creates a stream for the bridge at baseURL.
func NewStream(baseURL string, eventBus *events.EventBus, onNetwork NetworkEventHandler) *Stream {
	return &Stream{
		wsURL:     websocketURL(baseURL),
		eventBus:  eventBus,
		onNetwork: onNetwork,
		backoff:   newReconnectBackoff(),
	}
}

func websocketURL(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "ws://127.0.0.1:8765/events"
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/events"
	return u.String()
}

// Run connects and reads until ctx is cancelled, reconnecting with
// exponential backoff on failure.
func (s *Stream) Run(ctx context.Context) {
	for {
		if err := s.readLoop(ctx); err != nil {
			s.eventBus.Publish(events.Event{
				Type: events.BridgeDisconnected,
				Data: map[string]interface{}{"error": err.Error()},
			})
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.backoff.next()):
		}
	}
}

func (s *Stream) readLoop(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	s.backoff.reset()
	s.eventBus.Publish(events.Event{Type: events.BridgeConnected})

	// Close the connection when ctx is cancelled to unblock ReadMessage.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		var msg streamMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			log.Printf("bridge stream: skipping malformed message: %v", err)
			continue
		}
		s.dispatch(msg)
	}
}

func (s *Stream) dispatch(msg streamMessage) {
	switch msg.Type {
	case "network.request":
		var ev NetworkEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return
		}
		if s.onNetwork != nil {
			s.onNetwork(ev)
		}
		s.eventBus.Publish(events.Event{
			Type:  events.NetworkRequest,
			TabID: ev.TabID,
			Data: map[string]interface{}{
				"method": ev.Method,
				"url":    ev.URL,
				"status": ev.StatusCode,
			},
		})

	case "download.progress":
		var dl Download
		if err := json.Unmarshal(msg.Data, &dl); err != nil {
			return
		}
		s.eventBus.Publish(events.Event{
			Type: events.DownloadProgress,
			Data: map[string]interface{}{
				"id":       dl.ID,
				"filename": dl.Filename,
				"state":    dl.State,
				"received": dl.BytesReceived,
				"total":    dl.TotalBytes,
			},
		})

	case "tab.opened", "tab.closed", "tab.activated":
		var tab Tab
		if err := json.Unmarshal(msg.Data, &tab); err != nil {
			return
		}
		s.eventBus.Publish(events.Event{
			Type:  events.EventType(msg.Type),
			TabID: tab.ID,
			Data: map[string]interface{}{
				"url":   tab.URL,
				"title": tab.Title,
			},
		})
	}
}

// reconnectBackoff implements exponential backoff with jitter for
// reconnection attempts.
type reconnectBackoff struct {
	baseDelay  time.Duration
	maxDelay   time.Duration
	multiplier float64
	attempts   int
}

func newReconnectBackoff() *reconnectBackoff {
	return &reconnectBackoff{
		baseDelay:  1 * time.Second,
		maxDelay:   30 * time.Second,
		multiplier: 2.0,
	}
}

func (b *reconnectBackoff) next() time.Duration {
	delay := time.Duration(float64(b.baseDelay) * math.Pow(b.multiplier, float64(b.attempts)))
	if delay > b.maxDelay {
		delay = b.maxDelay
	}

	// ±10% jitter to avoid synchronized retries
	jitterRange := float64(delay) * 0.1
	delay += time.Duration((rand.Float64()*2 - 1) * jitterRange)
	if delay < b.baseDelay {
		delay = b.baseDelay
	}

	b.attempts++
	return delay
}

func (b *reconnectBackoff) reset() {
	b.attempts = 0
}
