// Package stream pushes ledger events to WebSocket subscribers.
package stream

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"meme-token-ledger/internal/domain"
	"meme-token-ledger/internal/observability"
)

// envelope is the wire format for pushed events.
type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type transferPayload struct {
	Seq       int64  `json:"seq"`
	From      string `json:"from"`
	To        string `json:"to"`
	Gross     uint64 `json:"gross"`
	Net       uint64 `json:"net"`
	Tax       uint64 `json:"tax"`
	Timestamp int64  `json:"timestamp"`
}

type liquidityPayload struct {
	Seq            int64  `json:"seq"`
	Provider       string `json:"provider"`
	PairToken      string `json:"pair_token"`
	PairCounter    string `json:"pair_counter"`
	TokenUsed      uint64 `json:"token_used"`
	BaseUsed       uint64 `json:"base_used"`
	LiquidityUnits uint64 `json:"liquidity_units"`
	TokenRefund    uint64 `json:"token_refund"`
	BaseRefund     uint64 `json:"base_refund"`
	Timestamp      int64  `json:"timestamp"`
}

// Broadcaster fans persisted events out to connected WebSocket clients.
// Write failures drop the client; they never propagate to the caller.
type Broadcaster struct {
	clients  map[*websocket.Conn]struct{}
	mu       sync.Mutex
	upgrader websocket.Upgrader
	logger   *log.Logger
}

func NewBroadcaster(logger *log.Logger) *Broadcaster {
	return &Broadcaster{
		clients:  make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		logger:   logger,
	}
}

// TransferEmitted pushes a transfer event to all subscribers.
func (b *Broadcaster) TransferEmitted(e *domain.TransferEvent) {
	b.broadcast(envelope{Type: "transfer", Data: transferPayload{
		Seq:       e.Seq,
		From:      string(e.From),
		To:        string(e.To),
		Gross:     e.Gross,
		Net:       e.Net,
		Tax:       e.Tax,
		Timestamp: e.Timestamp,
	}})
}

// LiquidityEmitted pushes a liquidity event to all subscribers.
func (b *Broadcaster) LiquidityEmitted(e *domain.LiquidityEvent) {
	b.broadcast(envelope{Type: "liquidity", Data: liquidityPayload{
		Seq:            e.Seq,
		Provider:       string(e.Provider),
		PairToken:      string(e.PairToken),
		PairCounter:    string(e.PairCounter),
		TokenUsed:      e.TokenUsed,
		BaseUsed:       e.BaseUsed,
		LiquidityUnits: e.LiquidityUnits,
		TokenRefund:    e.TokenRefund,
		BaseRefund:     e.BaseRefund,
		Timestamp:      e.Timestamp,
	}})
}

func (b *Broadcaster) broadcast(env envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()

	msg, err := json.Marshal(env)
	if err != nil {
		b.logger.Printf("failed to marshal %s event: %v", env.Type, err)
		return
	}

	delivered := 0
	for c := range b.clients {
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			b.logger.Printf("websocket write error: %v", err)
			c.Close()
			delete(b.clients, c)
			continue
		}
		delivered++
	}
	observability.RecordStreamDelivered(delivered)
	observability.UpdateStreamClients(len(b.clients))
}

// Handler returns an http.HandlerFunc that accepts subscriber connections.
func (b *Broadcaster) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			b.logger.Printf("websocket upgrade error: %v", err)
			return
		}
		b.mu.Lock()
		b.clients[conn] = struct{}{}
		observability.UpdateStreamClients(len(b.clients))
		b.mu.Unlock()

		// Drain the read side so pings and close frames are processed.
		go func() {
			defer func() {
				b.mu.Lock()
				delete(b.clients, conn)
				observability.UpdateStreamClients(len(b.clients))
				b.mu.Unlock()
				conn.Close()
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					break
				}
			}
		}()
	}
}
