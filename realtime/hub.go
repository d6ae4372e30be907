// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/danielhkuo/stage/logger"
	"go.uber.org/zap"
)

var ErrHubClosed = errors.New("realtime hub closed")

const (
	subscriptionBuffer = 32
	relayTimeout       = 2 * time.Second
)

// Broadcaster publishes fire-and-forget hints on a channel
type Broadcaster interface {
	Broadcast(ctx context.Context, channel, event string, payload any) error
}

// Feed is what a consumer reads from a subscription
type Feed interface {
	Messages() <-chan Message
	Status() <-chan Status
	Close()
}

// Relay forwards locally published messages to other instances
type Relay interface {
	Publish(ctx context.Context, msg Message) error
}

// Hub routes broadcasts and row changes to channel subscriptions
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	status Status
	relay  Relay
	closed bool
}

func NewHub() *Hub {
	return &Hub{
		subs:   make(map[string]map[*Subscription]struct{}),
		status: StatusSubscribed,
	}
}

// SetRelay attaches a cross-instance relay. Subscriptions report
// connecting until the relay confirms its own subscription.
func (h *Hub) SetRelay(r Relay) {
	h.mu.Lock()
	h.relay = r
	h.mu.Unlock()
	h.SetStatus(StatusConnecting)
}

// Subscribe opens a subscription on channel
func (h *Hub) Subscribe(channel string, spec Spec) (*Subscription, error) {
	if channel == "" {
		return nil, errors.New("channel is required")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}

	sub := &Subscription{
		hub:      h,
		channel:  channel,
		spec:     spec,
		messages: make(chan Message, subscriptionBuffer),
		status:   make(chan Status, 1),
	}
	sub.setStatus(StatusConnecting)

	set, ok := h.subs[channel]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[channel] = set
	}
	set[sub] = struct{}{}

	sub.setStatus(h.status)

	logger.Debug("realtime subscribe",
		zap.String("channel", channel),
		zap.Int("channel_subscribers", len(set)))

	return sub, nil
}

// Broadcast delivers event to current subscribers of channel. The payload
// is advisory; receivers re-fetch instead of trusting it.
func (h *Hub) Broadcast(ctx context.Context, channel, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", event, err)
	}

	msg := Message{Type: TypeBroadcast, Channel: channel, Event: event, Payload: data}
	h.deliver(msg)

	if relay := h.currentRelay(); relay != nil {
		if err := relay.Publish(ctx, msg); err != nil {
			return fmt.Errorf("failed to relay %s: %w", event, err)
		}
	}
	return nil
}

// NotifyChange routes a committed row change to matching subscriptions
func (h *Hub) NotifyChange(c Change) {
	msg := Message{Type: TypeChange, Change: &c}
	h.deliver(msg)

	if relay := h.currentRelay(); relay != nil {
		ctx, cancel := context.WithTimeout(context.Background(), relayTimeout)
		defer cancel()
		if err := relay.Publish(ctx, msg); err != nil {
			logger.Warn("failed to relay row change",
				zap.String("table", c.Table),
				zap.String("event_id", c.EventID),
				zap.Error(err))
		}
	}
}

// SetStatus reports a connection state to every open subscription
func (h *Hub) SetStatus(s Status) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.status = s
	for _, set := range h.subs {
		for sub := range set {
			sub.setStatus(s)
		}
	}
}

// Subscribers returns the number of open subscriptions on channel
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[channel])
}

// Close ends every subscription. Subscribe fails afterwards.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for channel, set := range h.subs {
		for sub := range set {
			sub.setStatus(StatusClosed)
			close(sub.messages)
			close(sub.status)
		}
		delete(h.subs, channel)
	}
}

func (h *Hub) currentRelay() Relay {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.relay
}

func (h *Hub) deliver(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	switch msg.Type {
	case TypeBroadcast:
		for sub := range h.subs[msg.Channel] {
			if sub.spec.wantsEvent(msg.Event) {
				sub.send(msg)
			}
		}
	case TypeChange:
		if msg.Change == nil {
			return
		}
		for channel, set := range h.subs {
			for sub := range set {
				if sub.spec.wantsChange(*msg.Change) {
					m := msg
					m.Channel = channel
					sub.send(m)
				}
			}
		}
	}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[sub.channel]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}

	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.channel)
	}
	sub.setStatus(StatusClosed)
	close(sub.messages)
	close(sub.status)
}

// Subscription is one consumer's view of a channel
type Subscription struct {
	hub      *Hub
	channel  string
	spec     Spec
	messages chan Message
	status   chan Status
	once     sync.Once
}

func (s *Subscription) Channel() string { return s.channel }

// Messages yields signals. Signals are dropped when the buffer is full.
func (s *Subscription) Messages() <-chan Message { return s.messages }

// Status yields the latest connection state; older unread states are
// replaced.
func (s *Subscription) Status() <-chan Status { return s.status }

func (s *Subscription) Close() {
	s.once.Do(func() { s.hub.remove(s) })
}

// send and setStatus run with the hub lock held
func (s *Subscription) send(msg Message) {
	select {
	case s.messages <- msg:
	default:
		logger.Debug("realtime subscriber buffer full, signal dropped",
			zap.String("channel", s.channel),
			zap.String("type", msg.Type))
	}
}

func (s *Subscription) setStatus(st Status) {
	select {
	case <-s.status:
	default:
	}
	select {
	case s.status <- st:
	default:
	}
}
