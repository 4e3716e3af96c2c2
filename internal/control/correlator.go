// Package control pairs outbound command requests with inbound responses and
// exposes the device-automation façade built on top of that pairing.
package control

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/screenctl/internal/protocol/session"
)

// Sender hands serialized frames to the connection lifecycle layer.
// *transport.Manager is the production implementation.
type Sender interface {
	Send(data []byte)
}

// Correlator assigns request ids, tracks outstanding requests, and routes
// inbound frames to either the waiting caller or the status subscriber.
type Correlator struct {
	sender   Sender
	pending  *session.PendingTable
	nextID   atomic.Uint32
	onStatus func(session.Status)
}

func NewCorrelator(sender Sender) *Correlator {
	return &Correlator{
		sender:  sender,
		pending: session.NewPendingTable(),
	}
}

// OnStatus registers the unsolicited session-status subscriber. Must be set
// before frames start flowing.
func (c *Correlator) OnStatus(fn func(session.Status)) {
	c.onStatus = fn
}

// NextID returns the next request id. Ids start at 1, strictly increase, and
// are never reset by reconnection.
func (c *Correlator) NextID() uint32 {
	return c.nextID.Add(1)
}

// Call sends the request and waits for the response carrying the same id.
// The pending entry is evicted when ctx is cancelled or the client stops;
// responses match by id, never by arrival order.
func (c *Correlator) Call(ctx context.Context, req session.Request) (session.Response, error) {
	payload, err := req.Encode()
	if err != nil {
		return session.Response{}, err
	}
	ch, err := c.pending.Add(req.ID)
	if err != nil {
		return session.Response{}, err
	}
	c.sender.Send(payload)

	select {
	case <-ctx.Done():
		c.pending.Remove(req.ID)
		return session.Response{}, ctx.Err()
	case res := <-ch:
		return res.Response, res.Err
	}
}

// Dispatch routes one inbound text frame. Protocol violations are logged and
// dropped; they never terminate the connection.
func (c *Correlator) Dispatch(raw []byte) {
	msg, err := session.DecodeMessage(raw)
	if err != nil {
		log.Warn().Err(err).Msg("control.Correlator dropping unparseable frame")
		return
	}
	if msg.ID != 0 {
		resolved := c.pending.Resolve(session.Response{
			ID:   msg.ID,
			Type: msg.Type,
			Data: msg.Data,
		})
		if resolved {
			return
		}
	}
	switch msg.Type {
	case session.TypeSessionStatus:
		st, err := session.DecodeStatus(msg.Data)
		if err != nil {
			log.Warn().Err(err).Msg("control.Correlator dropping malformed status")
			return
		}
		if c.onStatus != nil {
			c.onStatus(st)
		}
	default:
		log.Warn().Uint32("id", msg.ID).Str("type", msg.Type).
			Msg("control.Correlator dropping unexpected message")
	}
}

// FailAll completes every outstanding call with err.
func (c *Correlator) FailAll(err error) {
	c.pending.FailAll(err)
}

// Pending reports the number of outstanding calls.
func (c *Correlator) Pending() int {
	return c.pending.Len()
}
