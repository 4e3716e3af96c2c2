package control

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmuck/screenctl/internal/protocol/session"
)

type fakeSender struct {
	mu     sync.Mutex
	frames [][]byte
}

func (s *fakeSender) Send(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, append([]byte(nil), data...))
}

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func TestNextIDStrictlyIncreasing(t *testing.T) {
	corr := NewCorrelator(&fakeSender{})
	prev := uint32(0)
	for i := 0; i < 100; i++ {
		id := corr.NextID()
		require.Greater(t, id, prev)
		prev = id
	}
}

func TestCallMatchesResponsesByIDNotArrivalOrder(t *testing.T) {
	sender := &fakeSender{}
	corr := NewCorrelator(sender)

	type outcome struct {
		id   uint32
		resp session.Response
		err  error
	}
	results := make(chan outcome, 2)
	for i := 0; i < 2; i++ {
		id := corr.NextID()
		go func(id uint32) {
			resp, err := corr.Call(context.Background(), session.Request{
				ID:   id,
				Type: session.TypeDeviceRequest,
				Data: session.DeviceCall{Method: session.MethodPressButton},
			})
			results <- outcome{id: id, resp: resp, err: err}
		}(id)
	}

	require.Eventually(t, func() bool { return sender.count() == 2 },
		2*time.Second, time.Millisecond)
	require.Equal(t, 2, corr.Pending())

	// Respond in reverse order of issue.
	for id := uint32(2); id >= 1; id-- {
		raw, err := sonic.Marshal(map[string]any{
			"id":   id,
			"type": session.TypeDeviceRequest,
			"data": map[string]uint32{"echo": id},
		})
		require.NoError(t, err)
		corr.Dispatch(raw)
	}

	for i := 0; i < 2; i++ {
		out := <-results
		require.NoError(t, out.err)
		assert.Equal(t, out.id, out.resp.ID)
	}
	assert.Equal(t, 0, corr.Pending())
}

func TestCallContextCancelEvictsPendingEntry(t *testing.T) {
	corr := NewCorrelator(&fakeSender{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := corr.Call(ctx, session.Request{ID: corr.NextID(), Type: session.TypeRunSession})
		done <- err
	}()

	require.Eventually(t, func() bool { return corr.Pending() == 1 },
		2*time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("call did not return after cancel")
	}
	assert.Equal(t, 0, corr.Pending())
}

func TestDispatchRoutesUnsolicitedStatus(t *testing.T) {
	corr := NewCorrelator(&fakeSender{})
	statuses := make(chan session.Status, 1)
	corr.OnStatus(func(st session.Status) { statuses <- st })

	corr.Dispatch([]byte(`{"type":"session.status","data":{"state":"starting","code":2}}`))

	select {
	case st := <-statuses:
		assert.Equal(t, "starting", st.State)
		assert.Equal(t, 2, st.Code)
	default:
		t.Fatal("status not delivered")
	}
}

func TestDispatchDropsProtocolViolations(t *testing.T) {
	corr := NewCorrelator(&fakeSender{})
	corr.OnStatus(func(session.Status) { t.Fatal("unexpected status") })

	corr.Dispatch([]byte(`{broken`))
	corr.Dispatch([]byte(`{"type":"mystery.kind"}`))
	corr.Dispatch([]byte(`{"id":999,"type":"device.request"}`)) // no pending match

	assert.Equal(t, 0, corr.Pending())
}

func TestFailAllCompletesOutstandingCalls(t *testing.T) {
	corr := NewCorrelator(&fakeSender{})

	done := make(chan error, 1)
	go func() {
		_, err := corr.Call(context.Background(), session.Request{ID: corr.NextID(), Type: session.TypeRunSession})
		done <- err
	}()

	require.Eventually(t, func() bool { return corr.Pending() == 1 },
		2*time.Second, time.Millisecond)
	corr.FailAll(ErrClientStopped)

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrClientStopped)
	case <-time.After(2 * time.Second):
		t.Fatal("call did not return after FailAll")
	}
}
