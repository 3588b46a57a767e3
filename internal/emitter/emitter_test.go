package emitter

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlersFireInRegistrationOrder(t *testing.T) {
	e := New(Config{})

	var order []int
	e.On("ping", func(Event) { order = append(order, 1) })
	e.On("ping", func(Event) { order = append(order, 2) })
	e.On("ping", func(Event) { order = append(order, 3) })

	e.Emit(Event{Name: "ping"})
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestUnsubscribeRemovesHandler(t *testing.T) {
	e := New(Config{})

	var calls int
	sub := e.On("ping", func(Event) { calls++ })
	e.Emit(Event{Name: "ping"})

	sub.Unsubscribe()
	sub.Unsubscribe() // safe to repeat
	e.Emit(Event{Name: "ping"})

	assert.Equal(t, 1, calls)
}

func TestEmitOnlyReachesMatchingEvent(t *testing.T) {
	e := New(Config{})

	var pings, pongs int
	e.On("ping", func(Event) { pings++ })
	e.On("pong", func(Event) { pongs++ })

	e.Emit(Event{Name: "ping"})
	assert.Equal(t, 1, pings)
	assert.Equal(t, 0, pongs)
}

func TestBroadcastHelpers(t *testing.T) {
	e := New(Config{})

	var got []Event
	e.On(EventNewPost, func(ev Event) { got = append(got, ev) })
	e.On(EventVoteUpdate, func(ev Event) { got = append(got, ev) })
	e.On(EventSubscribe, func(ev Event) { got = append(got, ev) })
	e.On(EventUnsubscribe, func(ev Event) { got = append(got, ev) })

	e.BroadcastNewPost("t1", "payload")
	e.BroadcastVoteUpdate("t1", "tally")
	e.SubscribeThread("t1")
	e.UnsubscribeThread("t1")

	require.Len(t, got, 4)
	assert.Equal(t, EventNewPost, got[0].Name)
	assert.Equal(t, "payload", got[0].Payload)
	assert.Equal(t, EventVoteUpdate, got[1].Name)
	assert.Equal(t, EventSubscribe, got[2].Name)
	assert.Equal(t, EventUnsubscribe, got[3].Name)
	for _, ev := range got {
		assert.Equal(t, "t1", ev.ThreadID)
	}
}

func TestConnectDisconnectIdempotent(t *testing.T) {
	e := New(Config{})

	assert.False(t, e.Connected())
	e.Connect()
	e.Connect()
	assert.True(t, e.Connected())
	e.Disconnect()
	e.Disconnect()
	assert.False(t, e.Connected())
}

func TestDisconnectStopsSimulatedActivity(t *testing.T) {
	var ticks atomic.Int64
	e := New(Config{
		Activity: func() { ticks.Add(1) },
		Interval: 2 * time.Millisecond,
		Chance:   1.0,
	})

	e.Connect()
	assert.Eventually(t, func() bool { return ticks.Load() > 0 },
		time.Second, time.Millisecond, "activity should fire while connected")

	e.Disconnect()
	after := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	assert.LessOrEqual(t, ticks.Load(), after+1,
		"no new activity after disconnect beyond an in-flight tick")
}

func TestNoActivityWithoutConnect(t *testing.T) {
	var ticks atomic.Int64
	e := New(Config{
		Activity: func() { ticks.Add(1) },
		Interval: 2 * time.Millisecond,
		Chance:   1.0,
	})

	time.Sleep(15 * time.Millisecond)
	assert.Zero(t, ticks.Load())

	// Emission works without a connected timer; they are independent.
	var calls int
	e.On("ping", func(Event) { calls++ })
	e.Emit(Event{Name: "ping"})
	assert.Equal(t, 1, calls)
}

func TestHandlerMayUnsubscribeDuringDispatch(t *testing.T) {
	e := New(Config{})

	var sub *Subscription
	var calls int
	sub = e.On("ping", func(Event) {
		calls++
		sub.Unsubscribe()
	})

	e.Emit(Event{Name: "ping"})
	e.Emit(Event{Name: "ping"})
	assert.Equal(t, 1, calls)
}
