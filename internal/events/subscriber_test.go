package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pump-trader/internal/dex/pumpfun"
)

type fakeStream struct {
	records chan *LogRecord
	once    sync.Once
	closed  chan struct{}
}

func newFakeStream() *fakeStream {
	return &fakeStream{records: make(chan *LogRecord, 16), closed: make(chan struct{})}
}

func (f *fakeStream) Recv(ctx context.Context) (*LogRecord, error) {
	select {
	case rec := <-f.records:
		return rec, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-f.closed:
		return nil, context.Canceled
	}
}

func (f *fakeStream) Close() { f.once.Do(func() { close(f.closed) }) }

// fakeSource отдаёт потоки по порядку открытий; nil в списке - неудачное открытие.
type fakeSource struct {
	streams []*fakeStream
	opens   atomic.Int32
}

func newFakeSource(streams ...*fakeStream) *fakeSource {
	return &fakeSource{streams: streams}
}

func (f *fakeSource) Open(context.Context, solana.PublicKey) (LogStream, error) {
	n := int(f.opens.Add(1))
	if n > len(f.streams) || f.streams[n-1] == nil {
		return nil, errors.New("node unavailable")
	}
	return f.streams[n-1], nil
}

func TestSubscriberDeliversFilteredEvents(t *testing.T) {
	want := solana.NewWallet().PublicKey()
	other := solana.NewWallet().PublicKey()
	user := solana.NewWallet().PublicKey()

	src := newFakeSource(newFakeStream())
	s := NewSubscriber(src, pumpfun.PumpFunProgramID, zap.NewNop(), nil)
	defer s.Close()

	got := make(chan *TradeEvent, 4)
	all := make(chan *TradeEvent, 4)
	_, err := s.Subscribe(context.Background(), &want, func(ev *TradeEvent) { got <- ev })
	require.NoError(t, err)
	_, err = s.Subscribe(context.Background(), nil, func(ev *TradeEvent) { all <- ev })
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.opens.Load(), "stream is shared between subscriptions")

	src.streams[0].records <- &LogRecord{Logs: []string{
		encodeTrade(other, user, 1, 1, true, 0),
		encodeTrade(want, user, 2, 2, true, 0),
	}}
	// неуспешная транзакция не порождает событий
	src.streams[0].records <- &LogRecord{Failed: true, Logs: []string{encodeTrade(want, user, 3, 3, true, 0)}}

	select {
	case ev := <-got:
		assert.Equal(t, want, ev.Mint)
		assert.Equal(t, uint64(2), ev.SolAmount)
	case <-time.After(2 * time.Second):
		t.Fatal("filtered event not delivered")
	}
	for i := 0; i < 2; i++ {
		select {
		case <-all:
		case <-time.After(2 * time.Second):
			t.Fatal("unfiltered event not delivered")
		}
	}
	assert.Never(t, func() bool { return len(got) > 0 || len(all) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	user := solana.NewWallet().PublicKey()

	src := newFakeSource(newFakeStream())
	s := NewSubscriber(src, pumpfun.PumpFunProgramID, zap.NewNop(), nil)
	defer s.Close()

	var calls atomic.Int32
	sub, err := s.Subscribe(context.Background(), nil, func(*TradeEvent) { calls.Add(1) })
	require.NoError(t, err)

	src.streams[0].records <- &LogRecord{Logs: []string{encodeTrade(mint, user, 1, 1, true, 0)}}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	sub.Unsubscribe()
	after := calls.Load()
	for i := 0; i < 5; i++ {
		src.streams[0].records <- &LogRecord{Logs: []string{encodeTrade(mint, user, 1, 1, true, 0)}}
	}
	assert.Never(t, func() bool { return calls.Load() != after }, 200*time.Millisecond, 10*time.Millisecond)
}

func TestSubscriberClosed(t *testing.T) {
	src := newFakeSource(newFakeStream())
	s := NewSubscriber(src, pumpfun.PumpFunProgramID, zap.NewNop(), nil)
	require.NoError(t, s.Close())

	_, err := s.Subscribe(context.Background(), nil, func(*TradeEvent) {})
	assert.ErrorIs(t, err, ErrSubscriberClosed)
	assert.Zero(t, src.opens.Load())
}

func TestSubscriberReopensDroppedStream(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	user := solana.NewWallet().PublicKey()

	first, second := newFakeStream(), newFakeStream()
	// второе открытие падает, третье удаётся
	src := newFakeSource(first, nil, second)
	s := NewSubscriber(src, pumpfun.PumpFunProgramID, zap.NewNop(), nil,
		WithReconnectDelay(time.Millisecond, 5*time.Millisecond))
	defer s.Close()

	got := make(chan *TradeEvent, 4)
	_, err := s.Subscribe(context.Background(), nil, func(ev *TradeEvent) { got <- ev })
	require.NoError(t, err)

	first.records <- &LogRecord{Logs: []string{encodeTrade(mint, user, 1, 1, true, 0)}}
	select {
	case ev := <-got:
		assert.Equal(t, uint64(1), ev.SolAmount)
	case <-time.After(2 * time.Second):
		t.Fatal("event from the first stream not delivered")
	}

	first.Close()
	require.Eventually(t, func() bool { return src.opens.Load() == 3 }, 2*time.Second, 5*time.Millisecond)

	second.records <- &LogRecord{Logs: []string{encodeTrade(mint, user, 2, 2, false, 0)}}
	select {
	case ev := <-got:
		assert.Equal(t, uint64(2), ev.SolAmount)
		assert.False(t, ev.IsBuy)
	case <-time.After(2 * time.Second):
		t.Fatal("existing subscription got nothing after reconnect")
	}
}

func TestSubscriberCloseStopsReconnecting(t *testing.T) {
	only := newFakeStream()
	src := newFakeSource(only)
	s := NewSubscriber(src, pumpfun.PumpFunProgramID, zap.NewNop(), nil,
		WithReconnectDelay(time.Millisecond, 2*time.Millisecond))

	_, err := s.Subscribe(context.Background(), nil, func(*TradeEvent) {})
	require.NoError(t, err)

	only.Close()
	require.Eventually(t, func() bool { return src.opens.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	closed := make(chan error, 1)
	go func() { closed <- s.Close() }()
	select {
	case err := <-closed:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked by the reconnect loop")
	}
	opens := src.opens.Load()
	assert.Never(t, func() bool { return src.opens.Load() != opens }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestBusPublishSyncSkipsInactive(t *testing.T) {
	bus := NewBus(zap.NewNop(), 4)
	defer bus.Shutdown(context.Background())

	var calls int
	sub := bus.SubscribeFunc(TradeExecuted, func(context.Context, Event) error {
		calls++
		return nil
	})
	ev := &TradeEvent{BaseEvent: BaseEvent{EventType: TradeExecuted}}

	require.NoError(t, bus.PublishSync(context.Background(), ev))
	sub.Unsubscribe()
	require.NoError(t, bus.PublishSync(context.Background(), ev))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.Stats()["event_types"])
}
