// internal/events/subscriber.go
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pump-trader/internal/utils/metrics"
)

var ErrSubscriberClosed = errors.New("trade subscriber closed")

// LogRecord - логи одной транзакции, упомянувшей программу.
type LogRecord struct {
	Signature solana.Signature
	Failed    bool
	Logs      []string
}

// LogStream - открытая подписка на логи.
type LogStream interface {
	Recv(ctx context.Context) (*LogRecord, error)
	Close()
}

// LogSource открывает поток логов транзакций, упоминающих program.
type LogSource interface {
	Open(ctx context.Context, program solana.PublicKey) (LogStream, error)
}

// WSLogSource - LogSource поверх websocket RPC (logsSubscribe).
type WSLogSource struct {
	URL        string
	Commitment rpc.CommitmentType
}

// Open подключается к узлу и подписывается на упоминания program.
func (s WSLogSource) Open(ctx context.Context, program solana.PublicKey) (LogStream, error) {
	client, err := ws.Connect(ctx, s.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", s.URL, err)
	}
	commitment := s.Commitment
	if commitment == "" {
		commitment = rpc.CommitmentConfirmed
	}
	sub, err := client.LogsSubscribeMentions(program, commitment)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to subscribe to program logs: %w", err)
	}
	stream := &wsLogStream{
		client:  client,
		sub:     sub,
		results: make(chan wsResult),
		done:    make(chan struct{}),
	}
	go stream.pump()
	return stream, nil
}

type wsResult struct {
	res *ws.LogResult
	err error
}

// wsLogStream переносит блокирующий Recv подписки в канал, чтобы чтение уважало ctx.
// Подписка не отменяется через Unsubscribe: закрытие соединения само завершает Recv ошибкой.
type wsLogStream struct {
	client  *ws.Client
	sub     *ws.LogSubscription
	results chan wsResult
	done    chan struct{}
	once    sync.Once
}

func (s *wsLogStream) pump() {
	for {
		res, err := s.sub.Recv()
		if err == nil && res == nil {
			err = errors.New("log subscription closed")
		}
		select {
		case s.results <- wsResult{res: res, err: err}:
		case <-s.done:
			return
		}
		if err != nil {
			return
		}
	}
}

func (s *wsLogStream) Recv(ctx context.Context) (*LogRecord, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, ErrSubscriberClosed
	case r := <-s.results:
		if r.err != nil {
			return nil, r.err
		}
		return &LogRecord{
			Signature: r.res.Value.Signature,
			Failed:    r.res.Value.Err != nil,
			Logs:      r.res.Value.Logs,
		}, nil
	}
}

func (s *wsLogStream) Close() {
	s.once.Do(func() {
		close(s.done)
		s.client.Close()
	})
}

// Subscriber раздаёт события сделок из одного общего потока логов.
// Поток открывается при первой подписке; чтение и вызов обработчиков разнесены
// по разным горутинам, так что медленный обработчик не тормозит websocket.
// Оборванный поток переоткрывается с экспоненциальной паузой, подписки при этом сохраняются.
type Subscriber struct {
	source         LogSource
	program        solana.PublicKey
	bus            *Bus
	decoder        *Decoder
	logger         *zap.Logger
	metrics        *metrics.Collector
	reconnectDelay time.Duration
	maxDelay       time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	closed  bool
}

// SubscriberOption настраивает Subscriber.
type SubscriberOption func(*Subscriber)

// WithReconnectDelay задаёт начальную и максимальную паузу между попытками переподключения.
func WithReconnectDelay(initial, limit time.Duration) SubscriberOption {
	return func(s *Subscriber) {
		if initial > 0 {
			s.reconnectDelay = initial
		}
		if limit >= s.reconnectDelay {
			s.maxDelay = limit
		}
	}
}

const (
	defaultReconnectDelay    = 500 * time.Millisecond
	defaultMaxReconnectDelay = 30 * time.Second
)

// NewSubscriber создаёт подписчика на события программы program.
func NewSubscriber(source LogSource, program solana.PublicKey, logger *zap.Logger, collector *metrics.Collector, opts ...SubscriberOption) *Subscriber {
	logger = logger.Named("trade_events")
	s := &Subscriber{
		source:         source,
		program:        program,
		bus:            NewBus(logger, 1024),
		decoder:        NewDecoder(nil),
		logger:         logger,
		metrics:        collector,
		reconnectDelay: defaultReconnectDelay,
		maxDelay:       defaultMaxReconnectDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe регистрирует handler для событий по mint (nil - все mint'ы).
func (s *Subscriber) Subscribe(ctx context.Context, mint *solana.PublicKey, handler func(*TradeEvent)) (Subscription, error) {
	if err := s.ensureStream(ctx); err != nil {
		return nil, err
	}
	filter := NewDecoder(mint)
	return s.bus.SubscribeFunc(TradeExecuted, func(_ context.Context, ev Event) error {
		te, ok := ev.(*TradeEvent)
		if !ok || !filter.Accepts(te) {
			return nil
		}
		handler(te)
		return nil
	}), nil
}

// ensureStream открывает поток при первой подписке. Ошибка первого открытия
// возвращается вызывающему; дальше поток поддерживает горутина чтения.
func (s *Subscriber) ensureStream(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSubscriberClosed
	}
	if s.running {
		return nil
	}

	stream, err := s.source.Open(ctx, s.program)
	if err != nil {
		return err
	}
	readCtx, cancel := context.WithCancel(context.Background())
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(readCtx, stream, s.done)
	s.logger.Info("Trade event stream opened", zap.String("program", s.program.String()))
	return nil
}

// run читает поток до отмены ctx, переоткрывая его после обрыва.
func (s *Subscriber) run(ctx context.Context, stream LogStream, done chan struct{}) {
	defer close(done)
	for {
		err := s.read(ctx, stream)
		stream.Close()
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn("Log stream terminated, reconnecting",
			zap.Error(err),
			zap.Any("bus", s.bus.Stats()))

		stream, err = s.reopen(ctx)
		if err != nil {
			// только отмена: повторы не ограничены по времени
			return
		}
		s.logger.Info("Trade event stream reopened", zap.String("program", s.program.String()))
	}
}

func (s *Subscriber) read(ctx context.Context, stream LogStream) error {
	for {
		rec, err := stream.Recv(ctx)
		if err != nil {
			return err
		}
		if rec.Failed {
			continue
		}
		s.dispatch(rec)
	}
}

func (s *Subscriber) reopen(ctx context.Context) (LogStream, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.reconnectDelay
	policy.MaxInterval = s.maxDelay

	notify := func(err error, d time.Duration) {
		s.logger.Warn("Failed to reopen log stream", zap.Error(err), zap.Duration("backoff", d))
	}
	return backoff.Retry(ctx, func() (LogStream, error) {
		return s.source.Open(ctx, s.program)
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify))
}

func (s *Subscriber) dispatch(rec *LogRecord) {
	evs, err := s.decoder.DecodeLogs(rec.Logs, rec.Signature)
	if err != nil {
		s.logger.Debug("Undecodable program data",
			zap.String("signature", rec.Signature.String()),
			zap.Error(err))
	}
	for _, ev := range evs {
		s.metrics.RecordTradeEvent(ev.IsBuy)
		_ = s.bus.Publish(ev)
	}
}

// Close закрывает поток и останавливает доставку событий.
func (s *Subscriber) Close() error {
	s.mu.Lock()
	s.closed = true
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	ctx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	return s.bus.Shutdown(ctx)
}
