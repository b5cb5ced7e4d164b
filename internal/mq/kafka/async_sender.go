package kafka

import (
	"context"
	"sync"
	"time"

	"go-storefront/internal/logging"
	"go-storefront/internal/metrics"

	kafkaGo "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type AsyncMessage struct {
	Ctx       context.Context
	Key       []byte
	Value     []byte
	Headers   map[string]string
	EnqueueAt time.Time
}

type AsyncOptions struct {
	QueueSize int
	Workers   int
	MaxBatch  int
	MaxWait   time.Duration
}

// AsyncSender 有界队列 + 多 worker 批量写入；队列满直接丢弃
// 批量条件：达到 MaxBatch 或首条消息等待超过 MaxWait；批量失败降级逐条重发
type AsyncSender struct {
	producer *Producer
	logger   *logging.Logger
	queue    chan AsyncMessage
	opts     AsyncOptions
	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewAsyncSender(p *Producer, l *logging.Logger, opts AsyncOptions) *AsyncSender {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 10000
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.MaxBatch <= 0 {
		opts.MaxBatch = 50
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = 20 * time.Millisecond
	}
	if l == nil {
		l = logging.NewNop()
	}
	return &AsyncSender{
		producer: p,
		logger:   l,
		queue:    make(chan AsyncMessage, opts.QueueSize),
		opts:     opts,
		stopCh:   make(chan struct{}),
	}
}

func (s *AsyncSender) Start() {
	for i := 0; i < s.opts.Workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
}

func (s *AsyncSender) worker() {
	defer s.wg.Done()
	batch := make([]AsyncMessage, 0, s.opts.MaxBatch)
	timer := time.NewTimer(s.opts.MaxWait)
	if !timer.Stop() {
		<-timer.C
	}
	var timerCh <-chan time.Time

	flush := func(reason string) {
		if len(batch) == 0 {
			return
		}
		s.flush(batch, reason)
		batch = batch[:0]
		if timerCh != nil && !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timerCh = nil
	}

	for {
		select {
		case <-s.stopCh:
			// 排空剩余
			for {
				select {
				case m := <-s.queue:
					metrics.AuditKafkaQueueDepth.Dec()
					batch = append(batch, m)
					if len(batch) >= s.opts.MaxBatch {
						flush("shutdown")
					}
				default:
					flush("shutdown")
					return
				}
			}
		case m := <-s.queue:
			metrics.AuditKafkaQueueDepth.Dec()
			batch = append(batch, m)
			if len(batch) == 1 {
				timer.Reset(s.opts.MaxWait)
				timerCh = timer.C
			}
			if len(batch) >= s.opts.MaxBatch {
				flush("size")
			}
		case <-timerCh:
			timerCh = nil
			flush("timeout")
		}
	}
}

func (s *AsyncSender) flush(batch []AsyncMessage, reason string) {
	start := time.Now()
	var maxDelay time.Duration
	msgs := make([]kafkaGo.Message, 0, len(batch))
	spans := make([]trace.Span, 0, len(batch))
	for _, m := range batch {
		if !m.EnqueueAt.IsZero() {
			if d := start.Sub(m.EnqueueAt); d > maxDelay {
				maxDelay = d
			}
		}
		ctx := m.Ctx
		if ctx == nil {
			ctx = context.Background()
		}
		ctxSpan, span := s.producer.startSpan(ctx)
		msgs = append(msgs, kafkaGo.Message{Key: m.Key, Value: m.Value, Time: start, Headers: s.producer.buildHeaders(ctxSpan, m.Headers)})
		spans = append(spans, span)
	}
	metrics.AuditKafkaQueueDelay.Observe(maxDelay.Seconds())

	writeCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	err := s.producer.Writer.WriteMessages(writeCtx, msgs...)
	cancel()
	for _, sp := range spans {
		if err != nil {
			sp.SetStatus(codes.Error, err.Error())
			sp.RecordError(err)
		}
		sp.End()
	}
	if err != nil {
		metrics.AuditKafkaErrors.Add(float64(len(batch)))
		s.logger.Warn("kafka_batch_write_failed", zap.Int("size", len(batch)), zap.Error(err))
		lost := 0
		for _, m := range batch {
			ctx, c := context.WithTimeout(context.Background(), time.Second)
			if err := s.producer.Send(ctx, m.Key, m.Value, m.Headers); err != nil {
				lost++
			}
			c()
		}
		if lost > 0 {
			s.logger.Error("kafka_messages_lost", zap.Int("lost", lost))
		}
	}
	elapsed := time.Since(start)
	metrics.AuditKafkaBatchFlush.WithLabelValues(reason).Inc()
	metrics.AuditKafkaBatchSize.Observe(float64(len(batch)))
	metrics.AuditKafkaFlushDuration.WithLabelValues(reason).Observe(elapsed.Seconds())
}

// Enqueue 非阻塞，满则丢弃并返回 false
func (s *AsyncSender) Enqueue(m AsyncMessage) bool {
	select {
	case <-s.stopCh:
		metrics.AuditKafkaEnqueue.WithLabelValues("closed").Inc()
		return false
	default:
	}
	if m.EnqueueAt.IsZero() {
		m.EnqueueAt = time.Now()
	}
	select {
	case s.queue <- m:
		metrics.AuditKafkaEnqueue.WithLabelValues("ok").Inc()
		metrics.AuditKafkaQueueDepth.Inc()
		return true
	default:
		metrics.AuditKafkaEnqueue.WithLabelValues("dropped").Inc()
		return false
	}
}

// Close 通知 worker 排空队列后退出；ctx 超时则直接返回
func (s *AsyncSender) Close(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
