// Package events publishes submission stage changes and completed results to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"speech-digest-service/internal/models"
	"speech-digest-service/internal/observability/metrics"
	"speech-digest-service/internal/service/pipeline"
)

// Event types carried in the eventType field and header.
const (
	EventTypeStage  = "submission.stage"
	EventTypeResult = "submission.completed"
)

const (
	stageQueueSize    = 256
	stageWriteTimeout = 5 * time.Second
	stageDrainTimeout = 5 * time.Second
)

var errStageQueueFull = errors.New("stage event queue full")

type stageUpdate struct {
	submissionId string
	stage        pipeline.Stage
}

// Publisher publishes submission events to separate stage and result topics.
// With Kafka disabled every event is logged at debug level instead.
type Publisher struct {
	writerStage  *kafka.Writer
	writerResult *kafka.Writer
	principal    string
	topicStage   string
	topicResult  string
	enabled      bool
	metrics      *metrics.Metrics
	now          func() time.Time

	mu         sync.RWMutex
	closed     bool
	stageQueue chan stageUpdate
	stageDone  chan struct{}
	ctx        context.Context
	cancel     context.CancelFunc
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers     []string
	TopicStage  string
	TopicResult string
	Principal   string
	Enabled     bool
}

// New creates a publisher. A nil config, Enabled=false, or no brokers yields log-only mode.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{enabled: false, metrics: m, now: time.Now}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:   cfg.Principal,
			topicStage:  cfg.TopicStage,
			topicResult: cfg.TopicResult,
			enabled:     false,
			metrics:     m,
			now:         time.Now,
		}
	}

	// Longer dial timeout for DNS resolution in Kubernetes
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicStage", cfg.TopicStage).
		Str("topicResult", cfg.TopicResult).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	p := &Publisher{
		writerStage:  newWriter(cfg.Brokers, cfg.TopicStage, transport),
		writerResult: newWriter(cfg.Brokers, cfg.TopicResult, transport),
		principal:    cfg.Principal,
		topicStage:   cfg.TopicStage,
		topicResult:  cfg.TopicResult,
		enabled:      true,
		metrics:      m,
		now:          time.Now,
		stageQueue:   make(chan stageUpdate, stageQueueSize),
		stageDone:    make(chan struct{}),
	}
	p.ctx, p.cancel = context.WithCancel(context.Background())
	go p.runStageWorker()
	return p
}

func newWriter(brokers []string, topic string, transport *kafka.Transport) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}
}

// PublishStage publishes the stage a submission just entered. Messages are keyed by
// submission id so one submission's events stay ordered on a partition.
func (p *Publisher) PublishStage(ctx context.Context, submissionId string, stage pipeline.Stage) error {
	event := models.StageEvent{
		EventType:    EventTypeStage,
		SubmissionID: submissionId,
		Principal:    p.principal,
		Stage:        stage.String(),
		Timestamp:    p.now().UnixMilli(),
	}
	return p.publish(ctx, p.writerStage, p.topicStage, EventTypeStage, submissionId, event)
}

// PublishResult publishes a completed result.
func (p *Publisher) PublishResult(ctx context.Context, result *models.ProcessingResult) error {
	event := models.ResultEvent{
		EventType:    EventTypeResult,
		SubmissionID: result.ID,
		Principal:    p.principal,
		Timestamp:    p.now().UnixMilli(),
		Result:       result,
	}
	return p.publish(ctx, p.writerResult, p.topicResult, EventTypeResult, result.ID, event)
}

// OnStage implements pipeline.StageObserver. With Kafka enabled the event is queued for a
// background writer and OnStage never waits on the broker; a full queue drops the event.
func (p *Publisher) OnStage(ctx context.Context, submissionId string, _ models.SourceKind, stage pipeline.Stage) {
	if p.stageQueue == nil {
		_ = p.PublishStage(ctx, submissionId, stage)
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.stageQueue <- stageUpdate{submissionId: submissionId, stage: stage}:
	default:
		log.Warn().
			Str("topic", p.topicStage).
			Str("key", submissionId).
			Str("stage", stage.String()).
			Msg("Stage event queue full, dropping event")
		p.metrics.RecordKafkaPublish(p.topicStage, EventTypeStage, errStageQueueFull, 0)
	}
}

// runStageWorker writes queued stage events in order until the queue is closed.
func (p *Publisher) runStageWorker() {
	defer close(p.stageDone)
	for u := range p.stageQueue {
		ctx, cancel := context.WithTimeout(p.ctx, stageWriteTimeout)
		_ = p.PublishStage(ctx, u.submissionId, u.stage)
		cancel()
	}
}

func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close flushes queued stage events, giving up after stageDrainTimeout, and closes both
// Kafka writers.
func (p *Publisher) Close() error {
	p.mu.Lock()
	wasClosed := p.closed
	p.closed = true
	if !wasClosed && p.stageQueue != nil {
		close(p.stageQueue)
	}
	p.mu.Unlock()

	if !wasClosed && p.stageDone != nil {
		select {
		case <-p.stageDone:
		case <-time.After(stageDrainTimeout):
			log.Warn().Int("pending", len(p.stageQueue)).Msg("Stage events not flushed before shutdown")
			p.cancel()
			<-p.stageDone
		}
	}
	if p.cancel != nil {
		p.cancel()
	}

	var err error
	if p.writerStage != nil {
		if e := p.writerStage.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing stage writer")
			err = e
		}
	}
	if p.writerResult != nil {
		if e := p.writerResult.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing result writer")
			err = e
		}
	}
	return err
}
