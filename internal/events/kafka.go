package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaWriter is the subset of kafka.Writer the producer needs.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer publishes events through a buffered channel so callers
// never block on the broker. When the buffer is full the event is
// dropped with a warning, per the best-effort delivery contract.
type KafkaProducer struct {
	writer    KafkaWriter
	events    chan Event
	logger    *zap.Logger
	closeChan chan struct{}
}

// NewKafkaProducer creates the topic if needed and starts the send
// loop.
func NewKafkaProducer(brokers []string, topic string, logger *zap.Logger) (*KafkaProducer, error) {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Warn("failed to create topic (may already exist)", zap.Error(err))
	}

	p := &KafkaProducer{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Balancer: &kafka.LeastBytes{},
			Topic:    topic,
		},
		events:    make(chan Event, 1000),
		logger:    logger.Named("kafka_producer"),
		closeChan: make(chan struct{}),
	}

	go p.eventLoop()
	return p, nil
}

// Produce enqueues an event for asynchronous delivery.
func (p *KafkaProducer) Produce(ev Event) {
	select {
	case p.events <- ev:
	default:
		p.logger.Warn("event queue full, dropping event",
			zap.String("kind", string(ev.Kind)),
			zap.String("subject", ev.SubjectID().String()),
		)
	}
}

func (p *KafkaProducer) eventLoop() {
	for {
		select {
		case ev := <-p.events:
			p.sendEvent(context.Background(), ev)
		case <-p.closeChan:
			return
		}
	}
}

func (p *KafkaProducer) sendEvent(ctx context.Context, ev Event) {
	value, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("failed to serialize event",
			zap.Error(err),
			zap.String("kind", string(ev.Kind)),
		)
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.SubjectID().String()),
		Value: value,
	})
	if err != nil {
		p.logger.Error("failed to produce event",
			zap.Error(err),
			zap.String("kind", string(ev.Kind)),
		)
	}
}

// Close stops the send loop and closes the writer.
func (p *KafkaProducer) Close() {
	close(p.closeChan)
	if err := p.writer.Close(); err != nil {
		p.logger.Error("failed to close kafka writer", zap.Error(err))
	}
}

// KafkaConsumer reads events back off the queue and hands them to a
// registered handler. Handler errors are logged and the message is
// skipped; there is no retry.
type KafkaConsumer struct {
	reader  *kafka.Reader
	logger  *zap.Logger
	handler func(context.Context, Event) error
}

// NewKafkaConsumer builds a consumer for a group.
func NewKafkaConsumer(brokers []string, topic, groupID string, logger *zap.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			GroupID: groupID,
			Topic:   topic,
			Dialer:  kafka.DefaultDialer,
		}),
		logger: logger.Named("kafka_consumer"),
	}
}

// RegisterHandler sets the function invoked per event. Must be called
// before Start.
func (c *KafkaConsumer) RegisterHandler(fn func(context.Context, Event) error) {
	c.handler = fn
}

// Start launches the fetch/handle/commit loop until ctx is canceled.
func (c *KafkaConsumer) Start(ctx context.Context) {
	go func() {
		for {
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.logger.Error("failed to fetch message", zap.Error(err))
				continue
			}

			var ev Event
			if err := json.Unmarshal(msg.Value, &ev); err != nil {
				c.logger.Error("failed to parse event",
					zap.Error(err),
					zap.ByteString("value", msg.Value),
				)
				continue
			}

			if err := c.handler(ctx, ev); err != nil {
				c.logger.Error("failed to handle event",
					zap.Error(err),
					zap.String("kind", string(ev.Kind)),
				)
			}

			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				c.logger.Error("failed to commit message",
					zap.Error(err),
					zap.String("kind", string(ev.Kind)),
				)
			}
		}
	}()
}

// Close closes the underlying reader.
func (c *KafkaConsumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Error("failed to close kafka reader", zap.Error(err))
	}
}
