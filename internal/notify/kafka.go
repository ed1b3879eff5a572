package notify

import (
	"context"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaSource consumes deal frames from a broker topic, for deployments
// where the Deal Service publishes through Kafka instead of a direct push
// connection. The frame contract is the same as over the websocket.
type KafkaSource struct {
	reader *kafka.Reader
}

func NewKafkaSource(topic string, brokers ...string) *KafkaSource {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  "storefront-deals",
		MaxBytes: 10e6, // 10MB
	})
	return &KafkaSource{reader: reader}
}

func (s *KafkaSource) Run(ctx context.Context, handler Handler) {
	for {
		if ctx.Err() != nil {
			return
		}
		s.readMessage(ctx, handler)
	}
}

func (s *KafkaSource) readMessage(ctx context.Context, handler Handler) {
	m, err := s.reader.ReadMessage(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("deal consumer: error reading message: %v", err)
		}
		return
	}

	if ev, ok := parseFrame(m.Value, time.Now()); ok {
		handler(ev)
	}
}

func (s *KafkaSource) Close() {
	if err := s.reader.Close(); err != nil {
		log.Printf("deal consumer: error closing reader: %v", err)
	}
}
