package repository

import (
	"context"

	"PortWatch/internal/domain/models"
	domrepo "PortWatch/internal/domain/repository"
	pkgkafka "PortWatch/pkg/kafka"
)

// KafkaAlertPublisher implements AlertPublisher for Kafka. Each alert goes
// out as its own message keyed by symbol so per-symbol ordering holds across
// partitions; the report envelope fields ride along on every message.
type KafkaAlertPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaAlertPublisher creates a Kafka alert publisher.
func NewKafkaAlertPublisher(producer *pkgkafka.Producer, topic string) domrepo.AlertPublisher {
	return &KafkaAlertPublisher{producer: producer, topic: topic}
}

func (p *KafkaAlertPublisher) PublishReport(ctx context.Context, report models.Report) error {
	if len(report.Alerts) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(report.Alerts))
	for i, a := range report.Alerts {
		msgs[i] = pkgkafka.Message{
			Key: []byte(a.Symbol),
			Value: map[string]interface{}{
				"scope":    report.Scope,
				"as_of":    report.AsOf,
				"symbol":   a.Symbol,
				"rule_id":  a.RuleID,
				"severity": string(a.Severity),
				"message":  a.Message,
				"details":  a.Details,
				"region":   string(a.Region),
			},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaAlertPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
