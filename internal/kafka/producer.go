package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/yourorg/symphony-service/internal/model"
)

// DeploymentEvent is published for every deployment attempt, keyed by
// strategy name. Downstream consumers (the dashboard feed among them) read
// these instead of polling the deployments table.
type DeploymentEvent struct {
	StrategyName string    `json:"strategy_name"`
	SymphonyID   string    `json:"symphony_id,omitempty"`
	Status       string    `json:"status"` // "deployed" or "rejected"
	Error        string    `json:"error,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Producer publishes deployment events to Kafka.
type Producer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewProducer creates a producer for the deployment-events topic.
func NewProducer(brokers []string, topic, clientID string, logger *zap.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		Transport: &kafka.Transport{
			ClientID: clientID,
		},
	}
	return &Producer{writer: writer, logger: logger}
}

// PublishDeploymentEvent sends one event. Errors are returned so the caller
// can log them, but a publish failure must never fail the deployment itself.
func (p *Producer) PublishDeploymentEvent(ctx context.Context, event DeploymentEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal deployment event",
			zap.String("strategy", event.StrategyName),
			zap.Error(err))
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.StrategyName),
		Value: value,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish deployment event",
			zap.String("strategy", event.StrategyName),
			zap.Error(err))
		return err
	}

	p.logger.Debug("Deployment event published",
		zap.String("strategy", event.StrategyName),
		zap.String("status", event.Status))
	return nil
}

// Close closes the underlying Kafka writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// EventForOutcome maps a per-strategy outcome to its event form.
func EventForOutcome(outcome model.DeployOutcome) DeploymentEvent {
	status := "deployed"
	if outcome.Error != "" {
		status = "rejected"
	}
	return DeploymentEvent{
		StrategyName: outcome.StrategyName,
		SymphonyID:   outcome.SymphonyID,
		Status:       status,
		Error:        outcome.Error,
		OccurredAt:   time.Now().UTC(),
	}
}
