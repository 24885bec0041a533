package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"claims-service/internal/models"
)

// DecisionQueue receives one event per adjudicated claim.
const DecisionQueue = "claim_decision_events"

// DecisionEvent is the message consumers receive after adjudication.
type DecisionEvent struct {
	ClaimID         string          `json:"claim_id"`
	PolicyID        string          `json:"policy_id,omitempty"`
	Decision        models.Decision `json:"decision"`
	ApprovedAmount  float64         `json:"approved_amount"`
	TotalClaimed    float64         `json:"total_claimed"`
	ConfidenceScore float64         `json:"confidence_score"`
	FraudScore      float64         `json:"fraud_score"`
	Reason          string          `json:"reason"`
	AdjudicatedAt   time.Time       `json:"adjudicated_at"`
}

// DecisionPublisher publishes claim decision events to RabbitMQ
type DecisionPublisher struct {
	conn              *RabbitMQConnection
	messagesPublished int64
	messagesFailed    int64
	lastPublishTime   time.Time
}

// NewDecisionPublisher creates a new decision event publisher
func NewDecisionPublisher(conn *RabbitMQConnection) *DecisionPublisher {
	return &DecisionPublisher{
		conn:            conn,
		lastPublishTime: time.Now(),
	}
}

// PublishDecision publishes one decision to the claim_decision_events queue.
func (p *DecisionPublisher) PublishDecision(ctx context.Context, decision *models.DecisionRecord) error {
	_, err := p.conn.Channel.QueueDeclare(
		DecisionQueue, // queue name
		true,          // durable
		false,         // delete when unused
		false,         // exclusive
		false,         // no-wait
		nil,           // arguments
	)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	event := DecisionEvent{
		ClaimID:         decision.ClaimID,
		PolicyID:        decision.PolicyID,
		Decision:        decision.Decision,
		ApprovedAmount:  decision.ApprovedAmount,
		TotalClaimed:    decision.TotalClaimed,
		ConfidenceScore: decision.ConfidenceScore,
		FraudScore:      decision.FraudScore,
		Reason:          decision.Reason,
		AdjudicatedAt:   decision.AdjudicationDate,
	}
	body, err := json.Marshal(event)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to marshal decision event: %w", err)
	}

	err = p.conn.Channel.PublishWithContext(
		ctx,
		"",            // exchange
		DecisionQueue, // routing key (queue name)
		false,         // mandatory
		false,         // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to publish decision event: %w", err)
	}

	p.messagesPublished++
	p.lastPublishTime = time.Now()

	slog.Info("Decision event published",
		"queue", DecisionQueue,
		"claim_id", decision.ClaimID,
		"decision", decision.Decision,
	)

	return nil
}
