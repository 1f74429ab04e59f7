package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/sales-operator/internal/entity"
	"github.com/xavierca1/sales-operator/internal/infra/http/middleware"
)

// LeadCreator is the part of the lead service the intake worker needs.
type LeadCreator interface {
	Create(ctx context.Context, in entity.NewLeadInput) (*entity.Lead, error)
}

// LeadIntakePayload is the body of a lead.intake message.
type LeadIntakePayload struct {
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
	Email   string `json:"email,omitempty"`
}

type deliveryConsumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// LeadIntakeWorker turns lead.intake messages into leads. Messages that
// cannot be stored are rejected without requeue and end up in the DLQ.
type LeadIntakeWorker struct {
	Channel deliveryConsumer
	Leads   LeadCreator
	Queue   string
}

func NewLeadIntakeWorker(ch *amqp.Channel, leads LeadCreator) *LeadIntakeWorker {
	return &LeadIntakeWorker{Channel: ch, Leads: leads, Queue: IntakeQueue}
}

// Start consumes until ctx is cancelled or the broker closes the channel.
func (w *LeadIntakeWorker) Start(ctx context.Context) error {
	msgs, err := w.Channel.Consume(
		w.Queue,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer on %s: %w", w.Queue, err)
	}

	log.Printf("📥 [INTAKE] waiting for messages on '%s'", w.Queue)
	for {
		select {
		case <-ctx.Done():
			log.Printf("⚠️ [INTAKE] stopping")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			w.handle(ctx, d)
		}
	}
}

func (w *LeadIntakeWorker) handle(ctx context.Context, d amqp.Delivery) {
	var payload LeadIntakePayload
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		log.Printf("❌ [INTAKE] invalid JSON in message %s: %v", d.MessageId, err)
		_ = d.Nack(false, false)
		return
	}

	lead, err := w.Leads.Create(ctx, entity.NewLeadInput{
		Name:    payload.Name,
		Company: payload.Company,
		Email:   payload.Email,
	})
	if err != nil {
		log.Printf("❌ [INTAKE] rejected message %s: %v", d.MessageId, err)
		_ = d.Nack(false, false)
		return
	}

	log.Printf("✅ [INTAKE] stored lead %d from message %s", lead.ID, d.MessageId)
	middleware.RecordLeadCreated("queue")
	_ = d.Ack(false)
}
