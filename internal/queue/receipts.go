package queue

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// ReceiptQueue carries delivery receipts from the simulated message vendor
// back to the service.
const ReceiptQueue = "delivery_receipts"

const maxReceiptAttempts = 3

// DeliveryReceipt reports the outcome of one send attempt.
type DeliveryReceipt struct {
	CampaignID uuid.UUID `json:"campaignId"`
	CustomerID uuid.UUID `json:"customerId"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
}

// ReceiptPublisher is the producer side of the receipt queue.
type ReceiptPublisher interface {
	PublishReceipt(r DeliveryReceipt) error
}

// AMQPReceiptQueue is the RabbitMQ-backed receipt transport.
type AMQPReceiptQueue struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPReceiptQueue(url string) (*AMQPReceiptQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(ReceiptQueue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare %s: %w", ReceiptQueue, err)
	}
	return &AMQPReceiptQueue{conn: conn, ch: ch}, nil
}

func (q *AMQPReceiptQueue) PublishReceipt(r DeliveryReceipt) error {
	body, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return q.ch.Publish("", ReceiptQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// Consume applies handler to every receipt on the queue. Malformed payloads
// are acked and dropped. Handler failures are retried by republishing with an
// attempt counter; after maxReceiptAttempts the receipt is dropped.
func (q *AMQPReceiptQueue) Consume(handler func(DeliveryReceipt) error) error {
	deliveries, err := q.ch.Consume(ReceiptQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", ReceiptQueue, err)
	}

	for d := range deliveries {
		var r DeliveryReceipt
		if err := json.Unmarshal(d.Body, &r); err != nil {
			log.WithError(err).Warn("dropping malformed receipt")
			d.Ack(false)
			continue
		}

		if err := handler(r); err != nil {
			attempts := attemptCount(d.Headers)
			if attempts+1 >= maxReceiptAttempts {
				log.WithError(err).WithField("campaignId", r.CampaignID).
					Error("receipt dropped after max attempts")
				d.Ack(false)
				continue
			}
			if pubErr := q.republish(d.Body, attempts+1); pubErr != nil {
				log.WithError(pubErr).Error("receipt republish failed")
				d.Nack(false, true)
				continue
			}
			d.Ack(false)
			continue
		}
		d.Ack(false)
	}
	return nil
}

func (q *AMQPReceiptQueue) republish(body []byte, attempts int) error {
	return q.ch.Publish("", ReceiptQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Headers:      amqp.Table{"x-attempts": int32(attempts)},
		Body:         body,
	})
}

func attemptCount(headers amqp.Table) int {
	if headers == nil {
		return 0
	}
	switch v := headers["x-attempts"].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func (q *AMQPReceiptQueue) Close() {
	if q.ch != nil {
		q.ch.Close()
	}
	if q.conn != nil {
		q.conn.Close()
	}
}

var _ ReceiptPublisher = (*AMQPReceiptQueue)(nil)
