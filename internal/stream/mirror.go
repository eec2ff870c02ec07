// internal/stream/mirror.go
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/engagecrm/engage-backend/internal/apperrors"
	"github.com/engagecrm/engage-backend/internal/model"
	"github.com/engagecrm/engage-backend/internal/repository"
)

// Streams mirrored into the relational store. Payloads are carried in the
// "data" field as JSON, identical to the HTTP ingestion bodies.
const (
	CustomerStream = "customer:stream"
	OrderStream    = "order:stream"
	Group          = "crm-mirror"
)

const (
	readBlock = 5 * time.Second
	readCount = 10
)

// Mirror consumes the customer and order streams and writes each entry
// through the same repositories the HTTP path uses. Delivery is
// at-least-once: an entry is acked only after its store write succeeds, and
// no deduplication is attempted.
type Mirror struct {
	rdb          *redis.Client
	customerRepo repository.CustomerRepositoryInterface
	orderRepo    repository.OrderRepositoryInterface
	consumer     string
}

func NewMirror(rdb *redis.Client, customerRepo repository.CustomerRepositoryInterface, orderRepo repository.OrderRepositoryInterface) *Mirror {
	return &Mirror{
		rdb:          rdb,
		customerRepo: customerRepo,
		orderRepo:    orderRepo,
		consumer:     "mirror-" + uuid.NewString()[:8],
	}
}

// Start creates the consumer groups and launches one read loop per stream.
// The loops exit when ctx is cancelled.
func (m *Mirror) Start(ctx context.Context) error {
	for _, stream := range []string{CustomerStream, OrderStream} {
		err := m.rdb.XGroupCreateMkStream(ctx, stream, Group, "0").Err()
		if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
			return err
		}
	}

	go m.consume(ctx, CustomerStream, m.storeCustomer)
	go m.consume(ctx, OrderStream, m.storeOrder)
	log.WithField("consumer", m.consumer).Info("stream mirror started")
	return nil
}

func (m *Mirror) consume(ctx context.Context, stream string, store func([]byte) error) {
	for {
		if ctx.Err() != nil {
			return
		}

		res, err := m.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    Group,
			Consumer: m.consumer,
			Streams:  []string{stream, ">"},
			Count:    readCount,
			Block:    readBlock,
		}).Result()
		if err != nil {
			if err == redis.Nil || ctx.Err() != nil {
				continue
			}
			log.WithError(err).WithField("stream", stream).Warn("stream read failed")
			time.Sleep(time.Second)
			continue
		}

		for _, sr := range res {
			for _, msg := range sr.Messages {
				m.handle(ctx, stream, msg, store)
			}
		}
	}
}

// handle writes one entry and acks it on success. Malformed entries are acked
// and dropped so they cannot wedge the group; store failures leave the entry
// pending for redelivery.
func (m *Mirror) handle(ctx context.Context, stream string, msg redis.XMessage, store func([]byte) error) {
	raw, ok := msg.Values["data"].(string)
	if !ok {
		log.WithFields(log.Fields{"stream": stream, "id": msg.ID}).Warn("dropping entry without data field")
		m.ack(ctx, stream, msg.ID)
		return
	}

	if err := store([]byte(raw)); err != nil {
		if isPermanent(err) {
			log.WithError(err).WithFields(log.Fields{"stream": stream, "id": msg.ID}).Warn("dropping unprocessable entry")
			m.ack(ctx, stream, msg.ID)
			return
		}
		log.WithError(err).WithFields(log.Fields{"stream": stream, "id": msg.ID}).Error("store write failed, leaving pending")
		return
	}

	m.ack(ctx, stream, msg.ID)
}

func (m *Mirror) ack(ctx context.Context, stream, id string) {
	if err := m.rdb.XAck(ctx, stream, Group, id).Err(); err != nil {
		log.WithError(err).WithField("id", id).Warn("ack failed")
	}
}

// isPermanent reports whether retrying the entry can never succeed.
func isPermanent(err error) bool {
	var ve *apperrors.ValidationError
	var de *apperrors.DuplicateError
	return errors.As(err, &ve) || errors.As(err, &de)
}

type customerPayload struct {
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	TotalSpend float64    `json:"totalSpend"`
	Visits     int        `json:"visits"`
	LastActive *time.Time `json:"lastActive"`
}

func (m *Mirror) storeCustomer(raw []byte) error {
	var p customerPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return apperrors.NewValidation("malformed customer payload: " + err.Error())
	}
	if p.Name == "" || p.Email == "" {
		return apperrors.NewValidation("customer payload missing name or email")
	}

	c := &model.Customer{
		Name:       p.Name,
		Email:      p.Email,
		TotalSpend: p.TotalSpend,
		Visits:     p.Visits,
	}
	if p.LastActive != nil {
		c.LastActive = *p.LastActive
	}
	return m.customerRepo.Create(c)
}

type orderPayload struct {
	CustomerID uuid.UUID  `json:"customerId"`
	Amount     float64    `json:"amount"`
	Date       *time.Time `json:"date"`
}

func (m *Mirror) storeOrder(raw []byte) error {
	var p orderPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return apperrors.NewValidation("malformed order payload: " + err.Error())
	}
	if p.CustomerID == uuid.Nil {
		return apperrors.NewValidation("order payload missing customerId")
	}

	o := &model.Order{CustomerID: p.CustomerID, Amount: p.Amount}
	if p.Date != nil {
		o.Date = *p.Date
	}
	return m.orderRepo.Create(o)
}
