// cmd/worker/main.go
package main

import (
	log "github.com/sirupsen/logrus"

	"github.com/engagecrm/engage-backend/internal/config"
	"github.com/engagecrm/engage-backend/internal/db"
	"github.com/engagecrm/engage-backend/internal/queue"
	"github.com/engagecrm/engage-backend/internal/repository"
	"github.com/engagecrm/engage-backend/internal/service"
)

// The worker drains the vendor receipt queue and applies each receipt to the
// communication log. Same write path as the HTTP callback, so replays from
// either side stay idempotent.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.AMQPURL == "" {
		log.Fatal("AMQP_URL is required for the receipt worker")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	deliverySvc := service.NewDeliveryService(&repository.CommunicationLogRepository{DB: conn})

	receipts, err := queue.NewAMQPReceiptQueue(cfg.AMQPURL)
	if err != nil {
		log.Fatal(err)
	}
	defer receipts.Close()

	log.Info("receipt worker running")
	err = receipts.Consume(func(r queue.DeliveryReceipt) error {
		return deliverySvc.RecordReceipt(r.CampaignID, r.CustomerID, r.Status, r.Error)
	})
	if err != nil {
		log.WithError(err).Fatal("consumer stopped")
	}
}
