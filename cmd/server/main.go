// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/engagecrm/engage-backend/internal/ai"
	"github.com/engagecrm/engage-backend/internal/auth"
	"github.com/engagecrm/engage-backend/internal/config"
	"github.com/engagecrm/engage-backend/internal/controller"
	"github.com/engagecrm/engage-backend/internal/db"
	"github.com/engagecrm/engage-backend/internal/queue"
	"github.com/engagecrm/engage-backend/internal/repository"
	"github.com/engagecrm/engage-backend/internal/service"
	"github.com/engagecrm/engage-backend/internal/stream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	customerRepo := &repository.CustomerRepository{DB: conn}
	orderRepo := &repository.OrderRepository{DB: conn}
	userRepo := &repository.UserRepository{DB: conn}
	campaignRepo := &repository.CampaignRepository{DB: conn}
	logRepo := &repository.CommunicationLogRepository{DB: conn}

	campaignSvc := service.NewCampaignService(campaignRepo, customerRepo, logRepo)
	deliverySvc := service.NewDeliveryService(logRepo)

	if cfg.AMQPURL != "" {
		receipts, err := queue.NewAMQPReceiptQueue(cfg.AMQPURL)
		if err != nil {
			log.WithError(err).Warn("receipt queue unavailable, receipts disabled")
		} else {
			defer receipts.Close()
			campaignSvc.Receipts = receipts
		}
	}

	var segmenter *ai.Segmenter
	if cfg.OpenAIKey != "" {
		segmenter = ai.NewSegmenter(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.AIModel, cfg.AIFallbackModel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.WithError(err).Warn("bad REDIS_URL, stream mirror disabled")
		} else {
			rdb = redis.NewClient(opts)
			defer rdb.Close()

			mirror := stream.NewMirror(rdb, customerRepo, orderRepo)
			if err := mirror.Start(ctx); err != nil {
				log.WithError(err).Warn("stream mirror failed to start")
			}
		}
	}

	router := controller.NewRouter(controller.Controllers{
		Auth:     &controller.AuthController{Manager: auth.NewManager(cfg, userRepo), UserRepo: userRepo},
		Customer: &controller.CustomerController{CustomerRepo: customerRepo, Segmenter: segmenter},
		Order:    &controller.OrderController{OrderRepo: orderRepo},
		Campaign: &controller.CampaignController{CampaignService: campaignSvc},
		Delivery: &controller.DeliveryController{DeliveryService: deliverySvc},
	}, []byte(cfg.JWTSecret), cfg.FrontendURL)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}

	go func() {
		log.WithField("port", cfg.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown failed")
	}
}
