package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-directory/config"
	userapp "github.com/oksasatya/user-directory/internal/application"
	"github.com/oksasatya/user-directory/internal/domain/entity"
	"github.com/oksasatya/user-directory/internal/infrastructure/search"
	"github.com/oksasatya/user-directory/pkg/helpers"
	"github.com/oksasatya/user-directory/pkg/mailer"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName+"-worker", cfg.Env, cfg.LogFile)
	if cfg.RabbitMQURL == "" || cfg.RabbitMQUserEventsQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}

	projector := &userapp.Projector{AppName: cfg.AppName, SupportURL: cfg.SupportURL, Logger: logger}
	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			logger.WithError(err).Fatal("elasticsearch client")
		}
		index := search.NewUserIndex(es, cfg.ESUsersIndex)
		if err := index.EnsureIndex(context.Background()); err != nil {
			logger.WithError(err).Fatal("ensure users index")
		}
		projector.Index = index
	}
	if cfg.MailSendEnabled {
		if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
			logger.Fatal("Mailgun not configured")
		}
		projector.Mail = mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	} else {
		logger.Info("MAIL_SEND_ENABLED=false; no emails will be sent")
	}

	consumer, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, cfg.RabbitMQUserEventsQueue, 16)
	if err != nil {
		logger.WithError(err).Fatal("rabbitmq consumer")
	}

	msgs, err := consumer.Deliveries(cfg.AppName + "-worker")
	if err != nil {
		logger.WithError(err).Fatal("consume")
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for msg := range msgs {
			var ev entity.UserEvent
			if err := json.Unmarshal(msg.Body, &ev); err != nil {
				logger.WithError(err).Warn("bad message")
				_ = msg.Nack(false, false)
				continue
			}

			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			err := projector.Handle(ctx, ev)
			cancel()
			if err != nil {
				logger.WithError(err).WithFields(logrus.Fields{"event": ev.Type, "user_id": ev.User.ID}).Warn("projection failed; requeueing")
				_ = msg.Nack(false, true)
				continue
			}
			_ = msg.Ack(false)
		}
		close(done)
	}()

	logger.WithField("queue", cfg.RabbitMQUserEventsQueue).Info("user worker listening")
	<-stop
	logger.Info("shutting down...")
	consumer.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}
