package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nandanugg/zone-tracker/config"
	"github.com/nandanugg/zone-tracker/module/core"
)

func main() {
	cfg := config.Load()

	var db *sql.DB
	if cfg.ZoneSource == config.ZoneSourcePostgres {
		var err error
		db, err = config.NewPostgres(cfg)
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer func() { _ = db.Close() }()
	}

	var amqpConn *amqp.Connection
	if cfg.RabbitMQURL != "" {
		var err error
		amqpConn, err = config.NewRabbitMQ(cfg)
		if err != nil {
			log.Fatalf("rabbitmq: %v", err)
		}
		defer func() { _ = amqpConn.Close() }()
	}

	mqttClient, err := config.NewMQTT(cfg)
	if err != nil {
		log.Fatalf("mqtt: %v", err)
	}
	defer mqttClient.Disconnect(250)

	coreModule, err := core.Build(core.Deps{
		DB:   db,
		AMQP: amqpConn,
		MQTT: mqttClient,
	}, core.Options{
		StateStoreURL:   cfg.StateStoreURL,
		StateStoreToken: cfg.StateStoreToken,
		DeviceID:        cfg.DeviceID,
		CaptureTimeout:  cfg.CaptureTimeout,
		UserAgent:       cfg.UserAgent,
		RetryDelay:      cfg.RetryDelay,
	})
	if err != nil {
		log.Fatalf("core module: %v", err)
	}
	defer coreModule.Close()

	if cfg.CardFile != "" {
		card, err := config.LoadCard(cfg.CardFile)
		if err != nil {
			log.Fatalf("card: %v", err)
		}
		if err := coreModule.Configure(card.TrackerConfig()); err != nil {
			log.Fatalf("configure: %v", err)
		}
		log.Printf("configured for %s from %s", card.Entity, cfg.CardFile)
	}

	if err := coreModule.StartSubscribers(); err != nil {
		log.Fatalf("start subscribers: %v", err)
	}

	// first cycle on load; retries on its own until configured
	if _, err := coreModule.Scheduler.Trigger(context.Background()); err != nil {
		log.Printf("initial update: %v", err)
	}

	r := gin.Default()

	health := config.NewHealthChecker(db, amqpConn, mqttClient, coreModule)
	health.Register(r)

	coreModule.RegisterRoutes(&r.RouterGroup)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: r,
	}

	go func() {
		log.Printf("listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
