package config

import (
	"context"
	"database/sql"
	"net/http"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
)

type dbPinger interface {
	PingContext(ctx context.Context) error
}

type amqpConn interface {
	IsClosed() bool
}

type mqttConn interface {
	IsConnected() bool
}

type stateStorePinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker reports the state of every backend the tracker was started
// with. Postgres and RabbitMQ are optional and skipped when nil.
type HealthChecker struct {
	db         dbPinger
	amqpConn   amqpConn
	mqtt       mqttConn
	stateStore stateStorePinger
}

func NewHealthChecker(db *sql.DB, conn *amqp.Connection, mqttClient mqtt.Client, store stateStorePinger) *HealthChecker {
	h := &HealthChecker{mqtt: mqttClient, stateStore: store}
	if db != nil {
		h.db = db
	}
	if conn != nil {
		h.amqpConn = conn
	}
	return h
}

func (h *HealthChecker) Register(r *gin.Engine) {
	r.GET("/healthz", h.Handle)
}

func (h *HealthChecker) Handle(c *gin.Context) {
	status := http.StatusOK
	deps := gin.H{}

	down := func(name, reason string) {
		deps[name] = gin.H{"status": "down", "error": reason}
		status = http.StatusServiceUnavailable
	}
	up := func(name string) {
		deps[name] = gin.H{"status": "up"}
	}

	if h.db != nil {
		if err := h.db.PingContext(c.Request.Context()); err != nil {
			down("postgres", err.Error())
		} else {
			up("postgres")
		}
	}

	if h.amqpConn != nil {
		if h.amqpConn.IsClosed() {
			down("rabbitmq", "connection closed")
		} else {
			up("rabbitmq")
		}
	}

	if !h.mqtt.IsConnected() {
		down("mqtt", "not connected")
	} else {
		up("mqtt")
	}

	if err := h.stateStore.Ping(c.Request.Context()); err != nil {
		down("state_store", err.Error())
	} else {
		up("state_store")
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":       overall,
		"dependencies": deps,
	})
}
