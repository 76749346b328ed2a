package core

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nandanugg/zone-tracker/module/core/domain"
	handler "github.com/nandanugg/zone-tracker/module/core/internal/handler/http"
	"github.com/nandanugg/zone-tracker/module/core/internal/handler/subscriber"
	"github.com/nandanugg/zone-tracker/module/core/internal/host"
	"github.com/nandanugg/zone-tracker/module/core/internal/repository/database"
	"github.com/nandanugg/zone-tracker/module/core/internal/repository/database/postgres"
	mqttlocator "github.com/nandanugg/zone-tracker/module/core/internal/repository/locator/mqtt"
	"github.com/nandanugg/zone-tracker/module/core/internal/repository/publisher"
	"github.com/nandanugg/zone-tracker/module/core/internal/repository/publisher/rabbitmq"
	"github.com/nandanugg/zone-tracker/module/core/internal/repository/statestore"
	"github.com/nandanugg/zone-tracker/module/core/service"
)

// Deps are the connections the core module runs on. DB and AMQP are optional:
// without DB zones come from the state store, without AMQP updates are not
// mirrored to the event exchange.
type Deps struct {
	DB   *sql.DB
	AMQP *amqp.Connection
	MQTT mqtt.Client
}

type Options struct {
	StateStoreURL   string
	StateStoreToken string
	DeviceID        string
	CaptureTimeout  time.Duration
	UserAgent       string
	RetryDelay      time.Duration
	OnFailure       func(error)
}

type Module struct {
	Runtime   *host.Runtime
	Scheduler *service.Scheduler
	Reporter  *service.ReportService
	store     *statestore.Client
	handler   *handler.TrackerHandler
	locator   *mqttlocator.Locator
	refresh   *subscriber.RefreshSubscriber
}

func Build(deps Deps, opts Options) (*Module, error) {
	store := statestore.NewClient(opts.StateStoreURL, opts.StateStoreToken)

	var zones database.ZoneRepository = store
	if deps.DB != nil {
		zones = postgres.NewZoneRepo(deps.DB)
	}

	sinks := publisher.Multi{store}
	if deps.AMQP != nil {
		statePub, err := rabbitmq.NewStatePublisher(deps.AMQP)
		if err != nil {
			return nil, fmt.Errorf("state publisher: %w", err)
		}
		sinks = append(sinks, publisher.Mirror{Name: "rabbitmq", Sink: statePub})
	}

	loc := mqttlocator.NewLocator(deps.MQTT, opts.DeviceID, opts.CaptureTimeout)
	rt := host.NewRuntime(zones, opts.UserAgent)
	reporter := service.NewReportService(loc, sinks)

	schedOpts := []service.SchedulerOption{service.WithRetryDelay(opts.RetryDelay)}
	if opts.OnFailure != nil {
		schedOpts = append(schedOpts, service.WithFailureHandler(opts.OnFailure))
	}
	sched := service.NewScheduler(rt, reporter, schedOpts...)

	return &Module{
		Runtime:   rt,
		Scheduler: sched,
		Reporter:  reporter,
		store:     store,
		handler:   handler.NewTrackerHandler(sched, rt, service.NewZoneResolver()),
		locator:   loc,
		refresh:   subscriber.NewRefreshSubscriber(deps.MQTT, sched, rt),
	}, nil
}

// Configure hands the card configuration to the runtime, as the host does
// on setConfig.
func (m *Module) Configure(cfg domain.TrackerConfig) error {
	return m.Runtime.SetConfig(cfg)
}

// Ping checks the state store the module reports to.
func (m *Module) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	m.handler.Register(r)
}

func (m *Module) StartSubscribers() error {
	if err := m.locator.Start(); err != nil {
		return fmt.Errorf("position replies: %w", err)
	}
	if err := m.refresh.Start(); err != nil {
		return fmt.Errorf("refresh requests: %w", err)
	}
	return nil
}

func (m *Module) Close() {
	m.Scheduler.Close()
}
