package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/nandanugg/zone-tracker/module/core/domain"
	"github.com/nandanugg/zone-tracker/module/core/internal/repository/locator"
)

var _ locator.Locator = (*Locator)(nil)

var ErrRequestInFlight = errors.New("position request already in flight")

const (
	requestTopicFmt = "/tracker/device/%s/position/request"
	replyTopicFmt   = "/tracker/device/%s/position"
)

func RequestTopic(deviceID string) string { return fmt.Sprintf(requestTopicFmt, deviceID) }
func ReplyTopic(deviceID string) string   { return fmt.Sprintf(replyTopicFmt, deviceID) }

type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// RequestMessage asks the device for one position fix.
type RequestMessage struct {
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
}

// PositionMessage is the device's reply. Either Error is set or the
// coordinates are.
type PositionMessage struct {
	RequestID        string               `json:"request_id"`
	Latitude         *float64             `json:"latitude,omitempty"`
	Longitude        *float64             `json:"longitude,omitempty"`
	Accuracy         *float64             `json:"accuracy,omitempty"`
	Altitude         *float64             `json:"altitude,omitempty"`
	AltitudeAccuracy *float64             `json:"altitude_accuracy,omitempty"`
	Heading          *float64             `json:"heading,omitempty"`
	Speed            *float64             `json:"speed,omitempty"`
	Timestamp        int64                `json:"timestamp,omitempty"`
	Error            *domain.CaptureError `json:"error,omitempty"`
}

type result struct {
	reading *domain.DeviceReading
	err     error
}

type pendingRequest struct {
	id     string
	result chan result
}

// Locator captures positions from a device over MQTT request/reply. Only
// one request may be outstanding.
type Locator struct {
	client   client
	deviceID string
	timeout  time.Duration
	newID    func() string

	mu      sync.Mutex
	pending *pendingRequest
}

// NewLocator builds a locator for deviceID. A positive timeout bounds the
// wait for the device's reply.
func NewLocator(c paho.Client, deviceID string, timeout time.Duration) *Locator {
	return &Locator{
		client:   c,
		deviceID: deviceID,
		timeout:  timeout,
		newID:    uuid.NewString,
	}
}

func (l *Locator) Start() error {
	token := l.client.Subscribe(ReplyTopic(l.deviceID), 1, l.handleMessage)
	token.Wait()
	return token.Error()
}

func (l *Locator) RequestPosition(ctx context.Context) (*domain.DeviceReading, error) {
	l.mu.Lock()
	if l.pending != nil {
		l.mu.Unlock()
		return nil, ErrRequestInFlight
	}
	p := &pendingRequest{id: l.newID(), result: make(chan result, 1)}
	l.pending = p
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		if l.pending == p {
			l.pending = nil
		}
		l.mu.Unlock()
	}()

	payload, err := json.Marshal(RequestMessage{RequestID: p.id, Timestamp: time.Now().UnixMilli()})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	token := l.client.Publish(RequestTopic(l.deviceID), 1, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("publish request: %w", err)
	}

	var expired <-chan time.Time
	if l.timeout > 0 {
		t := time.NewTimer(l.timeout)
		defer t.Stop()
		expired = t.C
	}

	select {
	case r := <-p.result:
		return r.reading, r.err
	case <-expired:
		return nil, &domain.CaptureError{
			Code:    domain.CaptureTimeout,
			Message: fmt.Sprintf("no reply from %s within %s", l.deviceID, l.timeout),
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Locator) handleMessage(_ paho.Client, msg paho.Message) {
	var raw PositionMessage
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		log.Printf("invalid position message: %v", err)
		return
	}

	if err := validatePositionMessage(&raw); err != nil {
		log.Printf("validation error: %v", err)
		return
	}

	l.mu.Lock()
	p := l.pending
	if p == nil || p.id != raw.RequestID {
		l.mu.Unlock()
		log.Printf("dropping unsolicited position reply %s", raw.RequestID)
		return
	}
	l.mu.Unlock()

	// pending is released by RequestPosition once its caller has the result
	if raw.Error != nil {
		p.deliver(result{err: raw.Error})
		return
	}

	p.deliver(result{reading: &domain.DeviceReading{
		Point:            domain.GeoPoint{Lat: *raw.Latitude, Lon: *raw.Longitude},
		Accuracy:         raw.Accuracy,
		Altitude:         raw.Altitude,
		AltitudeAccuracy: raw.AltitudeAccuracy,
		Heading:          raw.Heading,
		Speed:            raw.Speed,
		Timestamp:        raw.Timestamp,
	}})
}

// deliver hands over the first reply; duplicates are dropped.
func (p *pendingRequest) deliver(r result) {
	select {
	case p.result <- r:
	default:
		log.Printf("dropping duplicate position reply %s", p.id)
	}
}

func validatePositionMessage(msg *PositionMessage) error {
	if msg.RequestID == "" {
		return fmt.Errorf("request_id: required")
	}
	if msg.Error != nil {
		if msg.Error.Code == "" {
			return fmt.Errorf("error.code: required")
		}
		return nil
	}
	if msg.Latitude == nil || *msg.Latitude < -90 || *msg.Latitude > 90 {
		return fmt.Errorf("latitude: must be between -90 and 90")
	}
	if msg.Longitude == nil || *msg.Longitude < -180 || *msg.Longitude > 180 {
		return fmt.Errorf("longitude: must be between -180 and 180")
	}
	if msg.Timestamp <= 0 {
		return fmt.Errorf("timestamp: must be positive")
	}
	return nil
}
