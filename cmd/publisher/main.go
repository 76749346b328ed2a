package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Simulated device: answers position requests from the tracker with a fix
// near home, a random fix elsewhere, or now and then a capture error.

type requestMessage struct {
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
}

type captureError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type positionMessage struct {
	RequestID string        `json:"request_id"`
	Latitude  *float64      `json:"latitude,omitempty"`
	Longitude *float64      `json:"longitude,omitempty"`
	Accuracy  *float64      `json:"accuracy,omitempty"`
	Speed     *float64      `json:"speed,omitempty"`
	Timestamp int64         `json:"timestamp,omitempty"`
	Error     *captureError `json:"error,omitempty"`
}

const (
	homeLat = 40.7128
	homeLon = -74.0060
)

func randomFix() (lat, lon float64) {
	// 60% chance to stay within ~50m of home
	if rand.Float64() < 0.6 {
		return homeLat + (rand.Float64()-0.5)*0.0009, homeLon + (rand.Float64()-0.5)*0.0009
	}
	return -90 + rand.Float64()*180, -180 + rand.Float64()*360
}

func buildReply(req requestMessage, failRate float64) positionMessage {
	if rand.Float64() < failRate {
		return positionMessage{
			RequestID: req.RequestID,
			Error:     &captureError{Code: "position_unavailable", Message: "simulated fix loss"},
		}
	}

	lat, lon := randomFix()
	acc := 5 + rand.Float64()*40
	speed := rand.Float64() * 3
	return positionMessage{
		RequestID: req.RequestID,
		Latitude:  &lat,
		Longitude: &lon,
		Accuracy:  &acc,
		Speed:     &speed,
		Timestamp: time.Now().UnixMilli(),
	}
}

func main() {
	failRate := 0.0
	if len(os.Args) > 1 {
		v, err := strconv.ParseFloat(os.Args[1], 64)
		if err != nil || v < 0 || v > 1 {
			fmt.Fprintf(os.Stderr, "usage: %s [failure_rate 0..1]\n", os.Args[0])
			os.Exit(1)
		}
		failRate = v
	}

	broker := "tcp://localhost:1883"
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		broker = v
	}
	deviceID := "phone"
	if v := os.Getenv("DEVICE_ID"); v != "" {
		deviceID = v
	}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("zone-tracker-mock-device-" + deviceID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("mqtt connect: %v", token.Error())
	}
	defer client.Disconnect(250)

	requestTopic := fmt.Sprintf("/tracker/device/%s/position/request", deviceID)
	replyTopic := fmt.Sprintf("/tracker/device/%s/position", deviceID)

	token := client.Subscribe(requestTopic, 1, func(c mqtt.Client, msg mqtt.Message) {
		var req requestMessage
		if err := json.Unmarshal(msg.Payload(), &req); err != nil {
			log.Printf("invalid request: %v", err)
			return
		}

		payload, _ := json.Marshal(buildReply(req, failRate))
		t := c.Publish(replyTopic, 1, false, payload)
		t.Wait()
		log.Printf("answered %s on %s: %s", req.RequestID, replyTopic, payload)
	})
	if token.Wait() && token.Error() != nil {
		log.Fatalf("subscribe: %v", token.Error())
	}

	log.Printf("connected to %s, answering requests on %s", broker, requestTopic)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("shutting down")
}
