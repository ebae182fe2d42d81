package device

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/fieldmark/beacon/internal/geo"
	"github.com/fieldmark/beacon/internal/models"
)

// positionMessage is the JSON payload field devices publish on the position
// topic.
type positionMessage struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Altitude  float64 `json:"altitude"`
	Speed     float64 `json:"speed"`
	Heading   float64 `json:"heading"`
	Timestamp int64   `json:"timestamp"`
}

// MQTTSource is a LocationSource fed by device-pushed position updates over
// an MQTT topic. Field devices publish their fixes; this adapter exposes
// them through the same one-shot and continuous contract the engine expects
// from any platform source.
type MQTTSource struct {
	client mqtt.Client
	topic  string
	log    *slog.Logger
}

// NewMQTTSource creates a source subscribed to the given topic pattern.
func NewMQTTSource(client mqtt.Client, topic string, log *slog.Logger) *MQTTSource {
	return &MQTTSource{client: client, topic: topic, log: log}
}

// GetCurrent waits for the next published position, up to the context
// deadline set by the acquirer.
func (s *MQTTSource) GetCurrent(ctx context.Context, _ AcquireOptions) (models.LocationReading, error) {
	readings := make(chan models.LocationReading, 1)

	token := s.client.Subscribe(s.topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		reading, err := decodePosition(msg.Payload())
		if err != nil {
			s.log.WarnContext(ctx, "Discarding invalid position message", "topic", msg.Topic(), "error", err)
			return
		}
		select {
		case readings <- reading:
		default:
		}
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return models.LocationReading{}, Classify(CodePositionUnavailable, err.Error())
	}
	defer s.unsubscribe()

	select {
	case <-ctx.Done():
		return models.LocationReading{}, Classify(CodeTimeout, "no position published before the deadline")
	case reading := <-readings:
		return reading, nil
	}
}

// Watch subscribes continuously, decoding each published position and
// handing it to onReading. Malformed payloads go to onError.
func (s *MQTTSource) Watch(
	onReading func(models.LocationReading),
	onError func(error),
	_ AcquireOptions,
) (WatchHandle, error) {
	token := s.client.Subscribe(s.topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		reading, err := decodePosition(msg.Payload())
		if err != nil {
			onError(fmt.Errorf("invalid position message on %s: %w", msg.Topic(), err))
			return
		}
		onReading(reading)
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", s.topic, err)
	}

	return &mqttWatchHandle{source: s}, nil
}

func (s *MQTTSource) unsubscribe() {
	token := s.client.Unsubscribe(s.topic)
	token.Wait()
	if err := token.Error(); err != nil {
		s.log.Warn("Failed to unsubscribe from position topic", "topic", s.topic, "error", err)
	}
}

type mqttWatchHandle struct {
	source *MQTTSource
}

func (h *mqttWatchHandle) Cancel() {
	h.source.unsubscribe()
}

func decodePosition(payload []byte) (models.LocationReading, error) {
	var raw positionMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return models.LocationReading{}, fmt.Errorf("failed to decode position payload: %w", err)
	}

	// Out-of-range pairs and the (0,0) unset sentinel are both unusable.
	if !geo.IsValidCoordinate(raw.Latitude, raw.Longitude) {
		return models.LocationReading{}, fmt.Errorf("unusable coordinate (%f, %f) in position payload",
			raw.Latitude, raw.Longitude)
	}

	reading := models.LocationReading{
		Coordinates: models.Coordinates{Latitude: raw.Latitude, Longitude: raw.Longitude},
		Accuracy:    raw.Accuracy,
		Altitude:    raw.Altitude,
		Speed:       raw.Speed,
		Heading:     raw.Heading,
		Source:      models.SourceDeviceGPS,
		Timestamp:   time.Now(),
	}
	if raw.Timestamp > 0 {
		reading.Timestamp = time.Unix(raw.Timestamp, 0)
	}
	return reading, nil
}
