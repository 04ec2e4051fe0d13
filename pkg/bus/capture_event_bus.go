package bus

import (
	"encoding/json"
	"fmt"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"
)

// SpansReceivedTopic carries batches of typed spans from the collector
// transport to the capture recorder.
const SpansReceivedTopic = "spans.received"

// CaptureEventBus decouples the collector transport from the capture layer.
// Payloads are JSON-marshalled so publishers and subscribers only share the
// payload type, not a channel.
type CaptureEventBus[PayloadType any] interface {
	Subscribe(topic string, handler func(payload PayloadType) error, transactional bool) error
	Publish(topic string, payload PayloadType) error
}

type CaptureEventBusImpl[PayloadType any] struct {
	eventBus EventBus.Bus
	logger   *zap.Logger
}

func NewCaptureEventBus[PayloadType any](
	eventBus EventBus.Bus,
	logger *zap.Logger,
) CaptureEventBus[PayloadType] {
	return &CaptureEventBusImpl[PayloadType]{
		eventBus: eventBus,
		logger:   logger,
	}
}

func (cb *CaptureEventBusImpl[PayloadType]) Subscribe(
	topic string,
	handler func(payload PayloadType) error,
	transactional bool,
) error {
	err := cb.eventBus.SubscribeAsync(
		topic,
		func(arg string) {
			var payload PayloadType
			err := json.Unmarshal([]byte(arg), &payload)
			if err != nil {
				cb.logger.Error("Failed to unmarshal payload during subscription of topic",
					zap.String("topic", topic),
					zap.Error(err),
				)
				return
			}
			err = handler(payload)
			if err != nil {
				cb.logger.Error("Failed to handle payload during subscription of topic",
					zap.String("topic", topic),
					zap.Error(err),
				)
			}
		},
		transactional,
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
	}
	return nil
}

func (cb *CaptureEventBusImpl[PayloadType]) Publish(topic string, payload PayloadType) error {
	marshaledPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for topic %s: %w", topic, err)
	}
	cb.eventBus.Publish(topic, string(marshaledPayload))
	return nil
}

// WaitAsync blocks until every asynchronous subscriber callback has
// completed. Tests use it to make publishes deterministic.
func (cb *CaptureEventBusImpl[PayloadType]) WaitAsync() {
	cb.eventBus.WaitAsync()
}
