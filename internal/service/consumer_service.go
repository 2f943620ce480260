package service

import (
	"context"

	"content-optimizer-be/internal/pkg/logger"
	"content-optimizer-be/pkg/events"
	pktNats "content-optimizer-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
)

const requestsDurable = "optimizer-requests"

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the in-process event topic and relays each
// event to the host bus. When a bus subscriber is present it also runs
// queued optimization requests.
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	relay      events.Publisher
	requests   *pktNats.Subscriber
	optimizer  IOptimizerService
	maxDeliver int
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	relay events.Publisher,
	requests *pktNats.Subscriber,
	optimizer IOptimizerService,
	log logger.ILogger,
) IConsumerService {
	if relay == nil {
		relay = events.NopPublisher{}
	}
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		relay:      relay,
		requests:   requests,
		optimizer:  optimizer,
		maxDeliver: 3,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	if cs.requests != nil {
		if err := cs.requests.Subscribe(ctx, events.OptimizationRequested, requestsDurable, cs.maxDeliver, cs.optimizer.HandleRequested); err != nil {
			return err
		}
	}
	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	event, err := events.Decode(msg)
	if err != nil {
		cs.logger.Error("CONSUMER", "Dropping malformed event", map[string]interface{}{"message_id": msg.UUID, "error": err.Error()})
		msg.Ack() // never retry a payload that cannot decode
		return
	}

	// gochannel redelivers a Nack immediately, so a bus outage drops the
	// event instead of spinning.
	if err := cs.relay.Publish(ctx, event); err != nil {
		cs.logger.Warn("CONSUMER", "Failed to relay event", map[string]interface{}{"event_type": event.Type, "error": err.Error()})
		msg.Ack()
		return
	}

	cs.logger.Debug("CONSUMER", "Event relayed", map[string]interface{}{
		"event_type": event.Type,
		"session_id": event.Data["session_id"],
	})
	msg.Ack()
}
