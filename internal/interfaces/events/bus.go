package events

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
)

// jsonMarshaler tags unmarshal failures with ErrJSONUnmarshal so the skip
// middleware can tell a malformed payload apart from a handler error.
type jsonMarshaler struct {
	cqrs.JSONMarshaler
}

func (m jsonMarshaler) Unmarshal(msg *message.Message, v any) error {
	if err := m.JSONMarshaler.Unmarshal(msg, v); err != nil {
		return fmt.Errorf("%w: %s", ErrJSONUnmarshal, err)
	}
	return nil
}

var marshaler = jsonMarshaler{
	JSONMarshaler: cqrs.JSONMarshaler{
		GenerateName: cqrs.StructName,
	},
}

func NewEventBus(
	pub message.Publisher,
	logger watermill.LoggerAdapter,
) (*cqrs.EventBus, error) {
	return cqrs.NewEventBusWithConfig(
		pub,
		cqrs.EventBusConfig{
			GeneratePublishTopic: func(params cqrs.GenerateEventPublishTopicParams) (string, error) {
				return "events." + params.EventName, nil
			},
			Marshaler: marshaler,
			Logger:    logger,
		},
	)
}
