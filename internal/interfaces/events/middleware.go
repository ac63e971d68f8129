package events

import (
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Brayan1299/Restaurante-Api/internal/observability"
)

func CorrelationIDMiddleware(next message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		correlationID := msg.Metadata.Get("correlation_id")
		if correlationID == "" {
			correlationID = uuid.NewString()
		}

		ctx := observability.ContextWithCorrelationID(msg.Context(), correlationID)
		ctx = observability.ToContext(ctx,
			logrus.WithFields(logrus.Fields{
				"correlation_id": correlationID,
				"message_uuid":   msg.UUID,
			}),
		)
		msg.SetContext(ctx)

		return next(msg)
	}
}

func LoggingMiddleware(next message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		observability.FromContext(msg.Context()).
			WithField("metadata", msg.Metadata).
			Debug("Handling a message")

		messages, err := next(msg)

		if err != nil {
			observability.FromContext(msg.Context()).
				WithField("payload", string(msg.Payload)).
				WithField("error", err).
				Error("Message handling error")
		}

		return messages, err
	}
}

var ErrJSONUnmarshal = errors.New("json unmarshal error")

// SkipMarshallingErrorsMiddleware drops malformed messages instead of letting
// the retry middleware spin on them forever.
func SkipMarshallingErrorsMiddleware(next message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		messages, err := next(msg)

		if err != nil && errors.Is(err, ErrJSONUnmarshal) {
			observability.FromContext(msg.Context()).
				WithField("error", err).
				Warn("Error while unmarshalling message, skipping")
			return nil, nil
		}

		return messages, err
	}
}
