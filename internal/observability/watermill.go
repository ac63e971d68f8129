package observability

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/sirupsen/logrus"
)

// WatermillLogrusAdapter lets the message router log through the same logrus
// instance as everything else.
type WatermillLogrusAdapter struct {
	entry *logrus.Entry
}

func NewWatermillLogger(entry *logrus.Entry) WatermillLogrusAdapter {
	return WatermillLogrusAdapter{entry: entry}
}

func (l WatermillLogrusAdapter) Error(msg string, err error, fields watermill.LogFields) {
	l.entry.WithError(err).WithFields(logrus.Fields(fields)).Error(msg)
}

func (l WatermillLogrusAdapter) Info(msg string, fields watermill.LogFields) {
	l.entry.WithFields(logrus.Fields(fields)).Info(msg)
}

func (l WatermillLogrusAdapter) Debug(msg string, fields watermill.LogFields) {
	l.entry.WithFields(logrus.Fields(fields)).Debug(msg)
}

func (l WatermillLogrusAdapter) Trace(msg string, fields watermill.LogFields) {
	l.entry.WithFields(logrus.Fields(fields)).Trace(msg)
}

func (l WatermillLogrusAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return WatermillLogrusAdapter{entry: l.entry.WithFields(logrus.Fields(fields))}
}
