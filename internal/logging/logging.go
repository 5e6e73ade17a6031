package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the process logger. Everything is written to stderr.
func New(level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})

	return logger
}

// Component tags a logger with the name of the component that owns it.
func Component(log logrus.FieldLogger, name string) logrus.FieldLogger {
	return log.WithField("component", name)
}
