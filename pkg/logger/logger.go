package logger

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// New builds the process logger. Local environments get a colored text
// formatter, everything else emits JSON. Level comes from LOG_LEVEL.
func New() *logrus.Entry {
	base := logrus.New()

	env := os.Getenv("GO_ENV")
	if env == "" || env == "development" || env == "local" {
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	} else {
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	}

	base.SetOutput(os.Stdout)

	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		base.SetLevel(logrus.DebugLevel)
	case "warn":
		base.SetLevel(logrus.WarnLevel)
	case "error":
		base.SetLevel(logrus.ErrorLevel)
	default:
		base.SetLevel(logrus.InfoLevel)
	}

	return logrus.NewEntry(base)
}
