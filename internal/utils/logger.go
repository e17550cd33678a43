package utils

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is shared by every package of the booking service.
var Logger = logrus.New()

// serviceHook stamps each entry with the service name. Text output gets a
// readable prefix; JSON output gets a "service" field so log shippers can
// filter on it.
type serviceHook struct {
	service string
	asField bool
}

func (h *serviceHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *serviceHook) Fire(entry *logrus.Entry) error {
	if h.asField {
		entry.Data["service"] = h.service
		return nil
	}
	entry.Message = "[" + h.service + "] " + entry.Message
	return nil
}

// InitLogger configures Logger from LOG_LEVEL (default info) and
// LOG_FORMAT ("text" or "json", default text).
func InitLogger(service string) {
	configureLogger(Logger, os.Stdout, service, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}

func configureLogger(l *logrus.Logger, out io.Writer, service, levelName, format string) {
	l.SetOutput(out)

	levelName = strings.ToLower(strings.TrimSpace(levelName))
	if levelName == "" {
		levelName = "info"
	}
	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		l.Warnf("Invalid LOG_LEVEL '%s', defaulting to INFO", levelName)
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	asJSON := strings.EqualFold(strings.TrimSpace(format), "json")
	if asJSON {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	l.ReplaceHooks(make(logrus.LevelHooks))
	l.AddHook(&serviceHook{service: service, asField: asJSON})
}
