package scheduler

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct {
	logger *logrus.Logger
}

func (l cronLogger) fields(keysAndValues []any) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.WithFields(l.fields(keysAndValues)).Debugf("cron: %s", msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.WithError(err).WithFields(l.fields(keysAndValues)).Errorf("cron: %s", msg)
}
