package grafana

import log "github.com/sirupsen/logrus"

// restyLogger routes resty's messages to logrus. Failed requests are only
// logged at debug level: callers decide whether a failure is an error.
type restyLogger struct{}

func (l *restyLogger) Debugf(format string, args ...interface{}) {
	log.Debugf(format, args...)
}

// Warnf is called by resty for every retried attempt.
func (l *restyLogger) Warnf(format string, args ...interface{}) {
	log.Warnf(format, args...)
}

func (l *restyLogger) Errorf(format string, args ...interface{}) {
	log.Debugf(format, args...)
}
