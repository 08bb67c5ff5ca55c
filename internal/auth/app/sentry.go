package app

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// initSentry is a no-op without a DSN.
func initSentry(dsn, environment string) error {
	if dsn == "" {
		return nil
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		Release:          BuildVersion,
		AttachStacktrace: true,
	})
}

func flushSentry() {
	sentry.Flush(2 * time.Second)
}
