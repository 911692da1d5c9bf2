package services

import (
	"io"
	"log/slog"
	"time"
)

// Options tune a service. The zero value is usable.
type Options struct {
	// WriteThrough persists entities when they are created instead of at the
	// next flush. Default false: a crash before the flush loses new entities.
	WriteThrough bool

	// Logger receives flush failures and write-through errors. Default discards.
	Logger *slog.Logger

	// Now is the clock. Default time.Now.
	Now func() time.Time
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (o Options) clock() func() time.Time {
	if o.Now != nil {
		return o.Now
	}
	return time.Now
}
