package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"
)

const defaultShutdownFlushTimeout = 30 * time.Second

// Flusher is a cache whose entities are persisted and evicted each cycle.
type Flusher interface {
	Kind() string
	Flush(ctx context.Context) (KindReport, error)
}

// SessionCache is a cache that is cleared, never persisted, each cycle.
type SessionCache interface {
	ClearSessions() int
}

// Publisher receives a JSON flush report after every cycle.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// FlushReport summarizes one flush cycle.
type FlushReport struct {
	StartedAt     time.Time             `json:"started_at"`
	Duration      time.Duration         `json:"duration"`
	Kinds         map[string]KindReport `json:"kinds"`
	TokensCleared int                   `json:"tokens_cleared"`
}

// Scheduler periodically flushes every entity cache and clears the session cache.
type Scheduler struct {
	flushers  []Flusher
	sessions  SessionCache
	interval  time.Duration
	log       *slog.Logger
	now       func() time.Time
	publisher Publisher
	channel   string
}

func NewScheduler(interval time.Duration, sessions SessionCache, opts Options, flushers ...Flusher) *Scheduler {
	return &Scheduler{
		flushers: flushers,
		sessions: sessions,
		interval: interval,
		log:      opts.logger(),
		now:      opts.clock(),
	}
}

// PublishTo sends every report to channel on p.
func (s *Scheduler) PublishTo(p Publisher, channel string) {
	s.publisher = p
	s.channel = channel
}

// Flush runs one cycle. Save failures are logged and joined into the
// returned error; the cycle always visits every cache.
func (s *Scheduler) Flush(ctx context.Context) (FlushReport, error) {
	report := FlushReport{
		StartedAt: s.now(),
		Kinds:     make(map[string]KindReport, len(s.flushers)),
	}
	var errs []error
	for _, f := range s.flushers {
		kind, err := f.Flush(ctx)
		report.Kinds[f.Kind()] = kind
		if err != nil {
			errs = append(errs, err)
		}
	}
	if s.sessions != nil {
		report.TokensCleared = s.sessions.ClearSessions()
	}
	report.Duration = s.now().Sub(report.StartedAt)

	err := errors.Join(errs...)
	attrs := []any{"duration", report.Duration, "tokens_cleared", report.TokensCleared}
	for kind, r := range report.Kinds {
		attrs = append(attrs, slog.Group(kind, "persisted", r.Persisted, "failed", r.Failed, "dropped", r.Dropped))
	}
	if err != nil {
		s.log.WarnContext(ctx, "cache flush completed with errors", append(attrs, "error", err)...)
	} else {
		s.log.InfoContext(ctx, "cache flush completed", attrs...)
	}

	s.publish(ctx, report)
	return report, err
}

func (s *Scheduler) publish(ctx context.Context, report FlushReport) {
	if s.publisher == nil {
		return
	}
	data, err := json.Marshal(report)
	if err != nil {
		s.log.ErrorContext(ctx, "encode flush report", "error", err)
		return
	}
	if _, err := s.publisher.Publish(ctx, s.channel, data, map[string]string{"type": "flush"}); err != nil {
		s.log.ErrorContext(ctx, "publish flush report", "error", err)
	}
}

// Run flushes every interval until ctx is done, then flushes once more so
// that entities cached since the last cycle are not lost on shutdown.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultShutdownFlushTimeout)
			_, _ = s.Flush(final)
			cancel()
			return
		case <-ticker.C:
			_, _ = s.Flush(ctx)
		}
	}
}
