package token

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

// Reporter receives the sweep report. The S3 storage client satisfies it.
type Reporter interface {
	UploadReport(ctx context.Context, key string, payload []byte) error
}

// Cleaner runs the expired-token sweep once a day at a fixed hour. It is
// owned by the process lifecycle: main starts it after the store is ready
// and stops it on shutdown. The sweep only touches rows already past their
// expiry, so it never contends with request-path validation.
type Cleaner struct {
	service  *Service
	hour     int // hour of day, 0-23
	reporter Reporter
	now      func() time.Time
	stop     chan struct{}
	done     chan struct{}
}

// NewCleaner creates a cleaner firing daily at the given hour. reporter may
// be nil.
func NewCleaner(service *Service, hour int, reporter Reporter) *Cleaner {
	if hour < 0 || hour > 23 {
		hour = 2
	}
	return &Cleaner{
		service:  service,
		hour:     hour,
		reporter: reporter,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// nextRun returns the next occurrence of the configured hour
func (c *Cleaner) nextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), c.hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

// Start launches the sweep loop in a goroutine
func (c *Cleaner) Start() {
	go func() {
		defer close(c.done)
		for {
			timer := time.NewTimer(time.Until(c.nextRun(c.now())))
			select {
			case <-timer.C:
				if _, err := c.RunOnce(context.Background()); err != nil {
					log.Printf("Error cleaning up expired tokens: %v", err)
				}
			case <-c.stop:
				timer.Stop()
				return
			}
		}
	}()
}

// Stop terminates the loop and waits for it to exit
func (c *Cleaner) Stop() {
	close(c.stop)
	<-c.done
}

// RunOnce performs a single sweep, logging and optionally archiving the
// result. Also called directly by the admin cleanup endpoint.
func (c *Cleaner) RunOnce(ctx context.Context) (int64, error) {
	started := c.now()
	deleted, err := c.service.CleanExpired(ctx)
	if err != nil {
		return 0, err
	}
	log.Printf("Cleaned up %d expired tokens", deleted)

	if c.reporter != nil {
		report, err := json.Marshal(map[string]interface{}{
			"ranAt":         started.UTC().Format(time.RFC3339),
			"deletedTokens": deleted,
		})
		if err == nil {
			key := fmt.Sprintf("cleanup-reports/%s.json", started.UTC().Format("2006-01-02T15-04-05"))
			if err := c.reporter.UploadReport(ctx, key, report); err != nil {
				// Archive failures must not fail the sweep
				log.Printf("Error uploading cleanup report: %v", err)
			}
		}
	}
	return deleted, nil
}
