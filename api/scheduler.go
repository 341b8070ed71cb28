/*
scheduler.go - Periodic punch review

PURPOSE:
  Periodically scans the most recent days for punches the pairing could not
  use (an in never closed, an orphan out, a duplicate in) so an operator
  can fix them before the days feed a payroll run.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Looks back LookbackDays days, ending yesterday (today may still be open)
  - Logs every flagged day and publishes the count as a gauge

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - LookbackDays:  How many past days to scan (default: 7)
  - Enabled:       Whether scheduler is active (default: true)

USAGE:
  scheduler := NewReviewScheduler(store, metrics, log)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - worktime/intervals.go: ReviewPunches
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/metrics"
	"github.com/warp/attendance-engine/store"
	"github.com/warp/attendance-engine/worktime"
)

// ReviewScheduler flags recent days whose punches need an operator.
type ReviewScheduler struct {
	Store         store.Store
	Metrics       *metrics.Collector
	Log           logrus.FieldLogger
	CheckInterval time.Duration
	LookbackDays  int
	Enabled       bool
	Location      *time.Location
	Now           func() time.Time

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewReviewScheduler creates a new scheduler.
func NewReviewScheduler(st store.Store, m *metrics.Collector, log logrus.FieldLogger) *ReviewScheduler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ReviewScheduler{
		Store:         st,
		Metrics:       m,
		Log:           log.WithField("component", "review-scheduler"),
		CheckInterval: 1 * time.Hour,
		LookbackDays:  7,
		Enabled:       true,
		Location:      time.UTC,
		Now:           time.Now,
	}
}

// Start begins the scheduler.
func (rs *ReviewScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.Log.Info("disabled, not starting")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)

	go rs.run(rs.ticker, rs.stop)

	rs.Log.WithField("interval", rs.CheckInterval).Info("started")
}

// Stop stops the scheduler and waits for a running scan to finish.
func (rs *ReviewScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker == nil {
		return
	}
	rs.ticker.Stop()
	close(rs.stop)
	rs.wg.Wait()
	rs.ticker = nil
	rs.Log.Info("stopped")
}

func (rs *ReviewScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer rs.wg.Done()

	// Run immediately on start
	rs.RunNow(context.Background())

	for {
		select {
		case <-ticker.C:
			rs.RunNow(context.Background())
		case <-stop:
			return
		}
	}
}

// RunNow scans the lookback window once and returns the flagged date keys
// in date order.
func (rs *ReviewScheduler) RunNow(ctx context.Context) []string {
	today := generic.DayOf(rs.Now().In(rs.Location))
	from := today.AddDays(-rs.LookbackDays)
	to := today.AddDays(-1)

	records, err := rs.Store.LoadRange(ctx, from.Key(), to.Key())
	if err != nil {
		rs.Log.WithError(err).Error("failed to load recent days")
		return nil
	}

	var flagged []string
	for _, rec := range records {
		issues := worktime.ReviewPunches(rec.Punches)
		if len(issues) == 0 {
			continue
		}
		flagged = append(flagged, rec.Date)
		for _, is := range issues {
			rs.Log.WithFields(logrus.Fields{
				"date":  rec.Date,
				"punch": is.PunchID,
				"kind":  is.Kind,
			}).Warn("punch needs review")
		}
	}

	if rs.Metrics != nil {
		rs.Metrics.SetDaysNeedingReview(len(flagged))
	}
	rs.Log.WithFields(logrus.Fields{
		"from":    from.Key(),
		"to":      to.Key(),
		"flagged": len(flagged),
	}).Debug("review scan completed")
	return flagged
}
