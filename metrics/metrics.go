/*
metrics.go - Prometheus metrics for the attendance engine

METRICS:
  Counters:
    attendance_days_classified_total         days run through the classifier
    attendance_days_missing_punch_total      classified days with an open in
    attendance_vouchers_earned_total         days that earned a meal voucher
    attendance_worked_hours_total{bucket}    classified hours per bucket
    attendance_ledgers_computed_total        yearly ledgers built
    attendance_punches_recorded_total        punches accepted by the store

  Gauge:
    attendance_days_needing_review           recent days with unusable punches

  Histogram:
    attendance_engine_latency_seconds{operation}   classify | ledger

QUERIES:
  # share of days needing review
  rate(attendance_days_missing_punch_total[1h]) / rate(attendance_days_classified_total[1h])

  # overtime hours per day
  rate(attendance_worked_hours_total{bucket=~"overtime_.*"}[1d])
*/
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/warp/attendance-engine/worktime"
)

// Bucket labels of attendance_worked_hours_total.
const (
	BucketStandard                 = "standard"
	BucketExcess                   = "excess"
	BucketOvertimeDiurnal          = "overtime_diurnal"
	BucketOvertimeNocturnal        = "overtime_nocturnal"
	BucketOvertimeHoliday          = "overtime_holiday"
	BucketOvertimeNocturnalHoliday = "overtime_nocturnal_holiday"
	BucketNull                     = "null"
)

// Collector holds the engine metrics.
type Collector struct {
	daysClassified  prometheus.Counter
	daysMissing     prometheus.Counter
	vouchersEarned  prometheus.Counter
	workedHours     *prometheus.CounterVec
	ledgersComputed prometheus.Counter
	punchesRecorded prometheus.Counter
	needingReview   prometheus.Gauge
	latency         *prometheus.HistogramVec
}

// NewCollector creates the metrics and registers them with reg.
// A nil reg means prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		daysClassified: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attendance_days_classified_total",
			Help: "Total number of days run through the classifier",
		}),
		daysMissing: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attendance_days_missing_punch_total",
			Help: "Total number of classified days with an unmatched in punch",
		}),
		vouchersEarned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attendance_vouchers_earned_total",
			Help: "Total number of days that earned a meal voucher",
		}),
		workedHours: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_worked_hours_total",
			Help: "Classified hours per bucket",
		}, []string{"bucket"}),
		ledgersComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attendance_ledgers_computed_total",
			Help: "Total number of yearly ledgers built",
		}),
		punchesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attendance_punches_recorded_total",
			Help: "Total number of punches accepted",
		}),
		needingReview: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "attendance_days_needing_review",
			Help: "Days in the review window with punches that need an operator",
		}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "attendance_engine_latency_seconds",
			Help:    "Engine call latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	reg.MustRegister(
		c.daysClassified,
		c.daysMissing,
		c.vouchersEarned,
		c.workedHours,
		c.ledgersComputed,
		c.punchesRecorded,
		c.needingReview,
		c.latency,
	)
	return c
}

// RecordClassification records one classified day.
func (c *Collector) RecordClassification(s worktime.WorkDaySummary, voucherEarned bool, elapsed time.Duration) {
	c.daysClassified.Inc()
	if s.MissingPunch {
		c.daysMissing.Inc()
	}
	if voucherEarned {
		c.vouchersEarned.Inc()
	}
	for bucket, d := range map[string]time.Duration{
		BucketStandard:                 s.StandardWork,
		BucketExcess:                   s.ExcessHours,
		BucketOvertimeDiurnal:          s.OvertimeDiurnal,
		BucketOvertimeNocturnal:        s.OvertimeNocturnal,
		BucketOvertimeHoliday:          s.OvertimeHoliday,
		BucketOvertimeNocturnalHoliday: s.OvertimeNocturnalHoliday,
		BucketNull:                     s.NullHours,
	} {
		if d > 0 {
			c.workedHours.WithLabelValues(bucket).Add(d.Hours())
		}
	}
	c.latency.WithLabelValues("classify").Observe(elapsed.Seconds())
}

// RecordLedger records one yearly ledger computation.
func (c *Collector) RecordLedger(elapsed time.Duration) {
	c.ledgersComputed.Inc()
	c.latency.WithLabelValues("ledger").Observe(elapsed.Seconds())
}

func (c *Collector) RecordPunch() {
	c.punchesRecorded.Inc()
}

// SetDaysNeedingReview publishes the result of the last review scan.
func (c *Collector) SetDaysNeedingReview(n int) {
	c.needingReview.Set(float64(n))
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
