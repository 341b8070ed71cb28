package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/metrics"
	"github.com/warp/attendance-engine/worktime"
)

func find(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	f := find(t, reg, name)
	if f == nil {
		return 0
	}
	require.Len(t, f.GetMetric(), 1)
	return f.GetMetric()[0].GetCounter().GetValue()
}

func TestRecordClassification(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	c.RecordClassification(worktime.WorkDaySummary{
		TotalWork:    8 * time.Hour,
		StandardWork: 6 * time.Hour,
		ExcessHours:  2 * time.Hour,
	}, true, time.Millisecond)
	c.RecordClassification(worktime.WorkDaySummary{MissingPunch: true}, false, time.Millisecond)

	assert.Equal(t, 2.0, counterValue(t, reg, "attendance_days_classified_total"))
	assert.Equal(t, 1.0, counterValue(t, reg, "attendance_days_missing_punch_total"))
	assert.Equal(t, 1.0, counterValue(t, reg, "attendance_vouchers_earned_total"))

	hours := find(t, reg, "attendance_worked_hours_total")
	require.NotNil(t, hours)
	byBucket := map[string]float64{}
	for _, m := range hours.GetMetric() {
		byBucket[m.GetLabel()[0].GetValue()] = m.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{metrics.BucketStandard: 6, metrics.BucketExcess: 2}, byBucket)
}

func TestRecordLedgerAndPunch(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	c.RecordLedger(5 * time.Millisecond)
	c.RecordPunch()
	c.RecordPunch()

	assert.Equal(t, 1.0, counterValue(t, reg, "attendance_ledgers_computed_total"))
	assert.Equal(t, 2.0, counterValue(t, reg, "attendance_punches_recorded_total"))
	latency := find(t, reg, "attendance_engine_latency_seconds")
	require.NotNil(t, latency)
	assert.Equal(t, uint64(1), latency.GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewCollector(reg).RecordPunch()

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "attendance_punches_recorded_total 1")
}

func TestSetDaysNeedingReview(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	c.SetDaysNeedingReview(3)
	c.SetDaysNeedingReview(1)

	f := find(t, reg, "attendance_days_needing_review")
	require.NotNil(t, f)
	assert.Equal(t, 1.0, f.GetMetric()[0].GetGauge().GetValue())
}

func TestNewCollector_DefaultRegisterer(t *testing.T) {
	saved := prometheus.DefaultRegisterer
	t.Cleanup(func() { prometheus.DefaultRegisterer = saved })
	prometheus.DefaultRegisterer = prometheus.NewRegistry()

	assert.NotPanics(t, func() { metrics.NewCollector(nil) })
}
