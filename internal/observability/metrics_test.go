package observability

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestRecordCheckInRecordedSetsWatermark(t *testing.T) {
	ts := time.Date(2023, time.February, 20, 8, 0, 0, 0, time.UTC)
	RecordCheckInRecorded(ts)

	var metric dto.Metric
	require.NoError(t, checkInRecordedGauge.Write(&metric))
	require.Equal(t, float64(ts.Unix()), metric.GetGauge().GetValue())
}

func TestRecordCheckInRejectedCountsByReason(t *testing.T) {
	var before dto.Metric
	require.NoError(t, checkInRejectedCounter.WithLabelValues("max_distance").Write(&before))

	RecordCheckInRejected("max_distance")

	var after dto.Metric
	require.NoError(t, checkInRejectedCounter.WithLabelValues("max_distance").Write(&after))
	require.Equal(t, before.GetCounter().GetValue()+1, after.GetCounter().GetValue())
}
