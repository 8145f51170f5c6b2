package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	scoreLoadedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "nyt_comp",
		Subsystem: "persistence",
		Name:      "last_score_loaded_timestamp_seconds",
		Help:      "Completion timestamp of the most recent score upserted into Postgres.",
	})
)

func init() {
	prometheus.MustRegister(scoreLoadedGauge)
}

// RecordScoreLoaded updates the load watermark gauge.
func RecordScoreLoaded(ts time.Time) {
	if ts.IsZero() {
		return
	}
	scoreLoadedGauge.Set(float64(ts.Unix()))
}
