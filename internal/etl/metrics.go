package etl

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	insertedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "nyt_comp",
		Subsystem: "etl",
		Name:      "records_inserted_total",
		Help:      "Number of score records newly inserted by the loader.",
	})

	updatedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "nyt_comp",
		Subsystem: "etl",
		Name:      "records_updated_total",
		Help:      "Number of score records overwritten in place by the loader.",
	})

	skippedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "nyt_comp",
		Subsystem: "etl",
		Name:      "records_skipped_total",
		Help:      "Number of score records skipped due to per-record load failures.",
	})

	extractRetryCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "nyt_comp",
		Subsystem: "etl",
		Name:      "extract_retries_total",
		Help:      "Number of retried provider fetch attempts.",
	})

	runFailedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "nyt_comp",
		Subsystem: "etl",
		Name:      "runs_failed_total",
		Help:      "Number of pipeline runs aborted by extract or load failure.",
	})

	runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "nyt_comp",
		Subsystem: "etl",
		Name:      "run_duration_seconds",
		Help:      "Time spent extracting, transforming, and loading per run.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	})
)

func init() {
	prometheus.MustRegister(insertedCounter, updatedCounter, skippedCounter, extractRetryCounter, runFailedCounter, runDuration)
}

func recordInserted()     { insertedCounter.Inc() }
func recordUpdated()      { updatedCounter.Inc() }
func recordSkipped()      { skippedCounter.Inc() }
func recordExtractRetry() { extractRetryCounter.Inc() }
func recordRunFailed()    { runFailedCounter.Inc() }

func observeRunDuration(d time.Duration) {
	runDuration.Observe(d.Seconds())
}
