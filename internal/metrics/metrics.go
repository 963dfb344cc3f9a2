// Package metrics counts what pipeline runs did. Each Recorder owns its own
// registry; nothing is registered globally.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/agentstation/alloymap/pkg/errors"
	"github.com/agentstation/alloymap/pkg/pipeline"
)

const namespace = "alloymap"

// Recorder holds the run metrics.
type Recorder struct {
	registry *prometheus.Registry

	runs      *prometheus.CounterVec
	alloys    *prometheus.GaugeVec
	conflicts prometheus.Counter
	filled    prometheus.Counter
	issues    *prometheus.CounterVec
	verdicts  *prometheus.CounterVec
	duration  prometheus.Histogram
}

// New creates a recorder with a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		// Labels: outcome (ok, error)
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome",
		}, []string{"outcome"}),

		// Labels: source (text, graph, unified)
		alloys: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alloys",
			Help:      "Alloys seen in the last run by source",
		}, []string{"source"}),

		conflicts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "conflicts_total",
			Help:      "Trait values on which the text and graph sources disagreed",
		}),

		filled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "filled_missing_total",
			Help:      "Absent traits filled with the missing marker",
		}),

		// Labels: kind (missing, invalid)
		issues: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validate",
			Name:      "issues_total",
			Help:      "Completeness issues by kind",
		}, []string{"kind"}),

		// Labels: status (Pass, Fail)
		verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "verdicts_total",
			Help:      "Threshold gate verdicts by status",
		}, []string{"status"}),

		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "End-to-end pipeline run duration",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Record adds a completed run.
func (r *Recorder) Record(res *pipeline.Result) {
	if res == nil {
		return
	}
	r.runs.WithLabelValues("ok").Inc()

	r.alloys.WithLabelValues("text").Set(float64(res.Stats.TextAlloys))
	r.alloys.WithLabelValues("graph").Set(float64(res.Stats.GraphAlloys))
	r.alloys.WithLabelValues("unified").Set(float64(res.Stats.UnifiedAlloys))
	r.conflicts.Add(float64(res.Stats.Conflicts))
	r.filled.Add(float64(res.Stats.FilledMissing))

	if res.Issues != nil {
		for _, issue := range res.Issues.Issues {
			r.issues.WithLabelValues(string(issue.Kind)).Inc()
		}
	}
	for _, v := range res.Verdicts {
		r.verdicts.WithLabelValues(string(v.Status)).Inc()
	}
	r.duration.Observe(res.Duration.Seconds())
}

// RecordFailure counts a run that aborted.
func (r *Recorder) RecordFailure() {
	r.runs.WithLabelValues("error").Inc()
}

// WriteTextfile writes every metric in the text exposition format, for the
// node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}
