package metrics

import (
	"fmt"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "fwbuild"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	registry      *prom.Registry
	stageDuration *prom.HistogramVec
	stageResults  *prom.CounterVec
	lineCoverage  prom.Gauge
	versionSource *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual coverage pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.lineCoverage = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "line_coverage_ratio",
			Help:      "Line coverage ratio of the last filtered tracefile",
		})
		pr.versionSource = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "version_resolutions_total",
			Help:      "Firmware version resolutions by source tier",
		}, []string{"source"})
		reg.MustRegister(pr.stageDuration, pr.stageResults, pr.lineCoverage, pr.versionSource)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) SetLineCoverage(ratio float64) {
	if p == nil || p.lineCoverage == nil {
		return
	}
	p.lineCoverage.Set(ratio)
}

func (p *PrometheusRecorder) IncVersionSource(source string) {
	if p == nil || p.versionSource == nil {
		return
	}
	p.versionSource.WithLabelValues(source).Inc()
}

// WriteTextfile writes all gathered metrics in the text exposition format,
// suitable for the node_exporter textfile collector. The file is replaced atomically.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if p == nil || p.registry == nil {
		return nil
	}
	if err := prom.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
