// Package metrics records fwbuild stage and coverage metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	gen := coverage.NewGenerator(opts, runner) // NoopRecorder
//	gen.Recorder = metrics.NewPrometheusRecorder(nil)
//
// fwbuild is a one-shot process with no listener, so the Prometheus recorder
// is flushed to a node_exporter textfile (metrics.textfile in fwbuild.yaml)
// once the command finishes.
package metrics
