// Package metrics provides the observability hooks for presence runs.
//
// Components receive a Recorder through their constructors and default to NoopRecorder,
// so no call site needs a nil check. The daemon swaps in a PrometheusRecorder and serves
// its registry through HTTPHandler:
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	runner := pipeline.New(cfg, deps, pipeline.WithRecorder(rec))
//	mux.Handle("/metrics", metrics.HTTPHandler(reg))
package metrics
