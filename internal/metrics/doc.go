// Package metrics records build and stage metrics for apkbuilder.
//
// Components receive a Recorder through injection and default to
// NoopRecorder, so call sites never check for nil. PrometheusRecorder keeps
// the metrics in a private registry; a one-shot CLI has no scrape endpoint,
// so the registry is written out in node-exporter textfile format by
// WriteTextfile when --metrics-file is set.
package metrics
