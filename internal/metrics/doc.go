// Package metrics provides run observability for layoutswap.
//
// Components receive a Recorder through dependency injection. NoopRecorder is
// the default and does nothing; PrometheusRecorder registers collectors on a
// registry that can be exported as a node_exporter textfile once the run ends
// (see WriteTextfile), which suits a batch job that exits after one pass.
package metrics
