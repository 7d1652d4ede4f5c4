// Package observe provides observability primitives for handler resolution.
//
// It is a pure instrumentation library: no dispatching, no transport, no
// I/O beyond exporter setup. Consumers wire the observer into the handler
// pool or the dispatch layer's middleware.
package observe
