// Package prometheus exposes engine counters as a client_golang Collector.
//
// The collector reads an engine snapshot on every scrape; it keeps no state
// of its own.
package prometheus
