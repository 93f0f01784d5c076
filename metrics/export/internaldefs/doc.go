// Package internaldefs holds the metric names, help strings and histogram
// bounds shared by the Prometheus and OTel exporters, so both expose the
// same series.
//
// This package performs no I/O and imports no exporter package.
package internaldefs
