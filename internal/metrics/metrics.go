// Package metrics records repository and ingest activity.
//
// PrometheusMetrics serves the counters over HTTP; NopMetrics is the
// default when no metrics address is configured.
package metrics

import "time"

// Operation results used as the "result" label.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics is the set of observations made by the repository and the ingest
// applier.
type Metrics interface {
	// ObserveOperation records one repository operation and its latency.
	ObserveOperation(op string, err error, latency time.Duration)
	// ObserveFetchResults records the size of a fetch result page.
	ObserveFetchResults(n int)
	// IncInvalidQueries counts queries rejected by validation.
	IncInvalidQueries()

	// SetBlockHeight records the last applied block height.
	SetBlockHeight(height int64)
	// IncRevisions counts revisions appended, by action.
	IncRevisions(action string)
	// AddRolledBack counts revisions removed by rollbacks.
	AddRolledBack(n int)
}

// Result returns the result label for err.
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
