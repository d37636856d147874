package metrics

import "time"

// NopMetrics discards every observation.
type NopMetrics struct{}

// NewNopMetrics creates a new NopMetrics.
func NewNopMetrics() *NopMetrics {
	return &NopMetrics{}
}

func (m *NopMetrics) ObserveOperation(op string, err error, latency time.Duration) {}
func (m *NopMetrics) ObserveFetchResults(n int)                                    {}
func (m *NopMetrics) IncInvalidQueries()                                           {}
func (m *NopMetrics) SetBlockHeight(height int64)                                  {}
func (m *NopMetrics) IncRevisions(action string)                                   {}
func (m *NopMetrics) AddRolledBack(n int)                                          {}
