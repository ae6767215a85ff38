package metrics

// Metrics defines the interface for collecting pipeline metrics.
// This decouples the pipeline from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncIntercepted(source string)
	IncMalformed(source string)
	SetStoredMatches(total int)
	IncPasses()
	IncCardsTransformed(strategy string)
	IncFallback(outcome string)
}
