package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalEvents          int
	EventsByKind         map[string]int
	Advertisements       int
	PoisonedAdvertised   int
	RouteChanges         int
	LastRouteChangeClock int64 // 0 when no route ever changed
	RoutersWithChanges   int
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		EventsByKind: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalEvents = len(st.Events)
	for _, e := range st.Events {
		summary.EventsByKind[e.Kind]++
	}

	summary.Advertisements = len(st.Advertisements)
	for _, a := range st.Advertisements {
		if a.Infinite {
			summary.PoisonedAdvertised++
		}
	}

	routers := make(map[int]bool)
	summary.RouteChanges = len(st.RouteChanges)
	for _, r := range st.RouteChanges {
		routers[r.Router] = true
		if r.Clock > summary.LastRouteChangeClock {
			summary.LastRouteChangeClock = r.Clock
		}
	}
	summary.RoutersWithChanges = len(routers)

	return summary
}
