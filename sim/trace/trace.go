package trace

// TraceLevel controls the verbosity of simulation tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelEvents captures every dispatched kernel event.
	TraceLevelEvents TraceLevel = "events"
	// TraceLevelRouting captures routing advertisements and route changes.
	TraceLevelRouting TraceLevel = "routing"
	// TraceLevelAll captures both kernel events and routing records.
	TraceLevelAll TraceLevel = "all"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:    true,
	TraceLevelEvents:  true,
	TraceLevelRouting: true,
	TraceLevelAll:     true,
	"":                true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// IncludesEvents reports whether kernel events are recorded at this level.
func (l TraceLevel) IncludesEvents() bool {
	return l == TraceLevelEvents || l == TraceLevelAll
}

// IncludesRouting reports whether routing records are recorded at this level.
func (l TraceLevel) IncludesRouting() bool {
	return l == TraceLevelRouting || l == TraceLevelAll
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects records during a simulation run.
type SimulationTrace struct {
	Config         TraceConfig
	Events         []EventRecord
	Advertisements []AdvertisementRecord
	RouteChanges   []RouteChangeRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:         config,
		Events:         make([]EventRecord, 0),
		Advertisements: make([]AdvertisementRecord, 0),
		RouteChanges:   make([]RouteChangeRecord, 0),
	}
}

// RecordEvent appends a dispatched event record.
func (st *SimulationTrace) RecordEvent(record EventRecord) {
	st.Events = append(st.Events, record)
}

// RecordAdvertisement appends a route advertisement record.
func (st *SimulationTrace) RecordAdvertisement(record AdvertisementRecord) {
	st.Advertisements = append(st.Advertisements, record)
}

// RecordRouteChange appends a route change record.
func (st *SimulationTrace) RecordRouteChange(record RouteChangeRecord) {
	st.RouteChanges = append(st.RouteChanges, record)
}

// AdvertisementsFrom returns the advertisements router sent on iface, in send order.
func (st *SimulationTrace) AdvertisementsFrom(router int, iface int) []AdvertisementRecord {
	var out []AdvertisementRecord
	for _, a := range st.Advertisements {
		if a.Router == router && a.Interface == iface {
			out = append(out, a)
		}
	}
	return out
}
