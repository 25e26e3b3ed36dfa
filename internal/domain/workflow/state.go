package workflow

// State is a step in the export lifecycle of a draft
type State string

const (
	StateIdle      State = "IDLE"
	StateExporting State = "EXPORTING"
	StateExported  State = "EXPORTED"
	StateFailed    State = "FAILED"
)

var validStates = map[State]bool{
	StateIdle:      true,
	StateExporting: true,
	StateExported:  true,
	StateFailed:    true,
}

// Busy reports whether an export is in flight in this state
func (s State) Busy() bool {
	return s == StateExporting
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}
