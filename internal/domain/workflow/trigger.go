package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	TriggerStart   Trigger = "START"
	TriggerSucceed Trigger = "SUCCEED"
	TriggerFail    Trigger = "FAIL"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
