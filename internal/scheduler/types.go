// Package scheduler runs named jobs at block intervals.
package scheduler

// CallbackHandler is a job the node block loop runs.
type CallbackHandler interface {
	ShouldTrigger(block int) bool
	Execute() error
	// MarkTriggered is called only after a successful Execute.
	MarkTriggered(block int)
	GetName() string
}

// BlockCallback fires once at least interval blocks have passed since its
// last successful run. Missed intervals collapse into a single run.
type BlockCallback struct {
	LastTriggerAtBlock int
	name               string
	interval           int
	executeFn          func() error
}
