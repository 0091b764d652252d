package entity

import "time"

// RunState is a state of the batch runner.
type RunState string

const (
	StateIdle        RunState = "idle"
	StateClaimBatch  RunState = "claim_batch"
	StateProcessSite RunState = "process_site"
	StateDone        RunState = "done"
	StateStopped     RunState = "stopped"
)

// RunSummary counts what a batch run did.
type RunSummary struct {
	Batches   int      `json:"batches"`
	Claimed   int      `json:"claimed"`
	Processed int      `json:"processed"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
	State     RunState `json:"state"`
}

// RunEvent kinds.
const (
	EventLog  = "log"
	EventDone = "done"
)

// RunEvent is a side-channel notification emitted while a run progresses.
type RunEvent struct {
	Kind    string      `json:"kind"`
	Message string      `json:"message,omitempty"`
	Summary *RunSummary `json:"summary,omitempty"`
	Time    time.Time   `json:"time"`
}
