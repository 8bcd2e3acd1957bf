package models

// RunState is the per-run bookkeeping document. It is read at run start and
// fully replaced at run end, only after a successful commit. LastRun is zero
// on a first-ever run.
type RunState struct {
	Seen       []string          `json:"seen"`
	LastPrices map[string]string `json:"last_prices"`
	LastRun    int64             `json:"last_run,omitempty"`
}

// RunReport summarizes what a single reconciliation pass did.
type RunReport struct {
	Found         int
	NewAccepted   int
	NewRejected   int
	Reclassified  int
	PriceChanges  int
	Evicted       int
	Notified      int
	FetchFailures int
}
