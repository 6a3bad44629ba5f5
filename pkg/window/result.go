package window

// IngestResult is the value produced by a single Store.Ingest call.
// It is never mutated after creation; every slice is an independent copy.
type IngestResult struct {
	// Previous is the window before the batch was merged.
	Previous []int64
	// Fetched is the batch exactly as handed to Ingest, duplicates included.
	Fetched []int64
	// Updated is the window after merge and eviction.
	Updated []int64
	// Average is the mean of Updated, 0 when Updated is empty.
	Average float64

	// Accepted holds the batch values merged into the window, in order. When a
	// batch carries more than capacity new values, the earliest of them are
	// evicted again and appear in Evicted too.
	Accepted []int64
	// Evicted holds the values dropped from the front, oldest first.
	Evicted []int64
}

// FetchFailed reports whether the ingested batch was empty, which is how a
// failed provider fetch surfaces.
func (r IngestResult) FetchFailed() bool {
	return len(r.Fetched) == 0
}

// Duplicates returns how many batch values were dropped as already present,
// either in the window or earlier in the same batch.
func (r IngestResult) Duplicates() int {
	return len(r.Fetched) - len(r.Accepted)
}
