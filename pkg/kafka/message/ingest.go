package message

// TypeIngest identifies window ingest events.
const (
	TypeIngest    = "window.ingest"
	IngestVersion = 1
)

// Ingest is the payload of a TypeIngest envelope: one window update.
type Ingest struct {
	Category string  `json:"category"`
	Previous []int64 `json:"previous"`
	Fetched  []int64 `json:"fetched"`
	Updated  []int64 `json:"updated"`
	Average  float64 `json:"average"`
	Accepted []int64 `json:"accepted,omitempty"`
	Evicted  []int64 `json:"evicted,omitempty"`
}
