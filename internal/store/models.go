package store

import "time"

// Snapshot is a successful UserData fetch kept for stale fallback. Payload
// is the JSON encoding of leetcode.UserData.
type Snapshot struct {
	ID        string
	Username  string
	Payload   []byte
	FetchedAt time.Time
}
