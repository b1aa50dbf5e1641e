package domain

// ObjectInfo - a single object as reported by a bucket listing
type ObjectInfo struct {
	Key  string `json:"key"`
	ETag string `json:"etag"` // stored verbatim, quotes included
	Size int64  `json:"size"`
}

// SyncReport summarizes one sync pass over a local tree.
type SyncReport struct {
	Uploaded   int      `json:"uploaded"`
	Skipped    int      `json:"skipped"`
	Failed     int      `json:"failed"`
	FailedKeys []string `json:"failed_keys,omitempty"`
}
