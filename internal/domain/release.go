package domain

import "time"

// SourceStatus reflects the outcome of the last sync attempt for a source.
type SourceStatus string

const (
	// SourceStatusOnline means the last fetch succeeded or was not modified.
	SourceStatusOnline SourceStatus = "online"
	// SourceStatusErrored means the last fetch failed (network, timeout or
	// malformed document). The source is retried on the next sync cycle.
	SourceStatusErrored SourceStatus = "errored"
)

// Source is a registered remote catalogue supplying release listings.
//
// A Source is uniquely identified by its URL. The stored ETag is the
// validator seen on the last successful fetch; an empty ETag means the
// next fetch is unconditional.
type Source struct {
	ID            int64        `json:"id"`
	URL           string       `json:"url"`
	Name          string       `json:"name"`
	ETag          string       `json:"etag,omitempty"`
	Status        SourceStatus `json:"status"`
	DownloadCount int          `json:"downloadCount"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// Release is one downloadable offering of a game, attributed to the source
// it came from and to a repacker.
//
// Title is unique across the whole store: when two sources list the same
// title, whichever lands first wins and later inserts are ignored.
type Release struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	URIs       []string  `json:"uris"`
	FileSize   string    `json:"fileSize"`
	Repacker   string    `json:"repacker"`
	UploadDate string    `json:"uploadDate"`
	SourceID   int64     `json:"sourceId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
