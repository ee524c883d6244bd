package entity

import "time"

// RawSnapshot mirrors the `tariffs_box_raw` table: one immutable capture of a
// single fetch. Rows are only ever inserted, and removed by age-based retention.
type RawSnapshot struct {
	ID          string
	JSONPayload string
	TextPayload string
	JSONPath    string
	TextPath    string
	SourceURL   string
	StatusCode  int
	PayloadHash string // SHA-256 of the archived text, audit only
	CreatedAt   time.Time
}

// ArchivedPayload describes the two files written for a fetched payload.
type ArchivedPayload struct {
	JSONPath     string `json:"jsonPath"`
	TextPath     string `json:"textPath"`
	BytesWritten int    `json:"bytesWritten"`
	PayloadHash  string `json:"payloadHash"`
}

// APIResponse is what the remote client hands back for a successful fetch.
type APIResponse struct {
	Payload   any
	RawBody   string
	Status    int
	URL       string
	FetchedAt time.Time
}
