// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RequestStatus is the terminal outcome of a handled request.
type RequestStatus string

const (
	StatusSucceeded RequestStatus = "succeeded"
	StatusRejected  RequestStatus = "rejected"
	StatusFailed    RequestStatus = "failed"
)

// RequestRecord is one entry in the request ledger.
type RequestRecord struct {
	// ID is the request id, also sent as the X-Request-ID header.
	ID string `json:"id" yaml:"id"`

	// Operation names what was asked for (e.g. "youtube", "convert:pdf-to-doc").
	Operation string `json:"operation" yaml:"operation"`

	// Source is the requested URL or the uploaded file name.
	Source string `json:"source" yaml:"source"`

	Status RequestStatus `json:"status" yaml:"status"`

	// Error is the client-facing error message for rejected or failed requests.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// OutputBytes is the size of the file returned to the client.
	OutputBytes int64 `json:"output_bytes" yaml:"output_bytes"`

	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
}

// Duration returns how long the request took.
func (r RequestRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
