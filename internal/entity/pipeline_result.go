package entity

import "time"

// ExportResult is the outcome of exporting to a single spreadsheet.
type ExportResult struct {
	SpreadsheetID string `json:"spreadsheetId"`
	Success       bool   `json:"success"`
	RowsExported  int    `json:"rowsExported"`
	Error         string `json:"error,omitempty"`
}

// PipelineResult summarises one pipeline run.
type PipelineResult struct {
	RawSnapshotID      string             `json:"rawSnapshotId"`
	ParsedRows         int                `json:"parsedRows"`
	ExportedRows       int                `json:"exportedRows"`
	Skipped            bool               `json:"skipped"`
	StructuredResponse StructuredResponse `json:"structuredResponse"`
	ExportResults      []ExportResult     `json:"exportResults"`
}

// RunStatus is the last-run record kept for the ops API.
type RunStatus struct {
	Status     string          `json:"status"` // "success", "failed"
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`
	Error      string          `json:"error,omitempty"`
	Result     *PipelineResult `json:"result,omitempty"`
}
