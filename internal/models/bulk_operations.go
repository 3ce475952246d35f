package models

import (
	"time"
)

// CaptureRequest represents a bulk ICCID capture for one distributor
type CaptureRequest struct {
	ICCIDs        []string            `json:"iccids"`        // Raw input, may contain separators
	Distribuidor  DistributorSnapshot `json:"distribuidor"`  // Target distributor snapshot
	FechaEnvio    *time.Time          `json:"fecha_envio"`   // Defaults to today in the regional timezone
	Observaciones *string             `json:"observaciones"` // Free-text note copied to every row
	Usuario       string              `json:"usuario"`       // Actor label
}

// CaptureResult summarizes a bulk capture
type CaptureResult struct {
	InsertedCount   int      `json:"inserted_count"`
	DuplicateCount  int      `json:"duplicate_count"`
	Errors          []string `json:"errors"`
	TotalCandidates int      `json:"total_candidates"`
	Duplicates      []string `json:"duplicates,omitempty"` // ICCIDs excluded as duplicates
	Failed          []string `json:"failed,omitempty"`     // ICCIDs of batches that errored; not written
}

// ReassignmentResult is the outcome of a single historized reassignment
type ReassignmentResult struct {
	PreviousAssignment *Envio           `json:"previous_assignment"`
	NewAssignment      *Envio           `json:"new_assignment"`
	HistoryEntry       *HistorialCambio `json:"history_entry"`
}

// BulkOperationResult represents the result of a per-ICCID bulk operation
type BulkOperationResult struct {
	Operation      string               `json:"operation"`       // correction, reassignment
	TotalItems     int                  `json:"total_items"`     // Total items to process
	ProcessedItems int                  `json:"processed_items"` // Successfully processed items
	FailedItems    int                  `json:"failed_items"`    // Failed items
	StartTime      time.Time            `json:"start_time"`
	CompletionTime *time.Time           `json:"completion_time,omitempty"`
	Errors         []BulkOperationError `json:"errors,omitempty"`
	Items          []BulkOperationItem  `json:"items,omitempty"`
}

// BulkOperationError represents an error for a specific item in bulk operation
type BulkOperationError struct {
	ItemIndex int    `json:"item_index"`
	ICCID     string `json:"iccid"`
	Error     string `json:"error"`
}

// BulkOperationItem represents the result for a specific item
type BulkOperationItem struct {
	ItemIndex int     `json:"item_index"`
	ICCID     string  `json:"iccid"`
	Status    string  `json:"status"` // "success", "failed"
	Error     *string `json:"error,omitempty"`
}

// DeleteResult buckets every requested ICCID of a permanent deletion
type DeleteResult struct {
	Eliminated  []string             `json:"eliminated"`
	NotFound    []string             `json:"not_found"`
	Errors      []BulkOperationError `json:"errors"`
	RowsDeleted int64                `json:"rows_deleted"`
}

// DateCorrection is the before/after detail of one corrected envío
type DateCorrection struct {
	ICCID         string    `json:"iccid"`
	FechaAnterior time.Time `json:"fecha_anterior"`
	FechaNueva    time.Time `json:"fecha_nueva"`
}

// DateCorrectionResult summarizes a bulk date correction
type DateCorrectionResult struct {
	Updated  int                  `json:"updated"`
	NotFound []string             `json:"not_found"`
	Errors   []BulkOperationError `json:"errors"`
	Details  []DateCorrection     `json:"details"`
}
