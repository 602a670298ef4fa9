// Package operations orchestrates the analysis pipeline: reading the
// subscription dataset, classifying it, optionally reconciling the ledger,
// assembling the combined workbook, and splitting it per department.
//
// Stages run strictly sequentially on the calling goroutine; every stage
// boundary polls the caller's context and emits a human-readable status
// through the progress callback. Cancellation surfaces as ErrCancelled,
// which is a status, not a failure.
package operations
