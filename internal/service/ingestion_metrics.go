package service

import (
	"fmt"
	"sync"
	"time"
)

// IngestionReport tracks statistics for a single ingestion run.
type IngestionReport struct {
	mu               sync.RWMutex
	StartTime        time.Time
	Duration         time.Duration
	Fetched          int
	Stored           int
	Skipped          int
	ValidationErrors int
	Errors           int
}

// NewIngestionReport creates a report with the clock already running.
func NewIngestionReport() *IngestionReport {
	return &IngestionReport{
		StartTime: time.Now(),
	}
}

// RecordStored increments the stored record count
func (r *IngestionReport) RecordStored(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Stored += n
}

// RecordSkipped increments the skipped record count
func (r *IngestionReport) RecordSkipped() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Skipped++
}

// RecordValidationError increments the validation error count
func (r *IngestionReport) RecordValidationError() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ValidationErrors++
}

// RecordError increments the system error count
func (r *IngestionReport) RecordError() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors++
}

// Finish stamps the run duration.
func (r *IngestionReport) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Duration = time.Since(r.StartTime)
}

// String returns a formatted one-line summary of the run.
func (r *IngestionReport) String() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return fmt.Sprintf(
		"IngestionReport{Fetched=%d, Stored=%d, Skipped=%d, ValidationErrors=%d, Errors=%d, Duration=%v}",
		r.Fetched,
		r.Stored,
		r.Skipped,
		r.ValidationErrors,
		r.Errors,
		r.Duration,
	)
}
