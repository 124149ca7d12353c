package jobs

import "time"

// ProcessSafeToNetCDF is the process identifier jobs are submitted
// under.
const ProcessSafeToNetCDF = "safe-to-netcdf"

// Status is the lifecycle state of a job.
type Status string

const (
	// StatusAccepted means the job is registered and waiting for a
	// worker.
	StatusAccepted Status = "accepted"

	// StatusRunning means a worker is executing the job.
	StatusRunning Status = "running"

	// StatusSuccessful means the batch finished; per-product failures
	// may still be recorded in the job's results.
	StatusSuccessful Status = "successful"

	// StatusFailed means the batch itself could not run to completion.
	StatusFailed Status = "failed"

	// StatusDismissed means the requester cancelled the job before it
	// ran.
	StatusDismissed Status = "dismissed"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccessful, StatusFailed, StatusDismissed:
		return true
	}
	return false
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusAccepted, StatusRunning, StatusSuccessful, StatusFailed, StatusDismissed:
		return true
	}
	return false
}

// Job is one asynchronous batch execution. The JSON form matches the
// OGC API Processes status document; the request inputs and results are
// kept off it and exposed through their own endpoints.
type Job struct {
	ID        string `json:"jobID"`
	ProcessID string `json:"processID"`
	Status    Status `json:"status"`

	// Products are the requested product names.
	Products []string `json:"-"`

	// Email is the requester's notification address, empty when none
	// was given.
	Email string `json:"-"`

	// Links and Failures are the batch results, populated once the job
	// finishes.
	Links    []string `json:"-"`
	Failures []string `json:"-"`

	// Message carries a failure reason or completion summary.
	Message string `json:"message,omitempty"`

	Created  time.Time  `json:"created"`
	Started  *time.Time `json:"started,omitempty"`
	Finished *time.Time `json:"finished,omitempty"`
}
