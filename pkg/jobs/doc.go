// Package jobs is the durable registry and executor behind asynchronous
// process execution.
//
// Jobs live in a single-writer SQLite database (WAL mode, pure Go
// driver), so accepted work survives restarts. A job moves through
// accepted, running and one of the terminal statuses successful, failed
// or dismissed. Per-product failures do not fail a job; they are part
// of its results.
//
// # Execution
//
// Runner drains accepted jobs onto a bounded worker pool; the reference
// deployment runs a single worker and processes requests serially. What
// a job actually does is injected as an ExecuteFunc, keeping this
// package free of pipeline concerns. On start the runner re-queues jobs
// still accepted in the registry and fails the ones a previous process
// left running.
//
// # Dismissal
//
// Dismiss cancels a job that has not finished. A dismissal landing
// while the job executes does not interrupt the batch, but the job
// keeps its dismissed status and the late results are dropped.
//
// # Retention
//
// Finished jobs are pruned by PruneOlderThan, driven by the retention
// scheduler on the same cadence as the file sweeps.
package jobs
