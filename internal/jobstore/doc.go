// Package jobstore persists job records in SQLite so history survives
// restarts and non-terminal jobs can be re-attached to a reconciler.
// Session state stays authoritative in memory; this is the durable record.
package jobstore
