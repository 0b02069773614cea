// Package daemon runs the long-lived coordinator process: it enforces
// single-instance execution, owns the job store, resumes interrupted jobs at
// startup, and exposes the HTTP API surface.
//
// Each tracked job runs inside its own session; the daemon maps job IDs to
// sessions and fans API calls out to them. Jobs that reached a terminal stage
// are served from the store alone.
package daemon
