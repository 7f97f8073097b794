// Package driving provides interfaces for application entry points
// (primary/inbound ports): sync orchestration, local ingestion, and the
// background scheduler.
package driving
