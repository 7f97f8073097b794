// Package domain contains the core entities of the docsync ingestion
// pipeline: connector configurations, normalised file metadata, per-file
// sync state, document chunks and background jobs.
//
// The domain layer has no dependencies on adapters or external services.
package domain
