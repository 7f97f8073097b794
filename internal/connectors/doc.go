// Package connectors provides connector implementations for remote
// file-storage providers, plus the credential and rate limiting helpers
// they share. Each provider lives in its own subpackage.
package connectors
