package domain

import "time"

// FileMetadata is the normalised shape every connector returns for a
// remote file, regardless of provider. It is reconstructed on every
// listing call and never persisted as-is.
type FileMetadata struct {
	// ID is the provider-native file identifier.
	ID string

	// Name is the filename, used for extension filtering.
	Name string

	// ModifiedTime is the provider's last-modified timestamp (UTC).
	ModifiedTime time.Time

	// SizeBytes is the file size reported by the provider.
	SizeBytes int64

	// ContentHash is the provider-native checksum. The algorithm varies
	// by provider (MD5 for Drive, SHA-1 for OneDrive, a block hash for
	// Dropbox), so it is only ever compared as an opaque token within a
	// single (connector, file) pair. Empty when the provider gives none.
	ContentHash string

	// MIMEType is the provider-reported content type.
	MIMEType string

	// ConnectorID identifies the connector that listed this file.
	ConnectorID string

	// Source is the provider the file came from.
	Source Provider
}

// FileSyncState is the durable per-file record the change detector keeps,
// keyed by (ConnectorID, FileID). It is written at sync time (initial
// insert) and at processing completion (upsert); it is never deleted
// automatically — removing a row makes the file count as unseen.
type FileSyncState struct {
	ConnectorID string
	FileID      string

	// FilePath is the file name at the time of the last sync, kept for
	// operator inspection only.
	FilePath string

	// LastHash is the provider hash recorded on the last state write.
	LastHash string

	// LastModified is the modified time recorded on the last state write.
	LastModified time.Time

	// Processed is true only after a download+process job completed.
	// A false value means the previous attempt did not finish and the
	// file is retried on the next cycle.
	Processed bool
}
