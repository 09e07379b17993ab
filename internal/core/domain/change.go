package domain

// ChangeType classifies a change to a watched document.
type ChangeType string

// Change types reported by a file watcher.
const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// FileChange is a single change to a document on disk.
type FileChange struct {
	// Path is the absolute path of the changed file.
	Path string

	// Type is what happened to it.
	Type ChangeType
}
