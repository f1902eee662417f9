package model

// ChangeKind classifies how a path differs between two snapshots.
type ChangeKind string

const (
	// ChangeCreated marks a path present in the after snapshot only.
	ChangeCreated ChangeKind = "created"
	// ChangeModified marks a path whose mtime differs between snapshots.
	ChangeModified ChangeKind = "modified"
)

// ChangeRecord reports one file the build created or modified. Unchanged and
// deleted paths never produce a record.
type ChangeRecord struct {
	Path  Path       `yaml:"path"`
	MTime int64      `yaml:"mtime"`
	Kind  ChangeKind `yaml:"kind"`
}
