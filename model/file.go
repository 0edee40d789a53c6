package model

// File is a catalog entry. Two files are the same file when their IDs match;
// Size is fixed when the catalog is built and never changes afterwards.
type File struct {
	ID   int
	Size int64 // bytes
}

// Equal reports whether f and other identify the same catalog entry.
func (f File) Equal(other File) bool {
	return f.ID == other.ID
}
