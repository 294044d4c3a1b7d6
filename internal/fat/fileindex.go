package fat

import "fmt"

// FileIndex is the in-memory file inventory built once per scan: a
// mapping from start-cluster to entry, and from normalized full
// relative path to entry.
type FileIndex struct {
	byCluster map[uint32][]DirEntry // more than one entry sharing a cluster marks corruption
	byPath    map[string]DirEntry   // keyed by the lowercased path
}

// BuildFileIndex performs the volume's one full recursive scan and
// returns the resulting inventory.
func BuildFileIndex(v *Volume) (*FileIndex, error) {
	entries, err := v.enumerateAll()
	if err != nil {
		return nil, fmt.Errorf("fat: building file index: %w", err)
	}

	idx := &FileIndex{
		byCluster: make(map[uint32][]DirEntry, len(entries)),
		byPath:    make(map[string]DirEntry, len(entries)),
	}

	for _, we := range entries {
		idx.byCluster[we.entry.StartCluster] = append(idx.byCluster[we.entry.StartCluster], we.entry)
		idx.byPath[normalizePath(we.path)] = we.entry
	}

	return idx, nil
}

// FileAtCluster returns the unique entry whose start cluster equals c.
// If no entry, or more than one entry (corruption), shares that
// cluster, ok is false.
func (idx *FileIndex) FileAtCluster(c uint32) (entry DirEntry, ok bool) {
	candidates := idx.byCluster[c]
	if len(candidates) != 1 {
		return DirEntry{}, false
	}
	return candidates[0], true
}

// StartingCluster returns the cluster for the entry whose full relative
// path equals path exactly. The index key is the lowercased path;
// lookups are case-sensitive against that key, so callers must
// normalize their query beforehand.
func (idx *FileIndex) StartingCluster(path string) (uint32, bool) {
	e, ok := idx.byPath[path]
	if !ok {
		return 0, false
	}
	return e.StartCluster, true
}

// Paths returns every indexed (lowercased) relative path, in no
// particular order.
func (idx *FileIndex) Paths() []string {
	paths := make([]string, 0, len(idx.byPath))
	for p := range idx.byPath {
		paths = append(paths, p)
	}
	return paths
}
