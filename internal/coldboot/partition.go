package coldboot

// OwnerOf maps an item index to the worker that owns it under a stride
// partition. For a fixed worker count the partition is total, disjoint, and
// independent of runtime timing, which is what lets workers touch disjoint
// data with no cross-worker synchronization.
func OwnerOf(index, workers int) int {
	return index % workers
}

// Owns reports whether worker owns the item at index.
func Owns(index, worker, workers int) bool {
	return OwnerOf(index, workers) == worker
}
