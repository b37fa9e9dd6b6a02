//go:build !unix

package backing

// newMapped falls back to a heap store when mmap is not available.
func newMapped(size int64) (Store, error) {
	return newHeap(size), nil
}
