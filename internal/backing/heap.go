package backing

// heapStore keeps the region in an ordinary Go slice.
type heapStore struct {
	data   []byte
	closed bool
}

func newHeap(size int64) *heapStore {
	return &heapStore{data: make([]byte, size)}
}

func (s *heapStore) Bytes() []byte { return s.data }

func (s *heapStore) Len() int64 { return int64(len(s.data)) }

func (s *heapStore) Kind() Kind { return Heap }

func (s *heapStore) Grow(n int64) error {
	if s.closed {
		return ErrClosed
	}
	if n < 0 {
		return ErrNegativeSize
	}
	if n <= int64(len(s.data)) {
		return nil
	}
	grown := make([]byte, n)
	copy(grown, s.data)
	s.data = grown
	return nil
}

func (s *heapStore) Close() error {
	s.closed = true
	s.data = nil
	return nil
}
