//go:build unix

package backing

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// mappedStore keeps the region in an anonymous private mapping so a large
// arena does not add to GC scan work.
type mappedStore struct {
	data   []byte
	closed bool
}

func newMapped(size int64) (Store, error) {
	if size == 0 {
		return &mappedStore{data: []byte{}}, nil
	}
	data, err := mapAnon(size)
	if err != nil {
		return nil, err
	}
	return &mappedStore{data: data}, nil
}

func mapAnon(size int64) ([]byte, error) {
	if size > int64(^uint(0)>>1) {
		return nil, fmt.Errorf("backing: mapping too large (%d bytes)", size)
	}
	data, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("backing: mmap %d bytes: %w", size, err)
	}
	return data, nil
}

func (s *mappedStore) Bytes() []byte { return s.data }

func (s *mappedStore) Len() int64 { return int64(len(s.data)) }

func (s *mappedStore) Kind() Kind { return Mmap }

func (s *mappedStore) Grow(n int64) error {
	if s.closed {
		return ErrClosed
	}
	if n < 0 {
		return ErrNegativeSize
	}
	if n <= int64(len(s.data)) {
		return nil
	}
	grown, err := mapAnon(n)
	if err != nil {
		return err
	}
	copy(grown, s.data)
	old := s.data
	s.data = grown
	return unmap(old)
}

func (s *mappedStore) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	old := s.data
	s.data = nil
	return unmap(old)
}

func unmap(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	err := unix.Munmap(data)
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}
