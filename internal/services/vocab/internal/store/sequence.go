package store

import "sync/atomic"

// sequence hands out identifiers 1, 2, 3, ... Safe for concurrent use.
type sequence struct {
	last atomic.Int64
}

func (s *sequence) Next() int64 {
	return s.last.Add(1)
}

func (s *sequence) Last() int64 {
	return s.last.Load()
}
