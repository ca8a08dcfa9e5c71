package store

import "sync"

type dummyStore struct {
	data State
	err  error

	lock sync.Mutex
}

// NewDummy returns a store that keeps the state in memory. If err is not
// nil, every call to Store fails with it.
func NewDummy(err error) Store {
	return &dummyStore{
		data: NewState(),
		err:  err,
	}
}

func (s *dummyStore) Load() (State, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.data.Clone(), nil
}

func (s *dummyStore) Store(data State) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.err != nil {
		return &StateIOError{Op: "write", Path: "dummy", Err: s.err}
	}

	s.data = data.Clone()

	return nil
}
