package p2p

import "sync"

const DEFAULT_SEEN_CAPACITY = 4096

// SeenSet remembers the most recent message ids. Once full, the oldest id is
// forgotten first.
type SeenSet struct {
	sync.Mutex
	capacity int
	ids      map[string]struct{}
	order    []string
}

func NewSeenSet(capacity int) *SeenSet {
	if capacity <= 0 {
		capacity = DEFAULT_SEEN_CAPACITY
	}
	return &SeenSet{
		capacity: capacity,
		ids:      make(map[string]struct{}, capacity),
		order:    make([]string, 0, capacity),
	}
}

// Mark records id and reports whether it was new.
func (s *SeenSet) Mark(id string) bool {
	s.Lock()
	defer s.Unlock()
	if _, ok := s.ids[id]; ok {
		return false
	}
	if len(s.order) == s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.ids, oldest)
	}
	s.ids[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

func (s *SeenSet) Len() int {
	s.Lock()
	defer s.Unlock()
	return len(s.ids)
}
