package gateway

import "sync"

// Sequencer guards against applying stale responses. Each logical operation
// (e.g. "employees.list") takes a ticket before issuing its request; when the
// response arrives only the holder of the latest ticket should apply it.
type Sequencer struct {
	mu     sync.Mutex
	latest map[string]uint64
}

type Ticket struct {
	key string
	seq uint64
}

func NewSequencer() *Sequencer {
	return &Sequencer{latest: make(map[string]uint64)}
}

// Next issues a ticket newer than every previous ticket for key
func (s *Sequencer) Next(key string) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[key]++
	return Ticket{key: key, seq: s.latest[key]}
}

// IsLatest reports whether no newer ticket has been issued for t's key
func (s *Sequencer) IsLatest(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest[t.key] == t.seq
}
