package transaction

import "sync"

// Subscription delivers a transaction's events in emission order. The log
// is replayed from the start, then live events follow. C is closed after
// the Finished event has been delivered, or when Close is called.
type Subscription struct {
	C <-chan Event

	stop chan struct{}
	once sync.Once
	t    *Transaction
}

// Subscribe attaches a new observer. Slow observers never block the
// adapter: each subscription is fed by its own goroutine reading the log.
func (t *Transaction) Subscribe() *Subscription {
	ch := make(chan Event, 16)
	s := &Subscription{C: ch, stop: make(chan struct{}), t: t}
	go s.pump(ch)
	return s
}

// Close detaches the observer. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		close(s.stop)
		s.t.mu.Lock()
		s.t.cond.Broadcast()
		s.t.mu.Unlock()
	})
}

func (s *Subscription) stopped() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

func (s *Subscription) pump(ch chan<- Event) {
	defer close(ch)

	next := 0
	for {
		s.t.mu.Lock()
		for next >= len(s.t.events) && !s.t.finished && !s.stopped() {
			s.t.cond.Wait()
		}
		batch := s.t.events[next:len(s.t.events):len(s.t.events)]
		finished := s.t.finished
		s.t.mu.Unlock()

		if s.stopped() {
			return
		}
		for _, ev := range batch {
			select {
			case ch <- ev:
			case <-s.stop:
				return
			}
		}
		next += len(batch)

		if finished && len(batch) == 0 {
			return
		}
	}
}
