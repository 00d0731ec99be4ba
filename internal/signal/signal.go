// Package signal provides a minimal typed observer list.
//
// It replaces engine-level signals with explicit registration: subscribers
// are plain functions, Subscribe returns a token for Unsubscribe, and Emit
// invokes subscribers synchronously in registration order.
package signal

// Signal is an ordered list of subscribers.
//
// The zero value is ready to use. Not safe for concurrent use: the whole
// engine is driven single-threaded by an external tick loop.
type Signal[T any] struct {
	subs   []subscriber[T]
	nextID int
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Subscribe registers fn and returns a token for Unsubscribe.
func (s *Signal[T]) Subscribe(fn func(T)) int {
	s.nextID++
	s.subs = append(s.subs, subscriber[T]{id: s.nextID, fn: fn})
	return s.nextID
}

// Unsubscribe removes the subscriber registered under token.
// Unknown tokens are ignored.
func (s *Signal[T]) Unsubscribe(token int) {
	for i, sub := range s.subs {
		if sub.id == token {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

// Emit invokes every subscriber with v in registration order.
// Subscribers may unsubscribe themselves (or others) during emission;
// the iteration runs over a snapshot of the list.
func (s *Signal[T]) Emit(v T) {
	if len(s.subs) == 0 {
		return
	}
	snapshot := make([]subscriber[T], len(s.subs))
	copy(snapshot, s.subs)
	for _, sub := range snapshot {
		sub.fn(v)
	}
}

// Len returns the number of registered subscribers.
func (s *Signal[T]) Len() int { return len(s.subs) }
