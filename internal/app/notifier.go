package app

import (
	"sync"

	"adaptive-quiz-service/internal/domain"
)

// ProfileNotifier fans profile snapshots out to subscribers, keyed by user.
// Two devices on the same account both see difficulty changes as they land.
type ProfileNotifier struct {
	mu          sync.Mutex
	subscribers map[string]map[chan *domain.UserProfile]struct{}
}

func NewProfileNotifier() *ProfileNotifier {
	return &ProfileNotifier{
		subscribers: make(map[string]map[chan *domain.UserProfile]struct{}),
	}
}

// Subscribe returns a channel receiving profile snapshots for the user.
// The caller must invoke the returned cancel function to avoid leaks.
func (n *ProfileNotifier) Subscribe(userID string) (<-chan *domain.UserProfile, func()) {
	ch := make(chan *domain.UserProfile, 8)

	n.mu.Lock()
	subs, ok := n.subscribers[userID]
	if !ok {
		subs = make(map[chan *domain.UserProfile]struct{})
		n.subscribers[userID] = subs
	}
	subs[ch] = struct{}{}
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		if subs, ok := n.subscribers[userID]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(n.subscribers, userID)
			}
		}
		n.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers a snapshot to every subscriber of the user. Slow
// subscribers have their stale snapshot replaced rather than blocking the
// publisher.
func (n *ProfileNotifier) Publish(profile *domain.UserProfile) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subscribers[profile.UserID] {
		select {
		case ch <- profile:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- profile
		}
	}
}
